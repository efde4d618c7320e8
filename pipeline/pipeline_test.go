package pipeline_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/image-transform/core"
	apperrors "github.com/Skryldev/image-transform/errors"
	"github.com/Skryldev/image-transform/pipeline"
	"github.com/Skryldev/image-transform/testutil"
	"github.com/Skryldev/image-transform/utils"
)

// memCodec serves fixed images by path and records encodes.
type memCodec struct {
	mu      sync.Mutex
	images  map[string]*core.ImageBuffer
	meta    map[string]core.Metadata
	encoded map[string]core.EncodeOptions
	sizes   map[string][2]int
}

func newMemCodec() *memCodec {
	return &memCodec{
		images:  make(map[string]*core.ImageBuffer),
		meta:    make(map[string]core.Metadata),
		encoded: make(map[string]core.EncodeOptions),
		sizes:   make(map[string][2]int),
	}
}

func (c *memCodec) add(path string, w, h, orientation int) {
	c.images[path] = core.NewImageBuffer(testutil.Quadrants(w, h))
	c.meta[path] = core.Metadata{Width: w, Height: h, Orientation: orientation, Format: core.FormatJPEG}
}

func (c *memCodec) Decode(_ context.Context, path string) (*core.ImageBuffer, core.Metadata, error) {
	buf, ok := c.images[path]
	if !ok {
		return nil, core.Metadata{}, apperrors.New(apperrors.KindNotFound, "mem.decode", nil)
	}
	return buf, c.meta[path], nil
}

func (c *memCodec) Encode(_ context.Context, buf *core.ImageBuffer, path string, opts core.EncodeOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.encoded[path] = opts
	c.sizes[path] = [2]int{buf.Width(), buf.Height()}
	return nil
}

func (c *memCodec) Probe(_ context.Context, path string) (core.Metadata, error) {
	return c.meta[path], nil
}

// stageRecorder is a hook remembering every stage it observed.
type stageRecorder struct {
	before []core.Stage
	after  []core.Stage
	errs   []error
}

func (r *stageRecorder) BeforeStep(_ context.Context, st *core.JobState) {
	r.before = append(r.before, st.Stage)
}

func (r *stageRecorder) AfterStep(_ context.Context, st *core.JobState, _ time.Duration, err error) {
	r.after = append(r.after, st.Stage)
	r.errs = append(r.errs, err)
}

func run(t *testing.T, c *memCodec, req core.TransformRequest, hooks ...core.Hook) (*core.JobState, error) {
	t.Helper()
	p := pipeline.Standard(c, pipeline.TransformStep{Filter: imaging.Lanczos}, pipeline.EncodeStep{DefaultQuality: 85})
	for _, h := range hooks {
		p.AddHook(h)
	}
	return p.Run(context.Background(), &core.JobState{ID: "job", Request: req, Stage: core.StageSubmitted})
}

func TestPipeline_StageOrder(t *testing.T) {
	c := newMemCodec()
	c.add("in.jpg", 100, 50, 1)
	rec := &stageRecorder{}

	final, err := run(t, c, core.TransformRequest{Input: "in.jpg", Output: "out.jpg", Width: 10, Height: 10}, rec)
	require.NoError(t, err)
	assert.Equal(t, core.StageCompleted, final.Stage)

	want := []core.Stage{core.StageDecoding, core.StageNormalizing, core.StageTransforming, core.StageEncoding}
	assert.Equal(t, want, rec.before)
	assert.Equal(t, want, rec.after)
	assert.Equal(t, []string{"decode", "normalize", "transform", "encode"},
		pipeline.Standard(c, pipeline.TransformStep{Filter: imaging.Lanczos}, pipeline.EncodeStep{}).Steps())
}

func TestPipeline_FailureStopsRun(t *testing.T) {
	c := newMemCodec()
	rec := &stageRecorder{}

	final, err := run(t, c, core.TransformRequest{Input: "missing.jpg", Output: "out.jpg", AutoOrient: true}, rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	assert.Equal(t, core.StageFailed, final.Stage)
	assert.Equal(t, []core.Stage{core.StageDecoding}, rec.before)
	require.Len(t, rec.errs, 1)
	assert.Error(t, rec.errs[0])
	assert.Empty(t, c.encoded)
}

func TestPipeline_BadRotationNeverEncodes(t *testing.T) {
	c := newMemCodec()
	c.add("in.jpg", 20, 10, 1)

	_, err := run(t, c, core.TransformRequest{Input: "in.jpg", Output: "out.jpg", Rotate: 93})
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedRotation)
	assert.Empty(t, c.encoded)
}

func TestPipeline_ResizeBeforeRotate(t *testing.T) {
	c := newMemCodec()
	c.add("in.jpg", 200, 100, 1)

	final, err := run(t, c, core.TransformRequest{
		Input: "in.jpg", Output: "out.jpg", Width: 60, Height: 30, Crop: true, Rotate: 90,
	})
	require.NoError(t, err)
	assert.Equal(t, [2]int{30, 60}, c.sizes["out.jpg"])
	assert.Equal(t, 30, final.Meta.Width)
	assert.Equal(t, 60, final.Meta.Height)
}

func TestPipeline_AutoOrient(t *testing.T) {
	c := newMemCodec()
	c.add("sideways.jpg", 80, 40, 6)
	c.add("bogus.jpg", 80, 40, 9)

	_, err := run(t, c, core.TransformRequest{Input: "sideways.jpg", Output: "a.jpg", AutoOrient: true})
	require.NoError(t, err)
	assert.Equal(t, [2]int{40, 80}, c.sizes["a.jpg"])

	_, err = run(t, c, core.TransformRequest{Input: "sideways.jpg", Output: "b.jpg"})
	require.NoError(t, err)
	assert.Equal(t, [2]int{80, 40}, c.sizes["b.jpg"])

	_, err = run(t, c, core.TransformRequest{Input: "bogus.jpg", Output: "c.jpg", AutoOrient: true})
	require.NoError(t, err)
	assert.Equal(t, [2]int{80, 40}, c.sizes["c.jpg"])
}

func TestEncodeStep_Quality(t *testing.T) {
	c := newMemCodec()
	c.add("in.jpg", 8, 8, 1)

	_, err := run(t, c, core.TransformRequest{Input: "in.jpg", Output: "suffix.jpg:40"})
	require.NoError(t, err)
	assert.Equal(t, 40, c.encoded["suffix.jpg"].Quality, "suffix is stripped from the path")

	_, err = run(t, c, core.TransformRequest{Input: "in.jpg", Output: "both.jpg:40", Quality: 70})
	require.NoError(t, err)
	assert.Equal(t, 70, c.encoded["both.jpg"].Quality)

	_, err = run(t, c, core.TransformRequest{Input: "in.jpg", Output: "plain.jpg"})
	require.NoError(t, err)
	assert.Equal(t, 85, c.encoded["plain.jpg"].Quality)

	_, err = run(t, c, core.TransformRequest{Input: "in.jpg", Output: "bad.jpg:400"})
	assert.ErrorIs(t, err, apperrors.ErrEncodeFailure)
}

func TestEncodeStep_Resolve(t *testing.T) {
	c := newMemCodec()
	c.add("in.jpg", 8, 8, 1)
	step := pipeline.EncodeStep{
		Resolve: func(path string, requested, source core.Format) (core.Format, error) {
			assert.Equal(t, "out", path)
			assert.Equal(t, core.FormatJPEG, source)
			return core.FormatPNG, nil
		},
	}
	p := pipeline.Standard(c, pipeline.TransformStep{Filter: imaging.Box}, step)
	final, err := p.Run(context.Background(), &core.JobState{Request: core.TransformRequest{Input: "in.jpg", Output: "out"}})
	require.NoError(t, err)
	assert.Equal(t, core.FormatPNG, final.Output.Format)
	assert.Equal(t, core.FormatPNG, c.encoded["out"].Format)
}

func TestEncodeStep_PassesLossless(t *testing.T) {
	c := newMemCodec()
	c.add("in.jpg", 8, 8, 1)

	_, err := run(t, c, core.TransformRequest{Input: "in.jpg", Output: "out.webp", Lossless: true})
	require.NoError(t, err)
	assert.True(t, c.encoded["out.webp"].Lossless)

	_, err = run(t, c, core.TransformRequest{Input: "in.jpg", Output: "lossy.webp"})
	require.NoError(t, err)
	assert.False(t, c.encoded["lossy.webp"].Lossless)
}

func TestTransformStep_EnforcesLimits(t *testing.T) {
	c := newMemCodec()
	c.add("in.jpg", 8, 8, 1)
	p := pipeline.Standard(c,
		pipeline.TransformStep{Filter: imaging.Box, Limits: utils.Limits{MaxDimension: 100, MaxPixels: 5000}},
		pipeline.EncodeStep{})

	st := &core.JobState{Request: core.TransformRequest{Input: "in.jpg", Output: "big.jpg", Width: 101, Height: 10}}
	final, err := p.Run(context.Background(), st)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidDimension)
	assert.Equal(t, core.StageFailed, final.Stage)
	assert.NotContains(t, c.encoded, "big.jpg")

	st = &core.JobState{Request: core.TransformRequest{Input: "in.jpg", Output: "area.jpg", Width: 100, Height: 100}}
	_, err = p.Run(context.Background(), st)
	assert.ErrorIs(t, err, utils.ErrPixelLimit)

	st = &core.JobState{Request: core.TransformRequest{Input: "in.jpg", Output: "ok.jpg", Width: 40, Height: 40, Crop: true}}
	_, err = p.Run(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, [2]int{40, 40}, c.sizes["ok.jpg"])
}

func TestPipeline_RefusesFinishedState(t *testing.T) {
	c := newMemCodec()
	c.add("in.jpg", 8, 8, 1)
	rec := &stageRecorder{}
	p := pipeline.Standard(c, pipeline.TransformStep{Filter: imaging.Box}, pipeline.EncodeStep{})
	p.AddHook(rec)

	for _, stage := range []core.Stage{core.StageCompleted, core.StageFailed} {
		st := &core.JobState{ID: "j1", Stage: stage, Request: core.TransformRequest{Input: "in.jpg", Output: "again.jpg"}}
		final, err := p.Run(context.Background(), st)
		require.Error(t, err)
		assert.Equal(t, apperrors.KindPipeline, apperrors.KindOf(err))
		assert.Same(t, st, final)
	}
	assert.Empty(t, rec.before)
	assert.NotContains(t, c.encoded, "again.jpg")
}

func TestPipeline_CloneIsIndependent(t *testing.T) {
	base := pipeline.New().Use(&pipeline.NormalizeStep{})
	cp := base.Clone().Use(&pipeline.TransformStep{})
	assert.Len(t, base.Steps(), 1)
	assert.Len(t, cp.Steps(), 2)
}
