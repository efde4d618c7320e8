package pipeline

import (
	"context"
	"fmt"

	"github.com/disintegration/imaging"

	"github.com/Skryldev/image-transform/core"
	apperrors "github.com/Skryldev/image-transform/errors"
	"github.com/Skryldev/image-transform/transform"
	"github.com/Skryldev/image-transform/utils"
)

// ── Decode ────────────────────────────────────────────────────────────────────

// DecodeStep loads the request's input through the codec.
type DecodeStep struct {
	Codec core.Codec
}

func (s *DecodeStep) Name() string      { return "decode" }
func (s *DecodeStep) Stage() core.Stage { return core.StageDecoding }

func (s *DecodeStep) Execute(ctx context.Context, st *core.JobState) (*core.JobState, error) {
	buf, meta, err := s.Codec.Decode(ctx, st.Request.Input)
	if err != nil {
		return nil, err
	}
	out := *st
	out.Buffer = buf
	out.Meta = meta
	return &out, nil
}

// ── Normalize ─────────────────────────────────────────────────────────────────

// NormalizeStep applies the EXIF orientation when the request asks for it.
type NormalizeStep struct{}

func (s *NormalizeStep) Name() string      { return "normalize" }
func (s *NormalizeStep) Stage() core.Stage { return core.StageNormalizing }

func (s *NormalizeStep) Execute(_ context.Context, st *core.JobState) (*core.JobState, error) {
	if st.Buffer == nil {
		return nil, apperrors.New(apperrors.KindPipeline, s.Name(), fmt.Errorf("no decoded image"))
	}
	out := *st
	out.Buffer, out.Meta = transform.Normalize(st.Buffer, st.Meta, st.Request.AutoOrient)
	return &out, nil
}

// ── Transform ─────────────────────────────────────────────────────────────────

// TransformStep resizes, then rotates.  Both are skipped when the request
// does not ask for them.
type TransformStep struct {
	Filter imaging.ResampleFilter // zero value resamples nearest-neighbour
	Limits utils.Limits           // zero value allows any size
}

func (s *TransformStep) Name() string      { return "transform" }
func (s *TransformStep) Stage() core.Stage { return core.StageTransforming }

func (s *TransformStep) Execute(_ context.Context, st *core.JobState) (*core.JobState, error) {
	req := st.Request
	if err := transform.ValidateRotation(req.Rotate); err != nil {
		return nil, err
	}
	buf := st.Buffer
	if buf == nil {
		return nil, apperrors.New(apperrors.KindPipeline, s.Name(), fmt.Errorf("no decoded image"))
	}

	var err error
	if req.NeedsResize() {
		if buf, err = transform.Resize(buf, req.Width, req.Height, req.Crop, s.Filter, s.Limits); err != nil {
			return nil, err
		}
	}
	if req.Rotate != 0 {
		if buf, err = transform.Rotate(buf, req.Rotate); err != nil {
			return nil, err
		}
	}

	out := *st
	out.Buffer = buf
	out.Meta.Width, out.Meta.Height = buf.Width(), buf.Height()
	return &out, nil
}

// ── Encode ────────────────────────────────────────────────────────────────────

// FormatResolver picks the output format for a path, given the requested
// and source formats.
type FormatResolver func(path string, requested, source core.Format) (core.Format, error)

// EncodeStep writes the buffer to the request's output.  The output path may
// carry a ":quality" suffix; an explicit request quality wins over it.
type EncodeStep struct {
	Codec          core.Codec
	Resolve        FormatResolver // optional
	DefaultQuality int
}

func (s *EncodeStep) Name() string      { return "encode" }
func (s *EncodeStep) Stage() core.Stage { return core.StageEncoding }

func (s *EncodeStep) Execute(ctx context.Context, st *core.JobState) (*core.JobState, error) {
	path, suffixQuality, err := utils.ParseOutputSpec(st.Request.Output)
	if err != nil {
		return nil, apperrors.New(apperrors.KindEncodeFailure, s.Name(), err)
	}
	opts := core.EncodeOptions{
		Format:   st.Request.Format,
		Quality:  firstPositive(st.Request.Quality, suffixQuality, s.DefaultQuality),
		Lossless: st.Request.Lossless,
	}
	if s.Resolve != nil {
		if opts.Format, err = s.Resolve(path, st.Request.Format, st.Meta.Format); err != nil {
			return nil, err
		}
	}
	if err := s.Codec.Encode(ctx, st.Buffer, path, opts); err != nil {
		return nil, err
	}
	out := *st
	out.Output = opts
	return &out, nil
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}

// ── Standard ──────────────────────────────────────────────────────────────────

// Standard returns the decode → normalize → transform → encode pipeline.
func Standard(codec core.Codec, tr TransformStep, encode EncodeStep) *Pipeline {
	encode.Codec = codec
	return New().Use(
		&DecodeStep{Codec: codec},
		&NormalizeStep{},
		&tr,
		&encode,
	)
}

// compile-time interface checks
var (
	_ core.Step = (*DecodeStep)(nil)
	_ core.Step = (*NormalizeStep)(nil)
	_ core.Step = (*TransformStep)(nil)
	_ core.Step = (*EncodeStep)(nil)
)
