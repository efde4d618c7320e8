package transform_test

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/image-transform/core"
	apperrors "github.com/Skryldev/image-transform/errors"
	"github.com/Skryldev/image-transform/testutil"
	"github.com/Skryldev/image-transform/transform"
	"github.com/Skryldev/image-transform/utils"
)

var unbounded utils.Limits

func buffer(w, h int) *core.ImageBuffer {
	return core.NewImageBuffer(testutil.Quadrants(w, h))
}

// corners returns the colours at the four corners: TL, TR, BL, BR.
func corners(img image.Image) [4]color.NRGBA {
	b := img.Bounds()
	at := func(x, y int) color.NRGBA { return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA) }
	return [4]color.NRGBA{
		at(b.Min.X, b.Min.Y),
		at(b.Max.X-1, b.Min.Y),
		at(b.Min.X, b.Max.Y-1),
		at(b.Max.X-1, b.Max.Y-1),
	}
}

var (
	r = testutil.Red
	g = testutil.Green
	b = testutil.Blue
	y = testutil.Yellow
)

func TestResize_Scenarios(t *testing.T) {
	src := buffer(1024, 768)

	out, err := transform.Resize(src, 170, 170, true, imaging.Lanczos, unbounded)
	require.NoError(t, err)
	assert.Equal(t, 170, out.Width())
	assert.Equal(t, 170, out.Height())

	out, err = transform.Resize(src, 170, 170, false, imaging.Lanczos, unbounded)
	require.NoError(t, err)
	assert.Equal(t, 170, out.Width())
	assert.Equal(t, 128, out.Height())

	// The input is untouched.
	assert.Equal(t, 1024, src.Width())
	assert.Equal(t, 768, src.Height())
}

func TestResize_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 40; i++ {
		sw, sh := 1+rng.Intn(300), 1+rng.Intn(300)
		tw, th := 1+rng.Intn(300), 1+rng.Intn(300)
		src := buffer(sw, sh)

		cropped, err := transform.Resize(src, tw, th, true, imaging.Box, unbounded)
		require.NoError(t, err)
		assert.Equal(t, tw, cropped.Width())
		assert.Equal(t, th, cropped.Height())

		fit, err := transform.Resize(src, tw, th, false, imaging.Box, unbounded)
		require.NoError(t, err)
		assert.LessOrEqual(t, fit.Width(), tw)
		assert.LessOrEqual(t, fit.Height(), th)
		assert.True(t, fit.Width() == tw || fit.Height() == th, "one side touches the box")

		// Aspect ratio within one pixel of rounding on the derived axis.
		if fit.Width() == tw {
			want := float64(sh) * float64(tw) / float64(sw)
			assert.InDeltaf(t, want, float64(fit.Height()), 1, "%dx%d into %dx%d", sw, sh, tw, th)
		} else {
			want := float64(sw) * float64(th) / float64(sh)
			assert.InDeltaf(t, want, float64(fit.Width()), 1, "%dx%d into %dx%d", sw, sh, tw, th)
		}
	}
}

func TestResize_CropKeepsCentre(t *testing.T) {
	// A wide image cropped to a square keeps the middle columns, so all four
	// quadrant colours survive.
	out, err := transform.Resize(buffer(400, 100), 100, 100, true, imaging.NearestNeighbor, unbounded)
	require.NoError(t, err)
	assert.Equal(t, [4]color.NRGBA{r, g, b, y}, corners(out.Image))
}

func TestResize_InvalidDimension(t *testing.T) {
	for _, dims := range [][2]int{{0, 10}, {10, 0}, {-1, 10}, {10, -5}, {0, 0}} {
		_, err := transform.Resize(buffer(10, 10), dims[0], dims[1], false, imaging.Lanczos, unbounded)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrInvalidDimension)
	}
}

func TestResize_TargetOverLimit(t *testing.T) {
	lim := utils.Limits{MaxDimension: 16384, MaxPixels: 64 << 20}
	for _, crop := range []bool{true, false} {
		_, err := transform.Resize(buffer(10, 10), 1<<31, 1<<31, crop, imaging.Lanczos, lim)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrInvalidDimension)
		assert.ErrorIs(t, err, utils.ErrPixelLimit)
	}

	// Each side is allowed, the area is not.
	_, err := transform.Resize(buffer(10, 10), 10000, 10000, false, imaging.Box, lim)
	assert.ErrorIs(t, err, apperrors.ErrInvalidDimension)
}

func TestResize_CropIntermediateOverLimit(t *testing.T) {
	// A 2x200 strip cropped to 100x100 must first be scaled to 100x10000.
	lim := utils.Limits{MaxPixels: 500000}
	_, err := transform.Resize(buffer(2, 200), 100, 100, true, imaging.Box, lim)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidDimension)

	out, err := transform.Resize(buffer(2, 200), 100, 100, false, imaging.Box, lim)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Width())
	assert.Equal(t, 100, out.Height())
}

func TestRotate_Dimensions(t *testing.T) {
	src := buffer(1920, 1200)

	out, err := transform.Rotate(src, 90)
	require.NoError(t, err)
	assert.Equal(t, 1200, out.Width())
	assert.Equal(t, 1920, out.Height())

	out, err = transform.Rotate(src, 270)
	require.NoError(t, err)
	assert.Equal(t, 1200, out.Width())
	assert.Equal(t, 1920, out.Height())

	out, err = transform.Rotate(src, 180)
	require.NoError(t, err)
	assert.Equal(t, 1920, out.Width())
	assert.Equal(t, 1200, out.Height())
}

func TestRotate_IsClockwiseAndLossless(t *testing.T) {
	src := buffer(8, 4)
	cases := map[int][4]color.NRGBA{
		0:   {r, g, b, y},
		90:  {b, r, y, g},
		180: {y, b, g, r},
		270: {g, y, r, b},
	}
	for deg, want := range cases {
		out, err := transform.Rotate(src, deg)
		require.NoError(t, err)
		assert.Equalf(t, want, corners(out.Image), "rotate %d", deg)
	}

	// Four quarter turns reproduce the original pixels exactly.
	cur := src
	for i := 0; i < 4; i++ {
		var err error
		cur, err = transform.Rotate(cur, 90)
		require.NoError(t, err)
	}
	orig := src.Image.(*image.NRGBA)
	got := cur.Image.(*image.NRGBA)
	assert.Equal(t, orig.Pix, got.Pix)
}

func TestRotate_ZeroReturnsCopy(t *testing.T) {
	src := buffer(4, 4)
	out, err := transform.Rotate(src, 0)
	require.NoError(t, err)
	out.Image.(*image.NRGBA).SetNRGBA(0, 0, color.NRGBA{})
	assert.Equal(t, r, src.Image.(*image.NRGBA).NRGBAAt(0, 0))
}

func TestRotate_Unsupported(t *testing.T) {
	for _, deg := range []int{93, 45, -90, 360, 1, 271} {
		_, err := transform.Rotate(buffer(4, 4), deg)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrUnsupportedRotation, "deg %d", deg)
	}
}

func TestNormalize_AllOrientations(t *testing.T) {
	src := buffer(8, 4)
	cases := []struct {
		tag     int
		want    [4]color.NRGBA
		swapped bool
	}{
		{1, [4]color.NRGBA{r, g, b, y}, false},
		{2, [4]color.NRGBA{g, r, y, b}, false},
		{3, [4]color.NRGBA{y, b, g, r}, false},
		{4, [4]color.NRGBA{b, y, r, g}, false},
		{5, [4]color.NRGBA{r, b, g, y}, true},
		{6, [4]color.NRGBA{b, r, y, g}, true},
		{7, [4]color.NRGBA{y, g, b, r}, true},
		{8, [4]color.NRGBA{g, y, r, b}, true},
		{9, [4]color.NRGBA{r, g, b, y}, false},
		{0, [4]color.NRGBA{r, g, b, y}, false},
		{-3, [4]color.NRGBA{r, g, b, y}, false},
	}
	for _, tc := range cases {
		meta := core.Metadata{Width: 8, Height: 4, Orientation: tc.tag}
		out, m := transform.Normalize(src, meta, true)
		assert.Equalf(t, tc.want, corners(out.Image), "orientation %d", tc.tag)
		assert.Equal(t, 1, m.Orientation)
		if tc.swapped {
			assert.Equal(t, [2]int{4, 8}, [2]int{out.Width(), out.Height()})
			assert.Equal(t, [2]int{4, 8}, [2]int{m.Width, m.Height})
		} else {
			assert.Equal(t, [2]int{8, 4}, [2]int{out.Width(), out.Height()})
		}
	}
}

func TestNormalize_Disabled(t *testing.T) {
	src := buffer(8, 4)
	meta := core.Metadata{Width: 8, Height: 4, Orientation: 6}
	out, m := transform.Normalize(src, meta, false)
	assert.Same(t, src, out)
	assert.Equal(t, meta, m)
}

func TestFilter(t *testing.T) {
	for _, name := range []string{"", "lanczos", "CatmullRom", "mitchell", "linear", "box", "nearest"} {
		_, err := transform.Filter(name)
		assert.NoError(t, err, name)
	}
	_, err := transform.Filter("bicubic-ish")
	assert.ErrorIs(t, err, apperrors.ErrConfig)
}
