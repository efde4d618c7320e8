// Package encoder provides format-specific image encoders.
package encoder

import (
	"context"
	"image"
	"io"

	"github.com/Skryldev/image-transform/core"
	apperrors "github.com/Skryldev/image-transform/errors"
)

// DefaultQuality is used when neither the request nor the encoder sets one.
const DefaultQuality = 85

// check validates the common encode preconditions.
func check(ctx context.Context, op string, w io.Writer, img image.Image) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.KindPipeline, op, err)
	}
	if img == nil || w == nil || img.Bounds().Empty() {
		return apperrors.New(apperrors.KindEncodeFailure, op, nil)
	}
	return nil
}

// quality resolves the effective quality and clamps it to 1-100.
func quality(requested, fallback int) int {
	q := requested
	if q <= 0 {
		q = fallback
	}
	if q <= 0 {
		q = DefaultQuality
	}
	if q > 100 {
		q = 100
	}
	return q
}

// RegisterAll installs every encoder in this package into reg.
func RegisterAll(reg core.Registry, defaultQuality int) {
	reg.RegisterEncoder(core.FormatJPEG, NewJPEG(defaultQuality))
	reg.RegisterEncoder(core.FormatPNG, NewPNG())
	reg.RegisterEncoder(core.FormatGIF, NewGIF())
	reg.RegisterEncoder(core.FormatWebP, NewWebP(defaultQuality))
	reg.RegisterEncoder(core.FormatAVIF, NewAVIF(0, 0))
	reg.RegisterEncoder(core.FormatBMP, NewBMP())
	reg.RegisterEncoder(core.FormatTIFF, NewTIFF())
}
