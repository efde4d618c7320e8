package encoder

import (
	"context"
	"image"
	"io"

	webp "github.com/chai2010/webp"

	"github.com/Skryldev/image-transform/core"
	apperrors "github.com/Skryldev/image-transform/errors"
)

// WebP encodes images to WebP via github.com/chai2010/webp.
type WebP struct {
	DefaultQuality int
}

func NewWebP(defaultQuality int) *WebP {
	if defaultQuality <= 0 {
		defaultQuality = DefaultQuality
	}
	return &WebP{DefaultQuality: defaultQuality}
}

func (w *WebP) CanEncode(format core.Format) bool { return format == core.FormatWebP }

func (w *WebP) Encode(ctx context.Context, dst io.Writer, img image.Image, opts core.EncodeOptions) error {
	if err := check(ctx, "webp.encode", dst, img); err != nil {
		return err
	}
	o := &webp.Options{
		Lossless: opts.Lossless,
		Quality:  float32(quality(opts.Quality, w.DefaultQuality)),
	}
	if err := webp.Encode(dst, img, o); err != nil {
		return apperrors.Wrap(apperrors.KindEncodeFailure, "webp.encode", err)
	}
	return nil
}
