package encoder

import (
	"context"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/Skryldev/image-transform/core"
	apperrors "github.com/Skryldev/image-transform/errors"
)

// JPEG encodes images to JPEG format.
type JPEG struct {
	DefaultQuality int // used when EncodeOptions.Quality == 0
}

func NewJPEG(defaultQuality int) *JPEG {
	if defaultQuality <= 0 {
		defaultQuality = DefaultQuality
	}
	return &JPEG{DefaultQuality: defaultQuality}
}

func (j *JPEG) CanEncode(format core.Format) bool { return format == core.FormatJPEG }

func (j *JPEG) Encode(ctx context.Context, w io.Writer, img image.Image, opts core.EncodeOptions) error {
	if err := check(ctx, "jpeg.encode", w, img); err != nil {
		return err
	}
	q := quality(opts.Quality, j.DefaultQuality)
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: q}); err != nil {
		return apperrors.Wrap(apperrors.KindEncodeFailure, "jpeg.encode", err)
	}
	return nil
}

// PNG encodes images to PNG.  Quality maps onto the zlib compression level.
type PNG struct{}

func NewPNG() *PNG { return &PNG{} }

func (p *PNG) CanEncode(format core.Format) bool { return format == core.FormatPNG }

func (p *PNG) Encode(ctx context.Context, w io.Writer, img image.Image, opts core.EncodeOptions) error {
	if err := check(ctx, "png.encode", w, img); err != nil {
		return err
	}
	level := png.DefaultCompression
	switch {
	case opts.Quality <= 0:
	case opts.Quality >= 90:
		level = png.BestSpeed
	case opts.Quality <= 30:
		level = png.BestCompression
	}
	enc := png.Encoder{CompressionLevel: level}
	if err := enc.Encode(w, img); err != nil {
		return apperrors.Wrap(apperrors.KindEncodeFailure, "png.encode", err)
	}
	return nil
}

// GIF encodes a single-frame GIF with the standard 256 colour quantiser.
type GIF struct{}

func NewGIF() *GIF { return &GIF{} }

func (g *GIF) CanEncode(format core.Format) bool { return format == core.FormatGIF }

func (g *GIF) Encode(ctx context.Context, w io.Writer, img image.Image, _ core.EncodeOptions) error {
	if err := check(ctx, "gif.encode", w, img); err != nil {
		return err
	}
	if err := gif.Encode(w, img, &gif.Options{NumColors: 256}); err != nil {
		return apperrors.Wrap(apperrors.KindEncodeFailure, "gif.encode", err)
	}
	return nil
}
