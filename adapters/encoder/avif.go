package encoder

import (
	"context"
	"image"
	"io"

	"github.com/gen2brain/avif"

	"github.com/Skryldev/image-transform/core"
	apperrors "github.com/Skryldev/image-transform/errors"
)

const (
	DefaultAVIFQuality = 60
	DefaultAVIFSpeed   = 6
)

// AVIF encodes images via github.com/gen2brain/avif.
type AVIF struct {
	DefaultQuality int
	Speed          int // 0 slowest/best .. 10 fastest
}

func NewAVIF(defaultQuality, speed int) *AVIF {
	if defaultQuality <= 0 {
		defaultQuality = DefaultAVIFQuality
	}
	if speed <= 0 || speed > 10 {
		speed = DefaultAVIFSpeed
	}
	return &AVIF{DefaultQuality: defaultQuality, Speed: speed}
}

func (a *AVIF) CanEncode(format core.Format) bool { return format == core.FormatAVIF }

func (a *AVIF) Encode(ctx context.Context, w io.Writer, img image.Image, opts core.EncodeOptions) error {
	if err := check(ctx, "avif.encode", w, img); err != nil {
		return err
	}
	q := quality(opts.Quality, a.DefaultQuality)
	if opts.Lossless {
		q = 100
	}
	if err := avif.Encode(w, img, avif.Options{Quality: q, QualityAlpha: q, Speed: a.Speed}); err != nil {
		return apperrors.Wrap(apperrors.KindEncodeFailure, "avif.encode", err)
	}
	return nil
}
