package decoder

import (
	"context"
	"image"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/Skryldev/image-transform/core"
)

// WebP decodes WebP images (lossy and lossless) using golang.org/x/image/webp.
type WebP struct{}

func NewWebP() *WebP { return &WebP{} }

func (w *WebP) CanDecode(format core.Format) bool { return format == core.FormatWebP }

func (w *WebP) Decode(ctx context.Context, r io.Reader) (image.Image, error) {
	return decode(ctx, "webp.decode", r, webp.Decode)
}

func (w *WebP) DecodeConfig(ctx context.Context, r io.Reader) (image.Config, error) {
	return decodeConfig(ctx, "webp.config", r, webp.DecodeConfig)
}

// BMP decodes Windows bitmaps.
type BMP struct{}

func NewBMP() *BMP { return &BMP{} }

func (b *BMP) CanDecode(format core.Format) bool { return format == core.FormatBMP }

func (b *BMP) Decode(ctx context.Context, r io.Reader) (image.Image, error) {
	return decode(ctx, "bmp.decode", r, bmp.Decode)
}

func (b *BMP) DecodeConfig(ctx context.Context, r io.Reader) (image.Config, error) {
	return decodeConfig(ctx, "bmp.config", r, bmp.DecodeConfig)
}

// TIFF decodes the first image of a TIFF file.
type TIFF struct{}

func NewTIFF() *TIFF { return &TIFF{} }

func (t *TIFF) CanDecode(format core.Format) bool { return format == core.FormatTIFF }

func (t *TIFF) Decode(ctx context.Context, r io.Reader) (image.Image, error) {
	return decode(ctx, "tiff.decode", r, tiff.Decode)
}

func (t *TIFF) DecodeConfig(ctx context.Context, r io.Reader) (image.Config, error) {
	return decodeConfig(ctx, "tiff.config", r, tiff.DecodeConfig)
}
