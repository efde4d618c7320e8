package encoder

import (
	"context"
	"image"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/Skryldev/image-transform/core"
	apperrors "github.com/Skryldev/image-transform/errors"
)

// BMP writes uncompressed bitmaps.
type BMP struct{}

func NewBMP() *BMP { return &BMP{} }

func (b *BMP) CanEncode(format core.Format) bool { return format == core.FormatBMP }

func (b *BMP) Encode(ctx context.Context, w io.Writer, img image.Image, _ core.EncodeOptions) error {
	if err := check(ctx, "bmp.encode", w, img); err != nil {
		return err
	}
	if err := bmp.Encode(w, img); err != nil {
		return apperrors.Wrap(apperrors.KindEncodeFailure, "bmp.encode", err)
	}
	return nil
}

// TIFF writes deflate-compressed TIFF.
type TIFF struct{}

func NewTIFF() *TIFF { return &TIFF{} }

func (t *TIFF) CanEncode(format core.Format) bool { return format == core.FormatTIFF }

func (t *TIFF) Encode(ctx context.Context, w io.Writer, img image.Image, _ core.EncodeOptions) error {
	if err := check(ctx, "tiff.encode", w, img); err != nil {
		return err
	}
	if err := tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return apperrors.Wrap(apperrors.KindEncodeFailure, "tiff.encode", err)
	}
	return nil
}
