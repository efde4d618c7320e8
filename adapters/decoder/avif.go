package decoder

import (
	"context"
	"image"
	"io"

	"github.com/gen2brain/avif"

	"github.com/Skryldev/image-transform/core"
)

// AVIF decodes AVIF stills via github.com/gen2brain/avif (libavif compiled to
// WASM, no cgo).
type AVIF struct{}

func NewAVIF() *AVIF { return &AVIF{} }

func (a *AVIF) CanDecode(format core.Format) bool { return format == core.FormatAVIF }

func (a *AVIF) Decode(ctx context.Context, r io.Reader) (image.Image, error) {
	return decode(ctx, "avif.decode", r, avif.Decode)
}

func (a *AVIF) DecodeConfig(ctx context.Context, r io.Reader) (image.Config, error) {
	return decodeConfig(ctx, "avif.config", r, avif.DecodeConfig)
}
