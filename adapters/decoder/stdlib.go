package decoder

import (
	"context"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/Skryldev/image-transform/core"
)

// JPEG decodes JPEG images using the standard library.
type JPEG struct{}

// NewJPEG returns an initialised JPEG decoder.
func NewJPEG() *JPEG { return &JPEG{} }

func (j *JPEG) CanDecode(format core.Format) bool { return format == core.FormatJPEG }

func (j *JPEG) Decode(ctx context.Context, r io.Reader) (image.Image, error) {
	return decode(ctx, "jpeg.decode", r, jpeg.Decode)
}

func (j *JPEG) DecodeConfig(ctx context.Context, r io.Reader) (image.Config, error) {
	return decodeConfig(ctx, "jpeg.config", r, jpeg.DecodeConfig)
}

// PNG decodes PNG images using the standard library.
type PNG struct{}

func NewPNG() *PNG { return &PNG{} }

func (p *PNG) CanDecode(format core.Format) bool { return format == core.FormatPNG }

func (p *PNG) Decode(ctx context.Context, r io.Reader) (image.Image, error) {
	return decode(ctx, "png.decode", r, png.Decode)
}

func (p *PNG) DecodeConfig(ctx context.Context, r io.Reader) (image.Config, error) {
	return decodeConfig(ctx, "png.config", r, png.DecodeConfig)
}

// GIF decodes the first frame of a GIF.
type GIF struct{}

func NewGIF() *GIF { return &GIF{} }

func (g *GIF) CanDecode(format core.Format) bool { return format == core.FormatGIF }

func (g *GIF) Decode(ctx context.Context, r io.Reader) (image.Image, error) {
	return decode(ctx, "gif.decode", r, gif.Decode)
}

func (g *GIF) DecodeConfig(ctx context.Context, r io.Reader) (image.Config, error) {
	return decodeConfig(ctx, "gif.config", r, gif.DecodeConfig)
}
