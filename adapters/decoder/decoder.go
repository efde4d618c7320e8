// Package decoder provides format-specific image decoders.
package decoder

import (
	"context"
	"image"
	"image/color"
	"io"

	"github.com/Skryldev/image-transform/core"
	apperrors "github.com/Skryldev/image-transform/errors"
)

type (
	decodeFunc       func(io.Reader) (image.Image, error)
	decodeConfigFunc func(io.Reader) (image.Config, error)
)

// decode runs fn and classifies every failure as corrupt data: by the time a
// decoder is chosen the format has already been recognised.
func decode(ctx context.Context, op string, r io.Reader, fn decodeFunc) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindPipeline, op, err)
	}
	img, err := fn(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindCorruptData, op, err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, apperrors.New(apperrors.KindCorruptData, op, nil)
	}
	return img, nil
}

func decodeConfig(ctx context.Context, op string, r io.Reader, fn decodeConfigFunc) (image.Config, error) {
	if err := ctx.Err(); err != nil {
		return image.Config{}, apperrors.Wrap(apperrors.KindPipeline, op, err)
	}
	cfg, err := fn(r)
	if err != nil {
		return image.Config{}, apperrors.Wrap(apperrors.KindCorruptData, op, err)
	}
	return cfg, nil
}

// ColorSpace returns the colour space of a colour model.
func ColorSpace(m color.Model) core.ColorSpace {
	switch m {
	case color.GrayModel, color.Gray16Model:
		return core.ColorSpaceGray
	case color.CMYKModel:
		return core.ColorSpaceCMYK
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model:
		return core.ColorSpaceRGBA
	}
	return core.ColorSpaceRGB
}

// HasAlpha reports whether a colour model can carry transparency.  Paletted
// models count when any palette entry is not opaque.
func HasAlpha(m color.Model) bool {
	switch m {
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model,
		color.AlphaModel, color.Alpha16Model:
		return true
	}
	if p, ok := m.(color.Palette); ok {
		for _, c := range p {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}

// RegisterAll installs every decoder in this package into reg.
func RegisterAll(reg core.Registry) {
	reg.RegisterDecoder(core.FormatJPEG, NewJPEG())
	reg.RegisterDecoder(core.FormatPNG, NewPNG())
	reg.RegisterDecoder(core.FormatGIF, NewGIF())
	reg.RegisterDecoder(core.FormatWebP, NewWebP())
	reg.RegisterDecoder(core.FormatBMP, NewBMP())
	reg.RegisterDecoder(core.FormatTIFF, NewTIFF())
	reg.RegisterDecoder(core.FormatAVIF, NewAVIF())
}
