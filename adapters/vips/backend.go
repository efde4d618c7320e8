//go:build vips

// Package vips provides an optional libvips-backed Decoder and Encoder.  It
// needs libvips and cgo, so it is only compiled with -tags vips.
package vips

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"runtime"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/Skryldev/image-transform/core"
	apperrors "github.com/Skryldev/image-transform/errors"
	"github.com/Skryldev/image-transform/utils"
)

// BackendConfig configures the libvips backend.
type BackendConfig struct {
	DefaultQuality int
	MaxCacheSize   int
	MaxWorkers     int
	ReportLeaks    bool
}

// Backend is a unified libvips-powered Decoder and Encoder.
// Safe for concurrent use across goroutines.
type Backend struct {
	cfg BackendConfig
}

// NewBackend initialises libvips and returns a ready Backend.
// Call Shutdown() when the process exits.
func NewBackend(cfg BackendConfig) *Backend {
	if cfg.DefaultQuality <= 0 {
		cfg.DefaultQuality = 85
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = runtime.NumCPU()
	}
	govips.Startup(&govips.Config{
		ConcurrencyLevel: cfg.MaxWorkers,
		MaxCacheSize:     cfg.MaxCacheSize,
		ReportLeaks:      cfg.ReportLeaks,
	})
	return &Backend{cfg: cfg}
}

// Shutdown releases all libvips resources. Call once at process exit.
func (b *Backend) Shutdown() {
	govips.Shutdown()
}

// ─── Decoder ──────────────────────────────────────────────────────────────────

func (b *Backend) CanDecode(f core.Format) bool {
	switch f {
	case core.FormatJPEG, core.FormatPNG, core.FormatWebP, core.FormatGIF, core.FormatTIFF:
		return true
	}
	return false
}

// Decode loads the stream with libvips and hands the pixels back as an
// image.Image.  Orientation is left alone; normalisation happens later.
func (b *Backend) Decode(ctx context.Context, r io.Reader) (image.Image, error) {
	ref, err := b.load(ctx, "vips.decode", r)
	if err != nil {
		return nil, err
	}
	defer ref.Close()

	img, err := ref.ToImage(nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindCorruptData, "vips.decode", err)
	}
	return img, nil
}

func (b *Backend) DecodeConfig(ctx context.Context, r io.Reader) (image.Config, error) {
	ref, err := b.load(ctx, "vips.config", r)
	if err != nil {
		return image.Config{}, err
	}
	defer ref.Close()

	cfg := image.Config{Width: ref.Width(), Height: ref.Height()}
	switch ref.Interpretation() {
	case govips.InterpretationBW, govips.InterpretationGrey16:
		cfg.ColorModel = grayModel(ref.HasAlpha())
	default:
		cfg.ColorModel = rgbModel(ref.HasAlpha())
	}
	return cfg, nil
}

func (b *Backend) load(ctx context.Context, op string, r io.Reader) (*govips.ImageRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindPipeline, op, err)
	}
	buf, err := utils.DrainReader(ctx, r, 32*1024, 0)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindCorruptData, op, err)
	}
	// libvips keeps a reference to the input; give it its own copy.
	raw := append([]byte(nil), buf.Bytes()...)
	utils.ReleaseBuffer(buf)

	ref, err := govips.NewImageFromBuffer(raw)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindCorruptData, op, err)
	}
	return ref, nil
}

// ─── Encoder ──────────────────────────────────────────────────────────────────

func (b *Backend) CanEncode(f core.Format) bool {
	return f == core.FormatJPEG || f == core.FormatWebP
}

// Encode hands img to libvips through a fast lossless PNG and exports the
// requested format.
func (b *Backend) Encode(ctx context.Context, w io.Writer, img image.Image, opts core.EncodeOptions) error {
	const op = "vips.encode"
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.KindPipeline, op, err)
	}
	if !b.CanEncode(opts.Format) {
		return apperrors.New(apperrors.KindUnsupportedFormat, op, fmt.Errorf("format %q", opts.Format))
	}

	var staged bytes.Buffer
	if err := (&png.Encoder{CompressionLevel: png.NoCompression}).Encode(&staged, img); err != nil {
		return apperrors.Wrap(apperrors.KindEncodeFailure, op, err)
	}
	ref, err := govips.NewImageFromBuffer(staged.Bytes())
	if err != nil {
		return apperrors.Wrap(apperrors.KindEncodeFailure, op, err)
	}
	defer ref.Close()

	quality := opts.Quality
	if quality <= 0 {
		quality = b.cfg.DefaultQuality
	}

	var out []byte
	switch opts.Format {
	case core.FormatJPEG:
		ep := govips.NewJpegExportParams()
		ep.Quality = quality
		ep.StripMetadata = true
		out, _, err = ref.ExportJpeg(ep)
	case core.FormatWebP:
		ep := govips.NewWebpExportParams()
		ep.Quality = quality
		ep.Lossless = opts.Lossless
		ep.StripMetadata = true
		out, _, err = ref.ExportWebp(ep)
	}
	if err != nil {
		return apperrors.Wrap(apperrors.KindEncodeFailure, op, err)
	}
	if _, err := w.Write(out); err != nil {
		return apperrors.Wrap(apperrors.KindEncodeFailure, op, err)
	}
	return nil
}

// ─── RegisterVipsBackend ──────────────────────────────────────────────────────

// RegisterVipsBackend replaces the pure-Go codecs with libvips where it
// supports the format.
func RegisterVipsBackend(reg core.Registry, b *Backend) {
	for _, f := range []core.Format{core.FormatJPEG, core.FormatPNG, core.FormatWebP, core.FormatGIF, core.FormatTIFF} {
		reg.RegisterDecoder(f, b)
	}
	for _, f := range []core.Format{core.FormatJPEG, core.FormatWebP} {
		reg.RegisterEncoder(f, b)
	}
}

// compile-time interface checks
var _ core.Decoder = (*Backend)(nil)
var _ core.Encoder = (*Backend)(nil)
