// Package codec implements core.Codec on top of the format registry and a
// storage backend.  It is the only place that turns paths into pixels and
// back.
package codec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/Skryldev/image-transform/adapters/decoder"
	"github.com/Skryldev/image-transform/config"
	"github.com/Skryldev/image-transform/core"
	apperrors "github.com/Skryldev/image-transform/errors"
	"github.com/Skryldev/image-transform/utils"
)

// File is a core.Codec reading and writing through a core.Storage.
type File struct {
	reg           core.Registry
	store         core.Storage
	chunkSize     int
	maxBytes      int64
	limits        utils.Limits
	defaultFormat core.Format
}

var _ core.Codec = (*File)(nil)

// New returns a File codec.  Only ChunkSize, MaxImageBytes, MaxDimension,
// MaxPixels and DefaultFormat are read from cfg.
func New(reg core.Registry, store core.Storage, cfg config.Config) *File {
	return &File{
		reg:           reg,
		store:         store,
		chunkSize:     cfg.ChunkSize,
		maxBytes:      cfg.MaxImageBytes,
		limits:        utils.Limits{MaxDimension: cfg.MaxDimension, MaxPixels: cfg.MaxPixels},
		defaultFormat: core.Format(cfg.DefaultFormat),
	}
}

// Decode reads path and returns its pixels with the metadata found at decode
// time, including the raw EXIF orientation.  The header is checked against
// the pixel limits before any pixel is allocated; an oversized header is
// reported as corrupt data.
func (c *File) Decode(ctx context.Context, path string) (*core.ImageBuffer, core.Metadata, error) {
	const op = "codec.decode"
	data, format, dec, err := c.load(ctx, op, path)
	if err != nil {
		return nil, core.Metadata{}, err
	}
	defer utils.ReleaseBuffer(data)

	hdr, err := dec.DecodeConfig(ctx, bytes.NewReader(data.Bytes()))
	if err != nil {
		return nil, core.Metadata{}, apperrors.Wrap(apperrors.KindCorruptData, op, err)
	}
	if err := c.limits.Check(hdr.Width, hdr.Height); err != nil {
		return nil, core.Metadata{}, apperrors.New(apperrors.KindCorruptData, op,
			fmt.Errorf("%s: header: %w", path, err))
	}

	img, err := dec.Decode(ctx, bytes.NewReader(data.Bytes()))
	if err != nil {
		return nil, core.Metadata{}, apperrors.Wrap(apperrors.KindCorruptData, op, err)
	}
	b := img.Bounds()
	meta := c.metadata(data.Bytes(), format, image.Config{
		ColorModel: img.ColorModel(),
		Width:      b.Dx(),
		Height:     b.Dy(),
	})
	return core.NewImageBuffer(img), meta, nil
}

// Probe returns metadata from the header without decoding pixels.
func (c *File) Probe(ctx context.Context, path string) (core.Metadata, error) {
	const op = "codec.probe"
	data, format, dec, err := c.load(ctx, op, path)
	if err != nil {
		return core.Metadata{}, err
	}
	defer utils.ReleaseBuffer(data)

	cfg, err := dec.DecodeConfig(ctx, bytes.NewReader(data.Bytes()))
	if err != nil {
		return core.Metadata{}, apperrors.Wrap(apperrors.KindCorruptData, op, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return core.Metadata{}, apperrors.New(apperrors.KindCorruptData, op,
			fmt.Errorf("header reports %dx%d", cfg.Width, cfg.Height))
	}
	return c.metadata(data.Bytes(), format, cfg), nil
}

// Encode serialises buf and stores it at path.  Nothing is written to path
// unless encoding succeeds.
func (c *File) Encode(ctx context.Context, buf *core.ImageBuffer, path string, opts core.EncodeOptions) error {
	const op = "codec.encode"
	if buf == nil || buf.Image == nil {
		return apperrors.New(apperrors.KindEncodeFailure, op, errors.New("no image to encode"))
	}
	format, err := c.ResolveFormat(path, opts.Format, "")
	if err != nil {
		return err
	}
	enc, ok := c.reg.EncoderFor(format)
	if !ok {
		return apperrors.New(apperrors.KindUnsupportedFormat, op, fmt.Errorf("no encoder for %s", format))
	}
	opts.Format = format

	out := utils.AcquireBuffer()
	defer utils.ReleaseBuffer(out)
	if err := enc.Encode(ctx, out, buf.Image, opts); err != nil {
		return apperrors.Wrap(apperrors.KindEncodeFailure, op, err)
	}
	if err := c.store.Put(ctx, path, bytes.NewReader(out.Bytes())); err != nil {
		return apperrors.Wrap(apperrors.KindEncodeFailure, op, err)
	}
	return nil
}

// ResolveFormat picks the output format: the requested one, else the output
// path's extension, else the configured default, else the source format.
func (c *File) ResolveFormat(path string, requested, source core.Format) (core.Format, error) {
	candidates := []core.Format{requested, utils.FormatFromExt(path), c.defaultFormat, source}
	for _, f := range candidates {
		if f != "" && f != core.FormatUnknown {
			return f, nil
		}
	}
	return core.FormatUnknown, apperrors.New(apperrors.KindUnsupportedFormat, "codec.format",
		fmt.Errorf("cannot infer output format for %q", path))
}

// load reads path fully and selects a decoder by sniffing its content.
func (c *File) load(ctx context.Context, op, path string) (*bytes.Buffer, core.Format, core.Decoder, error) {
	rc, err := c.store.Open(ctx, path)
	if err != nil {
		return nil, "", nil, apperrors.Wrap(apperrors.KindCorruptData, op, err)
	}
	defer rc.Close()

	data, err := utils.DrainReader(ctx, rc, c.chunkSize, c.maxBytes)
	if err != nil {
		return nil, "", nil, apperrors.Wrap(apperrors.KindCorruptData, op, readError(path, err))
	}
	if data.Len() == 0 {
		utils.ReleaseBuffer(data)
		return nil, "", nil, apperrors.New(apperrors.KindCorruptData, op, fmt.Errorf("%s is empty", path))
	}

	sniff := data.Bytes()
	if len(sniff) > utils.SniffLen {
		sniff = sniff[:utils.SniffLen]
	}
	format := utils.DetectFormat(sniff)
	dec, ok := c.reg.DecoderFor(format)
	if format == core.FormatUnknown || !ok {
		utils.ReleaseBuffer(data)
		return nil, "", nil, apperrors.New(apperrors.KindUnsupportedFormat, op,
			fmt.Errorf("%s: unrecognised format %s", path, format))
	}
	return data, format, dec, nil
}

func (c *File) metadata(data []byte, format core.Format, cfg image.Config) core.Metadata {
	return core.Metadata{
		Width:       cfg.Width,
		Height:      cfg.Height,
		Orientation: decoder.Orientation(data),
		Format:      format,
		ColorSpace:  decoder.ColorSpace(cfg.ColorModel),
		HasAlpha:    decoder.HasAlpha(cfg.ColorModel),
		SizeBytes:   int64(len(data)),
	}
}

func readError(path string, err error) error {
	if errors.Is(err, utils.ErrTooLarge) {
		return fmt.Errorf("%s: %w", path, err)
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%s: truncated: %w", path, err)
	}
	return fmt.Errorf("%s: read: %w", path, err)
}
