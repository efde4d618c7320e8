package core

import (
	"image"
	"time"
)

// Format identifies an image codec.
type Format string

const (
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatGIF     Format = "gif"
	FormatWebP    Format = "webp"
	FormatBMP     Format = "bmp"
	FormatTIFF    Format = "tiff"
	FormatAVIF    Format = "avif"
	FormatUnknown Format = "unknown"
)

// ColorSpace represents the image colour model.
type ColorSpace string

const (
	ColorSpaceRGB  ColorSpace = "rgb"
	ColorSpaceRGBA ColorSpace = "rgba"
	ColorSpaceCMYK ColorSpace = "cmyk"
	ColorSpaceGray ColorSpace = "gray"
)

// Metadata holds image information read at decode time.  It is read-only
// once produced.
type Metadata struct {
	Width       int
	Height      int
	Orientation int // raw EXIF orientation tag; 1 when absent
	Format      Format
	ColorSpace  ColorSpace
	HasAlpha    bool
	SizeBytes   int64
}

// ImageBuffer owns a decoded pixel buffer.  Stages never mutate a buffer they
// received; they return a new one.
type ImageBuffer struct {
	Image    image.Image
	Channels int
	BitDepth int
}

// NewImageBuffer wraps img, deriving channel count and depth from its pixel
// model.
func NewImageBuffer(img image.Image) *ImageBuffer {
	ch, depth := pixelLayout(img)
	return &ImageBuffer{Image: img, Channels: ch, BitDepth: depth}
}

func (b *ImageBuffer) Width() int  { return b.Image.Bounds().Dx() }
func (b *ImageBuffer) Height() int { return b.Image.Bounds().Dy() }

func pixelLayout(img image.Image) (channels, depth int) {
	switch img.(type) {
	case *image.Gray:
		return 1, 8
	case *image.Gray16:
		return 1, 16
	case *image.RGBA64, *image.NRGBA64:
		return 4, 16
	case *image.CMYK:
		return 4, 8
	case *image.YCbCr:
		return 3, 8
	case *image.Paletted:
		return 1, 8
	}
	return 4, 8
}

// TransformRequest describes one resize/rotate job.  Width and Height both
// zero means "do not resize".  Rotate is clockwise degrees.
type TransformRequest struct {
	Input      string
	Output     string
	Width      int
	Height     int
	Crop       bool
	AutoOrient bool
	Rotate     int
	Quality    int    // 0 = configured default
	Format     Format // empty = derive from the output path
	Lossless   bool   // WebP/AVIF lossless encoding; other formats ignore it
}

// NeedsResize reports whether the request asks for a resize.
func (r TransformRequest) NeedsResize() bool { return r.Width != 0 || r.Height != 0 }

// TransformResult is delivered exactly once per submitted request.
type TransformResult struct {
	JobID    string
	OK       bool
	Width    int
	Height   int
	Format   Format
	Err      error
	Duration time.Duration
}

// Stage is a step of the per-request state machine.
type Stage string

const (
	StageSubmitted    Stage = "submitted"
	StageDecoding     Stage = "decoding"
	StageNormalizing  Stage = "normalizing"
	StageTransforming Stage = "transforming"
	StageEncoding     Stage = "encoding"
	StageCompleted    Stage = "completed"
	StageFailed       Stage = "failed"
)

// Terminal reports whether no further transition is possible.
func (s Stage) Terminal() bool { return s == StageCompleted || s == StageFailed }

// JobState is the value passed between stages.  Each stage returns a copy
// carrying its replacement buffer.
type JobState struct {
	ID      string
	Request TransformRequest
	Stage   Stage
	Buffer  *ImageBuffer
	Meta    Metadata
	Output  EncodeOptions
}

// EncodeOptions carries format-specific encoding parameters.
type EncodeOptions struct {
	Format   Format // empty = derive from the output path, then the source format
	Quality  int    // 1-100; 0 = encoder default
	Lossless bool   // WebP/AVIF lossless mode
}
