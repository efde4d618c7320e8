package core

import (
	"context"
	"image"
	"io"
	"time"
)

// Decoder converts an encoded stream into pixels.
// Implementations live in adapters/decoder/.
type Decoder interface {
	Decode(ctx context.Context, r io.Reader) (image.Image, error)
	// DecodeConfig reads only the header.
	DecodeConfig(ctx context.Context, r io.Reader) (image.Config, error)
	CanDecode(format Format) bool
}

// Encoder serialises pixels in a target format.
// Implementations live in adapters/encoder/.
type Encoder interface {
	Encode(ctx context.Context, w io.Writer, img image.Image, opts EncodeOptions) error
	CanEncode(format Format) bool
}

// Codec is the only component that touches image-format bytes.
type Codec interface {
	Decode(ctx context.Context, path string) (*ImageBuffer, Metadata, error)
	Encode(ctx context.Context, buf *ImageBuffer, path string, opts EncodeOptions) error
	// Probe returns metadata without decoding pixels.
	Probe(ctx context.Context, path string) (Metadata, error)
}

// Storage reads inputs and persists outputs.  Put must not leave a partial
// file at path when it fails.
type Storage interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Put(ctx context.Context, path string, r io.Reader) error
}

// MetricsCollector receives performance observations from the pipeline.
type MetricsCollector interface {
	RecordStageTime(stage Stage, d time.Duration)
	RecordStageError(stage Stage, kind string)
	RecordJob(result TransformResult)
}

// Logger is a minimal structured logging interface.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Registry maps Format values to Decoder/Encoder implementations.
type Registry interface {
	DecoderFor(format Format) (Decoder, bool)
	EncoderFor(format Format) (Encoder, bool)
	RegisterDecoder(format Format, d Decoder)
	RegisterEncoder(format Format, e Encoder)
}

// Step runs one stage of a job.  Implementations must be safe for concurrent
// use and must not mutate the state they receive.
type Step interface {
	Name() string
	Stage() Stage
	Execute(ctx context.Context, st *JobState) (*JobState, error)
}

// Hook is an optional observer invoked around pipeline steps.
type Hook interface {
	BeforeStep(ctx context.Context, st *JobState)
	AfterStep(ctx context.Context, st *JobState, d time.Duration, err error)
}

// Runner executes the stage sequence of a single job.  pipeline.Pipeline
// satisfies it; core does not import pipeline.
type Runner interface {
	Run(ctx context.Context, st *JobState) (*JobState, error)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
