// Package imagetransform resizes, rotates and auto-orients image files on a
// bounded worker pool.  Every submitted request yields exactly one result.
package imagetransform

import (
	"context"
	"io"
	"os"

	"github.com/Skryldev/image-transform/adapters/codec"
	"github.com/Skryldev/image-transform/adapters/decoder"
	"github.com/Skryldev/image-transform/adapters/encoder"
	"github.com/Skryldev/image-transform/adapters/storage"
	"github.com/Skryldev/image-transform/config"
	"github.com/Skryldev/image-transform/core"
	apperrors "github.com/Skryldev/image-transform/errors"
	"github.com/Skryldev/image-transform/hooks"
	"github.com/Skryldev/image-transform/pipeline"
	"github.com/Skryldev/image-transform/transform"
	"github.com/Skryldev/image-transform/utils"
)

// Re-export Format constants for convenience.
const (
	JPEG = core.FormatJPEG
	PNG  = core.FormatPNG
	GIF  = core.FormatGIF
	WebP = core.FormatWebP
	BMP  = core.FormatBMP
	TIFF = core.FormatTIFF
	AVIF = core.FormatAVIF
)

type (
	Request  = core.TransformRequest
	Result   = core.TransformResult
	Metadata = core.Metadata
	Handle   = core.Handle
	Stats    = core.Stats
)

// DefaultConfig returns a sensible production configuration.
func DefaultConfig() config.Config { return config.Default() }

// Processor is the primary entry point.
type Processor struct {
	inner   *core.Processor
	reg     *core.DefaultRegistry
	codec   *codec.File
	pipe    *pipeline.Pipeline
	metrics *hooks.InMemoryMetrics
}

type options struct {
	logger    core.Logger
	logOutput io.Writer
	storage   core.Storage
	hooks     []core.Hook
	metrics   []core.MetricsCollector
}

// Option customises New.
type Option func(*options)

// WithLogger replaces the slog logger built from the configuration.
func WithLogger(l core.Logger) Option { return func(o *options) { o.logger = l } }

// WithLogOutput sends the configured logger's output to w instead of stderr.
func WithLogOutput(w io.Writer) Option { return func(o *options) { o.logOutput = w } }

// WithStorage replaces local filesystem storage.
func WithStorage(s core.Storage) Option { return func(o *options) { o.storage = s } }

// WithHook registers an extra observer for pipeline stages.
func WithHook(h core.Hook) Option { return func(o *options) { o.hooks = append(o.hooks, h) } }

// WithMetrics adds a metrics collector, e.g. hooks.PrometheusCollector.
func WithMetrics(m core.MetricsCollector) Option {
	return func(o *options) { o.metrics = append(o.metrics, m) }
}

// New creates a fully wired Processor with every built-in codec registered.
// Call Start() to launch the workers and Stop() when done.
func New(cfg config.Config, opts ...Option) (*Processor, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, apperrors.New(apperrors.KindConfig, "imagetransform.new", err)
	}
	filter, err := transform.Filter(cfg.Resampler)
	if err != nil {
		return nil, err
	}

	o := options{logOutput: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = hooks.NewLogger(o.logOutput, cfg.LogLevel, cfg.LogFormat)
	}
	if o.storage == nil {
		o.storage = storage.NewLocal("", os.FileMode(cfg.FilePermissions))
	}

	reg := core.NewRegistry()
	decoder.RegisterAll(reg)
	encoder.RegisterAll(reg, cfg.DefaultQuality)
	cdc := codec.New(reg, o.storage, cfg)

	mem := hooks.NewInMemoryMetrics()
	collector := hooks.Multi(append([]core.MetricsCollector{mem}, o.metrics...))

	limits := utils.Limits{MaxDimension: cfg.MaxDimension, MaxPixels: cfg.MaxPixels}
	pipe := pipeline.Standard(cdc, pipeline.TransformStep{Filter: filter, Limits: limits}, pipeline.EncodeStep{
		Resolve:        cdc.ResolveFormat,
		DefaultQuality: cfg.DefaultQuality,
	})
	pipe.AddHook(hooks.NewLoggingHook(o.logger))
	pipe.AddHook(hooks.NewMetricsHook(collector))
	for _, h := range o.hooks {
		pipe.AddHook(h)
	}

	inner := core.New(cfg, pipe)
	inner.SetLogger(o.logger)
	inner.SetMetrics(collector)

	return &Processor{inner: inner, reg: reg, codec: cdc, pipe: pipe, metrics: mem}, nil
}

// RegisterDecoder registers a custom decoder for the given format.
func (p *Processor) RegisterDecoder(f core.Format, d core.Decoder) { p.reg.RegisterDecoder(f, d) }

// RegisterEncoder registers a custom encoder for the given format.
func (p *Processor) RegisterEncoder(f core.Format, e core.Encoder) { p.reg.RegisterEncoder(f, e) }

// Start starts the background worker pool.
func (p *Processor) Start() { p.inner.Start() }

// Stop rejects new requests, finishes queued ones and shuts the pool down.
func (p *Processor) Stop() { p.inner.Stop() }

// Submit enqueues req without blocking.  See core.Processor.Submit.
func (p *Processor) Submit(req Request) *Handle { return p.inner.Submit(req) }

// SubmitFunc enqueues req and calls fn exactly once with its result.
func (p *Processor) SubmitFunc(req Request, fn func(Result)) *Handle {
	return p.inner.SubmitFunc(req, fn)
}

// Transform runs req and waits for the result.  ctx bounds the wait only.
func (p *Processor) Transform(ctx context.Context, req Request) (Result, error) {
	return p.inner.Transform(ctx, req)
}

// Batch runs every request concurrently and returns results in order.
func (p *Processor) Batch(ctx context.Context, reqs []Request) []Result {
	return p.inner.Batch(ctx, reqs)
}

// Identify reports an image's metadata without decoding its pixels.
func (p *Processor) Identify(ctx context.Context, path string) (Metadata, error) {
	return p.codec.Probe(ctx, path)
}

// Stats returns lightweight processing statistics.
func (p *Processor) Stats() Stats { return p.inner.Stats() }

// Metrics returns a snapshot of the built-in per-stage metrics.
func (p *Processor) Metrics() hooks.MetricsSnapshot { return p.metrics.Snapshot() }

// Formats lists the output formats with a registered encoder.
func (p *Processor) Formats() []core.Format { return p.reg.EncodableFormats() }

// ── Request constructors ──────────────────────────────────────────────────────

// ResizeRequest scales in into a width x height box and writes out.  With
// crop the output is exactly width x height.  out may end in ":quality".
func ResizeRequest(in, out string, width, height int, crop, autoOrient bool) Request {
	return Request{Input: in, Output: out, Width: width, Height: height, Crop: crop, AutoOrient: autoOrient}
}

// RotateRequest turns in clockwise by degrees (0, 90, 180 or 270).
func RotateRequest(in, out string, degrees int) Request {
	return Request{Input: in, Output: out, Rotate: degrees}
}

// AutoOrientRequest only applies the EXIF orientation.
func AutoOrientRequest(in, out string) Request {
	return Request{Input: in, Output: out, AutoOrient: true}
}
