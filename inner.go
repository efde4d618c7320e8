package imagetransform

import (
	"github.com/Skryldev/image-transform/core"
	"github.com/Skryldev/image-transform/pipeline"
)

// Inner exposes the underlying dispatcher for advanced use (e.g. benchmarks
// driving it directly).  Prefer the high-level API for normal usage.
func (p *Processor) Inner() *core.Processor { return p.inner }

// Registry exposes the codec registry, e.g. for registering the libvips
// backend.
func (p *Processor) Registry() core.Registry { return p.reg }

// Pipeline exposes the stage pipeline every job runs through.
func (p *Processor) Pipeline() *pipeline.Pipeline { return p.pipe }
