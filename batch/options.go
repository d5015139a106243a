package batch

import (
	"fmt"

	"github.com/gogpu/batch2d"
	"github.com/gogpu/batch2d/shader"
)

// Default capacities.
const (
	// DefaultMaxCommands is the batch renderer's commands per draw call.
	DefaultMaxCommands = 2000

	// DefaultMaxCircles is the circle renderer's circles per draw call.
	DefaultMaxCircles = 1000
)

// Option configures a Renderer or CircleRenderer during creation.
//
// Example:
//
//	stats := batch2d.NewStats()
//	r, err := batch.NewRenderer(dev,
//		batch.WithMaxCommands(500),
//		batch.WithCounters(stats),
//	)
type Option func(*options)

type options struct {
	maxCommands  int
	maxCircles   int
	textureUnits int // 0 means device limit
	counters     batch2d.Counters
	name         string
}

// defaultOptions returns the default renderer options. name is the
// counter key used unless WithName overrides it.
func defaultOptions(name string) options {
	return options{
		maxCommands: DefaultMaxCommands,
		maxCircles:  DefaultMaxCircles,
		counters:    batch2d.NopCounters{},
		name:        name,
	}
}

func newOptions(name string, opts []Option) options {
	o := defaultOptions(name)
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithMaxCommands sets how many commands a batch holds before it is
// flushed. Ignored by CircleRenderer.
func WithMaxCommands(n int) Option {
	return func(o *options) {
		o.maxCommands = n
	}
}

// WithMaxCircles sets how many circles the CircleRenderer buffers before
// it flushes. Ignored by Renderer.
func WithMaxCircles(n int) Option {
	return func(o *options) {
		o.maxCircles = n
	}
}

// WithTextureUnits sets the number of textures one batch may sample.
// The default is the device limit, capped at shader.MaxTextureUnits.
func WithTextureUnits(n int) Option {
	return func(o *options) {
		o.textureUnits = n
	}
}

// WithCounters sets the collector that receives draw-call and primitive
// counts after every draw call.
func WithCounters(c batch2d.Counters) Option {
	return func(o *options) {
		if c != nil {
			o.counters = c
		}
	}
}

// WithName sets the renderer name reported to the counters.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// resolveTextureUnits validates the requested unit count against the
// device limit.
func (o options) resolveTextureUnits(deviceLimit int) (int, error) {
	limit := min(deviceLimit, shader.MaxTextureUnits)
	if o.textureUnits == 0 {
		if limit < 1 {
			return 0, batch2d.NewConfigurationError("batch renderer",
				fmt.Sprintf("device supports %d texture units", deviceLimit))
		}
		return limit, nil
	}
	if o.textureUnits < 1 || o.textureUnits > limit {
		return 0, batch2d.NewConfigurationError("batch renderer",
			fmt.Sprintf("texture units %d outside [1, %d]", o.textureUnits, limit))
	}
	return o.textureUnits, nil
}
