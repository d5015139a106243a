package batch

import (
	"fmt"

	"github.com/gogpu/batch2d"
	"github.com/gogpu/batch2d/gpucore"
	"github.com/gogpu/batch2d/shader"
)

// CircleRenderer draws only circles. Each circle is written straight into
// the vertex buffer as the quad of its bounding square; the fragment stage
// discards pixels outside the circle.
//
// CircleRenderer is not safe for concurrent use.
type CircleRenderer struct {
	device  gpucore.Device
	program *shader.Program
	opts    options

	buffer   gpucore.BufferID
	vertices []float32 // write cursor is len(vertices)
	bytes    []byte
	count    int

	transform batch2d.Matrix
	opacity   float64

	err error

	destroyed bool
	warned    bool
}

// NewCircleRenderer compiles the circle program and allocates a vertex
// buffer for WithMaxCircles circles (default 1000).
func NewCircleRenderer(device gpucore.Device, opts ...Option) (*CircleRenderer, error) {
	if device == nil {
		return nil, batch2d.NewConfigurationError("circle renderer", "nil device")
	}
	o := newOptions("circle", opts)
	if o.maxCircles <= 0 {
		return nil, batch2d.NewConfigurationError("circle renderer",
			fmt.Sprintf("max circles %d must be positive", o.maxCircles))
	}

	program, err := shader.Compile(device, shader.CircleSource())
	if err != nil {
		return nil, err
	}
	if err := program.SetVertexAttributeLayout(shader.CircleAttributes); err != nil {
		program.Destroy()
		return nil, err
	}
	program.AddUniformMatrix(shader.UniformProjection, identityProjection)

	floats := program.Layout().VertexSize * verticesPerQuad * o.maxCircles
	size := uint64(floats) * 4 //nolint:gosec // positive
	if limit := device.Limits().MaxBufferSize; size > limit {
		program.Destroy()
		return nil, batch2d.NewConfigurationError("circle renderer",
			fmt.Sprintf("vertex buffer of %d bytes exceeds device limit %d", size, limit))
	}
	buffer, err := device.CreateVertexBuffer(o.name+"_vertices", size)
	if err != nil {
		program.Destroy()
		return nil, fmt.Errorf("batch: create circle vertex buffer: %w", err)
	}

	batch2d.Logger().Info("batch: circle renderer created", "name", o.name, "maxCircles", o.maxCircles)

	return &CircleRenderer{
		device:    device,
		program:   program,
		opts:      o,
		buffer:    buffer,
		vertices:  make([]float32, 0, floats),
		bytes:     make([]byte, 0, size),
		transform: batch2d.Identity(),
		opacity:   1,
	}, nil
}

// SetProjection replaces the projection matrix applied from the next draw
// call on.
func (c *CircleRenderer) SetProjection(m [16]float32) {
	c.program.AddUniformMatrix(shader.UniformProjection, m)
}

// SetTransform sets the transform and opacity applied to subsequent Draw
// calls. The centre is transformed; the radius is scaled by the mean scale
// of m.
func (c *CircleRenderer) SetTransform(m batch2d.Matrix, opacity float64) {
	c.transform = m
	c.opacity = opacity
}

// Name returns the name reported to the counters.
func (c *CircleRenderer) Name() string { return c.opts.name }

// Len returns the number of circles waiting to be drawn.
func (c *CircleRenderer) Len() int { return c.count }

// Cursor returns the write cursor in floats.
func (c *CircleRenderer) Cursor() int { return len(c.vertices) }

// Draw appends one circle. When the buffer already holds the maximum
// number of circles, they are drawn first.
func (c *CircleRenderer) Draw(center batch2d.Point, radius float64, fill, stroke batch2d.RGBA, thickness float64) {
	if c.destroyed {
		if !c.warned {
			c.warned = true
			batch2d.Logger().Warn("batch: draw on destroyed renderer dropped", "renderer", c.opts.name)
		}
		return
	}
	if c.count >= c.opts.maxCircles {
		if err := c.render(); err != nil && c.err == nil {
			c.err = err
		}
	}

	p := c.transform.TransformPoint(center)
	r := float32(radius * c.transform.MeanScale())
	x, y := float32(p.X), float32(p.Y)

	var t float32
	if thickness > 0 && radius > 0 {
		t = float32(thickness / radius)
	}
	f, s := fill.Vec4(), stroke.Vec4()
	o := float32(c.opacity)

	corners := [4][4]float32{
		cornerTL: {x - r, y - r, 0, 0},
		cornerBL: {x - r, y + r, 0, 1},
		cornerTR: {x + r, y - r, 1, 0},
		cornerBR: {x + r, y + r, 1, 1},
	}
	for _, corner := range quadOrder {
		v := corners[corner]
		c.vertices = append(c.vertices,
			v[0], v[1], 0,
			v[2], v[3],
			o,
			f[0], f[1], f[2], f[3],
			s[0], s[1], s[2], s[3],
			t,
		)
	}
	c.count++
}

// Render draws the buffered circles with one draw call. It returns the
// first error of this call or of an automatic flush since the previous
// Render.
func (c *CircleRenderer) Render() error {
	if c.destroyed {
		batch2d.Logger().Warn("batch: render on destroyed renderer", "renderer", c.opts.name)
		return shader.ErrDestroyed
	}
	err := c.render()
	if c.err != nil {
		err = c.err
		c.err = nil
	}
	return err
}

// render uploads the written sub-range and draws it. The cursor and the
// circle count are reset after the draw call.
func (c *CircleRenderer) render() error {
	if c.count == 0 {
		return nil
	}
	n := c.count
	defer c.reset()

	c.bytes = gpucore.AppendFloat32s(c.bytes[:0], c.vertices)
	c.device.BindVertexBuffer(c.buffer)
	if err := c.device.WriteBuffer(c.buffer, 0, c.bytes); err != nil {
		return fmt.Errorf("batch: upload circles: %w", err)
	}
	if err := c.program.Use(); err != nil {
		return err
	}
	count := uint32(n * verticesPerQuad) //nolint:gosec // bounded by maxCircles
	if err := c.device.DrawTriangles(0, count); err != nil {
		return fmt.Errorf("batch: draw circles: %w", err)
	}

	c.opts.counters.Add(c.opts.name, 1, n)
	batch2d.Logger().Debug("batch: draw call", "renderer", c.opts.name, "circles", n)
	return nil
}

func (c *CircleRenderer) reset() {
	c.vertices = c.vertices[:0]
	c.count = 0
}

// Destroy releases the program and the vertex buffer. Pending circles are
// discarded. Later draws are dropped and Render returns
// shader.ErrDestroyed.
func (c *CircleRenderer) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.err = nil
	c.reset()
	c.program.Destroy()
	if c.buffer != gpucore.InvalidID {
		c.device.DestroyBuffer(c.buffer)
		c.buffer = gpucore.InvalidID
	}
}
