package batch

import (
	"fmt"

	"github.com/gogpu/batch2d"
	"github.com/gogpu/batch2d/gpucore"
	"github.com/gogpu/batch2d/shader"
)

// State is the accumulation state of a Renderer.
type State uint8

const (
	// StateAccumulating means the current batch accepts commands.
	StateAccumulating State = iota

	// StateFull means the current batch is at capacity; the next command
	// flushes it first.
	StateFull

	// StateFlushing means the batch is being written and drawn.
	StateFlushing
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case StateAccumulating:
		return "Accumulating"
	case StateFull:
		return "Full"
	case StateFlushing:
		return "Flushing"
	default:
		return "Unknown"
	}
}

// Renderer batches image, rectangle, line and circle commands into as few
// draw calls as possible.
//
// Commands are drawn in the order they are added. A batch is flushed when
// it is full, when an image needs a texture slot beyond the unit limit, or
// when Render is called. Ordering between batches follows admission order
// only; no depth sorting is done across batches.
//
// Renderer is not safe for concurrent use. Renderers sharing a device must
// be driven from the same rendering pass; see Switcher.
type Renderer struct {
	device  gpucore.Device
	program *shader.Program
	opts    options
	units   int

	buffer   gpucore.BufferID
	vertices []float32 // vertex data of the current batch
	bytes    []byte    // upload scratch, reused across flushes

	batch *Batch
	pool  *Pool
	state State

	// err is the first error of an implicit flush, returned by Render.
	err error

	destroyed bool
	warned    bool // a draw after Destroy has been logged
}

// NewRenderer compiles the batch program and allocates the vertex buffer.
//
// It fails with a *batch2d.ConfigurationError for invalid options or a
// texture-unit count the device cannot provide, and with a
// *batch2d.CompilationError if the program does not build.
func NewRenderer(device gpucore.Device, opts ...Option) (*Renderer, error) {
	if device == nil {
		return nil, batch2d.NewConfigurationError("batch renderer", "nil device")
	}
	o := newOptions("batch", opts)
	if o.maxCommands <= 0 {
		return nil, batch2d.NewConfigurationError("batch renderer",
			fmt.Sprintf("max commands %d must be positive", o.maxCommands))
	}
	units, err := o.resolveTextureUnits(device.Limits().MaxTextureUnits)
	if err != nil {
		return nil, err
	}

	src, err := shader.BatchSource(units)
	if err != nil {
		return nil, err
	}
	program, err := shader.Compile(device, src)
	if err != nil {
		return nil, err
	}
	if err := program.SetVertexAttributeLayout(shader.BatchAttributes); err != nil {
		program.Destroy()
		return nil, err
	}

	unitIndices := make([]int32, units)
	for i := range unitIndices {
		unitIndices[i] = int32(i) //nolint:gosec // units <= shader.MaxTextureUnits
	}
	program.AddUniformMatrix(shader.UniformProjection, identityProjection)
	program.AddUniformIntegerArray(shader.UniformTextureUnits, unitIndices)

	floats := program.Layout().VertexSize * verticesPerQuad * o.maxCommands
	size := uint64(floats) * 4 //nolint:gosec // positive
	if limit := device.Limits().MaxBufferSize; size > limit {
		program.Destroy()
		return nil, batch2d.NewConfigurationError("batch renderer",
			fmt.Sprintf("vertex buffer of %d bytes exceeds device limit %d", size, limit))
	}
	buffer, err := device.CreateVertexBuffer(o.name+"_vertices", size)
	if err != nil {
		program.Destroy()
		return nil, fmt.Errorf("batch: create vertex buffer: %w", err)
	}

	batch2d.Logger().Info("batch: renderer created",
		"name", o.name, "maxCommands", o.maxCommands, "textureUnits", units)

	return &Renderer{
		device:   device,
		program:  program,
		opts:     o,
		units:    units,
		buffer:   buffer,
		vertices: make([]float32, 0, floats),
		bytes:    make([]byte, 0, size),
		batch:    NewBatch(o.maxCommands, units),
		pool:     NewPool(o.maxCommands),
	}, nil
}

// verticesPerQuad is the vertex count of the two triangles of a quad.
const verticesPerQuad = 6

var identityProjection = [16]float32{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// SetProjection replaces the projection matrix applied from the next draw
// call on. Use batch2d.Ortho for a pixel-space projection.
func (r *Renderer) SetProjection(m [16]float32) {
	r.program.AddUniformMatrix(shader.UniformProjection, m)
}

// Name returns the name reported to the counters.
func (r *Renderer) Name() string { return r.opts.name }

// State returns the accumulation state.
func (r *Renderer) State() State { return r.state }

// Len returns the number of commands waiting in the current batch.
func (r *Renderer) Len() int { return r.batch.Len() }

// TextureUnits returns the number of textures one batch may sample.
func (r *Renderer) TextureUnits() int { return r.units }

// DrawImage draws the src region of img (in source pixels) into dst.
func (r *Renderer) DrawImage(img *Image, src, dst batch2d.Rect, m batch2d.Matrix, opacity float64) {
	if !r.live() {
		return
	}
	if img != nil && img.id == gpucore.InvalidID {
		batch2d.Logger().Warn("batch: draw of destroyed image dropped", "renderer", r.opts.name)
		return
	}
	r.makeRoom()

	slot := 0
	if img != nil {
		var ok bool
		if slot, ok = r.batch.TextureSlot(img); !ok {
			r.flush()
			slot, _ = r.batch.TextureSlot(img)
		}
	}

	cmd := r.pool.Get().InitImage(img, src, dst).ApplyTransform(m, opacity)
	cmd.Slot = slot
	r.admit(cmd)
}

// DrawRect draws a filled rectangle with an optional stroke of the given
// thickness in local units.
func (r *Renderer) DrawRect(rect batch2d.Rect, fill, stroke batch2d.RGBA, thickness float64, m batch2d.Matrix, opacity float64) {
	if !r.live() {
		return
	}
	r.makeRoom()
	r.admit(r.pool.Get().InitRect(rect, fill, stroke, thickness).ApplyTransform(m, opacity))
}

// DrawLine draws a segment from p0 to p1.
func (r *Renderer) DrawLine(p0, p1 batch2d.Point, color batch2d.RGBA, thickness float64, m batch2d.Matrix, opacity float64) {
	if !r.live() {
		return
	}
	r.makeRoom()
	r.admit(r.pool.Get().InitLine(p0, p1, color, thickness).ApplyTransform(m, opacity))
}

// DrawCircle draws a circle with an optional stroke of the given thickness
// in local units.
func (r *Renderer) DrawCircle(center batch2d.Point, radius float64, fill, stroke batch2d.RGBA, thickness float64, m batch2d.Matrix, opacity float64) {
	if !r.live() {
		return
	}
	r.makeRoom()
	r.admit(r.pool.Get().InitCircle(center, radius, fill, stroke, thickness).ApplyTransform(m, opacity))
}

// live reports whether the renderer accepts commands. The first draw
// after Destroy is logged.
func (r *Renderer) live() bool {
	if !r.destroyed {
		return true
	}
	if !r.warned {
		r.warned = true
		batch2d.Logger().Warn("batch: draw on destroyed renderer dropped", "renderer", r.opts.name)
	}
	return false
}

// makeRoom flushes a full batch before a pool slot is taken, so the pool
// never hands out a slot still referenced by the batch.
func (r *Renderer) makeRoom() {
	if r.batch.Full() {
		r.flush()
	}
}

func (r *Renderer) admit(cmd *Command) {
	r.batch.Add(cmd)
	if r.batch.Full() {
		r.state = StateFull
	}
}

// flush draws the current batch and records the first error for Render.
func (r *Renderer) flush() {
	if err := r.drawBatch(); err != nil && r.err == nil {
		r.err = err
	}
}

// Render draws every pending command. It returns the first error of this
// call or of an implicit flush since the previous Render. Calling Render
// with nothing pending issues no draw call.
func (r *Renderer) Render() error {
	if r.destroyed {
		batch2d.Logger().Warn("batch: render on destroyed renderer", "renderer", r.opts.name)
		return shader.ErrDestroyed
	}
	r.flush()
	err := r.err
	r.err = nil
	return err
}

// drawBatch writes the batch into the vertex buffer, issues one draw call
// and resets the batch, the pool and the write cursor. The batch is reset
// even when the device fails.
func (r *Renderer) drawBatch() error {
	n := r.batch.Len()
	if n == 0 {
		return nil
	}
	r.state = StateFlushing
	defer r.resetBatch()

	r.vertices = r.vertices[:0]
	for _, cmd := range r.batch.Commands() {
		r.vertices = cmd.appendVertices(r.vertices)
	}
	r.bytes = gpucore.AppendFloat32s(r.bytes[:0], r.vertices)

	// Another renderer may have bound its own buffer on the shared device.
	r.device.BindVertexBuffer(r.buffer)
	if err := r.device.WriteBuffer(r.buffer, 0, r.bytes); err != nil {
		return fmt.Errorf("batch: upload vertices: %w", err)
	}
	if err := r.program.Use(); err != nil {
		return err
	}
	r.batch.BindTextures(r.device)

	count := uint32(n * verticesPerQuad) //nolint:gosec // bounded by maxCommands
	if err := r.device.DrawTriangles(0, count); err != nil {
		return fmt.Errorf("batch: draw: %w", err)
	}

	r.opts.counters.Add(r.opts.name, 1, n)
	batch2d.Logger().Debug("batch: draw call",
		"renderer", r.opts.name, "commands", n, "textures", r.batch.TextureCount())
	return nil
}

func (r *Renderer) resetBatch() {
	r.batch.Reset()
	r.pool.Reset()
	r.vertices = r.vertices[:0]
	r.state = StateAccumulating
}

// Cursor returns the write cursor in floats. It is zero except while a
// batch is being written.
func (r *Renderer) Cursor() int { return len(r.vertices) }

// Destroy releases the program and the vertex buffer. Pending commands
// are discarded. Later draws are dropped and Render returns
// shader.ErrDestroyed.
func (r *Renderer) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	r.err = nil
	r.resetBatch()
	r.program.Destroy()
	if r.buffer != gpucore.InvalidID {
		r.device.DestroyBuffer(r.buffer)
		r.buffer = gpucore.InvalidID
	}
}
