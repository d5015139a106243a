package recording

import (
	"errors"
	"fmt"
	"image"
	"maps"
	"slices"
	"sync"

	"github.com/gogpu/batch2d"
	"github.com/gogpu/batch2d/backend"
	"github.com/gogpu/batch2d/gpucore"
)

// Recording device errors.
var (
	// ErrUnknownResource is returned when an ID does not name a live resource.
	ErrUnknownResource = errors.New("recording: unknown resource")

	// ErrNoProgram is returned when drawing without a current program.
	ErrNoProgram = errors.New("recording: no program in use")

	// ErrNoVertexLayout is returned when a program is used before its layout is set.
	ErrNoVertexLayout = errors.New("recording: program has no vertex layout")

	// ErrNoVertexBuffer is returned when drawing without a bound vertex buffer.
	ErrNoVertexBuffer = errors.New("recording: no vertex buffer bound")

	// ErrOutOfRange is returned for writes or draws past the end of a buffer.
	ErrOutOfRange = errors.New("recording: range exceeds buffer size")
)

// DefaultLimits are the limits a Device reports unless WithLimits is used.
var DefaultLimits = gpucore.Limits{
	MaxTextureUnits:     16,
	MaxBufferSize:       256 << 20,
	MaxTextureDimension: 8192,
}

func init() {
	backend.Register(backend.BackendRecording, func(cfg backend.Config) (backend.Device, error) {
		return New(), nil
	})
}

// Option configures a Device.
type Option func(*Device)

// WithLimits overrides the limits the device reports.
func WithLimits(l gpucore.Limits) Option {
	return func(d *Device) {
		d.limits = l
	}
}

// WithCompileFailure makes every CompileProgram call fail with a
// *batch2d.CompilationError carrying log.
func WithCompileFailure(stage, log string) Option {
	return func(d *Device) {
		d.failStage = stage
		d.failLog = log
	}
}

type program struct {
	desc      gpucore.ProgramDescriptor
	layout    gpucore.VertexLayout
	hasLayout bool
}

type texture struct {
	label string
	size  image.Point
}

// Device is a gpucore.Device that records calls in memory.
//
// Device is safe for concurrent use; the bound state it models is still
// shared, as on a real device.
type Device struct {
	mu sync.Mutex

	limits    gpucore.Limits
	failStage string
	failLog   string

	nextID   uint64
	programs map[gpucore.ProgramID]*program
	buffers  map[gpucore.BufferID][]byte
	textures map[gpucore.TextureID]texture

	current  gpucore.ProgramID
	uniforms []gpucore.Uniform
	vertices gpucore.BufferID
	units    map[int]gpucore.TextureID

	calls []Call
	draws []Draw
}

var _ backend.Device = (*Device)(nil)

// New returns an empty recording device.
func New(opts ...Option) *Device {
	d := &Device{
		limits:   DefaultLimits,
		programs: make(map[gpucore.ProgramID]*program),
		buffers:  make(map[gpucore.BufferID][]byte),
		textures: make(map[gpucore.TextureID]texture),
		units:    make(map[int]gpucore.TextureID),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name implements backend.Device.
func (d *Device) Name() string { return backend.BackendRecording }

// Close implements backend.Device. Recorded calls stay readable.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.programs)
	clear(d.buffers)
	clear(d.textures)
	clear(d.units)
	d.current = gpucore.InvalidID
	d.vertices = gpucore.InvalidID
}

// Limits implements gpucore.Device.
func (d *Device) Limits() gpucore.Limits {
	return d.limits
}

func (d *Device) newID() uint64 {
	d.nextID++
	return d.nextID
}

func (d *Device) record(c Call) {
	d.calls = append(d.calls, c)
}

// CompileProgram implements gpucore.Device.
func (d *Device) CompileProgram(desc gpucore.ProgramDescriptor) (gpucore.ProgramID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.failLog != "" {
		return gpucore.InvalidID, &batch2d.CompilationError{Stage: d.failStage, Label: desc.Label, Log: d.failLog}
	}
	if desc.VertexSource == "" {
		return gpucore.InvalidID, &batch2d.CompilationError{Stage: "vertex", Label: desc.Label, Log: "empty source"}
	}
	if desc.FragmentSource == "" {
		return gpucore.InvalidID, &batch2d.CompilationError{Stage: "fragment", Label: desc.Label, Log: "empty source"}
	}

	id := gpucore.ProgramID(d.newID())
	d.programs[id] = &program{desc: desc}
	d.record(Call{Op: OpCompileProgram, Program: id, Label: desc.Label})
	return id, nil
}

// SetVertexLayout implements gpucore.Device.
func (d *Device) SetVertexLayout(id gpucore.ProgramID, layout gpucore.VertexLayout) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.programs[id]
	if !ok {
		return fmt.Errorf("%w: program %d", ErrUnknownResource, id)
	}
	p.layout = gpucore.VertexLayout{
		Attributes: slices.Clone(layout.Attributes),
		Stride:     layout.Stride,
	}
	p.hasLayout = true
	d.record(Call{Op: OpSetVertexLayout, Program: id, Size: layout.Stride})
	return nil
}

// UseProgram implements gpucore.Device.
func (d *Device) UseProgram(id gpucore.ProgramID, uniforms []gpucore.Uniform) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.programs[id]
	if !ok {
		return fmt.Errorf("%w: program %d", ErrUnknownResource, id)
	}
	if !p.hasLayout {
		return ErrNoVertexLayout
	}
	d.current = id
	d.uniforms = cloneUniforms(uniforms)
	d.record(Call{Op: OpUseProgram, Program: id, Uniforms: cloneUniforms(uniforms)})
	return nil
}

// DestroyProgram implements gpucore.Device.
func (d *Device) DestroyProgram(id gpucore.ProgramID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.programs, id)
	if d.current == id {
		d.current = gpucore.InvalidID
	}
	d.record(Call{Op: OpDestroyProgram, Program: id})
}

// CreateVertexBuffer implements gpucore.Device.
func (d *Device) CreateVertexBuffer(label string, size uint64) (gpucore.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if size > d.limits.MaxBufferSize {
		return gpucore.InvalidID, fmt.Errorf("recording: buffer %q size %d exceeds limit %d", label, size, d.limits.MaxBufferSize)
	}
	id := gpucore.BufferID(d.newID())
	d.buffers[id] = make([]byte, size)
	d.record(Call{Op: OpCreateVertexBuffer, Buffer: id, Label: label, Size: size})
	return id, nil
}

// BindVertexBuffer implements gpucore.Device.
func (d *Device) BindVertexBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.vertices = id
	d.record(Call{Op: OpBindVertexBuffer, Buffer: id})
}

// WriteBuffer implements gpucore.Device.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	buf, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d", ErrUnknownResource, id)
	}
	if offset+uint64(len(data)) > uint64(len(buf)) {
		return fmt.Errorf("%w: write [%d, %d) into %d bytes", ErrOutOfRange, offset, offset+uint64(len(data)), len(buf))
	}
	copy(buf[offset:], data)
	d.record(Call{Op: OpWriteBuffer, Buffer: id, Offset: offset, Size: uint64(len(data))})
	return nil
}

// DestroyBuffer implements gpucore.Device.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.buffers, id)
	if d.vertices == id {
		d.vertices = gpucore.InvalidID
	}
	d.record(Call{Op: OpDestroyBuffer, Buffer: id})
}

// CreateTexture implements gpucore.Device.
func (d *Device) CreateTexture(label string, img *image.RGBA) (gpucore.TextureID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if img == nil {
		return gpucore.InvalidID, fmt.Errorf("recording: texture %q: nil image", label)
	}
	size := img.Bounds().Size()
	if size.X > d.limits.MaxTextureDimension || size.Y > d.limits.MaxTextureDimension {
		return gpucore.InvalidID, fmt.Errorf("recording: texture %q %dx%d exceeds limit %d", label, size.X, size.Y, d.limits.MaxTextureDimension)
	}
	id := gpucore.TextureID(d.newID())
	d.textures[id] = texture{label: label, size: size}
	d.record(Call{Op: OpCreateTexture, Texture: id, Label: label, Size: uint64(len(img.Pix))})
	return id, nil
}

// BindTexture implements gpucore.Device.
func (d *Device) BindTexture(unit int, id gpucore.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.units[unit] = id
	d.record(Call{Op: OpBindTexture, Texture: id, Unit: unit})
}

// DestroyTexture implements gpucore.Device.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.textures, id)
	for unit, bound := range d.units {
		if bound == id {
			delete(d.units, unit)
		}
	}
	d.record(Call{Op: OpDestroyTexture, Texture: id})
}

// DrawTriangles implements gpucore.Device.
func (d *Device) DrawTriangles(firstVertex, vertexCount uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.programs[d.current]
	if !ok {
		return ErrNoProgram
	}
	buf, ok := d.buffers[d.vertices]
	if !ok {
		return ErrNoVertexBuffer
	}
	stride := p.layout.Stride
	start := uint64(firstVertex) * stride
	end := start + uint64(vertexCount)*stride
	if end > uint64(len(buf)) {
		return fmt.Errorf("%w: draw [%d, %d) from %d bytes", ErrOutOfRange, start, end, len(buf))
	}

	d.draws = append(d.draws, Draw{
		Program:     d.current,
		Uniforms:    cloneUniforms(d.uniforms),
		Layout:      p.layout,
		Buffer:      d.vertices,
		FirstVertex: firstVertex,
		VertexCount: vertexCount,
		Textures:    maps.Clone(d.units),
		Vertices:    gpucore.Float32s(buf[start:end]),
	})
	d.record(Call{Op: OpDrawTriangles, Program: d.current, Buffer: d.vertices, FirstVertex: firstVertex, VertexCount: vertexCount})
	return nil
}

// Calls returns a copy of all recorded calls in order.
func (d *Device) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.calls)
}

// Count returns how many calls of op were recorded.
func (d *Device) Count(op Op) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Draws returns a copy of all recorded draw snapshots in order.
func (d *Device) Draws() []Draw {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.draws)
}

// TextureSize returns the size of a live texture.
func (d *Device) TextureSize(id gpucore.TextureID) (image.Point, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[id]
	return t.size, ok
}

// Live returns the number of live programs, buffers and textures.
func (d *Device) Live() (programs, buffers, textures int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.programs), len(d.buffers), len(d.textures)
}

// Reset forgets recorded calls and draws but keeps resources and bound
// state, typically between frames.
func (d *Device) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = d.calls[:0]
	d.draws = d.draws[:0]
}

func cloneUniforms(in []gpucore.Uniform) []gpucore.Uniform {
	if in == nil {
		return nil
	}
	out := make([]gpucore.Uniform, len(in))
	for i, u := range in {
		out[i] = u
		out[i].Ints = slices.Clone(u.Ints)
	}
	return out
}
