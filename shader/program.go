package shader

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/batch2d"
	"github.com/gogpu/batch2d/gpucore"
)

// ErrDestroyed is returned when a destroyed program is used.
var ErrDestroyed = errors.New("shader: program destroyed")

// Program wraps a compiled device program together with its vertex layout
// and the uniforms applied on every Use.
//
// Program is not safe for concurrent use.
type Program struct {
	device gpucore.Device
	id     gpucore.ProgramID
	label  string
	units  int

	layout    Layout
	hasLayout bool
	used      bool

	// uniforms in registration order
	uniforms []gpucore.Uniform
}

// Compile compiles src on device. A texture-unit count above the device
// limit is a *batch2d.ConfigurationError; a compile or link failure is a
// *batch2d.CompilationError carrying the device log.
func Compile(device gpucore.Device, src Source) (*Program, error) {
	if device == nil {
		return nil, batch2d.NewConfigurationError("compile "+src.Label, "nil device")
	}
	if limit := device.Limits().MaxTextureUnits; src.TextureUnits > limit {
		return nil, batch2d.NewConfigurationError("compile "+src.Label,
			fmt.Sprintf("texture units %d exceed device limit %d", src.TextureUnits, limit))
	}

	id, err := device.CompileProgram(gpucore.ProgramDescriptor{
		Label:          src.Label,
		VertexSource:   src.Vertex,
		FragmentSource: src.Fragment,
		TextureUnits:   src.TextureUnits,
	})
	if err != nil {
		return nil, fmt.Errorf("shader: compile %s: %w", src.Label, err)
	}

	batch2d.Logger().Info("shader: program compiled", "label", src.Label, "textureUnits", src.TextureUnits)
	return &Program{device: device, id: id, label: src.Label, units: src.TextureUnits}, nil
}

// ID returns the device program handle.
func (p *Program) ID() gpucore.ProgramID { return p.id }

// Label returns the debug label.
func (p *Program) Label() string { return p.label }

// TextureUnits returns the number of textures the program samples.
func (p *Program) TextureUnits() int { return p.units }

// Layout returns the resolved vertex layout. It is the zero Layout until
// SetVertexAttributeLayout succeeds.
func (p *Program) Layout() Layout { return p.layout }

// SetVertexAttributeLayout resolves names and fixes the program's vertex
// layout. It must be called before the first Use and cannot change the
// layout afterwards.
func (p *Program) SetVertexAttributeLayout(names []string) error {
	if p.id == gpucore.InvalidID {
		return ErrDestroyed
	}
	if p.used && !slices.Equal(names, p.layout.Names) {
		return batch2d.NewConfigurationError("vertex layout "+p.label, "layout changed after first use")
	}
	l, err := ResolveLayout(names)
	if err != nil {
		return err
	}
	if err := p.device.SetVertexLayout(p.id, l.Device()); err != nil {
		return fmt.Errorf("shader: set vertex layout %s: %w", p.label, err)
	}
	p.layout = l
	p.hasLayout = true
	return nil
}

// AddUniformMatrix registers a 4x4 column-major matrix uniform. Registering
// an existing name replaces its value in place.
func (p *Program) AddUniformMatrix(name string, m [16]float32) {
	p.setUniform(gpucore.Uniform{Name: name, Kind: gpucore.UniformMatrix4, Matrix: m})
}

// AddUniformIntegerArray registers an int array uniform. Registering an
// existing name replaces its value in place.
func (p *Program) AddUniformIntegerArray(name string, values []int32) {
	p.setUniform(gpucore.Uniform{Name: name, Kind: gpucore.UniformIntArray, Ints: slices.Clone(values)})
}

func (p *Program) setUniform(u gpucore.Uniform) {
	for i := range p.uniforms {
		if p.uniforms[i].Name == u.Name {
			p.uniforms[i] = u
			return
		}
	}
	p.uniforms = append(p.uniforms, u)
}

// Uniforms returns the registered uniforms in registration order.
func (p *Program) Uniforms() []gpucore.Uniform {
	return slices.Clone(p.uniforms)
}

// Use makes the program current and applies every registered uniform with
// its latest value. It is safe to call every frame.
func (p *Program) Use() error {
	if p.id == gpucore.InvalidID {
		return ErrDestroyed
	}
	if !p.hasLayout {
		return batch2d.NewConfigurationError("use "+p.label, "vertex attribute layout not set")
	}
	if err := p.device.UseProgram(p.id, p.uniforms); err != nil {
		return fmt.Errorf("shader: use %s: %w", p.label, err)
	}
	p.used = true
	return nil
}

// Destroy releases the device program. Safe to call more than once.
func (p *Program) Destroy() {
	if p.id == gpucore.InvalidID {
		return
	}
	p.device.DestroyProgram(p.id)
	p.id = gpucore.InvalidID
}
