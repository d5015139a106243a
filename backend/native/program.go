package native

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/batch2d"
	"github.com/gogpu/batch2d/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// Bind group layout of every program:
//
//	binding 0     uniform block (vertex and fragment)
//	binding 1     filtering sampler       (TextureUnits > 0)
//	binding 2+i   texture_2d<f32> unit i  (TextureUnits > 0)
const (
	bindingUniforms = 0
	bindingSampler  = 1
	bindingTexture0 = 2
)

// program holds the HAL objects of a compiled program. The pipeline is
// created once the vertex layout is known.
type program struct {
	label         string
	vertexEntry   string
	fragmentEntry string
	units         int

	vertexModule   hal.ShaderModule
	fragmentModule hal.ShaderModule
	bindLayout     hal.BindGroupLayout
	pipeLayout     hal.PipelineLayout

	layout    gpucore.VertexLayout
	hasLayout bool
	pipeline  hal.RenderPipeline
	format    gputypes.TextureFormat
}

func (p *program) destroy(device hal.Device) {
	if p.pipeline != nil {
		device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.fragmentModule != nil {
		device.DestroyShaderModule(p.fragmentModule)
		p.fragmentModule = nil
	}
	if p.vertexModule != nil {
		device.DestroyShaderModule(p.vertexModule)
		p.vertexModule = nil
	}
}

// validateStage checks a WGSL stage with naga so that syntax and type
// errors surface with a readable log.
func validateStage(label, stage, source string) error {
	if _, err := naga.Compile(source); err != nil {
		return &batch2d.CompilationError{Stage: stage, Label: label, Log: err.Error()}
	}
	return nil
}

// CompileProgram implements gpucore.Device.
func (d *Device) CompileProgram(desc gpucore.ProgramDescriptor) (gpucore.ProgramID, error) {
	limit := int(d.limits.MaxSampledTexturesPerShaderStage)
	if desc.TextureUnits < 0 || desc.TextureUnits > limit {
		return gpucore.InvalidID, batch2d.NewConfigurationError("compile "+desc.Label,
			fmt.Sprintf("texture units %d outside [0, %d]", desc.TextureUnits, limit))
	}
	if err := validateStage(desc.Label, "vertex", desc.VertexSource); err != nil {
		return gpucore.InvalidID, err
	}
	if err := validateStage(desc.Label, "fragment", desc.FragmentSource); err != nil {
		return gpucore.InvalidID, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpucore.InvalidID, ErrClosed
	}

	p := &program{
		label:         desc.Label,
		vertexEntry:   desc.VertexEntry,
		fragmentEntry: desc.FragmentEntry,
		units:         desc.TextureUnits,
	}
	if p.vertexEntry == "" {
		p.vertexEntry = gpucore.DefaultVertexEntry
	}
	if p.fragmentEntry == "" {
		p.fragmentEntry = gpucore.DefaultFragmentEntry
	}

	if err := d.createProgramObjects(p, desc); err != nil {
		p.destroy(d.device)
		return gpucore.InvalidID, err
	}

	id := gpucore.ProgramID(d.newID())
	d.programs[id] = p
	return id, nil
}

func (d *Device) createProgramObjects(p *program, desc gpucore.ProgramDescriptor) error {
	var err error
	p.vertexModule, err = d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label + "_vs",
		Source: hal.ShaderSource{WGSL: desc.VertexSource},
	})
	if err != nil {
		return &batch2d.CompilationError{Stage: "vertex", Label: desc.Label, Log: err.Error()}
	}
	p.fragmentModule, err = d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label + "_fs",
		Source: hal.ShaderSource{WGSL: desc.FragmentSource},
	})
	if err != nil {
		return &batch2d.CompilationError{Stage: "fragment", Label: desc.Label, Log: err.Error()}
	}

	p.bindLayout, err = d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label + "_bind_layout",
		Entries: bindGroupLayoutEntries(desc.TextureUnits),
	})
	if err != nil {
		return fmt.Errorf("native: create bind group layout %q: %w", desc.Label, err)
	}

	p.pipeLayout, err = d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("native: create pipeline layout %q: %w", desc.Label, err)
	}
	return nil
}

func bindGroupLayoutEntries(units int) []gputypes.BindGroupLayoutEntry {
	entries := []gputypes.BindGroupLayoutEntry{
		{
			Binding:    bindingUniforms,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		},
	}
	if units == 0 {
		return entries
	}
	entries = append(entries, gputypes.BindGroupLayoutEntry{
		Binding:    bindingSampler,
		Visibility: gputypes.ShaderStageFragment,
		Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
	})
	for i := 0; i < units; i++ {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    uint32(bindingTexture0 + i), //nolint:gosec // units bounded by device limits
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		})
	}
	return entries
}

// vertexFormat maps a float component count to its vertex format.
func vertexFormat(components int) (gputypes.VertexFormat, bool) {
	switch components {
	case 1:
		return gputypes.VertexFormatFloat32, true
	case 2:
		return gputypes.VertexFormatFloat32x2, true
	case 3:
		return gputypes.VertexFormatFloat32x3, true
	case 4:
		return gputypes.VertexFormatFloat32x4, true
	}
	return 0, false
}

func vertexBufferLayout(layout gpucore.VertexLayout) (gputypes.VertexBufferLayout, error) {
	attrs := make([]gputypes.VertexAttribute, 0, len(layout.Attributes))
	for _, a := range layout.Attributes {
		format, ok := vertexFormat(a.Components)
		if !ok {
			return gputypes.VertexBufferLayout{}, batch2d.NewConfigurationError("vertex layout",
				fmt.Sprintf("attribute %q has %d components", a.Name, a.Components))
		}
		attrs = append(attrs, gputypes.VertexAttribute{
			Format:         format,
			Offset:         a.Offset,
			ShaderLocation: a.Location,
		})
	}
	return gputypes.VertexBufferLayout{
		ArrayStride: layout.Stride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes:  attrs,
	}, nil
}

// SetVertexLayout implements gpucore.Device. The render pipeline is created
// here, so link errors are reported as a CompilationError of stage "link".
func (d *Device) SetVertexLayout(id gpucore.ProgramID, layout gpucore.VertexLayout) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	p, ok := d.programs[id]
	if !ok {
		return fmt.Errorf("%w: program %d", ErrUnknownResource, id)
	}
	if p.pipeline != nil {
		d.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	p.layout = layout
	p.hasLayout = true
	return d.ensurePipeline(p)
}

// ensurePipeline (re)creates the program pipeline for the current target
// format. Must be called with d.mu held.
func (d *Device) ensurePipeline(p *program) error {
	if p.pipeline != nil && p.format == d.targetFormat {
		return nil
	}
	if p.pipeline != nil {
		d.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}

	vbl, err := vertexBufferLayout(p.layout)
	if err != nil {
		return err
	}
	blend := gputypes.BlendStatePremultiplied()

	pipeline, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  p.label + "_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.vertexModule,
			EntryPoint: p.vertexEntry,
			Buffers:    []gputypes.VertexBufferLayout{vbl},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		Fragment: &hal.FragmentState{
			Module:     p.fragmentModule,
			EntryPoint: p.fragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    d.targetFormat,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
	})
	if err != nil {
		return &batch2d.CompilationError{Stage: "link", Label: p.label, Log: err.Error()}
	}
	p.pipeline = pipeline
	p.format = d.targetFormat
	return nil
}

// UseProgram implements gpucore.Device.
func (d *Device) UseProgram(id gpucore.ProgramID, uniforms []gpucore.Uniform) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	p, ok := d.programs[id]
	if !ok {
		return fmt.Errorf("%w: program %d", ErrUnknownResource, id)
	}
	if !p.hasLayout {
		return ErrNoVertexLayout
	}
	d.current = id
	d.uniforms = packUniforms(uniforms)
	return nil
}

// DestroyProgram implements gpucore.Device.
func (d *Device) DestroyProgram(id gpucore.ProgramID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.programs[id]
	if !ok {
		return
	}
	delete(d.programs, id)
	if d.current == id {
		d.current = gpucore.InvalidID
	}
	p.destroy(d.device)
}

// packUniforms lays uniforms out in registration order following WGSL
// uniform rules: a mat4x4<f32> takes 64 bytes and an int array is packed
// into array<vec4<i32>>, 16 bytes per four ints. The result is at least
// 16 bytes.
func packUniforms(uniforms []gpucore.Uniform) []byte {
	var out []byte
	for _, u := range uniforms {
		switch u.Kind {
		case gpucore.UniformMatrix4:
			for _, f := range u.Matrix {
				out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
			}
		case gpucore.UniformIntArray:
			n := (len(u.Ints) + 3) / 4 * 4
			for i := 0; i < n; i++ {
				var v int32
				if i < len(u.Ints) {
					v = u.Ints[i]
				}
				out = binary.LittleEndian.AppendUint32(out, uint32(v)) //nolint:gosec // bit reinterpretation
			}
		}
	}
	if len(out) < 16 {
		out = append(out, make([]byte, 16-len(out))...)
	}
	return out
}
