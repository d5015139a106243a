package native

import (
	"encoding/binary"
	"errors"
	"image"
	"math"
	"testing"

	"github.com/gogpu/batch2d"
	"github.com/gogpu/batch2d/backend"
	"github.com/gogpu/batch2d/gpucore"
	"github.com/gogpu/batch2d/shader"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice opens a noop HAL device wrapped in a native Device.
func createNoopDevice(t *testing.T) *Device {
	t.Helper()

	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		t.Fatal("no noop adapters")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}

	d, err := NewWithHAL(openDev.Device, openDev.Queue, nil, backend.Config{Width: 64, Height: 32, Label: "test"})
	if err != nil {
		t.Fatalf("NewWithHAL failed: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return d
}

func compileBatch(t *testing.T, d *Device, units int) gpucore.ProgramID {
	t.Helper()
	src, err := shader.BatchSource(units)
	if err != nil {
		t.Fatal(err)
	}
	id, err := d.CompileProgram(gpucore.ProgramDescriptor{
		Label:          src.Label,
		VertexSource:   src.Vertex,
		FragmentSource: src.Fragment,
		TextureUnits:   src.TextureUnits,
	})
	if err != nil {
		t.Fatalf("CompileProgram() error = %v", err)
	}
	layout, err := shader.ResolveLayout(shader.BatchAttributes)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.SetVertexLayout(id, layout.Device()); err != nil {
		t.Fatalf("SetVertexLayout() error = %v", err)
	}
	return id
}

func TestLimits(t *testing.T) {
	d := createNoopDevice(t)
	lim := d.Limits()
	def := gputypes.DefaultLimits()
	if lim.MaxTextureUnits != int(def.MaxSampledTexturesPerShaderStage) {
		t.Errorf("MaxTextureUnits = %d", lim.MaxTextureUnits)
	}
	if lim.MaxBufferSize != def.MaxBufferSize {
		t.Errorf("MaxBufferSize = %d", lim.MaxBufferSize)
	}
	if w, h := d.Size(); w != 64 || h != 32 {
		t.Errorf("Size() = %dx%d", w, h)
	}
	if d.Name() != backend.BackendNative {
		t.Errorf("Name() = %q", d.Name())
	}
}

func TestCompileGeneratedSources(t *testing.T) {
	d := createNoopDevice(t)
	for _, units := range []int{1, 4, 5, 16} {
		compileBatch(t, d, units)
	}

	src := shader.CircleSource()
	id, err := d.CompileProgram(gpucore.ProgramDescriptor{
		Label:          src.Label,
		VertexSource:   src.Vertex,
		FragmentSource: src.Fragment,
	})
	if err != nil {
		t.Fatalf("CompileProgram(circle) error = %v", err)
	}
	layout, _ := shader.ResolveLayout(shader.CircleAttributes)
	if err := d.SetVertexLayout(id, layout.Device()); err != nil {
		t.Fatalf("SetVertexLayout(circle) error = %v", err)
	}
}

func TestCompileInvalidSource(t *testing.T) {
	d := createNoopDevice(t)
	_, err := d.CompileProgram(gpucore.ProgramDescriptor{
		Label:          "broken",
		VertexSource:   "fn vs_main( {",
		FragmentSource: "",
	})

	var ce *batch2d.CompilationError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *CompilationError", err)
	}
	if ce.Stage != "vertex" || ce.Label != "broken" || ce.Log == "" {
		t.Errorf("CompilationError = %+v", ce)
	}
	if !errors.Is(err, batch2d.ErrCompilation) {
		t.Error("error should match ErrCompilation")
	}
}

func TestCompileTooManyUnits(t *testing.T) {
	d := createNoopDevice(t)
	_, err := d.CompileProgram(gpucore.ProgramDescriptor{
		Label:        "wide",
		TextureUnits: d.Limits().MaxTextureUnits + 1,
	})
	if !errors.Is(err, batch2d.ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}

func TestDrawErrors(t *testing.T) {
	d := createNoopDevice(t)

	if err := d.DrawTriangles(0, 6); !errors.Is(err, ErrNoProgram) {
		t.Errorf("draw without program: %v", err)
	}

	prog := compileBatch(t, d, 1)
	if err := d.UseProgram(prog, nil); err != nil {
		t.Fatal(err)
	}
	if err := d.DrawTriangles(0, 6); !errors.Is(err, ErrNoVertexBuffer) {
		t.Errorf("draw without buffer: %v", err)
	}

	buf, err := d.CreateVertexBuffer("vb", 6*64)
	if err != nil {
		t.Fatal(err)
	}
	d.BindVertexBuffer(buf)
	if err := d.DrawTriangles(0, 7); err == nil {
		t.Error("draw past buffer end accepted")
	}
	if err := d.WriteBuffer(buf, 6*64-4, make([]byte, 8)); err == nil {
		t.Error("write past buffer end accepted")
	}
	if err := d.WriteBuffer(gpucore.BufferID(999), 0, nil); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("write unknown buffer: %v", err)
	}
	if err := d.UseProgram(gpucore.ProgramID(999), nil); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("use unknown program: %v", err)
	}
}

func TestDrawAndSnapshot(t *testing.T) {
	d := createNoopDevice(t)
	prog := compileBatch(t, d, 2)

	buf, err := d.CreateVertexBuffer("vb", 6*64)
	if err != nil {
		t.Fatal(err)
	}
	d.BindVertexBuffer(buf)
	if err := d.WriteBuffer(buf, 0, make([]byte, 6*64)); err != nil {
		t.Fatal(err)
	}
	tex, err := d.CreateTexture("img", image.NewRGBA(image.Rect(0, 0, 4, 4)))
	if err != nil {
		t.Fatal(err)
	}
	d.BindTexture(0, tex)

	proj := gpucore.Uniform{Name: shader.UniformProjection, Kind: gpucore.UniformMatrix4}
	units := gpucore.Uniform{Name: shader.UniformTextureUnits, Kind: gpucore.UniformIntArray, Ints: []int32{0, 1}}
	if err := d.UseProgram(prog, []gpucore.Uniform{proj, units}); err != nil {
		t.Fatal(err)
	}
	if err := d.Clear(batch2d.White); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if err := d.DrawTriangles(0, 6); err != nil {
		t.Fatalf("DrawTriangles() error = %v", err)
	}

	img, err := d.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 64, 32) {
		t.Errorf("Snapshot bounds = %v", img.Bounds())
	}

	d.DestroyTexture(tex)
	d.DestroyBuffer(buf)
	if err := d.DrawTriangles(0, 6); !errors.Is(err, ErrNoVertexBuffer) {
		t.Errorf("draw after buffer destroy: %v", err)
	}
}

func TestResize(t *testing.T) {
	d := createNoopDevice(t)
	if err := d.Resize(0, 10); !errors.Is(err, backend.ErrInvalidDimensions) {
		t.Errorf("Resize(0, 10) = %v", err)
	}
	if err := d.Resize(100, 50); err != nil {
		t.Fatal(err)
	}
	if w, h := d.Size(); w != 100 || h != 50 {
		t.Errorf("Size() = %dx%d", w, h)
	}
}

func TestClosed(t *testing.T) {
	d := createNoopDevice(t)
	d.Close()
	d.Close()
	if _, err := d.CreateVertexBuffer("vb", 64); !errors.Is(err, ErrClosed) {
		t.Errorf("CreateVertexBuffer after Close: %v", err)
	}
	if err := d.DrawTriangles(0, 3); !errors.Is(err, ErrClosed) {
		t.Errorf("DrawTriangles after Close: %v", err)
	}
}

func TestPackUniforms(t *testing.T) {
	tests := []struct {
		name     string
		uniforms []gpucore.Uniform
		size     int
	}{
		{"empty", nil, 16},
		{"matrix", []gpucore.Uniform{{Kind: gpucore.UniformMatrix4}}, 64},
		{"matrix and 1 int", []gpucore.Uniform{
			{Kind: gpucore.UniformMatrix4},
			{Kind: gpucore.UniformIntArray, Ints: []int32{7}},
		}, 80},
		{"matrix and 5 ints", []gpucore.Uniform{
			{Kind: gpucore.UniformMatrix4},
			{Kind: gpucore.UniformIntArray, Ints: []int32{0, 1, 2, 3, 4}},
		}, 96},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(packUniforms(tt.uniforms)); got != tt.size {
				t.Errorf("len = %d, want %d", got, tt.size)
			}
		})
	}

	m := gpucore.Uniform{Kind: gpucore.UniformMatrix4}
	m.Matrix[15] = 1.5
	ints := gpucore.Uniform{Kind: gpucore.UniformIntArray, Ints: []int32{-2, 9}}
	data := packUniforms([]gpucore.Uniform{m, ints})
	if f := math.Float32frombits(binary.LittleEndian.Uint32(data[60:])); f != 1.5 {
		t.Errorf("matrix[15] = %v, want 1.5", f)
	}
	if v := int32(binary.LittleEndian.Uint32(data[64:])); v != -2 { //nolint:gosec // test
		t.Errorf("ints[0] = %d, want -2", v)
	}
	if v := int32(binary.LittleEndian.Uint32(data[68:])); v != 9 { //nolint:gosec // test
		t.Errorf("ints[1] = %d, want 9", v)
	}
}

func TestVertexFormat(t *testing.T) {
	for components, want := range map[int]gputypes.VertexFormat{
		1: gputypes.VertexFormatFloat32,
		2: gputypes.VertexFormatFloat32x2,
		3: gputypes.VertexFormatFloat32x3,
		4: gputypes.VertexFormatFloat32x4,
	} {
		if got, ok := vertexFormat(components); !ok || got != want {
			t.Errorf("vertexFormat(%d) = %v, %v", components, got, ok)
		}
	}
	if _, ok := vertexFormat(5); ok {
		t.Error("vertexFormat(5) accepted")
	}
}
