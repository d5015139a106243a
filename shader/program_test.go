package shader

import (
	"errors"
	"testing"

	"github.com/gogpu/batch2d"
	"github.com/gogpu/batch2d/gpucore"
	"github.com/gogpu/batch2d/recording"
)

func compileBatch(t *testing.T, dev gpucore.Device, units int) *Program {
	t.Helper()
	src, err := BatchSource(units)
	if err != nil {
		t.Fatalf("BatchSource() error = %v", err)
	}
	p, err := Compile(dev, src)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return p
}

func TestProgramUseAppliesUniforms(t *testing.T) {
	dev := recording.New()
	p := compileBatch(t, dev, 2)
	if err := p.SetVertexAttributeLayout(BatchAttributes); err != nil {
		t.Fatalf("SetVertexAttributeLayout() error = %v", err)
	}

	p.AddUniformMatrix(UniformProjection, batch2d.Ortho(100, 100))
	p.AddUniformIntegerArray(UniformTextureUnits, []int32{0, 1})

	for i := 0; i < 2; i++ {
		if err := p.Use(); err != nil {
			t.Fatalf("Use() error = %v", err)
		}
	}

	calls := dev.Calls()
	var uses []recording.Call
	for _, c := range calls {
		if c.Op == recording.OpUseProgram {
			uses = append(uses, c)
		}
	}
	if len(uses) != 2 {
		t.Fatalf("UseProgram calls = %d, want 2", len(uses))
	}
	for _, c := range uses {
		if len(c.Uniforms) != 2 {
			t.Fatalf("uniforms applied = %d, want 2", len(c.Uniforms))
		}
		if c.Uniforms[0].Name != UniformProjection || c.Uniforms[1].Name != UniformTextureUnits {
			t.Errorf("uniform order = %s, %s", c.Uniforms[0].Name, c.Uniforms[1].Name)
		}
	}
}

func TestProgramUniformReplaceKeepsOrder(t *testing.T) {
	dev := recording.New()
	p := compileBatch(t, dev, 1)
	_ = p.SetVertexAttributeLayout(BatchAttributes)

	p.AddUniformMatrix(UniformProjection, batch2d.Ortho(10, 10))
	p.AddUniformIntegerArray(UniformTextureUnits, []int32{0})
	p.AddUniformMatrix(UniformProjection, batch2d.Ortho(20, 20))

	us := p.Uniforms()
	if len(us) != 2 {
		t.Fatalf("len(Uniforms()) = %d, want 2", len(us))
	}
	if us[0].Name != UniformProjection {
		t.Errorf("first uniform = %s", us[0].Name)
	}
	if want := batch2d.Ortho(20, 20); us[0].Matrix != want {
		t.Errorf("projection = %v, want %v", us[0].Matrix, want)
	}

	// The value set last before Use is the one applied.
	if err := p.Use(); err != nil {
		t.Fatal(err)
	}
	calls := dev.Calls()
	last := calls[len(calls)-1]
	if last.Uniforms[0].Matrix != batch2d.Ortho(20, 20) {
		t.Error("Use applied a stale projection")
	}
}

func TestProgramIntArrayIsCopied(t *testing.T) {
	p := compileBatch(t, recording.New(), 2)
	units := []int32{0, 1}
	p.AddUniformIntegerArray(UniformTextureUnits, units)
	units[0] = 7
	if got := p.Uniforms()[0].Ints[0]; got != 0 {
		t.Errorf("stored value changed to %d after caller mutation", got)
	}
}

func TestProgramUseBeforeLayout(t *testing.T) {
	p := compileBatch(t, recording.New(), 1)
	err := p.Use()
	if !errors.Is(err, batch2d.ErrConfiguration) {
		t.Errorf("Use() error = %v, want ConfigurationError", err)
	}
}

func TestProgramLayoutFixedAfterUse(t *testing.T) {
	p := compileBatch(t, recording.New(), 1)
	_ = p.SetVertexAttributeLayout(BatchAttributes)
	if err := p.Use(); err != nil {
		t.Fatal(err)
	}
	if err := p.SetVertexAttributeLayout(BatchAttributes); err != nil {
		t.Errorf("same layout after use: %v", err)
	}
	err := p.SetVertexAttributeLayout(CircleAttributes)
	if !errors.Is(err, batch2d.ErrConfiguration) {
		t.Errorf("changed layout after use: %v, want ConfigurationError", err)
	}
	if p.Layout().VertexSize != 16 {
		t.Errorf("layout VertexSize = %d, want 16", p.Layout().VertexSize)
	}
}

func TestProgramUnknownAttribute(t *testing.T) {
	p := compileBatch(t, recording.New(), 1)
	err := p.SetVertexAttributeLayout([]string{AttrPosition, "bogus"})
	if !errors.Is(err, batch2d.ErrConfiguration) {
		t.Errorf("error = %v, want ConfigurationError", err)
	}
}

func TestCompileTextureUnitsAboveDeviceLimit(t *testing.T) {
	dev := recording.New(recording.WithLimits(gpucore.Limits{
		MaxTextureUnits:     4,
		MaxBufferSize:       1 << 20,
		MaxTextureDimension: 1024,
	}))
	src, _ := BatchSource(8)
	_, err := Compile(dev, src)
	if !errors.Is(err, batch2d.ErrConfiguration) {
		t.Errorf("Compile() error = %v, want ConfigurationError", err)
	}
	if dev.Count(recording.OpCompileProgram) != 0 {
		t.Error("program compiled despite configuration error")
	}
}

func TestCompileErrorCarriesLog(t *testing.T) {
	dev := recording.New(recording.WithCompileFailure("link", "varying mismatch at location 3"))
	_, err := Compile(dev, CircleSource())

	var ce *batch2d.CompilationError
	if !errors.As(err, &ce) {
		t.Fatalf("Compile() error = %v, want *CompilationError", err)
	}
	if ce.Log != "varying mismatch at location 3" {
		t.Errorf("Log = %q", ce.Log)
	}
}

func TestProgramDestroy(t *testing.T) {
	dev := recording.New()
	p := compileBatch(t, dev, 1)
	_ = p.SetVertexAttributeLayout(BatchAttributes)
	p.Destroy()
	p.Destroy()

	if dev.Count(recording.OpDestroyProgram) != 1 {
		t.Errorf("DestroyProgram calls = %d, want 1", dev.Count(recording.OpDestroyProgram))
	}
	if err := p.Use(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Use() after Destroy = %v, want ErrDestroyed", err)
	}
}
