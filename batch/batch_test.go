package batch

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/batch2d"
	"github.com/gogpu/batch2d/gpucore"
	"github.com/gogpu/batch2d/recording"
	"github.com/gogpu/batch2d/shader"
)

func TestBatchAddAndFull(t *testing.T) {
	b := NewBatch(2, 4)
	var c1, c2, c3 Command
	if !b.Add(&c1) || !b.Add(&c2) {
		t.Fatal("Add rejected a command below capacity")
	}
	if !b.Full() || b.Len() != 2 || b.Cap() != 2 {
		t.Errorf("Full() = %v, Len() = %d, Cap() = %d", b.Full(), b.Len(), b.Cap())
	}
	if b.Add(&c3) {
		t.Error("Add accepted a command beyond capacity")
	}
	if cmds := b.Commands(); cmds[0] != &c1 || cmds[1] != &c2 {
		t.Error("Commands() lost admission order")
	}
	b.Reset()
	if b.Len() != 0 || b.Full() {
		t.Errorf("Len() = %d after Reset", b.Len())
	}
}

func TestBatchTextureSlot(t *testing.T) {
	b := NewBatch(10, 2)
	a, c, d := &Image{}, &Image{}, &Image{}

	tests := []struct {
		img      *Image
		wantSlot int
		wantOK   bool
	}{
		{a, 0, true},
		{c, 1, true},
		{a, 0, true},
		{d, 0, false},
		{c, 1, true},
	}
	for i, tt := range tests {
		slot, ok := b.TextureSlot(tt.img)
		if ok != tt.wantOK || (ok && slot != tt.wantSlot) {
			t.Errorf("step %d: TextureSlot() = (%d, %v), want (%d, %v)", i, slot, ok, tt.wantSlot, tt.wantOK)
		}
	}
	if b.TextureCount() != 2 {
		t.Errorf("TextureCount() = %d, want 2", b.TextureCount())
	}

	b.Reset()
	if slot, ok := b.TextureSlot(d); !ok || slot != 0 {
		t.Errorf("after Reset TextureSlot() = (%d, %v), want (0, true)", slot, ok)
	}
}

func TestBatchBindTexturesInSlotOrder(t *testing.T) {
	dev := recording.New()
	imgs := []*Image{
		newTestImage(t, dev, 4, 4),
		newTestImage(t, dev, 4, 4),
		newTestImage(t, dev, 4, 4),
	}
	b := NewBatch(10, 3)
	for _, img := range []*Image{imgs[2], imgs[0], imgs[1]} {
		b.TextureSlot(img)
	}
	dev.Reset()
	b.BindTextures(dev)

	calls := dev.Calls()
	want := []gpucore.TextureID{imgs[2].Texture(), imgs[0].Texture(), imgs[1].Texture()}
	if len(calls) != len(want) {
		t.Fatalf("calls = %d, want %d", len(calls), len(want))
	}
	for i, call := range calls {
		if call.Op != recording.OpBindTexture || call.Unit != i || call.Texture != want[i] {
			t.Errorf("call %d = %+v", i, call)
		}
	}
}

func TestPool(t *testing.T) {
	p := NewPool(3)
	first := p.Get()
	second := p.Get()
	if first == second {
		t.Fatal("Get returned the same slot twice")
	}
	if p.Len() != 2 || p.Cap() != 3 {
		t.Errorf("Len() = %d, Cap() = %d", p.Len(), p.Cap())
	}
	p.Get()
	if wrapped := p.Get(); wrapped != first {
		t.Error("Get did not wrap to the first slot")
	}
	p.Reset()
	if p.Get() != first {
		t.Error("Get after Reset did not return the first slot")
	}
}

func TestCommandInitOverwrites(t *testing.T) {
	var c Command
	img := &Image{padW: 4, padH: 4}
	c.InitImage(img, batch2d.R(0, 0, 4, 4), batch2d.R(0, 0, 4, 4)).ApplyTransform(batch2d.Identity(), 0.25)
	c.Slot = 3

	c.InitRect(batch2d.R(1, 2, 3, 4), batch2d.Red, batch2d.Blue, 0)
	if c.Kind != KindRect || c.Image != nil || c.Slot != shader.SlotFlatColor {
		t.Errorf("InitRect left stale state: %+v", c)
	}
	if c.Opacity != 1 {
		t.Errorf("Opacity = %v, want 1", c.Opacity)
	}
	if c.Src != (batch2d.Rect{}) {
		t.Errorf("Src = %+v, want zero", c.Src)
	}
}

func TestApplyTransformOrder(t *testing.T) {
	var c Command
	c.InitRect(batch2d.R(0, 0, 10, 20), batch2d.Red, batch2d.Red, 0).
		ApplyTransform(batch2d.Translate(1, 2), 0.75)

	want := [6]Vertex{{1, 2}, {1, 22}, {11, 2}, {11, 2}, {1, 22}, {11, 22}}
	if c.Vertices != want {
		t.Errorf("Vertices = %v, want %v", c.Vertices, want)
	}
	if c.Opacity != 0.75 {
		t.Errorf("Opacity = %v", c.Opacity)
	}
}

func TestInitLineGeometry(t *testing.T) {
	var c Command
	c.InitLine(batch2d.Pt(0, 0), batch2d.Pt(10, 0), batch2d.White, 4).ApplyTransform(batch2d.Identity(), 1)

	want := [6]Vertex{{0, 2}, {0, -2}, {10, 2}, {10, 2}, {0, -2}, {10, -2}}
	for i := range want {
		if !near(c.Vertices[i].X, want[i].X) || !near(c.Vertices[i].Y, want[i].Y) {
			t.Errorf("vertex %d = %v, want %v", i, c.Vertices[i], want[i])
		}
	}

	// zero-length lines are degenerate, not an error
	c.InitLine(batch2d.Pt(3, 3), batch2d.Pt(3, 3), batch2d.White, 4).ApplyTransform(batch2d.Identity(), 1)
	for i, v := range c.Vertices {
		if v != (Vertex{3, 3}) {
			t.Errorf("degenerate vertex %d = %v", i, v)
		}
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		k    Kind
		want string
	}{
		{KindImage, "Image"},
		{KindRect, "Rect"},
		{KindLine, "Line"},
		{KindCircle, "Circle"},
		{Kind(0), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.k.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.k, got, tt.want)
		}
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct{ n, want int }{
		{-1, 1}, {0, 1}, {1, 1}, {2, 2}, {3, 4}, {10, 16}, {20, 32}, {32, 32}, {33, 64},
	}
	for _, tt := range tests {
		if got := NextPowerOfTwo(tt.n); got != tt.want {
			t.Errorf("NextPowerOfTwo(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestNewImagePadding(t *testing.T) {
	dev := recording.New()
	src := image.NewNRGBA(image.Rect(5, 5, 25, 15))
	src.Set(5, 5, color.NRGBA{R: 255, A: 255})

	img, err := NewImage(dev, src)
	if err != nil {
		t.Fatal(err)
	}
	if w, h := img.Size(); w != 20 || h != 10 {
		t.Errorf("Size() = %dx%d", w, h)
	}
	if w, h := img.PaddedSize(); w != 32 || h != 16 {
		t.Errorf("PaddedSize() = %dx%d, want 32x16", w, h)
	}
	if size, ok := dev.TextureSize(img.Texture()); !ok || size != image.Pt(32, 16) {
		t.Errorf("texture size = %v, %v", size, ok)
	}
	if img.Bounds() != batch2d.R(0, 0, 20, 10) {
		t.Errorf("Bounds() = %+v", img.Bounds())
	}

	img.Destroy()
	img.Destroy()
	if _, _, n := dev.Live(); n != 0 {
		t.Errorf("live textures = %d after Destroy", n)
	}
}

func TestNewImageErrors(t *testing.T) {
	small := recording.New(recording.WithLimits(gpucore.Limits{
		MaxTextureUnits: 4, MaxBufferSize: 1 << 20, MaxTextureDimension: 16,
	}))
	tests := []struct {
		name string
		dev  gpucore.Device
		src  image.Image
	}{
		{"nil device", nil, image.NewRGBA(image.Rect(0, 0, 1, 1))},
		{"nil image", recording.New(), nil},
		{"empty image", recording.New(), image.NewRGBA(image.Rectangle{})},
		{"above texture limit", small, image.NewRGBA(image.Rect(0, 0, 17, 4))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewImage(tt.dev, tt.src); !errors.Is(err, batch2d.ErrConfiguration) {
				t.Errorf("error = %v, want ErrConfiguration", err)
			}
		})
	}
}

type fakeFlusher struct {
	renders int
	err     error
}

func (f *fakeFlusher) Render() error {
	f.renders++
	return f.err
}

func TestSwitcher(t *testing.T) {
	var sw Switcher
	a := &fakeFlusher{}
	b := &fakeFlusher{err: errors.New("boom")}

	if err := sw.Flush(); err != nil {
		t.Errorf("Flush() with no renderer = %v", err)
	}
	if err := sw.Use(a); err != nil || a.renders != 0 {
		t.Errorf("first Use: err = %v, renders = %d", err, a.renders)
	}
	if err := sw.Use(a); err != nil || a.renders != 0 {
		t.Errorf("Use of current renderer flushed it: renders = %d", a.renders)
	}
	if err := sw.Use(b); err != nil || a.renders != 1 {
		t.Errorf("switch to b: err = %v, a.renders = %d", err, a.renders)
	}
	if err := sw.Use(a); err == nil || b.renders != 1 {
		t.Errorf("switch back: err = %v, b.renders = %d", err, b.renders)
	}
	if sw.Current() != a {
		t.Error("Current() is not a after failed flush of b")
	}
	if err := sw.Flush(); err != nil || a.renders != 2 {
		t.Errorf("Flush: err = %v, a.renders = %d", err, a.renders)
	}
}

func TestSwitcherKeepsRenderersContiguous(t *testing.T) {
	dev := recording.New()
	images := newTestRenderer(t, dev)
	circles := newTestCircleRenderer(t, dev)
	var sw Switcher

	_ = sw.Use(images)
	images.DrawRect(batch2d.R(0, 0, 1, 1), batch2d.Red, batch2d.Red, 0, batch2d.Identity(), 1)
	_ = sw.Use(circles)
	circles.Draw(batch2d.Pt(0, 0), 1, batch2d.Red, batch2d.Red, 0)
	_ = sw.Use(images)
	images.DrawRect(batch2d.R(0, 0, 1, 1), batch2d.Red, batch2d.Red, 0, batch2d.Identity(), 1)
	if err := sw.Flush(); err != nil {
		t.Fatal(err)
	}

	draws := dev.Draws()
	if len(draws) != 3 {
		t.Fatalf("draw calls = %d, want 3", len(draws))
	}
	if draws[0].Buffer != images.buffer || draws[1].Buffer != circles.buffer || draws[2].Buffer != images.buffer {
		t.Errorf("draw order by buffer = %d, %d, %d", draws[0].Buffer, draws[1].Buffer, draws[2].Buffer)
	}
}
