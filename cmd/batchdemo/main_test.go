package main

import (
	"errors"
	"testing"

	"github.com/gogpu/batch2d"
	"github.com/gogpu/batch2d/recording"
)

// failingDevice records calls but rejects every draw.
type failingDevice struct {
	*recording.Device
}

var errDraw = errors.New("draw rejected")

func (failingDevice) DrawTriangles(uint32, uint32) error { return errDraw }

func TestDrawFrame(t *testing.T) {
	dev := recording.New()
	stats := batch2d.NewStats()
	cfg := demoConfig{Width: 200, Height: 100, Count: 50, CacheSize: 4}

	if err := drawFrame(dev, stats, cfg); err != nil {
		t.Fatalf("drawFrame() error = %v", err)
	}
	snap := stats.Snapshot()
	if snap["sprites"].Primitives != 50+16 {
		t.Errorf("sprites primitives = %d, want %d", snap["sprites"].Primitives, 50+16)
	}
	if snap["circle"].Primitives != 50 {
		t.Errorf("circle primitives = %d, want 50", snap["circle"].Primitives)
	}
	if p, b, tex := dev.Live(); p != 0 || b != 0 || tex != 0 {
		t.Errorf("live resources after frame = %d, %d, %d", p, b, tex)
	}
}

func TestDrawFrameReportsFlushError(t *testing.T) {
	dev := failingDevice{recording.New()}
	err := drawFrame(dev, batch2d.NewStats(), demoConfig{Width: 64, Height: 64, Count: 5, CacheSize: 1})
	if !errors.Is(err, errDraw) {
		t.Errorf("drawFrame() error = %v, want %v", err, errDraw)
	}
}
