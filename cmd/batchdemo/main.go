// Command batchdemo renders a frame of sprites, shapes and circles through
// the batch renderers and reports the draw calls it took.
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"math"
	"os"

	"github.com/gogpu/batch2d"
	"github.com/gogpu/batch2d/backend"
	"github.com/gogpu/batch2d/batch"

	// Register backends.
	_ "github.com/gogpu/batch2d/backend/native"
	_ "github.com/gogpu/batch2d/recording"
)

// frameTarget is implemented by backends that own a readable render target.
type frameTarget interface {
	Clear(c batch2d.RGBA) error
	Snapshot() (*image.RGBA, error)
}

func main() {
	cfg, verbose, err := parseArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	batch2d.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	bcfg := backend.Config{Width: cfg.Width, Height: cfg.Height, Label: "batchdemo"}
	var dev backend.Device
	if cfg.Backend == "" {
		dev, err = backend.Default(bcfg)
	} else {
		dev, err = backend.Open(cfg.Backend, bcfg)
	}
	if err != nil {
		log.Fatalf("Failed to open device: %v", err)
	}
	defer dev.Close()

	target, hasTarget := dev.(frameTarget)
	if hasTarget {
		if err := target.Clear(batch2d.RGB(0.1, 0.1, 0.15)); err != nil {
			log.Fatalf("Failed to clear: %v", err)
		}
	}

	stats := batch2d.NewStats()
	if err := drawFrame(dev, stats, cfg); err != nil {
		log.Fatalf("Failed to render: %v", err)
	}
	for renderer, s := range stats.Snapshot() {
		log.Printf("%s: %d draw calls, %d primitives", renderer, s.DrawCalls, s.Primitives)
	}

	if cfg.Output == "" {
		return
	}
	if !hasTarget {
		log.Fatalf("Backend %q has no readable render target", dev.Name())
	}
	img, err := target.Snapshot()
	if err != nil {
		log.Fatalf("Failed to read frame: %v", err)
	}
	if err := savePNG(cfg.Output, img); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Frame saved to %s (%dx%d)", cfg.Output, cfg.Width, cfg.Height)
}

// rendererOptions turns the non-zero config limits into renderer options.
func rendererOptions(cfg demoConfig, stats *batch2d.Stats) []batch.Option {
	opts := []batch.Option{batch.WithCounters(stats)}
	if cfg.MaxCommands > 0 {
		opts = append(opts, batch.WithMaxCommands(cfg.MaxCommands))
	}
	if cfg.MaxCircles > 0 {
		opts = append(opts, batch.WithMaxCircles(cfg.MaxCircles))
	}
	if cfg.TextureUnits > 0 {
		opts = append(opts, batch.WithTextureUnits(cfg.TextureUnits))
	}
	return opts
}

func drawFrame(dev backend.Device, stats *batch2d.Stats, cfg demoConfig) error {
	w, h, count := float64(cfg.Width), float64(cfg.Height), cfg.Count
	opts := rendererOptions(cfg, stats)

	sprites, err := batch.NewRenderer(dev, append(opts, batch.WithName("sprites"))...)
	if err != nil {
		return err
	}
	defer sprites.Destroy()

	circles, err := batch.NewCircleRenderer(dev, opts...)
	if err != nil {
		return err
	}
	defer circles.Destroy()

	projection := batch2d.Ortho(w, h)
	sprites.SetProjection(projection)
	circles.SetProjection(projection)

	// Every sprite kind stays resident for the whole frame.
	const kinds = 20
	textures, err := batch.NewImageCache(dev, max(cfg.CacheSize, kinds))
	if err != nil {
		return err
	}
	defer textures.Destroy()

	images := make([]*batch.Image, kinds)
	for i := range images {
		images[i], err = textures.Get(fmt.Sprintf("checker-%d", i), func() (image.Image, error) {
			return checkerboard(12+i, 8+i%5, hue(float64(i)/kinds)), nil
		})
		if err != nil {
			return err
		}
	}

	var sw batch.Switcher

	// Sprites cycle through more images than one batch can sample, which
	// forces texture-limited flushes.
	if err := sw.Use(sprites); err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		img := images[i%len(images)]
		x := math.Mod(float64(i)*37, w)
		y := math.Mod(float64(i)*53, h)
		m := batch2d.Translate(x, y).Multiply(batch2d.Rotate(float64(i) * 0.1))
		sprites.DrawImage(img, img.Bounds(), batch2d.R(-16, -16, 32, 32), m, 0.9)
	}

	for i := 0; i < 8; i++ {
		m := batch2d.Translate(w/2, h/2).Multiply(batch2d.Rotate(float64(i) * math.Pi / 4))
		sprites.DrawRect(batch2d.R(-60, -60, 120, 120), hue(float64(i)/8).WithAlpha(0.4), batch2d.White, 3, m, 1)
		sprites.DrawLine(batch2d.Pt(0, 0), batch2d.Pt(200, 0), batch2d.White, 2, m, 0.8)
	}

	if err := sw.Use(circles); err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		t := float64(i) / float64(count)
		circles.SetTransform(batch2d.Translate(w*t, h/2+math.Sin(t*8*math.Pi)*h/3), 1)
		circles.Draw(batch2d.Pt(0, 0), 4+6*t, hue(t), batch2d.Black, 1)
	}
	return sw.Flush()
}

// checkerboard builds a w x h sprite with a two-tone pattern.
func checkerboard(w, h int, c batch2d.RGBA) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	light := color.NRGBA{R: uint8(c.R * 255), G: uint8(c.G * 255), B: uint8(c.B * 255), A: 255}
	dark := color.NRGBA{R: light.R / 2, G: light.G / 2, B: light.B / 2, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/4+y/4)%2 == 0 {
				img.SetNRGBA(x, y, light)
			} else {
				img.SetNRGBA(x, y, dark)
			}
		}
	}
	return img
}

// hue maps t in [0, 1] around the color wheel at full saturation.
func hue(t float64) batch2d.RGBA {
	h := math.Mod(t, 1) * 6
	x := 1 - math.Abs(math.Mod(h, 2)-1)
	switch int(h) {
	case 0:
		return batch2d.RGB(1, x, 0)
	case 1:
		return batch2d.RGB(x, 1, 0)
	case 2:
		return batch2d.RGB(0, 1, x)
	case 3:
		return batch2d.RGB(0, x, 1)
	case 4:
		return batch2d.RGB(x, 0, 1)
	default:
		return batch2d.RGB(1, 0, x)
	}
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
