// Package batch2d is a batched 2D rendering pipeline on top of a
// graphics device.
//
// # Overview
//
// Draw commands (images, rectangles, lines, circles) are issued per frame
// by a scene graph, packed into shared vertex buffers and flushed to the
// device in as few draw calls as possible. The root package carries the
// shared vocabulary: [Matrix], [Point], [Rect], [RGBA], the error taxonomy
// ([ConfigurationError], [CompilationError]), the [Counters] diagnostics
// collector and the package logger.
//
// # Packages
//
//   - gpucore: the device abstraction renderers draw through
//   - backend: the device registry (Open, Default)
//   - backend/native: a WebGPU HAL device (gogpu/wgpu)
//   - recording: a device that records every call, for tests and tooling
//   - shader: vertex layout registry, program wrapper, WGSL sources
//   - batch: draw command pool, batches, the batch and circle renderers,
//     images and the image cache
//   - cache: generic LRU cache with an eviction hook
//
// # Quick Start
//
//	dev, err := native.New(backend.Config{Width: 800, Height: 600})
//	if err != nil {
//	    return err
//	}
//	defer dev.Close()
//
//	stats := batch2d.NewStats()
//	r, err := batch.NewRenderer(dev, batch.WithCounters(stats))
//	if err != nil {
//	    return err
//	}
//	r.SetProjection(batch2d.Ortho(800, 600))
//	r.DrawRect(batch2d.Rect{X: 10, Y: 10, W: 100, H: 50}, batch2d.Red,
//	    batch2d.Transparent, 0, batch2d.Identity(), 1)
//	if err := r.Render(); err != nil {
//	    return err
//	}
//
// # Coordinate System
//
// Origin (0,0) at top-left, X increases right, Y increases down.
//
// # Ordering
//
// Commands are drawn in the order they are admitted. Batches are drawn in
// the order they fill. There is no depth sorting: a z-index never moves a
// command across a batch boundary.
package batch2d
