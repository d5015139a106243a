// Package recording provides a graphics device that records every call
// instead of talking to a GPU.
//
// The recording device implements [gpucore.Device] and keeps a shadow copy
// of every vertex buffer, so each draw call can be inspected after the
// fact: which program and uniforms were active, which textures were bound
// to which units and the exact float vertex data that was drawn. It is the
// device renderer tests run against, and it backs the demo command when no
// GPU is available.
//
// # Example
//
//	dev := recording.New()
//	r, _ := batch.NewRenderer(dev)
//	r.DrawRect(batch2d.R(0, 0, 10, 10), batch2d.Red, batch2d.Transparent, 0, batch2d.Identity(), 1)
//	_ = r.Render()
//
//	for _, d := range dev.Draws() {
//	    fmt.Println(d.VertexCount, d.Textures)
//	}
//
// # Registration
//
// Importing the package registers the "recording" backend with
// [backend.Register].
package recording
