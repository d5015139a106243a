package native

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/gogpu/batch2d"
	"github.com/gogpu/batch2d/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// copyRowAlignment is the bytes-per-row alignment of texture to buffer copies.
const copyRowAlignment = 256

// submit records a single command buffer with fn, submits it and waits
// for the GPU. Must be called with d.mu held.
func (d *Device) submit(label string, fn func(enc hal.CommandEncoder)) error {
	enc, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		return fmt.Errorf("native: begin encoding: %w", err)
	}

	fn(enc)

	cmd, err := enc.EndEncoding()
	if err != nil {
		return fmt.Errorf("native: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmd)

	if _, err := d.queue.Submit([]hal.CommandBuffer{cmd}); err != nil {
		return fmt.Errorf("native: submit: %w", err)
	}
	if err := d.device.WaitIdle(); err != nil {
		return fmt.Errorf("native: wait: %w", err)
	}
	return nil
}

// DrawTriangles implements gpucore.Device.
func (d *Device) DrawTriangles(firstVertex, vertexCount uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}

	p, ok := d.programs[d.current]
	if !ok {
		return ErrNoProgram
	}
	vb, ok := d.buffers[d.vertices]
	if !ok {
		return ErrNoVertexBuffer
	}
	end := (uint64(firstVertex) + uint64(vertexCount)) * p.layout.Stride
	if end > vb.size {
		return fmt.Errorf("native: draw of vertices [%d, %d) exceeds buffer size %d",
			firstVertex, firstVertex+vertexCount, vb.size)
	}
	if vertexCount == 0 {
		return nil
	}
	if err := d.ensurePipeline(p); err != nil {
		return err
	}

	uniformBuf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: p.label + "_uniforms",
		Size:  uint64(len(d.uniforms)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("native: create uniform buffer: %w", err)
	}
	defer d.device.DestroyBuffer(uniformBuf)
	if err := d.queue.WriteBuffer(uniformBuf, 0, d.uniforms); err != nil {
		return fmt.Errorf("native: write uniforms: %w", err)
	}

	bindGroup, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   p.label + "_bind_group",
		Layout:  p.bindLayout,
		Entries: d.bindGroupEntries(p, uniformBuf),
	})
	if err != nil {
		return fmt.Errorf("native: create bind group: %w", err)
	}
	defer d.device.DestroyBindGroup(bindGroup)

	return d.submit(p.label+"_draw", func(enc hal.CommandEncoder) {
		pass := enc.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: p.label + "_pass",
			ColorAttachments: []hal.RenderPassColorAttachment{
				{
					View:    d.targetView,
					LoadOp:  gputypes.LoadOpLoad,
					StoreOp: gputypes.StoreOpStore,
				},
			},
		})
		pass.SetPipeline(p.pipeline)
		pass.SetBindGroup(0, bindGroup, nil)
		pass.SetVertexBuffer(0, vb.buf, 0)
		pass.Draw(vertexCount, 1, firstVertex, 0)
		pass.End()
	})
}

// bindGroupEntries binds the uniforms, the shared sampler and one view per
// texture unit. Empty units get the white placeholder.
func (d *Device) bindGroupEntries(p *program, uniforms hal.Buffer) []gputypes.BindGroupEntry {
	entries := []gputypes.BindGroupEntry{
		{
			Binding: bindingUniforms,
			Resource: gputypes.BufferBinding{
				Buffer: uniforms.NativeHandle(),
				Size:   uint64(len(d.uniforms)),
			},
		},
	}
	if p.units == 0 {
		return entries
	}
	entries = append(entries, gputypes.BindGroupEntry{
		Binding:  bindingSampler,
		Resource: gputypes.SamplerBinding{Sampler: d.sampler.NativeHandle()},
	})
	for unit := 0; unit < p.units; unit++ {
		view := d.placeholder.view
		if t, ok := d.textures[d.units[unit]]; ok {
			view = t.view
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  uint32(bindingTexture0 + unit), //nolint:gosec // units bounded by device limits
			Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()},
		})
	}
	return entries
}

// Clear fills the render target with a color.
func (d *Device) Clear(c batch2d.RGBA) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	return d.submit("clear", func(enc hal.CommandEncoder) {
		pass := enc.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "clear_pass",
			ColorAttachments: []hal.RenderPassColorAttachment{
				{
					View:       d.targetView,
					LoadOp:     gputypes.LoadOpClear,
					StoreOp:    gputypes.StoreOpStore,
					ClearValue: gputypes.Color{R: c.R * c.A, G: c.G * c.A, B: c.B * c.A, A: c.A},
				},
			},
		})
		pass.End()
	})
}

// Snapshot reads the render target back into an RGBA image. BGRA targets
// are swizzled to RGBA.
func (d *Device) Snapshot() (*image.RGBA, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}

	w, h := d.width, d.height
	rowBytes := w * 4
	pitch := (rowBytes + copyRowAlignment - 1) / copyRowAlignment * copyRowAlignment
	size := uint64(pitch) * uint64(h) //nolint:gosec // positive dimensions

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "snapshot_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	err = d.submit("snapshot", func(enc hal.CommandEncoder) {
		enc.TransitionTextures([]hal.TextureBarrier{{
			Texture: d.target.tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageRenderAttachment,
				NewUsage: gputypes.TextureUsageCopySrc,
			},
		}})
		enc.CopyTextureToBuffer(d.target.tex, staging, []hal.BufferTextureCopy{{
			BufferLayout: hal.ImageDataLayout{
				BytesPerRow:  uint32(pitch), //nolint:gosec // aligned row pitch
				RowsPerImage: uint32(h),     //nolint:gosec // positive height
			},
			TextureBase: hal.ImageCopyTexture{Texture: d.target.tex, Aspect: gputypes.TextureAspectAll},
			Size:        hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}, //nolint:gosec // positive dimensions
		}})
		enc.TransitionTextures([]hal.TextureBarrier{{
			Texture: d.target.tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageCopySrc,
				NewUsage: gputypes.TextureUsageRenderAttachment,
			},
		}})
	})
	if err != nil {
		return nil, err
	}

	mapping, err := d.device.MapBuffer(staging, 0, size)
	if err != nil {
		return nil, fmt.Errorf("native: map staging buffer: %w", err)
	}
	src := unsafe.Slice((*byte)(mapping.Ptr), size)

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+rowBytes], src[y*pitch:y*pitch+rowBytes])
	}
	if err := d.device.UnmapBuffer(staging); err != nil {
		return nil, fmt.Errorf("native: unmap staging buffer: %w", err)
	}

	if d.targetFormat == gputypes.TextureFormatBGRA8Unorm {
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i], img.Pix[i+2] = img.Pix[i+2], img.Pix[i]
		}
	}
	return img, nil
}

var _ gpucore.Device = (*Device)(nil)
