package native

import (
	"fmt"
	"image"

	"github.com/gogpu/batch2d/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

type vertexBuffer struct {
	buf  hal.Buffer
	size uint64
}

type texture struct {
	tex    hal.Texture
	view   hal.TextureView
	width  int
	height int
}

func (t *texture) destroy(device hal.Device) {
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// CreateVertexBuffer implements gpucore.Device.
func (d *Device) CreateVertexBuffer(label string, size uint64) (gpucore.BufferID, error) {
	if size == 0 || size > d.limits.MaxBufferSize {
		return gpucore.InvalidID, fmt.Errorf("native: vertex buffer %q: size %d outside (0, %d]",
			label, size, d.limits.MaxBufferSize)
	}
	// Buffer sizes must be 4-byte aligned for WriteBuffer.
	aligned := (size + 3) &^ 3

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpucore.InvalidID, ErrClosed
	}

	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  aligned,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create vertex buffer %q: %w", label, err)
	}

	id := gpucore.BufferID(d.newID())
	d.buffers[id] = &vertexBuffer{buf: buf, size: size}
	return id, nil
}

// BindVertexBuffer implements gpucore.Device.
func (d *Device) BindVertexBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	d.vertices = id
	d.mu.Unlock()
}

// WriteBuffer implements gpucore.Device.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	b, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d", ErrUnknownResource, id)
	}
	if offset+uint64(len(data)) > b.size {
		return fmt.Errorf("native: write of %d bytes at %d exceeds buffer size %d", len(data), offset, b.size)
	}
	if len(data) == 0 {
		return nil
	}
	return d.queue.WriteBuffer(b.buf, offset, data)
}

// DestroyBuffer implements gpucore.Device.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[id]
	if !ok {
		return
	}
	delete(d.buffers, id)
	if d.vertices == id {
		d.vertices = gpucore.InvalidID
	}
	d.device.DestroyBuffer(b.buf)
}

// CreateTexture implements gpucore.Device.
func (d *Device) CreateTexture(label string, img *image.RGBA) (gpucore.TextureID, error) {
	if img == nil {
		return gpucore.InvalidID, fmt.Errorf("native: texture %q: nil image", label)
	}
	b := img.Bounds()
	limit := int(d.limits.MaxTextureDimension2D)
	if b.Dx() <= 0 || b.Dy() <= 0 || b.Dx() > limit || b.Dy() > limit {
		return gpucore.InvalidID, fmt.Errorf("native: texture %q: size %dx%d outside (0, %d]",
			label, b.Dx(), b.Dy(), limit)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpucore.InvalidID, ErrClosed
	}

	t, err := d.uploadTexture(label, img)
	if err != nil {
		return gpucore.InvalidID, err
	}
	id := gpucore.TextureID(d.newID())
	d.textures[id] = t
	return id, nil
}

// uploadTexture creates a sampled texture with a view and copies the
// image into it.
func (d *Device) uploadTexture(label string, img *image.RGBA) (*texture, error) {
	b := img.Bounds()
	w, h := uint32(b.Dx()), uint32(b.Dy()) //nolint:gosec // bounds checked by caller

	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create texture %q: %w", label, err)
	}

	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return nil, fmt.Errorf("native: create texture view %q: %w", label, err)
	}

	// Sub-images start at an offset into Pix.
	offset := img.PixOffset(b.Min.X, b.Min.Y)
	err = d.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, Aspect: gputypes.TextureAspectAll},
		img.Pix[offset:],
		&hal.ImageDataLayout{
			BytesPerRow:  uint32(img.Stride), //nolint:gosec // image stride is positive
			RowsPerImage: h,
		},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	if err != nil {
		d.device.DestroyTextureView(view)
		d.device.DestroyTexture(tex)
		return nil, fmt.Errorf("native: upload texture %q: %w", label, err)
	}

	return &texture{tex: tex, view: view, width: b.Dx(), height: b.Dy()}, nil
}

// BindTexture implements gpucore.Device.
func (d *Device) BindTexture(unit int, id gpucore.TextureID) {
	d.mu.Lock()
	d.units[unit] = id
	d.mu.Unlock()
}

// DestroyTexture implements gpucore.Device.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[id]
	if !ok {
		return
	}
	delete(d.textures, id)
	for unit, bound := range d.units {
		if bound == id {
			delete(d.units, unit)
		}
	}
	t.destroy(d.device)
}
