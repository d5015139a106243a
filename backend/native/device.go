// Package native provides a Pure Go gpucore.Device on top of gogpu/wgpu HAL.
package native

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/gogpu/batch2d"
	"github.com/gogpu/batch2d/backend"
	"github.com/gogpu/batch2d/gpucore"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// adapterPriority is the HAL backend search order for New.
// BackendEmpty is the software rasterizer (or noop in tests).
var adapterPriority = []gputypes.Backend{
	gputypes.BackendVulkan,
	gputypes.BackendMetal,
	gputypes.BackendDX12,
	gputypes.BackendGL,
	gputypes.BackendEmpty,
}

func init() {
	backend.Register(backend.BackendNative, func(cfg backend.Config) (backend.Device, error) {
		return New(cfg)
	})
}

// Device implements gpucore.Device using gogpu/wgpu/hal directly.
//
// Every draw call is encoded into its own render pass, submitted and waited
// for, so the device is synchronous from the caller's perspective.
//
// Thread Safety: resource tables are protected by a mutex. Bound state
// (program, vertex buffer, texture units) is shared by every renderer
// using the device.
type Device struct {
	mu sync.Mutex

	device hal.Device
	queue  hal.Queue

	// instance is non-nil when the device was opened by New and is owned.
	instance hal.Instance
	external bool
	closed   bool

	limits gputypes.Limits
	label  string

	// ID generation
	nextID atomic.Uint64

	// Resource tracking maps gpucore IDs to hal resources
	programs map[gpucore.ProgramID]*program
	buffers  map[gpucore.BufferID]*vertexBuffer
	textures map[gpucore.TextureID]*texture

	// Render target
	target       *texture
	targetView   hal.TextureView
	targetFormat gputypes.TextureFormat
	width        int
	height       int

	sampler     hal.Sampler
	placeholder *texture

	// Bound state
	current  gpucore.ProgramID
	uniforms []byte
	vertices gpucore.BufferID
	units    map[int]gpucore.TextureID
}

var _ backend.Device = (*Device)(nil)

// New opens the first available HAL adapter and creates an offscreen
// RGBA render target of the configured size.
func New(cfg backend.Config) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for _, variant := range adapterPriority {
		b, ok := hal.GetBackend(variant)
		if !ok {
			continue
		}
		instance, err := b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
		if err != nil {
			batch2d.Logger().Warn("native: create instance failed", "backend", variant, "err", err)
			continue
		}
		adapters := instance.EnumerateAdapters(nil)
		if len(adapters) == 0 {
			instance.Destroy()
			continue
		}
		selected := &adapters[0]
		for i := range adapters {
			if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
				adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
				selected = &adapters[i]
				break
			}
		}
		openDev, err := selected.Adapter.Open(gputypes.Features(0), selected.Capabilities.Limits)
		if err != nil {
			instance.Destroy()
			batch2d.Logger().Warn("native: open device failed", "adapter", selected.Info.Name, "err", err)
			continue
		}

		d, err := NewWithHAL(openDev.Device, openDev.Queue, &selected.Capabilities.Limits, cfg)
		if err != nil {
			openDev.Device.Destroy()
			instance.Destroy()
			return nil, err
		}
		d.instance = instance
		d.external = false
		batch2d.Logger().Info("native: device opened", "adapter", selected.Info.Name, "backend", variant)
		return d, nil
	}
	return nil, ErrNoGPU
}

// NewWithHAL wraps an already opened HAL device and queue. The device is
// not destroyed by Close. If limits is nil, default limits are used.
func NewWithHAL(device hal.Device, queue hal.Queue, limits *gputypes.Limits, cfg backend.Config) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lim := gputypes.DefaultLimits()
	if limits != nil {
		lim = *limits
	}

	d := &Device{
		device:       device,
		queue:        queue,
		external:     true,
		limits:       lim,
		label:        cfg.Label,
		targetFormat: gputypes.TextureFormatRGBA8Unorm,
		width:        cfg.Width,
		height:       cfg.Height,
		programs:     make(map[gpucore.ProgramID]*program),
		buffers:      make(map[gpucore.BufferID]*vertexBuffer),
		textures:     make(map[gpucore.TextureID]*texture),
		units:        make(map[int]gpucore.TextureID),
	}

	// Start ID generation at 1 (0 is invalid)
	d.nextID.Store(1)

	if err := d.createSharedResources(); err != nil {
		d.destroySharedResources()
		return nil, err
	}
	return d, nil
}

// NewFromProvider shares the GPU device of an external provider (e.g. a
// gogpu window). The provider must implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue. The offscreen target
// uses the provider's surface format.
func NewFromProvider(provider gpucontext.DeviceProvider, cfg backend.Config) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrProviderNotHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrProviderNotHAL, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrProviderNotHAL, hp.HalQueue())
	}

	d, err := NewWithHAL(device, queue, nil, cfg)
	if err != nil {
		return nil, err
	}
	if format := provider.SurfaceFormat(); format != gputypes.TextureFormatUndefined && format != d.targetFormat {
		if err := d.resizeTarget(cfg.Width, cfg.Height, format); err != nil {
			d.Close()
			return nil, err
		}
	}
	batch2d.Logger().Info("native: sharing provider device", "adapter", provider.AdapterInfo().Name)
	return d, nil
}

// newID generates a unique resource ID.
func (d *Device) newID() uint64 {
	return d.nextID.Add(1) - 1
}

// Name implements backend.Device.
func (d *Device) Name() string { return backend.BackendNative }

// Limits implements gpucore.Device.
func (d *Device) Limits() gpucore.Limits {
	return gpucore.Limits{
		MaxTextureUnits:     int(d.limits.MaxSampledTexturesPerShaderStage),
		MaxBufferSize:       d.limits.MaxBufferSize,
		MaxTextureDimension: int(d.limits.MaxTextureDimension2D),
	}
}

// Size returns the render target size.
func (d *Device) Size() (width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.width, d.height
}

// TargetFormat returns the render target texture format.
func (d *Device) TargetFormat() gputypes.TextureFormat {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.targetFormat
}

// Resize replaces the render target. Existing contents are discarded.
func (d *Device) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return backend.ErrInvalidDimensions
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	return d.resizeTarget(width, height, d.targetFormat)
}

// Close releases all device resources. Safe to call more than once.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	_ = d.device.WaitIdle()

	for id, p := range d.programs {
		p.destroy(d.device)
		delete(d.programs, id)
	}
	for id, b := range d.buffers {
		d.device.DestroyBuffer(b.buf)
		delete(d.buffers, id)
	}
	for id, t := range d.textures {
		t.destroy(d.device)
		delete(d.textures, id)
	}
	d.destroySharedResources()

	if !d.external {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
			d.instance = nil
		}
	}
}

func (d *Device) createSharedResources() error {
	sampler, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        d.label + "_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeNearest,
		LodMaxClamp:  32,
	})
	if err != nil {
		return fmt.Errorf("native: create sampler: %w", err)
	}
	d.sampler = sampler

	white := image.NewRGBA(image.Rect(0, 0, 1, 1))
	copy(white.Pix, []byte{0xff, 0xff, 0xff, 0xff})
	d.placeholder, err = d.uploadTexture(d.label+"_placeholder", white)
	if err != nil {
		return err
	}

	return d.resizeTarget(d.width, d.height, d.targetFormat)
}

func (d *Device) destroySharedResources() {
	if d.targetView != nil {
		d.device.DestroyTextureView(d.targetView)
		d.targetView = nil
	}
	if d.target != nil {
		d.target.destroy(d.device)
		d.target = nil
	}
	if d.placeholder != nil {
		d.placeholder.destroy(d.device)
		d.placeholder = nil
	}
	if d.sampler != nil {
		d.device.DestroySampler(d.sampler)
		d.sampler = nil
	}
}

// resizeTarget recreates the render target. Must be called with d.mu held
// or during construction.
func (d *Device) resizeTarget(width, height int, format gputypes.TextureFormat) error {
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label: d.label + "_target",
		Size: hal.Extent3D{
			Width:              uint32(width),  //nolint:gosec // validated positive
			Height:             uint32(height), //nolint:gosec // validated positive
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("native: create render target: %w", err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         d.label + "_target_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return fmt.Errorf("native: create render target view: %w", err)
	}

	if d.targetView != nil {
		d.device.DestroyTextureView(d.targetView)
	}
	if d.target != nil {
		d.target.destroy(d.device)
	}
	d.target = &texture{tex: tex, width: width, height: height}
	d.targetView = view
	d.targetFormat = format
	d.width, d.height = width, height
	return nil
}
