package batch

import (
	"image"

	"github.com/gogpu/batch2d"
	"github.com/gogpu/batch2d/cache"
	"github.com/gogpu/batch2d/gpucore"
)

// DefaultImageCacheSize is the number of textures an ImageCache keeps
// when no size is given.
const DefaultImageCacheSize = 64

// ImageCache uploads images on first use and keeps the most recently used
// ones resident. An evicted Image has its texture destroyed: render any
// batch that samples it before a Get that may evict, and do not hold an
// Image across frames without fetching it again.
type ImageCache struct {
	device gpucore.Device
	images *cache.Cache[string, *Image]
}

// NewImageCache creates a cache holding at most size textures.
func NewImageCache(device gpucore.Device, size int) (*ImageCache, error) {
	if device == nil {
		return nil, batch2d.NewConfigurationError("new image cache", "nil device")
	}
	if size <= 0 {
		size = DefaultImageCacheSize
	}
	return &ImageCache{
		device: device,
		images: cache.New[string, *Image](size, func(name string, img *Image) {
			batch2d.Logger().Debug("batch: evict image", "name", name)
			img.Destroy()
		}),
	}, nil
}

// Get returns the image stored under name, calling load and uploading its
// result on a miss.
func (c *ImageCache) Get(name string, load func() (image.Image, error)) (*Image, error) {
	return c.images.GetOrCreate(name, func() (*Image, error) {
		src, err := load()
		if err != nil {
			return nil, err
		}
		return NewImage(c.device, src)
	})
}

// Remove destroys the image stored under name.
func (c *ImageCache) Remove(name string) bool { return c.images.Delete(name) }

// Len returns the number of resident images.
func (c *ImageCache) Len() int { return c.images.Len() }

// Stats returns hit and eviction statistics.
func (c *ImageCache) Stats() cache.Stats { return c.images.Stats() }

// Destroy releases every cached texture.
func (c *ImageCache) Destroy() { c.images.Clear() }
