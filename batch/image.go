package batch

import (
	"fmt"
	"image"
	"math/bits"

	"golang.org/x/image/draw"

	"github.com/gogpu/batch2d"
	"github.com/gogpu/batch2d/gpucore"
)

// Image is a decoded image uploaded as a power-of-two texture.
//
// The texture is padded with transparent pixels to the next power of two
// in each dimension. Source rectangles are given in source pixels and
// normalised against the padded size.
type Image struct {
	device gpucore.Device
	id     gpucore.TextureID

	width, height int
	padW, padH    int
}

// NewImage pads src to power-of-two dimensions and uploads it.
// A 20x10 image becomes a 32x16 texture.
func NewImage(device gpucore.Device, src image.Image) (*Image, error) {
	if device == nil {
		return nil, batch2d.NewConfigurationError("new image", "nil device")
	}
	if src == nil {
		return nil, batch2d.NewConfigurationError("new image", "nil image")
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, batch2d.NewConfigurationError("new image", fmt.Sprintf("empty image %dx%d", w, h))
	}
	pw, ph := NextPowerOfTwo(w), NextPowerOfTwo(h)
	if limit := device.Limits().MaxTextureDimension; pw > limit || ph > limit {
		return nil, batch2d.NewConfigurationError("new image",
			fmt.Sprintf("padded size %dx%d exceeds texture limit %d", pw, ph, limit))
	}

	padded := image.NewRGBA(image.Rect(0, 0, pw, ph))
	draw.Copy(padded, image.Point{}, src, b, draw.Src, nil)

	id, err := device.CreateTexture(fmt.Sprintf("image_%dx%d", w, h), padded)
	if err != nil {
		return nil, fmt.Errorf("batch: upload image: %w", err)
	}
	return &Image{device: device, id: id, width: w, height: h, padW: pw, padH: ph}, nil
}

// NextPowerOfTwo returns the smallest power of two >= n. It returns 1 for
// n <= 1.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// Texture returns the device texture handle.
func (img *Image) Texture() gpucore.TextureID { return img.id }

// Size returns the source image dimensions.
func (img *Image) Size() (width, height int) { return img.width, img.height }

// PaddedSize returns the texture dimensions.
func (img *Image) PaddedSize() (width, height int) { return img.padW, img.padH }

// Bounds returns the full source rectangle.
func (img *Image) Bounds() batch2d.Rect {
	return batch2d.R(0, 0, float64(img.width), float64(img.height))
}

// Destroy releases the texture. Safe to call more than once.
func (img *Image) Destroy() {
	if img.id == gpucore.InvalidID {
		return
	}
	img.device.DestroyTexture(img.id)
	img.id = gpucore.InvalidID
}
