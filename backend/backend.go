package backend

import (
	"errors"

	"github.com/gogpu/batch2d/gpucore"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not registered.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrInvalidDimensions is returned when the target width or height is invalid.
	ErrInvalidDimensions = errors.New("backend: invalid dimensions")
)

// Config describes the render target a device is opened for.
type Config struct {
	// Width and Height are the render target size in pixels.
	Width  int
	Height int

	// Label is an optional debug label used for device resources.
	Label string
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return ErrInvalidDimensions
	}
	return nil
}

// Device is a gpucore.Device opened through the registry.
type Device interface {
	gpucore.Device

	// Name returns the backend identifier (e.g., "native", "recording").
	Name() string

	// Close releases all device resources.
	// The device should not be used after Close is called.
	Close()
}
