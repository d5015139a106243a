package native

import "errors"

// Package errors for the native backend.
var (
	// ErrNoGPU is returned when no HAL adapter is available.
	ErrNoGPU = errors.New("native: no GPU adapter available")

	// ErrClosed is returned when the device is used after Close.
	ErrClosed = errors.New("native: device closed")

	// ErrUnknownResource is returned when an ID does not name a live resource.
	ErrUnknownResource = errors.New("native: unknown resource")

	// ErrNoProgram is returned when drawing without a current program.
	ErrNoProgram = errors.New("native: no program in use")

	// ErrNoVertexBuffer is returned when drawing without a bound vertex buffer.
	ErrNoVertexBuffer = errors.New("native: no vertex buffer bound")

	// ErrNoVertexLayout is returned when a program is used before its layout is set.
	ErrNoVertexLayout = errors.New("native: program has no vertex layout")

	// ErrProviderNotHAL is returned when a device provider does not expose HAL types.
	ErrProviderNotHAL = errors.New("native: provider does not expose HAL device and queue")
)
