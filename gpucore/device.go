package gpucore

import "image"

// Device abstracts over graphics device implementations.
//
// Resource lifecycle:
//   - Resources are created via Compile/Create methods
//   - Resources must be explicitly destroyed via Destroy methods
//   - Destroying a resource while bound is undefined behavior
//   - IDs become invalid after destruction and are never reused
//
// A Device is driven by a single rendering pass at a time. Implementations
// may guard their resource tables with a mutex, but bound state (program,
// vertex buffer, texture units) is shared by every renderer using the
// device, so each renderer rebinds what it needs before drawing.
type Device interface {
	// Limits returns the device capabilities.
	Limits() Limits

	// === Programs ===

	// CompileProgram compiles a vertex/fragment pair. A failure to compile
	// or link is reported as a *batch2d.CompilationError carrying the
	// device log.
	CompileProgram(desc ProgramDescriptor) (ProgramID, error)

	// SetVertexLayout fixes the vertex layout of a program. It must be
	// called before the program is first used.
	SetVertexLayout(id ProgramID, layout VertexLayout) error

	// UseProgram makes the program current and applies the uniforms.
	UseProgram(id ProgramID, uniforms []Uniform) error

	// DestroyProgram releases a program.
	DestroyProgram(id ProgramID)

	// === Vertex Buffers ===

	// CreateVertexBuffer allocates a vertex buffer of size bytes.
	CreateVertexBuffer(label string, size uint64) (BufferID, error)

	// BindVertexBuffer makes the buffer the source of vertex data for
	// subsequent draws.
	BindVertexBuffer(id BufferID)

	// WriteBuffer uploads data at a byte offset.
	WriteBuffer(id BufferID, offset uint64, data []byte) error

	// DestroyBuffer releases a vertex buffer.
	DestroyBuffer(id BufferID)

	// === Textures ===

	// CreateTexture uploads an RGBA image as a sampled texture.
	// The texture size equals the image bounds.
	CreateTexture(label string, img *image.RGBA) (TextureID, error)

	// BindTexture binds a texture to a texture unit for subsequent draws.
	BindTexture(unit int, id TextureID)

	// DestroyTexture releases a texture.
	DestroyTexture(id TextureID)

	// === Drawing ===

	// DrawTriangles draws vertexCount vertices starting at firstVertex
	// from the bound vertex buffer as a triangle list.
	DrawTriangles(firstVertex, vertexCount uint32) error
}
