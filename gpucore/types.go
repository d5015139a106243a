package gpucore

// Resource IDs
//
// These opaque IDs represent device resources. Each implementation
// maintains a mapping between IDs and actual backend resources.
// IDs are uint64 to accommodate various backend handle sizes.

// ProgramID is an opaque handle to a compiled program (vertex + fragment).
type ProgramID uint64

// BufferID is an opaque handle to a vertex buffer.
type BufferID uint64

// TextureID is an opaque handle to a sampled 2D texture.
type TextureID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// Limits describes the device capabilities renderers size themselves by.
type Limits struct {
	// MaxTextureUnits is the number of textures one draw call can sample.
	MaxTextureUnits int

	// MaxBufferSize is the largest vertex buffer in bytes.
	MaxBufferSize uint64

	// MaxTextureDimension is the largest 2D texture side in pixels.
	MaxTextureDimension int
}

// VertexAttribute describes one named attribute inside an interleaved
// vertex.
type VertexAttribute struct {
	// Name is the attribute name, e.g. "position".
	Name string

	// Components is the float32 component count, 1 to 4.
	Components int

	// Offset is the byte offset from the start of the vertex.
	Offset uint64

	// Location is the shader input location.
	Location uint32
}

// VertexLayout describes an interleaved float32 vertex.
type VertexLayout struct {
	Attributes []VertexAttribute

	// Stride is the vertex size in bytes.
	Stride uint64
}

// Floats returns the vertex size in float32 components.
func (l VertexLayout) Floats() int {
	return int(l.Stride / 4)
}

// UniformKind identifies the data type of a uniform.
type UniformKind uint8

const (
	// UniformMatrix4 is a 4x4 float32 matrix in column-major order.
	UniformMatrix4 UniformKind = iota + 1

	// UniformIntArray is an array of int32 values.
	UniformIntArray
)

// String returns the string representation of a UniformKind.
func (k UniformKind) String() string {
	switch k {
	case UniformMatrix4:
		return "mat4"
	case UniformIntArray:
		return "int[]"
	default:
		return "Unknown"
	}
}

// Uniform is one named uniform value applied when a program is used.
// Uniforms are laid out in the order they are passed.
type Uniform struct {
	Name   string
	Kind   UniformKind
	Matrix [16]float32
	Ints   []int32
}

// ProgramDescriptor describes a program to compile.
type ProgramDescriptor struct {
	// Label is an optional debug label.
	Label string

	// VertexSource and FragmentSource are the two shader stages.
	VertexSource   string
	FragmentSource string

	// VertexEntry and FragmentEntry name the entry points.
	// Empty means "vs_main" and "fs_main".
	VertexEntry   string
	FragmentEntry string

	// TextureUnits is the number of sampled textures the fragment stage
	// declares. Zero means the program samples no textures.
	TextureUnits int
}

// Entry points used when a ProgramDescriptor leaves them empty.
const (
	DefaultVertexEntry   = "vs_main"
	DefaultFragmentEntry = "fs_main"
)
