package recording

import "github.com/gogpu/batch2d/gpucore"

// Op identifies the device method a Call records.
type Op uint8

const (
	// Program calls
	OpCompileProgram  Op = iota // CompileProgram
	OpSetVertexLayout           // SetVertexLayout
	OpUseProgram                // UseProgram
	OpDestroyProgram            // DestroyProgram

	// Buffer calls
	OpCreateVertexBuffer // CreateVertexBuffer
	OpBindVertexBuffer   // BindVertexBuffer
	OpWriteBuffer        // WriteBuffer
	OpDestroyBuffer      // DestroyBuffer

	// Texture calls
	OpCreateTexture  // CreateTexture
	OpBindTexture    // BindTexture
	OpDestroyTexture // DestroyTexture

	// Drawing
	OpDrawTriangles // DrawTriangles
)

// opNames maps Op values to their string representation.
var opNames = [...]string{
	OpCompileProgram:     "CompileProgram",
	OpSetVertexLayout:    "SetVertexLayout",
	OpUseProgram:         "UseProgram",
	OpDestroyProgram:     "DestroyProgram",
	OpCreateVertexBuffer: "CreateVertexBuffer",
	OpBindVertexBuffer:   "BindVertexBuffer",
	OpWriteBuffer:        "WriteBuffer",
	OpDestroyBuffer:      "DestroyBuffer",
	OpCreateTexture:      "CreateTexture",
	OpBindTexture:        "BindTexture",
	OpDestroyTexture:     "DestroyTexture",
	OpDrawTriangles:      "DrawTriangles",
}

// String returns the string representation of an Op.
func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "Unknown"
}

// Call is one recorded device call. Only the fields relevant to Op are
// set; slices are copies owned by the recording.
type Call struct {
	Op Op

	Program gpucore.ProgramID
	Buffer  gpucore.BufferID
	Texture gpucore.TextureID

	// Label is the debug label of a created resource.
	Label string

	// Unit is the texture unit of a BindTexture call.
	Unit int

	// Offset and Size describe a WriteBuffer range or a buffer size.
	Offset uint64
	Size   uint64

	Uniforms []gpucore.Uniform

	FirstVertex uint32
	VertexCount uint32
}

// Draw is a snapshot of the device state captured by DrawTriangles.
type Draw struct {
	Program  gpucore.ProgramID
	Uniforms []gpucore.Uniform
	Layout   gpucore.VertexLayout
	Buffer   gpucore.BufferID

	FirstVertex uint32
	VertexCount uint32

	// Textures maps texture unit to the texture bound at draw time.
	Textures map[int]gpucore.TextureID

	// Vertices holds the float data of the drawn vertices, Layout.Floats()
	// floats per vertex.
	Vertices []float32
}

// Vertex returns the floats of the i-th drawn vertex.
func (d Draw) Vertex(i int) []float32 {
	n := d.Layout.Floats()
	return d.Vertices[i*n : (i+1)*n]
}

// Attribute returns the named attribute of the i-th drawn vertex, or nil
// if the layout has no such attribute.
func (d Draw) Attribute(i int, name string) []float32 {
	v := d.Vertex(i)
	for _, a := range d.Layout.Attributes {
		if a.Name == name {
			off := int(a.Offset / 4)
			return v[off : off+a.Components]
		}
	}
	return nil
}

// Uniform returns the named uniform that was applied, if any.
func (d Draw) Uniform(name string) (gpucore.Uniform, bool) {
	for _, u := range d.Uniforms {
		if u.Name == name {
			return u, true
		}
	}
	return gpucore.Uniform{}, false
}
