package shader

import (
	"fmt"

	"github.com/gogpu/batch2d"
	"github.com/gogpu/batch2d/gpucore"
)

// Attribute names known to the layout registry.
const (
	AttrPosition        = "position"
	AttrTexcoord        = "texcoord"
	AttrTextureIndex    = "textureIndex"
	AttrOpacity         = "opacity"
	AttrColor           = "color"
	AttrStrokeColor     = "strokeColor"
	AttrStrokeThickness = "strokeThickness"
)

// attributeSizes is the fixed name to float component count table.
var attributeSizes = map[string]int{
	AttrPosition:        3,
	AttrTexcoord:        2,
	AttrTextureIndex:    1,
	AttrOpacity:         1,
	AttrColor:           4,
	AttrStrokeColor:     4,
	AttrStrokeThickness: 1,
}

// BatchAttributes is the vertex layout of the batch renderer.
var BatchAttributes = []string{
	AttrPosition, AttrTexcoord, AttrTextureIndex, AttrOpacity,
	AttrColor, AttrStrokeColor, AttrStrokeThickness,
}

// CircleAttributes is the vertex layout of the circle renderer. It has no
// texture slot.
var CircleAttributes = []string{
	AttrPosition, AttrTexcoord, AttrOpacity,
	AttrColor, AttrStrokeColor, AttrStrokeThickness,
}

// AttributeSize returns the float component count of a known attribute.
func AttributeSize(name string) (int, bool) {
	n, ok := attributeSizes[name]
	return n, ok
}

// Layout is a resolved vertex attribute layout.
type Layout struct {
	// Names are the attribute names in vertex order.
	Names []string

	// Sizes are the component counts, parallel to Names.
	Sizes []int

	// FloatOffsets are the cumulative float offsets, parallel to Names.
	FloatOffsets []int

	// VertexSize is the total number of floats per vertex.
	VertexSize int
}

// ResolveLayout resolves an ordered list of attribute names against the
// fixed attribute table. Unknown or repeated names are a
// *batch2d.ConfigurationError.
func ResolveLayout(names []string) (Layout, error) {
	if len(names) == 0 {
		return Layout{}, batch2d.NewConfigurationError("vertex layout", "no attributes")
	}

	l := Layout{
		Names:        make([]string, 0, len(names)),
		Sizes:        make([]int, 0, len(names)),
		FloatOffsets: make([]int, 0, len(names)),
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		size, ok := attributeSizes[name]
		if !ok {
			return Layout{}, batch2d.NewConfigurationError("vertex layout", fmt.Sprintf("unknown attribute %q", name))
		}
		if seen[name] {
			return Layout{}, batch2d.NewConfigurationError("vertex layout", fmt.Sprintf("duplicate attribute %q", name))
		}
		seen[name] = true

		l.Names = append(l.Names, name)
		l.Sizes = append(l.Sizes, size)
		l.FloatOffsets = append(l.FloatOffsets, l.VertexSize)
		l.VertexSize += size
	}
	return l, nil
}

// Stride returns the vertex size in bytes.
func (l Layout) Stride() uint64 {
	return uint64(l.VertexSize) * 4
}

// Offset returns the float offset of the named attribute, or -1.
func (l Layout) Offset(name string) int {
	for i, n := range l.Names {
		if n == name {
			return l.FloatOffsets[i]
		}
	}
	return -1
}

// Device converts the layout into the device description. Shader locations
// follow attribute order.
func (l Layout) Device() gpucore.VertexLayout {
	attrs := make([]gpucore.VertexAttribute, len(l.Names))
	for i, name := range l.Names {
		attrs[i] = gpucore.VertexAttribute{
			Name:       name,
			Components: l.Sizes[i],
			Offset:     uint64(l.FloatOffsets[i]) * 4,
			Location:   uint32(i),
		}
	}
	return gpucore.VertexLayout{Attributes: attrs, Stride: l.Stride()}
}
