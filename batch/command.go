package batch

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/batch2d"
	"github.com/gogpu/batch2d/shader"
)

// Kind discriminates the draw command variants.
type Kind uint8

const (
	// KindImage is a textured quad.
	KindImage Kind = iota + 1

	// KindRect is a flat-colored rectangle with an optional stroke.
	KindRect

	// KindLine is a flat-colored segment drawn as a quad.
	KindLine

	// KindCircle is a filled circle with an optional stroke.
	KindCircle
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindImage:
		return "Image"
	case KindRect:
		return "Rect"
	case KindLine:
		return "Line"
	case KindCircle:
		return "Circle"
	default:
		return "Unknown"
	}
}

// Vertex is a screen-space quad corner.
type Vertex struct {
	X, Y float32
}

// Quad corner indices into Command.local.
const (
	cornerTL = iota
	cornerBL
	cornerTR
	cornerBR
)

// quadOrder lists the corners of the two triangles {TL, BL, TR} and
// {TR, BL, BR}.
var quadOrder = [6]int{cornerTL, cornerBL, cornerTR, cornerTR, cornerBL, cornerBR}

// Command is one draw command. Commands live in a Pool and are valid only
// until the batch holding them is flushed.
//
// Every Init method overwrites the whole command and returns it so the
// call can be chained with ApplyTransform.
type Command struct {
	Kind Kind

	// Vertices are the transformed quad corners in triangle order
	// TL, BL, TR, TR, BL, BR.
	Vertices [6]Vertex

	Opacity float32
	Fill    batch2d.RGBA
	Stroke  batch2d.RGBA

	// StrokeThickness is in screen pixels for rectangles and a fraction
	// of the radius for circles.
	StrokeThickness float32

	// Image fields. Slot is assigned when the command is admitted.
	Src   batch2d.Rect
	Image *Image
	Slot  int

	// Radius of a circle command, in local units.
	Radius float32

	// local corners before transform: TL, BL, TR, BR
	local [4]Vertex

	// rectangle stroke width in local units
	thickness float32
}

func (c *Command) setQuad(x, y, w, h float32) {
	c.local[cornerTL] = Vertex{x, y}
	c.local[cornerBL] = Vertex{x, y + h}
	c.local[cornerTR] = Vertex{x + w, y}
	c.local[cornerBR] = Vertex{x + w, y + h}
}

// InitImage turns c into an image command drawing the src region of img
// (in source pixels) into dst.
func (c *Command) InitImage(img *Image, src, dst batch2d.Rect) *Command {
	*c = Command{
		Kind:    KindImage,
		Opacity: 1,
		Fill:    batch2d.White,
		Src:     src,
		Image:   img,
	}
	c.setQuad(float32(dst.X), float32(dst.Y), float32(dst.W), float32(dst.H))
	return c
}

// InitRect turns c into a rectangle command. thickness is the stroke
// width in local units; zero disables the stroke.
func (c *Command) InitRect(r batch2d.Rect, fill, stroke batch2d.RGBA, thickness float64) *Command {
	*c = Command{
		Kind:    KindRect,
		Opacity: 1,
		Fill:    fill,
		Stroke:  stroke,
		Slot:    shader.SlotFlatColor,
	}
	c.setQuad(float32(r.X), float32(r.Y), float32(r.W), float32(r.H))
	if thickness > 0 {
		c.thickness = float32(thickness)
		c.StrokeThickness = c.thickness
	}
	return c
}

// InitLine turns c into a line command: a quad of width thickness
// centred on the segment p0-p1.
func (c *Command) InitLine(p0, p1 batch2d.Point, color batch2d.RGBA, thickness float64) *Command {
	*c = Command{
		Kind:    KindLine,
		Opacity: 1,
		Fill:    color,
		Stroke:  color,
		Slot:    shader.SlotFlatColor,
	}

	x0, y0 := float32(p0.X), float32(p0.Y)
	x1, y1 := float32(p1.X), float32(p1.Y)
	dx, dy := x1-x0, y1-y0
	var nx, ny float32
	if length := math32.Hypot(dx, dy); length > 0 {
		half := float32(thickness) / 2
		nx, ny = -dy/length*half, dx/length*half
	}

	c.local[cornerTL] = Vertex{x0 + nx, y0 + ny}
	c.local[cornerBL] = Vertex{x0 - nx, y0 - ny}
	c.local[cornerTR] = Vertex{x1 + nx, y1 + ny}
	c.local[cornerBR] = Vertex{x1 - nx, y1 - ny}
	return c
}

// InitCircle turns c into a circle command. The quad is the bounding
// square of the circle; the stroke thickness is stored as a fraction of
// the radius.
func (c *Command) InitCircle(center batch2d.Point, radius float64, fill, stroke batch2d.RGBA, thickness float64) *Command {
	*c = Command{
		Kind:    KindCircle,
		Opacity: 1,
		Fill:    fill,
		Stroke:  stroke,
		Slot:    shader.SlotCircle,
		Radius:  float32(radius),
	}
	r := float32(radius)
	c.setQuad(float32(center.X)-r, float32(center.Y)-r, 2*r, 2*r)
	if thickness > 0 && r > 0 {
		c.StrokeThickness = float32(thickness) / r
	}
	return c
}

// ApplyTransform maps the local corners through m into Vertices and
// records the opacity. A rectangle's stroke width is scaled to screen
// pixels by the mean scale of m; the fragment stage measures it per axis,
// so all four sides get the same width whatever the aspect ratio.
func (c *Command) ApplyTransform(m batch2d.Matrix, opacity float64) *Command {
	if c.Kind == KindRect {
		c.StrokeThickness = c.thickness * float32(m.MeanScale())
	}
	var screen [4]Vertex
	for i, v := range c.local {
		p := m.TransformPoint(batch2d.Pt(float64(v.X), float64(v.Y)))
		screen[i] = Vertex{float32(p.X), float32(p.Y)}
	}
	for i, corner := range quadOrder {
		c.Vertices[i] = screen[corner]
	}
	c.Opacity = float32(opacity)
	return c
}

// texcoords returns the UVs of the TL and BR corners. Image commands map
// the source rectangle onto the padded texture; every other kind uses the
// unit square.
func (c *Command) texcoords() (u0, v0, u1, v1 float32) {
	if c.Kind != KindImage {
		return 0, 0, 1, 1
	}
	pw, ph := float32(1), float32(1)
	if c.Image != nil {
		pw, ph = float32(c.Image.padW), float32(c.Image.padH)
	}
	u0 = float32(c.Src.X) / pw
	v0 = float32(c.Src.Y) / ph
	u1 = float32(c.Src.X+c.Src.W) / pw
	v1 = float32(c.Src.Y+c.Src.H) / ph
	return u0, v0, u1, v1
}

// appendVertices appends the six interleaved vertices of c in the batch
// layout (position, texcoord, textureIndex, opacity, color, strokeColor,
// strokeThickness).
func (c *Command) appendVertices(dst []float32) []float32 {
	u0, v0, u1, v1 := c.texcoords()
	uv := [4][2]float32{
		cornerTL: {u0, v0},
		cornerBL: {u0, v1},
		cornerTR: {u1, v0},
		cornerBR: {u1, v1},
	}
	fill, stroke := c.Fill.Vec4(), c.Stroke.Vec4()
	slot := float32(c.Slot)

	for i, corner := range quadOrder {
		p := c.Vertices[i]
		dst = append(dst,
			p.X, p.Y, 0,
			uv[corner][0], uv[corner][1],
			slot,
			c.Opacity,
			fill[0], fill[1], fill[2], fill[3],
			stroke[0], stroke[1], stroke[2], stroke[3],
			c.StrokeThickness,
		)
	}
	return dst
}
