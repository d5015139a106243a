package shader

import (
	"fmt"
	"strings"

	"github.com/gogpu/batch2d"
)

// MaxTextureUnits is the largest texture picker BatchSource generates.
const MaxTextureUnits = 16

// Texture slot sentinels written into the textureIndex attribute.
// A slot >= 0 samples texture unit N.
const (
	// SlotFlatColor selects the flat-color path (rectangles, lines).
	SlotFlatColor = -1

	// SlotCircle selects the flat-color circle path with a distance-based
	// stroke test. Stroke thickness is normalised by the radius.
	SlotCircle = -2
)

// Uniform names bound by the renderers.
const (
	UniformProjection   = "projection"
	UniformTextureUnits = "textureUnits"
)

// Source is a vertex/fragment source pair in WGSL.
type Source struct {
	Label    string
	Vertex   string
	Fragment string

	// TextureUnits is the number of textures the fragment stage samples.
	TextureUnits int
}

// uniformVec4s returns the number of vec4<i32> needed to hold n ints.
func uniformVec4s(n int) int {
	return (n + 3) / 4
}

var lanes = [4]string{"x", "y", "z", "w"}

// BatchSource generates the program of the batch renderer. The fragment
// stage selects a texture with an if-chain unrolled to exactly
// textureUnits branches, so the count is fixed when the program is built.
func BatchSource(textureUnits int) (Source, error) {
	if textureUnits < 1 || textureUnits > MaxTextureUnits {
		return Source{}, batch2d.NewConfigurationError("batch shader",
			fmt.Sprintf("texture units %d outside [1, %d]", textureUnits, MaxTextureUnits))
	}

	uniforms := fmt.Sprintf(`struct Uniforms {
    projection: mat4x4<f32>,
    units: array<vec4<i32>, %d>,
}

@group(0) @binding(0) var<uniform> u: Uniforms;
`, uniformVec4s(textureUnits))

	var vs strings.Builder
	vs.WriteString(uniforms)
	vs.WriteString(`
struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) texcoord: vec2<f32>,
    @location(2) texture_index: f32,
    @location(3) opacity: f32,
    @location(4) color: vec4<f32>,
    @location(5) stroke_color: vec4<f32>,
    @location(6) stroke_thickness: f32,
}

struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) texcoord: vec2<f32>,
    @location(1) texture_index: f32,
    @location(2) opacity: f32,
    @location(3) color: vec4<f32>,
    @location(4) stroke_color: vec4<f32>,
    @location(5) stroke_thickness: f32,
}

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip = u.projection * vec4<f32>(in.position, 1.0);
    out.texcoord = in.texcoord;
    out.texture_index = in.texture_index;
    out.opacity = in.opacity;
    out.color = in.color;
    out.stroke_color = in.stroke_color;
    out.stroke_thickness = in.stroke_thickness;
    return out;
}
`)

	var fs strings.Builder
	fs.WriteString(uniforms)
	fs.WriteString("\n@group(0) @binding(1) var samp: sampler;\n")
	for i := 0; i < textureUnits; i++ {
		fmt.Fprintf(&fs, "@group(0) @binding(%d) var tex%d: texture_2d<f32>;\n", i+2, i)
	}
	fs.WriteString(`
struct FragmentInput {
    @builtin(position) clip: vec4<f32>,
    @location(0) texcoord: vec2<f32>,
    @location(1) texture_index: f32,
    @location(2) opacity: f32,
    @location(3) color: vec4<f32>,
    @location(4) stroke_color: vec4<f32>,
    @location(5) stroke_thickness: f32,
}

fn sample_slot(slot: i32, uv: vec2<f32>) -> vec4<f32> {
`)
	for i := 0; i < textureUnits; i++ {
		fmt.Fprintf(&fs, "    if (slot == u.units[%d].%s) {\n        return textureSampleLevel(tex%d, samp, uv, 0.0);\n    }\n",
			i/4, lanes[i%4], i)
	}
	fs.WriteString(`    return vec4<f32>(0.0, 0.0, 0.0, 0.0);
}
`)
	fs.WriteString(premultiply)
	fs.WriteString(circleFragment)
	fs.WriteString(edgeFragment)
	fmt.Fprintf(&fs, `
@fragment
fn fs_main(in: FragmentInput) -> @location(0) vec4<f32> {
    // texcoord units per screen pixel along each quad axis
    let per_px = vec2<f32>(
        length(vec2<f32>(dpdx(in.texcoord.x), dpdy(in.texcoord.x))),
        length(vec2<f32>(dpdx(in.texcoord.y), dpdy(in.texcoord.y))));
    let slot = i32(round(in.texture_index));
    if (slot == %d) {
        return circle(in.texcoord, in.color, in.stroke_color, in.stroke_thickness, in.opacity);
    }
    if (slot == %d) {
        if (in.stroke_thickness > 0.0 && edge_pixels(in.texcoord, per_px) < in.stroke_thickness) {
            return premultiply(in.stroke_color, in.opacity);
        }
        return premultiply(in.color, in.opacity);
    }
    return sample_slot(slot, in.texcoord) * in.opacity;
}
`, SlotCircle, SlotFlatColor)

	return Source{
		Label:        "batch",
		Vertex:       vs.String(),
		Fragment:     fs.String(),
		TextureUnits: textureUnits,
	}, nil
}

// premultiply converts a straight-alpha color and an opacity into the
// premultiplied output the blend state expects.
const premultiply = `
fn premultiply(c: vec4<f32>, opacity: f32) -> vec4<f32> {
    let a = c.a * opacity;
    return vec4<f32>(c.rgb * a, a);
}
`

// edgeFragment returns the distance in screen pixels from uv to the
// nearest edge of the unit quad. Each axis is scaled separately so the
// distance does not depend on the quad's aspect ratio.
const edgeFragment = `
fn edge_pixels(uv: vec2<f32>, per_px: vec2<f32>) -> f32 {
    let d = min(uv, vec2<f32>(1.0, 1.0) - uv) / max(per_px, vec2<f32>(1e-6, 1e-6));
    return min(d.x, d.y);
}
`

// circleFragment shades a circle inscribed in the unit quad. Thickness is
// a fraction of the radius.
const circleFragment = `
fn circle(uv: vec2<f32>, fill: vec4<f32>, stroke: vec4<f32>, thickness: f32, opacity: f32) -> vec4<f32> {
    let d = length(uv - vec2<f32>(0.5, 0.5)) * 2.0;
    if (d > 1.0) {
        discard;
    }
    if (thickness > 0.0 && d > 1.0 - thickness) {
        return premultiply(stroke, opacity);
    }
    return premultiply(fill, opacity);
}
`

// CircleSource generates the program of the circle renderer.
func CircleSource() Source {
	const uniforms = `struct Uniforms {
    projection: mat4x4<f32>,
}

@group(0) @binding(0) var<uniform> u: Uniforms;
`
	vs := uniforms + `
struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) texcoord: vec2<f32>,
    @location(2) opacity: f32,
    @location(3) color: vec4<f32>,
    @location(4) stroke_color: vec4<f32>,
    @location(5) stroke_thickness: f32,
}

struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) texcoord: vec2<f32>,
    @location(1) opacity: f32,
    @location(2) color: vec4<f32>,
    @location(3) stroke_color: vec4<f32>,
    @location(4) stroke_thickness: f32,
}

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip = u.projection * vec4<f32>(in.position, 1.0);
    out.texcoord = in.texcoord;
    out.opacity = in.opacity;
    out.color = in.color;
    out.stroke_color = in.stroke_color;
    out.stroke_thickness = in.stroke_thickness;
    return out;
}
`
	fs := `struct FragmentInput {
    @builtin(position) clip: vec4<f32>,
    @location(0) texcoord: vec2<f32>,
    @location(1) opacity: f32,
    @location(2) color: vec4<f32>,
    @location(3) stroke_color: vec4<f32>,
    @location(4) stroke_thickness: f32,
}
` + premultiply + circleFragment + `
@fragment
fn fs_main(in: FragmentInput) -> @location(0) vec4<f32> {
    return circle(in.texcoord, in.color, in.stroke_color, in.stroke_thickness, in.opacity);
}
`
	return Source{Label: "circle", Vertex: vs, Fragment: fs}
}
