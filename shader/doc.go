// Package shader holds the program side of the renderers: the vertex
// layout registry, the program wrapper and the WGSL sources.
//
// Vertex attributes are named from a fixed table ([AttributeSize]) and
// packed as interleaved float32s. [ResolveLayout] computes offsets and the
// stride; [Program] compiles a [Source] on a device, fixes the layout and
// re-applies its uniforms on every [Program.Use].
//
// The batch fragment stage picks its texture with an if-chain unrolled to
// the texture-unit count, so that count is fixed when the program is
// generated with [BatchSource].
package shader
