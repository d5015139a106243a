// Package batch accumulates 2D draw commands and flushes them to a
// gpucore.Device in as few draw calls as possible.
//
// # Renderers
//
// Renderer handles images, rectangles, lines and circles with a single
// vertex layout. The fragment stage picks its path from the per-vertex
// texture index: a value >= 0 samples that texture slot,
// shader.SlotFlatColor (-1) shades a flat rectangle or line and
// shader.SlotCircle (-2) shades a circle.
//
// CircleRenderer handles circles only, with a smaller vertex layout and no
// command pool.
//
// # Batching
//
// Commands are taken from a fixed Pool, transformed immediately and added
// to the current Batch. A batch is drawn when it reaches its capacity,
// when an image needs a texture slot beyond the unit limit, or on Render.
// Admission never fails: a full batch is flushed and the command is
// admitted into the fresh one. Errors from such implicit flushes are
// returned by the next Render.
//
// Within a batch commands keep their admission order. There is no depth
// sorting, so z-order between separate batches is the caller's
// responsibility.
//
// # Images
//
// NewImage pads a decoded image to power-of-two dimensions before upload.
// Source rectangles stay in source pixels; texture coordinates are
// normalised against the padded size.
package batch
