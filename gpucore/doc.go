// Package gpucore defines the graphics device contract the batch renderers
// draw through.
//
// The [Device] interface abstracts over device implementations so the same
// batching code runs against:
//   - backend/native: gogpu/wgpu HAL (Vulkan, Metal, DX12, GLES, noop)
//   - recording: an in-memory device that captures every call
//
// # Architecture
//
//	          +-----------------------------+
//	          |  batch.Renderer / Circle    |
//	          |  shader.Program             |
//	          +--------------+--------------+
//	                         |
//	                  gpucore.Device
//	                         |
//	         +---------------+---------------+
//	         |                               |
//	+--------v--------+             +--------v--------+
//	| backend/native  |             |   recording     |
//	|  (hal.Device)   |             | (call capture)  |
//	+-----------------+             +-----------------+
//
// # Resource Management
//
// Device resources are referenced by opaque IDs ([ProgramID], [BufferID],
// [TextureID]). Each implementation maps IDs to its own handles and
// releases them in the matching Destroy method.
//
// # Binding Model
//
// The device keeps a small amount of bound state, in the style of a
// classic immediate-mode graphics API: the active program, the bound
// vertex buffer and one texture per texture unit. [Device.DrawTriangles]
// draws with whatever is bound at the time of the call.
package gpucore
