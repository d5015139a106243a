package native

// Register the platform HAL backends (Vulkan, Metal, DX12, GLES) and the
// software rasterizer used by New.
import _ "github.com/gogpu/wgpu/hal/allbackends"
