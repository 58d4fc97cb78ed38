// Package gpu registers the wgpu compute accelerator for channel combines.
//
// Import it for its side effect:
//
//	import _ "github.com/gogpu/combine/gpu" // enable GPU acceleration
//
// If no Vulkan device is available the accelerator stays registered but
// declines every job, and combines run on the CPU. Building with the nogpu
// tag compiles this package to nothing.
package gpu
