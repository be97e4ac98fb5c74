// Package wgpu implements glstate.Native on a gogpu/wgpu HAL device.
//
// Object names are handed out by the driver; GPU resources are created
// lazily when a name first needs storage:
//
//   - buffers get a hal.Buffer when their data store is allocated
//     (glstate.BufferDataCommand), with usage derived from the target
//   - textures get a hal.Texture when level 0 is specified and level data
//     is uploaded with Queue.WriteTexture
//   - shaders are WGSL, compiled by gogpu/naga and turned into a
//     hal.ShaderModule
//
// The driver keeps a CPU copy of every buffer so that sub-data writes can
// be widened to the 4-byte granularity WebGPU requires.
//
// # Registration
//
// Importing the package registers the "wgpu" backend:
//
//	import _ "github.com/gogpu/glstate/backend/wgpu"
//
// The registered factory opens a headless device (see [Open]). Hosts that
// already own a device hand it over with [NewFromProvider] or [New].
//
// # Shaders
//
// A vertex shader must declare a @vertex entry point and a fragment shader
// a @fragment entry point. Geometry shaders have no WebGPU equivalent and
// always fail to compile. The @location inputs of the vertex entry point
// become the program's attribute locations at link time.
//
// # Thread Safety
//
// Driver is safe for concurrent use.
package wgpu
