// Package backend selects the native layer a glstate.Context drives.
//
// Native layers register themselves from init functions, so importing a
// backend package is enough to make it available:
//
//	import (
//	    _ "github.com/gogpu/glstate/backend/wgpu"
//	    _ "github.com/gogpu/glstate/backend/memory"
//	)
//
// # Selection
//
// Open("") returns the highest-priority registered backend; Open(name)
// requests one by name:
//
//	n, err := backend.Open("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ctx, err := glstate.NewContext(n)
//
// # Available Backends
//
//   - "wgpu": gogpu/wgpu HAL device with WGSL compiled by gogpu/naga
//   - "memory": in-process shadow driver, always available
package backend
