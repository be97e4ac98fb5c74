// Package glstate keeps a shadow model of the object and binding state of
// an OpenGL-style command-submission interface.
//
// # Overview
//
// A [Context] owns every named resource (buffers, textures, vertex layouts,
// shaders, programs and framebuffers) created through it, the binding
// points those resources occupy and the shader/program dependency graph.
// Each mutating method validates the requested transition against the
// shadow state first, forwards it to the [Native] layer and commits the new
// state only when the native call succeeded. An invalid call is rejected
// in-process and never reaches the driver.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/glstate"
//	    "github.com/gogpu/glstate/backend/memory"
//	)
//
//	ctx, err := glstate.NewContext(memory.New())
//	if err != nil {
//	    return err
//	}
//	b, _ := ctx.GenBuffer()
//	_ = ctx.BindBuffer(glstate.ArrayBuffer, b)
//	_ = ctx.BufferData(glstate.ArrayBuffer, 32, nil, glstate.StaticDraw)
//
// # Errors
//
// Failures fall into three groups, each with its own error type:
//   - [*ObjectError]: the resource is unknown to the context or was deleted.
//   - [*ProtocolError]: the call breaks a lifecycle, binding or dependency
//     rule ([ErrProtocolViolation]).
//   - [*NativeError]: the native layer refused the call ([ErrNativeFailure]).
//
// All three work with [errors.Is] against both the category sentinel and the
// specific reason, for example [ErrPointOccupied] or [ErrCompile].
//
// # Concurrency
//
// A Context is not safe for concurrent use. Callers that share one between
// goroutines must serialize access themselves. [SetLogger] and [Logger] are
// safe for concurrent use.
//
// # Backends
//
// Package backend/memory provides an in-process native layer used by tests
// and trace replay. Package backend/wgpu drives a gogpu/wgpu HAL device and
// compiles WGSL through gogpu/naga.
//
// Package loader decodes image files into cached textures. Package trace
// replays YAML call traces; cmd/glreplay is its command line front end.
package glstate
