// Package memory implements glstate.Native entirely in process memory.
//
// The driver keeps buffer contents, texture levels, shader sources and
// link results so tests and trace replay can inspect what a context sent
// it. Shader compilation is a textual check: a source compiles unless it is
// empty or contains an #error directive. Linking collects the vertex inputs
// of attached vertex shaders, honoring layout(location = N) qualifiers.
//
// Failures can be injected per call with FailNext.
package memory
