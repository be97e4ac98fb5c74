// Package trace replays recorded call sequences against a glstate context.
//
// A trace is a YAML document with an optional header and a list of steps.
// Every step names one context operation; resources are referred to by
// symbolic handles that the creating step introduces with name:
//
//	link_policy: strict
//	steps:
//	  - {op: gen-buffer, name: vbo}
//	  - {op: bind-buffer, name: vbo, target: array}
//	  - {op: buffer-data, target: array, size: 16, usage: static-draw}
//	  - {op: delete-buffer, name: vbo, expect: still-bound}
//
// A step with expect must fail with the named error. Replay continues past
// expected failures and stops at the first unexpected outcome, which the
// [Report] records with its step index.
package trace
