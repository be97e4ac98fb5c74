package trace_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/glstate"
	"github.com/gogpu/glstate/backend/memory"
	"github.com/gogpu/glstate/trace"
)

const triangle = `
name: triangle
steps:
  - {op: gen-buffer, name: vbo}
  - {op: bind-buffer, name: vbo, target: array}
  - {op: buffer-data, target: array, data: [1, 2, 3, 4], usage: static-draw}
  - {op: buffer-data, target: array, size: 4, usage: static-draw, expect: data-already-assigned}
  - {op: create-shader, name: vs, kind: vertex}
  - {op: shader-source, name: vs, source: "layout(location = 0) in vec3 position;"}
  - {op: compile-shader, name: vs}
  - {op: create-shader, name: fs, kind: fragment}
  - {op: shader-source, name: fs, source: "void main() {}"}
  - {op: compile-shader, name: fs}
  - {op: create-program, name: prog}
  - {op: attach-shader, name: prog, shader: vs}
  - {op: attach-shader, name: prog, shader: fs}
  - {op: attach-shader, name: prog, shader: vs, expect: already-attached}
  - {op: link-program, name: prog}
  - {op: attrib-location, name: prog, attribute: position, location: 0}
  - {op: use-program, name: prog}
  - {op: gen-vertex-layout, name: vao}
  - {op: bind-vertex-layout, name: vao}
  - {op: vertex-attrib-pointer, index: 0, size: 3, type: float}
  - {op: enable-vertex-attrib, index: 0}
  - {op: draw, mode: triangles, count: 3}
  - {op: delete-buffer, name: vbo, expect: still-bound}
  - {op: unbind-buffer, target: array}
  - {op: delete-buffer, name: vbo}
  - {op: delete-buffer, name: vbo, expect: already-deleted}
`

func parse(t *testing.T, doc string) *trace.Trace {
	t.Helper()
	tr, err := trace.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	return tr
}

func replay(t *testing.T, doc string, opts ...glstate.ContextOption) (*trace.Report, *memory.Driver) {
	t.Helper()
	d := memory.New()
	rep, err := trace.Replay(context.Background(), d, parse(t, doc), opts...)
	require.NoError(t, err)
	return rep, d
}

func TestReplayTriangle(t *testing.T) {
	rep, d := replay(t, triangle)

	require.True(t, rep.OK(), "unexpected failure: %v", rep.Failure)
	assert.Equal(t, 26, rep.Steps)
	require.Len(t, rep.Expected, 4)
	assert.Equal(t, 3, rep.Expected[0].Step)
	assert.ErrorIs(t, rep.Expected[0].Err, glstate.ErrDataAlreadyAssigned)
	assert.ErrorIs(t, rep.Expected[1].Err, glstate.ErrAlreadyAttached)
	assert.ErrorIs(t, rep.Expected[2].Err, glstate.ErrStillBound)
	assert.ErrorIs(t, rep.Expected[3].Err, glstate.ErrAlreadyDeleted)

	assert.Equal(t, 1, d.Draws())
	assert.Equal(t, 1, rep.Stats.Draws)
	assert.Equal(t, 0, d.Live(glstate.KindBuffer))
	assert.Contains(t, rep.String(), "expected failures: 4")
}

func TestReplayStopsAtUnexpectedFailure(t *testing.T) {
	rep, _ := replay(t, `
steps:
  - {op: gen-buffer, name: a}
  - {op: gen-buffer, name: b}
  - {op: bind-buffer, name: a, target: array}
  - {op: bind-buffer, name: b, target: array}
  - {op: delete-buffer, name: b}
`)
	require.False(t, rep.OK())
	assert.Equal(t, 4, rep.Steps)
	assert.Equal(t, 3, rep.Failure.Step)
	assert.Equal(t, "bind-buffer", rep.Failure.Op)
	assert.ErrorIs(t, rep.Failure, glstate.ErrPointOccupied)
	assert.ErrorIs(t, rep.Failure, glstate.ErrProtocolViolation)
	assert.Contains(t, rep.String(), "FAILED")
}

func TestReplayExpectMismatch(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "unexpected success",
			doc: `
steps:
  - {op: gen-texture, name: tex, expect: invalid-argument}
`,
			want: trace.ErrUnexpectedSuccess,
		},
		{
			name: "wrong error",
			doc: `
steps:
  - {op: generate-mipmap, target: 2d, expect: no-image}
`,
			want: trace.ErrWrongError,
		},
		{
			name: "location mismatch",
			doc: `
steps:
  - {op: create-shader, name: vs, kind: vertex}
  - {op: shader-source, name: vs, source: "in vec2 uv;"}
  - {op: compile-shader, name: vs}
  - {op: create-program, name: p}
  - {op: attach-shader, name: p, shader: vs}
  - {op: link-program, name: p}
  - {op: attrib-location, name: p, attribute: uv, location: 3}
`,
			want: trace.ErrLocationMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, _ := replay(t, tt.doc)
			require.NotNil(t, rep.Failure)
			assert.ErrorIs(t, rep.Failure, tt.want)
		})
	}
}

func TestReplayCompileFailureLog(t *testing.T) {
	rep, _ := replay(t, `
steps:
  - {op: create-shader, name: vs, kind: vertex}
  - {op: shader-source, name: vs, source: "#error broken"}
  - {op: compile-shader, name: vs, expect: compile}
  - {op: create-program, name: p}
  - {op: attach-shader, name: p, shader: vs, expect: shader-not-compiled}
`)
	require.True(t, rep.OK(), "unexpected failure: %v", rep.Failure)
	require.Len(t, rep.Expected, 2)
	assert.ErrorIs(t, rep.Expected[0].Err, glstate.ErrNativeFailure)
	assert.Contains(t, rep.Expected[0].Err.Error(), "broken")
}

func TestReplayHeaderOptions(t *testing.T) {
	doc := `
link_policy: strict
stereo: true
steps:
  - {op: draw-plane, plane: back-right}
  - {op: create-shader, name: vs, kind: vertex}
  - {op: shader-source, name: vs, source: "in vec3 position;"}
  - {op: compile-shader, name: vs}
  - {op: create-program, name: p}
  - {op: attach-shader, name: p, shader: vs}
  - {op: link-program, name: p, expect: link-policy}
`
	rep, _ := replay(t, doc)
	assert.True(t, rep.OK(), "unexpected failure: %v", rep.Failure)

	tr := parse(t, doc)
	tr.LinkPolicy, tr.Stereo = "", nil
	rep, err := trace.Replay(context.Background(), memory.New(), tr)
	require.NoError(t, err)
	require.NotNil(t, rep.Failure)
	assert.Equal(t, 0, rep.Failure.Step)
	assert.ErrorIs(t, rep.Failure, glstate.ErrUnavailablePlane)
}

func TestReplayTextures(t *testing.T) {
	rep, d := replay(t, `
steps:
  - {op: gen-texture, name: tex}
  - {op: bind-texture, name: tex, target: 2d}
  - {op: bind-texture, name: tex, target: 3d, expect: target-mismatch}
  - {op: generate-mipmap, target: 2d, expect: no-image}
  - {op: tex-image, target: 2d, width: 2, height: 2, format: r8, data: [0, 64, 128, 255]}
  - {op: generate-mipmap, target: 2d}
  - {op: unbind-texture, target: 2d}
  - {op: delete-texture, name: tex}
`)
	require.True(t, rep.OK(), "unexpected failure: %v", rep.Failure)
	assert.Len(t, rep.Expected, 2)
	assert.Equal(t, 0, d.Live(glstate.KindTexture))
}

func TestRunInvalidSteps(t *testing.T) {
	tests := []struct {
		name  string
		steps []trace.Step
	}{
		{"undefined handle", []trace.Step{{Op: "bind-buffer", Name: "nope", Target: "array"}}},
		{"wrong handle kind", []trace.Step{
			{Op: "gen-texture", Name: "t"},
			{Op: "bind-buffer", Name: "t", Target: "array"},
		}},
		{"duplicate handle", []trace.Step{
			{Op: "gen-buffer", Name: "b"},
			{Op: "gen-buffer", Name: "b"},
		}},
		{"missing name", []trace.Step{{Op: "create-program"}}},
		{"bad target", []trace.Step{{Op: "unbind-buffer", Target: "sideways"}}},
		{"unknown op", []trace.Step{{Op: "swap-buffers"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gl, err := glstate.NewContext(memory.New())
			require.NoError(t, err)
			_, err = trace.Run(context.Background(), gl, tt.steps)
			assert.ErrorIs(t, err, trace.ErrInvalidTrace)
		})
	}
}

func TestRunCanceled(t *testing.T) {
	gl, err := glstate.NewContext(memory.New())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := trace.Run(ctx, gl, []trace.Step{{Op: "gen-buffer", Name: "b"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, rep.Steps)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"unknown field", "steps:\n  - {op: gen-buffer, colour: red}\n"},
		{"unknown op", "steps:\n  - {op: flush}\n"},
		{"unknown expect", "steps:\n  - {op: gen-buffer, name: b, expect: oops}\n"},
		{"bad policy", "link_policy: lax\nsteps: []\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := trace.Parse(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, trace.ErrInvalidTrace)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triangle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(triangle), 0o644))

	tr, err := trace.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "triangle", tr.Name)
	assert.Len(t, tr.Steps, 26)
	assert.Equal(t, []byte{1, 2, 3, 4}, tr.Steps[2].Data)

	_, err = trace.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNames(t *testing.T) {
	assert.Contains(t, trace.Ops(), "copy-buffer-sub-data")
	assert.Contains(t, trace.ErrorNames(), "point-occupied")
	assert.IsIncreasing(t, trace.Ops())
}
