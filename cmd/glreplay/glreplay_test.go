package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/glstate/backend"
	"github.com/gogpu/glstate/trace"
)

const okTrace = `
steps:
  - {op: gen-buffer, name: vbo}
  - {op: bind-buffer, name: vbo, target: array}
  - {op: buffer-data, target: array, size: 8, usage: static-draw}
  - {op: delete-buffer, name: vbo, expect: still-bound}
`

const strictTrace = `
steps:
  - {op: create-shader, name: vs, kind: vertex}
  - {op: shader-source, name: vs, source: "in vec3 position;"}
  - {op: compile-shader, name: vs}
  - {op: create-program, name: p}
  - {op: attach-shader, name: p, shader: vs}
  - {op: link-program, name: p}
`

// execute runs glreplay with args from a fresh working directory.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunOK(t *testing.T) {
	out, err := execute(t, "run", writeFile(t, "ok.yaml", okTrace))
	require.NoError(t, err)
	assert.Contains(t, out, "steps: 4, expected failures: 1")
	assert.Contains(t, out, "ok")
	assert.Equal(t, exitSuccess, exitCode(err))
}

func TestRunFailure(t *testing.T) {
	doc := okTrace + "  - {op: delete-buffer, name: vbo}\n"
	out, err := execute(t, "run", writeFile(t, "fail.yaml", doc))
	require.ErrorIs(t, err, errReplayFailed)
	assert.Contains(t, out, "FAILED")
	assert.Equal(t, exitFailed, exitCode(err))
}

func TestLinkPolicySources(t *testing.T) {
	path := writeFile(t, "strict.yaml", strictTrace)

	_, err := execute(t, "run", path)
	require.NoError(t, err)

	_, err = execute(t, "run", "--link-policy", "strict", path)
	assert.ErrorIs(t, err, errReplayFailed)

	t.Setenv("GLREPLAY_LINK_POLICY", "strict")
	_, err = execute(t, "run", path)
	assert.ErrorIs(t, err, errReplayFailed)

	// Flags win over the environment.
	_, err = execute(t, "run", "--link-policy", "default", path)
	assert.NoError(t, err)
}

func TestConfigFile(t *testing.T) {
	path := writeFile(t, "strict.yaml", strictTrace)
	cfg := writeFile(t, "glreplay.yaml", "link_policy: strict\nlog_level: error\n")

	_, err := execute(t, "--config", cfg, "run", path)
	assert.ErrorIs(t, err, errReplayFailed)

	_, err = execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "run", path)
	require.Error(t, err)
	assert.Equal(t, exitSysError, exitCode(err))

	bad := writeFile(t, "bad.yaml", "log_level: loud\n")
	_, err = execute(t, "--config", bad, "run", path)
	assert.ErrorContains(t, err, "log_level")
}

func TestRunErrors(t *testing.T) {
	_, err := execute(t, "run", writeFile(t, "bad.yaml", "steps:\n  - {op: flush}\n"))
	assert.ErrorIs(t, err, trace.ErrInvalidTrace)

	_, err = execute(t, "run", "--backend", "vulkan-ish", writeFile(t, "ok.yaml", okTrace))
	assert.ErrorIs(t, err, backend.ErrBackendNotAvailable)

	_, err = execute(t, "run")
	assert.Error(t, err)
}

func TestBackends(t *testing.T) {
	out, err := execute(t, "backends")
	require.NoError(t, err)
	assert.Contains(t, out, backend.BackendMemory)
	assert.Contains(t, out, backend.BackendWGPU)
	assert.Contains(t, out, "* "+backend.DefaultName())
}

func TestOps(t *testing.T) {
	out, err := execute(t, "ops")
	require.NoError(t, err)
	assert.Contains(t, out, "copy-buffer-sub-data")
	assert.Contains(t, out, "still-bound")
}
