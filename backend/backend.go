package backend

import (
	"errors"
	"fmt"
	"io"

	"github.com/gogpu/glstate"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not registered.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Backend name constants.
const (
	// BackendWGPU is the name of the gogpu/wgpu HAL backend.
	BackendWGPU = "wgpu"
	// BackendMemory is the name of the in-process backend.
	BackendMemory = "memory"
)

// Open returns a native layer by name. An empty name selects the default.
func Open(name string) (glstate.Native, error) {
	if name == "" {
		n := Default()
		if n == nil {
			return nil, ErrBackendNotAvailable
		}
		return n, nil
	}
	n := Get(name)
	if n == nil {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrBackendNotAvailable, name, Available())
	}
	glstate.Logger().Info("backend: opened", "name", name)
	return n, nil
}

// Close releases n if it holds native resources.
func Close(n glstate.Native) error {
	if c, ok := n.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
