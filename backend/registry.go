package backend

import (
	"slices"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/glstate"
)

// Factory creates a native layer. It returns nil when the layer cannot be
// brought up on this machine.
type Factory func() glstate.Native

// Priority order for backend selection (first available wins).
var backendPriority = []string{BackendWGPU, BackendMemory}

var backends = gpucontext.NewRegistry[glstate.Native](gpucontext.WithPriority(backendPriority...))

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	backends.Register(name, factory)
}

// Unregister removes a backend from the registry.
func Unregister(name string) {
	backends.Unregister(name)
}

// Available returns the registered backend names, sorted.
func Available() []string {
	names := backends.Available()
	slices.Sort(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	return backends.Has(name)
}

// Get returns a backend instance by name, or nil.
func Get(name string) glstate.Native {
	return backends.Get(name)
}

// Default returns an instance of the best available backend based on
// priority, falling back to lower priorities when a factory returns nil.
func Default() glstate.Native {
	if n := backends.Best(); n != nil {
		return n
	}
	for _, name := range Available() {
		if n := backends.Get(name); n != nil {
			return n
		}
	}
	return nil
}

// DefaultName returns the name of the highest-priority registered backend.
func DefaultName() string {
	return backends.BestName()
}
