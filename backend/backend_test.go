package backend

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/glstate"
)

// stubNative is a do-nothing native layer for registry tests.
type stubNative struct {
	closed bool
}

func (s *stubNative) Create(glstate.Kind) (glstate.ID, error) { return 1, nil }
func (s *stubNative) Bind(glstate.Point, glstate.ID) error   { return nil }
func (s *stubNative) Compile(glstate.ID, glstate.ShaderKind, string) (glstate.CompileResult, error) {
	return glstate.CompileResult{OK: true}, nil
}
func (s *stubNative) Link(glstate.ID, []glstate.ID) (glstate.LinkResult, error) {
	return glstate.LinkResult{OK: true}, nil
}
func (s *stubNative) Submit(glstate.Command) error          { return nil }
func (s *stubNative) Delete(glstate.Kind, glstate.ID) error { return nil }

// closingNative adds io.Closer to stubNative.
type closingNative struct{ stubNative }

func (c *closingNative) Close() error {
	c.closed = true
	return nil
}

// register registers factory under name for the duration of the test.
func register(t *testing.T, name string, factory Factory) {
	t.Helper()
	Register(name, factory)
	t.Cleanup(func() { Unregister(name) })
}

func TestRegistryRegisterAndGet(t *testing.T) {
	want := &stubNative{}
	register(t, "test-stub", func() glstate.Native { return want })

	if !IsRegistered("test-stub") {
		t.Fatal("test-stub should be registered")
	}
	if got := Get("test-stub"); got != want {
		t.Errorf("Get(test-stub) = %v, want %v", got, want)
	}
	if !slices.Contains(Available(), "test-stub") {
		t.Errorf("Available() = %v, want it to include test-stub", Available())
	}
}

func TestRegistryGetUnregistered(t *testing.T) {
	if n := Get("nonexistent"); n != nil {
		t.Errorf("Get(nonexistent) = %v, want nil", n)
	}
	if IsRegistered("nonexistent") {
		t.Error("nonexistent should not be registered")
	}
}

func TestRegistryUnregister(t *testing.T) {
	Register("test-backend", func() glstate.Native { return &stubNative{} })
	Unregister("test-backend")
	if IsRegistered("test-backend") {
		t.Error("test-backend should be unregistered")
	}
}

func TestRegistryAvailableSorted(t *testing.T) {
	register(t, "test-b", func() glstate.Native { return &stubNative{} })
	register(t, "test-a", func() glstate.Native { return &stubNative{} })
	if names := Available(); !slices.IsSorted(names) {
		t.Errorf("Available() = %v, want sorted", names)
	}
}

func TestDefaultPrefersPriority(t *testing.T) {
	memory := &stubNative{}
	register(t, BackendMemory, func() glstate.Native { return memory })
	if IsRegistered(BackendWGPU) {
		t.Skip("wgpu backend linked into this test binary")
	}
	if DefaultName() != BackendMemory {
		t.Errorf("DefaultName() = %q, want %q", DefaultName(), BackendMemory)
	}
	if got := Default(); got != memory {
		t.Errorf("Default() = %v, want the memory stub", got)
	}

	gpu := &stubNative{}
	register(t, BackendWGPU, func() glstate.Native { return gpu })
	if got := Default(); got != gpu {
		t.Errorf("Default() = %v, want the wgpu stub", got)
	}
}

func TestOpen(t *testing.T) {
	want := &stubNative{}
	register(t, "test-open", func() glstate.Native { return want })

	n, err := Open("test-open")
	if err != nil || n != want {
		t.Errorf("Open(test-open) = %v, %v", n, err)
	}
	if _, err := Open("missing"); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Open(missing) error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestOpenFactoryReturnsNil(t *testing.T) {
	register(t, "test-nil", func() glstate.Native { return nil })
	if _, err := Open("test-nil"); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Open(test-nil) error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestClose(t *testing.T) {
	if err := Close(&stubNative{}); err != nil {
		t.Errorf("Close(non-closer) error = %v", err)
	}
	c := &closingNative{}
	if err := Close(c); err != nil || !c.closed {
		t.Errorf("Close(closer) = %v, closed = %v", err, c.closed)
	}
}

func BenchmarkGet(b *testing.B) {
	Register("bench", func() glstate.Native { return &stubNative{} })
	defer Unregister("bench")
	for b.Loop() {
		_ = Get("bench")
	}
}
