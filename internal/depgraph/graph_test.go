package depgraph

import (
	"errors"
	"slices"
	"testing"
)

func TestAttachDetach(t *testing.T) {
	g := New[uint32, uint32]()
	if err := g.Attach(1, 10); err != nil {
		t.Fatalf("Attach() = %v", err)
	}
	if err := g.Attach(1, 11); err != nil {
		t.Fatalf("Attach() = %v", err)
	}
	if err := g.Attach(1, 10); !errors.Is(err, ErrAlreadyAttached) {
		t.Errorf("Attach() twice = %v, want ErrAlreadyAttached", err)
	}
	if got := g.Attached(1); !slices.Equal(got, []uint32{10, 11}) {
		t.Errorf("Attached() = %v, want [10 11]", got)
	}
	if err := g.Detach(1, 10); err != nil {
		t.Fatalf("Detach() = %v", err)
	}
	if err := g.Detach(1, 10); !errors.Is(err, ErrNotAttached) {
		t.Errorf("Detach() twice = %v, want ErrNotAttached", err)
	}
	if g.IsAttached(1, 10) || !g.IsAttached(1, 11) {
		t.Error("IsAttached is wrong after Detach")
	}
}

func TestDependents(t *testing.T) {
	g := New[uint32, uint32]()
	_ = g.Attach(1, 10)
	_ = g.Attach(2, 10)
	if got := g.Dependents(10); got != 2 {
		t.Errorf("Dependents() = %d, want 2", got)
	}
	if got := g.Programs(10); len(got) != 2 {
		t.Errorf("Programs() = %v, want 2 programs", got)
	}
	g.RemoveProgram(1)
	if got := g.Programs(10); len(got) != 1 || got[0] != 2 {
		t.Errorf("Programs() after RemoveProgram = %v, want [2]", got)
	}
	if got := g.Dependents(10); got != 1 {
		t.Errorf("Dependents() after RemoveProgram = %d, want 1", got)
	}
	if got := g.Edges(); got != 1 {
		t.Errorf("Edges() = %d, want 1", got)
	}
	g.RemoveProgram(2)
	if g.Dependents(10) != 0 || g.Edges() != 0 {
		t.Error("graph not empty after removing every program")
	}
}

func TestAttachedReturnsCopy(t *testing.T) {
	g := New[uint32, uint32]()
	_ = g.Attach(1, 10)
	got := g.Attached(1)
	got[0] = 99
	if !g.IsAttached(1, 10) {
		t.Error("mutating Attached() result changed the graph")
	}
}
