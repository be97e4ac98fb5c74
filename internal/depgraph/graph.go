// Package depgraph records attachment edges between programs and shaders.
//
// Edges only ever run shader -> program, so the graph is acyclic by
// construction and needs no cycle detection. The graph stores edges only;
// whether an edge may be added (program not yet linked, shader compiled) is
// decided by the caller.
package depgraph

import (
	"errors"
	"fmt"
	"slices"
)

// Graph errors.
var (
	// ErrAlreadyAttached is returned when an edge already exists.
	ErrAlreadyAttached = errors.New("depgraph: shader already attached")

	// ErrNotAttached is returned when removing an edge that does not exist.
	ErrNotAttached = errors.New("depgraph: shader not attached")
)

// Graph holds program -> shader attachments and the reverse index.
type Graph[P, S comparable] struct {
	attached   map[P][]S
	dependents map[S]map[P]struct{}
}

// New creates an empty graph.
func New[P, S comparable]() *Graph[P, S] {
	return &Graph[P, S]{
		attached:   make(map[P][]S),
		dependents: make(map[S]map[P]struct{}),
	}
}

// CheckAttach reports whether Attach(p, s) would succeed.
func (g *Graph[P, S]) CheckAttach(p P, s S) error {
	if slices.Contains(g.attached[p], s) {
		return fmt.Errorf("%w: %v -> %v", ErrAlreadyAttached, s, p)
	}
	return nil
}

// Attach records the edge s -> p.
func (g *Graph[P, S]) Attach(p P, s S) error {
	if err := g.CheckAttach(p, s); err != nil {
		return err
	}
	g.attached[p] = append(g.attached[p], s)
	deps, ok := g.dependents[s]
	if !ok {
		deps = make(map[P]struct{})
		g.dependents[s] = deps
	}
	deps[p] = struct{}{}
	return nil
}

// CheckDetach reports whether Detach(p, s) would succeed.
func (g *Graph[P, S]) CheckDetach(p P, s S) error {
	if !slices.Contains(g.attached[p], s) {
		return fmt.Errorf("%w: %v -> %v", ErrNotAttached, s, p)
	}
	return nil
}

// Detach removes the edge s -> p.
func (g *Graph[P, S]) Detach(p P, s S) error {
	if err := g.CheckDetach(p, s); err != nil {
		return err
	}
	g.attached[p] = slices.DeleteFunc(g.attached[p], func(x S) bool { return x == s })
	if len(g.attached[p]) == 0 {
		delete(g.attached, p)
	}
	g.dropDependent(s, p)
	return nil
}

// Attached returns the shaders attached to p in attachment order.
func (g *Graph[P, S]) Attached(p P) []S {
	return slices.Clone(g.attached[p])
}

// IsAttached reports whether the edge s -> p exists.
func (g *Graph[P, S]) IsAttached(p P, s S) bool {
	return slices.Contains(g.attached[p], s)
}

// Dependents returns the number of programs s is attached to.
func (g *Graph[P, S]) Dependents(s S) int {
	return len(g.dependents[s])
}

// Programs returns the programs s is attached to, in no particular order.
func (g *Graph[P, S]) Programs(s S) []P {
	out := make([]P, 0, len(g.dependents[s]))
	for p := range g.dependents[s] {
		out = append(out, p)
	}
	return out
}

// RemoveProgram drops p and all of its edges.
func (g *Graph[P, S]) RemoveProgram(p P) {
	for _, s := range g.attached[p] {
		g.dropDependent(s, p)
	}
	delete(g.attached, p)
}

// Edges returns the total number of attachments.
func (g *Graph[P, S]) Edges() int {
	n := 0
	for _, ss := range g.attached {
		n += len(ss)
	}
	return n
}

func (g *Graph[P, S]) dropDependent(s S, p P) {
	deps := g.dependents[s]
	delete(deps, p)
	if len(deps) == 0 {
		delete(g.dependents, s)
	}
}
