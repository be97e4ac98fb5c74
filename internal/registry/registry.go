package registry

import (
	"errors"
	"fmt"
	"slices"
)

// Registry errors.
var (
	// ErrUnknown is returned for an id that was never registered.
	ErrUnknown = errors.New("registry: unknown id")

	// ErrDeleted is returned for an id that was registered and then removed.
	ErrDeleted = errors.New("registry: id already deleted")

	// ErrDuplicate is returned when an id is added while still live.
	ErrDuplicate = errors.New("registry: id already live")
)

// Registry maps native ids of one object kind to their shadow objects.
type Registry[T any] struct {
	live  map[uint32]T
	tombs map[uint32]struct{}
}

// New creates an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{
		live:  make(map[uint32]T),
		tombs: make(map[uint32]struct{}),
	}
}

// Add registers v under id. The id must not be live.
func (r *Registry[T]) Add(id uint32, v T) error {
	if _, ok := r.live[id]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicate, id)
	}
	delete(r.tombs, id)
	r.live[id] = v
	return nil
}

// Get returns the live object registered under id.
func (r *Registry[T]) Get(id uint32) (T, error) {
	if v, ok := r.live[id]; ok {
		return v, nil
	}
	var zero T
	if _, ok := r.tombs[id]; ok {
		return zero, fmt.Errorf("%w: %d", ErrDeleted, id)
	}
	return zero, fmt.Errorf("%w: %d", ErrUnknown, id)
}

// Has reports whether id is live.
func (r *Registry[T]) Has(id uint32) bool {
	_, ok := r.live[id]
	return ok
}

// Remove drops id from the live set and leaves a tombstone.
func (r *Registry[T]) Remove(id uint32) error {
	if _, ok := r.live[id]; !ok {
		if _, dead := r.tombs[id]; dead {
			return fmt.Errorf("%w: %d", ErrDeleted, id)
		}
		return fmt.Errorf("%w: %d", ErrUnknown, id)
	}
	delete(r.live, id)
	r.tombs[id] = struct{}{}
	return nil
}

// Len returns the number of live objects.
func (r *Registry[T]) Len() int {
	return len(r.live)
}

// Removed returns the number of tombstones.
func (r *Registry[T]) Removed() int {
	return len(r.tombs)
}

// IDs returns the live ids in ascending order.
func (r *Registry[T]) IDs() []uint32 {
	ids := make([]uint32, 0, len(r.live))
	for id := range r.live {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Each calls fn for every live object in ascending id order.
func (r *Registry[T]) Each(fn func(id uint32, v T)) {
	for _, id := range r.IDs() {
		fn(id, r.live[id])
	}
}
