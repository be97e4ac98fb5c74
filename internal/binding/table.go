package binding

import (
	"errors"
	"fmt"
	"slices"
)

// Binding errors.
var (
	// ErrUnknownPoint is returned for a point that was never declared.
	ErrUnknownPoint = errors.New("binding: unknown binding point")

	// ErrPointOccupied is returned when binding into a point held by another object.
	ErrPointOccupied = errors.New("binding: binding point occupied")

	// ErrAlreadyBound is returned when an object is bound twice to the same point.
	ErrAlreadyBound = errors.New("binding: already bound to this point")

	// ErrNotBound is returned when unbinding an empty point.
	ErrNotBound = errors.New("binding: binding point is empty")

	// ErrTargetMismatch is returned when a typed object is bound to a point
	// other than its type.
	ErrTargetMismatch = errors.New("binding: target does not match object type")

	// ErrBoundElsewhere is returned when a single-point object is bound to a
	// second point while still occupying the first.
	ErrBoundElsewhere = errors.New("binding: object is bound to another point")

	// ErrStillBound is returned by Forget while the object occupies a point.
	ErrStillBound = errors.New("binding: object is still bound")
)

// Policy describes how objects of a class occupy its points.
type Policy struct {
	// MultiPoint allows one object in several distinct points at once.
	MultiPoint bool

	// Typed fixes an object's type to the first point it is bound to.
	Typed bool
}

// Table tracks which object occupies which binding point.
type Table[O comparable] struct {
	policies  map[string]Policy
	classOf   map[string]string
	occupants map[string]O
	points    map[O]map[string]struct{}
	types     map[O]string
}

// New creates an empty table with no declared points.
func New[O comparable]() *Table[O] {
	return &Table[O]{
		policies:  make(map[string]Policy),
		classOf:   make(map[string]string),
		occupants: make(map[string]O),
		points:    make(map[O]map[string]struct{}),
		types:     make(map[O]string),
	}
}

// Declare registers points under class with the given policy.
// Declaring a point twice moves it to the latest class.
func (t *Table[O]) Declare(class string, p Policy, points ...string) {
	t.policies[class] = p
	for _, pt := range points {
		t.classOf[pt] = class
	}
}

// Declared reports whether point was declared.
func (t *Table[O]) Declared(point string) bool {
	_, ok := t.classOf[point]
	return ok
}

// Policy returns the policy of the class point belongs to.
func (t *Table[O]) Policy(point string) (Policy, bool) {
	class, ok := t.classOf[point]
	if !ok {
		return Policy{}, false
	}
	return t.policies[class], true
}

// CheckBind reports whether Bind(point, o) would succeed without changing
// the table.
func (t *Table[O]) CheckBind(point string, o O) error {
	class, ok := t.classOf[point]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPoint, point)
	}
	p := t.policies[class]

	if occ, ok := t.occupants[point]; ok {
		if occ == o {
			return fmt.Errorf("%w: %q", ErrAlreadyBound, point)
		}
		return fmt.Errorf("%w: %q", ErrPointOccupied, point)
	}

	if p.Typed {
		if typ, ok := t.types[o]; ok && typ != point {
			return fmt.Errorf("%w: bound as %q, requested %q", ErrTargetMismatch, typ, point)
		}
	}

	if !p.MultiPoint && len(t.points[o]) > 0 {
		return fmt.Errorf("%w: %q", ErrBoundElsewhere, t.Points(o)[0])
	}
	return nil
}

// Bind places o into point.
func (t *Table[O]) Bind(point string, o O) error {
	if err := t.CheckBind(point, o); err != nil {
		return err
	}
	t.occupants[point] = o
	set, ok := t.points[o]
	if !ok {
		set = make(map[string]struct{})
		t.points[o] = set
	}
	set[point] = struct{}{}

	if t.policies[t.classOf[point]].Typed {
		if _, typed := t.types[o]; !typed {
			t.types[o] = point
		}
	}
	return nil
}

// CheckUnbind returns the occupant Unbind(point) would remove.
func (t *Table[O]) CheckUnbind(point string) (O, error) {
	var zero O
	if _, ok := t.classOf[point]; !ok {
		return zero, fmt.Errorf("%w: %q", ErrUnknownPoint, point)
	}
	occ, ok := t.occupants[point]
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrNotBound, point)
	}
	return occ, nil
}

// Unbind empties point and returns its former occupant.
func (t *Table[O]) Unbind(point string) (O, error) {
	occ, err := t.CheckUnbind(point)
	if err != nil {
		return occ, err
	}
	delete(t.occupants, point)
	if set := t.points[occ]; set != nil {
		delete(set, point)
		if len(set) == 0 {
			delete(t.points, occ)
		}
	}
	return occ, nil
}

// Occupant returns the object in point, if any.
func (t *Table[O]) Occupant(point string) (O, bool) {
	o, ok := t.occupants[point]
	return o, ok
}

// Points returns the points o occupies, sorted by name.
func (t *Table[O]) Points(o O) []string {
	set := t.points[o]
	out := make([]string, 0, len(set))
	for pt := range set {
		out = append(out, pt)
	}
	slices.Sort(out)
	return out
}

// IsBound reports whether o occupies any point.
func (t *Table[O]) IsBound(o O) bool {
	return len(t.points[o]) > 0
}

// IsBoundTo reports whether o occupies point.
func (t *Table[O]) IsBoundTo(point string, o O) bool {
	occ, ok := t.occupants[point]
	return ok && occ == o
}

// Type returns the type fixed for o by a typed class.
func (t *Table[O]) Type(o O) (string, bool) {
	typ, ok := t.types[o]
	return typ, ok
}

// Forget drops everything the table remembers about o.
// It fails while o still occupies a point.
func (t *Table[O]) Forget(o O) error {
	if t.IsBound(o) {
		return fmt.Errorf("%w: %v", ErrStillBound, t.Points(o))
	}
	delete(t.types, o)
	return nil
}

// Occupied returns all occupied points, sorted by name.
func (t *Table[O]) Occupied() []string {
	out := make([]string, 0, len(t.occupants))
	for pt := range t.occupants {
		out = append(out, pt)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of occupied points.
func (t *Table[O]) Len() int {
	return len(t.occupants)
}
