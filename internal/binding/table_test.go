package binding

import (
	"errors"
	"slices"
	"testing"
)

type obj struct {
	kind uint8
	id   uint32
}

func newTestTable() *Table[obj] {
	t := New[obj]()
	t.Declare("buffer", Policy{MultiPoint: true}, "array", "copy-read", "copy-write")
	t.Declare("texture", Policy{Typed: true}, "2d", "cube-map")
	t.Declare("vertex-layout", Policy{}, "vertex-layout")
	return t
}

func TestBindUnknownPoint(t *testing.T) {
	tbl := newTestTable()
	if err := tbl.Bind("nowhere", obj{1, 1}); !errors.Is(err, ErrUnknownPoint) {
		t.Fatalf("Bind() = %v, want ErrUnknownPoint", err)
	}
	if _, err := tbl.Unbind("nowhere"); !errors.Is(err, ErrUnknownPoint) {
		t.Fatalf("Unbind() = %v, want ErrUnknownPoint", err)
	}
}

func TestSingleOccupancy(t *testing.T) {
	tbl := newTestTable()
	a, b := obj{3, 1}, obj{3, 2}
	if err := tbl.Bind("vertex-layout", a); err != nil {
		t.Fatalf("Bind(a) = %v", err)
	}
	if err := tbl.Bind("vertex-layout", b); !errors.Is(err, ErrPointOccupied) {
		t.Errorf("Bind(b) = %v, want ErrPointOccupied", err)
	}
	if err := tbl.Bind("vertex-layout", a); !errors.Is(err, ErrAlreadyBound) {
		t.Errorf("Bind(a) again = %v, want ErrAlreadyBound", err)
	}
	occ, ok := tbl.Occupant("vertex-layout")
	if !ok || occ != a {
		t.Errorf("Occupant() = (%v, %v), want (%v, true)", occ, ok, a)
	}
}

func TestMultiPoint(t *testing.T) {
	tbl := newTestTable()
	b := obj{1, 7}
	if err := tbl.Bind("array", b); err != nil {
		t.Fatalf("Bind(array) = %v", err)
	}
	if err := tbl.Bind("copy-read", b); err != nil {
		t.Fatalf("Bind(copy-read) = %v", err)
	}
	if err := tbl.Bind("array", b); !errors.Is(err, ErrAlreadyBound) {
		t.Errorf("Bind(array) twice = %v, want ErrAlreadyBound", err)
	}
	if got := tbl.Points(b); !slices.Equal(got, []string{"array", "copy-read"}) {
		t.Errorf("Points() = %v", got)
	}
	if _, err := tbl.Unbind("array"); err != nil {
		t.Fatalf("Unbind(array) = %v", err)
	}
	if !tbl.IsBound(b) || !tbl.IsBoundTo("copy-read", b) || tbl.IsBoundTo("array", b) {
		t.Error("occupancy after partial unbind is wrong")
	}
	if err := tbl.Forget(b); !errors.Is(err, ErrStillBound) {
		t.Errorf("Forget() while bound = %v, want ErrStillBound", err)
	}
	if _, err := tbl.Unbind("copy-read"); err != nil {
		t.Fatalf("Unbind(copy-read) = %v", err)
	}
	if err := tbl.Forget(b); err != nil {
		t.Errorf("Forget() = %v", err)
	}
}

func TestTyped(t *testing.T) {
	tbl := newTestTable()
	tex := obj{2, 5}
	if err := tbl.Bind("2d", tex); err != nil {
		t.Fatalf("Bind(2d) = %v", err)
	}
	if err := tbl.Bind("cube-map", tex); !errors.Is(err, ErrTargetMismatch) {
		t.Errorf("Bind(cube-map) = %v, want ErrTargetMismatch", err)
	}
	if _, err := tbl.Unbind("2d"); err != nil {
		t.Fatalf("Unbind(2d) = %v", err)
	}
	// The type survives the unbind.
	if err := tbl.Bind("cube-map", tex); !errors.Is(err, ErrTargetMismatch) {
		t.Errorf("Bind(cube-map) after unbind = %v, want ErrTargetMismatch", err)
	}
	if err := tbl.Bind("2d", tex); err != nil {
		t.Errorf("Bind(2d) again = %v", err)
	}
	if typ, ok := tbl.Type(tex); !ok || typ != "2d" {
		t.Errorf("Type() = (%q, %v), want (2d, true)", typ, ok)
	}
}

func TestBoundElsewhere(t *testing.T) {
	tbl := New[obj]()
	tbl.Declare("fb", Policy{}, "draw", "read")
	f := obj{6, 1}
	_ = tbl.Bind("draw", f)
	if err := tbl.Bind("read", f); !errors.Is(err, ErrBoundElsewhere) {
		t.Fatalf("Bind(read) = %v, want ErrBoundElsewhere", err)
	}
}

func TestUnbindEmpty(t *testing.T) {
	tbl := newTestTable()
	if _, err := tbl.Unbind("array"); !errors.Is(err, ErrNotBound) {
		t.Fatalf("Unbind() = %v, want ErrNotBound", err)
	}
}

func TestCheckDoesNotMutate(t *testing.T) {
	tbl := newTestTable()
	b := obj{1, 1}
	if err := tbl.CheckBind("array", b); err != nil {
		t.Fatalf("CheckBind() = %v", err)
	}
	if tbl.Len() != 0 || tbl.IsBound(b) {
		t.Error("CheckBind changed the table")
	}
	_ = tbl.Bind("array", b)
	if occ, err := tbl.CheckUnbind("array"); err != nil || occ != b {
		t.Errorf("CheckUnbind() = (%v, %v)", occ, err)
	}
	if !tbl.IsBoundTo("array", b) {
		t.Error("CheckUnbind changed the table")
	}
	if got := tbl.Occupied(); !slices.Equal(got, []string{"array"}) {
		t.Errorf("Occupied() = %v", got)
	}
}
