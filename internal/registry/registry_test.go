package registry

import (
	"errors"
	"slices"
	"testing"
)

func TestAddGet(t *testing.T) {
	r := New[string]()
	if err := r.Add(7, "seven"); err != nil {
		t.Fatalf("Add() = %v", err)
	}
	got, err := r.Get(7)
	if err != nil {
		t.Fatalf("Get() = %v", err)
	}
	if got != "seven" {
		t.Errorf("Get() = %q, want %q", got, "seven")
	}
	if !r.Has(7) {
		t.Error("Has(7) = false, want true")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestAddDuplicate(t *testing.T) {
	r := New[int]()
	_ = r.Add(1, 10)
	if err := r.Add(1, 11); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Add() duplicate = %v, want ErrDuplicate", err)
	}
	got, _ := r.Get(1)
	if got != 10 {
		t.Errorf("duplicate Add overwrote value: got %d", got)
	}
}

func TestGetUnknownAndDeleted(t *testing.T) {
	r := New[int]()
	if _, err := r.Get(3); !errors.Is(err, ErrUnknown) {
		t.Errorf("Get() unknown = %v, want ErrUnknown", err)
	}
	_ = r.Add(3, 30)
	if err := r.Remove(3); err != nil {
		t.Fatalf("Remove() = %v", err)
	}
	if _, err := r.Get(3); !errors.Is(err, ErrDeleted) {
		t.Errorf("Get() after Remove = %v, want ErrDeleted", err)
	}
}

func TestRemove(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(r *Registry[int])
		wantErr error
	}{
		{"live", func(r *Registry[int]) { _ = r.Add(1, 1) }, nil},
		{"unknown", func(r *Registry[int]) {}, ErrUnknown},
		{"twice", func(r *Registry[int]) { _ = r.Add(1, 1); _ = r.Remove(1) }, ErrDeleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New[int]()
			tt.setup(r)
			err := r.Remove(1)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Remove() = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Remove() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestReaddClearsTombstone(t *testing.T) {
	r := New[int]()
	_ = r.Add(4, 1)
	_ = r.Remove(4)
	if err := r.Add(4, 2); err != nil {
		t.Fatalf("Add() after Remove = %v", err)
	}
	if got, err := r.Get(4); err != nil || got != 2 {
		t.Errorf("Get() = (%d, %v), want (2, nil)", got, err)
	}
	if r.Removed() != 0 {
		t.Errorf("Removed() = %d, want 0", r.Removed())
	}
}

func TestIDsSorted(t *testing.T) {
	r := New[int]()
	for _, id := range []uint32{9, 2, 5} {
		_ = r.Add(id, int(id))
	}
	if got, want := r.IDs(), []uint32{2, 5, 9}; !slices.Equal(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}
	var seen []uint32
	r.Each(func(id uint32, _ int) { seen = append(seen, id) })
	if !slices.Equal(seen, []uint32{2, 5, 9}) {
		t.Errorf("Each order = %v", seen)
	}
}
