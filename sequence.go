package glstate

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/glstate/internal/registry"
)

// errNativeID is returned when the native layer hands out an id that
// cannot name a new object.
var errNativeID = errors.New("glstate: native layer returned an unusable id")

// op names a facade call and the resource it acts on, for errors and logs.
type op struct {
	name string
	kind Kind
	id   ID
}

// sequence runs one facade call: check validates existence and
// preconditions against the shadow state, native forwards the call and
// commit applies the new shadow state. commit runs only when both check
// and native succeeded, so a failing call leaves the context unchanged.
func (c *Context) sequence(o op, check, native func() error, commit func()) error {
	if check != nil {
		if err := check(); err != nil {
			return c.reject(o, err)
		}
	}
	if native != nil {
		if err := native(); err != nil {
			return c.nativeFailed(o, err)
		}
	}
	if commit != nil {
		commit()
	}
	c.counters.committed++
	c.logAt(slog.LevelDebug, "glstate: "+o.name, "kind", o.kind.String(), "id", uint32(o.id))
	return nil
}

func (c *Context) reject(o op, err error) error {
	c.counters.rejected++
	c.logAt(slog.LevelWarn, "glstate: rejected "+o.name,
		"kind", o.kind.String(),
		"id", uint32(o.id),
		"err", err,
	)
	if isObjectError(err) {
		return &ObjectError{Op: o.name, Kind: o.kind, ID: o.id, Err: err}
	}
	return &ProtocolError{Op: o.name, Kind: o.kind, ID: o.id, Err: err}
}

func (c *Context) nativeFailed(o op, err error) error {
	c.counters.nativeFailures++
	c.logAt(slog.LevelWarn, "glstate: native failure in "+o.name,
		"kind", o.kind.String(),
		"id", uint32(o.id),
		"err", err,
	)
	var ne *NativeError
	if errors.As(err, &ne) {
		return ne
	}
	return &NativeError{Op: o.name, Kind: o.kind, ID: o.id, Err: err}
}

// create asks the native layer for a new object of kind and registers the
// handle mk builds for it.
func create[T any](c *Context, name string, kind Kind, reg *registry.Registry[T], mk func(ID) T) (T, error) {
	var (
		id  ID
		out T
	)
	err := c.sequence(op{name: name, kind: kind}, nil, func() error {
		var err error
		id, err = c.native.Create(kind)
		if err != nil {
			return err
		}
		if id == NoID {
			return fmt.Errorf("%w: %s id 0", errNativeID, kind)
		}
		if reg.Has(uint32(id)) {
			err := fmt.Errorf("%w: %s %d is live", errNativeID, kind, id)
			if derr := c.native.Delete(kind, id); derr != nil {
				err = errors.Join(err, derr)
			}
			return err
		}
		return nil
	}, func() {
		out = mk(id)
		_ = reg.Add(uint32(id), out)
	})
	return out, err
}

// live checks that r is the live handle registered under id.
func live[T comparable](reg *registry.Registry[T], h *ObjectHeader, r T) error {
	if h.deleted {
		return fmt.Errorf("%w: id %d", ErrAlreadyDeleted, h.id)
	}
	got, err := reg.Get(uint32(h.id))
	if err != nil {
		return fmt.Errorf("%w: id %d", registryError(err), h.id)
	}
	if got != r {
		return fmt.Errorf("%w: id %d belongs to another context", ErrUnknownResource, h.id)
	}
	return nil
}

var errNilResource = fmt.Errorf("%w: nil handle", ErrUnknownResource)

// opOn builds the op descriptor for r, tolerating a nil handle.
func opOn(name string, kind Kind, h *ObjectHeader) op {
	o := op{name: name, kind: kind}
	if h != nil {
		o.id = h.id
	}
	return o
}

// bindPoint binds key at point after check passed.
func (c *Context) bindPoint(o op, point Point, key objectKey, check func() error) error {
	return c.sequence(o, func() error {
		if check != nil {
			if err := check(); err != nil {
				return err
			}
		}
		return c.table.CheckBind(point.String(), key)
	}, func() error {
		return c.native.Bind(point, key.id)
	}, func() {
		_ = c.table.Bind(point.String(), key)
	})
}

// unbindPoint empties point.
func (c *Context) unbindPoint(name string, point Point) error {
	o := op{name: name, kind: point.Kind}
	if occ, ok := c.table.Occupant(point.String()); ok {
		o.id = occ.id
	}
	return c.sequence(o, func() error {
		_, err := c.table.CheckUnbind(point.String())
		return err
	}, func() error {
		return c.native.Bind(point, NoID)
	}, func() {
		_, _ = c.table.Unbind(point.String())
	})
}

// occupant returns the id bound at point, or NoID.
func (c *Context) occupant(point Point) ID {
	if occ, ok := c.table.Occupant(point.String()); ok {
		return occ.id
	}
	return NoID
}

// checkUnbound fails while r occupies any binding point.
func (c *Context) checkUnbound(r Resource) error {
	if pts := c.table.Points(keyOf(r)); len(pts) > 0 {
		return fmt.Errorf("%w: %v", ErrStillBound, pts)
	}
	return nil
}

// destroy deletes the native object after check passed and runs commit.
func (c *Context) destroy(o op, check func() error, commit func()) error {
	return c.sequence(o, check, func() error {
		return c.native.Delete(o.kind, o.id)
	}, commit)
}
