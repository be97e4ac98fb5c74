package glstate

import (
	"fmt"
	"maps"
	"slices"

	"github.com/gogpu/gputypes"
)

// MaxVertexAttribs bounds attribute indices.
const MaxVertexAttribs = 16

// AttribPointer describes where a vertex attribute reads its data.
// Buffer is filled in by VertexAttribPointer with the buffer bound at
// ArrayBuffer when the pointer was recorded.
type AttribPointer struct {
	Index      int
	Size       int
	Type       ComponentType
	Normalized bool
	Stride     int
	Offset     int
	Buffer     ID
}

// Validate checks the pointer fields independently of any context.
func (p AttribPointer) Validate() error {
	switch {
	case p.Index < 0 || p.Index >= MaxVertexAttribs:
		return fmt.Errorf("%w: attribute index %d", ErrInvalidArgument, p.Index)
	case p.Size < 1 || p.Size > 4:
		return fmt.Errorf("%w: attribute size %d", ErrInvalidArgument, p.Size)
	case !p.Type.valid():
		return fmt.Errorf("%w: component type %d", ErrInvalidArgument, p.Type)
	case p.Stride < 0 || p.Offset < 0:
		return fmt.Errorf("%w: stride %d offset %d", ErrInvalidArgument, p.Stride, p.Offset)
	}
	return nil
}

// Format returns the GPU vertex format of the pointer, or
// gputypes.VertexFormatUndefined when none matches.
func (p AttribPointer) Format() gputypes.VertexFormat {
	f, ok := vertexFormats[formatKey{p.Type, p.Size, p.Normalized && p.Type != Float}]
	if !ok {
		return gputypes.VertexFormatUndefined
	}
	return f
}

type formatKey struct {
	t    ComponentType
	size int
	norm bool
}

var vertexFormats = map[formatKey]gputypes.VertexFormat{
	{Float, 1, false}:         gputypes.VertexFormatFloat32,
	{Float, 2, false}:         gputypes.VertexFormatFloat32x2,
	{Float, 3, false}:         gputypes.VertexFormatFloat32x3,
	{Float, 4, false}:         gputypes.VertexFormatFloat32x4,
	{UnsignedInt, 1, false}:   gputypes.VertexFormatUint32,
	{UnsignedInt, 2, false}:   gputypes.VertexFormatUint32x2,
	{UnsignedInt, 3, false}:   gputypes.VertexFormatUint32x3,
	{UnsignedInt, 4, false}:   gputypes.VertexFormatUint32x4,
	{Int, 1, false}:           gputypes.VertexFormatSint32,
	{Int, 2, false}:           gputypes.VertexFormatSint32x2,
	{Int, 3, false}:           gputypes.VertexFormatSint32x3,
	{Int, 4, false}:           gputypes.VertexFormatSint32x4,
	{UnsignedByte, 2, false}:  gputypes.VertexFormatUint8x2,
	{UnsignedByte, 4, false}:  gputypes.VertexFormatUint8x4,
	{UnsignedByte, 2, true}:   gputypes.VertexFormatUnorm8x2,
	{UnsignedByte, 4, true}:   gputypes.VertexFormatUnorm8x4,
	{Byte, 2, false}:          gputypes.VertexFormatSint8x2,
	{Byte, 4, false}:          gputypes.VertexFormatSint8x4,
	{Byte, 2, true}:           gputypes.VertexFormatSnorm8x2,
	{Byte, 4, true}:           gputypes.VertexFormatSnorm8x4,
	{UnsignedShort, 2, false}: gputypes.VertexFormatUint16x2,
	{UnsignedShort, 4, false}: gputypes.VertexFormatUint16x4,
	{UnsignedShort, 2, true}:  gputypes.VertexFormatUnorm16x2,
	{UnsignedShort, 4, true}:  gputypes.VertexFormatUnorm16x4,
	{Short, 2, false}:         gputypes.VertexFormatSint16x2,
	{Short, 4, false}:         gputypes.VertexFormatSint16x4,
	{Short, 2, true}:          gputypes.VertexFormatSnorm16x2,
	{Short, 4, true}:          gputypes.VertexFormatSnorm16x4,
}

// VertexLayout records attribute pointers and which attributes are enabled.
type VertexLayout struct {
	ObjectHeader
	pointers map[int]AttribPointer
	enabled  map[int]bool
}

// Kind returns KindVertexLayout.
func (v *VertexLayout) Kind() Kind { return KindVertexLayout }

// Pointer returns the pointer recorded for index.
func (v *VertexLayout) Pointer(index int) (AttribPointer, bool) {
	p, ok := v.pointers[index]
	return p, ok
}

// Pointers returns every recorded pointer ordered by index.
func (v *VertexLayout) Pointers() []AttribPointer {
	out := make([]AttribPointer, 0, len(v.pointers))
	for _, i := range slices.Sorted(maps.Keys(v.pointers)) {
		out = append(out, v.pointers[i])
	}
	return out
}

// Enabled reports whether attribute index is enabled.
func (v *VertexLayout) Enabled(index int) bool { return v.enabled[index] }

// EnabledAttribs returns the enabled attribute indices in order.
func (v *VertexLayout) EnabledAttribs() []int {
	return slices.Sorted(maps.Keys(v.enabled))
}

func (v *VertexLayout) header() *ObjectHeader {
	if v == nil {
		return nil
	}
	return &v.ObjectHeader
}

func (c *Context) liveVertexLayout(v *VertexLayout) error {
	if v == nil {
		return errNilResource
	}
	return live(c.layouts, &v.ObjectHeader, v)
}

// GenVertexLayout creates an empty vertex layout.
func (c *Context) GenVertexLayout() (*VertexLayout, error) {
	return create(c, "GenVertexLayout", KindVertexLayout, c.layouts, func(id ID) *VertexLayout {
		return &VertexLayout{
			ObjectHeader: ObjectHeader{id: id},
			pointers:     make(map[int]AttribPointer),
			enabled:      make(map[int]bool),
		}
	})
}

// BindVertexLayout makes v the current vertex layout.
func (c *Context) BindVertexLayout(v *VertexLayout) error {
	o := opOn("BindVertexLayout", KindVertexLayout, v.header())
	if v == nil {
		return c.reject(o, errNilResource)
	}
	return c.bindPoint(o, VertexLayoutPoint, keyOf(v), func() error {
		return c.liveVertexLayout(v)
	})
}

// UnbindVertexLayout clears the current vertex layout.
func (c *Context) UnbindVertexLayout() error {
	return c.unbindPoint("UnbindVertexLayout", VertexLayoutPoint)
}

// VertexAttribPointer records p in the current vertex layout, sourcing the
// buffer bound at ArrayBuffer. A pointer already recorded for p.Index is
// replaced.
func (c *Context) VertexAttribPointer(p AttribPointer) error {
	v := c.BoundVertexLayout()
	o := opOn("VertexAttribPointer", KindVertexLayout, v.header())
	return c.sequence(o, func() error {
		if v == nil {
			return ErrNoVertexLayout
		}
		if err := p.Validate(); err != nil {
			return err
		}
		if _, err := c.boundBuffer(ArrayBuffer); err != nil {
			return err
		}
		p.Buffer = c.occupant(ArrayBuffer.Point())
		return nil
	}, func() error {
		return c.native.Submit(VertexAttribPointerCommand{Layout: v.id, Pointer: p})
	}, func() {
		v.pointers[p.Index] = p
	})
}

// EnableVertexAttrib enables attribute index of the current vertex layout.
func (c *Context) EnableVertexAttrib(index int) error {
	return c.vertexAttribArray("EnableVertexAttrib", index, true)
}

// DisableVertexAttrib disables attribute index of the current vertex layout.
func (c *Context) DisableVertexAttrib(index int) error {
	return c.vertexAttribArray("DisableVertexAttrib", index, false)
}

func (c *Context) vertexAttribArray(name string, index int, enabled bool) error {
	v := c.BoundVertexLayout()
	o := opOn(name, KindVertexLayout, v.header())
	return c.sequence(o, func() error {
		if v == nil {
			return ErrNoVertexLayout
		}
		if index < 0 || index >= MaxVertexAttribs {
			return fmt.Errorf("%w: attribute index %d", ErrInvalidArgument, index)
		}
		return nil
	}, func() error {
		return c.native.Submit(VertexAttribArrayCommand{Layout: v.id, Index: index, Enabled: enabled})
	}, func() {
		if enabled {
			v.enabled[index] = true
		} else {
			delete(v.enabled, index)
		}
	})
}

// DeleteVertexLayout deletes v. The layout must not be current.
func (c *Context) DeleteVertexLayout(v *VertexLayout) error {
	o := opOn("DeleteVertexLayout", KindVertexLayout, v.header())
	return c.destroy(o, func() error {
		if err := c.liveVertexLayout(v); err != nil {
			return err
		}
		return c.checkUnbound(v)
	}, func() {
		_ = c.layouts.Remove(uint32(v.id))
		_ = c.table.Forget(keyOf(v))
		v.markDeleted()
	})
}
