package glstate

import (
	"fmt"
	"strings"
)

// BufferUsage is the access pattern hint given with a data store.
type BufferUsage uint8

// Buffer usages.
const (
	StreamDraw BufferUsage = iota
	StreamRead
	StreamCopy
	StaticDraw
	StaticRead
	StaticCopy
	DynamicDraw
	DynamicRead
	DynamicCopy
)

var bufferUsageNames = [...]string{
	StreamDraw:  "stream-draw",
	StreamRead:  "stream-read",
	StreamCopy:  "stream-copy",
	StaticDraw:  "static-draw",
	StaticRead:  "static-read",
	StaticCopy:  "static-copy",
	DynamicDraw: "dynamic-draw",
	DynamicRead: "dynamic-read",
	DynamicCopy: "dynamic-copy",
}

func (u BufferUsage) String() string {
	if int(u) < len(bufferUsageNames) {
		return bufferUsageNames[u]
	}
	return fmt.Sprintf("BufferUsage(%d)", u)
}

func (u BufferUsage) valid() bool { return int(u) < len(bufferUsageNames) }

// ParseBufferUsage returns the usage named s. The bare frequency names
// "stream", "static" and "dynamic" select the draw variant.
func ParseBufferUsage(s string) (BufferUsage, error) {
	s = strings.ToLower(s)
	for u, name := range bufferUsageNames {
		if name == s {
			return BufferUsage(u), nil
		}
	}
	switch s {
	case "stream":
		return StreamDraw, nil
	case "static":
		return StaticDraw, nil
	case "dynamic":
		return DynamicDraw, nil
	}
	return 0, fmt.Errorf("%w: unknown buffer usage %q", ErrInvalidArgument, s)
}

// DataStore describes the storage allocated for a buffer.
type DataStore struct {
	Size  int
	Usage BufferUsage
}

// Buffer is a linear block of GPU memory. Its data store is assigned once.
type Buffer struct {
	ObjectHeader
	store *DataStore
}

// Kind returns KindBuffer.
func (b *Buffer) Kind() Kind { return KindBuffer }

// DataStore returns the data store of b, if one was assigned.
func (b *Buffer) DataStore() (DataStore, bool) {
	if b.store == nil {
		return DataStore{}, false
	}
	return *b.store, true
}

func (b *Buffer) header() *ObjectHeader {
	if b == nil {
		return nil
	}
	return &b.ObjectHeader
}

func (c *Context) liveBuffer(b *Buffer) error {
	if b == nil {
		return errNilResource
	}
	return live(c.buffers, &b.ObjectHeader, b)
}

// boundBuffer returns the buffer at target or a not-bound error.
func (c *Context) boundBuffer(target BufferTarget) (*Buffer, error) {
	if !target.valid() {
		return nil, fmt.Errorf("%w: buffer target %d", ErrInvalidArgument, target)
	}
	b := c.BoundBuffer(target)
	if b == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotBound, target.Point())
	}
	return b, nil
}

// GenBuffer creates a buffer without a data store.
func (c *Context) GenBuffer() (*Buffer, error) {
	return create(c, "GenBuffer", KindBuffer, c.buffers, func(id ID) *Buffer {
		return &Buffer{ObjectHeader: ObjectHeader{id: id}}
	})
}

// BindBuffer binds b at target. A buffer may occupy several targets at
// once but each target holds one buffer.
func (c *Context) BindBuffer(target BufferTarget, b *Buffer) error {
	o := opOn("BindBuffer", KindBuffer, b.header())
	if b == nil {
		return c.reject(o, errNilResource)
	}
	return c.bindPoint(o, target.Point(), keyOf(b), func() error {
		if !target.valid() {
			return fmt.Errorf("%w: buffer target %d", ErrInvalidArgument, target)
		}
		return c.liveBuffer(b)
	})
}

// UnbindBuffer empties target.
func (c *Context) UnbindBuffer(target BufferTarget) error {
	return c.unbindPoint("UnbindBuffer", target.Point())
}

// BufferData assigns the data store of the buffer bound at target.
// data may be nil to leave the store uninitialized; otherwise its length
// must equal size.
func (c *Context) BufferData(target BufferTarget, size int, data []byte, usage BufferUsage) error {
	b := c.BoundBuffer(target)
	o := opOn("BufferData", KindBuffer, b.header())
	return c.sequence(o, func() error {
		if _, err := c.boundBuffer(target); err != nil {
			return err
		}
		if size < 0 {
			return fmt.Errorf("%w: negative size %d", ErrInvalidArgument, size)
		}
		if data != nil && len(data) != size {
			return fmt.Errorf("%w: %d bytes of data for size %d", ErrInvalidArgument, len(data), size)
		}
		if !usage.valid() {
			return fmt.Errorf("%w: buffer usage %d", ErrInvalidArgument, usage)
		}
		if b.store != nil {
			return fmt.Errorf("%w: %d bytes %s", ErrDataAlreadyAssigned, b.store.Size, b.store.Usage)
		}
		return nil
	}, func() error {
		return c.native.Submit(BufferDataCommand{Target: target, Buffer: b.id, Size: size, Data: data, Usage: usage})
	}, func() {
		b.store = &DataStore{Size: size, Usage: usage}
	})
}

// BufferSubData overwrites part of the data store of the buffer bound at
// target, starting at offset.
func (c *Context) BufferSubData(target BufferTarget, offset int, data []byte) error {
	b := c.BoundBuffer(target)
	o := opOn("BufferSubData", KindBuffer, b.header())
	return c.sequence(o, func() error {
		if _, err := c.boundBuffer(target); err != nil {
			return err
		}
		return checkRange(b, offset, len(data))
	}, func() error {
		return c.native.Submit(BufferSubDataCommand{Target: target, Buffer: b.id, Offset: offset, Data: data})
	}, nil)
}

// CopyBufferSubData copies size bytes from the buffer bound at read to the
// buffer bound at write. Copies within one buffer must not overlap.
func (c *Context) CopyBufferSubData(read, write BufferTarget, readOffset, writeOffset, size int) error {
	src := c.BoundBuffer(read)
	dst := c.BoundBuffer(write)
	o := opOn("CopyBufferSubData", KindBuffer, dst.header())
	return c.sequence(o, func() error {
		if _, err := c.boundBuffer(read); err != nil {
			return err
		}
		if _, err := c.boundBuffer(write); err != nil {
			return err
		}
		if err := checkRange(src, readOffset, size); err != nil {
			return err
		}
		if err := checkRange(dst, writeOffset, size); err != nil {
			return err
		}
		if src == dst && readOffset < writeOffset+size && writeOffset < readOffset+size {
			return fmt.Errorf("%w: overlapping copy within buffer %d", ErrOutOfRange, src.id)
		}
		return nil
	}, func() error {
		return c.native.Submit(CopyBufferSubDataCommand{
			ReadTarget:  read,
			WriteTarget: write,
			Read:        src.id,
			Write:       dst.id,
			ReadOffset:  readOffset,
			WriteOffset: writeOffset,
			Size:        size,
		})
	}, nil)
}

func checkRange(b *Buffer, offset, size int) error {
	if b.store == nil {
		return fmt.Errorf("%w: buffer %d", ErrNoDataStore, b.id)
	}
	if offset < 0 || size < 0 || offset > b.store.Size || size > b.store.Size-offset {
		return fmt.Errorf("%w: offset %d size %d of %d bytes", ErrOutOfRange, offset, size, b.store.Size)
	}
	return nil
}

// DeleteBuffer deletes b. The buffer must not occupy any target.
func (c *Context) DeleteBuffer(b *Buffer) error {
	o := opOn("DeleteBuffer", KindBuffer, b.header())
	return c.destroy(o, func() error {
		if err := c.liveBuffer(b); err != nil {
			return err
		}
		return c.checkUnbound(b)
	}, func() {
		_ = c.buffers.Remove(uint32(b.id))
		_ = c.table.Forget(keyOf(b))
		b.markDeleted()
	})
}
