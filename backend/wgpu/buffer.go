package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glstate"
)

// copyAlign is the offset and size granularity of queue writes and
// buffer-to-buffer copies.
const copyAlign = 4

func alignDown(n int) int { return n &^ (copyAlign - 1) }

func alignUp(n int) int { return (n + copyAlign - 1) &^ (copyAlign - 1) }

// inRange reports whether [off, off+n) lies within a buffer of size bytes.
func inRange(off, n, size int) bool {
	return off >= 0 && n >= 0 && off <= size && n <= size-off
}

// bufferData replaces the GPU buffer behind c.Buffer. Usage is derived
// from the target the store is allocated through.
func (d *Driver) bufferData(c glstate.BufferDataCommand) error {
	b, err := d.get(glstate.KindBuffer, c.Buffer)
	if err != nil {
		return err
	}
	size := max(alignUp(c.Size), copyAlign)
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: fmt.Sprintf("glstate buffer %d", c.Buffer),
		Size:  uint64(size),
		Usage: c.Target.Usage() | gputypes.BufferUsageCopyDst | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create buffer %d: %w", c.Buffer, err)
	}
	shadow := make([]byte, size)
	copy(shadow, c.Data)
	if c.Data != nil {
		if err := d.queue.WriteBuffer(buf, 0, shadow); err != nil {
			d.device.DestroyBuffer(buf)
			return fmt.Errorf("wgpu: write buffer %d: %w", c.Buffer, err)
		}
	}
	if b.buffer != nil {
		d.device.DestroyBuffer(b.buffer)
	}
	b.buffer, b.shadow, b.size = buf, shadow, c.Size
	d.logger().Debug("wgpu: buffer data", "buffer", c.Buffer, "size", c.Size, "usage", c.Usage.String())
	return nil
}

// flush writes the aligned range of b's shadow covering [off, off+n).
func (d *Driver) flush(b *object, off, n int) error {
	lo, hi := alignDown(off), alignUp(off+n)
	return d.queue.WriteBuffer(b.buffer, uint64(lo), b.shadow[lo:hi])
}

func (d *Driver) bufferSubData(c glstate.BufferSubDataCommand) error {
	b, err := d.get(glstate.KindBuffer, c.Buffer)
	if err != nil {
		return err
	}
	if b.buffer == nil {
		return fmt.Errorf("wgpu: buffer %d has no data store", c.Buffer)
	}
	if !inRange(c.Offset, len(c.Data), b.size) {
		return fmt.Errorf("wgpu: sub-data past end of buffer %d", c.Buffer)
	}
	prev := append([]byte(nil), b.shadow[c.Offset:c.Offset+len(c.Data)]...)
	copy(b.shadow[c.Offset:], c.Data)
	if err := d.flush(b, c.Offset, len(c.Data)); err != nil {
		copy(b.shadow[c.Offset:], prev)
		return fmt.Errorf("wgpu: write buffer %d: %w", c.Buffer, err)
	}
	return nil
}

// copyBufferSubData records a buffer-to-buffer copy when the range is
// aligned and falls back to a queue write from the shadow otherwise.
func (d *Driver) copyBufferSubData(c glstate.CopyBufferSubDataCommand) error {
	src, err := d.get(glstate.KindBuffer, c.Read)
	if err != nil {
		return err
	}
	dst, err := d.get(glstate.KindBuffer, c.Write)
	if err != nil {
		return err
	}
	if src.buffer == nil || dst.buffer == nil {
		return fmt.Errorf("wgpu: copy between buffers %d and %d without data stores", c.Read, c.Write)
	}
	if !inRange(c.ReadOffset, c.Size, src.size) || !inRange(c.WriteOffset, c.Size, dst.size) {
		return fmt.Errorf("wgpu: copy past end of buffer")
	}

	aligned := c.ReadOffset%copyAlign == 0 && c.WriteOffset%copyAlign == 0 && c.Size%copyAlign == 0
	if aligned && src != dst {
		if err := d.encodeCopy(src.buffer, dst.buffer, hal.BufferCopy{
			SrcOffset: uint64(c.ReadOffset),
			DstOffset: uint64(c.WriteOffset),
			Size:      uint64(c.Size),
		}); err != nil {
			return err
		}
		copy(dst.shadow[c.WriteOffset:c.WriteOffset+c.Size], src.shadow[c.ReadOffset:c.ReadOffset+c.Size])
		return nil
	}

	prev := append([]byte(nil), dst.shadow[c.WriteOffset:c.WriteOffset+c.Size]...)
	copy(dst.shadow[c.WriteOffset:c.WriteOffset+c.Size], src.shadow[c.ReadOffset:c.ReadOffset+c.Size])
	if err := d.flush(dst, c.WriteOffset, c.Size); err != nil {
		copy(dst.shadow[c.WriteOffset:], prev)
		return fmt.Errorf("wgpu: write buffer %d: %w", c.Write, err)
	}
	return nil
}

func (d *Driver) encodeCopy(src, dst hal.Buffer, region hal.BufferCopy) error {
	enc, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "glstate copy"})
	if err != nil {
		return fmt.Errorf("wgpu: create encoder: %w", err)
	}
	defer enc.Destroy()
	if err := enc.BeginEncoding("glstate copy"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	enc.CopyBufferToBuffer(src, dst, []hal.BufferCopy{region})
	cb, err := enc.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cb)
	if _, err := d.queue.Submit([]hal.CommandBuffer{cb}); err != nil {
		return fmt.Errorf("wgpu: submit copy: %w", err)
	}
	return nil
}

// BufferContents returns a copy of the contents of buffer id.
func (d *Driver) BufferContents(id glstate.ID) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.objects[glstate.KindBuffer][id]
	if !ok || b.buffer == nil {
		return nil, false
	}
	return append([]byte(nil), b.shadow[:b.size]...), true
}
