package glstate

import (
	"fmt"
	"strings"
)

// DrawMode is the primitive assembled from vertices.
type DrawMode uint8

// Draw modes.
const (
	Points DrawMode = iota
	Lines
	LineLoop
	LineStrip
	Triangles
	TriangleStrip
	TriangleFan
)

var drawModeNames = [...]string{
	Points:        "points",
	Lines:         "lines",
	LineLoop:      "line-loop",
	LineStrip:     "line-strip",
	Triangles:     "triangles",
	TriangleStrip: "triangle-strip",
	TriangleFan:   "triangle-fan",
}

func (m DrawMode) String() string {
	if int(m) < len(drawModeNames) {
		return drawModeNames[m]
	}
	return fmt.Sprintf("DrawMode(%d)", m)
}

func (m DrawMode) valid() bool { return int(m) < len(drawModeNames) }

// ParseDrawMode returns the draw mode named s.
func ParseDrawMode(s string) (DrawMode, error) {
	s = strings.ToLower(s)
	for m, name := range drawModeNames {
		if name == s {
			return DrawMode(m), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown draw mode %q", ErrInvalidArgument, s)
}

// ClearMask selects the buffers Clear resets.
type ClearMask uint8

// Clear bits.
const (
	ClearColor ClearMask = 1 << iota
	ClearDepth
	ClearStencil

	clearAll = ClearColor | ClearDepth | ClearStencil
)

func (m ClearMask) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	if m&ClearColor != 0 {
		parts = append(parts, "color")
	}
	if m&ClearDepth != 0 {
		parts = append(parts, "depth")
	}
	if m&ClearStencil != 0 {
		parts = append(parts, "stencil")
	}
	if m&^clearAll != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint8(m&^clearAll)))
	}
	return strings.Join(parts, "|")
}

// ParseClearMask parses a "|"-separated list such as "color|depth".
func ParseClearMask(s string) (ClearMask, error) {
	var m ClearMask
	for part := range strings.SplitSeq(strings.ToLower(s), "|") {
		switch strings.TrimSpace(part) {
		case "color":
			m |= ClearColor
		case "depth":
			m |= ClearDepth
		case "stencil":
			m |= ClearStencil
		default:
			return 0, fmt.Errorf("%w: unknown clear bit %q", ErrInvalidArgument, part)
		}
	}
	return m, nil
}

// Clear resets the selected buffers of the current draw framebuffer.
func (c *Context) Clear(mask ClearMask) error {
	fb := c.occupant(DrawFramebuffer.Point())
	o := op{name: "Clear", kind: KindFramebuffer, id: fb}
	return c.sequence(o, func() error {
		if mask == 0 || mask&^clearAll != 0 {
			return fmt.Errorf("%w: clear mask %s", ErrInvalidArgument, mask)
		}
		return nil
	}, func() error {
		return c.native.Submit(ClearCommand{Framebuffer: fb, Mask: mask})
	}, func() {
		c.counters.clears++
	})
}

// Draw renders count vertices starting at first. It requires a linked
// program in use and a current vertex layout in which every enabled
// attribute has a pointer into a buffer with a data store.
func (c *Context) Draw(mode DrawMode, first, count int) error {
	p := c.CurrentProgram()
	v := c.BoundVertexLayout()
	o := op{name: "Draw", kind: KindVertexLayout}
	if v != nil {
		o.id = v.id
	}
	return c.sequence(o, func() error {
		if !mode.valid() {
			return fmt.Errorf("%w: draw mode %d", ErrInvalidArgument, mode)
		}
		if first < 0 || count < 0 {
			return fmt.Errorf("%w: first %d count %d", ErrInvalidArgument, first, count)
		}
		if p == nil {
			return ErrNoProgram
		}
		if v == nil {
			return ErrNoVertexLayout
		}
		for _, i := range v.EnabledAttribs() {
			ptr, ok := v.pointers[i]
			if !ok {
				return fmt.Errorf("%w: attribute %d", ErrMissingPointer, i)
			}
			b, err := c.buffers.Get(uint32(ptr.Buffer))
			if err != nil {
				return fmt.Errorf("%w: attribute %d reads buffer %d: %v", ErrNoDataStore, i, ptr.Buffer, registryError(err))
			}
			if b.store == nil {
				return fmt.Errorf("%w: attribute %d reads buffer %d", ErrNoDataStore, i, ptr.Buffer)
			}
		}
		return nil
	}, func() error {
		return c.native.Submit(DrawCommand{Mode: mode, First: first, Count: count, Program: p.id, Layout: v.id})
	}, func() {
		c.counters.draws++
	})
}
