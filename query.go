package glstate

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// IsBound reports whether r occupies any binding point.
func (c *Context) IsBound(r Resource) bool {
	return c.table.IsBound(keyOf(r))
}

// IsBoundTo reports whether r occupies point.
func (c *Context) IsBoundTo(point Point, r Resource) bool {
	return c.table.IsBoundTo(point.String(), keyOf(r))
}

// IsDeleted reports whether r was deleted.
func (c *Context) IsDeleted(r Resource) bool {
	return r.Deleted()
}

// BufferBindings returns the targets b occupies, sorted by name.
func (c *Context) BufferBindings(b *Buffer) []BufferTarget {
	pts := c.table.Points(keyOf(b))
	out := make([]BufferTarget, 0, len(pts))
	for _, pt := range pts {
		name, _ := strings.CutPrefix(pt, KindBuffer.String()+"/")
		if t, err := ParseBufferTarget(name); err == nil {
			out = append(out, t)
		}
	}
	return out
}

// TextureTarget returns the type t took on its first bind.
func (c *Context) TextureTarget(t *Texture) (TextureTarget, bool) {
	pt, ok := c.table.Type(keyOf(t))
	if !ok {
		return 0, false
	}
	return textureTargetOf(pt)
}

// BoundBuffer returns the buffer at target, or nil.
func (c *Context) BoundBuffer(target BufferTarget) *Buffer {
	b, err := c.buffers.Get(uint32(c.occupant(target.Point())))
	if err != nil {
		return nil
	}
	return b
}

// BoundTexture returns the texture at target, or nil.
func (c *Context) BoundTexture(target TextureTarget) *Texture {
	t, err := c.textures.Get(uint32(c.occupant(target.Point())))
	if err != nil {
		return nil
	}
	return t
}

// BoundVertexLayout returns the current vertex layout, or nil.
func (c *Context) BoundVertexLayout() *VertexLayout {
	v, err := c.layouts.Get(uint32(c.occupant(VertexLayoutPoint)))
	if err != nil {
		return nil
	}
	return v
}

// CurrentProgram returns the program in use, or nil.
func (c *Context) CurrentProgram() *Program {
	p, err := c.programs.Get(uint32(c.occupant(ProgramPoint)))
	if err != nil {
		return nil
	}
	return p
}

// BoundFramebuffer returns the framebuffer at target, or nil when the
// default framebuffer is current there. ReadDrawFramebuffer reports the
// draw point.
func (c *Context) BoundFramebuffer(target FramebufferTarget) *Framebuffer {
	pts := target.Points()
	if len(pts) == 0 {
		return nil
	}
	f, err := c.framebuffers.Get(uint32(c.occupant(pts[0])))
	if err != nil {
		return nil
	}
	return f
}

// AttachedShaders returns the shaders attached to p in attach order.
func (c *Context) AttachedShaders(p *Program) []*Shader {
	return c.graph.Attached(p)
}

// ShaderDependents returns the number of programs s is attached to.
func (c *Context) ShaderDependents(s *Shader) int {
	return c.graph.Dependents(s)
}

// CanDelete reports whether deleting r would be accepted.
func (c *Context) CanDelete(r Resource) bool {
	if r.Deleted() {
		return false
	}
	switch v := r.(type) {
	case *Shader:
		return c.liveShader(v) == nil && c.checkShaderDeletable(v) == nil
	case *Program:
		return c.liveProgram(v) == nil && v.linked && !c.IsBound(v)
	case *Buffer:
		return c.liveBuffer(v) == nil && !c.IsBound(v)
	case *Texture:
		return c.liveTexture(v) == nil && !c.IsBound(v)
	case *VertexLayout:
		return c.liveVertexLayout(v) == nil && !c.IsBound(v)
	case *Framebuffer:
		return c.liveFramebuffer(v) == nil && !c.IsBound(v)
	}
	return false
}

// Stats is a snapshot of a context.
type Stats struct {
	ContextID uuid.UUID

	// Live and Deleted count resources per kind.
	Live    map[Kind]int
	Deleted map[Kind]int

	// BoundPoints is the number of occupied binding points.
	BoundPoints int

	// Attachments is the number of shader -> program edges.
	Attachments int

	Committed      int
	Rejected       int
	NativeFailures int
	Draws          int
	Clears         int
}

// Stats returns a snapshot of resource counts and call outcomes.
func (c *Context) Stats() Stats {
	s := Stats{
		ContextID:      c.id,
		Live:           make(map[Kind]int, len(Kinds)),
		Deleted:        make(map[Kind]int, len(Kinds)),
		BoundPoints:    c.table.Len(),
		Attachments:    c.graph.Edges(),
		Committed:      c.counters.committed,
		Rejected:       c.counters.rejected,
		NativeFailures: c.counters.nativeFailures,
		Draws:          c.counters.draws,
		Clears:         c.counters.clears,
	}
	s.Live[KindBuffer], s.Deleted[KindBuffer] = c.buffers.Len(), c.buffers.Removed()
	s.Live[KindTexture], s.Deleted[KindTexture] = c.textures.Len(), c.textures.Removed()
	s.Live[KindVertexLayout], s.Deleted[KindVertexLayout] = c.layouts.Len(), c.layouts.Removed()
	s.Live[KindShader], s.Deleted[KindShader] = c.shaders.Len(), c.shaders.Removed()
	s.Live[KindProgram], s.Deleted[KindProgram] = c.programs.Len(), c.programs.Removed()
	s.Live[KindFramebuffer], s.Deleted[KindFramebuffer] = c.framebuffers.Len(), c.framebuffers.Removed()
	return s
}

// String dumps the live resources and occupied binding points.
func (c *Context) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "context %s", c.id)
	if c.label != "" {
		fmt.Fprintf(&sb, " (%s)", c.label)
	}
	sb.WriteByte('\n')

	c.buffers.Each(func(id uint32, b *Buffer) {
		fmt.Fprintf(&sb, "  buffer %d", id)
		if ds, ok := b.DataStore(); ok {
			fmt.Fprintf(&sb, " store=%dB/%s", ds.Size, ds.Usage)
		}
		writePoints(&sb, c.table.Points(keyOf(b)))
	})
	c.textures.Each(func(id uint32, t *Texture) {
		fmt.Fprintf(&sb, "  texture %d", id)
		if target, ok := c.TextureTarget(t); ok {
			fmt.Fprintf(&sb, " type=%s", target)
		}
		if info, ok := t.Level(0); ok {
			fmt.Fprintf(&sb, " base=%dx%d/%s levels=%d", info.Width, info.Height, info.Format, t.Levels())
		}
		writePoints(&sb, c.table.Points(keyOf(t)))
	})
	c.layouts.Each(func(id uint32, v *VertexLayout) {
		fmt.Fprintf(&sb, "  vertex-layout %d pointers=%d enabled=%v", id, len(v.pointers), v.EnabledAttribs())
		writePoints(&sb, c.table.Points(keyOf(v)))
	})
	c.shaders.Each(func(id uint32, s *Shader) {
		fmt.Fprintf(&sb, "  shader %d kind=%s source=%t compiled=%t linked=%t\n",
			id, s.kind, s.hasSource, s.compiled, s.linked)
	})
	c.programs.Each(func(id uint32, p *Program) {
		ids := make([]ID, 0)
		for _, s := range c.graph.Attached(p) {
			ids = append(ids, s.id)
		}
		fmt.Fprintf(&sb, "  program %d shaders=%v linked=%t", id, ids, p.linked)
		writePoints(&sb, c.table.Points(keyOf(p)))
	})
	c.framebuffers.Each(func(id uint32, f *Framebuffer) {
		fmt.Fprintf(&sb, "  framebuffer %d", id)
		writePoints(&sb, c.table.Points(keyOf(f)))
	})
	fmt.Fprintf(&sb, "  default-framebuffer planes=%v draw=%s\n", c.def.Planes(), c.def.draw)
	return sb.String()
}

func writePoints(sb *strings.Builder, pts []string) {
	if len(pts) > 0 {
		fmt.Fprintf(sb, " bound=%s", strings.Join(pts, ","))
	}
	sb.WriteByte('\n')
}
