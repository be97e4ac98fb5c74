package glstate

import (
	"fmt"
	"maps"
)

// Program links attached shaders into an executable pipeline.
type Program struct {
	ObjectHeader
	linked  bool
	infoLog string
	attribs map[string]int
}

// Kind returns KindProgram.
func (p *Program) Kind() Kind { return KindProgram }

// Linked reports whether the program linked successfully.
func (p *Program) Linked() bool { return p.linked }

// InfoLog returns the linker output of the successful link.
func (p *Program) InfoLog() string { return p.infoLog }

// Attributes returns the vertex input locations reported by the linker.
func (p *Program) Attributes() map[string]int { return maps.Clone(p.attribs) }

func (p *Program) String() string { return fmt.Sprintf("program %d", p.id) }

func (p *Program) header() *ObjectHeader {
	if p == nil {
		return nil
	}
	return &p.ObjectHeader
}

func (c *Context) liveProgram(p *Program) error {
	if p == nil {
		return errNilResource
	}
	return live(c.programs, &p.ObjectHeader, p)
}

// CreateProgram creates an empty program.
func (c *Context) CreateProgram() (*Program, error) {
	return create(c, "CreateProgram", KindProgram, c.programs, func(id ID) *Program {
		return &Program{ObjectHeader: ObjectHeader{id: id}}
	})
}

// AttachShader attaches s to p. The shader must be compiled and the
// program not yet linked.
func (c *Context) AttachShader(p *Program, s *Shader) error {
	o := opOn("AttachShader", KindProgram, p.header())
	return c.sequence(o, func() error {
		if err := c.liveProgram(p); err != nil {
			return err
		}
		if err := c.liveShader(s); err != nil {
			return err
		}
		if p.linked {
			return ErrProgramAlreadyLinked
		}
		if !s.compiled {
			return fmt.Errorf("%w: shader %d", ErrShaderNotCompiled, s.id)
		}
		return c.graph.CheckAttach(p, s)
	}, func() error {
		return c.native.Submit(AttachShaderCommand{Program: p.id, Shader: s.id})
	}, func() {
		_ = c.graph.Attach(p, s)
	})
}

// DetachShader detaches s from p before p is linked.
func (c *Context) DetachShader(p *Program, s *Shader) error {
	o := opOn("DetachShader", KindProgram, p.header())
	return c.sequence(o, func() error {
		if err := c.liveProgram(p); err != nil {
			return err
		}
		if err := c.liveShader(s); err != nil {
			return err
		}
		if p.linked {
			return ErrProgramAlreadyLinked
		}
		return c.graph.CheckDetach(p, s)
	}, func() error {
		return c.native.Submit(DetachShaderCommand{Program: p.id, Shader: s.id})
	}, func() {
		_ = c.graph.Detach(p, s)
	})
}

// LinkProgram links p from its attached shaders. Every attached shader must
// be compiled and the set must satisfy the context's LinkPolicy. On success
// the program and all attached shaders are marked linked. A rejected link
// returns a *NativeError matching ErrLink that carries the linker log.
func (c *Context) LinkProgram(p *Program) error {
	o := opOn("LinkProgram", KindProgram, p.header())
	var (
		attached []*Shader
		res      LinkResult
	)
	return c.sequence(o, func() error {
		if err := c.liveProgram(p); err != nil {
			return err
		}
		if p.linked {
			return ErrProgramAlreadyLinked
		}
		attached = c.AttachedShaders(p)
		kinds := make([]ShaderKind, 0, len(attached))
		for _, s := range attached {
			if !s.compiled {
				return fmt.Errorf("%w: shader %d", ErrNotAllShadersCompiled, s.id)
			}
			kinds = append(kinds, s.kind)
		}
		return c.policy.Check(kinds)
	}, func() error {
		ids := make([]ID, len(attached))
		for i, s := range attached {
			ids[i] = s.id
		}
		var err error
		res, err = c.native.Link(p.id, ids)
		if err != nil {
			return err
		}
		if !res.OK {
			return &NativeError{Op: o.name, Kind: o.kind, ID: o.id, Log: res.Log, Err: ErrLink}
		}
		return nil
	}, func() {
		p.linked = true
		p.infoLog = res.Log
		p.attribs = maps.Clone(res.Attributes)
		for _, s := range attached {
			s.linked = true
		}
	})
}

// AttribLocation returns the location the linker assigned to the vertex
// input name of p.
func (c *Context) AttribLocation(p *Program, name string) (int, error) {
	o := opOn("AttribLocation", KindProgram, p.header())
	if err := c.liveProgram(p); err != nil {
		return -1, c.reject(o, err)
	}
	if !p.linked {
		return -1, c.reject(o, ErrProgramNotLinked)
	}
	loc, ok := p.attribs[name]
	if !ok {
		return -1, c.reject(o, fmt.Errorf("%w: %q", ErrUnknownAttribute, name))
	}
	return loc, nil
}

// UseProgram makes p the current program. Only linked programs can be used.
func (c *Context) UseProgram(p *Program) error {
	o := opOn("UseProgram", KindProgram, p.header())
	if p == nil {
		return c.reject(o, errNilResource)
	}
	return c.bindPoint(o, ProgramPoint, keyOf(p), func() error {
		if err := c.liveProgram(p); err != nil {
			return err
		}
		if !p.linked {
			return ErrProgramNotLinked
		}
		return nil
	})
}

// ReleaseProgram clears the current program.
func (c *Context) ReleaseProgram() error {
	return c.unbindPoint("ReleaseProgram", ProgramPoint)
}

// DeleteProgram deletes p. The program must be linked and not in use.
// Its attached shaders stay alive.
func (c *Context) DeleteProgram(p *Program) error {
	o := opOn("DeleteProgram", KindProgram, p.header())
	return c.destroy(o, func() error {
		if err := c.liveProgram(p); err != nil {
			return err
		}
		if !p.linked {
			return ErrProgramNotLinked
		}
		return c.checkUnbound(p)
	}, func() {
		c.graph.RemoveProgram(p)
		_ = c.programs.Remove(uint32(p.id))
		_ = c.table.Forget(keyOf(p))
		p.markDeleted()
	})
}
