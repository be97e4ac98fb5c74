package glstate

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
)

// ShaderKind is the pipeline stage a shader runs in.
type ShaderKind uint8

// Shader kinds.
const (
	VertexShader ShaderKind = iota
	FragmentShader
	GeometryShader
)

var shaderKindNames = [...]string{
	VertexShader:   "vertex",
	FragmentShader: "fragment",
	GeometryShader: "geometry",
}

func (k ShaderKind) String() string {
	if int(k) < len(shaderKindNames) {
		return shaderKindNames[k]
	}
	return fmt.Sprintf("ShaderKind(%d)", k)
}

func (k ShaderKind) valid() bool { return int(k) < len(shaderKindNames) }

// Stage returns the GPU shader stage of k. Geometry shaders have no stage
// on WebGPU-class devices and map to gputypes.ShaderStageNone.
func (k ShaderKind) Stage() gputypes.ShaderStage {
	switch k {
	case VertexShader:
		return gputypes.ShaderStageVertex
	case FragmentShader:
		return gputypes.ShaderStageFragment
	}
	return gputypes.ShaderStageNone
}

// ParseShaderKind returns the shader kind named s.
func ParseShaderKind(s string) (ShaderKind, error) {
	s = strings.ToLower(s)
	for k, name := range shaderKindNames {
		if name == s {
			return ShaderKind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown shader kind %q", ErrInvalidArgument, s)
}

// Shader is one compilation unit. It moves from created to source set to
// compiled, and is marked linked once a program linked with it.
type Shader struct {
	ObjectHeader
	kind      ShaderKind
	source    string
	hasSource bool
	compiled  bool
	linked    bool
	infoLog   string
}

// Kind returns KindShader.
func (s *Shader) Kind() Kind { return KindShader }

// ShaderKind returns the stage the shader was created for.
func (s *Shader) ShaderKind() ShaderKind { return s.kind }

// Source returns the source set with ShaderSource.
func (s *Shader) Source() (string, bool) { return s.source, s.hasSource }

// Compiled reports whether the shader compiled successfully.
func (s *Shader) Compiled() bool { return s.compiled }

// Linked reports whether a program linked with the shader.
func (s *Shader) Linked() bool { return s.linked }

// InfoLog returns the compiler output of the successful compile.
func (s *Shader) InfoLog() string { return s.infoLog }

func (s *Shader) String() string { return fmt.Sprintf("%s shader %d", s.kind, s.id) }

func (s *Shader) header() *ObjectHeader {
	if s == nil {
		return nil
	}
	return &s.ObjectHeader
}

func (c *Context) liveShader(s *Shader) error {
	if s == nil {
		return errNilResource
	}
	return live(c.shaders, &s.ObjectHeader, s)
}

// CreateShader creates a shader of the given kind.
func (c *Context) CreateShader(kind ShaderKind) (*Shader, error) {
	if !kind.valid() {
		return nil, c.reject(op{name: "CreateShader", kind: KindShader},
			fmt.Errorf("%w: shader kind %d", ErrInvalidArgument, kind))
	}
	return create(c, "CreateShader", KindShader, c.shaders, func(id ID) *Shader {
		return &Shader{ObjectHeader: ObjectHeader{id: id}, kind: kind}
	})
}

// ShaderSource sets the source of s. The source can be set once.
func (c *Context) ShaderSource(s *Shader, source string) error {
	return c.sequence(opOn("ShaderSource", KindShader, s.header()), func() error {
		if err := c.liveShader(s); err != nil {
			return err
		}
		if s.hasSource {
			return ErrSourceAlreadySet
		}
		return nil
	}, nil, func() {
		s.source = source
		s.hasSource = true
	})
}

// CompileShader compiles the source of s. A rejected source returns a
// *NativeError matching ErrCompile that carries the compiler log; the
// shader stays uncompiled.
func (c *Context) CompileShader(s *Shader) error {
	o := opOn("CompileShader", KindShader, s.header())
	var res CompileResult
	return c.sequence(o, func() error {
		if err := c.liveShader(s); err != nil {
			return err
		}
		if !s.hasSource {
			return ErrNoSource
		}
		if s.compiled {
			return ErrAlreadyCompiled
		}
		return nil
	}, func() error {
		var err error
		res, err = c.native.Compile(s.id, s.kind, s.source)
		if err != nil {
			return err
		}
		if !res.OK {
			return &NativeError{Op: o.name, Kind: o.kind, ID: o.id, Log: res.Log, Err: ErrCompile}
		}
		return nil
	}, func() {
		s.compiled = true
		s.infoLog = res.Log
	})
}

// DeleteShader deletes s. A shader can only be deleted after a program
// linked with it, and not while an unlinked program still holds it.
func (c *Context) DeleteShader(s *Shader) error {
	o := opOn("DeleteShader", KindShader, s.header())
	return c.destroy(o, func() error {
		if err := c.liveShader(s); err != nil {
			return err
		}
		return c.checkShaderDeletable(s)
	}, func() {
		_ = c.shaders.Remove(uint32(s.id))
		s.markDeleted()
	})
}

func (c *Context) checkShaderDeletable(s *Shader) error {
	if !s.linked {
		return ErrShaderNotLinked
	}
	for _, p := range c.graph.Programs(s) {
		if !p.linked {
			return fmt.Errorf("%w: program %d", ErrShaderAttached, p.id)
		}
	}
	return nil
}
