package trace

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/glstate"
)

// Failure is a step whose outcome did not match the trace.
type Failure struct {
	Step int
	Op   string
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("step %d (%s): %v", f.Step, f.Op, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Report summarizes a replay.
type Report struct {
	// Steps is the number of steps executed, including the failing one.
	Steps int

	// Expected lists the steps that failed as their expect asked.
	Expected []Failure

	// Failure is the first unexpected outcome. Replay stops there.
	Failure *Failure

	Stats glstate.Stats
}

// OK reports whether every step behaved as recorded.
func (r *Report) OK() bool { return r.Failure == nil }

func (r *Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "steps: %d, expected failures: %d\n", r.Steps, len(r.Expected))
	for _, f := range r.Expected {
		fmt.Fprintf(&sb, "  expected  %v\n", &f)
	}
	if r.Failure != nil {
		fmt.Fprintf(&sb, "  FAILED    %v\n", r.Failure)
	} else {
		sb.WriteString("  ok\n")
	}
	fmt.Fprintf(&sb, "committed: %d, rejected: %d, native failures: %d, draws: %d",
		r.Stats.Committed, r.Stats.Rejected, r.Stats.NativeFailures, r.Stats.Draws)
	return sb.String()
}

// Replay creates a context on n with the trace header options appended to
// opts and runs the steps.
func Replay(ctx context.Context, n glstate.Native, t *Trace, opts ...glstate.ContextOption) (*Report, error) {
	gl, err := glstate.NewContext(n, append(opts, t.Options()...)...)
	if err != nil {
		return nil, err
	}
	return Run(ctx, gl, t.Steps)
}

// Run executes steps against gl in order. The returned error is non-nil
// only when the steps cannot be replayed at all: an unknown op or handle,
// a malformed argument, or ctx being done.
func Run(ctx context.Context, gl *glstate.Context, steps []Step) (*Report, error) {
	r := &runner{gl: gl, handles: make(map[string]glstate.Resource)}
	rep := &Report{}
	defer func() { rep.Stats = gl.Stats() }()

	log := glstate.Logger().With("context_id", gl.ID())
	for i, s := range steps {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		fn, ok := ops[s.Op]
		if !ok {
			return rep, fmt.Errorf("%w: step %d: unknown op %q", ErrInvalidTrace, i, s.Op)
		}
		rep.Steps++

		var stepErr *stepError
		err := fn(r, s)
		if errors.As(err, &stepErr) {
			return rep, fmt.Errorf("%w: step %d (%s): %v", ErrInvalidTrace, i, s.Op, stepErr.err)
		}

		if f := check(s, err); f != nil {
			f.Step = i
			rep.Failure = f
			log.Warn("trace: unexpected outcome", "step", i, "op", s.Op, "err", f.Err)
			return rep, nil
		}
		if err != nil {
			rep.Expected = append(rep.Expected, Failure{Step: i, Op: s.Op, Err: err})
			log.Debug("trace: expected failure", "step", i, "op", s.Op, "err", err)
		}
	}
	return rep, nil
}

// check compares the outcome of s with its expect field.
func check(s Step, err error) *Failure {
	if s.Expect == "" {
		if err != nil {
			return &Failure{Op: s.Op, Err: err}
		}
		return nil
	}
	if err == nil {
		return &Failure{Op: s.Op, Err: fmt.Errorf("%w: want %s", ErrUnexpectedSuccess, s.Expect)}
	}
	if !errors.Is(err, errorNames[s.Expect]) {
		return &Failure{Op: s.Op, Err: fmt.Errorf("%w: want %s, got %w", ErrWrongError, s.Expect, err)}
	}
	return nil
}

// stepError marks a step that cannot be executed.
type stepError struct{ err error }

func (e *stepError) Error() string { return e.err.Error() }

func invalid(format string, args ...any) error {
	return &stepError{err: fmt.Errorf(format, args...)}
}

type runner struct {
	gl      *glstate.Context
	handles map[string]glstate.Resource
}

func (r *runner) define(name string, res glstate.Resource, err error) error {
	if err != nil {
		return err
	}
	if name == "" {
		return invalid("missing name")
	}
	if _, ok := r.handles[name]; ok {
		return invalid("handle %q already defined", name)
	}
	r.handles[name] = res
	return nil
}

// lookup returns the resource behind name. Deleted resources stay
// resolvable so traces can exercise use after delete.
func lookup[T glstate.Resource](r *runner, name string) (T, error) {
	var zero T
	res, ok := r.handles[name]
	if !ok {
		return zero, invalid("undefined handle %q", name)
	}
	t, ok := res.(T)
	if !ok {
		return zero, invalid("handle %q is a %s", name, res.Kind())
	}
	return t, nil
}

// parse wraps enum parsing errors as malformed steps.
func parse[T any](fn func(string) (T, error), s string) (T, error) {
	v, err := fn(s)
	if err != nil {
		return v, &stepError{err: err}
	}
	return v, nil
}

var ops = map[string]func(*runner, Step) error{
	// Buffers.
	"gen-buffer": func(r *runner, s Step) error {
		b, err := r.gl.GenBuffer()
		return r.define(s.Name, b, err)
	},
	"bind-buffer": func(r *runner, s Step) error {
		b, err := lookup[*glstate.Buffer](r, s.Name)
		if err != nil {
			return err
		}
		target, err := parse(glstate.ParseBufferTarget, s.Target)
		if err != nil {
			return err
		}
		return r.gl.BindBuffer(target, b)
	},
	"unbind-buffer": func(r *runner, s Step) error {
		target, err := parse(glstate.ParseBufferTarget, s.Target)
		if err != nil {
			return err
		}
		return r.gl.UnbindBuffer(target)
	},
	"buffer-data": func(r *runner, s Step) error {
		target, err := parse(glstate.ParseBufferTarget, s.Target)
		if err != nil {
			return err
		}
		usage, err := parse(glstate.ParseBufferUsage, s.Usage)
		if err != nil {
			return err
		}
		size := s.Size
		if size == 0 {
			size = len(s.Data)
		}
		return r.gl.BufferData(target, size, s.Data, usage)
	},
	"buffer-sub-data": func(r *runner, s Step) error {
		target, err := parse(glstate.ParseBufferTarget, s.Target)
		if err != nil {
			return err
		}
		return r.gl.BufferSubData(target, s.Offset, s.Data)
	},
	"copy-buffer-sub-data": func(r *runner, s Step) error {
		read, err := parse(glstate.ParseBufferTarget, s.Read)
		if err != nil {
			return err
		}
		write, err := parse(glstate.ParseBufferTarget, s.Write)
		if err != nil {
			return err
		}
		return r.gl.CopyBufferSubData(read, write, s.ReadOffset, s.WriteOffset, s.Size)
	},
	"delete-buffer": func(r *runner, s Step) error {
		b, err := lookup[*glstate.Buffer](r, s.Name)
		if err != nil {
			return err
		}
		return r.gl.DeleteBuffer(b)
	},

	// Textures.
	"gen-texture": func(r *runner, s Step) error {
		t, err := r.gl.GenTexture()
		return r.define(s.Name, t, err)
	},
	"bind-texture": func(r *runner, s Step) error {
		t, err := lookup[*glstate.Texture](r, s.Name)
		if err != nil {
			return err
		}
		target, err := parse(glstate.ParseTextureTarget, s.Target)
		if err != nil {
			return err
		}
		return r.gl.BindTexture(target, t)
	},
	"unbind-texture": func(r *runner, s Step) error {
		target, err := parse(glstate.ParseTextureTarget, s.Target)
		if err != nil {
			return err
		}
		return r.gl.UnbindTexture(target)
	},
	"tex-image": func(r *runner, s Step) error {
		target, err := parse(glstate.ParseTextureTarget, s.Target)
		if err != nil {
			return err
		}
		format := glstate.FormatRGBA8
		if s.Format != "" {
			if format, err = parse(glstate.ParsePixelFormat, s.Format); err != nil {
				return err
			}
		}
		return r.gl.TexImage(target, s.Level, glstate.PixelData{
			Width:  s.Width,
			Height: s.Height,
			Depth:  s.Depth,
			Format: format,
			Pixels: s.Data,
		})
	},
	"generate-mipmap": func(r *runner, s Step) error {
		target, err := parse(glstate.ParseTextureTarget, s.Target)
		if err != nil {
			return err
		}
		return r.gl.GenerateMipmap(target)
	},
	"delete-texture": func(r *runner, s Step) error {
		t, err := lookup[*glstate.Texture](r, s.Name)
		if err != nil {
			return err
		}
		return r.gl.DeleteTexture(t)
	},

	// Vertex layouts.
	"gen-vertex-layout": func(r *runner, s Step) error {
		v, err := r.gl.GenVertexLayout()
		return r.define(s.Name, v, err)
	},
	"bind-vertex-layout": func(r *runner, s Step) error {
		v, err := lookup[*glstate.VertexLayout](r, s.Name)
		if err != nil {
			return err
		}
		return r.gl.BindVertexLayout(v)
	},
	"unbind-vertex-layout": func(r *runner, _ Step) error {
		return r.gl.UnbindVertexLayout()
	},
	"vertex-attrib-pointer": func(r *runner, s Step) error {
		typ := glstate.Float
		if s.Type != "" {
			var err error
			if typ, err = parse(glstate.ParseComponentType, s.Type); err != nil {
				return err
			}
		}
		return r.gl.VertexAttribPointer(glstate.AttribPointer{
			Index:      s.Index,
			Size:       s.Size,
			Type:       typ,
			Normalized: s.Normalized,
			Stride:     s.Stride,
			Offset:     s.Offset,
		})
	},
	"enable-vertex-attrib": func(r *runner, s Step) error {
		return r.gl.EnableVertexAttrib(s.Index)
	},
	"disable-vertex-attrib": func(r *runner, s Step) error {
		return r.gl.DisableVertexAttrib(s.Index)
	},
	"delete-vertex-layout": func(r *runner, s Step) error {
		v, err := lookup[*glstate.VertexLayout](r, s.Name)
		if err != nil {
			return err
		}
		return r.gl.DeleteVertexLayout(v)
	},

	// Shaders and programs.
	"create-shader": func(r *runner, s Step) error {
		kind, err := parse(glstate.ParseShaderKind, s.Kind)
		if err != nil {
			return err
		}
		sh, err := r.gl.CreateShader(kind)
		return r.define(s.Name, sh, err)
	},
	"shader-source": func(r *runner, s Step) error {
		sh, err := lookup[*glstate.Shader](r, s.Name)
		if err != nil {
			return err
		}
		return r.gl.ShaderSource(sh, s.Source)
	},
	"compile-shader": func(r *runner, s Step) error {
		sh, err := lookup[*glstate.Shader](r, s.Name)
		if err != nil {
			return err
		}
		return r.gl.CompileShader(sh)
	},
	"delete-shader": func(r *runner, s Step) error {
		sh, err := lookup[*glstate.Shader](r, s.Name)
		if err != nil {
			return err
		}
		return r.gl.DeleteShader(sh)
	},
	"create-program": func(r *runner, s Step) error {
		p, err := r.gl.CreateProgram()
		return r.define(s.Name, p, err)
	},
	"attach-shader": func(r *runner, s Step) error {
		p, sh, err := programShader(r, s)
		if err != nil {
			return err
		}
		return r.gl.AttachShader(p, sh)
	},
	"detach-shader": func(r *runner, s Step) error {
		p, sh, err := programShader(r, s)
		if err != nil {
			return err
		}
		return r.gl.DetachShader(p, sh)
	},
	"link-program": func(r *runner, s Step) error {
		p, err := lookup[*glstate.Program](r, s.Name)
		if err != nil {
			return err
		}
		return r.gl.LinkProgram(p)
	},
	"attrib-location": func(r *runner, s Step) error {
		p, err := lookup[*glstate.Program](r, s.Name)
		if err != nil {
			return err
		}
		loc, err := r.gl.AttribLocation(p, s.Attribute)
		if err != nil {
			return err
		}
		if s.Location != nil && *s.Location != loc {
			return fmt.Errorf("%w: %s is at %d, want %d", ErrLocationMismatch, s.Attribute, loc, *s.Location)
		}
		return nil
	},
	"use-program": func(r *runner, s Step) error {
		p, err := lookup[*glstate.Program](r, s.Name)
		if err != nil {
			return err
		}
		return r.gl.UseProgram(p)
	},
	"release-program": func(r *runner, _ Step) error {
		return r.gl.ReleaseProgram()
	},
	"delete-program": func(r *runner, s Step) error {
		p, err := lookup[*glstate.Program](r, s.Name)
		if err != nil {
			return err
		}
		return r.gl.DeleteProgram(p)
	},

	// Framebuffers and drawing.
	"gen-framebuffer": func(r *runner, s Step) error {
		f, err := r.gl.GenFramebuffer()
		return r.define(s.Name, f, err)
	},
	"bind-framebuffer": func(r *runner, s Step) error {
		f, err := lookup[*glstate.Framebuffer](r, s.Name)
		if err != nil {
			return err
		}
		target, err := parse(glstate.ParseFramebufferTarget, s.Target)
		if err != nil {
			return err
		}
		return r.gl.BindFramebuffer(target, f)
	},
	"unbind-framebuffer": func(r *runner, s Step) error {
		target, err := parse(glstate.ParseFramebufferTarget, s.Target)
		if err != nil {
			return err
		}
		return r.gl.UnbindFramebuffer(target)
	},
	"delete-framebuffer": func(r *runner, s Step) error {
		f, err := lookup[*glstate.Framebuffer](r, s.Name)
		if err != nil {
			return err
		}
		return r.gl.DeleteFramebuffer(f)
	},
	"draw-plane": func(r *runner, s Step) error {
		p, err := parse(glstate.ParsePlane, s.Plane)
		if err != nil {
			return err
		}
		return r.gl.DrawPlane(p)
	},
	"clear": func(r *runner, s Step) error {
		m, err := parse(glstate.ParseClearMask, s.Mask)
		if err != nil {
			return err
		}
		return r.gl.Clear(m)
	},
	"draw": func(r *runner, s Step) error {
		mode := glstate.Triangles
		if s.Mode != "" {
			var err error
			if mode, err = parse(glstate.ParseDrawMode, s.Mode); err != nil {
				return err
			}
		}
		return r.gl.Draw(mode, s.First, s.Count)
	},
}

func programShader(r *runner, s Step) (*glstate.Program, *glstate.Shader, error) {
	p, err := lookup[*glstate.Program](r, s.Name)
	if err != nil {
		return nil, nil, err
	}
	sh, err := lookup[*glstate.Shader](r, s.Shader)
	if err != nil {
		return nil, nil, err
	}
	return p, sh, nil
}
