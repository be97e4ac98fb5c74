package glstate

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gogpu/glstate/internal/binding"
	"github.com/gogpu/glstate/internal/depgraph"
	"github.com/gogpu/glstate/internal/registry"
)

// Binding classes declared in every context.
const (
	classBuffer       = "buffer"
	classTexture      = "texture"
	classVertexLayout = "vertex-layout"
	classProgram      = "program"
	classFramebuffer  = "framebuffer"
)

// Context is the shadow of one native graphics context. It owns the
// resources created through it, the binding points they occupy and the
// shader/program dependency graph.
//
// Context is not safe for concurrent use.
type Context struct {
	id     uuid.UUID
	label  string
	native Native
	policy LinkPolicy
	log    *slog.Logger

	buffers      *registry.Registry[*Buffer]
	textures     *registry.Registry[*Texture]
	layouts      *registry.Registry[*VertexLayout]
	shaders      *registry.Registry[*Shader]
	programs     *registry.Registry[*Program]
	framebuffers *registry.Registry[*Framebuffer]

	table *binding.Table[objectKey]
	graph *depgraph.Graph[*Program, *Shader]
	def   *DefaultFramebuffer

	counters counters
}

// counters tracks outcomes of sequenced operations.
type counters struct {
	committed      int
	rejected       int
	nativeFailures int
	draws          int
	clears         int
}

// NewContext creates a context driving n.
func NewContext(n Native, opts ...ContextOption) (*Context, error) {
	if n == nil {
		return nil, fmt.Errorf("%w: nil native layer", ErrInvalidArgument)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Context{
		id:           uuid.New(),
		label:        o.label,
		native:       n,
		policy:       o.policy,
		log:          o.logger,
		buffers:      registry.New[*Buffer](),
		textures:     registry.New[*Texture](),
		layouts:      registry.New[*VertexLayout](),
		shaders:      registry.New[*Shader](),
		programs:     registry.New[*Program](),
		framebuffers: registry.New[*Framebuffer](),
		table:        binding.New[objectKey](),
		graph:        depgraph.New[*Program, *Shader](),
		def:          newDefaultFramebuffer(o.stereo),
	}
	c.declarePoints()

	if o.logger != nil {
		propagateLogger(n, o.logger)
	}
	c.logAt(slog.LevelInfo, "glstate: context created",
		"native", fmt.Sprintf("%T", n),
		"stereo", o.stereo,
	)
	return c, nil
}

func (c *Context) declarePoints() {
	names := func(pts []Point) []string {
		out := make([]string, len(pts))
		for i, p := range pts {
			out[i] = p.String()
		}
		return out
	}

	bufs := make([]Point, 0, len(BufferTargets))
	for _, t := range BufferTargets {
		bufs = append(bufs, t.Point())
	}
	texs := make([]Point, 0, len(TextureTargets))
	for _, t := range TextureTargets {
		texs = append(texs, t.Point())
	}

	c.table.Declare(classBuffer, binding.Policy{MultiPoint: true}, names(bufs)...)
	c.table.Declare(classTexture, binding.Policy{Typed: true}, names(texs)...)
	c.table.Declare(classVertexLayout, binding.Policy{}, VertexLayoutPoint.String())
	c.table.Declare(classProgram, binding.Policy{}, ProgramPoint.String())
	c.table.Declare(classFramebuffer, binding.Policy{MultiPoint: true}, names(ReadDrawFramebuffer.Points())...)
}

// ID returns the unique id of the context.
func (c *Context) ID() uuid.UUID { return c.id }

// Label returns the label set with WithLabel.
func (c *Context) Label() string { return c.label }

// LinkPolicy returns the policy LinkProgram enforces.
func (c *Context) LinkPolicy() LinkPolicy { return c.policy }

// DefaultFramebuffer returns the window-system framebuffer of the context.
func (c *Context) DefaultFramebuffer() *DefaultFramebuffer { return c.def }
