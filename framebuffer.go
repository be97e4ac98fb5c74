package glstate

import (
	"fmt"
	"strings"
)

// Framebuffer is an application-created render target.
type Framebuffer struct {
	ObjectHeader
}

// Kind returns KindFramebuffer.
func (f *Framebuffer) Kind() Kind { return KindFramebuffer }

func (f *Framebuffer) header() *ObjectHeader {
	if f == nil {
		return nil
	}
	return &f.ObjectHeader
}

func (c *Context) liveFramebuffer(f *Framebuffer) error {
	if f == nil {
		return errNilResource
	}
	return live(c.framebuffers, &f.ObjectHeader, f)
}

// GenFramebuffer creates a framebuffer.
func (c *Context) GenFramebuffer() (*Framebuffer, error) {
	return create(c, "GenFramebuffer", KindFramebuffer, c.framebuffers, func(id ID) *Framebuffer {
		return &Framebuffer{ObjectHeader: ObjectHeader{id: id}}
	})
}

// BindFramebuffer binds f at target. ReadDrawFramebuffer binds both points;
// both must be free.
func (c *Context) BindFramebuffer(target FramebufferTarget, f *Framebuffer) error {
	o := opOn("BindFramebuffer", KindFramebuffer, f.header())
	if f == nil {
		return c.reject(o, errNilResource)
	}
	key := keyOf(f)
	pts := target.Points()
	return c.sequence(o, func() error {
		if !target.valid() {
			return fmt.Errorf("%w: framebuffer target %d", ErrInvalidArgument, target)
		}
		if err := c.liveFramebuffer(f); err != nil {
			return err
		}
		for _, pt := range pts {
			if err := c.table.CheckBind(pt.String(), key); err != nil {
				return err
			}
		}
		return nil
	}, func() error {
		return c.native.Bind(target.Point(), f.id)
	}, func() {
		for _, pt := range pts {
			_ = c.table.Bind(pt.String(), key)
		}
	})
}

// UnbindFramebuffer empties target, making the default framebuffer current
// there again. ReadDrawFramebuffer requires both points occupied.
func (c *Context) UnbindFramebuffer(target FramebufferTarget) error {
	pts := target.Points()
	o := op{name: "UnbindFramebuffer", kind: KindFramebuffer}
	if len(pts) > 0 {
		o.id = c.occupant(pts[0])
	}
	return c.sequence(o, func() error {
		if !target.valid() {
			return fmt.Errorf("%w: framebuffer target %d", ErrInvalidArgument, target)
		}
		for _, pt := range pts {
			if _, err := c.table.CheckUnbind(pt.String()); err != nil {
				return err
			}
		}
		return nil
	}, func() error {
		return c.native.Bind(target.Point(), NoID)
	}, func() {
		for _, pt := range pts {
			_, _ = c.table.Unbind(pt.String())
		}
	})
}

// DeleteFramebuffer deletes f. The framebuffer must not be bound.
func (c *Context) DeleteFramebuffer(f *Framebuffer) error {
	o := opOn("DeleteFramebuffer", KindFramebuffer, f.header())
	return c.destroy(o, func() error {
		if err := c.liveFramebuffer(f); err != nil {
			return err
		}
		return c.checkUnbound(f)
	}, func() {
		_ = c.framebuffers.Remove(uint32(f.id))
		_ = c.table.Forget(keyOf(f))
		f.markDeleted()
	})
}

// Plane names a buffer of the default framebuffer.
type Plane uint8

// Planes of the default framebuffer, followed by aliases that resolve to
// one of them.
const (
	FrontLeft Plane = iota
	BackLeft
	FrontRight
	BackRight
	DepthPlane
	StencilPlane

	Left
	Right
	Front
	Back
	FrontAndBack
)

var planeNames = [...]string{
	FrontLeft:    "front-left",
	BackLeft:     "back-left",
	FrontRight:   "front-right",
	BackRight:    "back-right",
	DepthPlane:   "depth",
	StencilPlane: "stencil",
	Left:         "left",
	Right:        "right",
	Front:        "front",
	Back:         "back",
	FrontAndBack: "front-and-back",
}

func (p Plane) String() string {
	if int(p) < len(planeNames) {
		return planeNames[p]
	}
	return fmt.Sprintf("Plane(%d)", p)
}

func (p Plane) valid() bool { return int(p) < len(planeNames) }

// Resolve maps an alias to the plane it selects.
func (p Plane) Resolve() Plane {
	switch p {
	case Left, Front, FrontAndBack:
		return FrontLeft
	case Right:
		return FrontRight
	case Back:
		return BackLeft
	}
	return p
}

// Color reports whether p resolves to a color plane.
func (p Plane) Color() bool {
	switch p.Resolve() {
	case FrontLeft, BackLeft, FrontRight, BackRight:
		return true
	}
	return false
}

// ParsePlane returns the plane named s.
func ParsePlane(s string) (Plane, error) {
	s = strings.ToLower(s)
	for p, name := range planeNames {
		if name == s {
			return Plane(p), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown plane %q", ErrInvalidArgument, s)
}

// DefaultFramebuffer is the window-system framebuffer. It always exists,
// is never bound by name and cannot be deleted. It is the draw target
// whenever no framebuffer occupies the draw point.
type DefaultFramebuffer struct {
	stereo bool
	draw   Plane
}

func newDefaultFramebuffer(stereo bool) *DefaultFramebuffer {
	return &DefaultFramebuffer{stereo: stereo, draw: BackLeft}
}

// Stereo reports whether the right-hand planes exist.
func (d *DefaultFramebuffer) Stereo() bool { return d.stereo }

// DrawPlane returns the color plane draws go to.
func (d *DefaultFramebuffer) DrawPlane() Plane { return d.draw }

// Has reports whether plane p, after alias resolution, exists.
func (d *DefaultFramebuffer) Has(p Plane) bool {
	if !p.valid() {
		return false
	}
	switch p.Resolve() {
	case FrontRight, BackRight:
		return d.stereo
	}
	return true
}

// Planes lists the planes that exist.
func (d *DefaultFramebuffer) Planes() []Plane {
	out := make([]Plane, 0, 6)
	for p := FrontLeft; p <= StencilPlane; p++ {
		if d.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// DrawPlane selects the color plane of the default framebuffer that draws
// go to. The default framebuffer must be the current draw target.
func (c *Context) DrawPlane(p Plane) error {
	o := op{name: "DrawPlane", kind: KindFramebuffer}
	return c.sequence(o, func() error {
		if !p.valid() {
			return fmt.Errorf("%w: plane %d", ErrInvalidArgument, p)
		}
		if id := c.occupant(DrawFramebuffer.Point()); id != NoID {
			return fmt.Errorf("%w: framebuffer %d is bound for drawing", ErrNotDefaultFramebuffer, id)
		}
		if !p.Color() || !c.def.Has(p) {
			return fmt.Errorf("%w: %s", ErrUnavailablePlane, p)
		}
		return nil
	}, func() error {
		return c.native.Submit(DrawBufferCommand{Plane: p.Resolve()})
	}, func() {
		c.def.draw = p.Resolve()
	})
}
