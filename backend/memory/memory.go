package memory

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/gogpu/glstate"
	"github.com/gogpu/glstate/backend"
)

// Driver errors.
var (
	// ErrUnknownObject is returned for ids the driver did not hand out or
	// already deleted.
	ErrUnknownObject = errors.New("memory: unknown object")

	// ErrInjected is the default error of FailNext.
	ErrInjected = errors.New("memory: injected failure")
)

// Call names recorded by the driver and accepted by FailNext.
const (
	CallCreate  = "create"
	CallBind    = "bind"
	CallCompile = "compile"
	CallLink    = "link"
	CallSubmit  = "submit"
	CallDelete  = "delete"
)

func init() {
	backend.Register(backend.BackendMemory, func() glstate.Native { return New() })
}

// Call is one recorded driver call.
type Call struct {
	Name string
	Kind glstate.Kind
	ID   glstate.ID
	Arg  string
}

func (c Call) String() string {
	if c.Arg == "" {
		return fmt.Sprintf("%s %s %d", c.Name, c.Kind, c.ID)
	}
	return fmt.Sprintf("%s %s %d %s", c.Name, c.Kind, c.ID, c.Arg)
}

type object struct {
	kind    glstate.Kind
	deleted bool

	data   []byte
	levels map[int]glstate.PixelData

	shaderKind glstate.ShaderKind
	compiled   bool
	inputs     []input

	attached []glstate.ID
	attribs  map[string]int
}

type input struct {
	name     string
	location int
}

// Driver is an in-memory native layer. It is safe for concurrent use so
// tests can inspect it while a context drives it.
type Driver struct {
	mu       sync.Mutex
	next     map[glstate.Kind]glstate.ID
	objects  map[glstate.Kind]map[glstate.ID]*object
	bound    map[glstate.Point]glstate.ID
	calls    []Call
	failures map[string]error
	draws    int
	log      *slog.Logger
}

// New creates an empty driver.
func New() *Driver {
	d := &Driver{
		next:     make(map[glstate.Kind]glstate.ID),
		objects:  make(map[glstate.Kind]map[glstate.ID]*object),
		bound:    make(map[glstate.Point]glstate.ID),
		failures: make(map[string]error),
	}
	for _, k := range glstate.Kinds {
		d.objects[k] = make(map[glstate.ID]*object)
	}
	return d
}

// SetLogger sets the logger of the driver. Nil restores the glstate logger.
func (d *Driver) SetLogger(l *slog.Logger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log = l
}

func (d *Driver) logger() *slog.Logger {
	if d.log != nil {
		return d.log
	}
	return glstate.Logger()
}

// FailNext makes the next call named name fail with err, or ErrInjected
// when err is nil.
func (d *Driver) FailNext(name string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		err = ErrInjected
	}
	d.failures[name] = err
}

// Calls returns the recorded calls in order.
func (d *Driver) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.calls)
}

// ResetCalls clears the call log.
func (d *Driver) ResetCalls() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
}

// record logs the call and returns an injected failure, if any.
func (d *Driver) record(c Call) error {
	d.calls = append(d.calls, c)
	if err, ok := d.failures[c.Name]; ok {
		delete(d.failures, c.Name)
		d.logger().Debug("memory: injected failure", "call", c.String(), "err", err)
		return err
	}
	d.logger().Debug("memory: call", "call", c.String())
	return nil
}

func (d *Driver) get(kind glstate.Kind, id glstate.ID) (*object, error) {
	o, ok := d.objects[kind][id]
	if !ok || o.deleted {
		return nil, fmt.Errorf("%w: %s %d", ErrUnknownObject, kind, id)
	}
	return o, nil
}

// Create implements glstate.Native. Ids are never reused.
func (d *Driver) Create(kind glstate.Kind) (glstate.ID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.next[kind] + 1
	if err := d.record(Call{Name: CallCreate, Kind: kind, ID: id}); err != nil {
		return glstate.NoID, err
	}
	d.next[kind] = id
	d.objects[kind][id] = &object{kind: kind}
	return id, nil
}

// Bind implements glstate.Native.
func (d *Driver) Bind(point glstate.Point, id glstate.ID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(Call{Name: CallBind, Kind: point.Kind, ID: id, Arg: point.Name}); err != nil {
		return err
	}
	if id == glstate.NoID {
		delete(d.bound, point)
		return nil
	}
	if _, err := d.get(point.Kind, id); err != nil {
		return err
	}
	d.bound[point] = id
	return nil
}

// Bound returns the id the driver has at point.
func (d *Driver) Bound(point glstate.Point) glstate.ID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bound[point]
}

var (
	errorDirective = regexp.MustCompile(`(?m)^\s*#error\s*(.*)$`)
	vertexInput    = regexp.MustCompile(`(?m)^\s*(?:layout\s*\(\s*location\s*=\s*(\d+)\s*\)\s*)?(?:in|attribute)\s+\w+\s+(\w+)\s*;`)
)

// Compile implements glstate.Native.
func (d *Driver) Compile(id glstate.ID, kind glstate.ShaderKind, source string) (glstate.CompileResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(Call{Name: CallCompile, Kind: glstate.KindShader, ID: id, Arg: kind.String()}); err != nil {
		return glstate.CompileResult{}, err
	}
	o, err := d.get(glstate.KindShader, id)
	if err != nil {
		return glstate.CompileResult{}, err
	}
	if strings.TrimSpace(source) == "" {
		return glstate.CompileResult{Log: "ERROR: 0:0: empty source"}, nil
	}
	if m := errorDirective.FindStringSubmatchIndex(source); m != nil {
		line := strings.Count(source[:m[0]], "\n") + 1
		msg := source[m[2]:m[3]]
		return glstate.CompileResult{Log: fmt.Sprintf("ERROR: 0:%d: '#error' : %s", line, msg)}, nil
	}

	o.shaderKind = kind
	o.compiled = true
	o.inputs = nil
	if kind == glstate.VertexShader {
		for _, m := range vertexInput.FindAllStringSubmatch(source, -1) {
			in := input{name: m[2], location: -1}
			if m[1] != "" {
				in.location, _ = strconv.Atoi(m[1])
			}
			o.inputs = append(o.inputs, in)
		}
	}
	return glstate.CompileResult{OK: true}, nil
}

// Link implements glstate.Native. Shaders deleted after a previous link
// stay usable, as with deferred deletion in GL drivers.
func (d *Driver) Link(id glstate.ID, shaders []glstate.ID) (glstate.LinkResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(Call{Name: CallLink, Kind: glstate.KindProgram, ID: id, Arg: fmt.Sprint(shaders)}); err != nil {
		return glstate.LinkResult{}, err
	}
	p, err := d.get(glstate.KindProgram, id)
	if err != nil {
		return glstate.LinkResult{}, err
	}

	attribs := make(map[string]int)
	used := make(map[int]bool)
	var pending []string
	for _, sid := range shaders {
		s, ok := d.objects[glstate.KindShader][sid]
		if !ok || !s.compiled {
			return glstate.LinkResult{Log: fmt.Sprintf("ERROR: shader %d is not compiled", sid)}, nil
		}
		for _, in := range s.inputs {
			if in.location < 0 {
				pending = append(pending, in.name)
				continue
			}
			if used[in.location] {
				return glstate.LinkResult{Log: fmt.Sprintf("ERROR: location %d assigned twice", in.location)}, nil
			}
			used[in.location] = true
			attribs[in.name] = in.location
		}
	}
	loc := 0
	for _, name := range pending {
		for used[loc] {
			loc++
		}
		used[loc] = true
		attribs[name] = loc
	}

	p.attached = slices.Clone(shaders)
	p.attribs = attribs
	return glstate.LinkResult{OK: true, Attributes: attribs}, nil
}

// Submit implements glstate.Native.
func (d *Driver) Submit(cmd glstate.Command) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(Call{Name: CallSubmit, Arg: fmt.Sprintf("%T", cmd)}); err != nil {
		return err
	}

	switch c := cmd.(type) {
	case glstate.BufferDataCommand:
		b, err := d.get(glstate.KindBuffer, c.Buffer)
		if err != nil {
			return err
		}
		b.data = make([]byte, c.Size)
		copy(b.data, c.Data)
	case glstate.BufferSubDataCommand:
		b, err := d.get(glstate.KindBuffer, c.Buffer)
		if err != nil {
			return err
		}
		if !inRange(c.Offset, len(c.Data), len(b.data)) {
			return fmt.Errorf("memory: sub-data past end of buffer %d", c.Buffer)
		}
		copy(b.data[c.Offset:], c.Data)
	case glstate.CopyBufferSubDataCommand:
		src, err := d.get(glstate.KindBuffer, c.Read)
		if err != nil {
			return err
		}
		dst, err := d.get(glstate.KindBuffer, c.Write)
		if err != nil {
			return err
		}
		if !inRange(c.ReadOffset, c.Size, len(src.data)) || !inRange(c.WriteOffset, c.Size, len(dst.data)) {
			return fmt.Errorf("memory: copy past end of buffer %d or %d", c.Read, c.Write)
		}
		copy(dst.data[c.WriteOffset:c.WriteOffset+c.Size], src.data[c.ReadOffset:c.ReadOffset+c.Size])
	case glstate.TexImageCommand:
		t, err := d.get(glstate.KindTexture, c.Texture)
		if err != nil {
			return err
		}
		if t.levels == nil {
			t.levels = make(map[int]glstate.PixelData)
		}
		img := c.Image
		img.Pixels = slices.Clone(img.Pixels)
		t.levels[c.Level] = img
	case glstate.GenerateMipmapCommand:
		t, err := d.get(glstate.KindTexture, c.Texture)
		if err != nil {
			return err
		}
		base := t.levels[0]
		w, h := base.Width, base.Height
		for l := 1; l < c.Levels; l++ {
			w, h = max(w/2, 1), max(h/2, 1)
			t.levels[l] = glstate.PixelData{Width: w, Height: h, Depth: base.Depth, Format: base.Format}
		}
	case glstate.AttachShaderCommand, glstate.DetachShaderCommand,
		glstate.VertexAttribPointerCommand, glstate.VertexAttribArrayCommand,
		glstate.DrawBufferCommand, glstate.ClearCommand:
	case glstate.DrawCommand:
		d.draws++
	default:
		return fmt.Errorf("memory: unsupported command %T", cmd)
	}
	return nil
}

// Delete implements glstate.Native.
func (d *Driver) Delete(kind glstate.Kind, id glstate.ID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(Call{Name: CallDelete, Kind: kind, ID: id}); err != nil {
		return err
	}
	o, err := d.get(kind, id)
	if err != nil {
		return err
	}
	o.deleted = true
	o.data = nil
	o.levels = nil
	return nil
}

// inRange reports whether [off, off+n) lies within a store of length size.
func inRange(off, n, size int) bool {
	return off >= 0 && n >= 0 && off <= size && n <= size-off
}

// BufferData returns a copy of the contents of buffer id.
func (d *Driver) BufferData(id glstate.ID) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, err := d.get(glstate.KindBuffer, id)
	if err != nil || b.data == nil {
		return nil, false
	}
	return slices.Clone(b.data), true
}

// TextureLevel returns the image stored for level of texture id.
func (d *Driver) TextureLevel(id glstate.ID, level int) (glstate.PixelData, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, err := d.get(glstate.KindTexture, id)
	if err != nil {
		return glstate.PixelData{}, false
	}
	img, ok := t.levels[level]
	return img, ok
}

// Live returns the number of objects of kind not yet deleted.
func (d *Driver) Live(kind glstate.Kind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, o := range d.objects[kind] {
		if !o.deleted {
			n++
		}
	}
	return n
}

// Draws returns the number of draw commands executed.
func (d *Driver) Draws() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draws
}
