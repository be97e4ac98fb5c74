package wgpu

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/noop" // headless fallback device

	"github.com/gogpu/glstate"
	"github.com/gogpu/glstate/backend"
)

// Driver errors.
var (
	// ErrNoDevice is returned by Open when no HAL backend yields a device.
	ErrNoDevice = errors.New("wgpu: no HAL device available")

	// ErrUnsupportedProvider is returned by NewFromProvider when the
	// provider's device does not expose its HAL device and queue.
	ErrUnsupportedProvider = errors.New("wgpu: provider does not expose a HAL device")

	// ErrUnknownObject is returned for names the driver did not hand out or
	// already deleted.
	ErrUnknownObject = errors.New("wgpu: unknown object")

	// ErrClosed is returned by every call after Close.
	ErrClosed = errors.New("wgpu: driver closed")
)

// headlessOrder is the preference order of HAL backends for Open.
var headlessOrder = []gputypes.Backend{
	gputypes.BackendVulkan,
	gputypes.BackendMetal,
	gputypes.BackendDX12,
	gputypes.BackendGL,
	gputypes.BackendEmpty,
}

func init() {
	backend.Register(backend.BackendWGPU, func() glstate.Native {
		d, err := Open()
		if err != nil {
			glstate.Logger().Warn("wgpu: backend unavailable", "err", err)
			return nil
		}
		return d
	})
}

type object struct {
	kind    glstate.Kind
	deleted bool

	buffer hal.Buffer
	shadow []byte
	size   int

	texture   hal.Texture
	target    glstate.TextureTarget
	mipLevels int
	levels    map[int]glstate.PixelData

	module     hal.ShaderModule
	shaderKind glstate.ShaderKind
	compiled   bool
	inputs     []input

	attribs map[string]int
}

// Driver drives a HAL device and queue.
type Driver struct {
	mu      sync.Mutex
	device  hal.Device
	queue   hal.Queue
	release func()
	closed  bool

	next    map[glstate.Kind]glstate.ID
	objects map[glstate.Kind]map[glstate.ID]*object
	draws   int
	log     *slog.Logger
}

// New creates a driver on an open device and queue. The caller keeps
// ownership of both; Close releases only the driver's resources.
func New(device hal.Device, queue hal.Queue) *Driver {
	d := &Driver{
		device:  device,
		queue:   queue,
		next:    make(map[glstate.Kind]glstate.ID),
		objects: make(map[glstate.Kind]map[glstate.ID]*object),
	}
	for _, k := range glstate.Kinds {
		d.objects[k] = make(map[glstate.ID]*object)
	}
	return d
}

// halProvider is satisfied by *wgpu.Device.
type halProvider interface {
	HalDevice() hal.Device
	HalQueue() hal.Queue
}

// NewFromProvider creates a driver on the device of a host application.
func NewFromProvider(p gpucontext.DeviceProvider) (*Driver, error) {
	if p == nil {
		return nil, ErrUnsupportedProvider
	}
	hp, ok := p.Device().(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedProvider, p.Device())
	}
	device, queue := hp.HalDevice(), hp.HalQueue()
	if device == nil || queue == nil {
		return nil, ErrUnsupportedProvider
	}
	return New(device, queue), nil
}

// Open opens a device on the first registered HAL backend that provides
// one. The noop backend is always linked in, so Open succeeds headless.
func Open() (*Driver, error) {
	for _, variant := range headlessOrder {
		b, ok := hal.GetBackend(variant)
		if !ok {
			continue
		}
		d, err := openBackend(b)
		if err != nil {
			glstate.Logger().Debug("wgpu: backend skipped", "backend", variant.String(), "err", err)
			continue
		}
		glstate.Logger().Info("wgpu: device opened", "backend", variant.String())
		return d, nil
	}
	return nil, ErrNoDevice
}

func openBackend(b hal.Backend) (*Driver, error) {
	instance, err := b.CreateInstance(&hal.InstanceDescriptor{})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoDevice
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open adapter %q: %w", adapters[0].Info.Name, err)
	}
	d := New(open.Device, open.Queue)
	d.release = func() {
		open.Device.Destroy()
		instance.Destroy()
	}
	return d, nil
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

// Close destroys every GPU resource the driver created and, for drivers
// returned by Open, the device itself.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	for _, objs := range d.objects {
		for _, o := range objs {
			d.destroy(o)
		}
	}
	err := d.device.WaitIdle()
	if d.release != nil {
		d.release()
	}
	return err
}

func (d *Driver) destroy(o *object) {
	if o.buffer != nil {
		d.device.DestroyBuffer(o.buffer)
		o.buffer = nil
	}
	if o.texture != nil {
		d.device.DestroyTexture(o.texture)
		o.texture = nil
	}
	if o.module != nil {
		d.device.DestroyShaderModule(o.module)
		o.module = nil
	}
	o.shadow = nil
	o.levels = nil
}

func (d *Driver) get(kind glstate.Kind, id glstate.ID) (*object, error) {
	if d.closed {
		return nil, ErrClosed
	}
	o, ok := d.objects[kind][id]
	if !ok || o.deleted {
		return nil, fmt.Errorf("%w: %s %d", ErrUnknownObject, kind, id)
	}
	return o, nil
}

// Create implements glstate.Native. Names are never reused.
func (d *Driver) Create(kind glstate.Kind) (glstate.ID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return glstate.NoID, ErrClosed
	}
	id := d.next[kind] + 1
	d.next[kind] = id
	d.objects[kind][id] = &object{kind: kind}
	d.logger().Debug("wgpu: create", "kind", kind.String(), "id", id)
	return id, nil
}

// Bind implements glstate.Native. Bindings are tracked by the context; the
// driver only checks the name.
func (d *Driver) Bind(point glstate.Point, id glstate.ID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if id == glstate.NoID {
		return nil
	}
	_, err := d.get(point.Kind, id)
	return err
}

// Delete implements glstate.Native.
func (d *Driver) Delete(kind glstate.Kind, id glstate.ID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	o, err := d.get(kind, id)
	if err != nil {
		return err
	}
	d.destroy(o)
	if kind == glstate.KindShader {
		// Linking may still read the inputs of a deleted shader.
		o.deleted = true
	} else {
		delete(d.objects[kind], id)
	}
	d.logger().Debug("wgpu: delete", "kind", kind.String(), "id", id)
	return nil
}

// Submit implements glstate.Native.
func (d *Driver) Submit(cmd glstate.Command) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}

	switch c := cmd.(type) {
	case glstate.BufferDataCommand:
		return d.bufferData(c)
	case glstate.BufferSubDataCommand:
		return d.bufferSubData(c)
	case glstate.CopyBufferSubDataCommand:
		return d.copyBufferSubData(c)
	case glstate.TexImageCommand:
		return d.texImage(c)
	case glstate.GenerateMipmapCommand:
		return d.generateMipmap(c)
	case glstate.DrawCommand:
		p, err := d.get(glstate.KindProgram, c.Program)
		if err != nil {
			return err
		}
		if p.attribs == nil {
			return fmt.Errorf("wgpu: program %d is not linked", c.Program)
		}
		d.draws++
		d.logger().Debug("wgpu: draw", "mode", c.Mode.String(), "first", c.First, "count", c.Count)
	case glstate.AttachShaderCommand, glstate.DetachShaderCommand,
		glstate.VertexAttribPointerCommand, glstate.VertexAttribArrayCommand,
		glstate.DrawBufferCommand, glstate.ClearCommand:
	default:
		return fmt.Errorf("wgpu: unsupported command %T", cmd)
	}
	return nil
}

// Draws returns the number of draw commands executed.
func (d *Driver) Draws() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draws
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

// Attributes returns the attribute locations program id was linked with.
func (d *Driver) Attributes(id glstate.ID) map[string]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.objects[glstate.KindProgram][id]
	if !ok || p.attribs == nil {
		return nil
	}
	out := make(map[string]int, len(p.attribs))
	for k, v := range p.attribs {
		out[k] = v
	}
	return out
}

// ShaderInputs returns the vertex input names of shader id, in location order.
func (d *Driver) ShaderInputs(id glstate.ID) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.objects[glstate.KindShader][id]
	if !ok {
		return nil
	}
	ins := slices.Clone(s.inputs)
	slices.SortFunc(ins, func(a, b input) int { return a.location - b.location })
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.name
	}
	return names
}
