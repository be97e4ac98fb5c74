package wgpu

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/glstate"
	"github.com/gogpu/glstate/backend"
)

const (
	vertexWGSL = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@location(0) position: vec3<f32>, @location(1) uv: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(position, 1.0);
    out.uv = uv;
    return out;
}
`
	fragmentWGSL = `
@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return vec4<f32>(uv, 0.0, 1.0);
}
`
)

func newTestDriver(t *testing.T) (*glstate.Context, *Driver) {
	t.Helper()
	d, err := Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	ctx, err := glstate.NewContext(d)
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}
	return ctx, d
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func TestRegistered(t *testing.T) {
	if !backend.IsRegistered(backend.BackendWGPU) {
		t.Fatalf("backend %q not registered", backend.BackendWGPU)
	}
	n, err := backend.Open(backend.BackendWGPU)
	if err != nil {
		t.Fatalf("Open(%q) error = %v", backend.BackendWGPU, err)
	}
	if _, ok := n.(*Driver); !ok {
		t.Errorf("Open(%q) = %T, want *Driver", backend.BackendWGPU, n)
	}
	must(t, backend.Close(n))
}

func TestNewFromProviderRejectsForeignDevice(t *testing.T) {
	if _, err := NewFromProvider(nil); !errors.Is(err, ErrUnsupportedProvider) {
		t.Errorf("NewFromProvider(nil) error = %v, want ErrUnsupportedProvider", err)
	}
}

func TestBufferData(t *testing.T) {
	ctx, d := newTestDriver(t)
	b, err := ctx.GenBuffer()
	must(t, err)
	must(t, ctx.BindBuffer(glstate.ArrayBuffer, b))

	if _, ok := d.BufferContents(b.ID()); ok {
		t.Error("BufferContents() ok before BufferData")
	}
	must(t, ctx.BufferData(glstate.ArrayBuffer, 6, []byte{1, 2, 3, 4, 5, 6}, glstate.StaticDraw))
	got, ok := d.BufferContents(b.ID())
	if !ok || !bytes.Equal(got, []byte{1, 2, 3, 4, 5, 6}) {
		t.Fatalf("BufferContents() = %v, %v", got, ok)
	}

	// Unaligned sub-data is widened to whole words.
	must(t, ctx.BufferSubData(glstate.ArrayBuffer, 3, []byte{9, 9}))
	got, _ = d.BufferContents(b.ID())
	if want := []byte{1, 2, 3, 9, 9, 6}; !bytes.Equal(got, want) {
		t.Errorf("after BufferSubData = %v, want %v", got, want)
	}
}

func TestCopyBufferSubData(t *testing.T) {
	ctx, d := newTestDriver(t)
	src, _ := ctx.GenBuffer()
	dst, _ := ctx.GenBuffer()
	must(t, ctx.BindBuffer(glstate.CopyReadBuffer, src))
	must(t, ctx.BindBuffer(glstate.CopyWriteBuffer, dst))
	must(t, ctx.BufferData(glstate.CopyReadBuffer, 8, []byte{1, 2, 3, 4, 5, 6, 7, 8}, glstate.StaticCopy))
	must(t, ctx.BufferData(glstate.CopyWriteBuffer, 8, nil, glstate.DynamicDraw))

	tests := []struct {
		name             string
		read, write, len int
		want             []byte
	}{
		{"aligned", 4, 0, 4, []byte{5, 6, 7, 8, 0, 0, 0, 0}},
		{"unaligned", 1, 5, 2, []byte{5, 6, 7, 8, 0, 2, 3, 0}},
	}
	for _, tt := range tests {
		must(t, ctx.CopyBufferSubData(glstate.CopyReadBuffer, glstate.CopyWriteBuffer, tt.read, tt.write, tt.len))
		got, _ := d.BufferContents(dst.ID())
		if !bytes.Equal(got, tt.want) {
			t.Errorf("%s: contents = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTexImageAllocatesMipChain(t *testing.T) {
	ctx, d := newTestDriver(t)
	tex, _ := ctx.GenTexture()
	must(t, ctx.BindTexture(glstate.Texture2D, tex))
	if n := d.MipLevelCount(tex.ID()); n != 0 {
		t.Errorf("MipLevelCount() = %d before TexImage", n)
	}

	img := glstate.PixelData{Width: 4, Height: 2, Format: glstate.FormatR8, Pixels: []byte{
		10, 20, 30, 40,
		50, 60, 70, 80,
	}}
	must(t, ctx.TexImage(glstate.Texture2D, 0, img))
	if n := d.MipLevelCount(tex.ID()); n != 3 {
		t.Errorf("MipLevelCount() = %d, want 3", n)
	}

	must(t, ctx.GenerateMipmap(glstate.Texture2D))
	l1, ok := d.TextureLevel(tex.ID(), 1)
	if !ok {
		t.Fatal("level 1 missing after GenerateMipmap")
	}
	if l1.Width != 2 || l1.Height != 1 || !bytes.Equal(l1.Pixels, []byte{35, 55}) {
		t.Errorf("level 1 = %dx%d %v, want 2x1 [35 55]", l1.Width, l1.Height, l1.Pixels)
	}
	l2, _ := d.TextureLevel(tex.ID(), 2)
	if l2.Width != 1 || l2.Height != 1 || !bytes.Equal(l2.Pixels, []byte{45}) {
		t.Errorf("level 2 = %dx%d %v, want 1x1 [45]", l2.Width, l2.Height, l2.Pixels)
	}
}

func TestDownsampleFloat(t *testing.T) {
	src := glstate.PixelData{Width: 2, Height: 1, Format: glstate.FormatRGBA32F}
	src.Pixels = make([]byte, src.Size())
	for i, v := range []float32{0, 1, 2, 3, 1, 2, 3, 4} {
		setComponent(src.Pixels[i*4:], float64(v), true)
	}
	out := downsample(src, false)
	for i, want := range []float64{0.5, 1.5, 2.5, 3.5} {
		if got := component(out.Pixels[i*4:], true); got != want {
			t.Errorf("channel %d = %v, want %v", i, got, want)
		}
	}
}

func TestCompileAndLink(t *testing.T) {
	ctx, d := newTestDriver(t)
	vs, _ := ctx.CreateShader(glstate.VertexShader)
	fs, _ := ctx.CreateShader(glstate.FragmentShader)
	must(t, ctx.ShaderSource(vs, vertexWGSL))
	must(t, ctx.ShaderSource(fs, fragmentWGSL))
	must(t, ctx.CompileShader(vs))
	must(t, ctx.CompileShader(fs))

	if got := d.ShaderInputs(vs.ID()); len(got) != 2 || got[0] != "position" || got[1] != "uv" {
		t.Errorf("ShaderInputs() = %v, want [position uv]", got)
	}

	p, _ := ctx.CreateProgram()
	must(t, ctx.AttachShader(p, vs))
	must(t, ctx.AttachShader(p, fs))
	must(t, ctx.LinkProgram(p))
	for name, want := range map[string]int{"position": 0, "uv": 1} {
		loc, err := ctx.AttribLocation(p, name)
		if err != nil || loc != want {
			t.Errorf("AttribLocation(%q) = %d, %v, want %d", name, loc, err, want)
		}
	}
}

func TestCompileFailures(t *testing.T) {
	tests := []struct {
		name   string
		kind   glstate.ShaderKind
		source string
		log    string
	}{
		{"syntax", glstate.VertexShader, "@vertex fn main( {", "ERROR"},
		{"wrong stage", glstate.VertexShader, fragmentWGSL, "no vertex entry point"},
		{"geometry", glstate.GeometryShader, vertexWGSL, "geometry shaders are not supported"},
		{"empty", glstate.FragmentShader, "  \n", "empty source"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := newTestDriver(t)
			s, err := ctx.CreateShader(tt.kind)
			must(t, err)
			must(t, ctx.ShaderSource(s, tt.source))
			err = ctx.CompileShader(s)
			if !errors.Is(err, glstate.ErrCompile) {
				t.Fatalf("CompileShader() error = %v, want ErrCompile", err)
			}
			var ne *glstate.NativeError
			if !errors.As(err, &ne) {
				t.Fatalf("error = %T, want *glstate.NativeError", err)
			}
			if !strings.Contains(ne.Log, tt.log) {
				t.Errorf("log = %q, want it to contain %q", ne.Log, tt.log)
			}
			if s.Compiled() {
				t.Error("Compiled() = true after failed compile")
			}
		})
	}
}

func TestDrawCountsAndDelete(t *testing.T) {
	ctx, d := newTestDriver(t)
	vs, _ := ctx.CreateShader(glstate.VertexShader)
	must(t, ctx.ShaderSource(vs, vertexWGSL))
	must(t, ctx.CompileShader(vs))
	p, _ := ctx.CreateProgram()
	must(t, ctx.AttachShader(p, vs))
	must(t, ctx.LinkProgram(p))
	must(t, ctx.UseProgram(p))

	b, _ := ctx.GenBuffer()
	must(t, ctx.BindBuffer(glstate.ArrayBuffer, b))
	must(t, ctx.BufferData(glstate.ArrayBuffer, 36, nil, glstate.StaticDraw))
	v, _ := ctx.GenVertexLayout()
	must(t, ctx.BindVertexLayout(v))
	must(t, ctx.VertexAttribPointer(glstate.AttribPointer{Index: 0, Size: 3, Type: glstate.Float}))
	must(t, ctx.EnableVertexAttrib(0))
	must(t, ctx.Draw(glstate.Triangles, 0, 3))
	if d.Draws() != 1 {
		t.Errorf("Draws() = %d, want 1", d.Draws())
	}

	must(t, ctx.DeleteShader(vs))
	if n := d.Live(glstate.KindShader); n != 0 {
		t.Errorf("Live(shader) = %d after delete, want 0", n)
	}
	must(t, ctx.UnbindBuffer(glstate.ArrayBuffer))
	must(t, ctx.DeleteBuffer(b))
	if _, ok := d.BufferContents(b.ID()); ok {
		t.Error("BufferContents() ok after DeleteBuffer")
	}
}

func TestClosedDriver(t *testing.T) {
	d, err := Open()
	must(t, err)
	must(t, d.Close())
	must(t, d.Close())
	if _, err := d.Create(glstate.KindBuffer); !errors.Is(err, ErrClosed) {
		t.Errorf("Create() after Close error = %v, want ErrClosed", err)
	}
}
