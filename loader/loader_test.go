package loader_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"slices"
	"testing"
	"testing/fstest"

	"golang.org/x/image/bmp"

	"github.com/gogpu/glstate"
	"github.com/gogpu/glstate/backend/memory"
	"github.com/gogpu/glstate/loader"
)

func encode(t *testing.T, img image.Image, enc func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := enc(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func pngEnc(b *bytes.Buffer, img image.Image) error { return png.Encode(b, img) }
func bmpEnc(b *bytes.Buffer, img image.Image) error { return bmp.Encode(b, img) }

func checker(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			if (x+y)%2 == 0 {
				img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{B: 255, A: 128})
			}
		}
	}
	return img
}

func testFS(t *testing.T) fstest.MapFS {
	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	gray.Pix = []byte{0, 64, 128, 255}
	return fstest.MapFS{
		"a.png":    {Data: encode(t, checker(4, 2), pngEnc)},
		"b.bmp":    {Data: encode(t, checker(2, 2), bmpEnc)},
		"c.png":    {Data: encode(t, checker(8, 8), pngEnc)},
		"gray.png": {Data: encode(t, gray, pngEnc)},
		"junk.png": {Data: []byte("not an image")},
	}
}

func newLoader(t *testing.T, opts ...loader.Option) (*glstate.Context, *memory.Driver, *loader.Loader) {
	t.Helper()
	d := memory.New()
	ctx, err := glstate.NewContext(d)
	if err != nil {
		t.Fatal(err)
	}
	l := loader.New(ctx, append([]loader.Option{loader.WithFS(testFS(t))}, opts...)...)
	t.Cleanup(func() { _ = l.Close() })
	return ctx, d, l
}

func TestLoadUploadsLevelZero(t *testing.T) {
	ctx, d, l := newLoader(t)
	tex, err := l.Load("a.png")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ctx.BoundTexture(glstate.Texture2D) != nil {
		t.Error("Load() left the texture bound")
	}
	if tt, ok := ctx.TextureTarget(tex); !ok || tt != glstate.Texture2D {
		t.Errorf("TextureTarget() = %v, %v, want 2d", tt, ok)
	}
	img, ok := d.TextureLevel(tex.ID(), 0)
	if !ok {
		t.Fatal("driver has no level 0")
	}
	if img.Width != 4 || img.Height != 2 || img.Format != glstate.FormatRGBA8 {
		t.Errorf("level 0 = %dx%d %s, want 4x2 rgba8", img.Width, img.Height, img.Format)
	}
	if !bytes.Equal(img.Pixels[:8], []byte{255, 0, 0, 255, 0, 0, 255, 128}) {
		t.Errorf("first texels = %v", img.Pixels[:8])
	}
}

func TestLoadCaches(t *testing.T) {
	_, d, l := newLoader(t)
	a1, err := l.Load("a.png")
	if err != nil {
		t.Fatal(err)
	}
	a2, err := l.Load("a.png")
	if err != nil {
		t.Fatal(err)
	}
	if a1 != a2 {
		t.Error("second Load() returned a different texture")
	}
	if n := d.Live(glstate.KindTexture); n != 1 {
		t.Errorf("driver textures = %d, want 1", n)
	}
	if s := l.Stats(); s.Hits != 1 || s.Misses != 1 {
		t.Errorf("Stats() = %+v, want 1 hit and 1 miss", s)
	}
}

func TestLoadFormats(t *testing.T) {
	_, d, l := newLoader(t)
	tests := []struct {
		name   string
		format glstate.PixelFormat
	}{
		{"b.bmp", glstate.FormatRGBA8},
		{"gray.png", glstate.FormatR8},
	}
	for _, tt := range tests {
		tex, err := l.Load(tt.name)
		if err != nil {
			t.Fatalf("Load(%s) error = %v", tt.name, err)
		}
		img, _ := d.TextureLevel(tex.ID(), 0)
		if img.Format != tt.format {
			t.Errorf("Load(%s) format = %s, want %s", tt.name, img.Format, tt.format)
		}
	}
	tex, _ := l.Load("gray.png")
	img, _ := d.TextureLevel(tex.ID(), 0)
	if !bytes.Equal(img.Pixels, []byte{0, 64, 128, 255}) {
		t.Errorf("gray pixels = %v", img.Pixels)
	}
}

func TestLoadErrors(t *testing.T) {
	ctx, d, l := newLoader(t)
	if _, err := l.Load("missing.png"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want fs.ErrNotExist", err)
	}
	if _, err := l.Load("junk.png"); !errors.Is(err, loader.ErrUnsupportedFormat) {
		t.Errorf("Load(junk) error = %v, want ErrUnsupportedFormat", err)
	}
	if n := d.Live(glstate.KindTexture); n != 0 {
		t.Errorf("failed loads left %d textures", n)
	}

	// The 2D point must be free.
	other, _ := ctx.GenTexture()
	if err := ctx.BindTexture(glstate.Texture2D, other); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Load("a.png"); !errors.Is(err, glstate.ErrPointOccupied) {
		t.Errorf("Load() with occupied point error = %v, want ErrPointOccupied", err)
	}
	if n := d.Live(glstate.KindTexture); n != 1 {
		t.Errorf("driver textures = %d, want only the caller's", n)
	}
}

func TestEvictionDeletesTexture(t *testing.T) {
	ctx, _, l := newLoader(t, loader.WithCapacity(2))
	a, _ := l.Load("a.png")
	b, _ := l.Load("b.bmp")
	if _, err := l.Load("a.png"); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Load("c.png"); err != nil {
		t.Fatal(err)
	}
	if !ctx.IsDeleted(b) {
		t.Error("least recently used texture b not deleted")
	}
	if ctx.IsDeleted(a) {
		t.Error("recently used texture a deleted")
	}
	if got := l.Cached(); !slices.Equal(got, []string{"c.png", "a.png"}) {
		t.Errorf("Cached() = %v, want [c.png a.png]", got)
	}
}

func TestEvictAndReloadAfterDelete(t *testing.T) {
	ctx, _, l := newLoader(t)
	a, _ := l.Load("a.png")
	if err := l.Evict("a.png"); err != nil {
		t.Fatalf("Evict() error = %v", err)
	}
	if !ctx.IsDeleted(a) {
		t.Error("Evict() did not delete the texture")
	}

	b, _ := l.Load("b.bmp")
	if err := ctx.DeleteTexture(b); err != nil {
		t.Fatal(err)
	}
	b2, err := l.Load("b.bmp")
	if err != nil || b2 == b {
		t.Errorf("Load() after caller delete = %v, %v, want a fresh texture", b2, err)
	}
}

func TestMipmapsAndMaxSize(t *testing.T) {
	_, d, l := newLoader(t, loader.WithMipmaps(true), loader.WithMaxSize(4))
	tex, err := l.Load("c.png")
	if err != nil {
		t.Fatal(err)
	}
	img, _ := d.TextureLevel(tex.ID(), 0)
	if img.Width != 4 || img.Height != 4 {
		t.Errorf("level 0 = %dx%d, want 4x4", img.Width, img.Height)
	}
	if !tex.Mipmapped() || tex.Levels() != 3 {
		t.Errorf("Mipmapped() = %v, Levels() = %d, want true, 3", tex.Mipmapped(), tex.Levels())
	}
}

func TestCloseDeletesCachedTextures(t *testing.T) {
	ctx, _, l := newLoader(t)
	a, _ := l.Load("a.png")
	b, _ := l.Load("b.bmp")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if !ctx.IsDeleted(a) || !ctx.IsDeleted(b) {
		t.Error("Close() left cached textures alive")
	}
	if len(l.Cached()) != 0 {
		t.Errorf("Cached() = %v after Close", l.Cached())
	}
}

func TestDecodeBytesEmpty(t *testing.T) {
	if _, _, err := loader.DecodeBytes(nil, 0); !errors.Is(err, loader.ErrEmptyData) {
		t.Errorf("DecodeBytes(nil) error = %v, want ErrEmptyData", err)
	}
}

func TestPreload(t *testing.T) {
	ctx, d, l := newLoader(t, loader.WithWorkers(2))
	err := l.Preload(context.Background(), "a.png", "b.bmp", "missing.png", "c.png", "a.png")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Preload() error = %v, want fs.ErrNotExist for the missing file", err)
	}
	if n := d.Live(glstate.KindTexture); n != 3 {
		t.Errorf("driver textures = %d, want 3", n)
	}
	if got := l.Cached(); !slices.Equal(got, []string{"c.png", "b.bmp", "a.png"}) {
		t.Errorf("Cached() = %v, want uploads in argument order", got)
	}

	a, _ := l.Load("a.png")
	if err := l.Preload(context.Background(), "a.png"); err != nil {
		t.Errorf("Preload() of a cached file error = %v", err)
	}
	if again, _ := l.Load("a.png"); again != a || ctx.IsDeleted(a) {
		t.Error("Preload() replaced a cached texture")
	}
}

func TestPreloadCanceled(t *testing.T) {
	_, d, l := newLoader(t)
	cctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Preload(cctx, "a.png", "b.bmp"); !errors.Is(err, context.Canceled) {
		t.Errorf("Preload() error = %v, want context.Canceled", err)
	}
	if n := d.Live(glstate.KindTexture); n != 0 {
		t.Errorf("canceled Preload uploaded %d textures", n)
	}
}
