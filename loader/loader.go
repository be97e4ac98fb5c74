package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/gogpu/glstate"
	"github.com/gogpu/glstate/internal/cache"
	"github.com/gogpu/glstate/internal/parallel"
)

// DefaultCapacity is the number of textures a Loader keeps by default.
const DefaultCapacity = 32

// Option configures a Loader.
type Option func(*options)

type options struct {
	fsys     fs.FS
	capacity int
	mipmaps  bool
	maxSize  int
	workers  int
}

// WithFS sets the file system images are read from. The default is the
// current directory.
func WithFS(fsys fs.FS) Option {
	return func(o *options) { o.fsys = fsys }
}

// WithCapacity sets the number of cached textures. 0 disables eviction.
func WithCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

// WithMipmaps makes Load generate a mipmap chain for every texture.
func WithMipmaps(enabled bool) Option {
	return func(o *options) { o.mipmaps = enabled }
}

// WithMaxSize scales images larger than n pixels on either side down.
func WithMaxSize(n int) Option {
	return func(o *options) { o.maxSize = n }
}

// WithWorkers sets the number of goroutines Preload decodes on. The
// default is GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// Loader loads image files into textures of one context.
//
// A Loader is not safe for concurrent use, like the Context it feeds.
type Loader struct {
	ctx   *glstate.Context
	opts  options
	cache *cache.LRU[string, *glstate.Texture]
}

// New creates a loader for ctx.
func New(ctx *glstate.Context, opts ...Option) *Loader {
	o := options{fsys: os.DirFS("."), capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(&o)
	}
	l := &Loader{
		ctx:   ctx,
		opts:  o,
		cache: cache.New[string, *glstate.Texture](o.capacity),
	}
	l.cache.OnEvict(l.release)
	return l
}

// release deletes an evicted texture. A texture the caller still has
// bound cannot be deleted and is left to the caller.
func (l *Loader) release(name string, t *glstate.Texture) {
	if l.ctx.IsDeleted(t) {
		return
	}
	if err := l.ctx.DeleteTexture(t); err != nil {
		glstate.Logger().Warn("loader: evicted texture not deleted", "name", name, "texture", t.ID(), "err", err)
		return
	}
	glstate.Logger().Debug("loader: evicted", "name", name, "texture", t.ID())
}

// Load returns the texture for the named image, decoding and uploading it
// on a cache miss.
func (l *Loader) Load(name string) (*glstate.Texture, error) {
	if t, ok := l.cache.Get(name); ok {
		if !l.ctx.IsDeleted(t) {
			return t, nil
		}
		l.cache.Remove(name)
	}

	return l.store(l.decode(name))
}

// decoded is a file decoded off the context goroutine.
type decoded struct {
	name   string
	img    glstate.PixelData
	format string
	err    error
}

// decode reads and decodes the named file. It does not touch the context
// and may run on any goroutine.
func (l *Loader) decode(name string) decoded {
	f, err := l.opts.fsys.Open(name)
	if err != nil {
		return decoded{name: name, err: fmt.Errorf("loader: open %s: %w", name, err)}
	}
	defer f.Close()
	img, format, err := Decode(f, l.opts.maxSize)
	if err != nil {
		return decoded{name: name, err: fmt.Errorf("loader: %s: %w", name, err)}
	}
	return decoded{name: name, img: img, format: format}
}

// store uploads d and caches the texture.
func (l *Loader) store(d decoded) (*glstate.Texture, error) {
	if d.err != nil {
		return nil, d.err
	}
	t, err := l.upload(d.img)
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", d.name, err)
	}
	glstate.Logger().Debug("loader: loaded", "name", d.name, "format", d.format,
		"width", d.img.Width, "height", d.img.Height, "texture", t.ID())
	l.cache.Add(d.name, t)
	return t, nil
}

// Preload loads every name that is not cached yet. Files are decoded
// concurrently; uploads happen on the calling goroutine in the order of
// names. Preload keeps going after a failed file and returns the joined
// errors.
func (l *Loader) Preload(ctx context.Context, names ...string) error {
	var missing []string
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		if t, ok := l.cache.Peek(name); ok && !l.ctx.IsDeleted(t) {
			continue
		}
		missing = append(missing, name)
	}
	if len(missing) == 0 {
		return nil
	}

	pool := parallel.NewPool(min(l.opts.workers, len(missing)))
	defer pool.Close()
	results, err := parallel.Map(ctx, pool, missing, l.decode)
	if err != nil {
		return err
	}

	var errs []error
	for _, d := range results {
		if _, err := l.store(d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (l *Loader) upload(img glstate.PixelData) (t *glstate.Texture, err error) {
	t, err = l.ctx.GenTexture()
	if err != nil {
		return nil, err
	}
	if err := l.ctx.BindTexture(glstate.Texture2D, t); err != nil {
		return nil, errors.Join(err, l.ctx.DeleteTexture(t))
	}
	defer func() {
		if uerr := l.ctx.UnbindTexture(glstate.Texture2D); uerr != nil {
			err = errors.Join(err, uerr)
		}
		if err != nil {
			err = errors.Join(err, l.ctx.DeleteTexture(t))
			t = nil
		}
	}()

	if err := l.ctx.TexImage(glstate.Texture2D, 0, img); err != nil {
		return t, err
	}
	if l.opts.mipmaps {
		if err := l.ctx.GenerateMipmap(glstate.Texture2D); err != nil {
			return t, err
		}
	}
	return t, nil
}

// Evict drops the named texture from the cache and deletes it.
func (l *Loader) Evict(name string) error {
	t, ok := l.cache.Peek(name)
	if !ok {
		return nil
	}
	l.cache.Remove(name)
	if l.ctx.IsDeleted(t) {
		return nil
	}
	return l.ctx.DeleteTexture(t)
}

// Cached returns the cached names from most to least recently used.
func (l *Loader) Cached() []string {
	return l.cache.Keys()
}

// Stats holds the cache statistics of a Loader.
type Stats = cache.Stats

// Stats returns the cache statistics.
func (l *Loader) Stats() Stats {
	return l.cache.Stats()
}

// Close deletes every cached texture.
func (l *Loader) Close() error {
	l.cache.Purge()
	return nil
}
