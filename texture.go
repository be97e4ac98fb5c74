package glstate

import (
	"fmt"
	"math/bits"
	"strings"
)

// MaxTextureLevels bounds the mipmap level accepted by TexImage.
const MaxTextureLevels = 16

// ImageInfo describes one specified level of a texture.
type ImageInfo struct {
	Width  int
	Height int
	Depth  int
	Format PixelFormat
}

// Texture is an image resource. It takes the type of the first target it is
// bound to and can only be bound to that target afterwards.
type Texture struct {
	ObjectHeader
	levels    map[int]ImageInfo
	mipmapped bool
}

// Kind returns KindTexture.
func (t *Texture) Kind() Kind { return KindTexture }

// Level returns the image of level l, if it was specified.
func (t *Texture) Level(l int) (ImageInfo, bool) {
	info, ok := t.levels[l]
	return info, ok
}

// Levels returns the number of specified levels.
func (t *Texture) Levels() int { return len(t.levels) }

// Mipmapped reports whether the mipmap chain was generated from the
// current base level.
func (t *Texture) Mipmapped() bool { return t.mipmapped }

func (t *Texture) header() *ObjectHeader {
	if t == nil {
		return nil
	}
	return &t.ObjectHeader
}

func (c *Context) liveTexture(t *Texture) error {
	if t == nil {
		return errNilResource
	}
	return live(c.textures, &t.ObjectHeader, t)
}

func (c *Context) boundTexture(target TextureTarget) (*Texture, error) {
	if !target.valid() {
		return nil, fmt.Errorf("%w: texture target %d", ErrInvalidArgument, target)
	}
	t := c.BoundTexture(target)
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotBound, target.Point())
	}
	return t, nil
}

// GenTexture creates an untyped texture.
func (c *Context) GenTexture() (*Texture, error) {
	return create(c, "GenTexture", KindTexture, c.textures, func(id ID) *Texture {
		return &Texture{ObjectHeader: ObjectHeader{id: id}, levels: make(map[int]ImageInfo)}
	})
}

// BindTexture binds t at target. The first bind fixes the texture type.
func (c *Context) BindTexture(target TextureTarget, t *Texture) error {
	o := opOn("BindTexture", KindTexture, t.header())
	if t == nil {
		return c.reject(o, errNilResource)
	}
	return c.bindPoint(o, target.Point(), keyOf(t), func() error {
		if !target.valid() {
			return fmt.Errorf("%w: texture target %d", ErrInvalidArgument, target)
		}
		return c.liveTexture(t)
	})
}

// UnbindTexture empties target. The texture keeps its type.
func (c *Context) UnbindTexture(target TextureTarget) error {
	return c.unbindPoint("UnbindTexture", target.Point())
}

// TexImage specifies level of the texture bound at target. Specifying
// level 0 again invalidates a generated mipmap chain.
func (c *Context) TexImage(target TextureTarget, level int, img PixelData) error {
	t := c.BoundTexture(target)
	o := opOn("TexImage", KindTexture, t.header())
	return c.sequence(o, func() error {
		if _, err := c.boundTexture(target); err != nil {
			return err
		}
		if level < 0 || level >= MaxTextureLevels {
			return fmt.Errorf("%w: level %d", ErrInvalidArgument, level)
		}
		if level > 0 && !target.Mipmapped() {
			return fmt.Errorf("%w: %s textures have a single level", ErrInvalidArgument, target)
		}
		if err := img.Validate(); err != nil {
			return err
		}
		return checkImageShape(target, img)
	}, func() error {
		return c.native.Submit(TexImageCommand{Target: target, Texture: t.id, Level: level, Image: img})
	}, func() {
		t.levels[level] = ImageInfo{Width: img.Width, Height: img.Height, Depth: img.depth(), Format: img.Format}
		if level == 0 {
			t.mipmapped = false
		}
	})
}

func checkImageShape(target TextureTarget, img PixelData) error {
	switch target {
	case Texture1D, TextureBufferTarget:
		if img.Height != 1 || img.depth() != 1 {
			return fmt.Errorf("%w: %s image must be Nx1", ErrInvalidArgument, target)
		}
	case Texture1DArray, Texture2D, TextureRectangle, Texture2DMultisample:
		if img.depth() != 1 {
			return fmt.Errorf("%w: %s image has no depth", ErrInvalidArgument, target)
		}
	case TextureCubeMap:
		if img.Width != img.Height || img.depth() != 1 {
			return fmt.Errorf("%w: cube map faces must be square", ErrInvalidArgument)
		}
	case TextureCubeMapArray:
		if img.Width != img.Height {
			return fmt.Errorf("%w: cube map faces must be square", ErrInvalidArgument)
		}
	}
	return nil
}

// GenerateMipmap derives every level of the texture bound at target from
// its level 0 image.
func (c *Context) GenerateMipmap(target TextureTarget) error {
	t := c.BoundTexture(target)
	o := opOn("GenerateMipmap", KindTexture, t.header())
	var base ImageInfo
	return c.sequence(o, func() error {
		if _, err := c.boundTexture(target); err != nil {
			return err
		}
		if !target.Mipmapped() {
			return fmt.Errorf("%w: %s textures have no mipmaps", ErrInvalidArgument, target)
		}
		var ok bool
		if base, ok = t.levels[0]; !ok {
			return fmt.Errorf("%w: texture %d", ErrNoImage, t.id)
		}
		return nil
	}, func() error {
		return c.native.Submit(GenerateMipmapCommand{Target: target, Texture: t.id, Levels: mipLevels(target, base)})
	}, func() {
		n := mipLevels(target, base)
		w, h, d := base.Width, base.Height, base.Depth
		for l := 1; l < n; l++ {
			w, h = max(w/2, 1), max(h/2, 1)
			if target == Texture3D {
				d = max(d/2, 1)
			}
			t.levels[l] = ImageInfo{Width: w, Height: h, Depth: d, Format: base.Format}
		}
		t.mipmapped = true
	})
}

// mipLevels returns the length of the full mipmap chain of base.
func mipLevels(target TextureTarget, base ImageInfo) int {
	size := base.Width
	if target != Texture1D && target != Texture1DArray {
		size = max(size, base.Height)
	}
	if target == Texture3D {
		size = max(size, base.Depth)
	}
	return min(bits.Len(uint(size)), MaxTextureLevels)
}

// DeleteTexture deletes t. The texture must not be bound.
func (c *Context) DeleteTexture(t *Texture) error {
	o := opOn("DeleteTexture", KindTexture, t.header())
	return c.destroy(o, func() error {
		if err := c.liveTexture(t); err != nil {
			return err
		}
		return c.checkUnbound(t)
	}, func() {
		_ = c.textures.Remove(uint32(t.id))
		_ = c.table.Forget(keyOf(t))
		t.markDeleted()
	})
}

// textureTargetOf converts a texture point name back to its target.
func textureTargetOf(point string) (TextureTarget, bool) {
	name, ok := strings.CutPrefix(point, KindTexture.String()+"/")
	if !ok {
		return 0, false
	}
	t, err := ParseTextureTarget(name)
	return t, err == nil
}
