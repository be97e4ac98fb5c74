package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glstate"
)

// texImage stores one level. Level 0 (re)allocates the GPU texture with a
// full mip chain; levels without GPU storage are only recorded.
func (d *Driver) texImage(c glstate.TexImageCommand) error {
	t, err := d.get(glstate.KindTexture, c.Texture)
	if err != nil {
		return err
	}
	img := c.Image
	if c.Level == 0 {
		if err := d.allocTexture(t, c.Texture, c.Target, img); err != nil {
			return err
		}
	}
	if err := d.upload(t, c.Level, img); err != nil {
		return fmt.Errorf("wgpu: write texture %d level %d: %w", c.Texture, c.Level, err)
	}
	if t.levels == nil {
		t.levels = make(map[int]glstate.PixelData)
	}
	img.Pixels = append([]byte(nil), img.Pixels...)
	t.levels[c.Level] = img
	return nil
}

func (d *Driver) allocTexture(t *object, id glstate.ID, target glstate.TextureTarget, img glstate.PixelData) error {
	desc := &hal.TextureDescriptor{
		Label:         fmt.Sprintf("glstate texture %d", id),
		Size:          extent(target, img),
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     target.Dimension(),
		Format:        img.Format.TextureFormat(),
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst | gputypes.TextureUsageCopySrc,
	}
	switch {
	case target.Multisampled():
		desc.SampleCount = 4
		desc.Usage = gputypes.TextureUsageTextureBinding | gputypes.TextureUsageRenderAttachment
	case target.Mipmapped():
		size := max(desc.Size.Width, desc.Size.Height)
		if target == glstate.Texture3D {
			size = max(size, desc.Size.DepthOrArrayLayers)
		}
		desc.MipLevelCount = uint32(min(bits.Len32(size), glstate.MaxTextureLevels))
	}
	tex, err := d.device.CreateTexture(desc)
	if err != nil {
		return fmt.Errorf("wgpu: create texture %d: %w", id, err)
	}
	if t.texture != nil {
		d.device.DestroyTexture(t.texture)
	}
	t.texture, t.target, t.mipLevels = tex, target, int(desc.MipLevelCount)
	return nil
}

// extent returns the texture size an image of target occupies.
func extent(target glstate.TextureTarget, img glstate.PixelData) hal.Extent3D {
	depth := uint32(target.Layers(img.Depth))
	switch target {
	case glstate.Texture1DArray:
		return hal.Extent3D{Width: uint32(img.Width), Height: 1, DepthOrArrayLayers: uint32(img.Height)}
	case glstate.Texture1D, glstate.TextureBufferTarget:
		return hal.Extent3D{Width: uint32(img.Width), Height: 1, DepthOrArrayLayers: 1}
	}
	return hal.Extent3D{Width: uint32(img.Width), Height: uint32(img.Height), DepthOrArrayLayers: depth}
}

// upload writes img into level of t when the level has GPU storage.
// Cube map images are written to every face.
func (d *Driver) upload(t *object, level int, img glstate.PixelData) error {
	if t.texture == nil || img.Pixels == nil || level >= t.mipLevels || t.target.Multisampled() {
		return nil
	}
	bpp := img.Format.BytesPerPixel()
	size := extent(t.target, img)
	layout := &hal.ImageDataLayout{BytesPerRow: uint32(img.Width * bpp), RowsPerImage: size.Height}
	faces := uint32(1)
	if t.target == glstate.TextureCubeMap {
		faces, size.DepthOrArrayLayers = 6, 1
	}
	for face := range faces {
		dst := &hal.ImageCopyTexture{
			Texture:  t.texture,
			MipLevel: uint32(level),
			Origin:   hal.Origin3D{Z: face},
			Aspect:   gputypes.TextureAspectAll,
		}
		if err := d.queue.WriteTexture(dst, img.Pixels, layout, &size); err != nil {
			return err
		}
	}
	return nil
}

// generateMipmap derives levels 1..c.Levels-1 from level 0 with a box filter.
func (d *Driver) generateMipmap(c glstate.GenerateMipmapCommand) error {
	t, err := d.get(glstate.KindTexture, c.Texture)
	if err != nil {
		return err
	}
	prev, ok := t.levels[0]
	if !ok {
		return fmt.Errorf("wgpu: texture %d has no level 0", c.Texture)
	}
	chain := make(map[int]glstate.PixelData, c.Levels)
	for l := 1; l < c.Levels; l++ {
		prev = downsample(prev, c.Target == glstate.Texture3D)
		if err := d.upload(t, l, prev); err != nil {
			return fmt.Errorf("wgpu: write texture %d level %d: %w", c.Texture, l, err)
		}
		chain[l] = prev
	}
	for l, img := range chain {
		t.levels[l] = img
	}
	return nil
}

func downsample(src glstate.PixelData, halveDepth bool) glstate.PixelData {
	w, h := max(src.Width/2, 1), max(src.Height/2, 1)
	depth := max(src.Depth, 1)
	out := glstate.PixelData{Width: w, Height: h, Depth: src.Depth, Format: src.Format}
	outDepth := depth
	if halveDepth {
		outDepth = max(depth/2, 1)
		out.Depth = outDepth
	}
	if src.Pixels == nil {
		return out
	}

	bpp := src.Format.BytesPerPixel()
	float := src.Format == glstate.FormatRGBA32F
	step := 1
	if float {
		step = 4
	}
	out.Pixels = make([]byte, w*h*outDepth*bpp)
	for z := range outDepth {
		sz := z
		if halveDepth {
			sz = min(2*z, depth-1)
		}
		for y := range h {
			for x := range w {
				for c := 0; c < bpp; c += step {
					var sum float64
					for dy := range 2 {
						for dx := range 2 {
							sx, sy := min(2*x+dx, src.Width-1), min(2*y+dy, src.Height-1)
							sum += component(src.Pixels[((sz*src.Height+sy)*src.Width+sx)*bpp+c:], float)
						}
					}
					setComponent(out.Pixels[((z*h+y)*w+x)*bpp+c:], sum/4, float)
				}
			}
		}
	}
	return out
}

func component(b []byte, float bool) float64 {
	if float {
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	}
	return float64(b[0])
}

func setComponent(b []byte, v float64, float bool) {
	if float {
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
		return
	}
	b[0] = byte(v + 0.5)
}

// TextureLevel returns the image stored for level of texture id.
func (d *Driver) TextureLevel(id glstate.ID, level int) (glstate.PixelData, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.objects[glstate.KindTexture][id]
	if !ok {
		return glstate.PixelData{}, false
	}
	img, ok := t.levels[level]
	return img, ok
}

// MipLevelCount returns the number of levels of the GPU texture behind id,
// or 0 before level 0 is specified.
func (d *Driver) MipLevelCount(id glstate.ID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.objects[glstate.KindTexture][id]
	if !ok || t.texture == nil {
		return 0
	}
	return t.mipLevels
}
