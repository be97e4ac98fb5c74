package glstate

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
)

// Point names a binding point. Points of different kinds never collide.
type Point struct {
	Kind Kind
	Name string
}

func (p Point) String() string { return p.Kind.String() + "/" + p.Name }

// Single-occupant points of the vertex layout and program classes.
var (
	VertexLayoutPoint = Point{Kind: KindVertexLayout, Name: "current"}
	ProgramPoint      = Point{Kind: KindProgram, Name: "current"}
)

// BufferTarget is a buffer binding point.
type BufferTarget uint8

// Buffer targets.
const (
	ArrayBuffer BufferTarget = iota
	ElementArrayBuffer
	CopyReadBuffer
	CopyWriteBuffer
	PixelPackBuffer
	PixelUnpackBuffer
	TextureBuffer
	TransformFeedbackBuffer
	UniformBuffer
	DrawIndirectBuffer
)

var bufferTargetNames = [...]string{
	ArrayBuffer:             "array",
	ElementArrayBuffer:      "element-array",
	CopyReadBuffer:          "copy-read",
	CopyWriteBuffer:         "copy-write",
	PixelPackBuffer:         "pixel-pack",
	PixelUnpackBuffer:       "pixel-unpack",
	TextureBuffer:           "texture",
	TransformFeedbackBuffer: "transform-feedback",
	UniformBuffer:           "uniform",
	DrawIndirectBuffer:      "draw-indirect",
}

var bufferTargetAliases = map[string]BufferTarget{
	"vertex-data": ArrayBuffer,
	"index":       ElementArrayBuffer,
}

// BufferTargets lists every buffer target.
var BufferTargets = []BufferTarget{
	ArrayBuffer, ElementArrayBuffer, CopyReadBuffer, CopyWriteBuffer, PixelPackBuffer,
	PixelUnpackBuffer, TextureBuffer, TransformFeedbackBuffer, UniformBuffer, DrawIndirectBuffer,
}

func (t BufferTarget) String() string {
	if int(t) < len(bufferTargetNames) {
		return bufferTargetNames[t]
	}
	return fmt.Sprintf("BufferTarget(%d)", t)
}

func (t BufferTarget) valid() bool { return int(t) < len(bufferTargetNames) }

// Point returns the binding point of t.
func (t BufferTarget) Point() Point { return Point{Kind: KindBuffer, Name: t.String()} }

// Usage returns the buffer usage a GPU buffer needs to serve t.
func (t BufferTarget) Usage() gputypes.BufferUsage {
	switch t {
	case ArrayBuffer:
		return gputypes.BufferUsageVertex
	case ElementArrayBuffer:
		return gputypes.BufferUsageIndex
	case CopyReadBuffer:
		return gputypes.BufferUsageCopySrc
	case CopyWriteBuffer:
		return gputypes.BufferUsageCopyDst
	case PixelPackBuffer:
		return gputypes.BufferUsageCopyDst | gputypes.BufferUsageMapRead
	case PixelUnpackBuffer:
		return gputypes.BufferUsageCopySrc | gputypes.BufferUsageMapWrite
	case TextureBuffer, TransformFeedbackBuffer:
		return gputypes.BufferUsageStorage
	case UniformBuffer:
		return gputypes.BufferUsageUniform
	case DrawIndirectBuffer:
		return gputypes.BufferUsageIndirect
	}
	return gputypes.BufferUsageNone
}

// ParseBufferTarget returns the buffer target named s.
func ParseBufferTarget(s string) (BufferTarget, error) {
	s = strings.ToLower(s)
	for t, name := range bufferTargetNames {
		if name == s {
			return BufferTarget(t), nil
		}
	}
	if t, ok := bufferTargetAliases[s]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("%w: unknown buffer target %q", ErrInvalidArgument, s)
}

// TextureTarget is a texture binding point. A texture takes the type of the
// first target it is bound to and keeps it for life.
type TextureTarget uint8

// Texture targets.
const (
	Texture1D TextureTarget = iota
	Texture2D
	Texture3D
	TextureRectangle
	Texture1DArray
	Texture2DArray
	TextureCubeMap
	TextureCubeMapArray
	TextureBufferTarget
	Texture2DMultisample
	Texture2DMultisampleArray
)

var textureTargetNames = [...]string{
	Texture1D:                 "1d",
	Texture2D:                 "2d",
	Texture3D:                 "3d",
	TextureRectangle:          "rectangle",
	Texture1DArray:            "1d-array",
	Texture2DArray:            "2d-array",
	TextureCubeMap:            "cube-map",
	TextureCubeMapArray:       "cube-map-array",
	TextureBufferTarget:       "buffer",
	Texture2DMultisample:      "2d-multisample",
	Texture2DMultisampleArray: "2d-multisample-array",
}

// TextureTargets lists every texture target.
var TextureTargets = []TextureTarget{
	Texture1D, Texture2D, Texture3D, TextureRectangle, Texture1DArray, Texture2DArray,
	TextureCubeMap, TextureCubeMapArray, TextureBufferTarget, Texture2DMultisample, Texture2DMultisampleArray,
}

func (t TextureTarget) String() string {
	if int(t) < len(textureTargetNames) {
		return textureTargetNames[t]
	}
	return fmt.Sprintf("TextureTarget(%d)", t)
}

func (t TextureTarget) valid() bool { return int(t) < len(textureTargetNames) }

// Point returns the binding point of t.
func (t TextureTarget) Point() Point { return Point{Kind: KindTexture, Name: t.String()} }

// Dimension returns the storage dimension of textures of type t.
func (t TextureTarget) Dimension() gputypes.TextureDimension {
	switch t {
	case Texture1D, Texture1DArray, TextureBufferTarget:
		return gputypes.TextureDimension1D
	case Texture3D:
		return gputypes.TextureDimension3D
	}
	return gputypes.TextureDimension2D
}

// ViewDimension returns the view dimension of textures of type t.
func (t TextureTarget) ViewDimension() gputypes.TextureViewDimension {
	switch t {
	case Texture1D, Texture1DArray, TextureBufferTarget:
		return gputypes.TextureViewDimension1D
	case Texture3D:
		return gputypes.TextureViewDimension3D
	case Texture2DArray, Texture2DMultisampleArray:
		return gputypes.TextureViewDimension2DArray
	case TextureCubeMap:
		return gputypes.TextureViewDimensionCube
	case TextureCubeMapArray:
		return gputypes.TextureViewDimensionCubeArray
	}
	return gputypes.TextureViewDimension2D
}

// Layers returns the number of array layers an image of depth d occupies.
func (t TextureTarget) Layers(d int) int {
	if d < 1 {
		d = 1
	}
	switch t {
	case TextureCubeMap:
		return 6
	case TextureCubeMapArray:
		return 6 * d
	}
	return d
}

// Multisampled reports whether t holds multisampled images.
func (t TextureTarget) Multisampled() bool {
	return t == Texture2DMultisample || t == Texture2DMultisampleArray
}

// Mipmapped reports whether textures of type t can have more than one level.
func (t TextureTarget) Mipmapped() bool {
	switch t {
	case TextureRectangle, TextureBufferTarget, Texture2DMultisample, Texture2DMultisampleArray:
		return false
	}
	return true
}

// ParseTextureTarget returns the texture target named s. Matching is
// case-insensitive so "2D" and "2d" are the same target.
func ParseTextureTarget(s string) (TextureTarget, error) {
	s = strings.ToLower(s)
	for t, name := range textureTargetNames {
		if name == s {
			return TextureTarget(t), nil
		}
	}
	if s == "cube" {
		return TextureCubeMap, nil
	}
	return 0, fmt.Errorf("%w: unknown texture target %q", ErrInvalidArgument, s)
}

// FramebufferTarget selects the framebuffer binding points to use.
type FramebufferTarget uint8

// Framebuffer targets. ReadDrawFramebuffer addresses both points at once.
const (
	DrawFramebuffer FramebufferTarget = iota
	ReadFramebuffer
	ReadDrawFramebuffer
)

var framebufferTargetNames = [...]string{
	DrawFramebuffer:     "draw",
	ReadFramebuffer:     "read",
	ReadDrawFramebuffer: "framebuffer",
}

func (t FramebufferTarget) String() string {
	if int(t) < len(framebufferTargetNames) {
		return framebufferTargetNames[t]
	}
	return fmt.Sprintf("FramebufferTarget(%d)", t)
}

func (t FramebufferTarget) valid() bool { return int(t) < len(framebufferTargetNames) }

// Point returns the point the native layer is addressed with.
func (t FramebufferTarget) Point() Point { return Point{Kind: KindFramebuffer, Name: t.String()} }

// Points returns the binding points t occupies.
func (t FramebufferTarget) Points() []Point {
	switch t {
	case DrawFramebuffer, ReadFramebuffer:
		return []Point{t.Point()}
	case ReadDrawFramebuffer:
		return []Point{DrawFramebuffer.Point(), ReadFramebuffer.Point()}
	}
	return nil
}

// ParseFramebufferTarget returns the framebuffer target named s.
func ParseFramebufferTarget(s string) (FramebufferTarget, error) {
	s = strings.ToLower(s)
	for t, name := range framebufferTargetNames {
		if name == s {
			return FramebufferTarget(t), nil
		}
	}
	if s == "both" {
		return ReadDrawFramebuffer, nil
	}
	return 0, fmt.Errorf("%w: unknown framebuffer target %q", ErrInvalidArgument, s)
}
