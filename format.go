package glstate

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
)

// PixelFormat is the layout of texels in PixelData.
type PixelFormat uint8

// Pixel formats.
const (
	FormatRGBA8 PixelFormat = iota
	FormatR8
	FormatRGBA32F
)

var pixelFormatNames = [...]string{
	FormatRGBA8:   "rgba8",
	FormatR8:      "r8",
	FormatRGBA32F: "rgba32f",
}

func (f PixelFormat) String() string {
	if int(f) < len(pixelFormatNames) {
		return pixelFormatNames[f]
	}
	return fmt.Sprintf("PixelFormat(%d)", f)
}

func (f PixelFormat) valid() bool { return int(f) < len(pixelFormatNames) }

// BytesPerPixel returns the size of one texel.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatR8:
		return 1
	case FormatRGBA32F:
		return 16
	}
	return 4
}

// TextureFormat returns the GPU texture format storing f.
func (f PixelFormat) TextureFormat() gputypes.TextureFormat {
	switch f {
	case FormatRGBA8:
		return gputypes.TextureFormatRGBA8Unorm
	case FormatR8:
		return gputypes.TextureFormatR8Unorm
	case FormatRGBA32F:
		return gputypes.TextureFormatRGBA32Float
	}
	return gputypes.TextureFormatUndefined
}

// ParsePixelFormat returns the format named s. "rgba" is accepted for rgba8.
func ParsePixelFormat(s string) (PixelFormat, error) {
	s = strings.ToLower(s)
	for f, name := range pixelFormatNames {
		if name == s {
			return PixelFormat(f), nil
		}
	}
	if s == "rgba" {
		return FormatRGBA8, nil
	}
	return 0, fmt.Errorf("%w: unknown pixel format %q", ErrInvalidArgument, s)
}

// PixelData is an image handed to TexImage. Pixels is nil when only storage
// is allocated. Depth is the number of slices or layers; 0 means 1.
type PixelData struct {
	Width  int
	Height int
	Depth  int
	Format PixelFormat
	Pixels []byte
}

func (p PixelData) depth() int {
	if p.Depth < 1 {
		return 1
	}
	return p.Depth
}

// Size returns the number of bytes the image occupies.
func (p PixelData) Size() int {
	return p.Width * p.Height * p.depth() * p.Format.BytesPerPixel()
}

// Validate checks the dimensions, format and pixel count.
func (p PixelData) Validate() error {
	if p.Width <= 0 || p.Height <= 0 || p.Depth < 0 {
		return fmt.Errorf("%w: image size %dx%dx%d", ErrInvalidArgument, p.Width, p.Height, p.Depth)
	}
	if !p.Format.valid() {
		return fmt.Errorf("%w: pixel format %d", ErrInvalidArgument, p.Format)
	}
	if p.Pixels != nil && len(p.Pixels) != p.Size() {
		return fmt.Errorf("%w: %d pixel bytes, want %d", ErrInvalidArgument, len(p.Pixels), p.Size())
	}
	return nil
}

// ComponentType is the scalar type of vertex attribute components.
type ComponentType uint8

// Component types.
const (
	Byte ComponentType = iota
	UnsignedByte
	Short
	UnsignedShort
	Int
	UnsignedInt
	Float
	Double
)

var componentTypeNames = [...]string{
	Byte:          "byte",
	UnsignedByte:  "unsigned-byte",
	Short:         "short",
	UnsignedShort: "unsigned-short",
	Int:           "int",
	UnsignedInt:   "unsigned-int",
	Float:         "float",
	Double:        "double",
}

func (t ComponentType) String() string {
	if int(t) < len(componentTypeNames) {
		return componentTypeNames[t]
	}
	return fmt.Sprintf("ComponentType(%d)", t)
}

func (t ComponentType) valid() bool { return int(t) < len(componentTypeNames) }

// Size returns the size of one component in bytes.
func (t ComponentType) Size() int {
	switch t {
	case Byte, UnsignedByte:
		return 1
	case Short, UnsignedShort:
		return 2
	case Double:
		return 8
	}
	return 4
}

// ParseComponentType returns the component type named s.
func ParseComponentType(s string) (ComponentType, error) {
	s = strings.ToLower(s)
	for t, name := range componentTypeNames {
		if name == s {
			return ComponentType(t), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown component type %q", ErrInvalidArgument, s)
}
