package loader

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"

	_ "golang.org/x/image/bmp" // register BMP decoder
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/gogpu/glstate"
)

// Decode errors.
var (
	// ErrUnsupportedFormat is returned when no registered decoder accepts the data.
	ErrUnsupportedFormat = errors.New("loader: unsupported format")

	// ErrEmptyData is returned for empty input.
	ErrEmptyData = errors.New("loader: empty data")
)

// Decode decodes an image and converts it to pixel data. Gray images
// become FormatR8, everything else non-premultiplied FormatRGBA8.
// A maxSize above 0 scales larger images down to fit, keeping the aspect
// ratio. The returned string is the detected format name.
func Decode(r io.Reader, maxSize int) (glstate.PixelData, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return glstate.PixelData{}, "", ErrUnsupportedFormat
		}
		return glstate.PixelData{}, "", fmt.Errorf("loader: decode: %w", err)
	}
	if maxSize > 0 {
		img = fit(img, maxSize)
	}
	return pixelData(img), format, nil
}

// DecodeBytes decodes an image held in memory.
func DecodeBytes(data []byte, maxSize int) (glstate.PixelData, string, error) {
	if len(data) == 0 {
		return glstate.PixelData{}, "", ErrEmptyData
	}
	return Decode(bytes.NewReader(data), maxSize)
}

// fit scales img down so that neither side exceeds maxSize.
func fit(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSize && h <= maxSize {
		return img
	}
	if w >= h {
		w, h = maxSize, max(h*maxSize/w, 1)
	} else {
		w, h = max(w*maxSize/h, 1), maxSize
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// pixelData copies img into a tightly packed buffer.
func pixelData(img image.Image) glstate.PixelData {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if g, ok := img.(*image.Gray); ok {
		pix := make([]byte, w*h)
		for y := range h {
			copy(pix[y*w:(y+1)*w], g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		return glstate.PixelData{Width: w, Height: h, Format: glstate.FormatR8, Pixels: pix}
	}

	n, ok := img.(*image.NRGBA)
	if !ok || n.Stride != 4*w || b.Min != (image.Point{}) {
		n = image.NewNRGBA(image.Rect(0, 0, w, h))
		xdraw.Draw(n, n.Bounds(), img, b.Min, xdraw.Src)
	}
	return glstate.PixelData{
		Width:  w,
		Height: h,
		Format: glstate.FormatRGBA8,
		Pixels: append([]byte(nil), n.Pix[:4*w*h]...),
	}
}
