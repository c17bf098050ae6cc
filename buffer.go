package gumdrop

import (
	"fmt"
	"image"
	"image/color"
)

// Buffer is a fixed-size grid of pixels stored as straight RGBA bytes,
// 4 bytes per pixel, row-major. Dimensions never change after creation.
//
// Buffer has no history awareness: recording edits is the caller's job.
// It is not safe for concurrent mutation.
type Buffer struct {
	width  int
	height int
	data   []uint8
}

// NewBuffer creates a transparent buffer. Width and height must be positive.
func NewBuffer(width, height int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("new buffer %dx%d: %w", width, height, ErrUnsupportedDimensions)
	}
	return &Buffer{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}, nil
}

// Width returns the width of the buffer.
func (b *Buffer) Width() int {
	return b.width
}

// Height returns the height of the buffer.
func (b *Buffer) Height() int {
	return b.height
}

// Data returns the raw pixel data. The slice aliases the buffer.
func (b *Buffer) Data() []uint8 {
	return b.data
}

// InBounds reports whether (x, y) addresses a cell of the buffer.
func (b *Buffer) InBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// Get returns the pixel at (x, y).
func (b *Buffer) Get(x, y int) (Color, error) {
	if !b.InBounds(x, y) {
		return Color{}, fmt.Errorf("get (%d,%d) in %dx%d: %w", x, y, b.width, b.height, ErrOutOfBounds)
	}
	return b.at(x, y), nil
}

// Set writes the pixel at (x, y).
func (b *Buffer) Set(x, y int, c Color) error {
	if !b.InBounds(x, y) {
		return fmt.Errorf("set (%d,%d) in %dx%d: %w", x, y, b.width, b.height, ErrOutOfBounds)
	}
	b.put(x, y, c)
	return nil
}

// at reads without bounds checking.
func (b *Buffer) at(x, y int) Color {
	i := (y*b.width + x) * 4
	return Color{R: b.data[i], G: b.data[i+1], B: b.data[i+2], A: b.data[i+3]}
}

// put writes without bounds checking.
func (b *Buffer) put(x, y int, c Color) {
	i := (y*b.width + x) * 4
	b.data[i+0] = c.R
	b.data[i+1] = c.G
	b.data[i+2] = c.B
	b.data[i+3] = c.A
}

// Fill sets every pixel to c.
func (b *Buffer) Fill(c Color) {
	for i := 0; i < len(b.data); i += 4 {
		b.data[i+0] = c.R
		b.data[i+1] = c.G
		b.data[i+2] = c.B
		b.data[i+3] = c.A
	}
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	data := make([]uint8, len(b.data))
	copy(data, b.data)
	return &Buffer{width: b.width, height: b.height, data: data}
}

// Equal reports whether both buffers have the same size and pixels.
func (b *Buffer) Equal(o *Buffer) bool {
	if b == nil || o == nil {
		return b == o
	}
	if b.width != o.width || b.height != o.height {
		return false
	}
	for i := range b.data {
		if b.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

// IsBlank reports whether every pixel is transparent.
func (b *Buffer) IsBlank() bool {
	for i := 3; i < len(b.data); i += 4 {
		if b.data[i] != 0 {
			return false
		}
	}
	return true
}

// resized returns a copy of b with new dimensions, anchored at the top-left.
// Cells outside the old area are transparent.
func (b *Buffer) resized(width, height int) *Buffer {
	out := &Buffer{width: width, height: height, data: make([]uint8, width*height*4)}
	w := min(width, b.width)
	h := min(height, b.height)
	for y := range h {
		copy(out.data[y*width*4:y*width*4+w*4], b.data[y*b.width*4:y*b.width*4+w*4])
	}
	return out
}

// ToImage copies the buffer into a new image.NRGBA.
func (b *Buffer) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.width, b.height))
	copy(img.Pix, b.data)
	return img
}

// BufferFromImage creates a buffer from any image.
func BufferFromImage(img image.Image) (*Buffer, error) {
	bounds := img.Bounds()
	buf, err := NewBuffer(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := range buf.height {
			start := nrgba.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(buf.data[y*buf.width*4:], nrgba.Pix[start:start+buf.width*4])
		}
		return buf, nil
	}

	for y := range buf.height {
		for x := range buf.width {
			buf.put(x, y, FromColor(img.At(bounds.Min.X+x, bounds.Min.Y+y)))
		}
	}
	return buf, nil
}

// At implements the image.Image interface.
func (b *Buffer) At(x, y int) color.Color {
	if !b.InBounds(x, y) {
		return color.NRGBA{}
	}
	return b.at(x, y).NRGBA()
}

// Bounds implements the image.Image interface.
func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}

// ColorModel implements the image.Image interface.
func (b *Buffer) ColorModel() color.Model {
	return color.NRGBAModel
}
