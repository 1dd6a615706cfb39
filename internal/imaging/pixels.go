package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// PixelBuffer is an immutable width x height grid of 8-bit RGBA samples in
// row-major order. It is the only input the recognition pipeline accepts.
type PixelBuffer struct {
	Width  int
	Height int
	// Pix holds 4 bytes per pixel (R, G, B, A), len(Pix) == 4*Width*Height.
	Pix []uint8
}

// NewPixelBuffer copies any decoded image into a tightly packed PixelBuffer.
// The origin of the source bounds is moved to (0,0).
func NewPixelBuffer(img image.Image) PixelBuffer {
	if img == nil {
		return PixelBuffer{}
	}
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()
	pix := make([]uint8, 4*w*h)
	for y := 0; y < h; y++ {
		copy(pix[y*w*4:(y+1)*w*4], nrgba.Pix[y*nrgba.Stride:y*nrgba.Stride+w*4])
	}
	return PixelBuffer{Width: w, Height: h, Pix: pix}
}

// Empty reports whether the buffer has no pixels to work on.
func (b PixelBuffer) Empty() bool {
	return b.Width <= 0 || b.Height <= 0 || len(b.Pix) < 4*b.Width*b.Height
}

// Gray converts the buffer to 8-bit luminance using integer weights
// (30*R + 59*G + 11*B) / 100.
func (b PixelBuffer) Gray() []uint8 {
	if b.Empty() {
		return nil
	}
	out := make([]uint8, b.Width*b.Height)
	for i := range out {
		r := int(b.Pix[i*4])
		g := int(b.Pix[i*4+1])
		bl := int(b.Pix[i*4+2])
		out[i] = uint8((r*30 + g*59 + bl*11) / 100)
	}
	return out
}

// Image wraps the buffer as an *image.NRGBA without copying.
func (b PixelBuffer) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// GrayImage packs a luminance slice into an *image.Gray.
func GrayImage(gray []uint8, w, h int) *image.Gray {
	return &image.Gray{Pix: gray, Stride: w, Rect: image.Rect(0, 0, w, h)}
}

// Mask is a width x height grid of ink (true) / background (false) flags.
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

// NewMask allocates an all-background mask.
func NewMask(w, h int) *Mask {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Mask{Width: w, Height: h, Bits: make([]bool, w*h)}
}

// At reports whether (x, y) is ink. Coordinates outside the mask are background.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Bits[y*m.Width+x]
}

// Set marks (x, y). Out-of-range coordinates are ignored.
func (m *Mask) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Bits[y*m.Width+x] = v
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	out := &Mask{Width: m.Width, Height: m.Height, Bits: make([]bool, len(m.Bits))}
	copy(out.Bits, m.Bits)
	return out
}

// Count returns the number of ink pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Bits {
		if v {
			n++
		}
	}
	return n
}

// Translate returns a copy of m moved by (dx, dy). Pixels moved off the
// mask are dropped and uncovered pixels are background.
func (m *Mask) Translate(dx, dy int) *Mask {
	out := NewMask(m.Width, m.Height)
	for y := 0; y < m.Height; y++ {
		sy := y - dy
		if sy < 0 || sy >= m.Height {
			continue
		}
		for x := 0; x < m.Width; x++ {
			sx := x - dx
			if sx >= 0 && sx < m.Width && m.Bits[sy*m.Width+sx] {
				out.Bits[y*m.Width+x] = true
			}
		}
	}
	return out
}

// Subtract clears every pixel of m that is set in other.
func (m *Mask) Subtract(other *Mask) {
	for i := range m.Bits {
		if i < len(other.Bits) && other.Bits[i] {
			m.Bits[i] = false
		}
	}
}

// RowCounts returns the number of ink pixels per row.
func (m *Mask) RowCounts() []int {
	out := make([]int, m.Height)
	for y := 0; y < m.Height; y++ {
		base := y * m.Width
		n := 0
		for x := 0; x < m.Width; x++ {
			if m.Bits[base+x] {
				n++
			}
		}
		out[y] = n
	}
	return out
}

// ToGray renders ink as white (255) on black, the convention the
// morphology and native code paths share.
func (m *Mask) ToGray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, v := range m.Bits {
		if v {
			g.Pix[i] = 255
		}
	}
	return g
}

// MaskFromImage marks every pixel whose luminance is above 127 as ink.
func MaskFromImage(img image.Image) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			m.Bits[y*m.Width+x] = g.Y > 127
		}
	}
	return m
}
