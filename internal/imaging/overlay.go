package imaging

import (
	"image"
	"image/color"
	"image/draw"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Overlay colours for the three recognition masks.
var (
	OverlayInk    = color.RGBA{255, 255, 255, 255}
	OverlayStaff  = color.RGBA{255, 0, 0, 255}
	OverlaySymbol = color.RGBA{0, 255, 0, 255}
)

// OverlayRegion is an outlined rectangle, typically a staff corridor.
type OverlayRegion struct {
	Rect  image.Rectangle
	Label string
}

// OverlayMarker is a ring drawn around a detected note head.
type OverlayMarker struct {
	Center image.Point
	Radius int
	Label  string
}

// RenderMasks paints a debug overlay: ink white, staff red, symbols green,
// on a black background. Later masks win where they overlap.
func RenderMasks(binary, staff, symbols *Mask) *image.RGBA {
	w, h := binary.Width, binary.Height
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			switch {
			case symbols != nil && symbols.At(x, y):
				out.SetRGBA(x, y, OverlaySymbol)
			case staff != nil && staff.At(x, y):
				out.SetRGBA(x, y, OverlayStaff)
			case binary.At(x, y):
				out.SetRGBA(x, y, OverlayInk)
			}
		}
	}
	return out
}

// Palette returns n visually distinct colours spaced evenly around the HCL
// hue wheel.
func Palette(n int) []color.RGBA {
	out := make([]color.RGBA, n)
	for i := 0; i < n; i++ {
		c := colorful.Hcl(float64(i)*360/float64(maxInt(n, 1))+40, 0.7, 0.75).Clamped()
		r, g, b := c.RGB255()
		out[i] = color.RGBA{r, g, b, 255}
	}
	return out
}

// Tint blends base towards over by t in Lab space, keeping base alpha.
func Tint(base, over color.Color, t float64) color.RGBA {
	cb, ok := colorful.MakeColor(base)
	if !ok {
		return color.RGBA{}
	}
	co, ok := colorful.MakeColor(over)
	if !ok {
		return color.RGBA{}
	}
	r, g, b := cb.BlendLab(co, t).Clamped().RGB255()
	return color.RGBA{r, g, b, 255}
}

// DrawRegions outlines each region with the next palette colour and
// lightly tints its interior.
func DrawRegions(dst *image.RGBA, regions []OverlayRegion) {
	palette := Palette(len(regions))
	for i, r := range regions {
		rect := r.Rect.Intersect(dst.Bounds())
		if rect.Empty() {
			continue
		}
		c := palette[i]
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			for x := rect.Min.X; x < rect.Max.X; x++ {
				edge := x == rect.Min.X || x == rect.Max.X-1 || y == rect.Min.Y || y == rect.Max.Y-1
				if edge {
					dst.SetRGBA(x, y, c)
				} else {
					dst.SetRGBA(x, y, Tint(dst.RGBAAt(x, y), c, 0.15))
				}
			}
		}
		if r.Label != "" {
			drawLabel(dst, rect.Min.X+2, rect.Min.Y+2, r.Label, c)
		}
	}
}

// DrawMarkers draws a ring of the given radius around each marker centre.
func DrawMarkers(dst *image.RGBA, markers []OverlayMarker, c color.RGBA) {
	for _, m := range markers {
		r := maxInt(m.Radius, 2)
		r2out := (r + 1) * (r + 1)
		r2in := (r - 1) * (r - 1)
		for dy := -r - 1; dy <= r+1; dy++ {
			for dx := -r - 1; dx <= r+1; dx++ {
				d := dx*dx + dy*dy
				if d <= r2out && d >= r2in {
					p := image.Pt(m.Center.X+dx, m.Center.Y+dy)
					if p.In(dst.Bounds()) {
						dst.SetRGBA(p.X, p.Y, c)
					}
				}
			}
		}
		if m.Label != "" {
			drawLabel(dst, m.Center.X+r+2, m.Center.Y-r-2, m.Label, c)
		}
	}
}

// drawLabel writes text with its top-left corner at (x, y) using the 7x13
// basic font. Glyphs falling outside dst are clipped.
func drawLabel(dst *image.RGBA, x, y int, text string, c color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y+face.Ascent),
	}
	d.DrawString(text)
}
