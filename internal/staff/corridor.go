package staff

import (
	"math"

	"github.com/ironsheep/score-omr/internal/imaging"
)

// Corridor is a Group's bounding rectangle in [0,1] page coordinates. It
// spans two spacings above the top line to two below the bottom line.
type Corridor struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Corridors projects groups into normalized corridors for a w x h page.
func Corridors(groups []Group, w, h int) []Corridor {
	out := make([]Corridor, 0, len(groups))
	fw := float64(maxInt(1, w-1))
	fh := float64(maxInt(1, h-1))
	for _, g := range groups {
		out = append(out, Corridor{
			Left:   clamp01(float64(g.XStart) / fw),
			Top:    clamp01((g.Top() - 2*g.Spacing) / fh),
			Right:  clamp01(float64(g.XEnd) / fw),
			Bottom: clamp01((g.Bottom() + 2*g.Spacing) / fh),
		})
	}
	return out
}

// SearchBounds returns the pixel rectangle (inclusive) in which symbols of g
// are looked for: the span widened by one spacing on each side, and three
// spacings above and below the outer lines so ledger notes and stems fit.
func SearchBounds(g Group, w, h int) (x0, y0, x1, y1 int) {
	x0 = maxInt(0, int(math.Floor(float64(g.XStart)-g.Spacing)))
	x1 = minInt(w-1, int(math.Ceil(float64(g.XEnd)+g.Spacing)))
	y0 = maxInt(0, int(math.Floor(g.Top()-3*g.Spacing)))
	y1 = minInt(h-1, int(math.Ceil(g.Bottom()+3*g.Spacing)))
	return
}

// RestrictToCorridors clears every pixel of m that lies outside all group
// search bounds. With no groups the mask is returned unchanged, so a page
// without detectable staves still yields its symbols.
func RestrictToCorridors(m *imaging.Mask, groups []Group) *imaging.Mask {
	if len(groups) == 0 {
		return m.Clone()
	}
	out := imaging.NewMask(m.Width, m.Height)
	for _, g := range groups {
		x0, y0, x1, y1 := SearchBounds(g, m.Width, m.Height)
		for y := y0; y <= y1; y++ {
			base := y * m.Width
			for x := x0; x <= x1; x++ {
				if m.Bits[base+x] {
					out.Bits[base+x] = true
				}
			}
		}
	}
	return out
}

// RepairCrossings restores staff-line pixels of symbols where the original
// binary mask has ink two rows above and two rows below the line band, so
// heads sitting on a line and stems crossing it stay connected.
func RepairCrossings(symbols, binary *imaging.Mask, groups []Group) {
	w, h := binary.Width, binary.Height
	for _, g := range groups {
		xs := maxInt(0, g.XStart)
		xe := minInt(w-1, g.XEnd)
		for _, ly := range g.Lines {
			y := int(math.Round(ly))
			above := y - 2
			below := y + 2
			if above < 0 || below >= h {
				continue
			}
			for x := xs; x <= xe; x++ {
				if !binary.At(x, above) || !binary.At(x, below) {
					continue
				}
				for row := y - 1; row <= y+1; row++ {
					if binary.At(x, row) {
						symbols.Set(x, row, true)
					}
				}
			}
		}
	}
}

// Nearest returns the index of the group a point at (cx, cy) belongs to,
// or -1. Groups whose span (plus a margin of max(12, 6*spacing)) does not
// cover cx are skipped; among the rest the one whose line band is
// vertically closest wins.
func Nearest(groups []Group, cx, cy float64) int {
	best := -1
	bestDist := math.MaxFloat64
	for i, g := range groups {
		margin := math.Max(12, g.Spacing*6)
		if cx < float64(g.XStart)-margin || cx > float64(g.XEnd)+margin {
			continue
		}
		d := 0.0
		switch {
		case cy < g.Top():
			d = g.Top() - cy
		case cy > g.Bottom():
			d = cy - g.Bottom()
		}
		if cx < float64(g.XStart) {
			d += float64(g.XStart) - cx
		} else if cx > float64(g.XEnd) {
			d += cx - float64(g.XEnd)
		}
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// StepDistance returns how far cy is from the nearest staff step of g
// (line, gap, or a ledger step outside the staff), in half-spacings.
func StepDistance(g Group, cy float64) float64 {
	half := g.Spacing / 2
	if half <= 0 {
		return math.MaxFloat64
	}
	return math.Abs(NearestStepRowDistance(g, cy)) / half
}

// NearestStepRowDistance is the signed pixel distance from cy to the
// nearest line, gap centre or ledger step of g. Ledger steps sit every half
// spacing for three steps above the top line and below the bottom line.
func NearestStepRowDistance(g Group, cy float64) float64 {
	best := math.MaxFloat64
	signed := 0.0
	try := func(row float64) {
		d := cy - row
		if math.Abs(d) < best {
			best = math.Abs(d)
			signed = d
		}
	}
	for i := 0; i < 5; i++ {
		try(g.Lines[i])
	}
	for i := 0; i < 4; i++ {
		try((g.Lines[i] + g.Lines[i+1]) / 2)
	}
	half := g.Spacing / 2
	for k := 1; k <= 3; k++ {
		try(g.Top() - half*float64(k))
		try(g.Bottom() + half*float64(k))
	}
	return signed
}

// Allowed reports whether (cx, cy) is a plausible note-head centre for g:
// inside the span minus a max(2, 0.7*spacing) margin, within reach*spacing
// of the outer lines, and within max(2, 1.15*halfStep) of a staff step.
func Allowed(g Group, cx, cy, reach float64) bool {
	xMargin := math.Max(2, g.Spacing*0.7)
	if cx < float64(g.XStart)+xMargin || cx > float64(g.XEnd)-xMargin {
		return false
	}
	if cy < g.Top()-g.Spacing*reach || cy > g.Bottom()+g.Spacing*reach {
		return false
	}
	halfStep := g.Spacing / 2
	return math.Abs(NearestStepRowDistance(g, cy)) <= math.Max(2, halfStep*1.15)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
