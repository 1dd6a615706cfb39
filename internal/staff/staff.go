package staff

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/score-omr/internal/imaging"
)

// Spacing defaults and limits in pixels.
const (
	DefaultSpacing = 12
	MinSpacing     = 6
	MaxSpacing     = 26

	// MaxGroups caps the number of staves reported for one page.
	MaxGroups = 10
)

// Group is one detected five-line staff.
type Group struct {
	// Lines holds the line rows ordered top to bottom, strictly increasing.
	Lines [5]float64 `json:"lines"`
	// Spacing is the average distance between adjacent lines.
	Spacing float64 `json:"spacing"`
	XStart  int     `json:"x_start"`
	XEnd    int     `json:"x_end"`
}

// Top returns the row of the top line.
func (g Group) Top() float64 { return g.Lines[0] }

// Bottom returns the row of the bottom line.
func (g Group) Bottom() float64 { return g.Lines[4] }

// Width is the inclusive column count of the span.
func (g Group) Width() int { return g.XEnd - g.XStart + 1 }

// Params tunes the estimator. Zero values are not meaningful; start from
// DefaultParams.
type Params struct {
	SpacingPeakRatio float64 // row peaks considered for spacing, fraction of max
	LineRowRatio     float64 // rows considered for line pixels, fraction of max
	LineRunDivisor   int     // a line run must exceed width/LineRunDivisor
	GroupTolerance   float64 // allowed delta deviation, fraction of average delta
	GroupPeakDivisor int     // a group peak must exceed width/GroupPeakDivisor
	SpanMinInkRows   int     // ink rows needed in the padded band to extend a span
}

// DefaultParams returns the tuned estimator constants.
func DefaultParams() Params {
	return Params{
		SpacingPeakRatio: 0.55,
		LineRowRatio:     0.68,
		LineRunDivisor:   10,
		GroupTolerance:   0.45,
		GroupPeakDivisor: 4,
		SpanMinInkRows:   3,
	}
}

// RowEnergy counts ink per row and smooths the counts with a +-2 row
// moving average.
func RowEnergy(m *imaging.Mask) []int {
	raw := m.RowCounts()
	h := len(raw)
	smooth := make([]int, h)
	for y := 0; y < h; y++ {
		from := y - 2
		if from < 0 {
			from = 0
		}
		to := y + 2
		if to > h-1 {
			to = h - 1
		}
		sum := 0
		for i := from; i <= to; i++ {
			sum += raw[i]
		}
		smooth[y] = sum / (to - from + 1)
	}
	return smooth
}

// EstimateSpacing derives the staff spacing from smoothed row energy:
// local maxima at or above SpacingPeakRatio of the maximum, more than two
// rows apart, and the median of their consecutive deltas clamped to
// [MinSpacing, MaxSpacing]. Fewer than two peaks yields DefaultSpacing.
func EstimateSpacing(energy []int, p Params) int {
	max := 0
	for _, e := range energy {
		if e > max {
			max = e
		}
	}
	threshold := int(float64(max) * p.SpacingPeakRatio)

	var peaks []int
	for y := 1; y < len(energy)-1; y++ {
		e := energy[y]
		// A plateau counts once, at its first row.
		if e >= threshold && e > energy[y-1] && e >= energy[y+1] {
			if len(peaks) == 0 || y-peaks[len(peaks)-1] > 2 {
				peaks = append(peaks, y)
			}
		}
	}
	if len(peaks) < 2 || max == 0 {
		return DefaultSpacing
	}

	deltas := make([]int, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		deltas[i-1] = peaks[i] - peaks[i-1]
	}
	sort.Ints(deltas)
	median := deltas[len(deltas)/2]
	if median < MinSpacing {
		return MinSpacing
	}
	if median > MaxSpacing {
		return MaxSpacing
	}
	return median
}

// LineMask keeps the horizontal ink runs longer than width/LineRunDivisor
// on rows whose smoothed energy reaches LineRowRatio of the maximum.
func LineMask(binary *imaging.Mask, energy []int, p Params) *imaging.Mask {
	w, h := binary.Width, binary.Height
	mask := imaging.NewMask(w, h)
	max := 0
	for _, e := range energy {
		if e > max {
			max = e
		}
	}
	if max == 0 {
		return mask
	}
	strong := int(float64(max) * p.LineRowRatio)
	minRun := w / p.LineRunDivisor

	for y := 0; y < h && y < len(energy); y++ {
		if energy[y] < strong {
			continue
		}
		base := y * w
		run := 0
		for x := 0; x <= w; x++ {
			if x < w && binary.Bits[base+x] {
				run++
				continue
			}
			if run > minRun {
				for k := x - run; k < x; k++ {
					mask.Bits[base+k] = true
				}
			}
			run = 0
		}
	}
	return mask
}

// FindGroups slides a window of five line-mask peaks down the page and
// accepts the window when every inter-peak delta lies within
// max(1.5, GroupTolerance*avg) of the average delta. An accepted group must
// span more than a third of the page width. At most MaxGroups are returned,
// top to bottom, with spans not yet normalized.
func FindGroups(lineMask *imaging.Mask, spacing int, p Params) []Group {
	w, h := lineMask.Width, lineMask.Height
	energy := lineMask.RowCounts()

	minGap := spacing / 2
	if minGap < 2 {
		minGap = 2
	}
	var peaks []int
	for y := 1; y < h-1; y++ {
		e := energy[y]
		if e > w/p.GroupPeakDivisor && e > energy[y-1] && e >= energy[y+1] {
			if len(peaks) == 0 || y-peaks[len(peaks)-1] >= minGap {
				peaks = append(peaks, y)
			}
		}
	}

	var groups []Group
	deltas := make([]float64, 4)
	for i := 0; i+4 < len(peaks) && len(groups) < MaxGroups; {
		for k := 0; k < 4; k++ {
			deltas[k] = float64(peaks[i+k+1] - peaks[i+k])
		}
		avg := stat.Mean(deltas, nil)
		tol := math.Max(1.5, avg*p.GroupTolerance)
		ok := true
		for _, d := range deltas {
			if math.Abs(d-avg) > tol {
				ok = false
				break
			}
		}
		if ok {
			var g Group
			for k := 0; k < 5; k++ {
				g.Lines[k] = float64(peaks[i+k])
			}
			g.Spacing = avg
			g.XStart, g.XEnd = findSpan(lineMask, g, p.SpanMinInkRows)
			if g.XEnd > g.XStart+w/3 {
				groups = append(groups, g)
				i += 5
				continue
			}
		}
		i++
	}
	return groups
}

// findSpan scans inward from both page edges for the first column whose
// padded band [top-spacing, bottom+spacing] holds at least minRows ink rows.
func findSpan(m *imaging.Mask, g Group, minRows int) (int, int) {
	w, h := m.Width, m.Height
	y0 := int(math.Round(g.Top() - g.Spacing))
	if y0 < 0 {
		y0 = 0
	}
	y1 := int(math.Round(g.Bottom() + g.Spacing))
	if y1 > h-1 {
		y1 = h - 1
	}
	dark := func(x int) int {
		n := 0
		for y := y0; y <= y1; y++ {
			if m.Bits[y*w+x] {
				n++
			}
		}
		return n
	}

	start, end := 0, w-1
	for x := 0; x < w; x++ {
		if dark(x) >= minRows {
			start = x
			break
		}
	}
	for x := w - 1; x >= 0; x-- {
		if dark(x) >= minRows {
			end = x
			break
		}
	}
	return start, end
}

// NormalizeSpans gives every group the minimum start column and the
// maximum width found among them. The slice is modified in place.
func NormalizeSpans(groups []Group) {
	if len(groups) == 0 {
		return
	}
	start := groups[0].XStart
	width := groups[0].Width()
	for _, g := range groups[1:] {
		if g.XStart < start {
			start = g.XStart
		}
		if g.Width() > width {
			width = g.Width()
		}
	}
	for i := range groups {
		groups[i].XStart = start
		groups[i].XEnd = start + width - 1
	}
}

// ClampSpans keeps every span inside [0, width-1] after normalization.
func ClampSpans(groups []Group, width int) {
	for i := range groups {
		if groups[i].XStart < 0 {
			groups[i].XStart = 0
		}
		if groups[i].XEnd > width-1 {
			groups[i].XEnd = width - 1
		}
	}
}

// RebuildMask redraws the staff mask from groups: each line one row above
// and below its centre across the group span.
func RebuildMask(groups []Group, w, h int) *imaging.Mask {
	mask := imaging.NewMask(w, h)
	for _, g := range groups {
		xs := g.XStart
		if xs < 0 {
			xs = 0
		}
		xe := g.XEnd
		if xe > w-1 {
			xe = w - 1
		}
		for _, ly := range g.Lines {
			y := int(math.Round(ly))
			for row := y - 1; row <= y+1; row++ {
				if row < 0 || row >= h {
					continue
				}
				for x := xs; x <= xe; x++ {
					mask.Bits[row*w+x] = true
				}
			}
		}
	}
	return mask
}

// CountRows reports how many staves were found, capped at MaxGroups.
func CountRows(groups []Group) int {
	if len(groups) > MaxGroups {
		return MaxGroups
	}
	return len(groups)
}

// Layout is everything the estimator learns about one page.
type Layout struct {
	Spacing  int
	Groups   []Group
	LineMask *imaging.Mask
	// Mask is the staff mask rebuilt from the normalized groups. It equals
	// LineMask when no group was found.
	Mask *imaging.Mask
}

// Analyze runs the full estimator over a binary page mask.
func Analyze(binary *imaging.Mask, p Params) Layout {
	energy := RowEnergy(binary)
	spacing := EstimateSpacing(energy, p)
	lines := LineMask(binary, energy, p)
	groups := FindGroups(lines, spacing, p)
	NormalizeSpans(groups)
	ClampSpans(groups, binary.Width)

	layout := Layout{Spacing: spacing, Groups: groups, LineMask: lines, Mask: lines}
	if len(groups) > 0 {
		layout.Mask = RebuildMask(groups, binary.Width, binary.Height)
	}
	return layout
}
