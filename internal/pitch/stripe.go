package pitch

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/score-omr/internal/detection"
	"github.com/ironsheep/score-omr/internal/imaging"
	"github.com/ironsheep/score-omr/internal/staff"
)

// stripsPerSide is how many column strips are sampled on each side of a
// head when a line is re-estimated.
const stripsPerSide = 3

// Resolver maps candidates to pitches.
type Resolver struct {
	// LineStripe enables the refined algorithm. It needs Binary.
	LineStripe bool
	// Binary is the page ink mask with the staff lines still present.
	Binary *imaging.Mask
}

// Step returns the diatonic step of c relative to the bottom line of g.
func (r Resolver) Step(g staff.Group, c detection.Candidate) int {
	if !r.LineStripe || r.Binary == nil || g.Spacing <= 0 {
		return SimpleStep(g, c.CY)
	}
	return StripeStep(r.Binary, g, c)
}

// Resolve returns the pitch of c on g.
func (r Resolver) Resolve(g staff.Group, c detection.Candidate) Pitch {
	return FromStep(r.Step(g, c))
}

// RefineLines re-estimates the five line rows of g next to the head c.
// Column strips left and right of the head (never the head columns
// themselves) each vote for their densest row inside a window of
// max(2, s/3) around the nominal line; a least-squares line through the
// votes is evaluated at the head centre. Lines without votes keep their
// nominal row. If the refined rows are not strictly increasing the
// nominal rows are returned.
func RefineLines(binary *imaging.Mask, g staff.Group, c detection.Candidate) [5]float64 {
	s := g.Spacing
	pad := maxInt(2, int(s/4))
	stripW := maxInt(3, int(s/2))
	window := math.Max(2, s/3)

	lo := maxInt(0, g.XStart)
	hi := minInt(binary.Width-1, g.XEnd)

	var out [5]float64
	for i, nominal := range g.Lines {
		var xs, ys []float64
		vote := func(x0, x1 int) {
			if x0 < lo || x1 > hi || x0 > x1 {
				return
			}
			if y, ok := bestRow(binary, x0, x1, nominal, window); ok {
				xs = append(xs, float64(x0+x1)/2)
				ys = append(ys, y)
			}
		}
		for k := 0; k < stripsPerSide; k++ {
			right := c.Bounds.X1 - pad - k*stripW
			vote(right-stripW+1, right)
			left := c.Bounds.X2 + pad + k*stripW
			vote(left, left+stripW-1)
		}
		out[i] = fitAt(xs, ys, c.CX, nominal, window)
	}

	for i := 1; i < 5; i++ {
		if out[i] <= out[i-1] {
			return g.Lines
		}
	}
	return out
}

// bestRow returns the mean of the rows with the highest ink count in
// columns [x0, x1] within window of nominal. At least half the strip must
// be ink for a vote.
func bestRow(m *imaging.Mask, x0, x1 int, nominal, window float64) (float64, bool) {
	y0 := maxInt(0, int(math.Ceil(nominal-window)))
	y1 := minInt(m.Height-1, int(math.Floor(nominal+window)))
	best, sum, n := 0, 0, 0
	for y := y0; y <= y1; y++ {
		count := 0
		for x := x0; x <= x1; x++ {
			if m.At(x, y) {
				count++
			}
		}
		switch {
		case count > best:
			best, sum, n = count, y, 1
		case count == best && count > 0:
			sum += y
			n++
		}
	}
	if n == 0 || best*2 < x1-x0+1 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}

func fitAt(xs, ys []float64, x, nominal, window float64) float64 {
	if len(xs) == 0 {
		return nominal
	}
	y := stat.Mean(ys, nil)
	if len(xs) > 1 && stat.Variance(xs, nil) > 0 {
		alpha, beta := stat.LinearRegression(xs, ys, nil, false)
		y = alpha + beta*x
	}
	return math.Max(nominal-window, math.Min(nominal+window, y))
}

// StripeStep resolves the step of c with the line-stripe algorithm.
func StripeStep(binary *imaging.Mask, g staff.Group, c detection.Candidate) int {
	lines := RefineLines(binary, g, c)
	s := g.Spacing
	half := s / 2
	cy := c.CY

	// Clearly outside the staff: count outward from the outer line and
	// never land in an interior gap.
	if cy < lines[0]-0.25*s {
		return 8 + maxInt(1, int(math.Round((lines[0]-cy)/half)))
	}
	if cy > lines[4]+0.25*s {
		return -maxInt(1, int(math.Round((cy-lines[4])/half)))
	}

	nearest := 0
	for i := 1; i < 5; i++ {
		if math.Abs(cy-lines[i]) < math.Abs(cy-lines[nearest]) {
			nearest = i
		}
	}
	onLine := 2 * (4 - nearest)
	d := cy - lines[nearest]
	row := int(math.Round(lines[nearest]))

	xPad := maxInt(3, int(s/3))
	yPad := maxInt(2, int(s/3))
	x0, x1 := c.Bounds.X1-xPad, c.Bounds.X2+xPad
	aboveOpen := BandConnected(binary, x0, x1, row-yPad, row-1)
	belowOpen := BandConnected(binary, x0, x1, row+1, row+yPad)

	switch {
	case !aboveOpen && belowOpen:
		return gapStep(onLine, -1, nearest)
	case aboveOpen && !belowOpen:
		return gapStep(onLine, 1, nearest)
	case !aboveOpen && !belowOpen && InkBand(binary, c, row, maxInt(2, int(s/4))):
		return onLine
	}

	if math.Abs(d) <= s/4 {
		return onLine
	}
	if d < 0 {
		return gapStep(onLine, -1, nearest)
	}
	return gapStep(onLine, 1, nearest)
}

// gapStep moves one step off the line: dir -1 is up, +1 is down. Moving
// out of the staff from an outer line is allowed only when the centroid
// check above already decided so, so such moves stay on the line.
func gapStep(onLine, dir, line int) int {
	if (line == 0 && dir < 0) || (line == 4 && dir > 0) {
		return onLine
	}
	return onLine - dir
}

// InkBand reports whether at least a third of the head columns carry a
// vertical ink run of minRun rows directly above and directly below row.
func InkBand(m *imaging.Mask, c detection.Candidate, row, minRun int) bool {
	cols := 0
	for x := c.Bounds.X1; x <= c.Bounds.X2; x++ {
		if run(m, x, row-1, -1, minRun) >= minRun && run(m, x, row+1, 1, minRun) >= minRun {
			cols++
		}
	}
	return cols > 0 && cols*3 >= c.Width()
}

func run(m *imaging.Mask, x, y, dy, limit int) int {
	n := 0
	for n < limit && m.At(x, y) {
		n++
		y += dy
	}
	return n
}

// BandConnected reports whether background pixels link the left edge of
// the band [x0, x1] x [y0, y1] to its right edge through 4-connected
// background. The band is clipped to the mask; an empty band counts as
// open.
func BandConnected(m *imaging.Mask, x0, x1, y0, y1 int) bool {
	x0, x1 = maxInt(0, x0), minInt(m.Width-1, x1)
	y0, y1 = maxInt(0, y0), minInt(m.Height-1, y1)
	if x0 >= x1 || y0 > y1 {
		return true
	}

	bw := x1 - x0 + 1
	visited := make([]bool, bw*(y1-y0+1))
	stack := make([]detection.Point, 0, bw)
	for y := y0; y <= y1; y++ {
		if !m.At(x0, y) {
			visited[(y-y0)*bw] = true
			stack = append(stack, detection.Point{X: x0, Y: y})
		}
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.X == x1 {
			return true
		}
		for _, n := range [4]detection.Point{{X: p.X + 1, Y: p.Y}, {X: p.X - 1, Y: p.Y}, {X: p.X, Y: p.Y + 1}, {X: p.X, Y: p.Y - 1}} {
			if n.X < x0 || n.X > x1 || n.Y < y0 || n.Y > y1 {
				continue
			}
			idx := (n.Y-y0)*bw + (n.X - x0)
			if visited[idx] || m.At(n.X, n.Y) {
				continue
			}
			visited[idx] = true
			stack = append(stack, n)
		}
	}
	return false
}
