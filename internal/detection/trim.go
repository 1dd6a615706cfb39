package detection

import (
	"math"

	"github.com/ironsheep/score-omr/internal/imaging"
)

// TallFactor is the height, in staff spacings, above which a candidate is
// taken to be a head with a stem, flags or beams attached.
const TallFactor = 1.8

// TrimTall cuts every candidate taller than TallFactor spacings down to the
// head it carries. The head is the band of rows, 1.2 spacings high, holding
// the most head-like ink: pixels whose vertical run within their column is
// between 0.4 and 1.6 spacings long. Stems run longer than that and flag
// strokes shorter, so neither wins the band. Inside the band the largest
// connected region of m replaces the candidate. Candidates without such a
// band are returned unchanged and left to the cascade.
func TrimTall(cands []Candidate, m *imaging.Mask, spacing float64, diag *Diagnostics) []Candidate {
	if m == nil || spacing <= 0 {
		return cands
	}
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if float64(c.Height()) > TallFactor*spacing {
			if head, ok := trimToHead(c, m, spacing); ok {
				if diag != nil {
					diag.Trimmed++
				}
				c = head
			}
		}
		out = append(out, c)
	}
	return out
}

func trimToHead(c Candidate, m *imaging.Mask, spacing float64) (Candidate, bool) {
	b := c.Bounds
	h := c.Height()
	band := min(h, max(3, int(math.Round(1.2*spacing))))
	thin := max(3, int(math.Round(0.4*spacing)))
	minRun := max(2, int(math.Ceil(0.4*spacing)))
	maxRun := int(1.6 * spacing)

	rows := make([]int, h)
	for x := b.X1; x <= b.X2; x++ {
		y := b.Y1
		for y <= b.Y2 {
			if !m.At(x, y) {
				y++
				continue
			}
			start := y
			for y <= b.Y2 && m.At(x, y) {
				y++
			}
			if n := y - start; n >= minRun && n <= maxRun {
				for r := start; r < y; r++ {
					rows[r-b.Y1]++
				}
			}
		}
	}

	best, top := 0, -1
	sum := 0
	for i := 0; i < h; i++ {
		sum += rows[i]
		if i >= band {
			sum -= rows[i-band]
		}
		if i >= band-1 && sum > best {
			best, top = sum, i-band+1
		}
	}
	if top < 0 {
		return c, false
	}

	// Shave stem rows off the band edges.
	y1, y2 := b.Y1+top, b.Y1+top+band-1
	for y1 < y2 && rowInk(m, b.X1, b.X2, y1) <= thin {
		y1++
	}
	for y2 > y1 && rowInk(m, b.X1, b.X2, y2) <= thin {
		y2--
	}

	w := c.Width()
	sub := imaging.NewMask(w, y2-y1+1)
	for y := y1; y <= y2; y++ {
		for x := b.X1; x <= b.X2; x++ {
			if m.At(x, y) {
				sub.Set(x-b.X1, y-y1, true)
			}
		}
	}
	parts := Components(sub)
	if len(parts) == 0 {
		return c, false
	}
	head := parts[0]
	for _, p := range parts[1:] {
		if p.Area > head.Area {
			head = p
		}
	}
	head.Bounds.X1 += b.X1
	head.Bounds.X2 += b.X1
	head.Bounds.Y1 += y1
	head.Bounds.Y2 += y1
	head.CX += float64(b.X1)
	head.CY += float64(y1)
	head.Group = c.Group
	return head, true
}

func rowInk(m *imaging.Mask, x1, x2, y int) int {
	n := 0
	for x := x1; x <= x2; x++ {
		if m.At(x, y) {
			n++
		}
	}
	return n
}
