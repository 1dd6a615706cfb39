// Package duration classifies note values from the ink around a note head.
//
// Three features are measured on the symbol mask (staff lines removed,
// before morphological smoothing so thin stems survive): whether the head
// is hollow, whether a stem is attached, and how many flag or beam strokes
// hang off the stem.
package duration

import (
	"math"

	"github.com/ironsheep/score-omr/internal/detection"
	"github.com/ironsheep/score-omr/internal/imaging"
	"github.com/ironsheep/score-omr/internal/score"
)

// HollowFill is the bounding box fill below which a head counts as hollow.
const HollowFill = 0.45

// Features are the measurements behind a duration decision.
type Features struct {
	Hollow bool `json:"hollow"`
	Stem   bool `json:"stem"`
	Flags  int  `json:"flags"`
}

// Measure extracts the duration features of head c from the symbol mask m.
func Measure(m *imaging.Mask, c detection.Candidate, spacing float64) Features {
	f := Features{Hollow: IsHollow(m, c)}
	if stem, ok := FindStem(m, c, spacing); ok {
		f.Stem = true
		f.Flags = CountFlags(m, c, stem, spacing)
	}
	return f
}

// Classify measures c and resolves its duration.
func Classify(m *imaging.Mask, c detection.Candidate, spacing float64) score.Duration {
	return Resolve(Measure(m, c, spacing))
}

// Resolve maps features to a duration.
func Resolve(f Features) score.Duration {
	switch {
	case f.Hollow && !f.Stem:
		return score.Whole
	case f.Hollow:
		return score.Half
	case !f.Stem:
		return score.Quarter
	case f.Flags >= 2:
		return score.Sixteenth
	case f.Flags >= 1:
		return score.Eighth
	}
	return score.Quarter
}

// IsHollow reports whether less than HollowFill of the head's bounding box
// is ink.
func IsHollow(m *imaging.Mask, c detection.Candidate) bool {
	x0, y0, x1, y1 := clip(m, c.Bounds.X1, c.Bounds.Y1, c.Bounds.X2, c.Bounds.Y2)
	total, ink := 0, 0
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			total++
			if m.At(x, y) {
				ink++
			}
		}
	}
	if total == 0 {
		return false
	}
	return float64(ink)/float64(total) < HollowFill
}

// Stem is the longest vertical run found next to a head.
type Stem struct {
	X      int `json:"x"`
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
}

// FindStem looks for at least two columns, within max(2, s/2) of the head,
// holding a vertical ink run of head height + 0.6*s inside a window
// reaching two spacings above and below the head. The column with the
// longest run is returned.
func FindStem(m *imaging.Mask, c detection.Candidate, spacing float64) (Stem, bool) {
	s := math.Max(1, spacing)
	pad := maxInt(2, int(s/2))
	x0, y0, x1, y1 := clip(m, c.Bounds.X1-pad, c.Bounds.Y1-int(2*s), c.Bounds.X2+pad, c.Bounds.Y2+int(2*s))
	minRun := int(math.Ceil(float64(c.Height()) + 0.6*s))

	var stem Stem
	cols, longest := 0, 0
	for x := x0; x <= x1; x++ {
		run, best, bestEnd := 0, 0, 0
		for y := y0; y <= y1; y++ {
			if !m.At(x, y) {
				run = 0
				continue
			}
			run++
			if run > best {
				best, bestEnd = run, y
			}
		}
		if best < minRun {
			continue
		}
		cols++
		if best > longest {
			longest = best
			stem = Stem{X: x, Top: bestEnd - best + 1, Bottom: bestEnd}
		}
	}
	if cols < 2 {
		return Stem{}, false
	}
	// The search window may cut the stem short; follow it to its ends.
	for m.At(stem.X, stem.Top-1) {
		stem.Top--
	}
	for m.At(stem.X, stem.Bottom+1) {
		stem.Bottom++
	}
	return stem, true
}

// CountFlags counts rows near the far end of the stem that hold a
// horizontal ink run of max(3, s/2) to the right of the stem. Six or more
// rows read as two flags, three or more as one. Rows through the head are
// ignored.
func CountFlags(m *imaging.Mask, c detection.Candidate, stem Stem, spacing float64) int {
	s := math.Max(1, spacing)
	reach := int(math.Ceil(1.5 * s))
	yA, yB := stem.Top, stem.Top+reach
	if float64(stem.Bottom)-c.CY > c.CY-float64(stem.Top) {
		yA, yB = stem.Bottom-reach, stem.Bottom
	}
	x0, y0, x1, y1 := clip(m, stem.X+1, yA, stem.X+int(2*s), yB)
	minRun := maxInt(3, int(s/2))

	rows := 0
	for y := y0; y <= y1; y++ {
		if y >= c.Bounds.Y1 && y <= c.Bounds.Y2 {
			continue
		}
		run, best := 0, 0
		for x := x0; x <= x1; x++ {
			if m.At(x, y) {
				run++
				if run > best {
					best = run
				}
			} else {
				run = 0
			}
		}
		if best >= minRun {
			rows++
		}
	}
	switch {
	case rows >= 6:
		return 2
	case rows >= 3:
		return 1
	}
	return 0
}

func clip(m *imaging.Mask, x0, y0, x1, y1 int) (int, int, int, int) {
	return maxInt(0, x0), maxInt(0, y0), minInt(m.Width-1, x1), minInt(m.Height-1, y1)
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
