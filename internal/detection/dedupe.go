package detection

import (
	"math"
	"sort"

	"github.com/ironsheep/score-omr/internal/staff"
)

// spacingFor returns the spacing of the candidate's staff, or fallback.
func spacingFor(c Candidate, groups []staff.Group, fallback float64) float64 {
	if c.Group >= 0 && c.Group < len(groups) {
		return groups[c.Group].Spacing
	}
	return fallback
}

// DedupeCenters keeps candidates largest first and drops any whose centre
// lies within max(2, 0.45*spacing) of an already kept one.
func DedupeCenters(in []Candidate, spacing float64) []Candidate {
	if len(in) < 2 {
		return append([]Candidate(nil), in...)
	}
	sorted := append([]Candidate(nil), in...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Area > sorted[j].Area
	})

	minDist := math.Max(2, spacing*0.45)
	keep := make([]Candidate, 0, len(sorted))
	for _, c := range sorted {
		overlap := false
		for _, k := range keep {
			if math.Hypot(c.CX-k.CX, c.CY-k.CY) < minDist {
				overlap = true
				break
			}
		}
		if !overlap {
			keep = append(keep, c)
		}
	}
	return keep
}

type slotKey struct {
	group int
	slot  int
}

// DedupeSlots buckets candidates by (staff index, round(cx/slotWidth)) with
// slotWidth = max(7, 1.25*spacing) and keeps the best SlotScore per bucket.
// The result is ordered left to right, then top to bottom.
func DedupeSlots(in []Candidate, groups []staff.Group, spacing float64) []Candidate {
	best := make(map[slotKey]Candidate, len(in))
	order := make([]slotKey, 0, len(in))
	for _, c := range in {
		s := spacingFor(c, groups, spacing)
		slotW := math.Max(7, s*1.25)
		key := slotKey{group: c.Group, slot: int(math.Round(c.CX / slotW))}
		c.Score = SlotScore(c, groups, spacing)
		prev, ok := best[key]
		if !ok {
			order = append(order, key)
		}
		if !ok || c.Score > prev.Score {
			best[key] = c
		}
	}

	out := make([]Candidate, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	SortByPosition(out)
	return out
}

// SlotScore rewards near-ideal normalized area, near-square aspect,
// proximity to a staff step and compactness. Each term lies in [0,1].
func SlotScore(c Candidate, groups []staff.Group, spacing float64) float64 {
	s := spacingFor(c, groups, spacing)
	areaNorm := c.Area / math.Max(1, s*s)
	areaScore := math.Max(0, 1-math.Abs(areaNorm-0.9)/0.9)

	aspectScore := math.Max(0, 1-math.Abs(math.Log(math.Max(c.Aspect(), 1e-6)))/math.Log(2.5))

	stepScore := 0.0
	if c.Group >= 0 && c.Group < len(groups) {
		stepScore = math.Max(0, 1-2*staff.StepDistance(groups[c.Group], c.CY))
	}

	return areaScore + aspectScore + stepScore + c.Circularity()
}

// Dedupe runs both passes and records the removed count in diag.
func Dedupe(in []Candidate, groups []staff.Group, spacing float64, diag *Diagnostics) []Candidate {
	out := DedupeSlots(DedupeCenters(in, spacing), groups, spacing)
	if diag != nil {
		diag.Dedupe += len(in) - len(out)
	}
	return out
}

// SortByPosition orders candidates by bounding box left edge, then top.
func SortByPosition(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Bounds.X1 == cs[j].Bounds.X1 {
			return cs[i].Bounds.Y1 < cs[j].Bounds.Y1
		}
		return cs[i].Bounds.X1 < cs[j].Bounds.X1
	})
}
