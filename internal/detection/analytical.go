package detection

import (
	"math"

	"github.com/ironsheep/score-omr/internal/staff"
)

// MaxAnalyticalScore is the best score AnalyticalScore can give.
const MaxAnalyticalScore = 5.0

// AnalyticalScore rates how much c looks like a note head on a 0-5 scale:
// aspect plausibility, area plausibility, a max-dimension bound, a
// min-dimension bound and staff-step proximity each contribute up to 1.
func AnalyticalScore(c Candidate, groups []staff.Group, spacing float64) float64 {
	s := spacingFor(c, groups, spacing)
	score := 0.0

	aspect := c.Aspect()
	switch {
	case aspect >= 0.6 && aspect <= 1.9:
		score++
	case aspect >= 0.45 && aspect <= 2.4:
		score += 0.5
	}

	areaNorm := c.Area / math.Max(1, s*s)
	switch {
	case areaNorm >= 0.35 && areaNorm <= 2.2:
		score++
	case areaNorm >= 0.2 && areaNorm <= 3.2:
		score += 0.5
	}

	maxDim := math.Max(float64(c.Width()), float64(c.Height()))
	minDim := math.Min(float64(c.Width()), float64(c.Height()))
	if maxDim <= 2*s {
		score++
	}
	if minDim >= 0.4*s {
		score++
	}

	if c.Group >= 0 && c.Group < len(groups) {
		d := staff.StepDistance(groups[c.Group], c.CY)
		switch {
		case d <= 0.25:
			score++
		case d <= 0.4:
			score += 0.5
		}
	}
	return score
}

// StrengthFor resolves the analytical strength for a staff: an entry of
// perStaff at the staff index overrides global unless it is negative.
func StrengthFor(group int, global float64, perStaff []float64) float64 {
	if group >= 0 && group < len(perStaff) && perStaff[group] >= 0 {
		return perStaff[group]
	}
	return global
}

// AnalyticalFilter keeps candidates whose score reaches
// 4.5*strength. A strength of 0 accepts everything.
func AnalyticalFilter(in []Candidate, groups []staff.Group, spacing, strength float64, perStaff []float64, diag *Diagnostics) []Candidate {
	out := make([]Candidate, 0, len(in))
	for _, c := range in {
		c.Score = AnalyticalScore(c, groups, spacing)
		threshold := 4.5 * StrengthFor(c.Group, strength, perStaff)
		if c.Score+1e-9 < threshold {
			if diag != nil {
				diag.Analytical++
			}
			continue
		}
		out = append(out, c)
	}
	if diag != nil {
		diag.Accepted = len(out)
	}
	return out
}
