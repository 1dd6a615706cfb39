package detection

import (
	"math"

	"github.com/ironsheep/score-omr/internal/staff"
)

// Thresholds drive the geometric filter cascade. Area factors are relative
// to spacing squared of the staff a candidate belongs to.
type Thresholds struct {
	MinAreaFactor  float64
	MaxAreaFactor  float64
	MinFill        float64
	MaxFill        float64
	MinCircularity float64
	MinAspect      float64
	MaxAspect      float64
	// PositionReach is how many spacings above the top line and below the
	// bottom line a centre may sit.
	PositionReach float64
	// RecallFirst enables the gap-sized blob rescue.
	RecallFirst bool
}

// Relaxed returns the recall-first variant of t: every bound is loosened
// and the gap rescue is switched on.
func (t Thresholds) Relaxed() Thresholds {
	r := t
	r.MinAreaFactor = t.MinAreaFactor * 0.7
	r.MaxAreaFactor = t.MaxAreaFactor * 1.3
	r.MinFill = t.MinFill * 0.75
	r.MaxFill = math.Min(0.99, t.MaxFill+0.04)
	r.MinCircularity = t.MinCircularity * 0.7
	r.MinAspect = 0.25
	r.MaxAspect = 3.2
	r.PositionReach = 2.0
	r.RecallFirst = true
	return r
}

// Diagnostics counts why candidates were rejected during one run.
type Diagnostics struct {
	Candidates    int `json:"candidates"`
	Trimmed       int `json:"trimmed"`
	Area          int `json:"area"`
	Bounds        int `json:"bounds"`
	Size          int `json:"size"`
	Aspect        int `json:"aspect"`
	Fill          int `json:"fill"`
	Perimeter     int `json:"perimeter"`
	Circularity   int `json:"circularity"`
	StaffPosition int `json:"staff_position"`
	Rescued       int `json:"rescued"`
	Dedupe        int `json:"dedupe"`
	Analytical    int `json:"analytical"`
	Accepted      int `json:"accepted"`
}

// Reason names the first filter stage a candidate failed.
type Reason int

const (
	Pass Reason = iota
	RejectArea
	RejectBounds
	RejectSize
	RejectAspect
	RejectFill
	RejectPerimeter
	RejectCircularity
	RejectPosition
)

func (r Reason) String() string {
	switch r {
	case Pass:
		return "pass"
	case RejectArea:
		return "area"
	case RejectBounds:
		return "bounds"
	case RejectSize:
		return "size"
	case RejectAspect:
		return "aspect"
	case RejectFill:
		return "fill"
	case RejectPerimeter:
		return "perimeter"
	case RejectCircularity:
		return "circularity"
	case RejectPosition:
		return "staff_position"
	}
	return "unknown"
}

func (d *Diagnostics) count(r Reason) {
	if d == nil {
		return
	}
	switch r {
	case RejectArea:
		d.Area++
	case RejectBounds:
		d.Bounds++
	case RejectSize:
		d.Size++
	case RejectAspect:
		d.Aspect++
	case RejectFill:
		d.Fill++
	case RejectPerimeter:
		d.Perimeter++
	case RejectCircularity:
		d.Circularity++
	case RejectPosition:
		d.StaffPosition++
	}
}

// Filter runs the cascade over raw components on a pageW x pageH page.
// Each survivor gets its Group set. spacing is the page-wide estimate used
// for candidates that cannot be assigned to a staff. diag may be nil.
func Filter(cands []Candidate, groups []staff.Group, spacing float64, pageW, pageH int, t Thresholds, diag *Diagnostics) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if diag != nil {
			diag.Candidates++
		}
		c.Group = staff.Nearest(groups, c.CX, c.CY)
		s := spacing
		if c.Group >= 0 {
			s = groups[c.Group].Spacing
		}

		reason := Check(c, groups, s, pageW, pageH, t)
		if reason != Pass && t.RecallFirst && reason != RejectBounds && gapRescue(c, groups) {
			reason = Pass
			if diag != nil {
				diag.Rescued++
			}
		}
		if reason != Pass {
			diag.count(reason)
			continue
		}
		out = append(out, c)
	}
	return out
}

// Check returns the first cascade stage c fails, or Pass.
func Check(c Candidate, groups []staff.Group, s float64, pageW, pageH int, t Thresholds) Reason {
	s2 := s * s
	if c.Area < t.MinAreaFactor*s2 || c.Area > t.MaxAreaFactor*s2 {
		return RejectArea
	}

	bw, bh := c.Width(), c.Height()
	if bw < 3 || bh < 3 || bw > pageW/6 || bh > pageH/5 {
		return RejectBounds
	}

	minSize := math.Max(3, s*0.35)
	maxSize := math.Max(10, s*2.4)
	fw, fh := float64(bw), float64(bh)
	if fw < minSize || fh < minSize || fw > maxSize || fh > maxSize {
		return RejectSize
	}

	ratio := c.Aspect()
	if ratio < t.MinAspect || ratio > t.MaxAspect {
		return RejectAspect
	}

	fill := c.Fill()
	if fill < t.MinFill || fill > t.MaxFill {
		return RejectFill
	}

	if c.Perimeter <= 0 {
		return RejectPerimeter
	}

	if c.Circularity() < t.MinCircularity {
		return RejectCircularity
	}

	if c.Group < 0 || c.Group >= len(groups) || !staff.Allowed(groups[c.Group], c.CX, c.CY, t.PositionReach) {
		return RejectPosition
	}
	return Pass
}

// gapRescue re-admits a blob roughly the size of one staff gap that sits
// on a staff step, regardless of why the main cascade dropped it.
func gapRescue(c Candidate, groups []staff.Group) bool {
	if c.Group < 0 || c.Group >= len(groups) {
		return false
	}
	g := groups[c.Group]
	s := g.Spacing
	fw, fh := float64(c.Width()), float64(c.Height())
	if fw < s*0.6 || fw > s*1.8 || fh < s*0.5 || fh > s*1.4 {
		return false
	}
	if c.Fill() < 0.3 {
		return false
	}
	if c.CX < float64(g.XStart) || c.CX > float64(g.XEnd) {
		return false
	}
	if c.CY < g.Top()-s || c.CY > g.Bottom()+s {
		return false
	}
	return staff.StepDistance(g, c.CY) <= 0.35
}
