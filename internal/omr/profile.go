package omr

import (
	"fmt"

	"github.com/ironsheep/score-omr/internal/staff"
)

// Profile gathers the heuristic constants that are not exposed as
// per-call Options. A Processor validates its profile once at construction.
type Profile struct {
	Staff staff.Params

	// MinAspect and MaxAspect bound width/height of a note head outside
	// recall-first mode.
	MinAspect float64
	MaxAspect float64
	// PositionReach is how many spacings beyond the outer lines a head
	// centre may sit outside recall-first mode.
	PositionReach float64

	// MeasureSize is the number of notes per synthetic measure.
	MeasureSize int

	// Native preconditioning.
	CLAHEClipLimit float64
	CLAHETileSize  int
	MedianKernel   int
}

// DefaultProfile returns the tuned constants.
func DefaultProfile() Profile {
	return Profile{
		Staff:          staff.DefaultParams(),
		MinAspect:      0.35,
		MaxAspect:      2.6,
		PositionReach:  1.5,
		MeasureSize:    4,
		CLAHEClipLimit: 2.4,
		CLAHETileSize:  8,
		MedianKernel:   3,
	}
}

// Validate reports the first out-of-range constant.
func (p Profile) Validate() error {
	s := p.Staff
	switch {
	case s.SpacingPeakRatio <= 0 || s.SpacingPeakRatio > 1:
		return fmt.Errorf("spacing peak ratio %v outside (0,1]", s.SpacingPeakRatio)
	case s.LineRowRatio <= 0 || s.LineRowRatio > 1:
		return fmt.Errorf("line row ratio %v outside (0,1]", s.LineRowRatio)
	case s.LineRunDivisor < 1 || s.GroupPeakDivisor < 1:
		return fmt.Errorf("staff divisors must be positive")
	case s.GroupTolerance <= 0 || s.GroupTolerance >= 1:
		return fmt.Errorf("group tolerance %v outside (0,1)", s.GroupTolerance)
	case s.SpanMinInkRows < 1:
		return fmt.Errorf("span min ink rows must be positive")
	case p.MinAspect <= 0 || p.MinAspect >= p.MaxAspect:
		return fmt.Errorf("aspect bounds [%v,%v] are invalid", p.MinAspect, p.MaxAspect)
	case p.PositionReach <= 0:
		return fmt.Errorf("position reach must be positive")
	case p.MeasureSize < 1:
		return fmt.Errorf("measure size must be positive")
	case p.CLAHEClipLimit <= 0 || p.CLAHETileSize < 1:
		return fmt.Errorf("invalid CLAHE parameters")
	case p.MedianKernel < 3 || p.MedianKernel%2 == 0:
		return fmt.Errorf("median kernel %d must be odd and >= 3", p.MedianKernel)
	}
	return nil
}
