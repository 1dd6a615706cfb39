package duration

import (
	"testing"

	"github.com/ironsheep/score-omr/internal/detection"
	"github.com/ironsheep/score-omr/internal/imaging"
	"github.com/ironsheep/score-omr/internal/score"
)

const spacing = 12

// head draws a 13x11 head centred at (100, 100); hollow heads keep only
// the outer ring.
func head(m *imaging.Mask, hollow bool) detection.Candidate {
	const cx, cy, rx, ry = 100, 100, 6, 5
	for dy := -ry; dy <= ry; dy++ {
		for dx := -rx; dx <= rx; dx++ {
			fx := float64(dx) / rx
			fy := float64(dy) / ry
			d := fx*fx + fy*fy
			if d <= 1 && (!hollow || d >= 0.5) {
				m.Set(cx+dx, cy+dy, true)
			}
		}
	}
	return detection.Candidate{
		Bounds: detection.Bounds{X1: cx - rx, Y1: cy - ry, X2: cx + rx, Y2: cy + ry},
		CX:     cx,
		CY:     cy,
	}
}

// stemUp draws a two-pixel stem on the right side of the head up to y=60.
func stemUp(m *imaging.Mask) {
	for y := 60; y <= 100; y++ {
		m.Set(105, y, true)
		m.Set(106, y, true)
	}
}

// flag draws a three-row stroke leaving the stem at row y.
func flag(m *imaging.Mask, y int) {
	for r := y; r < y+3; r++ {
		for x := 107; x <= 118; x++ {
			m.Set(x, r, true)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		hollow bool
		stem   bool
		flags  []int
		want   score.Duration
	}{
		{"whole", true, false, nil, score.Whole},
		{"half", true, true, nil, score.Half},
		{"bare filled head", false, false, nil, score.Quarter},
		{"quarter", false, true, nil, score.Quarter},
		{"eighth", false, true, []int{60}, score.Eighth},
		{"sixteenth", false, true, []int{60, 66}, score.Sixteenth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := imaging.NewMask(200, 160)
			c := head(m, tt.hollow)
			if tt.stem {
				stemUp(m)
			}
			for _, y := range tt.flags {
				flag(m, y)
			}
			if got := Classify(m, c, spacing); got != tt.want {
				t.Errorf("Classify = %s, want %s (features %+v)", got, tt.want, Measure(m, c, spacing))
			}
		})
	}
}

func TestFindStem_FollowsBeyondWindow(t *testing.T) {
	m := imaging.NewMask(200, 160)
	c := head(m, false)
	stemUp(m)

	stem, ok := FindStem(m, c, spacing)
	if !ok {
		t.Fatal("expected a stem")
	}
	if stem.X != 105 {
		t.Errorf("stem.X = %d, want 105", stem.X)
	}
	if stem.Top != 60 {
		t.Errorf("stem.Top = %d, want 60", stem.Top)
	}
}

func TestFindStem_SingleColumnIsNotAStem(t *testing.T) {
	m := imaging.NewMask(200, 160)
	c := head(m, false)
	for y := 60; y <= 100; y++ {
		m.Set(120, y, true)
	}
	if _, ok := FindStem(m, c, spacing); ok {
		t.Error("a line outside the search band should not count as a stem")
	}
}

func TestIsHollow(t *testing.T) {
	m := imaging.NewMask(200, 160)
	if !IsHollow(m, head(m, true)) {
		t.Error("ring head should be hollow")
	}
	m = imaging.NewMask(200, 160)
	if IsHollow(m, head(m, false)) {
		t.Error("filled head should not be hollow")
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		f    Features
		want score.Duration
	}{
		{Features{Hollow: true}, score.Whole},
		{Features{Hollow: true, Stem: true, Flags: 2}, score.Half},
		{Features{Flags: 2}, score.Quarter},
		{Features{Stem: true}, score.Quarter},
		{Features{Stem: true, Flags: 1}, score.Eighth},
		{Features{Stem: true, Flags: 3}, score.Sixteenth},
	}
	for _, tt := range tests {
		if got := Resolve(tt.f); got != tt.want {
			t.Errorf("Resolve(%+v) = %s, want %s", tt.f, got, tt.want)
		}
	}
}
