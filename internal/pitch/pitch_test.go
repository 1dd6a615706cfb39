package pitch

import (
	"math"
	"testing"

	"github.com/ironsheep/score-omr/internal/detection"
	"github.com/ironsheep/score-omr/internal/imaging"
	"github.com/ironsheep/score-omr/internal/staff"
)

var testGroup = staff.Group{
	Lines:   [5]float64{40, 52, 64, 76, 88},
	Spacing: 12,
	XStart:  10,
	XEnd:    300,
}

// drawStaff draws the five lines of g one pixel thick across its span.
func drawStaff(m *imaging.Mask, g staff.Group) {
	for _, y := range g.Lines {
		for x := g.XStart; x <= g.XEnd; x++ {
			m.Set(x, int(y), true)
		}
	}
}

// drawHead draws a filled 13x11 head centred at (cx, cy) and returns the
// matching candidate.
func drawHead(m *imaging.Mask, cx, cy int) detection.Candidate {
	const rx, ry = 6, 5
	area := 0
	for dy := -ry; dy <= ry; dy++ {
		for dx := -rx; dx <= rx; dx++ {
			fx := float64(dx) / rx
			fy := float64(dy) / ry
			if fx*fx+fy*fy <= 1 {
				m.Set(cx+dx, cy+dy, true)
				area++
			}
		}
	}
	return detection.Candidate{
		Bounds: detection.Bounds{X1: cx - rx, Y1: cy - ry, X2: cx + rx, Y2: cy + ry},
		Area:   float64(area),
		CX:     float64(cx),
		CY:     float64(cy),
	}
}

func TestFromStep(t *testing.T) {
	tests := []struct {
		step int
		want string
	}{
		{0, "E4"},
		{1, "F4"},
		{2, "G4"},
		{4, "B4"},
		{5, "C5"},
		{8, "F5"},
		{10, "A5"},
		{-1, "D4"},
		{-2, "C4"},
		{-3, "B3"},
		{-9, "C3"},
	}
	for _, tt := range tests {
		if got := FromStep(tt.step).String(); got != tt.want {
			t.Errorf("FromStep(%d) = %s, want %s", tt.step, got, tt.want)
		}
	}
}

func TestStepOf_InvertsFromStep(t *testing.T) {
	for step := -14; step <= 20; step++ {
		p := FromStep(step)
		got, err := StepOf(p.Name, p.Octave)
		if err != nil {
			t.Fatalf("StepOf(%s) error: %v", p, err)
		}
		if got != step {
			t.Errorf("StepOf(%s) = %d, want %d", p, got, step)
		}
	}

	if got, err := StepOf("C#", 4); err != nil || got != -2 {
		t.Errorf("StepOf(C#4) = %d, %v; want -2", got, err)
	}
	if _, err := StepOf("H", 4); err == nil {
		t.Error("expected error for unknown letter")
	}
	if _, err := StepOf("", 4); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestRoundTripOnLines(t *testing.T) {
	for i, y := range testGroup.Lines {
		m := imaging.NewMask(320, 140)
		drawStaff(m, testGroup)
		c := drawHead(m, 150, int(y))
		want := 2 * (4 - i)

		simple := Resolver{}
		if got := simple.Step(testGroup, c); got != want {
			t.Errorf("line %d: simple step = %d, want %d", i, got, want)
		}

		stripe := Resolver{LineStripe: true, Binary: m}
		if got := stripe.Step(testGroup, c); got != want {
			t.Errorf("line %d: line-stripe step = %d, want %d", i, got, want)
		}
	}
}

func TestLineStripe_Gaps(t *testing.T) {
	for i := 0; i < 4; i++ {
		m := imaging.NewMask(320, 140)
		drawStaff(m, testGroup)
		c := drawHead(m, 150, int(testGroup.Lines[i])+6)
		want := 2*(4-i) - 1

		r := Resolver{LineStripe: true, Binary: m}
		if got := r.Step(testGroup, c); got != want {
			t.Errorf("gap below line %d: step = %d, want %d", i, got, want)
		}
		if got := SimpleStep(testGroup, c.CY); got != want {
			t.Errorf("gap below line %d: simple step = %d, want %d", i, got, want)
		}
	}
}

func TestLineStripe_OutsideStaff(t *testing.T) {
	tests := []struct {
		name string
		cy   int
		want int
	}{
		{"first ledger above", 28, 10},
		{"space above", 34, 9},
		{"space below", 94, -1},
		{"first ledger below", 100, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := imaging.NewMask(320, 140)
			drawStaff(m, testGroup)
			c := drawHead(m, 150, tt.cy)
			r := Resolver{LineStripe: true, Binary: m}
			if got := r.Step(testGroup, c); got != tt.want {
				t.Errorf("step = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRefineLines_FollowsSlope(t *testing.T) {
	// Lines drop one row every 40 columns; the group carries the rows
	// measured at the middle of the span.
	g := staff.Group{
		Lines:   [5]float64{44, 56, 68, 80, 92},
		Spacing: 12,
		XStart:  10,
		XEnd:    330,
	}
	m := imaging.NewMask(340, 130)
	for i := 0; i < 5; i++ {
		for x := 10; x <= 330; x++ {
			m.Set(x, 40+12*i+(x-10)/40, true)
		}
	}
	c := detection.Candidate{
		Bounds: detection.Bounds{X1: 284, Y1: 60, X2: 296, Y2: 70},
		CX:     290,
		CY:     65,
	}

	lines := RefineLines(m, g, c)
	for i, y := range lines {
		want := 46.5 + 12*float64(i)
		if math.Abs(y-want) > 0.01 {
			t.Errorf("line %d = %.2f, want %.2f", i, y, want)
		}
	}
}

func TestRefineLines_KeepsNominalWithoutInk(t *testing.T) {
	m := imaging.NewMask(320, 140)
	c := detection.Candidate{Bounds: detection.Bounds{X1: 144, Y1: 47, X2: 156, Y2: 57}, CX: 150, CY: 52}
	if got := RefineLines(m, testGroup, c); got != testGroup.Lines {
		t.Errorf("RefineLines on blank page = %v, want %v", got, testGroup.Lines)
	}
}

func TestBandConnected(t *testing.T) {
	m := imaging.NewMask(40, 20)
	if !BandConnected(m, 5, 30, 5, 8) {
		t.Error("blank band should be connected")
	}

	for y := 5; y <= 8; y++ {
		m.Set(15, y, true)
	}
	if BandConnected(m, 5, 30, 5, 8) {
		t.Error("full-height bar should block the band")
	}

	m.Set(15, 7, false)
	if !BandConnected(m, 5, 30, 5, 8) {
		t.Error("one-pixel gap should reconnect the band")
	}

	if !BandConnected(m, 50, 60, 5, 8) {
		t.Error("band outside the mask should count as open")
	}
}

func TestInkBand(t *testing.T) {
	m := imaging.NewMask(320, 140)
	drawStaff(m, testGroup)
	on := drawHead(m, 100, 64)
	if !InkBand(m, on, 64, 3) {
		t.Error("head centred on the line should pass the ink band test")
	}

	gap := drawHead(m, 200, 70)
	if InkBand(m, gap, 64, 3) {
		t.Error("head below the line should fail the ink band test")
	}
}
