package pitch

import (
	"fmt"
	"math"

	"github.com/ironsheep/score-omr/internal/staff"
)

// Letters is the natural note cycle starting at C.
var Letters = [7]string{"C", "D", "E", "F", "G", "A", "B"}

// bottomLineIndex is the absolute diatonic index (octave*7 + letter) of E4.
const bottomLineIndex = 4*7 + 2

// Pitch is a natural note name with its octave in scientific notation.
type Pitch struct {
	Name   string
	Octave int
	Step   int
}

func (p Pitch) String() string {
	return fmt.Sprintf("%s%d", p.Name, p.Octave)
}

// FromStep converts a step from the bottom line into a pitch.
func FromStep(step int) Pitch {
	abs := bottomLineIndex + step
	octave := floorDiv(abs, 7)
	return Pitch{Name: Letters[abs-octave*7], Octave: octave, Step: step}
}

// StepOf is the inverse of FromStep. Accidentals are ignored.
func StepOf(name string, octave int) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("empty note name")
	}
	for i, l := range Letters {
		if l == name[:1] {
			return octave*7 + i - bottomLineIndex, nil
		}
	}
	return 0, fmt.Errorf("unknown note name %q", name)
}

// SimpleStep rounds the distance between cy and the bottom line of g to
// the nearest half spacing.
func SimpleStep(g staff.Group, cy float64) int {
	half := g.Spacing / 2
	if half <= 0 {
		return 0
	}
	return int(math.Round((g.Bottom() - cy) / half))
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
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
