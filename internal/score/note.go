package score

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Duration is a note value.
type Duration string

const (
	Whole     Duration = "whole"
	Half      Duration = "half"
	Quarter   Duration = "quarter"
	Eighth    Duration = "eighth"
	Sixteenth Duration = "sixteenth"
)

// Beats returns the length in quarter notes. Unknown values count as a quarter.
func (d Duration) Beats() float64 {
	switch d {
	case Whole:
		return 4
	case Half:
		return 2
	case Eighth:
		return 0.5
	case Sixteenth:
		return 0.25
	}
	return 1
}

// ParseDuration accepts the names used in NoteEvent and MusicXML <type>
// ("16th" is accepted for sixteenth).
func ParseDuration(s string) (Duration, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "whole":
		return Whole, nil
	case "half":
		return Half, nil
	case "quarter":
		return Quarter, nil
	case "eighth":
		return Eighth, nil
	case "sixteenth", "16th":
		return Sixteenth, nil
	}
	return "", fmt.Errorf("unknown duration %q", s)
}

// NoteEvent is one recognized note. X and Y are normalized to [0,1] in
// source image space; Measure is 1-based and synthetic (four notes each).
type NoteEvent struct {
	Name     string   `json:"name"`
	Octave   int      `json:"octave"`
	Duration Duration `json:"duration"`
	Measure  int      `json:"measure"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
}

// Pitch returns the note in scientific pitch notation, e.g. "E4".
func (n NoteEvent) Pitch() string {
	return fmt.Sprintf("%s%d", n.Name, n.Octave)
}

// MIDI returns the MIDI key number of the note.
func (n NoteEvent) MIDI() (int, error) {
	return MIDINumber(n.Name, n.Octave)
}

// Piece is a titled, identified sequence of notes.
type Piece struct {
	ID    string      `json:"id"`
	Title string      `json:"title"`
	Notes []NoteEvent `json:"notes"`
}

// NewPiece creates a piece with a fresh random id.
func NewPiece(title string, notes []NoteEvent) *Piece {
	if notes == nil {
		notes = []NoteEvent{}
	}
	return &Piece{ID: uuid.NewString(), Title: title, Notes: notes}
}

var semitones = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// sharpNames spells each pitch class with sharps.
var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// MIDINumber converts a note name (letter plus optional '#' or 'b') and an
// octave to a MIDI key number; C4 is 60.
func MIDINumber(name string, octave int) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("empty note name")
	}
	semi, ok := semitones[strings.ToUpper(name[:1])[0]]
	if !ok {
		return 0, fmt.Errorf("unknown note name %q", name)
	}
	for _, r := range name[1:] {
		switch r {
		case '#':
			semi++
		case 'b':
			semi--
		default:
			return 0, fmt.Errorf("unknown accidental in %q", name)
		}
	}
	n := (octave+1)*12 + semi
	if n < 0 || n > 127 {
		return 0, fmt.Errorf("note %s%d out of MIDI range", name, octave)
	}
	return n, nil
}

// NameForMIDI spells a MIDI key number with sharps.
func NameForMIDI(n int) (string, int) {
	return sharpNames[((n%12)+12)%12], n/12 - 1
}
