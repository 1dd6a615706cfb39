package score

import (
	"encoding/xml"
	"fmt"
	"io"
)

type xmlScore struct {
	Parts []struct {
		Measures []struct {
			Number string    `xml:"number,attr"`
			Notes  []xmlNote `xml:"note"`
		} `xml:"measure"`
	} `xml:"part"`
}

type xmlNote struct {
	Rest   *struct{} `xml:"rest"`
	Chord  *struct{} `xml:"chord"`
	Type   string    `xml:"type"`
	Pitch  *struct {
		Step   string `xml:"step"`
		Alter  int    `xml:"alter"`
		Octave int    `xml:"octave"`
	} `xml:"pitch"`
}

// ReadMusicXML extracts the melody of the first part of a partwise
// MusicXML document. Rests, unpitched notes and chord members after the
// first are skipped; alter values become '#' or 'b' suffixes. Measure
// numbers follow the document order starting at 1.
func ReadMusicXML(r io.Reader) ([]NoteEvent, error) {
	var doc xmlScore
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse musicxml: %w", err)
	}
	if len(doc.Parts) == 0 {
		return nil, fmt.Errorf("musicxml has no parts")
	}

	notes := make([]NoteEvent, 0)
	for mi, m := range doc.Parts[0].Measures {
		for _, n := range m.Notes {
			if n.Rest != nil || n.Pitch == nil || n.Chord != nil {
				continue
			}
			name := n.Pitch.Step
			switch {
			case n.Pitch.Alter > 0:
				name += "#"
			case n.Pitch.Alter < 0:
				name += "b"
			}
			d, err := ParseDuration(n.Type)
			if err != nil {
				d = Quarter
			}
			notes = append(notes, NoteEvent{
				Name:     name,
				Octave:   n.Pitch.Octave,
				Duration: d,
				Measure:  mi + 1,
			})
		}
	}
	return notes, nil
}
