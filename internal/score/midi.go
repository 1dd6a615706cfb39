package score

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	// TicksPerQuarter is the resolution of exported files.
	TicksPerQuarter = 480
	// DefaultTempo is used when WriteMIDI gets a non-positive tempo.
	DefaultTempo = 100.0

	midiChannel  = 0
	midiVelocity = 96
)

// WriteMIDI writes notes as a single-track standard MIDI file in 4/4 at bpm.
// Notes are played one after another with their nominal durations.
func WriteMIDI(w io.Writer, notes []NoteEvent, bpm float64) error {
	if bpm <= 0 {
		bpm = DefaultTempo
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	var tr smf.Track
	tr.Add(0, smf.MetaMeter(4, 4))
	tr.Add(0, smf.MetaTempo(bpm))
	for i, n := range notes {
		key, err := n.MIDI()
		if err != nil {
			return fmt.Errorf("failed to encode note %d: %w", i, err)
		}
		ticks := uint32(math.Round(n.Duration.Beats() * TicksPerQuarter))
		tr.Add(0, midi.NoteOn(midiChannel, uint8(key), midiVelocity))
		tr.Add(ticks, midi.NoteOff(midiChannel, uint8(key)))
	}
	tr.Close(0)

	if err := s.Add(tr); err != nil {
		return fmt.Errorf("failed to add track: %w", err)
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write midi: %w", err)
	}
	return nil
}

// ReadMIDINoteOns returns the key of every note-on with a non-zero
// velocity, in file order across tracks.
func ReadMIDINoteOns(r io.Reader) (keys []int, err error) {
	// smf panics on some malformed files instead of returning an error.
	defer func() {
		if rec := recover(); rec != nil {
			keys = nil
			err = fmt.Errorf("failed to parse midi: %v", rec)
		}
	}()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read midi: %w", err)
	}
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse midi: %w", err)
	}

	for _, track := range s.Tracks {
		for _, ev := range track {
			var ch, key, vel uint8
			if ev.Message.GetNoteOn(&ch, &key, &vel) && vel > 0 {
				keys = append(keys, int(key))
			}
		}
	}
	return keys, nil
}
