package main

import (
	"encoding/json"
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/score-omr/internal/service"
)

type recognizeFlags struct {
	title       string
	preset      string
	optionsFile string
	midiOut     string
	bpm         float64
	overlayOut  string
	reference   string
	diagnostics bool
}

// recognizeOutput is what the command prints.
type recognizeOutput struct {
	*service.Recognition
	Comparison  *service.Comparison `json:"comparison,omitempty"`
	MIDIFile    string              `json:"midi_file,omitempty"`
	OverlayFile string              `json:"overlay_file,omitempty"`
}

func newRecognizeCmd() *cobra.Command {
	var f recognizeFlags
	cmd := &cobra.Command{
		Use:   "recognize <image>",
		Short: "Recognize the notes of one page and print them as JSON",
		Example: `  score-omr recognize page.jpg --preset photo
  score-omr recognize page.png --midi page.mid --bpm 90
  score-omr recognize page.png --options tuned.json --reference page.musicxml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecognize(cmd, args[0], f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.title, "title", "", "title of the piece (read from the page when empty and OCR is built in)")
	fl.StringVar(&f.preset, "preset", service.PresetDefault, "starting options: default or photo")
	fl.StringVar(&f.optionsFile, "options", "", "JSON file of option overrides")
	fl.StringVar(&f.midiOut, "midi", "", "write the notes to this MIDI file")
	fl.Float64Var(&f.bpm, "bpm", 0, "tempo of the MIDI file (default 100)")
	fl.StringVar(&f.overlayOut, "overlay", "", "write the debug overlay to this PNG file")
	fl.StringVar(&f.reference, "reference", "", "compare with this MIDI or MusicXML file")
	fl.BoolVar(&f.diagnostics, "diagnostics", false, "include per-stage candidate counts")
	return cmd
}

func runRecognize(cmd *cobra.Command, path string, f recognizeFlags) error {
	var raw []byte
	if f.optionsFile != "" {
		var err error
		raw, err = os.ReadFile(f.optionsFile)
		if err != nil {
			return fmt.Errorf("failed to read options: %w", err)
		}
	}
	opts, err := service.ParseOptions(f.preset, raw)
	if err != nil {
		return err
	}
	if f.overlayOut != "" {
		opts = opts.WithOverlay(true)
	}
	if f.diagnostics {
		opts = opts.WithDiagnostics(true)
	}

	svc, err := newService()
	if err != nil {
		return err
	}
	rec, err := svc.RecognizeFile(cmdContext(cmd), path, f.title, opts)
	if err != nil {
		return err
	}

	out := recognizeOutput{Recognition: rec}
	if f.reference != "" {
		if out.Comparison, err = service.Compare(rec, f.reference); err != nil {
			return err
		}
	}
	if f.midiOut != "" {
		if err := writeMIDIFile(f.midiOut, rec, f.bpm); err != nil {
			return err
		}
		out.MIDIFile = f.midiOut
	}
	if f.overlayOut != "" && rec.Overlay != nil {
		if err := writeOverlay(f.overlayOut, rec); err != nil {
			return err
		}
		out.OverlayFile = f.overlayOut
	}
	// The overlay went to a file; keep the JSON readable.
	rec.OverlayPNG = nil

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeMIDIFile(path string, rec *service.Recognition, bpm float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create midi file: %w", err)
	}
	if err := service.WriteMIDI(f, rec, bpm); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeOverlay(path string, rec *service.Recognition) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create overlay file: %w", err)
	}
	if err := png.Encode(f, rec.Overlay); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode overlay: %w", err)
	}
	return f.Close()
}
