// Package omrtest draws synthetic score pages for tests.
package omrtest

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// StaffLines are the rows of the five staff lines drawn by ScorePage.
var StaffLines = [5]int{80, 92, 104, 116, 128}

// Note is one head: diatonic steps above the bottom line, filled or hollow.
// Stem is +1 for a stem rising from the right of the head, -1 for one
// falling from the left and 0 for none. Flags hang off the stem tip.
type Note struct {
	Step   int
	Hollow bool
	Stem   int
	Flags  int
}

// Ascending runs from E4 to F5 on a treble staff.
var Ascending = []Note{
	{Step: 0}, {Step: 1}, {Step: 2}, {Step: 3, Hollow: true}, {Step: 4},
	{Step: 5}, {Step: 6, Hollow: true}, {Step: 7}, {Step: 8},
}

// AscendingPitches are the pitches of Ascending.
var AscendingPitches = []string{"E4", "F4", "G4", "A4", "B4", "C5", "D5", "E5", "F5"}

// AscendingKeys are the MIDI keys of Ascending.
var AscendingKeys = []int{64, 65, 67, 69, 71, 72, 74, 76, 77}

// Melody mixes stems, flags and heads on ledger steps outside the staff.
var Melody = []Note{
	{Step: -2, Stem: 1},
	{Step: -1, Hollow: true, Stem: 1},
	{Step: 0, Hollow: true},
	{Step: 2, Stem: 1, Flags: 1},
	{Step: 4, Stem: -1, Flags: 2},
	{Step: 6, Stem: -1},
	{Step: 9, Hollow: true, Stem: -1},
	{Step: 8, Stem: -1, Flags: 1},
}

// MelodyPitches are the pitches of Melody.
var MelodyPitches = []string{"C4", "D4", "E4", "G4", "B4", "D5", "G5", "F5"}

// MelodyBeats are the beat lengths of Melody.
var MelodyBeats = []float64{1, 2, 4, 0.5, 0.25, 1, 2, 0.5}

// StemLength is the length of a drawn stem in pixels.
const StemLength = 42

// ScorePage draws a 600x240 white page with one staff and a 15x11 note
// head every 56 pixels from x=80. Stems are two pixels wide; each flag is
// a 10x4 bar six rows further from the tip than the last.
func ScorePage(notes []Note) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 600, 240))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	for _, y := range StaffLines {
		for x := 30; x < 570; x++ {
			img.Set(x, y, color.Black)
		}
	}
	for i, n := range notes {
		cx := 80 + 56*i
		cy := StaffLines[4] - 6*n.Step
		for dy := -5; dy <= 5; dy++ {
			for dx := -7; dx <= 7; dx++ {
				fx := float64(dx) / 7
				fy := float64(dy) / 5
				d := fx*fx + fy*fy
				if d > 1 || (n.Hollow && d < 0.5) {
					continue
				}
				img.Set(cx+dx, cy+dy, color.Black)
			}
		}
		drawStem(img, n, cx, cy)
	}
	return img
}

func drawStem(img *image.RGBA, n Note, cx, cy int) {
	if n.Stem == 0 {
		return
	}
	x0, y0, y1, tip, dir := cx+5, cy-StemLength, cy, cy-StemLength, 1
	if n.Stem < 0 {
		x0, y0, y1, tip, dir = cx-6, cy, cy+StemLength, cy+StemLength, -1
	}
	for x := x0; x <= x0+1; x++ {
		for y := y0; y <= y1; y++ {
			img.Set(x, y, color.Black)
		}
	}
	for k := 0; k < n.Flags; k++ {
		for r := 0; r < 4; r++ {
			y := tip + dir*(6*k+r)
			for x := x0 + 2; x < x0+12; x++ {
				img.Set(x, y, color.Black)
			}
		}
	}
}

// WritePNG saves img as name inside a fresh temporary directory and
// returns the path.
func WritePNG(t *testing.T, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode %s: %v", path, err)
	}
	return path
}
