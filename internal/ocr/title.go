package ocr

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
)

// ErrUnavailable is returned when the binary was built without Tesseract.
var ErrUnavailable = errors.New("ocr unavailable: built without the tesseract tag")

// DefaultLanguage is the Tesseract language used when none is given.
const DefaultLanguage = "eng"

// MinWordConfidence is the confidence (0 to 1) a word needs to be kept.
const MinWordConfidence = 0.5

// minGlyphHeight is the band height, in pixels, below which the crop is
// upscaled before recognition.
const minGlyphHeight = 96

// Word is one recognised word with its location in the recognised image.
type Word struct {
	Text       string          `json:"text"`
	Confidence float64         `json:"confidence"`
	Bounds     image.Rectangle `json:"bounds"`
}

// Info describes the OCR subsystem.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Backend   string `json:"backend"`
	Error     string `json:"error,omitempty"`
}

// TitleRegion returns the band of bounds above a staff corridor whose top
// edge is staffTop, given as a fraction of the page height. A staffTop
// outside (0,1] means no staff was found and the top quarter is used.
func TitleRegion(bounds image.Rectangle, staffTop float64) image.Rectangle {
	h := bounds.Dy()
	bottom := bounds.Min.Y + h/4
	if staffTop > 0 && staffTop <= 1 {
		bottom = bounds.Min.Y + int(math.Floor(staffTop*float64(h-1)))
	}
	return image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, bottom).Intersect(bounds)
}

// JoinWords keeps the words with at least minConfidence, orders them line
// by line and left to right, and joins them with single spaces.
func JoinWords(words []Word, minConfidence float64) string {
	kept := make([]Word, 0, len(words))
	for _, w := range words {
		if strings.TrimSpace(w.Text) == "" || w.Confidence < minConfidence {
			continue
		}
		kept = append(kept, w)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i].Bounds, kept[j].Bounds
		// Words whose vertical centres are within half a glyph share a line.
		ca := (a.Min.Y + a.Max.Y) / 2
		cb := (b.Min.Y + b.Max.Y) / 2
		if abs(ca-cb) > maxInt(a.Dy(), b.Dy())/2 {
			return ca < cb
		}
		return a.Min.X < b.Min.X
	})

	parts := make([]string, 0, len(kept))
	for _, w := range kept {
		parts = append(parts, strings.Join(strings.Fields(w.Text), " "))
	}
	return strings.Join(parts, " ")
}

// ReadTitle recognises the text inside region of img.
func ReadTitle(img image.Image, region image.Rectangle, lang string) (string, error) {
	region = region.Intersect(img.Bounds())
	if region.Empty() {
		return "", fmt.Errorf("title region %v is empty", region)
	}
	if lang == "" {
		lang = DefaultLanguage
	}

	crop := imaging.Grayscale(imaging.Crop(img, region))
	if h := crop.Bounds().Dy(); h < minGlyphHeight {
		scale := float64(minGlyphHeight) / float64(h)
		crop = imaging.Resize(crop, int(math.Round(float64(crop.Bounds().Dx())*scale)), minGlyphHeight, imaging.Lanczos)
	}

	words, err := recognize(crop, lang)
	if err != nil {
		return "", err
	}
	return JoinWords(words, MinWordConfidence), nil
}

// TitleAbove reads the title above the staff corridor starting at staffTop
// (a fraction of the page height, see TitleRegion).
func TitleAbove(img image.Image, staffTop float64, lang string) (string, error) {
	return ReadTitle(img, TitleRegion(img.Bounds(), staffTop), lang)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
