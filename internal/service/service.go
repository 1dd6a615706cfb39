package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ironsheep/score-omr/internal/imaging"
	"github.com/ironsheep/score-omr/internal/ocr"
	"github.com/ironsheep/score-omr/internal/omr"
	"github.com/ironsheep/score-omr/internal/score"
	"github.com/ironsheep/score-omr/internal/staff"
)

// Presets accepted by ParseOptions.
const (
	PresetDefault = "default"
	PresetPhoto   = "photo"
)

// MaxDimEnv overrides the downsample limit of New when set to a positive
// integer.
const MaxDimEnv = "SCORE_OMR_MAX_DIM"

// Service loads page images, runs recognition and converts the result for
// the CLI, MCP and HTTP front ends. Safe for concurrent use.
type Service struct {
	cache  *imaging.ImageCache
	proc   *omr.Processor
	maxDim int
	lang   string
}

// New builds a service around proc. A nil cache gets a fresh one.
func New(proc *omr.Processor, cache *imaging.ImageCache) *Service {
	if cache == nil {
		cache = imaging.NewImageCache()
	}
	return &Service{cache: cache, proc: proc, maxDim: MaxDimension(), lang: ocr.DefaultLanguage}
}

// MaxDimension returns the downsample limit from SCORE_OMR_MAX_DIM, or
// imaging.DefaultMaxDimension when unset or invalid.
func MaxDimension() int {
	v := strings.TrimSpace(os.Getenv(MaxDimEnv))
	if v == "" {
		return imaging.DefaultMaxDimension
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("ignoring %s=%q: want a positive integer", MaxDimEnv, v)
		return imaging.DefaultMaxDimension
	}
	return n
}

// Cache returns the image cache shared by every call.
func (s *Service) Cache() *imaging.ImageCache { return s.cache }

// Processor returns the recognition pipeline.
func (s *Service) Processor() *omr.Processor { return s.proc }

// Recognition is one recognition call with its id and transport extras.
type Recognition struct {
	ID string `json:"id"`
	*omr.Result
	// SampleSize is the downsample factor applied before recognition.
	SampleSize int                   `json:"sample_size"`
	OverlayPNG *imaging.EncodedImage `json:"overlay,omitempty"`
}

// Piece returns the recognized notes under the recognition id.
func (r *Recognition) Piece() *score.Piece {
	p := r.Result.Piece()
	p.ID = r.ID
	return p
}

// ParseOptions starts from the named preset and overlays raw, a JSON
// object of omr.Options fields. The result is clamped.
func ParseOptions(preset string, raw []byte) (omr.Options, error) {
	var opts omr.Options
	switch strings.ToLower(strings.TrimSpace(preset)) {
	case "", PresetDefault:
		opts = omr.DefaultOptions()
	case PresetPhoto:
		opts = omr.PhotoOptions()
	default:
		return opts, fmt.Errorf("unknown preset %q", preset)
	}
	if len(bytes.TrimSpace(raw)) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		if err := json.Unmarshal(raw, &opts); err != nil {
			return opts, fmt.Errorf("failed to parse options: %w", err)
		}
	}
	return opts.Clamp(), nil
}

// RecognizeFile loads path through the cache, downsampled, and recognizes
// it. An empty title is read from the page when OCR is available.
func (s *Service) RecognizeFile(ctx context.Context, path, title string, opts omr.Options) (*Recognition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf, sample, err := imaging.LoadForRecognition(s.cache, path, s.maxDim)
	if err != nil {
		return nil, err
	}
	return s.recognize(buf, sample, title, opts)
}

// RecognizeImage recognizes an already decoded page.
func (s *Service) RecognizeImage(ctx context.Context, img image.Image, title string, opts omr.Options) (*Recognition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, errors.New("no image to recognize")
	}
	scaled, sample := imaging.Downsample(img, s.maxDim)
	return s.recognize(imaging.NewPixelBuffer(scaled), sample, title, opts)
}

func (s *Service) recognize(buf imaging.PixelBuffer, sample int, title string, opts omr.Options) (*Recognition, error) {
	res := s.proc.Process(buf, title, opts)
	if res.Title == "" && !buf.Empty() {
		res.Title = s.readTitle(buf.Image(), res)
	}

	rec := &Recognition{ID: uuid.NewString(), Result: res, SampleSize: sample}
	if res.Overlay != nil {
		enc, err := imaging.EncodePNG(res.Overlay, 1.0)
		if err != nil {
			return nil, fmt.Errorf("failed to encode overlay: %w", err)
		}
		rec.OverlayPNG = enc
	}
	return rec, nil
}

// readTitle OCRs the band above the first staff. Failures leave the title
// empty.
func (s *Service) readTitle(img image.Image, res *omr.Result) string {
	top := 0.0
	if len(res.StaffCorridors) > 0 {
		top = res.StaffCorridors[0].Top
	}
	t, err := ocr.TitleAbove(img, top, s.lang)
	if err != nil {
		if !errors.Is(err, ocr.ErrUnavailable) {
			log.Printf("failed to read title: %v", err)
		}
		return ""
	}
	return t
}

// WriteMIDI writes the recognized notes as a standard MIDI file.
func WriteMIDI(w io.Writer, rec *Recognition, bpm float64) error {
	return score.WriteMIDI(w, rec.Notes, bpm)
}

// Comparison scores recognized notes against a reference by the longest
// common subsequence of their MIDI keys.
type Comparison struct {
	Reference  string  `json:"reference"`
	Recognized int     `json:"recognized"`
	Expected   int     `json:"expected"`
	Matched    int     `json:"matched"`
	Ratio      float64 `json:"ratio"`
}

// LoadReference reads the MIDI keys of a reference score: a standard MIDI
// file (.mid, .midi) or MusicXML (.xml, .musicxml).
func LoadReference(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi":
		return score.ReadMIDINoteOns(f)
	case ".xml", ".musicxml":
		notes, err := score.ReadMusicXML(f)
		if err != nil {
			return nil, err
		}
		return score.MIDIKeys(notes), nil
	default:
		return nil, fmt.Errorf("unsupported reference format %q", filepath.Ext(path))
	}
}

// Compare scores rec against the reference at path.
func Compare(rec *Recognition, path string) (*Comparison, error) {
	want, err := LoadReference(path)
	if err != nil {
		return nil, err
	}
	got := score.MIDIKeys(rec.Notes)
	return &Comparison{
		Reference:  path,
		Recognized: len(got),
		Expected:   len(want),
		Matched:    score.LCSLength(got, want),
		Ratio:      score.LCSRatio(got, want),
	}, nil
}

// Status reports both optional backends.
type Status struct {
	Runtime omr.RuntimeStatus `json:"runtime"`
	OCR     ocr.Info          `json:"ocr"`
	MaxDim  int               `json:"max_dimension"`
}

// Status returns a snapshot of the native latch and OCR availability.
func (s *Service) Status() Status {
	return Status{Runtime: s.proc.Runtime().Status(), OCR: ocr.GetInfo(), MaxDim: s.maxDim}
}

// CorridorRect maps a normalized corridor onto bounds.
func CorridorRect(c staff.Corridor, bounds image.Rectangle) image.Rectangle {
	fw := float64(bounds.Dx() - 1)
	fh := float64(bounds.Dy() - 1)
	return image.Rect(
		bounds.Min.X+int(math.Floor(c.Left*fw)),
		bounds.Min.Y+int(math.Floor(c.Top*fh)),
		bounds.Min.X+int(math.Ceil(c.Right*fw))+1,
		bounds.Min.Y+int(math.Ceil(c.Bottom*fh))+1,
	)
}

// StaffImage crops staff n (1-based) of rec out of the full-resolution
// page at path.
func (s *Service) StaffImage(path string, rec *Recognition, n int, scale float64) (*imaging.EncodedImage, error) {
	if n < 1 || n > len(rec.StaffCorridors) {
		return nil, fmt.Errorf("staff %d out of range: page has %d", n, len(rec.StaffCorridors))
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	crop, err := imaging.CropRegion(img, CorridorRect(rec.StaffCorridors[n-1], img.Bounds()))
	if err != nil {
		return nil, err
	}
	return imaging.EncodePNG(crop, scale)
}
