package omr

import (
	"github.com/ironsheep/score-omr/internal/detection"
	"github.com/ironsheep/score-omr/internal/imaging"
)

// Pipeline variants reported in Result.Mode.
const (
	ModeNative   = "native"
	ModeFallback = "fallback"
)

// Backend implements the pixel-heavy stages of the pipeline. Staff
// analysis, filtering, pitch and duration are shared by all backends.
type Backend interface {
	// Name is the Result.Mode reported when the backend produced a result.
	Name() string
	// Binarize turns the pixel buffer into an ink mask.
	Binarize(buf imaging.PixelBuffer, opts Options) (*imaging.Mask, error)
	// Clean denoises the symbols-only mask before component extraction.
	Clean(symbols *imaging.Mask, opts Options) (*imaging.Mask, error)
	// Candidates extracts and measures connected ink regions.
	Candidates(symbols *imaging.Mask) ([]detection.Candidate, error)
}

// pureBackend is the dependency-free implementation. It never fails.
type pureBackend struct{}

// PureBackend returns the pure Go backend.
func PureBackend() Backend { return pureBackend{} }

func (pureBackend) Name() string { return ModeFallback }

func (pureBackend) Binarize(buf imaging.PixelBuffer, opts Options) (*imaging.Mask, error) {
	gray := buf.Gray()
	if opts.SkipAdaptiveBinarization {
		return imaging.GlobalBinarize(gray, buf.Width, buf.Height), nil
	}
	return imaging.AdaptiveBinarize(gray, buf.Width, buf.Height, opts.ThresholdOffset), nil
}

func (pureBackend) Clean(symbols *imaging.Mask, opts Options) (*imaging.Mask, error) {
	m := imaging.NeighborhoodFilter(symbols, opts.SymbolNeighborhoodHits)
	if opts.SkipMorphNoiseSuppression {
		return m, nil
	}
	return imaging.OpenClose(m, imaging.MorphKernel(opts.NoiseLevel)), nil
}

func (pureBackend) Candidates(symbols *imaging.Mask) ([]detection.Candidate, error) {
	return detection.Components(symbols), nil
}
