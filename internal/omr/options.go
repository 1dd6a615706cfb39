package omr

import (
	"golang.org/x/exp/constraints"
)

// Options tune one recognition call. Start from DefaultOptions or
// PhotoOptions; every field is brought into its safe range by Clamp, and
// Process clamps whatever it is given.
type Options struct {
	// ThresholdOffset is how much darker than its local mean a pixel must
	// be to count as ink (and the C of the native adaptive threshold).
	ThresholdOffset int `json:"threshold_offset"`
	// SymbolNeighborhoodHits is the 3x3 hit count of the legacy symbol
	// filter. Only the pure backend uses it.
	SymbolNeighborhoodHits int     `json:"symbol_neighborhood_hits"`
	NoiseLevel             float64 `json:"noise_level"`

	SkipAdaptiveBinarization  bool `json:"skip_adaptive_binarization"`
	SkipMorphNoiseSuppression bool `json:"skip_morph_noise_suppression"`

	NoteMinAreaFactor  float64 `json:"note_min_area_factor"`
	NoteMaxAreaFactor  float64 `json:"note_max_area_factor"`
	NoteMinFill        float64 `json:"note_min_fill"`
	NoteMaxFill        float64 `json:"note_max_fill"`
	NoteMinCircularity float64 `json:"note_min_circularity"`

	RecallFirstMode          bool    `json:"recall_first_mode"`
	AnalyticalFilterStrength float64 `json:"analytical_filter_strength"`
	// PerStaffStrength overrides AnalyticalFilterStrength by staff index.
	// Negative entries mean "no override".
	PerStaffStrength []float64 `json:"per_staff_strength,omitempty"`

	LineStripePitchRefinement bool `json:"line_stripe_pitch_refinement"`

	RenderOverlay      bool `json:"render_overlay"`
	CollectDiagnostics bool `json:"collect_diagnostics"`
}

// DefaultOptions returns the general-purpose settings.
func DefaultOptions() Options {
	return Options{
		ThresholdOffset:          7,
		SymbolNeighborhoodHits:   3,
		NoiseLevel:               0.5,
		NoteMinAreaFactor:        0.6,
		NoteMaxAreaFactor:        4.0,
		NoteMinFill:              0.18,
		NoteMaxFill:              0.9,
		NoteMinCircularity:       0.32,
		AnalyticalFilterStrength: 0.55,
	}
}

// PhotoOptions returns settings tuned for phone photographs of printed
// scores: recall-first detection, a stricter analytical pass and
// line-stripe pitch refinement.
func PhotoOptions() Options {
	o := DefaultOptions()
	o.NoteMinAreaFactor = 0.35
	o.NoteMaxAreaFactor = 2.6
	o.NoteMinFill = 0.08
	o.NoteMaxFill = 0.95
	o.NoteMinCircularity = 0.14
	o.RecallFirstMode = true
	o.AnalyticalFilterStrength = 0.85
	o.LineStripePitchRefinement = true
	return o
}

// Clamp returns a copy of o with every field inside its documented range.
// Clamp is idempotent.
func (o Options) Clamp() Options {
	o.ThresholdOffset = clamp(o.ThresholdOffset, 1, 32)
	o.SymbolNeighborhoodHits = clamp(o.SymbolNeighborhoodHits, 1, 9)
	o.NoiseLevel = clamp(o.NoiseLevel, 0, 1)
	o.NoteMinAreaFactor = clamp(o.NoteMinAreaFactor, 0.25, 2.2)
	o.NoteMaxAreaFactor = clamp(o.NoteMaxAreaFactor, 1.5, 8.0)
	o.NoteMinFill = clamp(o.NoteMinFill, 0.08, 0.55)
	o.NoteMaxFill = clamp(o.NoteMaxFill, 0.55, 0.98)
	o.NoteMinCircularity = clamp(o.NoteMinCircularity, 0.08, 0.8)
	o.AnalyticalFilterStrength = clamp(o.AnalyticalFilterStrength, 0, 1)

	if o.PerStaffStrength != nil {
		per := make([]float64, len(o.PerStaffStrength))
		for i, v := range o.PerStaffStrength {
			if v < 0 {
				per[i] = -1
				continue
			}
			per[i] = clamp(v, 0, 1)
		}
		o.PerStaffStrength = per
	}
	return o
}

// WithThresholdOffset returns a clamped copy with the given offset.
func (o Options) WithThresholdOffset(v int) Options {
	o.ThresholdOffset = v
	return o.Clamp()
}

// WithNoiseLevel returns a clamped copy with the given noise level.
func (o Options) WithNoiseLevel(v float64) Options {
	o.NoiseLevel = v
	return o.Clamp()
}

// WithSkipAdaptive toggles the global Otsu threshold.
func (o Options) WithSkipAdaptive(skip bool) Options {
	o.SkipAdaptiveBinarization = skip
	return o.Clamp()
}

// WithSkipMorph toggles morphological noise suppression.
func (o Options) WithSkipMorph(skip bool) Options {
	o.SkipMorphNoiseSuppression = skip
	return o.Clamp()
}

// WithRecallFirst toggles recall-first detection.
func (o Options) WithRecallFirst(on bool) Options {
	o.RecallFirstMode = on
	return o.Clamp()
}

// WithAnalyticalStrength sets the global analytical filter strength.
func (o Options) WithAnalyticalStrength(v float64) Options {
	o.AnalyticalFilterStrength = v
	return o.Clamp()
}

// WithPerStaffStrength sets per-staff strength overrides.
func (o Options) WithPerStaffStrength(v ...float64) Options {
	o.PerStaffStrength = append([]float64(nil), v...)
	return o.Clamp()
}

// WithLineStripe toggles line-stripe pitch refinement.
func (o Options) WithLineStripe(on bool) Options {
	o.LineStripePitchRefinement = on
	return o.Clamp()
}

// WithOverlay toggles rendering of the debug overlay.
func (o Options) WithOverlay(on bool) Options {
	o.RenderOverlay = on
	return o.Clamp()
}

// WithDiagnostics toggles collection of rejection counters.
func (o Options) WithDiagnostics(on bool) Options {
	o.CollectDiagnostics = on
	return o.Clamp()
}

// clamp limits v to [lo, hi]. NaN becomes lo.
func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v != v || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
