package omr

import (
	"fmt"
	"image"
	"log"

	"github.com/ironsheep/score-omr/internal/detection"
	"github.com/ironsheep/score-omr/internal/imaging"
	"github.com/ironsheep/score-omr/internal/score"
	"github.com/ironsheep/score-omr/internal/staff"
)

// Result is the outcome of one recognition call.
type Result struct {
	Title string            `json:"title"`
	Notes []score.NoteEvent `json:"notes"`
	// StaffRows is the number of staves found, at most staff.MaxGroups.
	StaffRows int `json:"staff_rows"`
	Barlines  int `json:"barlines"`
	// QualityScore rates the capture from 20 (poor) to 100.
	QualityScore   int              `json:"quality_score"`
	Overlay        *image.RGBA      `json:"-"`
	StaffCorridors []staff.Corridor `json:"staff_corridors"`
	// Mode is ModeNative or ModeFallback.
	Mode        string                 `json:"mode"`
	Diagnostics *detection.Diagnostics `json:"diagnostics,omitempty"`
	Spacing     int                    `json:"spacing"`
}

// Piece wraps the notes in a score.Piece with a fresh id.
func (r *Result) Piece() *score.Piece {
	return score.NewPiece(r.Title, r.Notes)
}

// Processor runs the recognition pipeline. A Processor is safe for
// concurrent use; the only shared state is its Runtime.
type Processor struct {
	runtime *Runtime
	profile Profile
	native  Backend
	pure    Backend

	nativeSet bool
}

// ProcessorOption customises a Processor.
type ProcessorOption func(*Processor)

// WithProfile replaces the default heuristic profile.
func WithProfile(p Profile) ProcessorOption {
	return func(proc *Processor) { proc.profile = p }
}

// WithNativeBackend replaces the native backend. A nil backend disables
// native runs without touching the runtime.
func WithNativeBackend(b Backend) ProcessorOption {
	return func(proc *Processor) {
		proc.native = b
		proc.nativeSet = true
	}
}

// NewProcessor builds a processor around rt (DefaultRuntime when nil).
func NewProcessor(rt *Runtime, opts ...ProcessorOption) (*Processor, error) {
	if rt == nil {
		rt = DefaultRuntime()
	}
	p := &Processor{runtime: rt, profile: DefaultProfile(), pure: PureBackend()}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	if !p.nativeSet {
		p.native = newNativeBackend(p.profile)
	}
	return p, nil
}

// Runtime returns the latch the processor consults.
func (p *Processor) Runtime() *Runtime { return p.runtime }

// Process recognises the notes in buf. It never fails: a native failure
// disables the native backend for the rest of the process and the call is
// answered by the pure backend; a degenerate image yields no notes.
func (p *Processor) Process(buf imaging.PixelBuffer, title string, opts Options) *Result {
	opts = opts.Clamp()

	if p.native != nil && p.runtime.NativeEnabled() {
		res, err := p.run(p.native, buf, title, opts)
		if err == nil {
			return res
		}
		p.runtime.Disable(err)
	}

	res, err := p.run(p.pure, buf, title, opts)
	if err != nil {
		log.Printf("failed to recognise %q: %v", title, err)
		return emptyResult(title, p.pure.Name())
	}
	return res
}

// run executes the whole pipeline on one backend. Panics are turned into
// errors so a native crash can be answered by the pure backend.
func (p *Processor) run(b Backend, buf imaging.PixelBuffer, title string, opts Options) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%s backend panicked: %v", b.Name(), r)
		}
	}()

	if buf.Empty() {
		return emptyResult(title, b.Name()), nil
	}

	binary, err := b.Binarize(buf, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to binarize: %w", err)
	}
	layout := staff.Analyze(binary, p.profile.Staff)
	debugf("%s: spacing %d, %d staves", b.Name(), layout.Spacing, len(layout.Groups))

	symbols := binary.Clone()
	symbols.Subtract(layout.Mask)
	symbols = staff.RestrictToCorridors(symbols, layout.Groups)
	staff.RepairCrossings(symbols, binary, layout.Groups)

	cleaned, err := b.Clean(symbols, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to clean symbols: %w", err)
	}
	raw, err := b.Candidates(cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to extract candidates: %w", err)
	}

	diag := &detection.Diagnostics{}
	heads := p.detect(raw, cleaned, layout, buf.Width, buf.Height, opts, diag)
	debugf("%s: %d raw candidates, %d accepted", b.Name(), len(raw), len(heads))

	res = p.assemble(assembly{
		title:   title,
		mode:    b.Name(),
		buf:     buf,
		binary:  binary,
		symbols: symbols,
		cleaned: cleaned,
		layout:  layout,
		heads:   heads,
		opts:    opts,
		diag:    diag,
	})
	return res, nil
}

// detect trims tall candidates to their heads, then runs the filter cascade,
// dedupe and the analytical pass.
func (p *Processor) detect(raw []detection.Candidate, cleaned *imaging.Mask, layout staff.Layout, w, h int, opts Options, diag *detection.Diagnostics) []detection.Candidate {
	t := detection.Thresholds{
		MinAreaFactor:  opts.NoteMinAreaFactor,
		MaxAreaFactor:  opts.NoteMaxAreaFactor,
		MinFill:        opts.NoteMinFill,
		MaxFill:        opts.NoteMaxFill,
		MinCircularity: opts.NoteMinCircularity,
		MinAspect:      p.profile.MinAspect,
		MaxAspect:      p.profile.MaxAspect,
		PositionReach:  p.profile.PositionReach,
	}
	if opts.RecallFirstMode {
		t = t.Relaxed()
	}

	spacing := float64(layout.Spacing)
	heads := detection.TrimTall(raw, cleaned, spacing, diag)
	kept := detection.Filter(heads, layout.Groups, spacing, w, h, t, diag)
	kept = detection.Dedupe(kept, layout.Groups, spacing, diag)
	return detection.AnalyticalFilter(kept, layout.Groups, spacing, opts.AnalyticalFilterStrength, opts.PerStaffStrength, diag)
}

func emptyResult(title, mode string) *Result {
	return &Result{
		Title:          title,
		Notes:          []score.NoteEvent{},
		QualityScore:   minQuality,
		StaffCorridors: []staff.Corridor{},
		Mode:           mode,
	}
}
