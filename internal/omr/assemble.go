package omr

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/blur"

	"github.com/ironsheep/score-omr/internal/detection"
	"github.com/ironsheep/score-omr/internal/duration"
	"github.com/ironsheep/score-omr/internal/imaging"
	"github.com/ironsheep/score-omr/internal/pitch"
	"github.com/ironsheep/score-omr/internal/score"
	"github.com/ironsheep/score-omr/internal/staff"
)

const (
	minQuality = 20
	maxQuality = 100
)

// markerColor rings accepted note heads on the overlay.
var markerColor = color.RGBA{255, 200, 0, 255}

// assembly carries one run's intermediate products into the result.
type assembly struct {
	title string
	mode  string
	buf   imaging.PixelBuffer

	binary  *imaging.Mask
	symbols *imaging.Mask // staff removed, before cleaning
	cleaned *imaging.Mask
	layout  staff.Layout
	heads   []detection.Candidate

	opts Options
	diag *detection.Diagnostics
}

func (p *Processor) assemble(a assembly) *Result {
	w, h := a.buf.Width, a.buf.Height
	groups := a.layout.Groups

	res := emptyResult(a.title, a.mode)
	res.StaffRows = staff.CountRows(groups)
	res.Barlines = EstimateBars(a.binary, a.layout.Spacing)
	res.QualityScore = QualityScore(a.buf.Image())
	res.StaffCorridors = staff.Corridors(groups, w, h)
	res.Spacing = a.layout.Spacing

	heads := ReadingOrder(a.heads)
	resolver := pitch.Resolver{LineStripe: a.opts.LineStripePitchRefinement, Binary: a.binary}
	fw := float64(maxInt(1, w-1))
	fh := float64(maxInt(1, h-1))

	markers := make([]imaging.OverlayMarker, 0, len(heads))
	for _, c := range heads {
		gi := c.Group
		if gi < 0 || gi >= len(groups) {
			gi = staff.Nearest(groups, c.CX, c.CY)
		}
		if gi < 0 {
			continue
		}
		g := groups[gi]

		pt := resolver.Resolve(g, c)
		n := score.NoteEvent{
			Name:     pt.Name,
			Octave:   pt.Octave,
			Duration: duration.Classify(a.symbols, c, g.Spacing),
			Measure:  1 + len(res.Notes)/p.profile.MeasureSize,
			X:        c.CX / fw,
			Y:        c.CY / fh,
		}
		res.Notes = append(res.Notes, n)
		markers = append(markers, imaging.OverlayMarker{
			Center: image.Pt(int(math.Round(c.CX)), int(math.Round(c.CY))),
			Radius: maxInt(c.Width(), c.Height())/2 + 1,
			Label:  n.Pitch(),
		})
	}

	if a.opts.CollectDiagnostics {
		d := *a.diag
		res.Diagnostics = &d
	}
	if a.opts.RenderOverlay {
		res.Overlay = renderOverlay(a, markers)
	}
	return res
}

// ReadingOrder sorts heads staff by staff (top to bottom), then left to
// right. Heads without a staff go last.
func ReadingOrder(heads []detection.Candidate) []detection.Candidate {
	out := append([]detection.Candidate(nil), heads...)
	sort.SliceStable(out, func(i, j int) bool {
		gi, gj := out[i].Group, out[j].Group
		if gi < 0 {
			gi = math.MaxInt32
		}
		if gj < 0 {
			gj = math.MaxInt32
		}
		if gi != gj {
			return gi < gj
		}
		return out[i].CX < out[j].CX
	})
	return out
}

// EstimateBars samples every max(2, w/120)th column for a vertical ink run
// of max(3*spacing, h/10) rows and halves the hit count, since a bar line
// is usually hit by two neighbouring samples.
func EstimateBars(binary *imaging.Mask, spacing int) int {
	w, h := binary.Width, binary.Height
	if w == 0 || h == 0 {
		return 0
	}
	minRun := maxInt(3*spacing, h/10)
	step := maxInt(2, w/120)

	hits := 0
	for x := 0; x < w; x += step {
		run, best := 0, 0
		for y := 0; y < h; y++ {
			if binary.Bits[y*w+x] {
				run++
				if run > best {
					best = run
				}
			} else {
				run = 0
			}
		}
		if best >= minRun {
			hits++
		}
	}
	return hits / 2
}

// QualityScore rates the capture by the contrast along the centre row of a
// lightly blurred copy: a sharp, evenly lit page scores high. The result
// lies in [20, 100].
func QualityScore(img image.Image) int {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return minQuality
	}
	smooth := blur.Box(img, 1)

	cx, cy := w/2, h/2
	radius := maxInt(8, minInt(cx, cy)/5)
	lum := func(x int) int {
		c := smooth.RGBAAt(x, cy)
		return (30*int(c.R) + 59*int(c.G) + 11*int(c.B)) / 100
	}

	contrast := 0
	for i := 1; i < radius; i++ {
		d := lum(minInt(w-1, cx+i)) - lum(maxInt(0, cx-i))
		if d < 0 {
			d = -d
		}
		contrast += d
	}
	score := maxQuality - minInt(80, contrast/maxInt(1, radius*6))
	return maxInt(minQuality, minInt(maxQuality, score))
}

func renderOverlay(a assembly, markers []imaging.OverlayMarker) *image.RGBA {
	out := imaging.RenderMasks(a.binary, a.layout.Mask, a.cleaned)
	regions := make([]imaging.OverlayRegion, 0, len(a.layout.Groups))
	for i, g := range a.layout.Groups {
		regions = append(regions, imaging.OverlayRegion{
			Rect: image.Rect(
				g.XStart,
				int(math.Floor(g.Top()-2*g.Spacing)),
				g.XEnd+1,
				int(math.Ceil(g.Bottom()+2*g.Spacing))+1,
			),
			Label: fmt.Sprintf("staff %d", i+1),
		})
	}
	imaging.DrawRegions(out, regions)
	imaging.DrawMarkers(out, markers, markerColor)
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
