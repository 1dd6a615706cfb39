package detection

import (
	"math"

	"github.com/ironsheep/score-omr/internal/imaging"
)

// Bounds represents a rectangular bounding box in pixel coordinates.
// Both corners are inclusive.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Candidate is a connected ink region considered as a possible note head.
//
// Candidates are created and discarded within one detection pass. Area is the
// ink pixel count on the pure path and the contour area on the native path;
// Perimeter is the length of the outer boundary only, so a hollow head is
// not penalised for its inner edge.
type Candidate struct {
	Bounds    Bounds  `json:"bounds"`
	Area      float64 `json:"area"`
	CX        float64 `json:"cx"`
	CY        float64 `json:"cy"`
	Perimeter float64 `json:"perimeter"`

	// Group is the index of the staff the candidate was assigned to, -1 if none.
	Group int `json:"group"`
	// Score is the most recent slot or analytical score.
	Score float64 `json:"score"`
}

// Width returns the inclusive bounding box width.
func (c Candidate) Width() int { return c.Bounds.X2 - c.Bounds.X1 + 1 }

// Height returns the inclusive bounding box height.
func (c Candidate) Height() int { return c.Bounds.Y2 - c.Bounds.Y1 + 1 }

// Aspect is width over height.
func (c Candidate) Aspect() float64 {
	return float64(c.Width()) / math.Max(1, float64(c.Height()))
}

// Fill is area over bounding box area.
func (c Candidate) Fill() float64 {
	return c.Area / math.Max(1, float64(c.Width()*c.Height()))
}

// Circularity is 4*pi*area/perimeter^2 capped at 1. A zero perimeter yields 0.
func (c Candidate) Circularity() float64 {
	if c.Perimeter <= 0 {
		return 0
	}
	v := 4 * math.Pi * c.Area / (c.Perimeter * c.Perimeter)
	if v > 1 {
		return 1
	}
	return v
}

// Components labels the 8-connected ink regions of m and measures each one.
func Components(m *imaging.Mask) []Candidate {
	w, h := m.Width, m.Height
	visited := make([]bool, w*h)
	out := make([]Candidate, 0)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if !m.Bits[idx] || visited[idx] {
				continue
			}
			region := make([]Point, 0, 64)
			floodFill(m, visited, x, y, &region)
			out = append(out, measure(region))
		}
	}
	return out
}

// floodFill performs iterative flood-fill from a starting point.
//
// Uses a stack-based approach (not recursive) to avoid stack overflow on
// large regions. Marks visited pixels and appends them to region. Uses
// 8-connectivity (includes diagonal neighbors).
func floodFill(m *imaging.Mask, visited []bool, startX, startY int, region *[]Point) {
	w, h := m.Width, m.Height
	stack := []Point{{X: startX, Y: startY}}
	visited[startY*w+startX] = true

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		*region = append(*region, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := p.X+dx, p.Y+dy
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				nidx := ny*w + nx
				if visited[nidx] || !m.Bits[nidx] {
					continue
				}
				visited[nidx] = true
				stack = append(stack, Point{X: nx, Y: ny})
			}
		}
	}
}

// measure computes bounds, area-weighted centroid and outer perimeter.
func measure(region []Point) Candidate {
	b := Bounds{X1: region[0].X, Y1: region[0].Y, X2: region[0].X, Y2: region[0].Y}
	var sumX, sumY float64
	for _, p := range region {
		if p.X < b.X1 {
			b.X1 = p.X
		}
		if p.X > b.X2 {
			b.X2 = p.X
		}
		if p.Y < b.Y1 {
			b.Y1 = p.Y
		}
		if p.Y > b.Y2 {
			b.Y2 = p.Y
		}
		sumX += float64(p.X)
		sumY += float64(p.Y)
	}
	n := float64(len(region))
	return Candidate{
		Bounds:    b,
		Area:      n,
		CX:        sumX / n,
		CY:        sumY / n,
		Perimeter: outerPerimeter(region, b),
		Group:     -1,
	}
}

// outerPerimeter counts region pixels that touch (4-connected) background
// reachable from outside the bounding box. Pixels bordering enclosed holes
// are not counted.
func outerPerimeter(region []Point, b Bounds) float64 {
	// Local grid padded by one pixel on every side.
	lw := b.X2 - b.X1 + 3
	lh := b.Y2 - b.Y1 + 3
	ink := make([]bool, lw*lh)
	for _, p := range region {
		ink[(p.Y-b.Y1+1)*lw+(p.X-b.X1+1)] = true
	}

	outside := make([]bool, lw*lh)
	stack := []int{0}
	outside[0] = true
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%lw, i/lw
		for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			nx, ny := x+d[0], y+d[1]
			if nx < 0 || nx >= lw || ny < 0 || ny >= lh {
				continue
			}
			ni := ny*lw + nx
			if outside[ni] || ink[ni] {
				continue
			}
			outside[ni] = true
			stack = append(stack, ni)
		}
	}

	count := 0
	for _, p := range region {
		x, y := p.X-b.X1+1, p.Y-b.Y1+1
		i := y*lw + x
		if outside[i-1] || outside[i+1] || outside[i-lw] || outside[i+lw] {
			count++
		}
	}
	return float64(count)
}
