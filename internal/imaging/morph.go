package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
)

// MorphKernel picks the structuring element size for noise suppression:
// 3 for noisy captures (noiseLevel >= 0.66), 2 otherwise.
func MorphKernel(noiseLevel float64) int {
	if noiseLevel >= 0.66 {
		return 3
	}
	return 2
}

// OpenClose runs a morphological opening (erode, dilate) followed by a
// closing (dilate, erode) over the ink of m with a kernel x kernel square.
//
// bild anchors an even window at offsets [-k/2, k/2-1] for both erosion
// and dilation, so each erode/dilate pair lands one pixel down and right
// of the textbook result. For even kernels the output is moved back by
// the two pixels the four passes add.
func OpenClose(m *Mask, kernel int) *Mask {
	if m.Width == 0 || m.Height == 0 || kernel < 2 {
		return m.Clone()
	}
	radius := float64(kernel-1) / 2

	var img image.Image = m.ToGray()
	img = effect.Erode(img, radius)
	img = effect.Dilate(img, radius)
	img = effect.Dilate(img, radius)
	img = effect.Erode(img, radius)
	out := MaskFromImage(img)
	if kernel%2 == 0 {
		out = out.Translate(-2, -2)
	}
	return out
}

// NeighborhoodFilter keeps a pixel only when at least minHits of the 3x3
// window around it (itself included) is ink. Border pixels are copied as is.
func NeighborhoodFilter(m *Mask, minHits int) *Mask {
	out := m.Clone()
	w, h := m.Width, m.Height
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			hits := 0
			for ny := y - 1; ny <= y+1; ny++ {
				base := ny * w
				for nx := x - 1; nx <= x+1; nx++ {
					if m.Bits[base+nx] {
						hits++
					}
				}
			}
			out.Bits[y*w+x] = hits >= minHits
		}
	}
	return out
}
