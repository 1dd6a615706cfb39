package imaging

import (
	"github.com/anthonynsimon/bild/segment"
)

// LocalMeanRadius is the half-width of the square window used for the
// local mean: max(6, min(w,h)/24).
func LocalMeanRadius(w, h int) int {
	r := minInt(w, h) / 24
	if r < 6 {
		r = 6
	}
	return r
}

// LocalMean computes the mean luminance of the (2r+1)x(2r+1) window around
// every pixel, clipped at the image border, using an integral image.
func LocalMean(gray []uint8, w, h int) []int {
	if w <= 0 || h <= 0 {
		return nil
	}
	stride := w + 1
	integral := make([]int, stride*(h+1))
	for y := 1; y <= h; y++ {
		rowSum := 0
		for x := 1; x <= w; x++ {
			rowSum += int(gray[(y-1)*w+(x-1)])
			integral[y*stride+x] = integral[(y-1)*stride+x] + rowSum
		}
	}

	radius := LocalMeanRadius(w, h)
	out := make([]int, w*h)
	for y := 0; y < h; y++ {
		y0 := maxInt(0, y-radius)
		y1 := minInt(h-1, y+radius)
		for x := 0; x < w; x++ {
			x0 := maxInt(0, x-radius)
			x1 := minInt(w-1, x+radius)
			a := integral[y0*stride+x0]
			b := integral[y0*stride+x1+1]
			c := integral[(y1+1)*stride+x0]
			d := integral[(y1+1)*stride+x1+1]
			area := maxInt(1, (x1-x0+1)*(y1-y0+1))
			out[y*w+x] = (d - b - c + a) / area
		}
	}
	return out
}

// AdaptiveBinarize marks a pixel as ink when it is darker than its local
// mean minus offset.
func AdaptiveBinarize(gray []uint8, w, h, offset int) *Mask {
	mask := NewMask(w, h)
	if len(gray) < w*h {
		return mask
	}
	mean := LocalMean(gray, w, h)
	for i := range mask.Bits {
		mask.Bits[i] = int(gray[i]) < mean[i]-offset
	}
	return mask
}

// OtsuLevel returns the global threshold that maximises between-class
// variance of the luminance histogram.
func OtsuLevel(gray []uint8) uint8 {
	var hist [256]int
	for _, v := range gray {
		hist[v]++
	}
	total := len(gray)
	if total == 0 {
		return 127
	}
	sum := 0.0
	for i, n := range hist {
		sum += float64(i * n)
	}

	var sumB, best float64
	wB := 0
	level := 127
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			level = t
		}
	}
	return uint8(level)
}

// GlobalBinarize thresholds the whole image at its Otsu level. Pixels at or
// below the level become ink.
func GlobalBinarize(gray []uint8, w, h int) *Mask {
	mask := NewMask(w, h)
	if len(gray) < w*h || w == 0 || h == 0 {
		return mask
	}
	level := OtsuLevel(gray)
	if level == 255 {
		for i := range mask.Bits {
			mask.Bits[i] = true
		}
		return mask
	}
	// segment.Threshold paints pixels >= level white; ink stays black.
	above := segment.Threshold(GrayImage(gray, w, h), level+1)
	for i := range mask.Bits {
		mask.Bits[i] = above.Pix[i] == 0
	}
	return mask
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
