//go:build gocv

package omr

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ironsheep/score-omr/internal/detection"
	"github.com/ironsheep/score-omr/internal/imaging"
)

// probeNative checks that OpenCV is linked and can allocate a matrix.
func probeNative() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrNativeUnavailable, r)
		}
	}()
	if gocv.Version() == "" {
		return ErrNativeUnavailable
	}
	m := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8U)
	defer m.Close()
	if m.Empty() {
		return fmt.Errorf("%w: cannot allocate a matrix", ErrNativeUnavailable)
	}
	return nil
}

// NativeVersion returns the linked OpenCV version.
func NativeVersion() string { return gocv.Version() }

type nativeBackend struct {
	profile Profile
}

func newNativeBackend(p Profile) Backend { return nativeBackend{profile: p} }

func (nativeBackend) Name() string { return ModeNative }

// Binarize equalises contrast with CLAHE, median blurs and applies a
// Gaussian adaptive threshold; with SkipAdaptiveBinarization it uses Otsu.
func (b nativeBackend) Binarize(buf imaging.PixelBuffer, opts Options) (*imaging.Mask, error) {
	if buf.Empty() {
		return imaging.NewMask(buf.Width, buf.Height), nil
	}
	src, err := gocv.NewMatFromBytes(buf.Height, buf.Width, gocv.MatTypeCV8UC4, buf.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap pixels: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorRGBAToGray)

	binary := gocv.NewMat()
	defer binary.Close()

	if opts.SkipAdaptiveBinarization {
		gocv.Threshold(gray, &binary, 0, 255, gocv.ThresholdBinaryInv|gocv.ThresholdOtsu)
		return matToMask(binary)
	}

	clahe := gocv.NewCLAHEWithParams(b.profile.CLAHEClipLimit, image.Pt(b.profile.CLAHETileSize, b.profile.CLAHETileSize))
	defer clahe.Close()
	contrast := gocv.NewMat()
	defer contrast.Close()
	clahe.Apply(gray, &contrast)

	norm := gocv.NewMat()
	defer norm.Close()
	gocv.MedianBlur(contrast, &norm, b.profile.MedianKernel)

	block := (minInt(buf.Width, buf.Height) / 20) | 1
	if block < 15 {
		block = 15
	}
	gocv.AdaptiveThreshold(norm, &binary, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinaryInv, block, float32(opts.ThresholdOffset))
	return matToMask(binary)
}

// Clean applies an elliptical open then close.
func (nativeBackend) Clean(symbols *imaging.Mask, opts Options) (*imaging.Mask, error) {
	if opts.SkipMorphNoiseSuppression {
		return symbols.Clone(), nil
	}
	src, err := maskToMat(symbols)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	k := imaging.MorphKernel(opts.NoiseLevel)
	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(k, k))
	defer kernel.Close()

	opened := gocv.NewMat()
	defer opened.Close()
	gocv.MorphologyEx(src, &opened, gocv.MorphOpen, kernel)

	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(opened, &closed, gocv.MorphClose, kernel)
	return matToMask(closed)
}

// Candidates measures external contours: contour area, closed arc length
// and a moment-weighted centroid of the ink inside the bounding box.
func (nativeBackend) Candidates(symbols *imaging.Mask) ([]detection.Candidate, error) {
	src, err := maskToMat(symbols)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	contours := gocv.FindContours(src, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	out := make([]detection.Candidate, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		pv := contours.At(i)
		rect := gocv.BoundingRect(pv)
		if rect.Empty() {
			continue
		}
		c := detection.Candidate{
			Bounds:    detection.Bounds{X1: rect.Min.X, Y1: rect.Min.Y, X2: rect.Max.X - 1, Y2: rect.Max.Y - 1},
			Area:      gocv.ContourArea(pv),
			Perimeter: gocv.ArcLength(pv, true),
			CX:        float64(rect.Min.X+rect.Max.X-1) / 2,
			CY:        float64(rect.Min.Y+rect.Max.Y-1) / 2,
			Group:     -1,
		}

		roi := src.Region(rect)
		m := gocv.Moments(roi, true)
		roi.Close()
		if m00 := m["m00"]; m00 > 0 {
			c.CX = float64(rect.Min.X) + m["m10"]/m00
			c.CY = float64(rect.Min.Y) + m["m01"]/m00
		}
		out = append(out, c)
	}
	return out, nil
}

func maskToMat(m *imaging.Mask) (gocv.Mat, error) {
	data := make([]byte, len(m.Bits))
	for i, v := range m.Bits {
		if v {
			data[i] = 255
		}
	}
	mat, err := gocv.NewMatFromBytes(m.Height, m.Width, gocv.MatTypeCV8U, data)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to build mask matrix: %w", err)
	}
	return mat, nil
}

func matToMask(mat gocv.Mat) (*imaging.Mask, error) {
	if mat.Type() != gocv.MatTypeCV8U {
		return nil, fmt.Errorf("unexpected matrix type %v", mat.Type())
	}
	w, h := mat.Cols(), mat.Rows()
	data := mat.ToBytes()
	if len(data) < w*h {
		return nil, fmt.Errorf("matrix holds %d bytes, want %d", len(data), w*h)
	}
	m := imaging.NewMask(w, h)
	for i := range m.Bits {
		m.Bits[i] = data[i] > 0
	}
	return m, nil
}
