//go:build tesseract

package ocr

import (
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawText draws text on an image using basicfont
func drawText(img *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// createTitlePage renders title at the top of a page and five staff lines
// below it, with every pixel scaled up by scale.
func createTitlePage(title string, scale int) *image.RGBA {
	w, h := 240, 120
	small := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	drawText(small, 20, 25, title, color.Black)
	for i := 0; i < 5; i++ {
		for x := 10; x < w-10; x++ {
			small.Set(x, 60+8*i, color.Black)
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := small.At(x, y)
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.Set(x*scale+dx, y*scale+dy, c)
				}
			}
		}
	}
	return img
}

func TestTitleAbove_RealText(t *testing.T) {
	img := createTitlePage("SONATA", 3)
	// The staff corridor starts 2 spacings above the first line.
	top := float64(3*(60-16)) / float64(img.Bounds().Dy()-1)

	got, err := TitleAbove(img, top, DefaultLanguage)
	if err != nil {
		if strings.Contains(err.Error(), "language") {
			t.Skip("Tesseract language data not available")
		}
		t.Fatalf("TitleAbove failed: %v", err)
	}
	t.Logf("recognised title %q", got)
	if !strings.Contains(strings.ToUpper(got), "SONATA") {
		t.Errorf("title %q does not contain SONATA", got)
	}
}

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	if !info.Available || info.Version == "" {
		t.Errorf("unexpected info %+v", info)
	}
}
