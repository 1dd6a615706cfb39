package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"
)

func solidImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{90, 140, 200, 255}), image.Point{}, draw.Src)
	return img
}

func TestEncodePNG(t *testing.T) {
	img := solidImage(200, 100)

	enc, err := EncodePNG(img, 1.0)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	if enc.Width != 200 || enc.Height != 100 || enc.MimeType != "image/png" {
		t.Errorf("unexpected header: %+v", enc)
	}
	raw, err := base64.StdEncoding.DecodeString(enc.ImageBase64)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("invalid png: %v", err)
	}
	if decoded.Bounds().Dx() != 200 {
		t.Errorf("decoded width = %d", decoded.Bounds().Dx())
	}

	half, err := EncodePNG(img, 0.5)
	if err != nil {
		t.Fatalf("EncodePNG(0.5) failed: %v", err)
	}
	if half.Width != 100 || half.Height != 50 {
		t.Errorf("scaled to %dx%d, want 100x50", half.Width, half.Height)
	}
}

func TestEncodePNG_Errors(t *testing.T) {
	if _, err := EncodePNG(nil, 1.0); err == nil {
		t.Error("nil image should fail")
	}
	if _, err := EncodePNG(solidImage(10, 10), 0.01); err == nil {
		t.Error("collapsing scale should fail")
	}
}

func TestCropRegion(t *testing.T) {
	img := solidImage(50, 40)

	crop, err := CropRegion(img, image.Rect(40, 30, 70, 60))
	if err != nil {
		t.Fatalf("CropRegion failed: %v", err)
	}
	if b := crop.Bounds(); b.Dx() != 10 || b.Dy() != 10 {
		t.Errorf("clipped crop = %v, want 10x10", b)
	}

	if _, err := CropRegion(img, image.Rect(60, 60, 80, 80)); err == nil {
		t.Error("crop outside the image should fail")
	}
}
