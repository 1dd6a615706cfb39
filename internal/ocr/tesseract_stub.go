//go:build !tesseract

package ocr

import "image"

func recognize(image.Image, string) ([]Word, error) {
	return nil, ErrUnavailable
}

// GetInfo reports that OCR was not compiled in.
func GetInfo() Info {
	return Info{Available: false, Backend: "none", Error: ErrUnavailable.Error()}
}
