// Package ocr reads the title printed above the first staff of a score.
//
// Recognition uses the Tesseract engine through gosseract and is only
// compiled with the tesseract build tag:
//
//	go build -tags tesseract ./...
//
// Without the tag every recognition call returns ErrUnavailable and callers
// keep the title they were given.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// # Title Region
//
// The title is looked for in a full-width band between the top of the page
// and the first staff corridor. The band is cropped, converted to grayscale
// and upscaled so that small print reaches the glyph height Tesseract works
// best with, then read as a single block of text. Only words above a
// confidence floor are kept.
package ocr
