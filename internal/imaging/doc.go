// Package imaging holds the pixel-level building blocks of score recognition.
//
// It loads and caches pages, downsamples them to a working size, binarizes
// them, cleans masks with morphology and renders debug overlays. Pipeline
// code above this package works on PixelBuffer and Mask values only.
//
// # Coordinates
//
// (0,0) is the top-left pixel, X grows rightward and Y downward. Rectangles
// follow image.Rectangle: Min is inclusive and Max exclusive.
//
// # Masks
//
// A Mask is a dense boolean raster where true means ink. Masks are never
// shared between goroutines by this package; callers clone before mutating
// a mask they do not own.
//
// # Caching
//
// ImageCache is safe for concurrent use and keeps decoded pages for the
// lifetime of the process. Use Evict or Clear to release memory in long
// running servers.
package imaging
