// Package omr runs optical music recognition over one page image.
//
// A Processor chains the stages of the other internal packages:
//
//  1. Binarize: local-adaptive (or global Otsu) thresholding into an ink mask.
//  2. Staff analysis: spacing, line mask and five-line groups (package staff).
//  3. Symbol extraction: staff ink removed inside padded corridors, crossings
//     repaired, then denoised by the backend.
//  4. Candidates: connected regions filtered, deduplicated and scored
//     (package detection).
//  5. Pitch and duration of every accepted head (packages pitch, duration).
//  6. Assembly: reading order, synthetic measures, bar count, quality score
//     and the optional debug overlay.
//
// # Backends
//
// Stages 1, 3 and 4 run on a Backend. The native backend uses OpenCV through
// gocv and is only compiled with the gocv build tag. The pure backend needs
// no cgo and is always available.
//
// # Fallback
//
// Runtime is a one-way latch shared by every Processor of the process. It
// starts in NativeReady only when the native probe succeeds. The first native
// error or panic moves it to NativeDisabled; the failing call is answered by
// the pure backend, and so is every later call. Set SCORE_OMR_NATIVE=off to
// start disabled, and SCORE_OMR_LOG_LEVEL=debug for per-run stage logging.
package omr
