// Package detection turns a symbols-only mask into note-head candidates.
//
// The pipeline mirrors classic blob analysis:
//
//  1. Components: 8-connected flood fill labels every ink region and
//     measures bounds, area, centroid and outer perimeter.
//  2. TrimTall: a candidate taller than 1.8 spacings is a head with its
//     stem or flags attached and is cut down to the head band.
//  3. Filter: a cascade of geometric tests (area, bounds, size, aspect,
//     fill, perimeter, circularity, staff position). Each stage counts its
//     own rejections in Diagnostics. In recall-first mode the thresholds
//     are relaxed and gap-sized blobs may be rescued.
//  4. Dedupe: a centre-distance pass keeps the larger of two overlapping
//     candidates, then a slot pass keeps the best-scoring candidate per
//     (staff, horizontal slot).
//  5. AnalyticalFilter: a 0-5 plausibility score with a threshold derived
//     from the analytical strength, optionally per staff.
//
// # Coordinate System
//
// All coordinates use the standard image convention: origin at the top-left,
// X rightward, Y downward. Bounds are inclusive on both corners.
//
// # Scale
//
// Every threshold is relative to the staff spacing of the staff a candidate
// belongs to, so the same settings work for phone photos and flatbed scans.
package detection
