// Package staff finds five-line musical staves in a binarized page.
//
// The estimator works on row ink density. It first derives the typical line
// spacing from the density peaks, then isolates long horizontal runs as the
// staff-line mask, then groups five roughly equidistant line peaks into a
// Group with a horizontal span. Every Group found on one page is normalized
// to share the same start column and width, so the corridors used to restrict
// symbol search are uniform across the page.
//
// # Coordinate System
//
// Row y grows downward. Group.Lines are ordered top to bottom, so Lines[0]
// is the top (F5 in treble clef) and Lines[4] the bottom (E4).
//
// # Corridors
//
// A Corridor is the [0,1]-normalized projection of a Group used for
// highlighting. It is derived from the Group and never fed back into
// detection.
package staff
