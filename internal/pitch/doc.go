// Package pitch maps note-head positions on a five-line staff to note names.
//
// Positions are counted in diatonic steps from the bottom staff line: 0 is
// the bottom line, 1 the first gap, 8 the top line, negative values sit
// below the staff. The bottom line of a treble staff is E4.
//
// Two algorithms are provided. The simple one rounds the distance from the
// bottom line to the nearest half spacing. The line-stripe algorithm
// re-estimates each line locally next to the head and then decides between
// "on the line" and "in the adjacent gap" with an ink-band test and a
// background connectivity test, which holds up on photographed pages whose
// staves are not perfectly horizontal.
package pitch
