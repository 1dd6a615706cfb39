// Package score holds the recognized note model and the reference tooling
// around it: MIDI export, reading reference MIDI and MusicXML files, and
// longest-common-subsequence comparison of pitch sequences.
package score
