// Package service is the recognition front door shared by the CLI, the MCP
// server and the HTTP API. It loads and downsamples pages through the image
// cache, builds options from a preset plus JSON overrides, runs the
// processor, fills an empty title by OCR and converts the result into MIDI
// or a reference comparison.
package service
