// Package server implements the MCP (Model Context Protocol) server for score recognition.
//
// This package provides a JSON-RPC 2.0 server that exposes the recognition pipeline
// through the MCP protocol, so an assistant can read the notes of a printed score,
// export them as MIDI and check them against a reference.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Recognition (all accept path, title, preset and options):
//   - score_recognize: Notes, staff corridors, bar count, quality and backend
//   - score_export_midi: Write the notes as a standard MIDI file
//   - score_compare_reference: LCS ratio against a MIDI or MusicXML reference
//   - score_staff_crop: One staff corridor as PNG
//
// Runtime and images:
//   - score_runtime_status: Native backend latch and OCR availability
//   - image_load: Image metadata and downsample factor
//   - image_sample_size: Downsample factor for given dimensions
//
// # Image Caching
//
// Decoded pages are cached by path for the lifetime of the process, so
// recognizing and then cropping the same page reads the file once.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A failure of the native backend is not an error: the call is answered by
// the pure backend and the result reports mode "fallback".
//
// # Usage
//
//	srv := server.New(service.New(proc, nil), version)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
