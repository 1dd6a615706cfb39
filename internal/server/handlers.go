package server

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ironsheep/score-omr/internal/imaging"
	"github.com/ironsheep/score-omr/internal/omr"
	"github.com/ironsheep/score-omr/internal/service"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "score_recognize", "image_load").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each recognition handler:
//  1. Unmarshals arguments from JSON
//  2. Builds omr.Options from the preset and overrides
//  3. Recognizes the page through the service (cached, downsampled)
//  4. Shapes the result for the tool
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Recognition
	case "score_recognize":
		return s.handleScoreRecognize(ctx, args)
	case "score_export_midi":
		return s.handleScoreExportMIDI(ctx, args)
	case "score_compare_reference":
		return s.handleScoreCompareReference(ctx, args)
	case "score_staff_crop":
		return s.handleScoreStaffCrop(ctx, args)

	// Runtime and images
	case "score_runtime_status":
		return s.svc.Status(), nil
	case "image_load":
		return s.handleImageLoad(args)
	case "image_sample_size":
		return s.handleImageSampleSize(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Recognition Handlers ===

type recognitionArgs struct {
	Path    string          `json:"path"`
	Title   string          `json:"title"`
	Preset  string          `json:"preset"`
	Options json.RawMessage `json:"options"`
}

// recognize runs the shared part of every recognition tool. adjust may
// switch on extras before the run.
func (s *Server) recognize(ctx context.Context, a recognitionArgs, adjust func(omr.Options) omr.Options) (*service.Recognition, error) {
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	opts, err := service.ParseOptions(a.Preset, a.Options)
	if err != nil {
		return nil, err
	}
	if adjust != nil {
		opts = adjust(opts)
	}
	return s.svc.RecognizeFile(ctx, a.Path, a.Title, opts)
}

type scoreRecognizeArgs struct {
	recognitionArgs
	Overlay      bool    `json:"overlay"`
	OverlayScale float64 `json:"overlay_scale"`
	Diagnostics  bool    `json:"diagnostics"`
}

func (s *Server) handleScoreRecognize(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a scoreRecognizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.OverlayScale == 0 {
		a.OverlayScale = 1.0
	}

	rec, err := s.recognize(ctx, a.recognitionArgs, func(o omr.Options) omr.Options {
		if a.Overlay {
			o = o.WithOverlay(true)
		}
		if a.Diagnostics {
			o = o.WithDiagnostics(true)
		}
		return o
	})
	if err != nil {
		return nil, err
	}
	if rec.Overlay != nil && a.OverlayScale != 1.0 {
		enc, err := imaging.EncodePNG(rec.Overlay, a.OverlayScale)
		if err != nil {
			return nil, err
		}
		rec.OverlayPNG = enc
	}
	return rec, nil
}

type scoreExportMIDIArgs struct {
	recognitionArgs
	Output string  `json:"output"`
	BPM    float64 `json:"bpm"`
}

type scoreExportMIDIResult struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Output string `json:"output"`
	Notes  int    `json:"notes"`
	Bytes  int64  `json:"bytes"`
	Mode   string `json:"mode"`
}

func (s *Server) handleScoreExportMIDI(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a scoreExportMIDIArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Output == "" {
		return nil, fmt.Errorf("output is required")
	}

	rec, err := s.recognize(ctx, a.recognitionArgs, nil)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(a.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to create midi file: %w", err)
	}
	defer f.Close()
	if err := service.WriteMIDI(f, rec, a.BPM); err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat midi file: %w", err)
	}

	return &scoreExportMIDIResult{
		ID:     rec.ID,
		Title:  rec.Title,
		Output: a.Output,
		Notes:  len(rec.Notes),
		Bytes:  st.Size(),
		Mode:   rec.Mode,
	}, nil
}

type scoreCompareReferenceArgs struct {
	recognitionArgs
	Reference string `json:"reference"`
}

type scoreCompareReferenceResult struct {
	ID string `json:"id"`
	*service.Comparison
	Pitches []string `json:"pitches"`
	Mode    string   `json:"mode"`
}

func (s *Server) handleScoreCompareReference(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a scoreCompareReferenceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Reference == "" {
		return nil, fmt.Errorf("reference is required")
	}

	rec, err := s.recognize(ctx, a.recognitionArgs, nil)
	if err != nil {
		return nil, err
	}
	cmp, err := service.Compare(rec, a.Reference)
	if err != nil {
		return nil, err
	}

	pitches := make([]string, len(rec.Notes))
	for i, n := range rec.Notes {
		pitches[i] = n.Pitch()
	}
	return &scoreCompareReferenceResult{ID: rec.ID, Comparison: cmp, Pitches: pitches, Mode: rec.Mode}, nil
}

type scoreStaffCropArgs struct {
	recognitionArgs
	Staff int     `json:"staff"`
	Scale float64 `json:"scale"`
}

func (s *Server) handleScoreStaffCrop(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a scoreStaffCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Staff == 0 {
		a.Staff = 1
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	rec, err := s.recognize(ctx, a.recognitionArgs, nil)
	if err != nil {
		return nil, err
	}
	return s.svc.StaffImage(a.Path, rec, a.Staff, a.Scale)
}

// === Image Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.svc.Cache(), a.Path)
}

type imageSampleSizeArgs struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	MaxDim int `json:"max_dim"`
}

type imageSampleSizeResult struct {
	SampleSize int `json:"sample_size"`
	Width      int `json:"width"`
	Height     int `json:"height"`
}

func (s *Server) handleImageSampleSize(args json.RawMessage) (interface{}, error) {
	var a imageSampleSizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Width <= 0 || a.Height <= 0 {
		return nil, fmt.Errorf("width and height must be positive, got %dx%d", a.Width, a.Height)
	}
	if a.MaxDim == 0 {
		a.MaxDim = imaging.DefaultMaxDimension
	}

	sample := imaging.CalculateSampleSize(a.Width, a.Height, a.MaxDim)
	return &imageSampleSizeResult{
		SampleSize: sample,
		Width:      a.Width / sample,
		Height:     a.Height / sample,
	}, nil
}
