package server

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/score-omr/internal/omr/omrtest"
	"github.com/ironsheep/score-omr/internal/score"
)

// createTestImageFile creates a solid test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return omrtest.WritePNG(t, "solid.png", img)
}

// callTool sends a tools/call request and returns the response.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()
	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	}

	resp := s.handleRequest(context.Background(), req)
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// toolResult decodes the text content of a successful tool response.
func toolResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v (%v)", resp.Error.Message, resp.Error.Data)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("content: got %v", result["content"])
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v, want text", content[0]["type"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("Failed to decode tool result: %v\n%s", err, text)
	}
}

func scorePagePath(t *testing.T) string {
	t.Helper()
	return omrtest.WritePNG(t, "scale.png", omrtest.ScorePage(omrtest.Ascending))
}

func TestHandleToolsCall_ScoreRecognize(t *testing.T) {
	s := newTestServer(t)
	resp := callTool(t, s, "score_recognize", map[string]interface{}{
		"path":  scorePagePath(t),
		"title": "Scale",
	})

	var got struct {
		ID        string            `json:"id"`
		Title     string            `json:"title"`
		Notes     []score.NoteEvent `json:"notes"`
		StaffRows int               `json:"staff_rows"`
		Mode      string            `json:"mode"`
		Overlay   json.RawMessage   `json:"overlay"`
	}
	toolResult(t, resp, &got)

	if got.ID == "" {
		t.Error("result has no id")
	}
	if got.Title != "Scale" {
		t.Errorf("title: got %q, want Scale", got.Title)
	}
	if got.StaffRows != 1 {
		t.Errorf("staff_rows: got %d, want 1", got.StaffRows)
	}
	if got.Mode != "fallback" {
		t.Errorf("mode: got %q, want fallback", got.Mode)
	}
	if got.Overlay != nil {
		t.Error("overlay returned without being requested")
	}
	if ratio := score.LCSRatio(score.Pitches(got.Notes), omrtest.AscendingPitches); ratio < 0.6 {
		t.Errorf("pitch LCS ratio: got %.2f (%v)", ratio, score.Pitches(got.Notes))
	}
}

func TestHandleToolsCall_ScoreRecognizeOverlay(t *testing.T) {
	s := newTestServer(t)
	resp := callTool(t, s, "score_recognize", map[string]interface{}{
		"path":          scorePagePath(t),
		"overlay":       true,
		"overlay_scale": 0.5,
		"diagnostics":   true,
		"preset":        "photo",
		"options":       map[string]interface{}{"threshold_offset": 9},
	})

	var got struct {
		Overlay struct {
			Width       int    `json:"width"`
			Height      int    `json:"height"`
			ImageBase64 string `json:"image_base64"`
		} `json:"overlay"`
		Diagnostics map[string]interface{} `json:"diagnostics"`
	}
	toolResult(t, resp, &got)

	if got.Overlay.Width != 300 || got.Overlay.Height != 120 {
		t.Errorf("overlay size: got %dx%d, want 300x120", got.Overlay.Width, got.Overlay.Height)
	}
	if got.Overlay.ImageBase64 == "" {
		t.Error("overlay has no data")
	}
	if got.Diagnostics == nil {
		t.Error("diagnostics missing")
	}
}

func TestHandleToolsCall_ScoreRecognizeErrors(t *testing.T) {
	s := newTestServer(t)
	path := scorePagePath(t)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing path", map[string]interface{}{}},
		{"missing file", map[string]interface{}{"path": filepath.Join(t.TempDir(), "none.png")}},
		{"unknown preset", map[string]interface{}{"path": path, "preset": "fax"}},
		{"bad options", map[string]interface{}{"path": path, "options": map[string]interface{}{"noise_level": "loud"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, "score_recognize", tt.args)
			if resp.Error == nil {
				t.Fatal("Expected error")
			}
			if resp.Error.Code != -32000 {
				t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
			}
		})
	}
}

func TestHandleToolsCall_ScoreExportMIDI(t *testing.T) {
	s := newTestServer(t)
	out := filepath.Join(t.TempDir(), "scale.mid")

	resp := callTool(t, s, "score_export_midi", map[string]interface{}{
		"path":   scorePagePath(t),
		"output": out,
		"bpm":    90,
	})

	var got scoreExportMIDIResult
	toolResult(t, resp, &got)

	if got.Output != out || got.Notes == 0 || got.Bytes == 0 {
		t.Errorf("unexpected result: %+v", got)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("midi file not written: %v", err)
	}
	defer f.Close()
	keys, err := score.ReadMIDINoteOns(f)
	if err != nil {
		t.Fatalf("ReadMIDINoteOns failed: %v", err)
	}
	if len(keys) != got.Notes {
		t.Errorf("midi holds %d notes, result says %d", len(keys), got.Notes)
	}

	resp = callTool(t, s, "score_export_midi", map[string]interface{}{"path": scorePagePath(t)})
	if resp.Error == nil {
		t.Error("Expected error without output")
	}
}

func TestHandleToolsCall_ScoreCompareReference(t *testing.T) {
	s := newTestServer(t)

	notes := make([]score.NoteEvent, len(omrtest.AscendingKeys))
	for i, k := range omrtest.AscendingKeys {
		name, octave := score.NameForMIDI(k)
		notes[i] = score.NoteEvent{Name: name, Octave: octave, Duration: score.Quarter}
	}
	ref := filepath.Join(t.TempDir(), "scale.mid")
	f, err := os.Create(ref)
	if err != nil {
		t.Fatal(err)
	}
	if err := score.WriteMIDI(f, notes, 0); err != nil {
		t.Fatal(err)
	}
	f.Close()

	resp := callTool(t, s, "score_compare_reference", map[string]interface{}{
		"path":      scorePagePath(t),
		"reference": ref,
	})

	var got struct {
		Expected int      `json:"expected"`
		Ratio    float64  `json:"ratio"`
		Pitches  []string `json:"pitches"`
	}
	toolResult(t, resp, &got)

	if got.Expected != len(notes) {
		t.Errorf("expected: got %d, want %d", got.Expected, len(notes))
	}
	if got.Ratio < 0.6 {
		t.Errorf("ratio: got %.2f, want >= 0.6 (%v)", got.Ratio, got.Pitches)
	}

	resp = callTool(t, s, "score_compare_reference", map[string]interface{}{"path": scorePagePath(t)})
	if resp.Error == nil {
		t.Error("Expected error without reference")
	}
}

func TestHandleToolsCall_ScoreStaffCrop(t *testing.T) {
	s := newTestServer(t)
	resp := callTool(t, s, "score_staff_crop", map[string]interface{}{
		"path": scorePagePath(t),
	})

	var got struct {
		Width    int    `json:"width"`
		Height   int    `json:"height"`
		MimeType string `json:"mime_type"`
	}
	toolResult(t, resp, &got)

	if got.MimeType != "image/png" {
		t.Errorf("mime_type: got %q", got.MimeType)
	}
	if got.Width == 0 || got.Width > 600 || got.Height < 48 || got.Height > 240 {
		t.Errorf("crop size: got %dx%d", got.Width, got.Height)
	}

	resp = callTool(t, s, "score_staff_crop", map[string]interface{}{
		"path":  scorePagePath(t),
		"staff": 3,
	})
	if resp.Error == nil {
		t.Error("Expected error for missing staff")
	}
}

func TestHandleToolsCall_ScoreRuntimeStatus(t *testing.T) {
	s := newTestServer(t)
	resp := callTool(t, s, "score_runtime_status", map[string]interface{}{})

	var got struct {
		Runtime struct {
			State string `json:"state"`
		} `json:"runtime"`
		OCR struct {
			Backend string `json:"backend"`
		} `json:"ocr"`
	}
	toolResult(t, resp, &got)

	if got.Runtime.State != "native_disabled" {
		t.Errorf("runtime state: got %q, want native_disabled", got.Runtime.State)
	}
	if got.OCR.Backend == "" {
		t.Error("ocr backend missing")
	}
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 100, 80, color.RGBA{255, 0, 0, 255})

	resp := callTool(t, s, "image_load", map[string]interface{}{"path": imgPath})

	var got struct {
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		Format     string `json:"format"`
		SampleSize int    `json:"sample_size"`
	}
	toolResult(t, resp, &got)

	if got.Width != 100 || got.Height != 80 || got.Format != "png" || got.SampleSize != 1 {
		t.Errorf("unexpected info: %+v", got)
	}
}

func TestHandleToolsCall_ImageSampleSize(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name       string
		args       map[string]interface{}
		wantSample int
		wantWidth  int
	}{
		{"gallery photo", map[string]interface{}{"width": 1280, "height": 960}, 1, 1280},
		{"large photo", map[string]interface{}{"width": 6000, "height": 4000}, 4, 1500},
		{"custom limit", map[string]interface{}{"width": 6000, "height": 4000, "max_dim": 800}, 8, 750},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got imageSampleSizeResult
			toolResult(t, callTool(t, s, "image_sample_size", tt.args), &got)
			if got.SampleSize != tt.wantSample || got.Width != tt.wantWidth {
				t.Errorf("got %+v, want sample %d width %d", got, tt.wantSample, tt.wantWidth)
			}
		})
	}

	resp := callTool(t, s, "image_sample_size", map[string]interface{}{"width": 0, "height": 10})
	if resp.Error == nil {
		t.Error("Expected error for zero width")
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	}

	resp := s.handleToolsCall(context.Background(), req)

	if resp.Error == nil {
		t.Fatal("Expected error for invalid params")
	}
	if resp.Error.Code != -32602 {
		t.Errorf("Error code: got %d, want -32602", resp.Error.Code)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer(t)
	resp := callTool(t, s, "image_detect_circles", map[string]interface{}{})

	if resp.Error == nil {
		t.Fatal("Expected error for unknown tool")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
}

func TestMustMarshalJSON(t *testing.T) {
	got := mustMarshalJSON(map[string]int{"a": 1})
	if got != "{\n  \"a\": 1\n}" {
		t.Errorf("mustMarshalJSON: got %q", got)
	}
	if got := mustMarshalJSON(make(chan int)); got != "" {
		t.Errorf("mustMarshalJSON(chan): got %q, want empty", got)
	}
}
