package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the page image (PNG, JPEG, GIF, TIFF or BMP)",
	}
}

// recognitionProperties are shared by every tool that runs recognition.
func recognitionProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": pathProperty(),
		"title": map[string]interface{}{
			"type":        "string",
			"description": "Title of the piece. When empty it is read from the page if OCR is available",
		},
		"preset": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"default", "photo"},
			"description": "Starting options: 'default' for scans, 'photo' for phone photographs. Default 'default'",
			"default":     "default",
		},
		"options": map[string]interface{}{
			"type":        "object",
			"description": "Option overrides applied on top of the preset, e.g. {\"threshold_offset\": 9, \"recall_first_mode\": true}. Values are clamped to their safe ranges",
		},
	}
}

func withProperties(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Recognition
		{
			Name:        "score_recognize",
			Description: "Recognize the notes of a printed single-voice score page. Returns pitches, durations, synthetic measures, staff corridors, bar count, a capture quality score and the backend that answered.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(recognitionProperties(), map[string]interface{}{
					"overlay": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return a base64 PNG debug overlay (ink white, staff lines red, symbols green, heads ringed). Default false",
					},
					"overlay_scale": map[string]interface{}{
						"type":        "number",
						"description": "Scale factor for the overlay. Default 1.0",
						"default":     1.0,
					},
					"diagnostics": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return per-stage candidate counts. Default false",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "score_export_midi",
			Description: "Recognize a score page and write the notes as a standard MIDI file, one note after another at the given tempo.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(recognitionProperties(), map[string]interface{}{
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path of the .mid file to write",
					},
					"bpm": map[string]interface{}{
						"type":        "number",
						"description": "Tempo in quarter notes per minute. Default 100",
						"default":     100,
					},
				}),
				"required": []string{"path", "output"},
			},
		},
		{
			Name:        "score_compare_reference",
			Description: "Recognize a score page and compare the pitch sequence with a reference MIDI or MusicXML file. The ratio is the longest common subsequence divided by the reference length.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(recognitionProperties(), map[string]interface{}{
					"reference": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the reference (.mid, .midi, .xml or .musicxml)",
					},
				}),
				"required": []string{"path", "reference"},
			},
		},
		{
			Name:        "score_staff_crop",
			Description: "Recognize a score page and return the corridor of one staff as base64-encoded PNG, for close inspection.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(recognitionProperties(), map[string]interface{}{
					"staff": map[string]interface{}{
						"type":        "integer",
						"description": "1-based staff index, top to bottom. Default 1",
						"default":     1,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				}),
				"required": []string{"path"},
			},
		},

		// Runtime and images
		{
			Name:        "score_runtime_status",
			Description: "Report whether the native OpenCV backend is active or has fallen back, and whether title OCR is available.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and the downsample factor recognition will apply.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_sample_size",
			Description: "Compute the power-of-two downsample factor that brings a capture within a maximum edge length.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Capture width in pixels",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Capture height in pixels",
					},
					"max_dim": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum edge length. Default 1600",
						"default":     1600,
					},
				},
				"required": []string{"width", "height"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
