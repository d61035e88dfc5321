package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// imageProperty and pathProperty describe the two ways an image argument can
// be given: inline base64 or a local file.
func imageProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description + " as base64 (a data: URL prefix is accepted)",
	}
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to " + description + " (alternative to the base64 argument)",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Recognition
		{
			Name:        "captcha_ocr",
			Description: "Read the text of a captcha image with the classification model. Optionally restrict the characters, isolate colors first, or return per-position probabilities.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image": imageProperty("The captcha image"),
					"path":  pathProperty("the captcha image"),
					"png_fix": map[string]interface{}{
						"type":        "boolean",
						"description": "Paint fully transparent pixels white before recognition (RGB models). Default false",
						"default":     false,
					},
					"probability": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the probability rows and their column tokens. Default false",
						"default":     false,
					},
					"charset_range": map[string]interface{}{
						"type": []string{"integer", "string", "array"},
						"description": "Restrict the output vocabulary: 0 digits, 1 lowercase, 2 uppercase, 3 lower+upper, " +
							"4 lower+digits, 5 upper+digits, 6 lower+upper+digits, 7 charset symbols; " +
							"any other string allows exactly its characters; an array lists allowed tokens",
					},
					"color_filter": map[string]interface{}{
						"type": []string{"string", "array"},
						"description": "Keep only these colors before recognition: a color name, a list of names " +
							"(red, blue, green, yellow, orange, purple, cyan, black, white, gray), " +
							"or a list of [[h,s,v],[h,s,v]] inclusive HSV ranges (OpenCV scale)",
					},
				},
			},
		},
		{
			Name:        "captcha_detect",
			Description: "Find the bounding boxes of characters or icons in a click captcha with the detection model. Boxes are [x1, y1, x2, y2], highest confidence first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image": imageProperty("The captcha image"),
					"path":  pathProperty("the captcha image"),
					"annotate": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return a base64 PNG with numbered boxes drawn on the image. Default false",
						"default":     false,
					},
				},
			},
		},

		// Slide captchas
		{
			Name:        "captcha_slide_match",
			Description: "Locate a slider puzzle piece in its background by edge template matching. Returns the matched box [x1, y1, x2, y2] and the piece's opaque offset.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"target_image":     imageProperty("The puzzle piece"),
					"target_path":      pathProperty("the puzzle piece"),
					"background_image": imageProperty("The background"),
					"background_path":  pathProperty("the background"),
					"simple_target": map[string]interface{}{
						"type":        "boolean",
						"description": "Match the whole piece image without cropping it to its opaque region. Default false",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        "captcha_slide_comparison",
			Description: "Locate the gap in a slider background by comparing it with the same background without the gap. Returns the gap's top-left corner.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"target_image":     imageProperty("The background without the gap"),
					"target_path":      pathProperty("the background without the gap"),
					"background_image": imageProperty("The background with the gap"),
					"background_path":  pathProperty("the background with the gap"),
				},
			},
		},

		// Service control
		{
			Name:        "captcha_toggle_feature",
			Description: "Enable or disable the ocr, det and slide features. Enabling a model loads it from disk; disabling unloads it. Returns the resulting status.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"ocr":   map[string]interface{}{"type": "boolean", "description": "Enable or disable OCR"},
					"det":   map[string]interface{}{"type": "boolean", "description": "Enable or disable detection"},
					"slide": map[string]interface{}{"type": "boolean", "description": "Enable or disable slide matching"},
				},
			},
		},
		{
			Name:        "captcha_status",
			Description: "Report which features are enabled.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
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
