package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ironsheep/captcha-tools-mcp/internal/errs"
	"github.com/ironsheep/captcha-tools-mcp/internal/service"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "captcha_ocr", "captcha_status").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// ToolError is the data of a failed tool call. Kind is one of the errs kinds
// and is empty for malformed arguments.
type ToolError struct {
	Kind  errs.Kind `json:"kind,omitempty"`
	Error string    `json:"error"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000
// and a ToolError as data.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", ToolError{Error: err.Error()})
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Infof("Tool %v failed: %v", params.Name, err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", ToolError{Kind: errs.KindOf(err), Error: err.Error()})
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
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Reads file arguments through the byte cache
//  3. Calls the matching service operation
//  4. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Recognition
	case "captcha_ocr":
		return s.handleOCR(ctx, args)
	case "captcha_detect":
		return s.handleDetect(ctx, args)

	// Slide captchas
	case "captcha_slide_match":
		return s.handleSlideMatch(ctx, args)
	case "captcha_slide_comparison":
		return s.handleSlideComparison(ctx, args)

	// Service control
	case "captcha_toggle_feature":
		return s.handleToggleFeature(ctx, args)
	case "captcha_status":
		return s.svc.Status(), nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
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

// readFile returns the contents of path through the cache, or nil when path
// is empty.
func (s *Server) readFile(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	return s.files.Load(path)
}

// === Recognition Handlers ===

type ocrArgs struct {
	service.OCRRequest
	Path string `json:"path"`
}

func (s *Server) handleOCR(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a ocrArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.readFile(a.Path)
	if err != nil {
		return nil, err
	}
	a.ImageData = data
	return s.svc.OCR(ctx, &a.OCRRequest)
}

type detectArgs struct {
	service.DETRequest
	Path string `json:"path"`
}

func (s *Server) handleDetect(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.readFile(a.Path)
	if err != nil {
		return nil, err
	}
	a.ImageData = data
	return s.svc.Detect(ctx, &a.DETRequest)
}

// === Slide Handlers ===

type imagePairPaths struct {
	TargetPath     string `json:"target_path"`
	BackgroundPath string `json:"background_path"`
}

func (s *Server) readPair(p imagePairPaths) (target, bg []byte, err error) {
	if target, err = s.readFile(p.TargetPath); err != nil {
		return nil, nil, err
	}
	if bg, err = s.readFile(p.BackgroundPath); err != nil {
		return nil, nil, err
	}
	return target, bg, nil
}

type slideMatchArgs struct {
	service.SlideRequest
	imagePairPaths
}

func (s *Server) handleSlideMatch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a slideMatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	target, bg, err := s.readPair(a.imagePairPaths)
	if err != nil {
		return nil, err
	}
	a.TargetData, a.BackgroundData = target, bg
	return s.svc.SlideMatch(ctx, &a.SlideRequest)
}

type slideComparisonArgs struct {
	service.CompareRequest
	imagePairPaths
}

func (s *Server) handleSlideComparison(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a slideComparisonArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	target, bg, err := s.readPair(a.imagePairPaths)
	if err != nil {
		return nil, err
	}
	a.TargetData, a.BackgroundData = target, bg
	return s.svc.SlideCompare(ctx, &a.CompareRequest)
}

// === Service Control Handlers ===

func (s *Server) handleToggleFeature(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var req service.ToggleRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, err
	}
	return s.svc.Toggle(ctx, &req)
}
