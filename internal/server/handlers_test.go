package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/ironsheep/captcha-tools-mcp/internal/errs"
	"github.com/ironsheep/captcha-tools-mcp/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Rect, &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

func encodeTestImage(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// createTestImageFile writes img as a PNG and returns its path
func createTestImageFile(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "captcha.png")
	require.NoError(t, os.WriteFile(path, encodeTestImage(t, img), 0644))
	return path
}

// callTool runs a tools/call request and returns the raw response.
func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()
	params, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	require.NoError(t, err)

	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  params,
	})
	require.NotNil(t, resp)
	return resp
}

// toolResult decodes the text content of a successful tools/call response.
func toolResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected error: %+v", resp.Error)

	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok, "Result should be a map")
	content, ok := result["content"].([]map[string]interface{})
	require.True(t, ok, "content should be a list")
	require.Len(t, content, 1)
	assert.Equal(t, "text", content[0]["type"])
	require.NoError(t, json.Unmarshal([]byte(content[0]["text"].(string)), v))
}

func toolErrorKind(t *testing.T, resp *MCPResponse) errs.Kind {
	t.Helper()
	require.NotNil(t, resp.Error, "expected an error")
	assert.Equal(t, -32000, resp.Error.Code)
	data, ok := resp.Error.Data.(ToolError)
	require.True(t, ok, "error data should be a ToolError")
	assert.NotEmpty(t, data.Error)
	return data.Kind
}

func TestHandleToolsCall_OCR(t *testing.T) {
	s := newTestServer(t)
	img := base64.StdEncoding.EncodeToString(encodeTestImage(t, testImage(32, 16, color.Black)))

	var out service.OCRResponse
	toolResult(t, callTool(t, s, "captcha_ocr", map[string]interface{}{"image": img}), &out)
	assert.Equal(t, "ab", out.Text)
	assert.Nil(t, out.Probability)
}

func TestHandleToolsCall_OCR_WithOptions(t *testing.T) {
	s := newTestServer(t)
	img := base64.StdEncoding.EncodeToString(encodeTestImage(t, testImage(32, 16, color.Black)))

	var out service.OCRResponse
	toolResult(t, callTool(t, s, "captcha_ocr", map[string]interface{}{
		"image":         img,
		"probability":   true,
		"charset_range": "a",
		"color_filter":  []string{"black"},
	}), &out)
	assert.Equal(t, "a", out.Text)
	assert.Equal(t, []string{"a", ""}, out.Charset)
	assert.Len(t, out.Probability, 2)
}

func TestHandleToolsCall_OCR_Path(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, testImage(32, 16, color.White))

	for i := 0; i < 2; i++ {
		var out service.OCRResponse
		toolResult(t, callTool(t, s, "captcha_ocr", map[string]interface{}{"path": path}), &out)
		assert.Equal(t, "ab", out.Text)
	}
	assert.Equal(t, 1, s.files.Len())
}

func TestHandleToolsCall_Detect(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, testImage(208, 104, color.NRGBA{90, 90, 90, 255}))

	var out service.DETResponse
	toolResult(t, callTool(t, s, "captcha_detect", map[string]interface{}{"path": path, "annotate": true}), &out)
	assert.Equal(t, [][4]int{{0, 0, 4, 4}}, out.BBoxes)
	assert.NotEmpty(t, out.Annotated)
}

func TestHandleToolsCall_SlideComparison(t *testing.T) {
	s := newTestServer(t)
	gapped := testImage(60, 40, color.Black)
	draw.Draw(gapped, image.Rect(20, 10, 30, 20), &image.Uniform{color.White}, image.Point{}, draw.Src)

	var out service.CompareResponse
	toolResult(t, callTool(t, s, "captcha_slide_comparison", map[string]interface{}{
		"target_path":      createTestImageFile(t, testImage(60, 40, color.Black)),
		"background_image": base64.StdEncoding.EncodeToString(encodeTestImage(t, gapped)),
	}), &out)
	assert.Equal(t, service.CompareResponse{X: 20, Y: 9}, out)
}

func TestHandleToolsCall_SlideMatch(t *testing.T) {
	s := newTestServer(t)
	bg := testImage(80, 60, color.Black)
	draw.Draw(bg, image.Rect(30, 20, 40, 30), &image.Uniform{color.White}, image.Point{}, draw.Src)
	piece := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	draw.Draw(piece, piece.Rect, bg, image.Pt(25, 15), draw.Src)

	var out service.SlideResponse
	toolResult(t, callTool(t, s, "captcha_slide_match", map[string]interface{}{
		"target_path":     createTestImageFile(t, piece),
		"background_path": createTestImageFile(t, bg),
		"simple_target":   true,
	}), &out)
	assert.Equal(t, [4]int{25, 15, 45, 35}, out.Target)
}

func TestHandleToolsCall_ToggleAndStatus(t *testing.T) {
	s := newTestServer(t)

	var status service.StatusResponse
	toolResult(t, callTool(t, s, "captcha_status", nil), &status)
	assert.Equal(t, []string{"ocr", "det", "slide"}, status.EnabledFeatures)

	toolResult(t, callTool(t, s, "captcha_toggle_feature", map[string]interface{}{"ocr": false}), &status)
	assert.Equal(t, []string{"det", "slide"}, status.EnabledFeatures)

	img := base64.StdEncoding.EncodeToString(encodeTestImage(t, testImage(32, 16, color.Black)))
	kind := toolErrorKind(t, callTool(t, s, "captcha_ocr", map[string]interface{}{"image": img}))
	assert.Equal(t, errs.KindConfiguration, kind)

	toolResult(t, callTool(t, s, "captcha_toggle_feature", map[string]interface{}{"ocr": true}), &status)
	assert.Equal(t, []string{"ocr", "det", "slide"}, status.EnabledFeatures)
}

func TestHandleToolsCall_Errors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		tool     string
		args     interface{}
		wantKind errs.Kind
	}{
		{"bad base64", "captcha_ocr", map[string]interface{}{"image": "%%%"}, errs.KindDecode},
		{"not an image", "captcha_detect", map[string]interface{}{"image": base64.StdEncoding.EncodeToString([]byte("nope"))}, errs.KindDecode},
		{"missing image", "captcha_slide_comparison", map[string]interface{}{}, errs.KindDecode},
		{"non-existent file", "captcha_ocr", map[string]interface{}{"path": "/nonexistent/captcha.png"}, ""},
		{"bad color filter", "captcha_ocr", map[string]interface{}{"image": "", "color_filter": "magenta"}, ""},
		{"unknown tool", "captcha_solve", map[string]interface{}{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind := toolErrorKind(t, callTool(t, s, tt.tool, tt.args))
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)

	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})

	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)
}

func TestHandleToolsCall_SlideDisabled(t *testing.T) {
	svc := newTestService(t, func(o *service.Options) { o.DisableSlide = true })
	s := New(svc, logs.NewTestingLog(t))

	img := base64.StdEncoding.EncodeToString(encodeTestImage(t, testImage(8, 8, color.Black)))
	kind := toolErrorKind(t, callTool(t, s, "captcha_slide_comparison", map[string]interface{}{
		"target_image":     img,
		"background_image": img,
	}))
	assert.Equal(t, errs.KindConfiguration, kind)
}
