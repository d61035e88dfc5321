package service

import (
	"encoding/base64"
	"strings"

	"github.com/ironsheep/captcha-tools-mcp/internal/errs"
	raster "github.com/ironsheep/captcha-tools-mcp/internal/imaging"
	"github.com/ironsheep/captcha-tools-mcp/internal/ocr"
)

// Feature names reported by Status.
const (
	FeatureOCR   = "ocr"
	FeatureDet   = "det"
	FeatureSlide = "slide"
)

// OCRRequest asks for the text in a captcha image.
type OCRRequest struct {
	// Image is the base64-encoded image. ImageData, when set, is used instead.
	Image     string `json:"image"`
	ImageData []byte `json:"-"`

	// PNGFix paints fully transparent pixels white (RGB models only).
	PNGFix bool `json:"png_fix,omitempty"`

	// Probability asks for the per-position probability rows.
	Probability bool `json:"probability,omitempty"`

	// CharsetRange restricts the vocabulary for this call: a preset 0-7, a
	// string of characters or a list of tokens.
	CharsetRange *ocr.Range `json:"charset_range,omitempty"`

	// ColorFilter keeps only the given colors before recognition.
	ColorFilter *raster.ColorFilter `json:"color_filter,omitempty"`
}

// OCRResponse carries the recognized text. Probability and Charset are only
// filled when requested; Charset names the probability columns.
type OCRResponse struct {
	Text        string      `json:"text"`
	Probability [][]float32 `json:"probability,omitempty"`
	Charset     []string    `json:"charset,omitempty"`
}

// DETRequest asks for the object boxes in an image.
type DETRequest struct {
	Image     string `json:"image"`
	ImageData []byte `json:"-"`

	// Annotate asks for a PNG of the input with the boxes drawn on it.
	Annotate bool `json:"annotate,omitempty"`
}

// DETResponse lists boxes as [x1, y1, x2, y2], highest score first.
type DETResponse struct {
	BBoxes    [][4]int `json:"bboxes"`
	Annotated string   `json:"annotated,omitempty"`
}

// SlideRequest locates a puzzle piece in a background.
type SlideRequest struct {
	TargetImage     string `json:"target_image"`
	BackgroundImage string `json:"background_image"`
	TargetData      []byte `json:"-"`
	BackgroundData  []byte `json:"-"`

	// SimpleTarget matches the whole piece image without cropping to its
	// opaque region.
	SimpleTarget bool `json:"simple_target,omitempty"`
}

// SlideResponse gives the match as [x1, y1, x2, y2] in the background and the
// piece's opaque offset inside its own image.
type SlideResponse struct {
	Target  [4]int `json:"target"`
	TargetX int    `json:"target_x"`
	TargetY int    `json:"target_y"`
}

// CompareRequest locates the gap by comparing a background with and without it.
type CompareRequest struct {
	TargetImage     string `json:"target_image"`
	BackgroundImage string `json:"background_image"`
	TargetData      []byte `json:"-"`
	BackgroundData  []byte `json:"-"`
}

// CompareResponse is the top-left corner of the gap.
type CompareResponse struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ToggleRequest enables or disables features. Nil fields are left alone.
type ToggleRequest struct {
	OCR   *bool `json:"ocr,omitempty"`
	Det   *bool `json:"det,omitempty"`
	Slide *bool `json:"slide,omitempty"`
}

// StatusResponse reports which features are enabled.
type StatusResponse struct {
	ServiceStatus   string   `json:"service_status"`
	EnabledFeatures []string `json:"enabled_features"`
}

// imageBytes returns raw when set and otherwise decodes b64. A data URL
// prefix ("data:image/png;base64,") is accepted.
func imageBytes(name, b64 string, raw []byte) ([]byte, error) {
	if raw != nil {
		return raw, nil
	}
	if i := strings.Index(b64, ";base64,"); i >= 0 && strings.HasPrefix(b64, "data:") {
		b64 = b64[i+len(";base64,"):]
	}
	if b64 == "" {
		return nil, &errs.Error{Kind: errs.KindDecode, Message: name + " is required"}
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, &errs.Error{Kind: errs.KindDecode, Message: name + ": base64 decode failed", Cause: err}
	}
	return data, nil
}
