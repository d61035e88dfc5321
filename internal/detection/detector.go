package detection

import (
	"image"

	"github.com/ironsheep/captcha-tools-mcp/internal/engine"
	"github.com/ironsheep/captcha-tools-mcp/internal/errs"
	raster "github.com/ironsheep/captcha-tools-mcp/internal/imaging"
)

// Detector finds object bounding boxes with a detection model.
//
// A Detector is safe for concurrent use when its engine is; wrap shared
// engines in engine.Locked.
type Detector struct {
	engine engine.Engine
	grid   GridTable
}

// NewDetector creates a detector for a model with the standard 416×416 input.
func NewDetector(e engine.Engine) *Detector {
	return &Detector{engine: e, grid: DefaultGrid()}
}

// Detect decodes image bytes and returns the detected boxes, highest score first.
func (d *Detector) Detect(data []byte) ([]raster.BBox, error) {
	img, err := raster.Decode(data)
	if err != nil {
		return nil, err
	}
	return d.DetectImage(img)
}

// DetectImage is Detect for an already decoded image.
func (d *Detector) DetectImage(img image.Image) ([]raster.BBox, error) {
	input, gain, err := Letterbox(img)
	if err != nil {
		return nil, err
	}

	output, err := d.engine.Run(input)
	if err != nil {
		return nil, errs.Engine(err)
	}

	bounds := img.Bounds()
	return Decode(output, d.grid, gain, bounds.Dx(), bounds.Dy())
}

// Close releases the detector's engine.
func (d *Detector) Close() error {
	return d.engine.Close()
}
