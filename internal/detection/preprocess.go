package detection

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/ironsheep/captcha-tools-mcp/internal/engine"
	"github.com/ironsheep/captcha-tools-mcp/internal/errs"
)

// PadValue fills the part of the canvas the image does not cover.
const PadValue = 114

// Letterbox scales img into the detector input and returns the (1, 3, 416,
// 416) tensor with the gain that was applied.
func Letterbox(img image.Image) (engine.Tensor, float32, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return engine.Tensor{}, 0, errs.Dimension("cannot letterbox an empty %dx%d image", w, h)
	}

	gain := min(float32(InputSize)/float32(w), float32(InputSize)/float32(h))
	rw, rh := int(float32(w)*gain), int(float32(h)*gain)
	rw = max(1, min(rw, InputSize))
	rh = max(1, min(rh, InputSize))

	resized := imaging.Resize(img, rw, rh, imaging.Linear)
	canvas := imaging.New(InputSize, InputSize, color.NRGBA{PadValue, PadValue, PadValue, 255})
	canvas = imaging.Paste(canvas, resized, image.Pt(0, 0))

	tensor := engine.NewTensor(1, 3, InputSize, InputSize)
	plane := InputSize * InputSize
	for y := 0; y < InputSize; y++ {
		for x := 0; x < InputSize; x++ {
			i := canvas.PixOffset(x, y)
			o := y*InputSize + x
			tensor.Data[o] = float32(canvas.Pix[i])
			tensor.Data[plane+o] = float32(canvas.Pix[i+1])
			tensor.Data[2*plane+o] = float32(canvas.Pix[i+2])
		}
	}
	return tensor, gain, nil
}
