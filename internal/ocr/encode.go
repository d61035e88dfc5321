package ocr

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/ironsheep/captcha-tools-mcp/internal/engine"
	"github.com/ironsheep/captcha-tools-mcp/internal/errs"
	raster "github.com/ironsheep/captcha-tools-mcp/internal/imaging"
)

// Normalization maps 8-bit channel values to model inputs as
// (v/255 - Mean[c]) / Std[c].
type Normalization struct {
	Mean [3]float32
	Std  [3]float32
}

var (
	// ReferenceNormalization is used by the bundled models on every channel.
	ReferenceNormalization = Normalization{
		Mean: [3]float32{0.5, 0.5, 0.5},
		Std:  [3]float32{0.5, 0.5, 0.5},
	}

	// CustomGrayNormalization is used by custom single-channel models.
	CustomGrayNormalization = Normalization{
		Mean: [3]float32{0.456, 0.456, 0.456},
		Std:  [3]float32{0.224, 0.224, 0.224},
	}

	// CustomRGBNormalization is used by custom three-channel models (ImageNet statistics).
	CustomRGBNormalization = Normalization{
		Mean: [3]float32{0.485, 0.456, 0.406},
		Std:  [3]float32{0.229, 0.224, 0.225},
	}
)

// NormalizationFor selects the normalization for a model from its bytes and
// input channel count.
func NormalizationFor(model []byte, channels int) Normalization {
	if !engine.IsCustom(model) {
		return ReferenceNormalization
	}
	if channels == 1 {
		return CustomGrayNormalization
	}
	return CustomRGBNormalization
}

// Apply normalizes one 8-bit value of channel c.
func (n Normalization) Apply(c int, v uint8) float32 {
	return (float32(v)/255.0 - n.Mean[c]) / n.Std[c]
}

// Encode converts an image into the (1, C, H, W) tensor a classification model
// expects.
//
// The image is resized with a Lanczos filter to the size the charset asks for.
// Single-channel models get luma; three-channel models get RGB, with fully
// transparent pixels replaced by white first when pngFix is set. The source
// image is not modified.
func Encode(img image.Image, cs *Charset, norm Normalization, pngFix bool) (engine.Tensor, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return engine.Tensor{}, errs.Dimension("cannot encode an empty %dx%d image", bounds.Dx(), bounds.Dy())
	}
	w, h, err := cs.TargetSize(bounds.Dx(), bounds.Dy())
	if err != nil {
		return engine.Tensor{}, err
	}

	resized := imaging.Resize(img, w, h, imaging.Lanczos)
	tensor := engine.NewTensor(1, int64(cs.Channel), int64(h), int64(w))
	plane := w * h

	if cs.Channel == 1 {
		// Single-channel models were trained on PIL "L" (BT.601) input.
		gray := raster.Luma(resized)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				tensor.Data[y*w+x] = norm.Apply(0, gray.Pix[y*gray.Stride+x])
			}
		}
		return tensor, nil
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := resized.PixOffset(x, y)
			r, g, b, a := resized.Pix[i], resized.Pix[i+1], resized.Pix[i+2], resized.Pix[i+3]
			if pngFix && a == 0 {
				r, g, b = 255, 255, 255
			}
			tensor.Data[y*w+x] = norm.Apply(0, r)
			tensor.Data[plane+y*w+x] = norm.Apply(1, g)
			tensor.Data[2*plane+y*w+x] = norm.Apply(2, b)
		}
	}
	return tensor, nil
}
