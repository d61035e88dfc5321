package imaging

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/ironsheep/captcha-tools-mcp/internal/errs"
)

// DefaultDiffThreshold is the per-channel difference above which two pixels
// count as different when locating a slide gap.
const DefaultDiffThreshold = 80

// DiffResult holds a pixel difference mask and its summary.
type DiffResult struct {
	// Mask is 255 where the images differ and 0 elsewhere.
	Mask *image.Gray

	PixelsDifferent int
	TotalPixels     int
}

// Diff compares two images of identical size pixel by pixel. A pixel differs
// when the absolute difference of any of its R, G or B channels exceeds
// threshold; alpha is ignored.
//
// Images of different sizes are an errs.KindDimension error.
func Diff(a, b image.Image, threshold int) (*DiffResult, error) {
	if a.Bounds().Dx() != b.Bounds().Dx() || a.Bounds().Dy() != b.Bounds().Dy() {
		return nil, errs.Dimension("image sizes differ: %dx%d vs %dx%d",
			a.Bounds().Dx(), a.Bounds().Dy(), b.Bounds().Dx(), b.Bounds().Dy())
	}

	na, nb := imaging.Clone(a), imaging.Clone(b)
	w, h := na.Rect.Dx(), na.Rect.Dy()
	mask := image.NewGray(image.Rect(0, 0, w, h))
	result := &DiffResult{Mask: mask, TotalPixels: w * h}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := na.PixOffset(x, y)
			if absDiff(na.Pix[i], nb.Pix[i]) > threshold ||
				absDiff(na.Pix[i+1], nb.Pix[i+1]) > threshold ||
				absDiff(na.Pix[i+2], nb.Pix[i+2]) > threshold {
				mask.Pix[y*mask.Stride+x] = 255
				result.PixelsDifferent++
			}
		}
	}
	return result, nil
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
