package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
)

// Canny thresholds used by the slide matcher.
const (
	DefaultCannyLow  = 100.0
	DefaultCannyHigh = 200.0
)

// blurRadius gives bild a 3-tap kernel with sigma close to 1.4.
const blurRadius = 1.0

// Luma converts img to an opaque 8-bit grayscale image using BT.601 weights.
// Alpha is discarded; the result has its origin at (0,0).
func Luma(img image.Image) *image.Gray {
	// BT.601 matches PIL's "L" conversion, which the models expect; Rec.709
	// luma differs by a level or two per pixel.
	g := imaging.Grayscale(img)
	bounds := g.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			out.Pix[y*out.Stride+x] = g.Pix[g.PixOffset(x+bounds.Min.X, y+bounds.Min.Y)]
		}
	}
	return out
}

// EdgeMap computes a binary Canny edge map of img.
//
// Edge pixels are 255 and everything else is 0. Thresholds apply to the raw
// Sobel gradient magnitude of the 0-255 luma channel.
//
// # Algorithm
//
//  1. Grayscale conversion with BT.601 weights
//  2. Gaussian blur to reduce noise
//  3. Sobel gradients, magnitude = sqrt(Gx² + Gy²)
//  4. Non-maximum suppression along the quantized gradient direction
//  5. Hysteresis: pixels >= high seed edges, pixels >= low that are
//     8-connected to a seed through other such pixels are kept
func EdgeMap(img image.Image, low, high float64) *image.Gray {
	gray := Luma(img)
	width, height := gray.Rect.Dx(), gray.Rect.Dy()
	result := image.NewGray(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return result
	}

	blurred := blur.Gaussian(gray, blurRadius)
	smooth := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			smooth[y*width+x] = float64(blurred.Pix[blurred.PixOffset(x, y)])
		}
	}

	magnitude, direction := sobel(smooth, width, height)
	suppressed := suppress(magnitude, direction, width, height)
	hysteresis(suppressed, result, width, height, low, high)
	return result
}

// sobel returns the gradient magnitude and direction of a row-major plane.
// Borders use replicated edge values.
func sobel(plane []float64, width, height int) ([]float64, []float64) {
	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	magnitude := make([]float64, width*height)
	direction := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := plane[clamp(y+ky, 0, height-1)*width+clamp(x+kx, 0, width-1)]
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y*width+x] = math.Sqrt(gx*gx + gy*gy)
			direction[y*width+x] = math.Atan2(gy, gx)
		}
	}
	return magnitude, direction
}

// suppress thins edges to one pixel by keeping only local maxima along the
// gradient direction. The outermost ring is always zero.
func suppress(magnitude, direction []float64, width, height int) []float64 {
	out := make([]float64, width*height)
	at := func(x, y int) float64 { return magnitude[y*width+x] }

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			angle := direction[y*width+x]
			mag := at(x, y)

			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1, n2 = at(x-1, y), at(x+1, y)
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1, n2 = at(x+1, y-1), at(x-1, y+1)
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1, n2 = at(x, y-1), at(x, y+1)
			default:
				n1, n2 = at(x-1, y-1), at(x+1, y+1)
			}

			if mag >= n1 && mag >= n2 {
				out[y*width+x] = mag
			}
		}
	}
	return out
}

// hysteresis marks strong pixels and flood-fills through weak pixels
// 8-connected to them.
func hysteresis(suppressed []float64, result *image.Gray, width, height int, low, high float64) {
	stack := make([]int, 0, 64)
	for i, v := range suppressed {
		if v >= high && result.Pix[i] == 0 {
			result.Pix[i] = 255
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			px, py := p%width, p/width
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := px+dx, py+dy
					if nx < 0 || ny < 0 || nx >= width || ny >= height {
						continue
					}
					n := ny*width + nx
					if result.Pix[n] == 0 && suppressed[n] >= low && suppressed[n] > 0 {
						result.Pix[n] = 255
						stack = append(stack, n)
					}
				}
			}
		}
	}
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
