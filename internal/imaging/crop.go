package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// BBox is an axis-aligned box with inclusive corners: (X1,Y1) is the top-left
// pixel and (X2,Y2) the bottom-right pixel.
type BBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Width returns the number of pixel columns covered by the box.
func (b BBox) Width() int { return b.X2 - b.X1 + 1 }

// Height returns the number of pixel rows covered by the box.
func (b BBox) Height() int { return b.Y2 - b.Y1 + 1 }

// Rect converts the box to a half-open image.Rectangle.
func (b BBox) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2+1, b.Y2+1)
}

// OpaqueBounds returns the smallest box containing every pixel whose alpha is
// non-zero, in coordinates relative to the image's top-left corner.
//
// When no pixel is opaque the box covers the whole image and ok is false.
func OpaqueBounds(img image.Image) (box BBox, ok bool) {
	src := imaging.Clone(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	minX, minY, maxX, maxY := w, h, -1, -1

	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			if row[x*4+3] == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if maxX < 0 {
		return BBox{X1: 0, Y1: 0, X2: w - 1, Y2: h - 1}, false
	}
	return BBox{X1: minX, Y1: minY, X2: maxX, Y2: maxY}, true
}

// CropOpaque crops img to its opaque bounding box and returns the crop with
// the box it was cut from. A fully transparent image is returned whole.
func CropOpaque(img image.Image) (*image.NRGBA, BBox) {
	box, _ := OpaqueBounds(img)
	cropped, err := Crop(img, box)
	if err != nil {
		// OpaqueBounds always lies inside the image.
		return imaging.Clone(img), box
	}
	return cropped, box
}

// Crop extracts the pixels covered by box. The box is relative to the image's
// top-left corner and must lie inside it.
func Crop(img image.Image, box BBox) (*image.NRGBA, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if box.X1 < 0 || box.Y1 < 0 || box.X2 >= w || box.Y2 >= h {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds %dx%d",
			box.X1, box.Y1, box.X2, box.Y2, w, h)
	}
	if box.X1 > box.X2 || box.Y1 > box.Y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be <= x2, y1 must be <= y2")
	}

	return imaging.Crop(img, box.Rect().Add(bounds.Min)), nil
}
