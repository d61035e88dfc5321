package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBBox_Dimensions(t *testing.T) {
	b := BBox{X1: 2, Y1: 3, X2: 6, Y2: 7}
	assert.Equal(t, 5, b.Width())
	assert.Equal(t, 5, b.Height())
	assert.Equal(t, image.Rect(2, 3, 7, 8), b.Rect())
}

func TestOpaqueBounds(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	img.SetNRGBA(2, 3, color.NRGBA{255, 0, 0, 1})
	img.SetNRGBA(6, 7, color.NRGBA{0, 0, 0, 255})

	box, ok := OpaqueBounds(img)
	require.True(t, ok)
	assert.Equal(t, BBox{X1: 2, Y1: 3, X2: 6, Y2: 7}, box)
}

func TestOpaqueBounds_FullyTransparent(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))

	box, ok := OpaqueBounds(img)
	assert.False(t, ok)
	assert.Equal(t, BBox{X1: 0, Y1: 0, X2: 7, Y2: 3}, box)
}

func TestCropOpaque(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	for y := 4; y < 9; y++ {
		for x := 10; x < 13; x++ {
			img.SetNRGBA(x, y, color.NRGBA{0, 200, 0, 255})
		}
	}

	cropped, box := CropOpaque(img)
	assert.Equal(t, BBox{X1: 10, Y1: 4, X2: 12, Y2: 8}, box)
	assert.Equal(t, 3, cropped.Rect.Dx())
	assert.Equal(t, 5, cropped.Rect.Dy())
	assert.Equal(t, color.NRGBA{0, 200, 0, 255}, cropped.NRGBAAt(0, 0))
}

func TestCrop_OffsetOrigin(t *testing.T) {
	img := image.NewNRGBA(image.Rect(100, 100, 110, 110))
	img.SetNRGBA(101, 102, color.NRGBA{1, 2, 3, 255})

	cropped, err := Crop(img, BBox{X1: 1, Y1: 2, X2: 3, Y2: 4})
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{1, 2, 3, 255}, cropped.NRGBAAt(0, 0))
}

func TestCrop_Invalid(t *testing.T) {
	img := solidImage(10, 10, color.White)
	tests := []struct {
		name string
		box  BBox
	}{
		{"negative", BBox{X1: -1, Y1: 0, X2: 3, Y2: 3}},
		{"past right", BBox{X1: 0, Y1: 0, X2: 10, Y2: 3}},
		{"past bottom", BBox{X1: 0, Y1: 0, X2: 3, Y2: 10}},
		{"inverted", BBox{X1: 5, Y1: 5, X2: 4, Y2: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Crop(img, tt.box)
			require.Error(t, err)
		})
	}
}
