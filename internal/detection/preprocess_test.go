package detection

import (
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/captcha-tools-mcp/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestLetterbox(t *testing.T) {
	tensor, gain, err := Letterbox(solid(208, 104, color.NRGBA{255, 0, 10, 255}))
	require.NoError(t, err)

	assert.Equal(t, float32(2), gain)
	assert.Equal(t, []int64{1, 3, InputSize, InputSize}, tensor.Shape)

	plane := InputSize * InputSize
	at := func(c, x, y int) float32 { return tensor.Data[c*plane+y*InputSize+x] }

	// Inside the scaled image.
	assert.Equal(t, float32(255), at(0, 10, 10))
	assert.Equal(t, float32(0), at(1, 415, 207))
	assert.Equal(t, float32(10), at(2, 200, 100))

	// Padding below it.
	for c := 0; c < 3; c++ {
		assert.Equal(t, float32(PadValue), at(c, 0, 208))
		assert.Equal(t, float32(PadValue), at(c, 415, 415))
	}
}

func TestLetterbox_TallImage(t *testing.T) {
	tensor, gain, err := Letterbox(solid(10, 832, color.NRGBA{0, 0, 0, 255}))
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), gain)

	// 10 * 0.5 = 5 columns of image, then padding.
	assert.Equal(t, float32(0), tensor.Data[4])
	assert.Equal(t, float32(PadValue), tensor.Data[5])
}

func TestLetterbox_Empty(t *testing.T) {
	_, _, err := Letterbox(image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindDimension))
}
