package imaging

import (
	"image"
	"testing"

	"github.com/ironsheep/captcha-tools-mcp/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plus draws a 5x5 plus sign with its top-left corner at (x,y).
func plus(img *image.Gray, x, y int) {
	for i := 0; i < 5; i++ {
		img.Pix[(y+2)*img.Stride+x+i] = 255
		img.Pix[(y+i)*img.Stride+x+2] = 255
	}
}

func TestMatchTemplate_FindsPattern(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 60, 40))
	plus(img, 30, 12)
	// A partial distractor.
	img.Pix[5*img.Stride+5] = 255

	tpl := image.NewGray(image.Rect(0, 0, 5, 5))
	plus(tpl, 0, 0)

	m, err := MatchTemplate(img, tpl)
	require.NoError(t, err)
	assert.Equal(t, 30, m.X)
	assert.Equal(t, 12, m.Y)
	assert.InDelta(t, 1.0, m.Score, 1e-9)
}

func TestMatchTemplate_ZeroEnergyTiesGoFirst(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	tpl := image.NewGray(image.Rect(0, 0, 3, 3))
	tpl.Pix[4] = 255

	m, err := MatchTemplate(img, tpl)
	require.NoError(t, err)
	assert.Equal(t, Match{X: 0, Y: 0, Score: 0}, m)
}

func TestMatchTemplate_SameSize(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 5, 5))
	plus(img, 0, 0)

	m, err := MatchTemplate(img, img)
	require.NoError(t, err)
	assert.Equal(t, 0, m.X)
	assert.Equal(t, 0, m.Y)
	assert.InDelta(t, 1.0, m.Score, 1e-9)
}

func TestMatchTemplate_TooLarge(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	tests := []image.Rectangle{
		image.Rect(0, 0, 11, 5),
		image.Rect(0, 0, 5, 11),
	}
	for _, r := range tests {
		_, err := MatchTemplate(img, image.NewGray(r))
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.KindDimension))
	}
}

func TestSquaredIntegral(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	copy(img.Pix, []uint8{1, 2, 3, 4, 5, 6})

	s := squaredIntegral(img)
	assert.Equal(t, 91.0, s.sum(0, 0, 3, 2))
	assert.Equal(t, 4.0+9.0+25.0+36.0, s.sum(1, 0, 2, 2))
	assert.Equal(t, 25.0, s.sum(1, 1, 1, 1))
}
