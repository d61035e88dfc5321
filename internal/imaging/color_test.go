package imaging

import (
	"encoding/json"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHSV(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    HSV
	}{
		{"red", 255, 0, 0, HSV{0, 255, 255}},
		{"green", 0, 255, 0, HSV{60, 255, 255}},
		{"blue", 0, 0, 255, HSV{120, 255, 255}},
		{"magenta", 255, 0, 255, HSV{150, 255, 255}},
		{"orange", 255, 128, 0, HSV{15, 255, 255}},
		{"white", 255, 255, 255, HSV{0, 0, 255}},
		{"black", 0, 0, 0, HSV{0, 0, 0}},
		{"mid gray", 128, 128, 128, HSV{0, 0, 128}},
		{"dark red", 128, 0, 0, HSV{0, 255, 128}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToHSV(tt.r, tt.g, tt.b))
		})
	}
}

func TestHSVRange_ContainsInclusive(t *testing.T) {
	r := HSVRange{Lower: HSV{10, 10, 10}, Upper: HSV{20, 20, 20}}

	assert.True(t, r.Contains(HSV{10, 10, 10}))
	assert.True(t, r.Contains(HSV{20, 20, 20}))
	assert.True(t, r.Contains(HSV{15, 10, 20}))
	assert.False(t, r.Contains(HSV{21, 15, 15}))
	assert.False(t, r.Contains(HSV{15, 9, 15}))
	assert.False(t, r.Contains(HSV{15, 15, 21}))
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("  ReD ")
	require.NoError(t, err)
	assert.Equal(t, Red, c)
	assert.Len(t, c.Ranges(), 2)

	for i, name := range colorNames {
		got, err := ParseColor(name)
		require.NoError(t, err)
		assert.Equal(t, Color(i), got)
		assert.Equal(t, name, got.String())
		assert.NotEmpty(t, got.Ranges())
	}

	_, err = ParseColor("magenta")
	require.Error(t, err)
}

func TestColorFilter_Apply(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	img.SetNRGBA(1, 0, color.NRGBA{0, 0, 255, 255})
	img.SetNRGBA(2, 0, color.NRGBA{200, 10, 10, 0})

	out := NewColorFilter(Red).Apply(img)

	require.Equal(t, img.Rect, out.Rect)
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, out.NRGBAAt(1, 0))
	// Alpha is ignored: a transparent red pixel is kept and comes out opaque.
	assert.Equal(t, color.NRGBA{200, 10, 10, 255}, out.NRGBAAt(2, 0))

	// The source is untouched.
	assert.Equal(t, color.NRGBA{0, 0, 255, 255}, img.NRGBAAt(1, 0))
}

func TestColorFilter_Idempotent(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 16), uint8(y * 16), uint8((x + y) * 8), 255})
		}
	}

	filters := []ColorFilter{
		NewColorFilter(Red),
		NewColorFilter(Blue, Green),
		NewColorFilter(White),
		NewRangeFilter(HSVRange{Lower: HSV{0, 0, 0}, Upper: HSV{90, 255, 255}}),
	}
	for _, f := range filters {
		once := f.Apply(img)
		twice := f.Apply(once)
		assert.Equal(t, once.Pix, twice.Pix)
	}
}

func TestColorFilter_EmptyKeepsNothing(t *testing.T) {
	img := solidImage(4, 4, color.NRGBA{12, 34, 56, 255})
	out := ColorFilter{}.Apply(img)
	for i := 0; i < len(out.Pix); i++ {
		assert.Equal(t, uint8(255), out.Pix[i])
	}
}

func TestColorFilter_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		ranges int
	}{
		{"single name", `"red"`, 2},
		{"name list", `["red", "BLUE"]`, 3},
		{"explicit ranges", `[[[0, 0, 0], [10, 10, 10]]]`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f ColorFilter
			require.NoError(t, json.Unmarshal([]byte(tt.input), &f))
			assert.Len(t, f.Ranges(), tt.ranges)
		})
	}

	var f ColorFilter
	require.Error(t, json.Unmarshal([]byte(`"magenta"`), &f))
	require.Error(t, json.Unmarshal([]byte(`42`), &f))
}

func TestColorFilter_MarshalJSON(t *testing.T) {
	f := NewRangeFilter(HSVRange{Lower: HSV{1, 2, 3}, Upper: HSV{4, 5, 6}})
	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `[[[1,2,3],[4,5,6]]]`, string(data))
}

func TestColorFilter_FilterBytes(t *testing.T) {
	data := encodePNG(t, solidImage(2, 2, color.NRGBA{0, 255, 0, 255}))

	out, err := NewColorFilter(Green).FilterBytes(data)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0, 255, 0, 255}, out.NRGBAAt(1, 1))

	_, err = NewColorFilter(Green).FilterBytes([]byte("nope"))
	require.Error(t, err)
}
