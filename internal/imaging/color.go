package imaging

import (
	"encoding/json"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// HSV is a color in 8-bit HSV space.
//
//   - H: hue, 0-180 (degrees halved so it fits a byte)
//   - S: saturation, 0-255
//   - V: value, 0-255
type HSV struct {
	H uint8
	S uint8
	V uint8
}

// MarshalJSON encodes the color as [h, s, v].
func (c HSV) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]uint8{c.H, c.S, c.V})
}

// UnmarshalJSON decodes the color from [h, s, v].
func (c *HSV) UnmarshalJSON(data []byte) error {
	var v [3]uint8
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("hsv must be [h, s, v]: %w", err)
	}
	*c = HSV{H: v[0], S: v[1], V: v[2]}
	return nil
}

// HSVRange is a box in HSV space. Both bounds are inclusive.
type HSVRange struct {
	Lower HSV
	Upper HSV
}

// Contains reports whether c lies inside the range on all three channels.
func (r HSVRange) Contains(c HSV) bool {
	return c.H >= r.Lower.H && c.H <= r.Upper.H &&
		c.S >= r.Lower.S && c.S <= r.Upper.S &&
		c.V >= r.Lower.V && c.V <= r.Upper.V
}

// MarshalJSON encodes the range as [[h, s, v], [h, s, v]].
func (r HSVRange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]HSV{r.Lower, r.Upper})
}

// UnmarshalJSON decodes the range from [[h, s, v], [h, s, v]].
func (r *HSVRange) UnmarshalJSON(data []byte) error {
	var v [2]HSV
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = HSVRange{Lower: v[0], Upper: v[1]}
	return nil
}

// Color is a named color with predefined HSV ranges.
type Color int

const (
	Red Color = iota
	Blue
	Green
	Yellow
	Orange
	Purple
	Cyan
	Black
	White
	Gray
)

var colorNames = [...]string{"red", "blue", "green", "yellow", "orange", "purple", "cyan", "black", "white", "gray"}

// Red wraps around the hue circle, so it needs two ranges.
var colorRanges = [...][]HSVRange{
	Red:    {{HSV{0, 50, 50}, HSV{10, 255, 255}}, {HSV{170, 50, 50}, HSV{180, 255, 255}}},
	Blue:   {{HSV{100, 50, 50}, HSV{140, 255, 255}}},
	Green:  {{HSV{40, 50, 50}, HSV{80, 255, 255}}},
	Yellow: {{HSV{20, 50, 50}, HSV{40, 255, 255}}},
	Orange: {{HSV{10, 50, 50}, HSV{20, 255, 255}}},
	Purple: {{HSV{140, 50, 50}, HSV{170, 255, 255}}},
	Cyan:   {{HSV{80, 50, 50}, HSV{100, 255, 255}}},
	Black:  {{HSV{0, 0, 0}, HSV{180, 255, 30}}},
	White:  {{HSV{0, 0, 200}, HSV{180, 30, 255}}},
	Gray:   {{HSV{0, 0, 30}, HSV{180, 30, 200}}},
}

// ParseColor looks up a color by name, ignoring case.
func ParseColor(name string) (Color, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for i, n := range colorNames {
		if n == lower {
			return Color(i), nil
		}
	}
	return 0, fmt.Errorf("unknown color: %s", name)
}

func (c Color) String() string {
	if c < 0 || int(c) >= len(colorNames) {
		return fmt.Sprintf("Color(%d)", int(c))
	}
	return colorNames[c]
}

// Ranges returns the HSV ranges that make up the color.
func (c Color) Ranges() []HSVRange {
	if c < 0 || int(c) >= len(colorRanges) {
		return nil
	}
	return append([]HSVRange(nil), colorRanges[c]...)
}

func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Color) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseColor(name)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ColorFilter isolates the pixels of an image that fall inside a set of HSV ranges.
//
// A filter is built from explicit ranges, from a list of named colors, or from a
// single named color. Its JSON form matches those three shapes:
//
//	[[[0, 50, 50], [10, 255, 255]], [[170, 50, 50], [180, 255, 255]]]
//	["red", "blue"]
//	"red"
type ColorFilter struct {
	ranges []HSVRange
}

// NewRangeFilter builds a filter from explicit HSV ranges.
func NewRangeFilter(ranges ...HSVRange) ColorFilter {
	return ColorFilter{ranges: append([]HSVRange(nil), ranges...)}
}

// NewColorFilter builds a filter from named colors.
func NewColorFilter(colors ...Color) ColorFilter {
	var ranges []HSVRange
	for _, c := range colors {
		ranges = append(ranges, c.Ranges()...)
	}
	return ColorFilter{ranges: ranges}
}

// Ranges returns a copy of the filter's HSV ranges.
func (f ColorFilter) Ranges() []HSVRange {
	return append([]HSVRange(nil), f.ranges...)
}

func (f ColorFilter) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.ranges)
}

func (f *ColorFilter) UnmarshalJSON(data []byte) error {
	var single Color
	if err := json.Unmarshal(data, &single); err == nil {
		*f = NewColorFilter(single)
		return nil
	}

	var names []Color
	if err := json.Unmarshal(data, &names); err == nil {
		*f = NewColorFilter(names...)
		return nil
	}

	var ranges []HSVRange
	if err := json.Unmarshal(data, &ranges); err != nil {
		return fmt.Errorf("color filter must be a color name, a list of color names, or a list of [[h,s,v],[h,s,v]] ranges")
	}
	*f = NewRangeFilter(ranges...)
	return nil
}

// ToHSV converts an 8-bit RGB color to 8-bit HSV.
//
// Hue is halved and every channel is rounded half-up and clamped to its range.
// Achromatic colors (max == min) get hue 0.
func ToHSV(r, g, b uint8) HSV {
	c := colorful.Color{R: float64(r) / 255.0, G: float64(g) / 255.0, B: float64(b) / 255.0}
	h, s, v := c.Hsv()
	return HSV{
		H: quantize(h/2.0, 180),
		S: quantize(s*255.0, 255),
		V: quantize(v*255.0, 255),
	}
}

func quantize(v, max float64) uint8 {
	v = math.Round(v)
	if v > max {
		v = max
	}
	if v < 0 {
		v = 0
	}
	return uint8(v)
}

// Apply returns a copy of img in which every pixel outside all of the filter's
// ranges is replaced with opaque white. Kept pixels retain their RGB values.
// Alpha is ignored when matching and the result is fully opaque.
// The result has the same dimensions as img and its origin at (0,0).
func (f ColorFilter) Apply(img image.Image) *image.NRGBA {
	src := imaging.Clone(img)
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			i := src.PixOffset(x, y)
			r, g, b := src.Pix[i], src.Pix[i+1], src.Pix[i+2]
			if !f.keeps(ToHSV(r, g, b)) {
				r, g, b = 255, 255, 255
			}
			dst.Pix[i] = r
			dst.Pix[i+1] = g
			dst.Pix[i+2] = b
			dst.Pix[i+3] = 255
		}
	}
	return dst
}

// FilterBytes decodes image bytes and applies the filter.
func (f ColorFilter) FilterBytes(data []byte) (*image.NRGBA, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return f.Apply(img), nil
}

func (f ColorFilter) keeps(c HSV) bool {
	for _, r := range f.ranges {
		if r.Contains(c) {
			return true
		}
	}
	return false
}
