package imaging

import (
	"image"
	"math"

	"github.com/ironsheep/captcha-tools-mcp/internal/errs"
)

// Match is the best placement of a template inside an image.
type Match struct {
	// Location of the template's top-left corner in image coordinates.
	X int `json:"x"`
	Y int `json:"y"`

	// Score is the normalized cross-correlation at the location, in [0,1]
	// for non-negative inputs.
	Score float64 `json:"score"`
}

// MatchTemplate slides tpl over img and returns the location with the highest
// normalized cross-correlation
//
//	score(x,y) = Σ I(x+i,y+j)·T(i,j) / sqrt(Σ I(x+i,y+j)² · Σ T(i,j)²)
//
// Windows with zero energy, or a template with zero energy, score 0. Ties go
// to the first maximum in row-major order.
//
// Both images must have their origin at (0,0), as produced by Luma and
// EdgeMap. A template larger than the image in either dimension is an
// errs.KindDimension error.
func MatchTemplate(img, tpl *image.Gray) (Match, error) {
	iw, ih := img.Rect.Dx(), img.Rect.Dy()
	tw, th := tpl.Rect.Dx(), tpl.Rect.Dy()
	if tw > iw || th > ih {
		return Match{}, errs.Dimension("template %dx%d is larger than image %dx%d", tw, th, iw, ih)
	}
	if tw == 0 || th == 0 {
		return Match{}, errs.Dimension("template is empty")
	}

	// Only non-zero template pixels contribute to the correlation, and edge
	// maps are mostly zero.
	type tap struct {
		dx, dy int
		v      float64
	}
	var taps []tap
	var tplEnergy float64
	for y := 0; y < th; y++ {
		row := tpl.Pix[y*tpl.Stride:]
		for x := 0; x < tw; x++ {
			if v := row[x]; v != 0 {
				f := float64(v)
				taps = append(taps, tap{dx: x, dy: y, v: f})
				tplEnergy += f * f
			}
		}
	}

	pixel := func(x, y int) float64 { return float64(img.Pix[y*img.Stride+x]) }
	energy := squaredIntegral(img)

	best := Match{Score: math.Inf(-1)}
	for y := 0; y+th <= ih; y++ {
		for x := 0; x+tw <= iw; x++ {
			score := 0.0
			if tplEnergy > 0 {
				window := energy.sum(x, y, tw, th)
				if window > 0 {
					var cross float64
					for _, t := range taps {
						cross += pixel(x+t.dx, y+t.dy) * t.v
					}
					score = cross / math.Sqrt(window*tplEnergy)
				}
			}
			if score > best.Score {
				best = Match{X: x, Y: y, Score: score}
			}
		}
	}
	return best, nil
}

// integral is a summed-area table with one row and column of zero padding.
type integral struct {
	stride int
	table  []float64
}

func squaredIntegral(img *image.Gray) integral {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	stride := w + 1
	table := make([]float64, stride*(h+1))
	for y := 0; y < h; y++ {
		var row float64
		for x := 0; x < w; x++ {
			v := float64(img.Pix[y*img.Stride+x])
			row += v * v
			table[(y+1)*stride+x+1] = table[y*stride+x+1] + row
		}
	}
	return integral{stride: stride, table: table}
}

// sum returns the total over the w×h rectangle whose top-left corner is (x,y).
func (s integral) sum(x, y, w, h int) float64 {
	a := s.table[y*s.stride+x]
	b := s.table[y*s.stride+x+w]
	c := s.table[(y+h)*s.stride+x]
	d := s.table[(y+h)*s.stride+x+w]
	return d - b - c + a
}
