// Package slide solves slider CAPTCHAs without a model.
//
// Match and SimpleMatch locate a puzzle piece in its background by comparing
// Canny edge maps with normalized cross-correlation. Compare finds the gap in
// a background by diffing it against the same background without the gap.
package slide

import (
	"image"

	"github.com/ironsheep/captcha-tools-mcp/internal/errs"
	raster "github.com/ironsheep/captcha-tools-mcp/internal/imaging"
)

// CompareRun is the number of differing pixels a column needs to be reported
// by Compare.
const CompareRun = 5

// Result locates a puzzle piece.
type Result struct {
	// TargetX and TargetY are the top-left corner of the piece's opaque region
	// inside the piece image. Both are 0 for SimpleMatch.
	TargetX int `json:"target_x"`
	TargetY int `json:"target_y"`

	// Target is the piece's opaque region inside the piece image.
	Target raster.BBox `json:"-"`

	// X1, Y1 is where the piece's top-left corner matches in the background
	// and X2, Y2 is that corner plus the matched template size.
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`

	// Score is the correlation at the match.
	Score float64 `json:"score"`
}

// Match finds where the opaque part of target sits in bg.
//
// The piece is cropped to its opaque bounding box (the whole piece when it is
// fully transparent) before matching. A background smaller than the piece in
// either dimension is an errs.KindDimension error.
func Match(target, bg []byte) (*Result, error) {
	t, b, err := decodePair(target, bg)
	if err != nil {
		return nil, err
	}
	return MatchImages(t, b)
}

// MatchImages is Match for already decoded images.
func MatchImages(target, bg image.Image) (*Result, error) {
	if err := fits(target, bg); err != nil {
		return nil, err
	}
	crop, box := raster.CropOpaque(target)
	result, err := locate(crop, bg)
	if err != nil {
		return nil, err
	}
	result.TargetX, result.TargetY = box.X1, box.Y1
	result.Target = box
	return result, nil
}

// SimpleMatch finds where the whole target image sits in bg, without cropping
// to its opaque region.
func SimpleMatch(target, bg []byte) (*Result, error) {
	t, b, err := decodePair(target, bg)
	if err != nil {
		return nil, err
	}
	return SimpleMatchImages(t, b)
}

// SimpleMatchImages is SimpleMatch for already decoded images.
func SimpleMatchImages(target, bg image.Image) (*Result, error) {
	if err := fits(target, bg); err != nil {
		return nil, err
	}
	result, err := locate(target, bg)
	if err != nil {
		return nil, err
	}
	result.Target = raster.BBox{X1: 0, Y1: 0, X2: target.Bounds().Dx() - 1, Y2: target.Bounds().Dy() - 1}
	return result, nil
}

// Compare locates the gap in bg by diffing it against target, the same
// background without the gap. Columns are scanned left to right and rows top
// to bottom; the first column to accumulate CompareRun differing pixels is
// reported as (x, y-CompareRun), with y floored at 0. Identical images yield
// (0, 0). Images of different sizes are an errs.KindDimension error.
func Compare(target, bg []byte) (image.Point, error) {
	t, b, err := decodePair(target, bg)
	if err != nil {
		return image.Point{}, err
	}
	return CompareImages(t, b)
}

// CompareImages is Compare for already decoded images.
func CompareImages(target, bg image.Image) (image.Point, error) {
	diff, err := raster.Diff(target, bg, raster.DefaultDiffThreshold)
	if err != nil {
		return image.Point{}, err
	}

	mask := diff.Mask
	w, h := mask.Rect.Dx(), mask.Rect.Dy()
	for x := 0; x < w; x++ {
		count := 0
		for y := 0; y < h; y++ {
			if mask.Pix[y*mask.Stride+x] != 0 {
				count++
			}
			if count >= CompareRun {
				return image.Pt(x, max(y-CompareRun, 0)), nil
			}
		}
	}
	return image.Point{}, nil
}

func locate(target, bg image.Image) (*Result, error) {
	tplEdges := raster.EdgeMap(target, raster.DefaultCannyLow, raster.DefaultCannyHigh)
	bgEdges := raster.EdgeMap(bg, raster.DefaultCannyLow, raster.DefaultCannyHigh)

	m, err := raster.MatchTemplate(bgEdges, tplEdges)
	if err != nil {
		return nil, err
	}
	return &Result{
		X1:    m.X,
		Y1:    m.Y,
		X2:    m.X + tplEdges.Rect.Dx(),
		Y2:    m.Y + tplEdges.Rect.Dy(),
		Score: m.Score,
	}, nil
}

func fits(target, bg image.Image) error {
	tb, bb := target.Bounds(), bg.Bounds()
	if bb.Dx() < tb.Dx() || bb.Dy() < tb.Dy() {
		return errs.Dimension("background %dx%d is smaller than target %dx%d", bb.Dx(), bb.Dy(), tb.Dx(), tb.Dy())
	}
	return nil
}

func decodePair(target, bg []byte) (image.Image, image.Image, error) {
	t, err := raster.Decode(target)
	if err != nil {
		return nil, nil, err
	}
	b, err := raster.Decode(bg)
	if err != nil {
		return nil, nil, err
	}
	return t, b, nil
}
