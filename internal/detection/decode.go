package detection

import (
	"github.com/chewxy/math32"
	"github.com/ironsheep/captcha-tools-mcp/internal/engine"
	"github.com/ironsheep/captcha-tools-mcp/internal/errs"
	raster "github.com/ironsheep/captcha-tools-mcp/internal/imaging"
)

const (
	// ScoreThreshold drops rows whose objectness × class score is below it.
	ScoreThreshold float32 = 0.1

	// NMSThreshold suppresses boxes overlapping a kept box by more than this IoU.
	NMSThreshold float32 = 0.45

	rowWidth = 6
)

// Candidate is a decoded box in original image coordinates before clamping.
type Candidate struct {
	Score float32
	X1    float32
	Y1    float32
	X2    float32
	Y2    float32
}

// Candidates decodes the rows of a (1, N, 6) or (N, 6) detector output. N must
// match the grid table. Rows below ScoreThreshold are dropped.
func Candidates(out engine.Tensor, grid GridTable, gain float32) ([]Candidate, error) {
	shape := out.Shape
	if len(shape) == 3 && shape[0] == 1 {
		shape = shape[1:]
	}
	if len(shape) != 2 || shape[1] != rowWidth {
		return nil, errs.Shape("detection output must be (1, N, %d), got %v", rowWidth, out.Shape)
	}
	if int(shape[0]) != len(grid) {
		return nil, errs.Shape("detection output has %d rows, grid has %d", shape[0], len(grid))
	}
	if err := out.Validate(); err != nil {
		return nil, errs.Shape("%v", err)
	}

	var candidates []Candidate
	for i, cell := range grid {
		row := out.Data[i*rowWidth : (i+1)*rowWidth]
		score := row[4] * row[5]
		if !(score >= ScoreThreshold) {
			continue
		}
		stride := float32(cell.Stride)
		cx := (row[0] + float32(cell.X)) * stride
		cy := (row[1] + float32(cell.Y)) * stride
		w := math32.Exp(row[2]) * stride
		h := math32.Exp(row[3]) * stride

		candidates = append(candidates, Candidate{
			Score: score,
			X1:    (cx - w/2) / gain,
			Y1:    (cy - h/2) / gain,
			X2:    (cx + w/2) / gain,
			Y2:    (cy + h/2) / gain,
		})
	}
	return candidates, nil
}

// Decode turns a detector output into clamped boxes for a width×height image.
//
// Suppression runs on the unclamped candidates and clamping comes last, so
// two kept boxes that lay apart outside the frame can clamp onto the same
// edge and overlap in the result.
func Decode(out engine.Tensor, grid GridTable, gain float32, width, height int) ([]raster.BBox, error) {
	candidates, err := Candidates(out, grid, gain)
	if err != nil {
		return nil, err
	}
	kept := NMS(candidates, NMSThreshold)

	boxes := make([]raster.BBox, len(kept))
	for i, c := range kept {
		boxes[i] = Clamp(c, width, height)
	}
	return boxes, nil
}

// Clamp limits a candidate to [0, width-1]×[0, height-1] and truncates it to
// integer corners.
func Clamp(c Candidate, width, height int) raster.BBox {
	maxX, maxY := float32(width-1), float32(height-1)
	clamp := func(v, hi float32) int {
		return int(math32.Min(math32.Max(v, 0), hi))
	}
	return raster.BBox{
		X1: clamp(c.X1, maxX),
		Y1: clamp(c.Y1, maxY),
		X2: clamp(c.X2, maxX),
		Y2: clamp(c.Y2, maxY),
	}
}
