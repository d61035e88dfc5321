package detection

import "sync"

// InputSize is the width and height of the detector input.
const InputSize = 416

// Strides are the downsampling factors of the three detection heads.
var Strides = []int{8, 16, 32}

// GridCell locates one output row on its head's grid.
type GridCell struct {
	X      int
	Y      int
	Stride int
}

// GridTable maps output rows to grid cells, head by head in stride order and
// row-major within a head.
type GridTable []GridCell

// NewGridTable builds the table for a width×height input.
func NewGridTable(width, height int, strides ...int) GridTable {
	var table GridTable
	for _, stride := range strides {
		hsize, wsize := height/stride, width/stride
		for y := 0; y < hsize; y++ {
			for x := 0; x < wsize; x++ {
				table = append(table, GridCell{X: x, Y: y, Stride: stride})
			}
		}
	}
	return table
}

// DefaultGrid returns the shared table for the 416×416 input. It is built once.
var DefaultGrid = sync.OnceValue(func() GridTable {
	return NewGridTable(InputSize, InputSize, Strides...)
})
