package detection

import (
	"sort"

	"github.com/chewxy/math32"
)

// IoU is the intersection over union of two boxes under the "+1" pixel
// convention.
func IoU(a, b Candidate) float32 {
	w := math32.Max(math32.Min(a.X2, b.X2)-math32.Max(a.X1, b.X1)+1, 0)
	h := math32.Max(math32.Min(a.Y2, b.Y2)-math32.Max(a.Y1, b.Y1)+1, 0)
	inter := w * h
	areaA := (a.X2 - a.X1 + 1) * (a.Y2 - a.Y1 + 1)
	areaB := (b.X2 - b.X1 + 1) * (b.Y2 - b.Y1 + 1)
	return inter / (areaA + areaB - inter)
}

// NMS performs greedy non-maximum suppression. Candidates are visited in
// descending score order (ties keep their input order); a candidate is kept
// unless its IoU with an already kept candidate exceeds threshold. The input
// slice is not modified.
func NMS(candidates []Candidate, threshold float32) []Candidate {
	sorted := append([]Candidate(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	var kept []Candidate
	for _, c := range sorted {
		suppressed := false
		for _, k := range kept {
			if !(IoU(k, c) <= threshold) {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, c)
		}
	}
	return kept
}
