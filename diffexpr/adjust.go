package diffexpr

import (
	"math"
	"sort"
)

// AdjustBH returns Benjamini-Hochberg adjusted p-values. NaN entries stay NaN
// and are not counted as tests.
func AdjustBH(p []float64) []float64 {
	out := make([]float64, len(p))
	idx := make([]int, 0, len(p))
	for i, v := range p {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		idx = append(idx, i)
	}

	sort.SliceStable(idx, func(a, b int) bool { return p[idx[a]] < p[idx[b]] })

	n := float64(len(idx))
	running := 1.0
	for rank := len(idx) - 1; rank >= 0; rank-- {
		i := idx[rank]
		adj := p[i] * n / float64(rank+1)
		if adj < running {
			running = adj
		}
		out[i] = running
	}

	return out
}
