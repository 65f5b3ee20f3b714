package extract

import (
	"math"
	"sort"
	"strings"

	"github.com/ivlev/screenlens/internal/ocr"
)

const (
	columnSplit = 35.0
	columnFuse  = 20.0
	rowSplit    = 14.0
)

// Reconstruct places words into a grid by clustering left edges into
// columns and vertical centers into rows. Words sharing a cell are joined
// with a space in input order.
func Reconstruct(words []ocr.Word) [][]string {
	if len(words) == 0 {
		return [][]string{}
	}

	lefts := make([]float64, len(words))
	centers := make([]float64, len(words))
	for i, w := range words {
		lefts[i] = float64(w.BBox.X)
		_, centers[i] = w.BBox.Center()
	}

	cols := columnAnchors(lefts)
	rows := cluster(centers, rowSplit)

	grid := make([][]string, max(1, len(rows)))
	for r := range grid {
		grid[r] = make([]string, max(1, len(cols)))
	}

	for i, w := range words {
		r, c := nearest(rows, centers[i]), nearest(cols, lefts[i])
		if grid[r][c] == "" {
			grid[r][c] = w.Text
		} else {
			grid[r][c] += " " + w.Text
		}
	}

	for _, row := range grid {
		for c := range row {
			row[c] = strings.TrimSpace(row[c])
		}
	}
	return grid
}

func columnAnchors(lefts []float64) []float64 {
	return fuse(cluster(lefts, columnSplit), columnFuse)
}

// fuse averages adjacent anchors closer than gap.
func fuse(anchors []float64, gap float64) []float64 {
	if len(anchors) == 0 {
		return anchors
	}

	fused := []float64{anchors[0]}
	for _, a := range anchors[1:] {
		last := &fused[len(fused)-1]
		if math.Abs(a-*last) < gap {
			*last = (*last + a) / 2
		} else {
			fused = append(fused, a)
		}
	}
	return fused
}

// cluster sorts values and groups them; each anchor is the running mean
// of its group, and a value farther than split from it opens a new group.
func cluster(values []float64, split float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var anchors []float64
	var sum float64
	var n int
	for _, v := range sorted {
		if n > 0 && math.Abs(v-anchors[len(anchors)-1]) <= split {
			sum += v
			n++
			anchors[len(anchors)-1] = sum / float64(n)
			continue
		}
		anchors = append(anchors, v)
		sum, n = v, 1
	}
	return anchors
}

// nearest returns the index of the closest anchor; the first wins ties.
func nearest(anchors []float64, v float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, a := range anchors {
		if d := math.Abs(a - v); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
