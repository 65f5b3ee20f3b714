package ocr

import (
	"sort"
	"strings"

	"github.com/ivlev/screenlens/internal/geometry"
)

// BuildLines groups words by LineIndex. Lines come out ordered by index
// ascending; each line's text is its words joined by a single space in
// emission order and its box is the exact union of the word boxes.
// Every provider must derive lines through this function so that the
// clustering downstream sees consistent box semantics.
func BuildLines(words []Word) []Line {
	type acc struct {
		parts []string
		box   geometry.Box
	}

	byIndex := make(map[int]*acc)
	var order []int
	for _, w := range words {
		a, ok := byIndex[w.LineIndex]
		if !ok {
			byIndex[w.LineIndex] = &acc{parts: []string{w.Text}, box: w.BBox}
			order = append(order, w.LineIndex)
			continue
		}
		a.parts = append(a.parts, w.Text)
		a.box = a.box.Union(w.BBox)
	}

	sort.Ints(order)
	lines := make([]Line, 0, len(order))
	for _, idx := range order {
		a := byIndex[idx]
		lines = append(lines, Line{
			Text: strings.TrimSpace(strings.Join(a.parts, " ")),
			BBox: a.box,
		})
	}
	return lines
}
