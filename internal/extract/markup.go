package extract

import (
	"errors"
	"html"
	"regexp"
	"strings"
)

// ErrMarkup reports table markup that yields no grid.
var ErrMarkup = errors.New("unparseable table markup")

var (
	rowPattern  = regexp.MustCompile(`(?is)<tr(?:\s[^>]*)?>(.*?)</tr\s*>`)
	cellPattern = regexp.MustCompile(`(?is)<t[dh](?:\s[^>]*)?>(.*?)</t[dh]\s*>`)
	tagPattern  = regexp.MustCompile(`(?s)<[^>]*>`)
)

// ParseMarkup reads the rows and cells of an HTML table. Nested tags are
// stripped, entities decoded and whitespace collapsed. Rows without cells
// are dropped and the rest are right-padded to the widest row.
func ParseMarkup(markup string) ([][]string, error) {
	if !strings.Contains(strings.ToLower(markup), "<table") {
		return nil, errors.Join(ErrMarkup, errors.New("no <table> element"))
	}

	var grid [][]string
	for _, row := range rowPattern.FindAllStringSubmatch(markup, -1) {
		var cells []string
		for _, cell := range cellPattern.FindAllStringSubmatch(row[1], -1) {
			text := html.UnescapeString(tagPattern.ReplaceAllString(cell[1], ""))
			cells = append(cells, strings.Join(strings.Fields(text), " "))
		}
		if len(cells) > 0 {
			grid = append(grid, cells)
		}
	}
	if len(grid) == 0 {
		return nil, errors.Join(ErrMarkup, errors.New("no rows"))
	}

	return pad(grid), nil
}

func pad(grid [][]string) [][]string {
	width := 0
	for _, row := range grid {
		width = max(width, len(row))
	}
	for i, row := range grid {
		for len(row) < width {
			row = append(row, "")
		}
		grid[i] = row
	}
	return grid
}
