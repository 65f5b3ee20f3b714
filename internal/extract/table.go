package extract

import (
	"github.com/sirupsen/logrus"

	"github.com/ivlev/screenlens/internal/analyzer"
	"github.com/ivlev/screenlens/internal/ocr"
)

// TableExtractor turns table blocks into grids, from markup when the block
// carries it and from OCR word positions otherwise.
type TableExtractor struct {
	log logrus.FieldLogger
}

func NewTableExtractor(log logrus.FieldLogger) *TableExtractor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &TableExtractor{log: log}
}

// Extract ignores non-table blocks. A block whose markup cannot be parsed
// is skipped.
func (e *TableExtractor) Extract(blocks []analyzer.Block, words []ocr.Word) []Table {
	tables := []Table{}

	for _, b := range blocks {
		if b.Kind != analyzer.KindTable {
			continue
		}

		if b.Text != "" {
			rows, err := ParseMarkup(b.Text)
			if err != nil {
				e.log.WithError(err).WithField("block", b.ID).Warn("[!] skipping table")
				continue
			}
			tables = append(tables, newTable(b, rows, SourceMarkup))
			continue
		}

		var inside []ocr.Word
		for _, w := range words {
			if b.BBox.ContainsPoint(w.BBox.Center()) {
				inside = append(inside, w)
			}
		}
		tables = append(tables, newTable(b, Reconstruct(inside), SourceOCR))
	}
	return tables
}

func newTable(b analyzer.Block, rows [][]string, source string) Table {
	columns := 0
	if len(rows) > 0 {
		columns = len(rows[0])
	}
	return Table{
		ID:      b.ID,
		BBox:    b.BBox,
		Columns: columns,
		Rows:    rows,
		CSV:     CSV(rows),
		Source:  source,
	}
}
