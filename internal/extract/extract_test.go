package extract

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/screenlens/internal/analyzer"
	"github.com/ivlev/screenlens/internal/geometry"
	"github.com/ivlev/screenlens/internal/ocr"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestTextExtractor(t *testing.T) {
	blocks := []analyzer.Block{
		{ID: "line_0", Kind: analyzer.KindLine, Text: " Quarterly report "},
		{ID: "table_layout_0", Kind: analyzer.KindTable},
		{ID: "line_2", Kind: analyzer.KindLine, Text: "Revenue grew 12%"},
	}

	got := NewTextExtractor().Extract(blocks)
	assert.Equal(t, &Text{
		FullText:    "Quarterly report\nRevenue grew 12%",
		LineCount:   2,
		WordCount:   5,
		BlocksFound: 2,
	}, got)
}

func TestTextExtractor_NoLines(t *testing.T) {
	got := NewTextExtractor().Extract(nil)
	assert.Equal(t, "", got.FullText)
	assert.Zero(t, got.WordCount)
}

func TestTableExtractor(t *testing.T) {
	markupBlock := analyzer.Block{
		ID:   "table_model_0",
		Kind: analyzer.KindTable,
		BBox: geometry.NewBox(0, 0, 500, 500),
		Text: `<table><tr><td>x</td><td>y, z</td></tr></table>`,
	}
	brokenBlock := analyzer.Block{
		ID:   "table_model_1",
		Kind: analyzer.KindTable,
		BBox: geometry.NewBox(0, 0, 500, 500),
		Text: `<div>no grid</div>`,
	}
	ocrBlock := analyzer.Block{
		ID:   "table_layout_0",
		Kind: analyzer.KindTable,
		BBox: geometry.NewBox(0, 0, 200, 60),
	}
	emptyBlock := analyzer.Block{
		ID:   "table_ruling_0",
		Kind: analyzer.KindTable,
		BBox: geometry.NewBox(1000, 1000, 100, 100),
	}
	lineBlock := analyzer.Block{ID: "line_0", Kind: analyzer.KindLine, Text: "ignored"}

	words := []ocr.Word{
		word("Name", 10, 10), word("Qty", 120, 10),
		word("Tea", 10, 40), word("3", 120, 40),
		word("outside", 300, 300),
	}

	tables := NewTableExtractor(quietLogger()).Extract(
		[]analyzer.Block{markupBlock, brokenBlock, lineBlock, ocrBlock, emptyBlock}, words)
	require.Len(t, tables, 3)

	assert.Equal(t, Table{
		ID:      "table_model_0",
		BBox:    markupBlock.BBox,
		Columns: 2,
		Rows:    [][]string{{"x", "y, z"}},
		CSV:     `x,"y, z"`,
		Source:  SourceMarkup,
	}, tables[0])

	assert.Equal(t, "table_layout_0", tables[1].ID)
	assert.Equal(t, SourceOCR, tables[1].Source)
	assert.Equal(t, 2, tables[1].Columns)
	assert.Equal(t, [][]string{{"Name", "Qty"}, {"Tea", "3"}}, tables[1].Rows)
	assert.Equal(t, "Name,Qty\nTea,3", tables[1].CSV)

	assert.Equal(t, Table{
		ID:      "table_ruling_0",
		BBox:    emptyBlock.BBox,
		Columns: 0,
		Rows:    [][]string{},
		CSV:     "",
		Source:  SourceOCR,
	}, tables[2])
}
