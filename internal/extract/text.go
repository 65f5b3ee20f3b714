package extract

import (
	"strings"

	"github.com/ivlev/screenlens/internal/analyzer"
)

// TextExtractor aggregates the surviving line blocks.
type TextExtractor struct{}

func NewTextExtractor() *TextExtractor { return &TextExtractor{} }

// Extract ignores non-line blocks.
func (e *TextExtractor) Extract(blocks []analyzer.Block) *Text {
	var texts []string
	found := 0
	words := 0

	for _, b := range blocks {
		if b.Kind != analyzer.KindLine {
			continue
		}
		found++
		text := strings.TrimSpace(b.Text)
		if text == "" {
			continue
		}
		texts = append(texts, text)
		words += len(strings.Fields(text))
	}

	return &Text{
		FullText:    strings.Join(texts, "\n"),
		LineCount:   len(texts),
		WordCount:   words,
		BlocksFound: found,
	}
}
