package analyzer

import (
	"context"
	"fmt"
	"image"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ivlev/screenlens/internal/ocr"
)

// TextConfig tunes the OCR noise filter.
type TextConfig struct {
	MinTextLength int `yaml:"min_text_length" toml:"min_text_length"`
	MinWordCount  int `yaml:"min_word_count" toml:"min_word_count"`
}

func DefaultTextConfig() TextConfig {
	return TextConfig{MinTextLength: 3, MinWordCount: 2}
}

// TextDetector keeps OCR lines that look like real text and decides
// whether the screenshot carries meaningful text.
type TextDetector struct {
	cfg TextConfig
}

func NewTextDetector(cfg TextConfig) *TextDetector {
	return &TextDetector{cfg: cfg}
}

func (d *TextDetector) Name() string { return "text" }

func (d *TextDetector) Detect(_ context.Context, _ image.Image, res *ocr.Result) (Detection, error) {
	all := lines(res)
	blocks := []Block{}
	var kept []string

	for i, ln := range all {
		text := strings.TrimSpace(ln.Text)
		if !d.valid(text) {
			continue
		}
		blocks = append(blocks, Block{
			ID:   fmt.Sprintf("line_%d", i),
			Kind: KindLine,
			BBox: ln.BBox,
			Text: text,
		})
		kept = append(kept, text)
	}

	det := Detection{Blocks: blocks}
	det.Delta.Predicates.HasText = d.meaningful(kept)
	det.Delta.Signals = map[string]float64{
		"text_line_count":      float64(len(kept)),
		"total_detected_lines": float64(len(all)),
	}
	return det, nil
}

// valid rejects OCR noise: short fragments, symbol runs, repeated glyphs
// and short digit-only strings.
func (d *TextDetector) valid(text string) bool {
	if utf8.RuneCountInString(text) < d.cfg.MinTextLength {
		return false
	}

	var clean []rune
	letters := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
		}
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			clean = append(clean, r)
		}
	}
	if len(clean) < 2 {
		return false
	}

	distinct := make(map[rune]struct{}, len(clean))
	for _, r := range clean {
		distinct[unicode.ToLower(r)] = struct{}{}
	}
	if len(distinct) < 2 {
		return false
	}

	if letters == 0 && utf8.RuneCountInString(text) < 10 {
		return false
	}
	return true
}

func (d *TextDetector) meaningful(kept []string) bool {
	if len(kept) == 0 {
		return false
	}
	words := 0
	for _, text := range kept {
		for _, tok := range strings.Fields(text) {
			if utf8.RuneCountInString(tok) > 1 || onlyLetters(tok) {
				words++
			}
		}
	}
	return words >= d.cfg.MinWordCount
}

func onlyLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}
