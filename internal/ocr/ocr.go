// Package ocr defines the OCR collaborator contract consumed by every
// detector, and a Tesseract-backed provider.
package ocr

import (
	"context"
	"errors"
	"image"

	"github.com/ivlev/screenlens/internal/geometry"
)

// ErrUnavailable is returned when no OCR backend can be constructed.
var ErrUnavailable = errors.New("ocr backend unavailable")

// Word is a single recognized word.
type Word struct {
	Text      string       `json:"text" yaml:"text"`
	BBox      geometry.Box `json:"bbox" yaml:"bbox"`
	LineIndex int          `json:"line_index" yaml:"line_index"`
}

// Line aggregates the words sharing one LineIndex.
type Line struct {
	Text string       `json:"text" yaml:"text"`
	BBox geometry.Box `json:"bbox" yaml:"bbox"`
}

// Result is the output of one OCR pass. It is shared read-only by all
// detectors of an analysis call.
type Result struct {
	Words []Word `json:"words" yaml:"words"`
	Lines []Line `json:"lines" yaml:"lines"`
}

// Provider runs OCR over a decoded image.
type Provider interface {
	Recognize(ctx context.Context, img image.Image) (*Result, error)
}

// NewResult builds a Result from words, deriving lines with BuildLines.
func NewResult(words []Word) *Result {
	return &Result{Words: words, Lines: BuildLines(words)}
}

// Static is a Provider returning a fixed result, e.g. OCR output produced
// by an external engine and loaded from disk.
type Static struct {
	Result *Result
}

func (s Static) Recognize(_ context.Context, _ image.Image) (*Result, error) {
	if s.Result == nil {
		return &Result{}, nil
	}
	return s.Result, nil
}
