// Package analyzer turns an image and its OCR output into content blocks
// and predicate deltas.
package analyzer

import (
	"context"
	"image"

	"github.com/ivlev/screenlens/internal/geometry"
	"github.com/ivlev/screenlens/internal/ocr"
	"github.com/ivlev/screenlens/internal/rules"
)

// Kind classifies a Block.
type Kind string

const (
	KindLine  Kind = "line"
	KindTable Kind = "table"
)

// Block represents a detected region of interest in an image.
type Block struct {
	ID         string       `json:"id" yaml:"id"`
	Kind       Kind         `json:"kind" yaml:"kind"`
	BBox       geometry.Box `json:"bbox" yaml:"bbox"`
	Text       string       `json:"text,omitempty" yaml:"text,omitempty"`
	Confidence *float64     `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// Delta is a detector's contribution to the call's predicates, plus
// numeric signals describing how it got there.
type Delta struct {
	Predicates rules.Predicates
	Signals    map[string]float64
}

// Detection is the output of one Detect call.
type Detection struct {
	Blocks []Block
	Delta  Delta
}

// Detector is the interface for content analysis strategies. res is the
// shared OCR output of the call and must not be modified.
type Detector interface {
	Name() string
	Detect(ctx context.Context, img image.Image, res *ocr.Result) (Detection, error)
}

func confidence(v float64) *float64 { return &v }

func lines(res *ocr.Result) []ocr.Line {
	if res == nil {
		return nil
	}
	return res.Lines
}
