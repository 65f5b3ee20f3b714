// Package structure is the contract for an external table-structure
// model (PP-Structure style) and an HTTP adapter for it.
package structure

import (
	"context"
	"errors"
	"image"
)

// ErrUnavailable reports that the model could not be initialized.
var ErrUnavailable = errors.New("structure model unavailable")

// TypeTable is the detection type consumed by the analyzer.
const TypeTable = "table"

// Detection is one region reported by the model. BBox holds corner
// coordinates [x0, y0, x1, y1].
type Detection struct {
	Type       string    `json:"type"`
	BBox       []float64 `json:"bbox"`
	Confidence *float64  `json:"confidence,omitempty"`
	Res        Payload   `json:"res"`
}

// Payload carries the structural markup attached to a detection.
type Payload struct {
	HTML string `json:"html,omitempty"`
}

// Score returns the model confidence, defaulting to 1 when absent.
func (d Detection) Score() float64 {
	if d.Confidence == nil {
		return 1.0
	}
	return *d.Confidence
}

// Model detects layout regions in an image. Implementations must be safe
// for concurrent use once constructed.
type Model interface {
	Detect(ctx context.Context, img image.Image) ([]Detection, error)
}

// Initializer constructs a model. It is called once per detector.
type Initializer func() (Model, error)

// Unavailable is an Initializer that always fails.
func Unavailable(reason string) Initializer {
	return func() (Model, error) {
		return nil, errors.Join(ErrUnavailable, errors.New(reason))
	}
}
