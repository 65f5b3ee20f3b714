package analyzer

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/screenlens/internal/structure"
)

// Detector variants accepted by NewDetector.
const (
	VariantText  = "text"
	VariantTable = "table"
	VariantModel = "model"
)

// Options carries the configuration shared by all variants.
type Options struct {
	Text  TextConfig
	Table TableConfig
	Model ModelConfig
	// Init constructs the structure model for the model variant.
	Init structure.Initializer
	Log  logrus.FieldLogger
}

// DefaultOptions returns defaults for every variant, without a model.
func DefaultOptions() Options {
	return Options{
		Text:  DefaultTextConfig(),
		Table: DefaultTableConfig(),
		Model: DefaultModelConfig(),
	}
}

// NewDetector creates a detector based on the specified variant
func NewDetector(variant string, opts Options) (Detector, error) {
	switch variant {
	case VariantText:
		return NewTextDetector(opts.Text), nil
	case VariantTable, "geometric":
		return NewGeometricTableDetector(opts.Table, opts.Log), nil
	case VariantModel:
		init := opts.Init
		if init == nil {
			init = structure.Unavailable("no structure model configured")
		}
		fallback := NewGeometricTableDetector(opts.Table, opts.Log)
		return NewModelTableDetector(opts.Model, init, fallback, opts.Log), nil
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}
