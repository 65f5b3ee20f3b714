package analyzer

import (
	"context"
	"fmt"
	"image"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/screenlens/internal/geometry"
	"github.com/ivlev/screenlens/internal/ocr"
	"github.com/ivlev/screenlens/internal/structure"
)

// ModelConfig is the validation gate applied to model table detections.
type ModelConfig struct {
	MinConfidence  float64 `yaml:"min_confidence" toml:"min_confidence"`
	MinTableArea   int     `yaml:"min_table_area" toml:"min_table_area"`
	MinCells       int     `yaml:"min_cells" toml:"min_cells"`
	MaxAspectRatio float64 `yaml:"max_aspect_ratio" toml:"max_aspect_ratio"`
}

func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		MinConfidence:  0.7,
		MinTableArea:   2000,
		MinCells:       4,
		MaxAspectRatio: 20,
	}
}

var (
	rowTag      = regexp.MustCompile(`(?i)<tr(?:\s[^>]*)?>`)
	cellTag     = regexp.MustCompile(`(?i)<t[dh](?:\s[^>]*)?>`)
	cellContent = regexp.MustCompile(`(?is)<t[dh](?:\s[^>]*)?>(.*?)</t[dh]\s*>`)
	anyTag      = regexp.MustCompile(`(?s)<[^>]*>`)
)

// ModelTableDetector asks a structure model for tables and validates each
// candidate. When the model cannot be built it behaves exactly like its
// geometric fallback for the lifetime of the instance.
type ModelTableDetector struct {
	cfg      ModelConfig
	model    structure.Model
	fallback *GeometricTableDetector
	log      logrus.FieldLogger
}

// NewModelTableDetector runs init once. A failing init is logged and the
// detector degrades to fallback.
func NewModelTableDetector(cfg ModelConfig, init structure.Initializer, fallback *GeometricTableDetector, log logrus.FieldLogger) *ModelTableDetector {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if fallback == nil {
		fallback = NewGeometricTableDetector(DefaultTableConfig(), log)
	}

	d := &ModelTableDetector{cfg: cfg, fallback: fallback, log: log}
	model, err := init()
	if err != nil {
		log.WithError(err).Warn("[!] structure model unavailable, using geometric table detection")
		return d
	}
	d.model = model
	return d
}

func (d *ModelTableDetector) Name() string { return "model_table" }

// Available reports whether a model was constructed.
func (d *ModelTableDetector) Available() bool { return d.model != nil }

func (d *ModelTableDetector) Detect(ctx context.Context, img image.Image, res *ocr.Result) (Detection, error) {
	if d.model == nil {
		return d.fallback.Detect(ctx, img, res)
	}

	det, err := d.detectWithModel(ctx, img)
	if err != nil {
		d.log.WithError(err).Warn("[!] structure model failed, falling back for this call")
		return d.fallback.Detect(ctx, img, res)
	}
	return det, nil
}

func (d *ModelTableDetector) detectWithModel(ctx context.Context, img image.Image) (Detection, error) {
	results, err := d.model.Detect(ctx, img)
	if err != nil {
		return Detection{}, fmt.Errorf("structure detect: %w", err)
	}

	blocks := []Block{}
	total, rejected := 0, 0

	for _, r := range results {
		if r.Type != structure.TypeTable {
			continue
		}
		total++

		if len(r.BBox) < 4 {
			continue
		}
		x0, y0, x1, y1 := r.BBox[0], r.BBox[1], r.BBox[2], r.BBox[3]
		w, h := x1-x0, y1-y0

		if !d.accept(r, w, h) {
			rejected++
			continue
		}

		blocks = append(blocks, Block{
			ID:         fmt.Sprintf("table_model_%d", len(blocks)),
			Kind:       KindTable,
			BBox:       geometry.NewBox(int(x0), int(y0), int(w), int(h)),
			Text:       r.Res.HTML,
			Confidence: confidence(r.Score()),
		})
	}

	accepted := len(blocks)
	conf := 0.0
	if accepted > 0 {
		conf = min(1.0, 0.85+0.05*float64(accepted))
		if total > 0 {
			conf *= 1.0 - 0.3*float64(rejected)/float64(total)
		}
	}

	det := Detection{Blocks: blocks}
	det.Delta.Predicates.HasTable = accepted > 0
	det.Delta.Signals = map[string]float64{
		"model_confidence":       conf,
		"model_table_count":      float64(accepted),
		"model_total_detections": float64(total),
		"model_filtered_count":   float64(rejected),
	}
	return det, nil
}

func (d *ModelTableDetector) accept(r structure.Detection, w, h float64) bool {
	// reversed or collapsed corners
	if w <= 0 || h <= 0 {
		return false
	}
	if w*h < float64(d.cfg.MinTableArea) {
		return false
	}
	if max(w, h)/max(min(w, h), 1) > d.cfg.MaxAspectRatio {
		return false
	}
	if r.Score() < d.cfg.MinConfidence {
		return false
	}
	if r.Res.HTML != "" {
		return d.validMarkup(r.Res.HTML)
	}
	return true
}

// validMarkup checks that table markup has a plausible grid with content.
// Markup that cannot be inspected is accepted.
func (d *ModelTableDetector) validMarkup(markup string) bool {
	if !utf8.ValidString(markup) {
		d.log.Warn("[!] table markup is not valid UTF-8, accepting detection unchecked")
		return true
	}

	rows := len(rowTag.FindAllStringIndex(markup, -1))
	if rows < 2 {
		return false
	}
	cells := len(cellTag.FindAllStringIndex(markup, -1))
	if cells < d.cfg.MinCells {
		return false
	}
	if float64(cells)/float64(rows) < 2 {
		return false
	}

	filled := 0
	for _, m := range cellContent.FindAllStringSubmatch(markup, -1) {
		if strings.TrimSpace(anyTag.ReplaceAllString(m[1], "")) != "" {
			filled++
		}
	}
	return filled*2 >= cells
}
