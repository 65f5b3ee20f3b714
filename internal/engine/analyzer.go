// Package engine orchestrates one analysis call: OCR once, every detector,
// the rules engine and, on request, the task extractors.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ivlev/screenlens/internal/analyzer"
	"github.com/ivlev/screenlens/internal/extract"
	"github.com/ivlev/screenlens/internal/ocr"
	"github.com/ivlev/screenlens/internal/rules"
)

// ErrOCRFailed wraps a failure of the OCR collaborator. Apart from the
// caller's context ending, it is the only error that aborts an analysis
// call.
var ErrOCRFailed = errors.New("ocr failed")

// Meta describes the analysed image and the call.
type Meta struct {
	AnalysisID   string                        `json:"analysis_id" yaml:"analysis_id"`
	Width        int                           `json:"width" yaml:"width"`
	Height       int                           `json:"height" yaml:"height"`
	Mode         string                        `json:"mode" yaml:"mode"`
	Overrides    map[string]string             `json:"overrides,omitempty" yaml:"overrides,omitempty"`
	Signals      map[string]map[string]float64 `json:"signals,omitempty" yaml:"signals,omitempty"`
	TaskMetadata *extract.Metadata             `json:"task_metadata,omitempty" yaml:"task_metadata,omitempty"`
}

// Result is the outcome of one call.
type Result struct {
	Meta          Meta                    `json:"meta" yaml:"meta"`
	Predicates    rules.Predicates        `json:"predicates" yaml:"predicates"`
	Blocks        []analyzer.Block        `json:"blocks" yaml:"blocks"`
	EligibleTasks []rules.Task            `json:"eligible_tasks" yaml:"eligible_tasks"`
	Rationale     map[string][]rules.Task `json:"rationale" yaml:"rationale"`
	Elapsed       time.Duration           `json:"-" yaml:"-"`
}

// Options tune a single call.
type Options struct {
	WithMetadata bool
	Overrides    map[string]string
}

// Analyzer is safe for concurrent use once built: detectors and
// extractors hold only immutable configuration.
type Analyzer struct {
	ocr       ocr.Provider
	detectors []analyzer.Detector
	rules     *rules.Engine
	text      *extract.TextExtractor
	tables    *extract.TableExtractor
	log       logrus.FieldLogger
	newID     func() string
}

// New builds an Analyzer. A nil rules engine selects the default policy;
// no detectors selects the text and geometric table detectors.
func New(provider ocr.Provider, engine *rules.Engine, log logrus.FieldLogger, detectors ...analyzer.Detector) *Analyzer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if engine == nil {
		engine = rules.Default(log)
	}
	if len(detectors) == 0 {
		opts := analyzer.DefaultOptions()
		detectors = []analyzer.Detector{
			analyzer.NewTextDetector(opts.Text),
			analyzer.NewGeometricTableDetector(opts.Table, log),
		}
	}
	return &Analyzer{
		ocr:       provider,
		detectors: append([]analyzer.Detector(nil), detectors...),
		rules:     engine,
		text:      extract.NewTextExtractor(),
		tables:    extract.NewTableExtractor(log),
		log:       log,
		newID:     uuid.NewString,
	}
}

// Detectors returns the registered detectors in order.
func (a *Analyzer) Detectors() []analyzer.Detector {
	return append([]analyzer.Detector(nil), a.detectors...)
}

// Analyze runs the full pipeline over img.
func (a *Analyzer) Analyze(ctx context.Context, img image.Image, opts Options) (*Result, error) {
	start := time.Now()
	b := img.Bounds()

	res := &Result{
		Meta: Meta{
			AnalysisID: a.newID(),
			Width:      b.Dx(),
			Height:     b.Dy(),
			Mode:       ColorMode(img),
			Signals:    map[string]map[string]float64{},
		},
		Blocks: []analyzer.Block{},
	}
	if len(opts.Overrides) > 0 {
		res.Meta.Overrides = make(map[string]string, len(opts.Overrides))
		for k, v := range opts.Overrides {
			res.Meta.Overrides[k] = v
		}
	}
	log := a.log.WithField("analysis_id", res.Meta.AnalysisID)

	words, err := a.ocr.Recognize(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOCRFailed, err)
	}
	if words == nil {
		words = &ocr.Result{}
	}
	log.WithFields(logrus.Fields{
		"words": len(words.Words),
		"lines": len(words.Lines),
	}).Debug("ocr done")

	for _, d := range a.detectors {
		det, err := d.Detect(ctx, img, words)
		if err != nil {
			log.WithError(err).WithField("detector", d.Name()).Warn("[!] detector failed, skipping")
			continue
		}
		res.Blocks = append(res.Blocks, det.Blocks...)
		res.Predicates.Merge(det.Delta.Predicates)
		if len(det.Delta.Signals) > 0 {
			res.Meta.Signals[d.Name()] = det.Delta.Signals
		}
	}
	// partial predicates from an interrupted call are not reported
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis interrupted: %w", err)
	}

	ev := a.rules.Evaluate(res.Predicates)
	res.EligibleTasks = ev.Eligible
	res.Rationale = ev.Rationale

	if opts.WithMetadata {
		res.Meta.TaskMetadata = a.taskMetadata(res, words)
	}

	res.Elapsed = time.Since(start)
	log.WithFields(logrus.Fields{
		"has_text":  res.Predicates.HasText,
		"has_table": res.Predicates.HasTable,
		"blocks":    len(res.Blocks),
		"elapsed":   res.Elapsed,
	}).Debug("analysis done")
	return res, nil
}

// taskMetadata runs only the extractors whose tasks are eligible.
func (a *Analyzer) taskMetadata(res *Result, words *ocr.Result) *extract.Metadata {
	md := &extract.Metadata{}
	ran := false

	if rules.AnyOf(res.EligibleTasks, rules.TextTasks) {
		md.Text = a.text.Extract(res.Blocks)
		ran = true
	}
	if rules.AnyOf(res.EligibleTasks, rules.TableTasks) {
		md.Tables = a.tables.Extract(res.Blocks, words.Words)
		ran = true
	}

	if !ran {
		return nil
	}
	return md
}
