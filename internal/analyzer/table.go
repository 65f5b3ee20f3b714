package analyzer

import (
	"context"
	"fmt"
	"image"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/screenlens/internal/geometry"
	"github.com/ivlev/screenlens/internal/ocr"
)

const (
	thresholdBlock  = 15
	thresholdOffset = 8
	rulingKernel    = 25
	rulingPasses    = 2
)

// TableConfig tunes the geometric table strategies.
type TableConfig struct {
	RulingEnabled       bool    `yaml:"ruling_enabled" toml:"ruling_enabled"`
	RulingMinConfidence float64 `yaml:"ruling_min_confidence" toml:"ruling_min_confidence"`
	LayoutMinConfidence float64 `yaml:"layout_min_confidence" toml:"layout_min_confidence"`
	MinRegionWidth      int     `yaml:"min_region_width" toml:"min_region_width"`
	MinRegionHeight     int     `yaml:"min_region_height" toml:"min_region_height"`
	MinLayoutLines      int     `yaml:"min_layout_lines" toml:"min_layout_lines"`
	ColumnGap           int     `yaml:"column_gap" toml:"column_gap"`
	MinColumnLines      int     `yaml:"min_column_lines" toml:"min_column_lines"`
	MinColumns          int     `yaml:"min_columns" toml:"min_columns"`
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		RulingEnabled:       true,
		RulingMinConfidence: 0.6,
		LayoutMinConfidence: 0.7,
		MinRegionWidth:      80,
		MinRegionHeight:     40,
		MinLayoutLines:      8,
		ColumnGap:           18,
		MinColumnLines:      3,
		MinColumns:          3,
	}
}

// GeometricTableDetector fuses two heuristics: ruling lines found by
// morphology on the pixels, and column alignment of OCR line left edges.
type GeometricTableDetector struct {
	cfg  TableConfig
	pool *grayPool
	log  logrus.FieldLogger
}

func NewGeometricTableDetector(cfg TableConfig, log logrus.FieldLogger) *GeometricTableDetector {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &GeometricTableDetector{cfg: cfg, pool: newGrayPool(), log: log}
}

func (d *GeometricTableDetector) Name() string { return "table" }

func (d *GeometricTableDetector) Detect(ctx context.Context, img image.Image, res *ocr.Result) (Detection, error) {
	blocks := []Block{}

	var rulingConf float64
	var rulingBoxes []geometry.Box
	if d.cfg.RulingEnabled && img != nil {
		if err := ctx.Err(); err != nil {
			return Detection{}, err
		}
		rulingConf, rulingBoxes = d.ruling(img)
		for i, b := range rulingBoxes {
			blocks = append(blocks, Block{
				ID:         fmt.Sprintf("table_ruling_%d", i),
				Kind:       KindTable,
				BBox:       b,
				Confidence: confidence(rulingConf),
			})
		}
	}

	layoutConf, layoutBoxes := d.layout(lines(res))
	for i, b := range layoutBoxes {
		blocks = append(blocks, Block{
			ID:         fmt.Sprintf("table_layout_%d", i),
			Kind:       KindTable,
			BBox:       b,
			Confidence: confidence(layoutConf),
		})
	}

	det := Detection{Blocks: blocks}
	det.Delta.Predicates.HasTable = rulingConf >= d.cfg.RulingMinConfidence ||
		layoutConf >= d.cfg.LayoutMinConfidence ||
		len(blocks) > 0
	det.Delta.Signals = map[string]float64{
		"ruling_confidence": rulingConf,
		"layout_confidence": layoutConf,
		"ruling_regions":    float64(len(rulingBoxes)),
		"layout_regions":    float64(len(layoutBoxes)),
	}
	return det, nil
}

// ruling finds boxes outlined by long horizontal and vertical strokes.
func (d *GeometricTableDetector) ruling(img image.Image) (float64, []geometry.Box) {
	b := img.Bounds()
	if b.Empty() {
		return 0, nil
	}
	rect := image.Rect(0, 0, b.Dx(), b.Dy())

	gray := d.pool.get(rect)
	mask := d.pool.get(rect)
	scratch := d.pool.get(rect)
	defer d.pool.put(gray, mask, scratch)

	toGrayscale(img, gray)
	adaptiveThreshold(gray, mask, thresholdBlock, thresholdOffset)

	// gray is no longer needed: reuse it for the horizontal pass
	horiz := gray
	copy(horiz.Pix, mask.Pix)
	open(horiz, scratch, rulingKernel, rulingPasses, true)
	open(mask, scratch, rulingKernel, rulingPasses, false)

	density := union(horiz, mask)

	var boxes []geometry.Box
	for _, c := range findContours(horiz) {
		if c.W > d.cfg.MinRegionWidth && c.H > d.cfg.MinRegionHeight {
			// contours are origin-anchored; report them in img coordinates
			boxes = append(boxes, geometry.FromRectangle(c.Rectangle().Add(b.Min)))
		}
	}

	conf := min(1.0, 0.3*float64(len(boxes))+5.0*density)
	d.log.WithFields(logrus.Fields{
		"regions": len(boxes),
		"density": density,
	}).Debug("ruling strategy")
	return conf, boxes
}

// layout looks for at least MinColumns groups of aligned left edges.
func (d *GeometricTableDetector) layout(lns []ocr.Line) (float64, []geometry.Box) {
	if len(lns) < d.cfg.MinLayoutLines || len(lns) == 0 {
		return 0, nil
	}

	lefts := make([]int, len(lns))
	boxes := make([]geometry.Box, len(lns))
	for i, ln := range lns {
		lefts[i] = ln.BBox.X
		boxes[i] = ln.BBox
	}
	sort.Ints(lefts)

	var buckets [][]int
	for _, x := range lefts {
		if n := len(buckets); n > 0 {
			last := buckets[n-1]
			if x-last[len(last)-1] < d.cfg.ColumnGap {
				buckets[n-1] = append(last, x)
				continue
			}
		}
		buckets = append(buckets, []int{x})
	}

	columns := 0
	for _, bucket := range buckets {
		if len(bucket) >= d.cfg.MinColumnLines {
			columns++
		}
	}
	if columns < d.cfg.MinColumns {
		return 0, nil
	}

	region, _ := geometry.UnionAll(boxes)
	return min(1.0, 0.2*float64(columns)), []geometry.Box{region}
}
