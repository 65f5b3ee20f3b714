package engine

import (
	"context"
	"image"
	"time"

	"golang.org/x/sync/errgroup"
)

// Input is one image of a batch. Load runs on a worker so decoding
// overlaps with analysis of other inputs.
type Input struct {
	Name string
	Load func() (image.Image, error)
}

// Item is the outcome for one Input.
type Item struct {
	Name   string
	Result *Result
	Err    error
}

// Report summarises a batch run.
type Report struct {
	Items   []Item
	Elapsed time.Duration
	Failed  int
}

// Batch analyses inputs with at most workers concurrent calls sharing a.
// A failing input is recorded in its Item and does not stop the others;
// only context cancellation aborts the batch.
func (a *Analyzer) Batch(ctx context.Context, inputs []Input, workers int, opts Options) (*Report, error) {
	start := time.Now()
	if workers < 1 {
		workers = 1
	}

	items := make([]Item, len(inputs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, in := range inputs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			items[i] = Item{Name: in.Name}

			img, err := in.Load()
			if err != nil {
				items[i].Err = err
				a.log.WithError(err).WithField("input", in.Name).Warn("[!] cannot load image")
				return nil
			}

			res, err := a.Analyze(gCtx, img, opts)
			if err != nil {
				items[i].Err = err
				a.log.WithError(err).WithField("input", in.Name).Warn("[!] analysis failed")
				return nil
			}
			items[i].Result = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Items: items, Elapsed: time.Since(start)}
	for _, it := range items {
		if it.Err != nil {
			report.Failed++
		}
	}
	return report, nil
}
