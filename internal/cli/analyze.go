package cli

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/screenlens/internal/engine"
	"github.com/ivlev/screenlens/internal/report"
	"github.com/ivlev/screenlens/internal/source"
	"github.com/ivlev/screenlens/internal/system"
)

type analyzeFlags struct {
	imageB64     string
	withMetadata bool
	pretty       bool
	lang         string
	format       string
	dir          string
	meta         map[string]string
	stats        bool
	timeout      time.Duration
	workers      int
	rulesFile    string
	output       string
}

func newAnalyzeCommand(app *App) *cobra.Command {
	f := &analyzeFlags{}

	cmd := &cobra.Command{
		Use:   "analyze [image|dir|pdf ...]",
		Short: "Analyze screenshots and print predicates and eligible tasks",
		Long: `Runs OCR once per image, the text and table detectors and the rules
engine. With no arguments the newest image in --dir is analysed.
Several inputs (or a directory, or a multi-page PDF) produce one entry
per image.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, app, f, args)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.imageB64, "image-b64", "", "base64 encoded image instead of a path")
	fl.BoolVar(&f.withMetadata, "with-metadata", false, "extract task metadata (slower)")
	fl.BoolVar(&f.pretty, "pretty", false, "indent JSON output")
	fl.StringVar(&f.lang, "lang", "", "OCR language (overrides config)")
	fl.StringVarP(&f.format, "format", "f", "json", "output format: json or yaml")
	fl.StringVar(&f.dir, "dir", ".", "directory searched for the newest screenshot when no path is given")
	fl.StringToStringVar(&f.meta, "meta", nil, "extra meta entries, key=value")
	fl.BoolVar(&f.stats, "stats", false, "print a performance report to stderr")
	fl.DurationVar(&f.timeout, "timeout", 0, "abort the analysis after this long (0 = no limit)")
	fl.IntVarP(&f.workers, "workers", "w", 0, "concurrent analyses for several inputs (0 = config)")
	fl.StringVar(&f.rulesFile, "rules", "", "rules file (overrides config)")
	fl.StringVarP(&f.output, "output", "o", "", "write the report to this file instead of stdout")
	return cmd
}

func runAnalyze(cmd *cobra.Command, app *App, f *analyzeFlags, args []string) error {
	format, err := report.ParseFormat(f.format)
	if err != nil {
		return err
	}
	if f.output != "" && !cmd.Flags().Changed("format") {
		// no explicit format: follow the output extension
		if ext := strings.TrimPrefix(filepath.Ext(f.output), "."); ext != "" {
			if byExt, err := report.ParseFormat(ext); err == nil {
				format = byExt
			}
		}
	}
	if f.lang != "" {
		app.cfg.OCR.Language = f.lang
	}
	if f.rulesFile != "" {
		app.cfg.RulesFile = f.rulesFile
	}
	workers := app.cfg.Workers
	if f.workers > 0 {
		workers = f.workers
	}

	inputs, closeAll, err := collectInputs(cmd, app, f, args)
	if err != nil {
		return err
	}
	defer closeAll()
	if len(inputs) == 0 {
		return errors.New("no images to analyze")
	}

	a, err := app.buildAnalyzer()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	opts := engine.Options{WithMetadata: f.withMetadata, Overrides: f.meta}
	start := time.Now()

	var doc any
	if len(inputs) == 1 {
		img, err := inputs[0].Load()
		if err != nil {
			return err
		}
		res, err := a.Analyze(ctx, img, opts)
		if err != nil {
			return err
		}
		doc = report.FromResult(res)
	} else {
		rep, err := a.Batch(ctx, inputs, workers, opts)
		if err != nil {
			return err
		}
		if rep.Failed > 0 {
			app.log.Warnf("[!] %d of %d images failed", rep.Failed, len(inputs))
		}
		doc = report.FromBatch(rep)
	}

	if f.output != "" {
		if err := report.WriteFile(f.output, doc, format); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "[*] Saved: %s\n", f.output)
	} else if err := report.Write(cmd.OutOrStdout(), doc, format, f.pretty); err != nil {
		return err
	}

	if f.stats || app.cfg.ShowStats {
		snap, err := system.TakeSnapshot()
		if err != nil {
			app.log.WithError(err).Warn("[!] cannot sample process stats")
		}
		fmt.Fprint(cmd.ErrOrStderr(), system.Report(app.cfg.BuildVersion, len(inputs), time.Since(start), snap))
	}
	return nil
}

// collectInputs resolves the command arguments into batch inputs. The
// returned func closes every opened source.
func collectInputs(cmd *cobra.Command, app *App, f *analyzeFlags, args []string) ([]engine.Input, func(), error) {
	if f.imageB64 != "" {
		img, err := source.DecodeBase64(f.imageB64)
		if err != nil {
			return nil, func() {}, err
		}
		return []engine.Input{{Name: "base64", Load: func() (image.Image, error) { return img, nil }}}, func() {}, nil
	}

	if len(args) == 0 {
		latest, err := system.FindLatestImage(f.dir)
		if err != nil {
			return nil, func() {}, err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "[*] Selected: %s\n", latest)
		args = []string{latest}
	}

	var inputs []engine.Input
	var opened []source.Source
	closeAll := func() {
		for _, s := range opened {
			s.Close()
		}
	}

	for _, path := range args {
		src, err := source.Open(path, app.cfg.DPI)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("%s: %w", path, err)
		}
		opened = append(opened, src)
		for i := 0; i < src.FrameCount(); i++ {
			inputs = append(inputs, engine.Input{
				Name: src.FrameName(i),
				Load: func() (image.Image, error) { return src.Frame(i) },
			})
		}
	}
	return inputs, closeAll, nil
}
