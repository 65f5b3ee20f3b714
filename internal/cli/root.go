// Package cli implements the screenlens command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ivlev/screenlens/internal/analyzer"
	"github.com/ivlev/screenlens/internal/config"
	"github.com/ivlev/screenlens/internal/engine"
	"github.com/ivlev/screenlens/internal/ocr"
	"github.com/ivlev/screenlens/internal/rules"
)

// App holds what the commands share. NewOCR is swapped in tests.
type App struct {
	Version string
	NewOCR  func(cfg ocr.TesseractConfig, log logrus.FieldLogger) (ocr.Provider, error)

	cfg *config.Config
	log *logrus.Logger

	configPath string
	logLevel   string
	logFormat  string
}

// NewApp returns an App backed by Tesseract.
func NewApp(version string) *App {
	return &App{
		Version: version,
		NewOCR: func(cfg ocr.TesseractConfig, log logrus.FieldLogger) (ocr.Provider, error) {
			return ocr.NewTesseract(cfg, log)
		},
	}
}

// Execute runs the command line and returns the process exit code.
func Execute(version string) int {
	if err := NewRootCommand(NewApp(version)).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[!] %v\n", err)
		return 1
	}
	return 0
}

func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "screenlens",
		Short: "Classify screenshots and suggest the tasks that apply",
		Long: `screenlens inspects a screenshot for readable text and tables, decides
which downstream tasks apply (copy as text, export to CSV, ...) and can
extract the text or table grids those tasks need.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.setup(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "config file (.yaml, .yml or .toml)")
	root.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&app.logFormat, "log-format", "", "log format (text or json)")

	root.AddCommand(
		newAnalyzeCommand(app),
		newRulesCommand(app),
		newServeCommand(app),
		newVersionCommand(app),
	)
	return root
}

func (app *App) setup(stderr io.Writer) error {
	cfg := config.Default()
	if app.configPath != "" {
		loaded, err := config.Load(app.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if app.logLevel != "" {
		cfg.Log.Level = app.logLevel
	}
	if app.logFormat != "" {
		cfg.Log.Format = app.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.BuildVersion = app.Version

	log := logrus.New()
	log.SetOutput(stderr)
	level, _ := logrus.ParseLevel(cfg.Log.Level)
	log.SetLevel(level)
	if cfg.Log.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}

	app.cfg = cfg
	app.log = log
	return nil
}

// rules returns the configured rule set.
func (app *App) rules() ([]rules.Rule, error) {
	if app.cfg.RulesFile == "" {
		return rules.DefaultRules(), nil
	}
	rs, err := rules.Load(app.cfg.RulesFile)
	if err != nil {
		return nil, err
	}
	app.log.WithField("file", app.cfg.RulesFile).Debug("loaded rules")
	return rs, nil
}

// buildAnalyzer wires OCR, detectors and rules from the configuration.
func (app *App) buildAnalyzer() (*engine.Analyzer, error) {
	provider, err := app.NewOCR(app.cfg.TesseractConfig(), app.log)
	if err != nil {
		return nil, err
	}

	rs, err := app.rules()
	if err != nil {
		return nil, err
	}

	opts := app.cfg.DetectorOptions(app.log)
	var detectors []analyzer.Detector
	for _, variant := range []string{analyzer.VariantText, app.cfg.TableVariant()} {
		d, err := analyzer.NewDetector(variant, opts)
		if err != nil {
			return nil, err
		}
		detectors = append(detectors, d)
	}

	return engine.New(provider, rules.NewEngine(app.log, rs...), app.log, detectors...), nil
}
