// Package config holds the runtime settings of screenlens, loaded from a
// YAML or TOML file on top of built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/screenlens/internal/analyzer"
	"github.com/ivlev/screenlens/internal/ocr"
	"github.com/ivlev/screenlens/internal/structure"
)

// ErrInvalid reports a configuration value out of range.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	OCR       OCRConfig            `yaml:"ocr" toml:"ocr"`
	Text      analyzer.TextConfig  `yaml:"text" toml:"text"`
	Table     analyzer.TableConfig `yaml:"table" toml:"table"`
	Model     ModelConfig          `yaml:"model" toml:"model"`
	RulesFile string               `yaml:"rules_file" toml:"rules_file"`
	Server    ServerConfig         `yaml:"server" toml:"server"`
	Log       LogConfig            `yaml:"log" toml:"log"`
	Workers   int                  `yaml:"workers" toml:"workers"`
	DPI       int                  `yaml:"dpi" toml:"dpi"`

	ShowStats    bool   `yaml:"-" toml:"-"`
	BuildVersion string `yaml:"-" toml:"-"`
}

type OCRConfig struct {
	Command  string `yaml:"command" toml:"command"`
	Language string `yaml:"language" toml:"language"`
	PSM      int    `yaml:"psm" toml:"psm"`
}

type ModelConfig struct {
	Enabled            bool    `yaml:"enabled" toml:"enabled"`
	Endpoint           string  `yaml:"endpoint" toml:"endpoint"`
	InitTimeoutSeconds int     `yaml:"init_timeout_seconds" toml:"init_timeout_seconds"`
	MinConfidence      float64 `yaml:"min_confidence" toml:"min_confidence"`
	MinTableArea       int     `yaml:"min_table_area" toml:"min_table_area"`
	MinCells           int     `yaml:"min_cells" toml:"min_cells"`
	MaxAspectRatio     float64 `yaml:"max_aspect_ratio" toml:"max_aspect_ratio"`
}

type ServerConfig struct {
	Addr                  string  `yaml:"addr" toml:"addr"`
	RateLimit             float64 `yaml:"rate_limit" toml:"rate_limit"`
	Burst                 int     `yaml:"burst" toml:"burst"`
	RequestTimeoutSeconds int     `yaml:"request_timeout_seconds" toml:"request_timeout_seconds"`
	MaxUploadBytes        int64   `yaml:"max_upload_bytes" toml:"max_upload_bytes"`
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	gate := analyzer.DefaultModelConfig()
	return &Config{
		OCR:   OCRConfig{Command: "tesseract", Language: "eng", PSM: 3},
		Text:  analyzer.DefaultTextConfig(),
		Table: analyzer.DefaultTableConfig(),
		Model: ModelConfig{
			InitTimeoutSeconds: 5,
			MinConfidence:      gate.MinConfidence,
			MinTableArea:       gate.MinTableArea,
			MinCells:           gate.MinCells,
			MaxAspectRatio:     gate.MaxAspectRatio,
		},
		Server: ServerConfig{
			Addr:                  ":8080",
			RateLimit:             5,
			Burst:                 10,
			RequestTimeoutSeconds: 60,
			MaxUploadBytes:        20 << 20,
		},
		Log:     LogConfig{Level: "info", Format: "text"},
		Workers: runtime.NumCPU(),
		DPI:     150,
	}
}

// Load reads path on top of Default. The format follows the extension:
// .yaml, .yml or .toml.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("config %s: unsupported extension %q", path, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate range-checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.OCR.Language != "", "ocr.language is empty")
	check(c.OCR.PSM >= 1 && c.OCR.PSM <= 13, "ocr.psm %d not in [1,13]", c.OCR.PSM)

	check(c.Text.MinTextLength >= 1, "text.min_text_length must be >= 1")
	check(c.Text.MinWordCount >= 1, "text.min_word_count must be >= 1")

	check(unit(c.Table.RulingMinConfidence), "table.ruling_min_confidence %v not in (0,1]", c.Table.RulingMinConfidence)
	check(unit(c.Table.LayoutMinConfidence), "table.layout_min_confidence %v not in (0,1]", c.Table.LayoutMinConfidence)
	check(c.Table.ColumnGap > 0, "table.column_gap must be > 0")
	check(c.Table.MinLayoutLines > 0, "table.min_layout_lines must be > 0")
	check(c.Table.MinColumns > 0, "table.min_columns must be > 0")
	check(c.Table.MinColumnLines > 0, "table.min_column_lines must be > 0")

	check(!c.Model.Enabled || c.Model.Endpoint != "", "model.endpoint is required when the model is enabled")
	check(c.Model.MinConfidence >= 0 && c.Model.MinConfidence <= 1, "model.min_confidence %v not in [0,1]", c.Model.MinConfidence)
	check(c.Model.MinTableArea >= 0, "model.min_table_area must be >= 0")
	check(c.Model.MinCells >= 0, "model.min_cells must be >= 0")
	check(c.Model.MaxAspectRatio >= 1, "model.max_aspect_ratio must be >= 1")

	check(c.Server.RateLimit >= 0, "server.rate_limit must be >= 0")
	check(c.Server.RateLimit == 0 || c.Server.Burst >= 1, "server.burst must be >= 1 when rate limiting")

	_, err := logrus.ParseLevel(c.Log.Level)
	check(err == nil, "log.level %q", c.Log.Level)
	check(c.Log.Format == "text" || c.Log.Format == "json", "log.format %q (want text or json)", c.Log.Format)

	check(c.Workers >= 1, "workers must be >= 1")
	check(c.DPI > 0, "dpi must be > 0")

	return errors.Join(errs...)
}

func unit(v float64) bool { return v > 0 && v <= 1 }

// TesseractConfig maps the ocr section onto the Tesseract adapter.
func (c *Config) TesseractConfig() ocr.TesseractConfig {
	return ocr.TesseractConfig{Command: c.OCR.Command, Language: c.OCR.Language, PSM: c.OCR.PSM}
}

// DetectorOptions maps the detector sections onto analyzer options. The
// structure model initializer is set only when the model is enabled.
func (c *Config) DetectorOptions(log logrus.FieldLogger) analyzer.Options {
	opts := analyzer.Options{
		Text:  c.Text,
		Table: c.Table,
		Model: analyzer.ModelConfig{
			MinConfidence:  c.Model.MinConfidence,
			MinTableArea:   c.Model.MinTableArea,
			MinCells:       c.Model.MinCells,
			MaxAspectRatio: c.Model.MaxAspectRatio,
		},
		Log: log,
	}
	if c.Model.Enabled {
		opts.Init = structure.HTTPInitializer(structure.HTTPConfig{
			Endpoint:    c.Model.Endpoint,
			InitTimeout: time.Duration(c.Model.InitTimeoutSeconds) * time.Second,
		}, nil)
	}
	return opts
}

// TableVariant is the detector variant used for tables.
func (c *Config) TableVariant() string {
	if c.Model.Enabled {
		return analyzer.VariantModel
	}
	return analyzer.VariantTable
}
