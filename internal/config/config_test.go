package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/screenlens/internal/analyzer"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, analyzer.DefaultTableConfig(), cfg.Table)
	assert.Equal(t, 2000, cfg.Model.MinTableArea)
	assert.Equal(t, analyzer.VariantTable, cfg.TableVariant())
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "screenlens.yaml", `
ocr:
  language: deu
table:
  ruling_enabled: false
model:
  enabled: true
  endpoint: http://localhost:8866
  min_confidence: 0.8
log:
  level: debug
workers: 2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "deu", cfg.OCR.Language)
	assert.Equal(t, "tesseract", cfg.OCR.Command, "unset keys keep defaults")
	assert.False(t, cfg.Table.RulingEnabled)
	assert.Equal(t, 18, cfg.Table.ColumnGap)
	assert.Equal(t, 0.8, cfg.Model.MinConfidence)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, analyzer.VariantModel, cfg.TableVariant())

	opts := cfg.DetectorOptions(nil)
	assert.NotNil(t, opts.Init)
	assert.Equal(t, 0.8, opts.Model.MinConfidence)
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "screenlens.toml", `
rules_file = "rules.yaml"
workers = 3

[text]
min_word_count = 4

[server]
addr = "127.0.0.1:9000"
rate_limit = 0.5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "rules.yaml", cfg.RulesFile)
	assert.Equal(t, 4, cfg.Text.MinWordCount)
	assert.Equal(t, 3, cfg.Text.MinTextLength)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 0.5, cfg.Server.RateLimit)
	assert.Nil(t, cfg.DetectorOptions(nil).Init)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		invalid bool
	}{
		{"unknown extension", "cfg.ini", "workers=1", false},
		{"broken yaml", "cfg.yaml", "workers: [", false},
		{"model without endpoint", "cfg.yaml", "model:\n  enabled: true\n", true},
		{"bad log format", "cfg.toml", "[log]\nformat = \"xml\"\n", true},
		{"zero workers", "cfg.yaml", "workers: 0\n", true},
		{"psm zero", "cfg.yaml", "ocr:\n  psm: 0\n", true},
		{"psm out of range", "cfg.toml", "[ocr]\npsm = 14\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.body))
			require.Error(t, err)
			assert.Equal(t, tt.invalid, errors.Is(err, ErrInvalid))
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Table.RulingMinConfidence = 0
	cfg.Model.MaxAspectRatio = 0.5
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ruling_min_confidence")
	assert.Contains(t, err.Error(), "max_aspect_ratio")
	assert.Contains(t, err.Error(), "log.level")
}
