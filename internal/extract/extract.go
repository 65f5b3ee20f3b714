// Package extract builds task payloads (plain text, table grids) from the
// blocks the detectors produced.
package extract

import "github.com/ivlev/screenlens/internal/geometry"

// Table sources.
const (
	SourceMarkup = "markup"
	SourceOCR    = "ocr"
)

// Text is the payload for plain-text tasks.
type Text struct {
	FullText    string `json:"full_text" yaml:"full_text"`
	LineCount   int    `json:"line_count" yaml:"line_count"`
	WordCount   int    `json:"word_count" yaml:"word_count"`
	BlocksFound int    `json:"blocks_found" yaml:"blocks_found"`
}

// Table is a rectangular grid recovered from one table block.
type Table struct {
	ID      string       `json:"id" yaml:"id"`
	BBox    geometry.Box `json:"bbox" yaml:"bbox"`
	Columns int          `json:"columns" yaml:"columns"`
	Rows    [][]string   `json:"rows" yaml:"rows"`
	CSV     string       `json:"csv" yaml:"csv"`
	Source  string       `json:"source" yaml:"source"`
}

// Metadata collects extractor outputs for a call. Fields are nil when
// the corresponding extractor did not run.
type Metadata struct {
	Text   *Text   `json:"text,omitempty" yaml:"text,omitempty"`
	Tables []Table `json:"tables,omitempty" yaml:"tables,omitempty"`
}
