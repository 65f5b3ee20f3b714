// Package report renders analysis results as JSON or YAML documents.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/screenlens/internal/analyzer"
	"github.com/ivlev/screenlens/internal/engine"
	"github.com/ivlev/screenlens/internal/extract"
	"github.com/ivlev/screenlens/internal/rules"
)

// Format selects the document encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat accepts json, yaml or yml, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want json or yaml)", s)
	}
}

// Payload is the document produced for one analysed image.
type Payload struct {
	Meta          engine.Meta             `json:"meta" yaml:"meta"`
	Predicates    rules.Predicates        `json:"predicates" yaml:"predicates"`
	EligibleTasks []rules.Task            `json:"eligible_tasks" yaml:"eligible_tasks"`
	Rationale     map[string][]rules.Task `json:"rationale" yaml:"rationale"`
	Blocks        []analyzer.Block        `json:"blocks" yaml:"blocks"`
	TaskMetadata  *extract.Metadata       `json:"task_metadata,omitempty" yaml:"task_metadata,omitempty"`
}

// FromResult builds the payload of res. Task metadata is surfaced at the
// top level as well as under meta.
func FromResult(res *engine.Result) Payload {
	return Payload{
		Meta:          res.Meta,
		Predicates:    res.Predicates,
		EligibleTasks: res.EligibleTasks,
		Rationale:     res.Rationale,
		Blocks:        res.Blocks,
		TaskMetadata:  res.Meta.TaskMetadata,
	}
}

// Entry is one line of a batch document.
type Entry struct {
	Input  string   `json:"input" yaml:"input"`
	Result *Payload `json:"result,omitempty" yaml:"result,omitempty"`
	Error  string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// FromBatch converts a batch report, keeping input order.
func FromBatch(r *engine.Report) []Entry {
	entries := make([]Entry, 0, len(r.Items))
	for _, it := range r.Items {
		e := Entry{Input: it.Name}
		if it.Err != nil {
			e.Error = it.Err.Error()
		} else if it.Result != nil {
			p := FromResult(it.Result)
			e.Result = &p
		}
		entries = append(entries, e)
	}
	return entries
}

// Write encodes v to w. pretty indents JSON; YAML is always indented.
func Write(w io.Writer, v any, format Format, pretty bool) error {
	switch format {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case JSON, "":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		if pretty {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteFile writes v to path in the given format.
func WriteFile(path string, v any, format Format) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, v, format, true); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
