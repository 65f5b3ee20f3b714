package rules

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidRule reports a malformed rule definition.
var ErrInvalidRule = errors.New("invalid rule")

// Spec is the declarative form of a rule as written in a rules file.
type Spec struct {
	Name  string   `yaml:"name"`
	All   []string `yaml:"all,omitempty"`
	None  []string `yaml:"none,omitempty"`
	Tasks []Task   `yaml:"tasks"`
}

// File is the top-level layout of a rules file.
type File struct {
	Rules []Spec `yaml:"rules"`
}

// Compile turns a Spec into a Rule, rejecting unknown predicate names.
func (s Spec) Compile() (Rule, error) {
	if s.Name == "" {
		return Rule{}, fmt.Errorf("%w: missing name", ErrInvalidRule)
	}
	if len(s.Tasks) == 0 {
		return Rule{}, fmt.Errorf("%w: rule %q unlocks no tasks", ErrInvalidRule, s.Name)
	}
	for _, name := range append(append([]string(nil), s.All...), s.None...) {
		if _, ok := (Predicates{}).Get(name); !ok {
			return Rule{}, fmt.Errorf("%w: rule %q references unknown predicate %q (known: %v)", ErrInvalidRule, s.Name, name, Names())
		}
	}

	all := append([]string(nil), s.All...)
	none := append([]string(nil), s.None...)
	cond := func(p Predicates) bool {
		for _, name := range all {
			if v, _ := p.Get(name); !v {
				return false
			}
		}
		for _, name := range none {
			if v, _ := p.Get(name); v {
				return false
			}
		}
		return true
	}
	return Rule{Name: s.Name, Condition: cond, Tasks: append([]Task(nil), s.Tasks...)}, nil
}

// Parse reads a YAML rules file.
func Parse(r io.Reader) ([]Rule, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("%w: no rules defined", ErrInvalidRule)
	}

	out := make([]Rule, 0, len(f.Rules))
	seen := make(map[string]bool, len(f.Rules))
	for _, s := range f.Rules {
		rule, err := s.Compile()
		if err != nil {
			return nil, err
		}
		// rationale is keyed by rule name
		if seen[rule.Name] {
			return nil, fmt.Errorf("%w: duplicate rule name %q", ErrInvalidRule, rule.Name)
		}
		seen[rule.Name] = true
		out = append(out, rule)
	}
	return out, nil
}

// Load reads a YAML rules file from disk.
func Load(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// DefaultSpecs describes the built-in rules declaratively, for display.
func DefaultSpecs() []Spec {
	return []Spec{
		{Name: "has_table_rules", All: []string{HasTable}, Tasks: append([]Task(nil), TableTasks...)},
		{Name: "has_text_rules", All: []string{HasText}, None: []string{HasTable}, Tasks: append([]Task(nil), TextTasks...)},
	}
}
