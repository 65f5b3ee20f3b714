// Package rules maps content predicates to the set of eligible tasks.
package rules

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Condition is a pure function over predicates.
type Condition func(Predicates) bool

// Rule unlocks Tasks when Condition holds.
type Rule struct {
	Name      string
	Condition Condition
	Tasks     []Task
}

// Evaluation is the outcome of running the engine once.
type Evaluation struct {
	Eligible  []Task
	Rationale map[string][]Task
}

// Engine holds an ordered rule list. It is immutable after construction
// and safe for concurrent use.
type Engine struct {
	rules []Rule
	log   logrus.FieldLogger
}

// NewEngine builds an engine evaluating rules in the given order.
func NewEngine(log logrus.FieldLogger, rules ...Rule) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{rules: append([]Rule(nil), rules...), log: log}
}

// Default returns the engine with the built-in routing policy: a table
// unlocks document/export tasks and suppresses plain-text tasks.
func Default(log logrus.FieldLogger) *Engine {
	return NewEngine(log, DefaultRules()...)
}

// DefaultRules returns the built-in rules.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:      "has_table_rules",
			Condition: func(p Predicates) bool { return p.HasTable },
			Tasks:     append([]Task(nil), TableTasks...),
		},
		{
			Name:      "has_text_rules",
			Condition: func(p Predicates) bool { return p.HasText && !p.HasTable },
			Tasks:     append([]Task(nil), TextTasks...),
		},
	}
}

// Rules returns a copy of the rule list.
func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Evaluate runs every rule top to bottom. A rule whose condition panics
// counts as not matched and the remaining rules still run.
func (e *Engine) Evaluate(p Predicates) Evaluation {
	out := Evaluation{Eligible: []Task{}, Rationale: make(map[string][]Task)}
	seen := make(map[Task]bool)

	for _, r := range e.rules {
		matched, err := e.match(r, p)
		if err != nil {
			e.log.WithError(err).WithField("rule", r.Name).Warn("rule skipped")
			continue
		}
		if !matched {
			continue
		}
		for _, t := range r.Tasks {
			if !seen[t] {
				seen[t] = true
				out.Eligible = append(out.Eligible, t)
			}
		}
		out.Rationale[r.Name] = append([]Task(nil), r.Tasks...)
	}
	return out
}

func (e *Engine) match(r Rule, p Predicates) (matched bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			matched, err = false, fmt.Errorf("condition panicked: %v", rec)
		}
	}()
	if r.Condition == nil {
		return false, fmt.Errorf("%w: nil condition", ErrInvalidRule)
	}
	return r.Condition(p), nil
}
