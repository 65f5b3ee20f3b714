package rules

import "sort"

// Predicate names usable from declarative rule files.
const (
	HasText  = "hasText"
	HasTable = "hasTable"
)

// Predicates are the named booleans describing image content. The zero
// value has every predicate off.
type Predicates struct {
	HasText  bool `json:"has_text" yaml:"has_text"`
	HasTable bool `json:"has_table" yaml:"has_table"`
}

// Merge ORs o into p: a predicate once true stays true, so the merged
// value is independent of the order deltas arrive in.
func (p *Predicates) Merge(o Predicates) {
	p.HasText = p.HasText || o.HasText
	p.HasTable = p.HasTable || o.HasTable
}

// Get looks a predicate up by name.
func (p Predicates) Get(name string) (value bool, ok bool) {
	switch name {
	case HasText:
		return p.HasText, true
	case HasTable:
		return p.HasTable, true
	}
	return false, false
}

// Names lists the known predicate names.
func Names() []string {
	names := []string{HasText, HasTable}
	sort.Strings(names)
	return names
}
