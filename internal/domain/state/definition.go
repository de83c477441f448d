package state

import (
	"github.com/querellas/casecore/internal/domain/apperror"
)

// Edge names a transition by state names.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// ModuleDefinition is the declared state graph of one module.
type ModuleDefinition struct {
	Module      Module   `json:"module" yaml:"module"`
	States      []string `json:"states" yaml:"states"`
	Transitions []Edge   `json:"transitions" yaml:"transitions"`
}

// Definition is a complete catalog, one graph per module.
type Definition struct {
	Modules []ModuleDefinition `json:"modules" yaml:"modules"`
}

// Normalize upper-cases module, state and edge names in place.
func (d *Definition) Normalize() {
	for i := range d.Modules {
		m := &d.Modules[i]
		m.Module = Module(NormalizeName(string(m.Module)))
		for j := range m.States {
			m.States[j] = NormalizeName(m.States[j])
		}
		for j := range m.Transitions {
			m.Transitions[j].From = NormalizeName(m.Transitions[j].From)
			m.Transitions[j].To = NormalizeName(m.Transitions[j].To)
		}
	}
}

// Validate checks a normalized definition.
func (d *Definition) Validate() error {
	if len(d.Modules) == 0 {
		return apperror.Validation("catalog declares no modules")
	}
	seenModules := make(map[Module]bool, len(d.Modules))
	for _, m := range d.Modules {
		if _, err := ParseModule(string(m.Module)); err != nil {
			return apperror.Validation("catalog: %v", err)
		}
		if seenModules[m.Module] {
			return apperror.Validation("catalog: module %s declared twice", m.Module)
		}
		seenModules[m.Module] = true

		declared := make(map[string]bool, len(m.States))
		for _, name := range m.States {
			if name == "" {
				return apperror.Validation("catalog: module %s has a blank state name", m.Module)
			}
			if declared[name] {
				return apperror.Validation("catalog: module %s declares state %s twice", m.Module, name)
			}
			declared[name] = true
		}
		if !declared[InitialStateName] {
			return apperror.Validation("catalog: module %s must declare initial state %s", m.Module, InitialStateName)
		}
		for _, e := range m.Transitions {
			if !declared[e.From] || !declared[e.To] {
				return apperror.Validation("catalog: module %s edge %s -> %s references an undeclared state", m.Module, e.From, e.To)
			}
		}
	}
	return nil
}
