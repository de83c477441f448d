package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querellas/casecore/internal/domain/apperror"
)

func validDefinition() Definition {
	return Definition{Modules: []ModuleDefinition{{
		Module: "complaint",
		States: []string{"received", " Assigned "},
		Transitions: []Edge{
			{From: "RECEIVED", To: "assigned"},
		},
	}}}
}

func TestDefinitionNormalize(t *testing.T) {
	d := validDefinition()
	d.Normalize()

	assert.Equal(t, ModuleComplaint, d.Modules[0].Module)
	assert.Equal(t, []string{"RECEIVED", "ASSIGNED"}, d.Modules[0].States)
	assert.Equal(t, Edge{From: "RECEIVED", To: "ASSIGNED"}, d.Modules[0].Transitions[0])
	require.NoError(t, d.Validate())
}

func TestDefinitionValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Definition)
	}{
		{"no modules", func(d *Definition) { d.Modules = nil }},
		{"unknown module", func(d *Definition) { d.Modules[0].Module = "TICKET" }},
		{"duplicate module", func(d *Definition) { d.Modules = append(d.Modules, d.Modules[0]) }},
		{"blank state", func(d *Definition) { d.Modules[0].States = append(d.Modules[0].States, "") }},
		{"duplicate state", func(d *Definition) { d.Modules[0].States = append(d.Modules[0].States, "ASSIGNED") }},
		{"missing initial state", func(d *Definition) { d.Modules[0].States = []string{"ASSIGNED"}; d.Modules[0].Transitions = nil }},
		{"undeclared edge end", func(d *Definition) {
			d.Modules[0].Transitions = append(d.Modules[0].Transitions, Edge{From: "ASSIGNED", To: "CLOSED"})
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := validDefinition()
			d.Normalize()
			tc.mutate(&d)
			err := d.Validate()
			require.Error(t, err)
			assert.True(t, apperror.IsValidation(err))
		})
	}
}
