package catalogfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querellas/casecore/internal/domain/apperror"
	"github.com/querellas/casecore/internal/domain/state"
)

func TestLoadDefaultCatalog(t *testing.T) {
	def, err := Load(filepath.Join("..", "..", "..", "configs", "catalog.yaml"))
	require.NoError(t, err)
	require.Len(t, def.Modules, 2)

	complaint := def.Modules[0]
	assert.Equal(t, state.ModuleComplaint, complaint.Module)
	assert.Contains(t, complaint.States, "HEARING")
	assert.Contains(t, complaint.Transitions, state.Edge{From: "CLOSED", To: "IN_PROGRESS"})

	dispatch := def.Modules[1]
	assert.Equal(t, state.ModuleDispatch, dispatch.Module)
	assert.Contains(t, dispatch.Transitions, state.Edge{From: "RETURNED", To: "IN_PROGRESS"})
}

func TestParseNormalizesNames(t *testing.T) {
	def, err := Parse([]byte(`
modules:
  - module: complaint
    states: [received, " open "]
    transitions:
      - {from: received, to: open}
`))
	require.NoError(t, err)
	assert.Equal(t, state.ModuleComplaint, def.Modules[0].Module)
	assert.Equal(t, []string{"RECEIVED", "OPEN"}, def.Modules[0].States)
	assert.Equal(t, state.Edge{From: "RECEIVED", To: "OPEN"}, def.Modules[0].Transitions[0])
}

func TestParseAcceptsJSON(t *testing.T) {
	def, err := Parse([]byte(`{"modules":[{"module":"DISPATCH","states":["RECEIVED"],"transitions":[]}]}`))
	require.NoError(t, err)
	assert.Equal(t, state.ModuleDispatch, def.Modules[0].Module)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"unknown field", "modules:\n  - module: COMPLAINT\n    states: [RECEIVED]\n    guards: []\n"},
		{"missing initial state", "modules:\n  - module: COMPLAINT\n    states: [OPEN]\n"},
		{"dangling edge", "modules:\n  - module: COMPLAINT\n    states: [RECEIVED]\n    transitions: [{from: RECEIVED, to: CLOSED}]\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestParseValidationErrorsKeepTheirKind(t *testing.T) {
	_, err := Parse([]byte("modules:\n  - module: COMPLAINT\n    states: [RECEIVED, RECEIVED]\n"))
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestMarshalRoundTrips(t *testing.T) {
	def, err := Load(filepath.Join("..", "..", "..", "configs", "catalog.yaml"))
	require.NoError(t, err)

	data, err := Marshal(def)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, def, again)
}
