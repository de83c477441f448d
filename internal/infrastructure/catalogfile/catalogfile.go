// Package catalogfile reads state catalog definitions from YAML or JSON.
package catalogfile

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/querellas/casecore/internal/domain/state"
)

// Parse decodes a catalog definition, normalizes its names and validates it.
// JSON input is accepted as YAML.
func Parse(data []byte) (state.Definition, error) {
	var def state.Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		if err == io.EOF {
			return def, fmt.Errorf("catalog definition is empty")
		}
		return def, fmt.Errorf("decode catalog definition: %w", err)
	}
	def.Normalize()
	return def, def.Validate()
}

// Load reads and parses the catalog definition at path.
func Load(path string) (state.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return state.Definition{}, fmt.Errorf("read catalog file %s: %w", path, err)
	}
	def, err := Parse(data)
	if err != nil {
		return def, fmt.Errorf("catalog file %s: %w", path, err)
	}
	return def, nil
}

// Marshal renders a definition in the format Load reads.
func Marshal(def state.Definition) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(def); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
