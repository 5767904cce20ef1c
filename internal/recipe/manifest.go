// Package recipe implements the recipe engine: a parameterized,
// conditional, multi-step workflow executor built atop the operation
// dispatcher.
package recipe

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parameter declares one recipe parameter with an optional default and
// an optional recipe-supplied value (overridable from the CLI).
type Parameter struct {
	Default     string `yaml:"default" json:"default,omitempty"`
	Value       string `yaml:"value" json:"value,omitempty"`
	Description string `yaml:"description" json:"description,omitempty"`
}

// Step is one named workflow step: an operation, its arguments (with
// ${var} substitution), an optional condition, and optional output
// bindings into the variable environment.
type Step struct {
	Name    string            `yaml:"name" json:"name"`
	Op      string            `yaml:"op" json:"op"`
	With    map[string]string `yaml:"with" json:"with,omitempty"`
	When    string            `yaml:"when" json:"when,omitempty"`
	Outputs map[string]string `yaml:"outputs" json:"outputs,omitempty"`
}

// Manifest is a loaded recipe file.
type Manifest struct {
	Name       string               `yaml:"name" json:"name"`
	Version    string               `yaml:"version" json:"version"`
	Parameters map[string]Parameter `yaml:"parameters" json:"parameters,omitempty"`
	Steps      []Step               `yaml:"steps" json:"steps"`
}

// Load reads and schema-validates a recipe manifest. YAML is a
// superset of JSON, so both manifest dialects parse through yaml.v3.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("recipe: read %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("recipe: parse %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("recipe: %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks the manifest schema: a name, at least one step, and
// a name plus operation on every step.
func (m *Manifest) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("manifest has no name")
	}
	if len(m.Steps) == 0 {
		return fmt.Errorf("manifest %q has no steps", m.Name)
	}
	seen := map[string]bool{}
	for i, s := range m.Steps {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("step %d has no name", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate step name %q", s.Name)
		}
		seen[s.Name] = true
		if strings.TrimSpace(s.Op) == "" {
			return fmt.Errorf("step %q has no op", s.Name)
		}
	}
	return nil
}

// ParseOverrides parses --param key=value tokens (outer quotes on the
// value are stripped) into a parameter override map.
func ParseOverrides(tokens []string) (map[string]string, error) {
	out := make(map[string]string, len(tokens))
	for _, tok := range tokens {
		eq := strings.Index(tok, "=")
		if eq <= 0 {
			return nil, fmt.Errorf("recipe: malformed parameter %q (want key=value)", tok)
		}
		key := strings.TrimSpace(tok[:eq])
		value := strings.TrimSpace(tok[eq+1:])
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}
		out[key] = value
	}
	return out, nil
}

// ResolveParameters layers defaults, recipe-supplied values, and CLI
// overrides (lowest to highest precedence) into the initial variable
// environment.
func (m *Manifest) ResolveParameters(overrides map[string]string) map[string]interface{} {
	env := make(map[string]interface{}, len(m.Parameters)+len(overrides))
	for name, p := range m.Parameters {
		if p.Default != "" {
			env[name] = p.Default
		}
		if p.Value != "" {
			env[name] = p.Value
		}
	}
	for name, v := range overrides {
		env[name] = v
	}
	return env
}
