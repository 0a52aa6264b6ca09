package workload

import (
	"encoding/json"
	"fmt"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// Script is a named sequence of operations to replay against a container.
type Script struct {
	Name string `json:"name" yaml:"name"`
	Ops  []Op   `json:"ops" yaml:"ops"`
}

// jsoncFile is the on-disk JSONC shape: a name plus a list of textual op
// lines, e.g. {"name": "mixed", "ops": ["push 3", "pop"]}.
type jsoncFile struct {
	Name string   `json:"name"`
	Ops  []string `json:"ops"`
}

// ParseJSONC parses a workload script written as JSON-with-comments,
// standardizing it to plain JSON before decoding. Each entry in "ops" is
// a textual op line per [ParseOp].
func ParseJSONC(data []byte) (Script, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Script{}, fmt.Errorf("workload: invalid JSONC: %w", err)
	}

	var raw jsoncFile

	if err := json.Unmarshal(standardized, &raw); err != nil {
		return Script{}, fmt.Errorf("workload: invalid JSON: %w", err)
	}

	script := Script{Name: raw.Name, Ops: make([]Op, 0, len(raw.Ops))}

	for i, line := range raw.Ops {
		op, err := ParseOp(line)
		if err != nil {
			return Script{}, fmt.Errorf("workload: op %d (%q): %w", i, line, err)
		}

		script.Ops = append(script.Ops, op)
	}

	return script, nil
}

// ParseYAML parses a workload script from its structured YAML form, used
// for golden fixtures where each op is a {op, key, value} document rather
// than a textual line.
func ParseYAML(data []byte) (Script, error) {
	var script Script

	if err := yaml.Unmarshal(data, &script); err != nil {
		return Script{}, fmt.Errorf("workload: invalid YAML: %w", err)
	}

	for i, op := range script.Ops {
		if _, err := arity(op.Kind); err != nil {
			return Script{}, fmt.Errorf("workload: op %d: %w", i, err)
		}
	}

	return script, nil
}

// ToYAML renders the script back to its structured YAML form.
func (s Script) ToYAML() ([]byte, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("workload: marshaling script: %w", err)
	}

	return out, nil
}
