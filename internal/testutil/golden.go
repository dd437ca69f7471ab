// Package testutil provides shared test helpers for lox Go tests.
package testutil

import (
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ScenariosDir is the path from the module root to the conformance scenarios.
const ScenariosDir = "testdata/scenarios"

// ScenarioFile is the file that marks a directory as a scenario.
const ScenarioFile = "scenario.yaml"

// Scenario represents a test scenario loaded from a scenario.yaml file.
type Scenario struct {
	Cmd    []string       `yaml:"cmd"`
	Stdin  string         `yaml:"stdin,omitempty"`
	Meta   *ScenarioMeta  `yaml:"meta,omitempty"`
	Expect ExpectedResult `yaml:"expect"`
}

// ScenarioMeta holds optional scenario metadata.
type ScenarioMeta struct {
	Description string   `yaml:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
}

// ExpectedResult describes the expected outcome of running a scenario.
// Unset text fields are not checked.
type ExpectedResult struct {
	ExitCode         int              `yaml:"exit_code"`
	Stdout           *string          `yaml:"stdout,omitempty"`
	StdoutContains   string           `yaml:"stdout_contains,omitempty"`
	Stderr           *string          `yaml:"stderr,omitempty"`
	StderrContains   string           `yaml:"stderr_contains,omitempty"`
	StderrJSONSubset []map[string]any `yaml:"stderr_json_subset,omitempty"`
}

// LoadScenario loads a scenario from a directory containing scenario.yaml.
func LoadScenario(dir string) (*Scenario, error) {
	data, err := os.ReadFile(filepath.Join(dir, ScenarioFile))
	if err != nil {
		return nil, err
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListScenarios returns all scenario directories under the given root, sorted.
func ListScenarios(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			scenarioPath := filepath.Join(root, e.Name(), ScenarioFile)
			if _, err := os.Stat(scenarioPath); err == nil {
				dirs = append(dirs, filepath.Join(root, e.Name()))
			}
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// ResolveArgs rewrites arguments naming files inside scenarioDir to paths
// usable from the test's working directory.
func ResolveArgs(scenarioDir string, args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = arg
		candidate := filepath.Join(scenarioDir, arg)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			out[i] = candidate
		}
	}
	return out
}

// IsSubset reports whether every key in expected has an equal value in actual.
// Nested maps are compared recursively.
func IsSubset(expected, actual map[string]any) bool {
	for k, ev := range expected {
		av, ok := actual[k]
		if !ok {
			return false
		}
		em, eIsMap := ev.(map[string]any)
		am, aIsMap := av.(map[string]any)
		if eIsMap && aIsMap {
			if !IsSubset(em, am) {
				return false
			}
			continue
		}
		if !scalarEqual(ev, av) {
			return false
		}
	}
	return true
}

// scalarEqual compares YAML-decoded and JSON-decoded scalars, which disagree
// on integer types.
func scalarEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
