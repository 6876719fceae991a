package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultRunID is used when a scenario does not set run_id.
const DefaultRunID = "test-run-default"

// Scenario defines a conformance test scenario: a graph to evaluate and
// what its trace must look like.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists paths to CUE spec files to compile.
	// LoadScenario resolves them relative to the scenario file.
	Specs []string `yaml:"specs"`

	// Graph names the graph to evaluate. May be omitted when the specs
	// declare exactly one graph.
	Graph string `yaml:"graph,omitempty"`

	// RunID is a fixed run id for deterministic traces.
	RunID string `yaml:"run_id,omitempty"`

	// Expect lists per-op expectations.
	Expect []Expectation `yaml:"expect"`

	// Assertions validate the trace as a whole.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expectation describes the outcome of one op. Exactly one of Error,
// Names or Unnamed should be set; Shape may accompany Names or Unnamed.
type Expectation struct {
	// Op is the id of the op.
	Op string `yaml:"op"`

	// Names are the expected result names; "*" is the wildcard.
	Names []string `yaml:"names,omitempty"`

	// Unnamed expects a result without names.
	Unnamed bool `yaml:"unnamed,omitempty"`

	// Shape is the expected result shape.
	Shape []int64 `yaml:"shape,omitempty"`

	// Error is the expected error code, e.g. NAME_MISMATCH.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the trace as a whole.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_order": the listed ops appear in this order
	// - "failed_count": exactly Count ops failed
	Type string `yaml:"type"`

	// Ops is the expected op order (used by trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Count is the expected number of failed ops (used by failed_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceOrder  = "trace_order"
	AssertFailedCount = "failed_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath is LoadScenario with relative spec paths
// resolved against base instead of the scenario's directory.
func LoadScenarioWithBasePath(path, base string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve spec paths BEFORE validation
	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) {
			scenario.Specs[i] = filepath.Join(base, specPath)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Specs) == 0 {
		return fmt.Errorf("specs list is required and must be non-empty")
	}

	if len(s.Expect) == 0 && len(s.Assertions) == 0 {
		return fmt.Errorf("at least one expect entry or assertion is required")
	}

	for _, specPath := range s.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return fmt.Errorf("spec file not found: %s", specPath)
		}
	}

	for i, e := range s.Expect {
		if err := validateExpectation(i, &e); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}

	return nil
}

func validateExpectation(index int, e *Expectation) error {
	if e.Op == "" {
		return fmt.Errorf("expect[%d]: op is required", index)
	}

	set := 0
	if e.Error != "" {
		set++
	}
	if e.Names != nil {
		set++
	}
	if e.Unnamed {
		set++
	}
	if set != 1 {
		return fmt.Errorf("expect[%d] (%s): exactly one of error, names or unnamed is required", index, e.Op)
	}
	if e.Error != "" && e.Shape != nil {
		return fmt.Errorf("expect[%d] (%s): shape cannot be combined with error", index, e.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertFailedCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for failed_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
