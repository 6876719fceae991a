package harness

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// FormatTrace renders a result as the text stored in golden files:
// a header, then one line per op record.
//
//	scenario: conv_names
//	graph: conv
//	run: run-conv-001
//	1 biased = binary(img, bias) shape=[2 3 4 5] names=[*, c, h, w]
//	2 bad = binary(a, b) error=NAME_MISMATCH
func FormatTrace(scenarioName string, result *Result) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario: %s\n", scenarioName)
	fmt.Fprintf(&buf, "graph: %s\n", result.Graph)
	fmt.Fprintf(&buf, "run: %s\n", result.RunID)
	for _, ev := range result.Trace {
		buf.WriteString(formatEvent(ev))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func formatEvent(ev TraceEvent) string {
	head := fmt.Sprintf("%d %s = %s(%s)", ev.Seq, ev.Op, ev.Kind, strings.Join(ev.Inputs, ", "))
	if ev.Error != "" {
		return head + " error=" + ev.Error
	}
	return fmt.Sprintf("%s shape=%v names=%s", head, ev.Shape, ev.Names)
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, FormatTrace(scenarioName, result))
}
