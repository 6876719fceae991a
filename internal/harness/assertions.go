package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/namedtensor/internal/dimname"
)

// AssertionError is returned when an expectation or assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // "expect" or an assertion type
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "  %s\n", formatEvent(ev))
	}

	return buf.String()
}

// checkExpectation compares one op's trace event against e.
func checkExpectation(result *Result, e Expectation) error {
	fail := func(expected, actual string) error {
		return &AssertionError{
			Type:     "expect",
			Expected: fmt.Sprintf("op %s: %s", e.Op, expected),
			Actual:   actual,
			Trace:    result.Trace,
		}
	}

	ev, ok := result.Event(e.Op)
	if !ok {
		return fail("a trace entry", "op not in trace")
	}

	if e.Error != "" {
		if ev.Error != e.Error {
			return fail("error "+e.Error, describe(ev))
		}
		return nil
	}

	if ev.Error != "" {
		return fail(expectedOutcome(e), describe(ev))
	}

	if e.Unnamed {
		if ev.Names.IsPresent() {
			return fail("unnamed result", describe(ev))
		}
	} else {
		want, err := dimname.ParseList(e.Names...)
		if err != nil {
			return fail(expectedOutcome(e), fmt.Sprintf("bad expected names: %v", err))
		}
		if !ev.Names.Equal(dimname.Some(want)) {
			return fail(expectedOutcome(e), describe(ev))
		}
	}

	if e.Shape != nil && !slices.Equal(ev.Shape, e.Shape) {
		return fail(fmt.Sprintf("shape %v", e.Shape), describe(ev))
	}
	return nil
}

func expectedOutcome(e Expectation) string {
	if e.Unnamed {
		return "unnamed result"
	}
	return "names [" + strings.Join(e.Names, ", ") + "]"
}

func describe(ev TraceEvent) string {
	if ev.Error != "" {
		return "error " + ev.Error
	}
	return fmt.Sprintf("shape %v names %s", ev.Shape, ev.Names)
}

// evaluateAssertion dispatches on the assertion type.
func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertFailedCount:
		return assertFailedCount(result.Trace, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertTraceOrder checks that ops appear in the specified order.
// Ops don't need to be consecutive.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	last := int64(0)
	for _, op := range a.Ops {
		seq := int64(0)
		for _, ev := range trace {
			if ev.Op == op {
				seq = ev.Seq
				break
			}
		}
		if seq == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("ops in order %v", a.Ops),
				Actual:   fmt.Sprintf("op %s not in trace", op),
				Trace:    trace,
			}
		}
		if seq < last {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("ops in order %v", a.Ops),
				Actual:   fmt.Sprintf("op %s ran before an op listed ahead of it", op),
				Trace:    trace,
			}
		}
		last = seq
	}
	return nil
}

// assertFailedCount checks that exactly a.Count ops failed.
func assertFailedCount(trace []TraceEvent, a Assertion) error {
	failed := 0
	for _, ev := range trace {
		if ev.Error != "" {
			failed++
		}
	}
	if failed != a.Count {
		return &AssertionError{
			Type:     AssertFailedCount,
			Expected: fmt.Sprintf("%d failed op(s)", a.Count),
			Actual:   fmt.Sprintf("%d failed op(s)", failed),
			Trace:    trace,
		}
	}
	return nil
}
