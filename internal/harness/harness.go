package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/namedtensor/internal/compiler"
	"github.com/roach88/namedtensor/internal/engine"
	"github.com/roach88/namedtensor/internal/ir"
	"github.com/roach88/namedtensor/internal/store"
)

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Compile the spec files and pick the scenario's graph
// 2. Validate and schedule the graph
// 3. Evaluate it with the engine, persisting to the store
// 4. Read the trace back from the store
// 5. Check expectations and assertions
//
// Run returns an error when the scenario cannot be executed at all (bad
// specs, unknown graph). Mismatched expectations are reported through
// Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	g, err := loadGraph(scenario)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	runID := scenario.RunID
	if runID == "" {
		runID = DefaultRunID
	}

	eng := engine.New(
		engine.WithStore(st),
		engine.WithRunIDs(engine.NewFixedGenerator(runID)),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
	)

	ctx := context.Background()
	run, err := eng.Evaluate(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("evaluate graph %s: %w", g.Name, err)
	}

	records, err := st.ReadRecords(ctx, run.Info.ID)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}

	result := NewResult()
	result.Graph = g.Name
	result.RunID = run.Info.ID
	for _, rec := range records {
		result.AddRecord(rec)
	}

	for _, e := range scenario.Expect {
		if err := checkExpectation(result, e); err != nil {
			result.AddError(err.Error())
		}
	}
	for _, a := range scenario.Assertions {
		if err := evaluateAssertion(result, a); err != nil {
			result.AddError(err.Error())
		}
	}

	return result, nil
}

// loadGraph compiles the scenario's specs and returns its graph, validated
// and in evaluation order.
func loadGraph(scenario *Scenario) (*ir.Graph, error) {
	var graphs []ir.Graph
	for _, path := range scenario.Specs {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read spec: %w", err)
		}
		gs, err := compiler.CompileFile(path, src)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s: %w", path, err)
		}
		graphs = append(graphs, gs...)
	}

	g, err := pickGraph(graphs, scenario.Graph)
	if err != nil {
		return nil, err
	}

	if errs := compiler.Validate(g); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("graph %s is invalid:\n  %s", g.Name, strings.Join(msgs, "\n  "))
	}

	if err := compiler.Schedule(g); err != nil {
		return nil, fmt.Errorf("schedule graph %s: %w", g.Name, err)
	}
	return g, nil
}

func pickGraph(graphs []ir.Graph, name string) (*ir.Graph, error) {
	if name == "" {
		if len(graphs) != 1 {
			return nil, fmt.Errorf("specs declare %d graphs; set graph to choose one", len(graphs))
		}
		return &graphs[0], nil
	}
	for i := range graphs {
		if graphs[i].Name == name {
			return &graphs[i], nil
		}
	}
	return nil, fmt.Errorf("graph %q not found in specs", name)
}
