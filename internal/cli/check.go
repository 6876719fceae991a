package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/namedtensor/internal/engine"
	"github.com/roach88/namedtensor/internal/ir"
	"github.com/roach88/namedtensor/internal/store"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Database string // optional - persist runs
	Graph    string // optional - check only this graph

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// GraphCheck is the outcome of checking one graph.
type GraphCheck struct {
	Graph   string        `json:"graph"`
	RunID   string        `json:"run_id"`
	Failed  int           `json:"failed"`
	Records []ir.OpRecord `json:"records"`
}

// CheckResult holds the outcome of the check command.
type CheckResult struct {
	Graphs []GraphCheck `json:"graphs"`
	Failed int          `json:"failed"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <specs-dir>",
		Short: "Infer dimension names through every graph",
		Long: `Compile, validate and evaluate the CUE graph specs in a directory.

Every op's result names are inferred from its inputs. Ops whose names
conflict are reported with their error code; ops that consume a failed
result report INPUT_FAILED. With --db, each graph's run is stored in a
SQLite database for later inspection with trace.

Exit codes:
  0 - Every op inferred names
  1 - Invalid graph or one or more ops failed
  2 - Command error (invalid paths, database errors, etc.)

Examples:
  dimnames check ./specs
  dimnames check ./specs --graph conv
  dimnames check ./specs --db ./runs.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for storing runs")
	cmd.Flags().StringVar(&opts.Graph, "graph", "", "check only the named graph")

	return cmd
}

func runCheck(opts *CheckOptions, specsDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.newLogger(cmd.ErrOrStderr())

	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeFailFast)
	if len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			_ = formatter.Error(loadErr.Code, loadErr.Error(), nil)
		} else {
			_ = formatter.Error(ErrCodeGeneric, loadErrors[0].Error(), nil)
		}
		if loadResult == nil {
			return WrapExitError(ExitCommandError, "failed to load specs", loadErrors[0])
		}
		return WrapExitError(ExitFailure, "failed to compile specs", loadErrors[0])
	}

	graphs, err := selectGraphs(loadResult.Graphs, opts.Graph)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "no graph to check", err)
	}

	engineOpts := []engine.Option{engine.WithLogger(logger)}
	if opts.RunIDs != nil {
		engineOpts = append(engineOpts, engine.WithRunIDs(opts.RunIDs))
	}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		engineOpts = append(engineOpts, engine.WithStore(st))
	}
	eng := engine.New(engineOpts...)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result := CheckResult{Graphs: make([]GraphCheck, 0, len(graphs))}
	for i := range graphs {
		g := &graphs[i]
		if errs := PrepareGraph(g); len(errs) > 0 {
			_ = reportValidationErrors(formatter, errs)
			return NewExitError(ExitFailure, fmt.Sprintf("graph %s is invalid", g.Name))
		}

		run, err := eng.Evaluate(ctx, g)
		if err != nil {
			if engine.IsQuotaError(err) {
				_ = formatter.Error(string(engine.ErrCodeQuotaExceeded), err.Error(), nil)
				return WrapExitError(ExitFailure, "graph too large", err)
			}
			return WrapExitError(ExitCommandError, "evaluation failed", err)
		}

		result.Graphs = append(result.Graphs, GraphCheck{
			Graph:   g.Name,
			RunID:   run.Info.ID,
			Failed:  run.Info.FailedCount,
			Records: run.Records,
		})
		result.Failed += run.Info.FailedCount
	}

	if opts.Format == "json" {
		if err := outputCheckJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else {
		outputCheckText(formatter, result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d op(s) failed", result.Failed))
	}
	return nil
}

// selectGraphs returns every graph, or only the one called name.
func selectGraphs(graphs []ir.Graph, name string) ([]ir.Graph, error) {
	if name == "" {
		return graphs, nil
	}
	for _, g := range graphs {
		if g.Name == name {
			return []ir.Graph{g}, nil
		}
	}
	return nil, fmt.Errorf("graph %q not found in specs", name)
}

func outputCheckJSON(w io.Writer, result CheckResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_CHECK_FAILED",
			Message: fmt.Sprintf("%d op(s) failed", result.Failed),
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

func outputCheckText(f *OutputFormatter, result CheckResult) {
	w := f.Writer
	for _, gc := range result.Graphs {
		fmt.Fprintf(w, "%s %s (run %s)\n", f.Mark(gc.Failed == 0), gc.Graph, gc.RunID)
		for _, rec := range gc.Records {
			fmt.Fprintf(w, "  %s\n", formatRecord(f, rec))
		}
	}
	fmt.Fprintln(w)
	if result.Failed > 0 {
		fmt.Fprintf(w, "%s %d op(s) failed\n", f.Mark(false), result.Failed)
		return
	}
	fmt.Fprintf(w, "%s All names inferred\n", f.Mark(true))
}

// formatRecord renders one op record on a single line.
func formatRecord(f *OutputFormatter, rec ir.OpRecord) string {
	head := fmt.Sprintf("%s %d %s = %s(%s)", f.Mark(!rec.Failed()), rec.Seq, rec.OpID, rec.Kind, strings.Join(rec.Inputs, ", "))
	if rec.Failed() {
		if f.Verbose {
			return fmt.Sprintf("%s %s: %s", head, rec.ErrorCode, rec.ErrorMessage)
		}
		return head + " " + rec.ErrorCode
	}
	return fmt.Sprintf("%s shape=%v names=%s", head, rec.Shape, rec.Names)
}
