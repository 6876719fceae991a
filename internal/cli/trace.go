package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/namedtensor/internal/ir"
	"github.com/roach88/namedtensor/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - list runs when empty
	Op       string // optional - filter to a single op
	Failed   bool   // only show failed ops
}

// TraceResult holds the records of one stored run.
type TraceResult struct {
	Run     ir.RunInfo    `json:"run"`
	Records []ir.OpRecord `json:"records"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show stored runs and their op records",
		Long: `Show runs stored by check --db.

Without --run, lists every stored run. With --run, shows the run's
metadata and each op record in evaluation order: the inferred shape and
names, or the error code of a failed op.

Examples:
  dimnames trace --db ./runs.db
  dimnames trace --db ./runs.db --run 0190a1b2-...
  dimnames trace --db ./runs.db --run 0190a1b2-... --failed
  dimnames trace --db ./runs.db --run 0190a1b2-... --op pooled --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to show")
	cmd.Flags().StringVar(&opts.Op, "op", "", "filter to a single op")
	cmd.Flags().BoolVar(&opts.Failed, "failed", false, "only show failed ops")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID == "" {
		return listRuns(ctx, st, formatter)
	}

	info, err := st.ReadRun(ctx, opts.RunID)
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("run not found: %s", opts.RunID), nil)
		return WrapExitError(ExitCommandError, "run not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	records, err := st.QueryRecords(ctx, store.RecordQuery{
		RunID:      opts.RunID,
		OpID:       opts.Op,
		FailedOnly: opts.Failed,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read op records", err)
	}

	result := TraceResult{Run: info, Records: records}

	if opts.Format == "json" {
		return outputTraceJSON(formatter.Writer, result)
	}
	outputTraceText(formatter, result)
	return nil
}

func listRuns(ctx context.Context, st *store.Store, f *OutputFormatter) error {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if f.Format == "json" {
		return f.Success(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(f.Writer, "No runs stored.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(f.Writer, "%s %s  %s  ops=%d failed=%d\n", f.Mark(r.FailedCount == 0), r.ID, r.Graph, r.OpCount, r.FailedCount)
	}
	return nil
}

// outputTraceJSON outputs the trace result as JSON.
func outputTraceJSON(w io.Writer, result TraceResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
		RunID:  result.Run.ID,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputTraceText outputs the trace result as text.
func outputTraceText(f *OutputFormatter, result TraceResult) {
	w := f.Writer
	info := result.Run

	fmt.Fprintf(w, "Run: %s\n", info.ID)
	fmt.Fprintf(w, "Graph: %s (hash %s)\n", info.Graph, info.GraphHash)
	fmt.Fprintf(w, "Policy: %s\n", info.Policy)
	fmt.Fprintf(w, "Engine: %s\n", info.EngineVersion)
	fmt.Fprintf(w, "Ops: %d, failed: %d\n", info.OpCount, info.FailedCount)
	fmt.Fprintln(w)

	if len(result.Records) == 0 {
		fmt.Fprintln(w, "No matching op records.")
		return
	}
	for _, rec := range result.Records {
		fmt.Fprintf(w, "  %s\n", formatRecord(f, rec))
	}
}
