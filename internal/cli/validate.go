package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/namedtensor/internal/compiler"
)

// ValidationResult is the JSON payload of the validate command.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Graphs []string                   `json:"graphs,omitempty"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Validate graph specs without evaluating them",
		Long: `Validate the CUE graph specs in a directory without evaluating them.

Checks structure, op kinds and arity, input references, declared names
and dependency cycles. Faster than check for development feedback, but
naming conflicts between tensors are only found by check.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	loaded, loadErrs := LoadSpecs(specsDir, LoadModeCollectAll)
	if loaded == nil {
		code, message := ErrCodeGeneric, "nothing to validate"
		if len(loadErrs) > 0 {
			message = loadErrs[0].Error()
			var le *LoadError
			if errors.As(loadErrs[0], &le) {
				code, message = le.Code, le.Message
			}
		}
		_ = f.Error(code, message, nil)
		return NewExitError(ExitCommandError, code+": "+message)
	}
	f.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, specsDir)

	// Graphs that failed to compile are listed with the validation errors.
	var problems []compiler.ValidationError
	for _, err := range loadErrs {
		code := ErrCodeGeneric
		var le *LoadError
		if errors.As(err, &le) {
			code = le.Code
		}
		problems = append(problems, compiler.ValidationError{Field: "load", Message: err.Error(), Code: code})
	}

	names := make([]string, 0, len(loaded.Graphs))
	for i := range loaded.Graphs {
		g := &loaded.Graphs[i]
		f.VerboseLog("Validating graph: %s", g.Name)
		names = append(names, g.Name)
		for _, e := range PrepareGraph(g) {
			e.Field = "graph." + g.Name + "." + e.Field
			problems = append(problems, e)
		}
	}

	if len(problems) == 0 {
		if f.Format == "json" {
			return f.Success(ValidationResult{Valid: true, Graphs: names})
		}
		fmt.Fprintf(f.Writer, "%s All specs valid (%d graph(s))\n", f.Mark(true), len(names))
		return nil
	}
	return reportValidationErrors(f, problems)
}

func reportValidationErrors(f *OutputFormatter, errs []compiler.ValidationError) error {
	failed := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if f.Format == "json" {
		err := f.emit(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Errors: errs},
			Error:  &CLIError{Code: errs[0].Code, Message: errs[0].Message},
		})
		if err != nil {
			return err
		}
		return failed
	}

	fmt.Fprintf(f.Writer, "%s Validation failed\n\n", f.Mark(false))
	for _, e := range errs {
		fmt.Fprintf(f.Writer, "  %s\n", e.Error())
	}
	return failed
}
