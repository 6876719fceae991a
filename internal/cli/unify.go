package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/namedtensor/internal/dimname"
	"github.com/roach88/namedtensor/internal/namedinference"
)

// UnifyResult is the JSON payload of the unify command.
type UnifyResult struct {
	LHS    dimname.Optional `json:"lhs"`
	RHS    dimname.Optional `json:"rhs"`
	Result dimname.Optional `json:"result"`
}

// NewUnifyCommand creates the unify command.
func NewUnifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unify <lhs> <rhs>",
		Short: "Unify two name lists from the right",
		Long: `Unify two dimension-name lists the way a broadcasting binary op does.

Each list is comma-separated; "*" is the wildcard and "-" stands for a
tensor without names. An empty string is a rank-0 named list.

Exit codes:
  0 - The lists unify
  1 - NAME_MISMATCH or MISALIGNED_NAME
  2 - A list could not be parsed

Examples:
  dimnames unify '*,c,h,w' 'w'
  dimnames unify 'x,y' 'y,x'
  dimnames unify - 'n,c'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnify(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runUnify(opts *RootOptions, lhsArg, rhsArg string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	lhs, err := parseNameArg(lhsArg)
	if err != nil {
		_ = formatter.Error(nameErrorCode(err), err.Error(), map[string]string{"arg": lhsArg})
		return WrapExitError(ExitCommandError, "invalid lhs", err)
	}
	rhs, err := parseNameArg(rhsArg)
	if err != nil {
		_ = formatter.Error(nameErrorCode(err), err.Error(), map[string]string{"arg": rhsArg})
		return WrapExitError(ExitCommandError, "invalid rhs", err)
	}

	out, err := namedinference.UnifyFromRight(lhs, rhs)
	if err != nil {
		_ = formatter.Error(nameErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "names do not unify", err)
	}

	if opts.Format == "json" {
		return formatter.Success(UnifyResult{LHS: lhs, RHS: rhs, Result: out})
	}
	fmt.Fprintf(formatter.Writer, "%s %s\n", formatter.Mark(true), out)
	return nil
}

// parseNameArg parses a comma-separated name list. "-" is absent names.
func parseNameArg(arg string) (dimname.Optional, error) {
	arg = strings.TrimSpace(arg)
	if arg == "-" {
		return dimname.None(), nil
	}
	if arg == "" {
		return dimname.Some(dimname.List{}), nil
	}
	parts := strings.Split(arg, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	names, err := dimname.ParseList(parts...)
	if err != nil {
		return dimname.None(), err
	}
	if err := dimname.Validate(names, len(names)); err != nil {
		return dimname.None(), err
	}
	return dimname.Some(names), nil
}

func nameErrorCode(err error) string {
	if code, ok := dimname.CodeOf(err); ok {
		return string(code)
	}
	return ErrCodeGeneric
}
