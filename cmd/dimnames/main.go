// Command dimnames checks dimension names through tensor graphs declared
// in CUE.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/namedtensor/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
