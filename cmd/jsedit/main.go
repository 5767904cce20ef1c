// Command jsedit is a guarded AST-directed source editor for
// JavaScript/TypeScript files: list, locate, preview, extract, and
// replace functions and variables with pre/post-edit invariant checks,
// or run multi-step recipes over the operation set.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jsedit/internal/logging"
)

func main() {
	defer logging.CloseAll()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "jsedit:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags cliFlags
	cmd := &cobra.Command{
		Use:           "jsedit --file <path> <operation flag> [modifiers]",
		Short:         "guarded AST-directed editor for JS/TS source files",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, &flags)
		},
	}
	bindFlags(cmd, &flags)
	return cmd
}
