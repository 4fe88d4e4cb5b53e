// Command recipeforge is the thin CLI wrapper around the orchestration
// core: it parses flags, wires the core packages together, and maps the
// result onto a process exit code.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgecraft/recipeforge/internal/log"
)

var (
	quietFlag   bool
	verboseFlag bool
	debugFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "recipeforge",
	Short: "Reproducible build orchestrator for data-generation recipes",
	Long: `recipeforge resolves the dependency graph across a collection of
versioned data-generation recipes, fetches their declared remote inputs into
a content-addressed cache, skips recipes whose sources are unchanged since
the last build, and runs the rest inside an isolated sandbox in topological
order.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "show errors only")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "show verbose output (INFO level)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "show debug output")

	rootCmd.PersistentPreRun = initLogger

	rootCmd.AddCommand(buildCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitUsage)
	}
}

func initLogger(cmd *cobra.Command, args []string) {
	log.SetDefault(log.New(os.Stderr, determineVerbosity()))
}

// determineVerbosity honors flag precedence: --debug > --verbose > --quiet > default.
func determineVerbosity() log.Verbosity {
	switch {
	case debugFlag:
		return log.Debug
	case verboseFlag:
		return log.Verbose
	case quietFlag:
		return log.Quiet
	default:
		return log.Normal
	}
}
