package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags).
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "tmplkit",
	Short: "A template expression evaluation toolkit",
	Long: `tmplkit drives the expression/AST evaluation substrate of a
sigil-based template engine: render pre-built expression trees against a
JSON context and inspect the compiled-tree cache's shape.

This CLI does not parse template source itself — render reads a small
JSON AST shape instead (see "tmplkit render -h"), matching the fact that
the lexer and parser for the host template language live outside this
module's scope.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
