package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "failscope",
	Short: "Extract the code behind failing Python tests",
	Long: `Failscope reads a unittest failure report, indexes the project's Python
sources, and extracts the minimal self-contained code needed to explain each
failure: the failing test, the code under test, and every definition they
transitively reference.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
