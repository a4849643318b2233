package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"failscope/internal/analyze"
	"failscope/internal/compose"
	"failscope/internal/config"
)

var (
	projectRootFlag    string
	testDirFlag        string
	numberOfIssuesFlag int
	reportFileFlag     string
	outputFileFlag     string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a unittest failure report and write the prompt file",
	Long: `Analyze consumes the textual report of a unittest run (failscope never
executes tests itself), resolves each failure's code dependencies, and writes
the deduplicated extraction to the output file.

Examples:
  # Pipe the runner's output straight in
  python -m unittest discover 2>&1 | failscope analyze

  # Analyze a saved report, include every failure
  failscope analyze --report-file run.log --number-of-issues 0

  # Analyze a different project
  failscope analyze --project-root ../svc --test-dir tests --report-file run.log
`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&projectRootFlag, "project-root", "", "Root directory of the project (default: current directory)")
	analyzeCmd.Flags().StringVar(&testDirFlag, "test-dir", "", "Directory containing tests (default: tests)")
	analyzeCmd.Flags().IntVarP(&numberOfIssuesFlag, "number-of-issues", "n", -1, "Number of test failures to include, 0 for all (default: 1)")
	analyzeCmd.Flags().StringVar(&reportFileFlag, "report-file", "", "Unittest report file, - for stdin (default: stdin)")
	analyzeCmd.Flags().StringVarP(&outputFileFlag, "output-file", "o", "", "Output file path (default: prompt.txt)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	report, closeReport, err := openReport(cfg.Output.ReportFile)
	if err != nil {
		return err
	}
	defer closeReport()

	result, err := analyze.Run(analyze.Options{
		ProjectRoot:    cfg.Project.Root,
		TestDir:        cfg.Project.TestDir,
		NumberOfIssues: cfg.Project.NumberOfIssues,
		IgnorePatterns: cfg.Project.Ignore,
	}, report)
	if err != nil {
		return err
	}

	if len(result.Failures) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No failures found in report; nothing to extract.")
		return nil
	}

	composer := compose.NewComposer(cfg.Project.Root)
	if err := composer.WriteFile(result, cfg.Output.File); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d failure(s) to %s\n", len(result.Failures), cfg.Output.File)
	return nil
}

// loadConfig merges defaults, the .failscope config file, environment
// variables, and command-line flags (flags win).
func loadConfig() (*config.Config, error) {
	rootDir := projectRootFlag
	if rootDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		rootDir = wd
	}
	rootDir, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	cfg, err := config.NewLoader(rootDir).Load()
	if err != nil {
		return nil, err
	}
	cfg.Project.Root = rootDir

	if testDirFlag != "" {
		cfg.Project.TestDir = testDirFlag
	}
	if numberOfIssuesFlag >= 0 {
		cfg.Project.NumberOfIssues = numberOfIssuesFlag
	}
	if reportFileFlag != "" {
		cfg.Output.ReportFile = reportFileFlag
	}
	if outputFileFlag != "" {
		cfg.Output.File = outputFileFlag
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openReport opens the runner report for reading, stdin when "-".
func openReport(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open report file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
