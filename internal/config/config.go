package config

// Config represents the complete failscope configuration.
// It can be loaded from .failscope/config.yml with environment variable
// overrides.
type Config struct {
	Project Project `yaml:"project" mapstructure:"project"`
	Output  Output  `yaml:"output" mapstructure:"output"`
}

// Project describes the code under analysis.
type Project struct {
	Root           string   `yaml:"root" mapstructure:"root"`                         // project root directory
	TestDir        string   `yaml:"test_dir" mapstructure:"test_dir"`                 // directory containing tests
	NumberOfIssues int      `yaml:"number_of_issues" mapstructure:"number_of_issues"` // failures to include, 0 = all
	Ignore         []string `yaml:"ignore" mapstructure:"ignore"`                     // glob patterns to skip while indexing
}

// Output describes where results go and where the report comes from.
type Output struct {
	File       string `yaml:"file" mapstructure:"file"`               // output file path
	ReportFile string `yaml:"report_file" mapstructure:"report_file"` // unittest report path, "-" for stdin
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Project: Project{
			Root:           ".",
			TestDir:        "tests",
			NumberOfIssues: 1,
		},
		Output: Output{
			File:       "prompt.txt",
			ReportFile: "-",
		},
	}
}
