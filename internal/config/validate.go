package config

import "fmt"

// Validate checks configuration values that would otherwise fail deep inside
// the pipeline.
func Validate(cfg *Config) error {
	if cfg.Project.Root == "" {
		return fmt.Errorf("project.root must not be empty")
	}
	if cfg.Project.TestDir == "" {
		return fmt.Errorf("project.test_dir must not be empty")
	}
	if cfg.Project.NumberOfIssues < 0 {
		return fmt.Errorf("project.number_of_issues cannot be negative, got %d", cfg.Project.NumberOfIssues)
	}
	if cfg.Output.File == "" {
		return fmt.Errorf("output.file must not be empty")
	}
	return nil
}
