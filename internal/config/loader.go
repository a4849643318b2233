package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (FAILSCOPE_*)
// 2. Config file (.failscope/config.yml or .failscope/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".failscope")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("FAILSCOPE")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., FAILSCOPE_PROJECT_TEST_DIR)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("project.root")
	v.BindEnv("project.test_dir")
	v.BindEnv("project.number_of_issues")
	v.BindEnv("output.file")
	v.BindEnv("output.report_file")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults applies the Default() values to viper so unset keys fall back.
func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("project.root", def.Project.Root)
	v.SetDefault("project.test_dir", def.Project.TestDir)
	v.SetDefault("project.number_of_issues", def.Project.NumberOfIssues)
	v.SetDefault("project.ignore", def.Project.Ignore)
	v.SetDefault("output.file", def.Output.File)
	v.SetDefault("output.report_file", def.Output.ReportFile)
}
