package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/k1LoW/expand"
)

const appName = "menufixture"

type Config struct {
	// Output path of the fixture
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
	// JPEG quality (1-100)
	Quality *int `yaml:"quality,omitempty" json:"quality,omitempty"`
	// Font locators (file paths or URLs) tried before the system fonts
	Fonts []string `yaml:"fonts,omitempty" json:"fonts,omitempty"`
	// Whether to skip the system fonts
	BuiltinFont *bool `yaml:"builtinFont,omitempty" json:"builtinFont,omitempty"`

	path string
}

// Path returns the path of the loaded config file, or an empty string if no file was found.
func (c *Config) Path() string {
	return c.path
}

// Load loads the configuration from the config file.
// It searches for config files in the following order:
// 1. $XDG_CONFIG_HOME/menufixture/config-{profile}.yml
// 2. $XDG_CONFIG_HOME/menufixture/config.yml
// If no config file is found, it returns an empty Config struct.
// Environment variables in the file are expanded.
func Load(profile string) (*Config, error) {
	cfg := &Config{}
	for _, configPath := range Candidates(profile) {
		b, err := os.ReadFile(configPath)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(expand.ExpandenvYAMLBytes(b), cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config %s: %w", configPath, err)
		}
		cfg.path = configPath
		return cfg, nil
	}
	return cfg, nil
}

// Candidates returns the config file paths in lookup order.
func Candidates(profile string) []string {
	var configBasePaths []string
	if profile != "" {
		configBasePaths = append(configBasePaths, filepath.Join(ConfigHomePath(), fmt.Sprintf("config-%s", profile)))
	}
	configBasePaths = append(configBasePaths, filepath.Join(ConfigHomePath(), "config"))
	var paths []string
	for _, basePath := range configBasePaths {
		for _, ext := range []string{".yml", ".yaml"} {
			paths = append(paths, basePath+ext)
		}
	}
	return paths
}

// ConfigHomePath returns the path to the configuration directory.
func ConfigHomePath() string {
	return xdgPath("XDG_CONFIG_HOME", ".config")
}

// DataHomePath returns the path to the data home directory.
func DataHomePath() string {
	return xdgPath("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func StateHomePath() string {
	return xdgPath("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func xdgPath(env, fallback string) string {
	if v := os.Getenv(env); v != "" {
		return filepath.Join(v, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName)
	}
	return filepath.Join(home, fallback, appName)
}
