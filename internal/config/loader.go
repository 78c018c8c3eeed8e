package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".skinhistory"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .skinhistory configuration file.
type File struct {
	// Aliases map wiki names to the skin name they stand for,
	// e.g. "Young Ryze" -> "Ryze".
	Aliases map[string]string `yaml:"aliases,omitempty"`

	// IgnoredWarnings are wiki names that are known not to match any skin.
	IgnoredWarnings []string `yaml:"ignoredWarnings,omitempty"`

	// Substitutions map lower-cased character aliases to their site key.
	Substitutions map[string]string `yaml:"substitutions,omitempty"`

	// MinSupportedVersion overrides the oldest kept release, e.g. "7.1".
	MinSupportedVersion string `yaml:"minSupportedVersion,omitempty"`

	// Concurrency overrides the number of characters processed at once.
	Concurrency int `yaml:"concurrency,omitempty"`

	// Retries overrides the number of attempts per URL.
	Retries int `yaml:"retries,omitempty"`

	// DeployHook is the rebuild URL. Prefer the DEPLOY_HOOK variable for secrets.
	DeployHook string `yaml:"deployHook,omitempty"`
}

// LoadConfigFile loads the configuration file from path.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .skinhistory in the current directory
// 3. Look for .skinhistory in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// Load builds the effective configuration: defaults, then the config file
// found by FindConfigFile, then environment overrides.
// A missing file is only an error when configPath was given explicitly.
func Load(configPath string) (*Config, error) {
	cfg := NewConfig()
	cfg.ConfigFilePath = configPath

	path := FindConfigFile(configPath)
	if path == "" && configPath != "" {
		return nil, ErrConfigNotFound
	}
	if path != "" {
		f, err := LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		cfg.ApplyFile(f)
	}

	if err := cfg.ParseEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}
