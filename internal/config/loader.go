package config

import (
	"errors"
	"fmt"
	"os"

	"bootmatch/pkg/logging"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads the configuration file at path over the defaults.
// A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	config := GetDefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No configuration found at %s, using defaults", path)
			return config, nil
		}
		return Config{}, &ConfigurationError{FilePath: path, ErrorType: "io", Message: err.Error()}
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, &ConfigurationError{
			FilePath:    path,
			ErrorType:   "parse",
			Message:     err.Error(),
			Suggestions: []string{"check the YAML syntax", "durations are written like 1s or 500ms"},
		}
	}

	if errs := Validate(config); errs.HasErrors() {
		return Config{}, &ConfigurationError{FilePath: path, ErrorType: "validation", Message: errs.Error()}
	}

	logging.Info("ConfigLoader", "Loaded configuration from %s", path)
	return config, nil
}

// MustExist returns an error when the configuration directory is missing,
// which would otherwise surface later as a confusing store error.
func (c Config) MustExist() error {
	info, err := os.Stat(c.ConfigDir)
	if err != nil {
		return fmt.Errorf("configuration directory %s: %w", c.ConfigDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("configuration directory %s is not a directory", c.ConfigDir)
	}
	return nil
}
