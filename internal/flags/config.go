package flags

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigError reports a problem with the feature flag configuration file.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("could not parse feature flag configuration file: %s", e.Message)
	}
	return fmt.Sprintf("could not parse feature flag configuration file: %q: %s", e.Field, e.Message)
}

type flagConfig struct {
	IsEnabled bool `yaml:"is_enabled"`
}

// Config is the on-disk feature flag configuration.
//
// The file looks like:
//
//	version: 1
//	flags:
//	  very-cool-feature:
//	    is_enabled: false
type Config struct {
	Version int                   `yaml:"version"`
	Flags   map[string]flagConfig `yaml:"flags"`
}

// LoadConfig reads and validates a feature flag configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	if len(data) == 0 {
		return Config{}, &ConfigError{Message: "the file is empty"}
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, &ConfigError{Message: err.Error()}
	}
	if len(raw) == 0 {
		return Config{}, &ConfigError{Message: "the file does not contain any fields"}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &ConfigError{Message: err.Error()}
	}

	if cfg.Version == 0 {
		return Config{}, &ConfigError{Field: "version", Message: "field required"}
	}

	return cfg, nil
}

// Setup loads the configuration file at path and returns a flagger with
// the declared flags registered.
func Setup(path string, enabled bool) (*Flagger, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	flagger := NewFlagger(enabled)
	for name, settings := range cfg.Flags {
		flagger.Create(name, settings.IsEnabled)
	}

	return flagger, nil
}
