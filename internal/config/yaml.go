package config

import (
	"gopkg.in/yaml.v3"
)

// YAML renders the configuration in the config file format. Durations are
// written as strings such as "5s" so the output can be read back by Load.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// MarshalYAML implements yaml.Marshaler.
func (s ScalingConfig) MarshalYAML() (any, error) {
	return struct {
		Enabled            bool   `yaml:"enabled"`
		MinConcurrency     int    `yaml:"min_concurrency"`
		MaxConcurrency     int    `yaml:"max_concurrency"`
		ScaleUpThreshold   int    `yaml:"scale_up_threshold"`
		ScaleDownThreshold int    `yaml:"scale_down_threshold"`
		Cooldown           string `yaml:"cooldown"`
	}{
		Enabled:            s.Enabled,
		MinConcurrency:     s.MinConcurrency,
		MaxConcurrency:     s.MaxConcurrency,
		ScaleUpThreshold:   s.ScaleUpThreshold,
		ScaleDownThreshold: s.ScaleDownThreshold,
		Cooldown:           s.Cooldown.String(),
	}, nil
}

// MarshalYAML implements yaml.Marshaler.
func (d DemoConfig) MarshalYAML() (any, error) {
	return struct {
		Actions int    `yaml:"actions"`
		Delay   string `yaml:"delay"`
	}{
		Actions: d.Actions,
		Delay:   d.Delay.String(),
	}, nil
}
