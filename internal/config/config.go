package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/actionqueue/internal/logging"
)

// EnvPrefix is prepended to environment variable overrides, e.g.
// ACTIONQUEUE_QUEUE_CONCURRENCY for queue.concurrency.
const EnvPrefix = "ACTIONQUEUE"

// Config represents the complete actionqueue configuration
type Config struct {
	Queue   QueueConfig   `mapstructure:"queue" yaml:"queue"`
	Scaling ScalingConfig `mapstructure:"scaling" yaml:"scaling"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Demo    DemoConfig    `mapstructure:"demo" yaml:"demo"`
}

// QueueConfig controls the queue itself
type QueueConfig struct {
	// Concurrency is the maximum number of actions running at once (default: 1)
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
	// StartPaused builds the queue paused; nothing runs until it is resumed (default: false)
	StartPaused bool `mapstructure:"start_paused" yaml:"start_paused"`
}

// ScalingConfig controls depth-based concurrency scaling
type ScalingConfig struct {
	// Enabled attaches a scaling monitor to the queue (default: false)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// MinConcurrency is the lowest limit scaling will set (default: 1)
	MinConcurrency int `mapstructure:"min_concurrency" yaml:"min_concurrency"`
	// MaxConcurrency is the highest limit scaling will set (default: 8)
	MaxConcurrency int `mapstructure:"max_concurrency" yaml:"max_concurrency"`
	// ScaleUpThreshold is the pending count above which the limit grows (default: 2)
	ScaleUpThreshold int `mapstructure:"scale_up_threshold" yaml:"scale_up_threshold"`
	// ScaleDownThreshold is the running count at or below which an empty queue shrinks (default: 1)
	ScaleDownThreshold int `mapstructure:"scale_down_threshold" yaml:"scale_down_threshold"`
	// Cooldown is the minimum time between scaling decisions (default: 5s)
	Cooldown time.Duration `mapstructure:"cooldown" yaml:"cooldown"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
	// Dir is the directory for queue.log; empty logs to stderr
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// DemoConfig controls the demo command
type DemoConfig struct {
	// Actions is the number of delayed actions enqueued after the first one (default: 5)
	Actions int `mapstructure:"actions" yaml:"actions"`
	// Delay is how long each delayed action takes (default: 1s)
	Delay time.Duration `mapstructure:"delay" yaml:"delay"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Queue: QueueConfig{
			Concurrency: 1,
			StartPaused: false,
		},
		Scaling: ScalingConfig{
			Enabled:            false,
			MinConcurrency:     1,
			MaxConcurrency:     8,
			ScaleUpThreshold:   2,
			ScaleDownThreshold: 1,
			Cooldown:           5 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "", // stderr
		},
		Demo: DemoConfig{
			Actions: 5,
			Delay:   time.Second,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Queue defaults
	viper.SetDefault("queue.concurrency", defaults.Queue.Concurrency)
	viper.SetDefault("queue.start_paused", defaults.Queue.StartPaused)

	// Scaling defaults
	viper.SetDefault("scaling.enabled", defaults.Scaling.Enabled)
	viper.SetDefault("scaling.min_concurrency", defaults.Scaling.MinConcurrency)
	viper.SetDefault("scaling.max_concurrency", defaults.Scaling.MaxConcurrency)
	viper.SetDefault("scaling.scale_up_threshold", defaults.Scaling.ScaleUpThreshold)
	viper.SetDefault("scaling.scale_down_threshold", defaults.Scaling.ScaleDownThreshold)
	viper.SetDefault("scaling.cooldown", defaults.Scaling.Cooldown.String())

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)

	// Demo defaults
	viper.SetDefault("demo.actions", defaults.Demo.Actions)
	viper.SetDefault("demo.delay", defaults.Demo.Delay.String())
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// Watch reloads the configuration whenever viper's config file changes and
// passes each valid result to onChange. Invalid configurations are logged
// and skipped. It requires a config file to have been read.
func Watch(logger *logging.Logger, onChange func(*Config)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		handleChange(e, logger, onChange)
	})
	viper.WatchConfig()
}

func handleChange(e fsnotify.Event, logger *logging.Logger, onChange func(*Config)) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return
	}

	cfg, err := Load()
	if err != nil {
		logger.Warn("ignoring invalid config change", "file", e.Name, "error", err.Error())
		return
	}
	logger.Info("config reloaded", "file", e.Name)
	onChange(cfg)
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "actionqueue")
	}
	// Fall back to ~/.config/actionqueue
	home, err := os.UserHomeDir()
	if err != nil {
		return ".actionqueue"
	}
	return filepath.Join(home, ".config", "actionqueue")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
