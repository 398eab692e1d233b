package config

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/actionqueue/internal/logging"
)

const testConfigFile = "/home/test/.config/actionqueue/config.yaml"

// setupViper resets viper onto an in-memory filesystem holding contents at
// testConfigFile. An empty contents string skips writing the file.
func setupViper(t *testing.T, contents string) afero.Fs {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	fs := afero.NewMemMapFs()
	viper.SetFs(fs)
	SetDefaults()

	if contents == "" {
		return fs
	}
	writeConfig(t, fs, contents)
	viper.SetConfigFile(testConfigFile)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}
	return fs
}

func writeConfig(t *testing.T, fs afero.Fs, contents string) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(testConfigFile), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := afero.WriteFile(fs, testConfigFile, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}
	if cfg.Queue.Concurrency != 1 {
		t.Errorf("Queue.Concurrency = %d, want 1", cfg.Queue.Concurrency)
	}
	if cfg.Queue.StartPaused {
		t.Error("Queue.StartPaused should be false by default")
	}
	if cfg.Scaling.Enabled {
		t.Error("Scaling.Enabled should be false by default")
	}
	if cfg.Scaling.MaxConcurrency != 8 {
		t.Errorf("Scaling.MaxConcurrency = %d, want 8", cfg.Scaling.MaxConcurrency)
	}
	if cfg.Scaling.Cooldown != 5*time.Second {
		t.Errorf("Scaling.Cooldown = %v, want 5s", cfg.Scaling.Cooldown)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Demo.Actions != 5 || cfg.Demo.Delay != time.Second {
		t.Errorf("Demo = %+v, want 5 actions at 1s", cfg.Demo)
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("default config should be valid, got %v", errs)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setupViper(t, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load() without a file mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_FromFile(t *testing.T) {
	setupViper(t, `
queue:
  concurrency: 3
  start_paused: true
scaling:
  enabled: true
  max_concurrency: 12
  cooldown: 250ms
logging:
  level: debug
  dir: /var/log/actionqueue
demo:
  actions: 2
  delay: 50ms
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := Default()
	want.Queue = QueueConfig{Concurrency: 3, StartPaused: true}
	want.Scaling.Enabled = true
	want.Scaling.MaxConcurrency = 12
	want.Scaling.Cooldown = 250 * time.Millisecond
	want.Logging = LoggingConfig{Level: "debug", Dir: "/var/log/actionqueue"}
	want.Demo = DemoConfig{Actions: 2, Delay: 50 * time.Millisecond}

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	setupViper(t, "queue:\n  concurrency: 2\n")
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	t.Setenv("ACTIONQUEUE_QUEUE_CONCURRENCY", "6")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Queue.Concurrency != 6 {
		t.Errorf("Queue.Concurrency = %d, want 6 from the environment", cfg.Queue.Concurrency)
	}
}

func TestLoad_Invalid(t *testing.T) {
	setupViper(t, "queue:\n  concurrency: 0\nlogging:\n  level: loud\n")

	_, err := Load()
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("err = %v, want ValidationErrors", err)
	}
	if len(verrs) != 2 {
		t.Fatalf("expected 2 validation errors, got %d: %v", len(verrs), verrs)
	}
	if verrs[0].Field != "queue.concurrency" || verrs[1].Field != "logging.level" {
		t.Errorf("fields = %q, %q", verrs[0].Field, verrs[1].Field)
	}
}

func TestGet_FallsBackToDefaults(t *testing.T) {
	setupViper(t, "queue:\n  concurrency: -1\n")

	if diff := cmp.Diff(Default(), Get()); diff != "" {
		t.Errorf("Get() on invalid config mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleChange(t *testing.T) {
	fs := setupViper(t, "queue:\n  concurrency: 1\n")

	var buf bytes.Buffer
	logger := logging.NewWriterLogger(&buf, "debug")

	var got []*Config
	onChange := func(c *Config) { got = append(got, c) }

	writeConfig(t, fs, "queue:\n  concurrency: 4\n")
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}
	handleChange(fsnotify.Event{Name: testConfigFile, Op: fsnotify.Write}, logger, onChange)

	if len(got) != 1 || got[0].Queue.Concurrency != 4 {
		t.Fatalf("onChange calls = %+v, want one with concurrency 4", got)
	}
	if !strings.Contains(buf.String(), "config reloaded") {
		t.Errorf("expected reload to be logged, got %q", buf.String())
	}
}

func TestHandleChange_InvalidIsSkipped(t *testing.T) {
	fs := setupViper(t, "queue:\n  concurrency: 2\n")

	var buf bytes.Buffer
	logger := logging.NewWriterLogger(&buf, "debug")

	called := false
	writeConfig(t, fs, "queue:\n  concurrency: 0\n")
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}
	handleChange(fsnotify.Event{Name: testConfigFile, Op: fsnotify.Write}, logger, func(*Config) { called = true })

	if called {
		t.Error("onChange must not be called for an invalid config")
	}
	if !strings.Contains(buf.String(), "ignoring invalid config change") {
		t.Errorf("expected a warning, got %q", buf.String())
	}
}

func TestHandleChange_IgnoresOtherOps(t *testing.T) {
	setupViper(t, "queue:\n  concurrency: 2\n")

	called := false
	handleChange(fsnotify.Event{Name: testConfigFile, Op: fsnotify.Chmod}, nil, func(*Config) { called = true })
	handleChange(fsnotify.Event{Name: testConfigFile, Op: fsnotify.Remove}, nil, func(*Config) { called = true })

	if called {
		t.Error("onChange should only run for writes and creates")
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		if got := ConfigDir(); got != "/custom/config/actionqueue" {
			t.Errorf("ConfigDir() = %q, want /custom/config/actionqueue", got)
		}
		if got := ConfigFile(); got != "/custom/config/actionqueue/config.yaml" {
			t.Errorf("ConfigFile() = %q", got)
		}
	})

	t.Run("home fallback", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("HOME", home)
		want := filepath.Join(home, ".config", "actionqueue")
		if got := ConfigDir(); got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
	})
}
