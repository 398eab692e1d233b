package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/actionqueue/internal/logging"
)

const testLog = `{"time":"2024-01-02T10:00:00Z","level":"INFO","msg":"action started","session_id":"abc123","queue":"demo","id":1}
not a json line
{"time":"2024-01-02T10:00:01Z","level":"WARN","msg":"concurrency clamped","session_id":"abc123","queue":"demo","requested":0}
{"time":"2024-01-02T10:00:02Z","level":"ERROR","msg":"action panicked","session_id":"def456","queue":"demo","id":3}
`

// writeTestLog writes testLog into /logs on the shared test filesystem and
// points logging.dir at it.
func writeTestLog(t *testing.T) string {
	t.Helper()

	fs := setupTestEnvironment(t)
	path := filepath.Join("/logs", logging.LogFileName)
	if err := afero.WriteFile(fs, path, []byte(testLog), 0o644); err != nil {
		t.Fatal(err)
	}
	viper.Set("logging.dir", "/logs")
	return path
}

func resetLogFlags(t *testing.T) {
	t.Cleanup(func() {
		for _, name := range []string{"run", "level", "since", "grep"} {
			_ = logsCmd.Flags().Set(name, "")
		}
		_ = logsCmd.Flags().Set("tail", "50")
	})
}

func TestLogsCommand_NoDir(t *testing.T) {
	setupTestEnvironment(t)

	out, err := executeCommand(rootCmd, "logs")
	if err != nil {
		t.Fatalf("logs error = %v", err)
	}
	if !strings.Contains(out, "set logging.dir") {
		t.Errorf("output = %q", out)
	}
}

func TestLogsCommand_MissingFile(t *testing.T) {
	setupTestEnvironment(t)
	viper.Set("logging.dir", "/nowhere")

	out, err := executeCommand(rootCmd, "logs")
	if err != nil {
		t.Fatalf("logs error = %v", err)
	}
	if !strings.Contains(out, "No logs found") {
		t.Errorf("output = %q", out)
	}
}

func TestLogsCommand_Filters(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name: "all",
			args: nil,
			want: []string{"action started", "not a json line", "concurrency clamped", "action panicked"},
		},
		{
			name:    "level",
			args:    []string{"--level", "warn"},
			want:    []string{"concurrency clamped", "action panicked"},
			notWant: []string{"action started"},
		},
		{
			name:    "run prefix",
			args:    []string{"--run", "abc"},
			want:    []string{"action started", "concurrency clamped"},
			notWant: []string{"action panicked"},
		},
		{
			name:    "grep",
			args:    []string{"--grep", "panick"},
			want:    []string{"action panicked"},
			notWant: []string{"action started", "concurrency clamped"},
		},
		{
			name:    "tail",
			args:    []string{"-n", "1"},
			want:    []string{"action panicked"},
			notWant: []string{"action started", "not a json line", "concurrency clamped"},
		},
		{
			name:    "since",
			args:    []string{"--since", "1h"},
			notWant: []string{"action started", "concurrency clamped", "action panicked"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeTestLog(t)
			resetLogFlags(t)

			out, err := executeCommand(rootCmd, append([]string{"logs"}, tt.args...)...)
			if err != nil {
				t.Fatalf("logs error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(out, nw) {
					t.Errorf("output should not contain %q:\n%s", nw, out)
				}
			}
		})
	}
}

func TestLogsCommand_InvalidFlags(t *testing.T) {
	writeTestLog(t)
	resetLogFlags(t)

	if _, err := executeCommand(rootCmd, "logs", "--since", "yesterday"); err == nil {
		t.Error("expected error for invalid --since")
	}
	_ = logsCmd.Flags().Set("since", "")
	if _, err := executeCommand(rootCmd, "logs", "--grep", "("); err == nil {
		t.Error("expected error for invalid --grep")
	}
}

func TestDisplayLogs_NoMatches(t *testing.T) {
	path := writeTestLog(t)

	filter, err := parseLogFilter("zzz", "", "", "^nothing$")
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := displayLogs(&buf, path, 0, filter); err != nil {
		t.Fatalf("displayLogs error = %v", err)
	}
	// The unparseable line always passes through.
	if !strings.Contains(buf.String(), "not a json line") {
		t.Errorf("raw lines should be shown:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "action") {
		t.Errorf("no entries should match:\n%s", buf.String())
	}
}

func TestLogEntry_UnmarshalJSON(t *testing.T) {
	var entry logEntry
	line := `{"time":"2024-01-02T10:00:00Z","level":"INFO","msg":"hi","session_id":"s","queue":"q","b":2,"a":"x"}`
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatal(err)
	}

	if entry.Msg != "hi" || entry.SessionID != "s" || entry.Queue != "q" {
		t.Errorf("known fields = %+v", entry)
	}
	if len(entry.Extra) != 2 || entry.Extra["a"] != "x" {
		t.Errorf("Extra = %v, want a and b only", entry.Extra)
	}

	formatted := formatLogEntry(&entry)
	if a, b := strings.Index(formatted, "a="), strings.Index(formatted, "b="); a < 0 || a > b {
		t.Errorf("extras should be sorted by key: %q", formatted)
	}
	if !strings.Contains(formatted, "queue=q") || !strings.Contains(formatted, "[INFO]") {
		t.Errorf("formatted = %q", formatted)
	}
}

func TestLevelPriority(t *testing.T) {
	tests := []struct {
		level string
		want  int
	}{
		{"DEBUG", 0},
		{"info", 1},
		{"WARN", 2},
		{"error", 3},
		{"trace", -1},
	}
	for _, tt := range tests {
		if got := levelPriority(tt.level); got != tt.want {
			t.Errorf("levelPriority(%q) = %d, want %d", tt.level, got, tt.want)
		}
	}
}
