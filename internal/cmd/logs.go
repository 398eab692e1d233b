package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/actionqueue/internal/config"
	"github.com/Iron-Ham/actionqueue/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View queue logs",
	Long: `View and filter the queue log written to logging.dir.

Examples:
  # Show the last 50 lines
  actionqueue logs

  # Show everything from one demo run
  actionqueue logs --run 1a2b3c4d -n 0

  # Follow logs in real-time
  actionqueue logs -f

  # Filter by log level
  actionqueue logs --level warn

  # Show logs from the last hour
  actionqueue logs --since 1h

  # Search for specific patterns
  actionqueue logs --grep "cleared|panicked"`,
	RunE: runLogs,
}

var (
	logsRunID  string
	logsTail   int
	logsFollow bool
	logsLevel  string
	logsSince  string
	logsGrep   string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().StringVar(&logsRunID, "run", "", "Only show entries from runs whose ID starts with this prefix")
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of lines to show (0 for all)")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output (like tail -f)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show logs since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter logs matching pattern (regex)")
}

// logEntry represents a parsed JSON log line
type logEntry struct {
	Time      time.Time      `json:"time"`
	Level     string         `json:"level"`
	Msg       string         `json:"msg"`
	SessionID string         `json:"session_id,omitempty"`
	Queue     string         `json:"queue,omitempty"`
	Extra     map[string]any `json:"-"` // Captures additional fields
}

// UnmarshalJSON implements custom unmarshaling to capture extra fields
func (e *logEntry) UnmarshalJSON(data []byte) error {
	// First, unmarshal known fields using a type alias to avoid recursion
	type Alias logEntry
	aux := &struct {
		*Alias
	}{
		Alias: (*Alias)(e),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	// Then unmarshal all fields to capture extras
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	// Remove known fields, keep the rest as extra
	for _, known := range []string{"time", "level", "msg", "session_id", "queue"} {
		delete(all, known)
	}

	if len(all) > 0 {
		e.Extra = all
	}

	return nil
}

// logFilter holds the parsed filter flags
type logFilter struct {
	runID    string
	minLevel int
	since    time.Time
	grep     *regexp.Regexp
}

// levelStyle returns the style for a log level
func levelStyle(level string) lipgloss.Style {
	switch strings.ToUpper(level) {
	case logging.LevelDebug:
		return mutedStyle
	case logging.LevelInfo:
		return pausedStyle
	case logging.LevelWarn:
		return warningStyle
	case logging.LevelError:
		return errorStyle
	default:
		return lipgloss.NewStyle()
	}
}

// levelPriority returns the priority of a log level for filtering
func levelPriority(level string) int {
	switch strings.ToUpper(level) {
	case logging.LevelDebug:
		return 0
	case logging.LevelInfo:
		return 1
	case logging.LevelWarn:
		return 2
	case logging.LevelError:
		return 3
	default:
		return -1
	}
}

// formatLogEntry formats a log entry for terminal output. Extra fields are
// sorted by key so output is stable.
func formatLogEntry(entry *logEntry) string {
	var sb strings.Builder

	sb.WriteString(mutedStyle.Render("[" + entry.Time.Format("15:04:05.000") + "]"))
	sb.WriteString(" ")
	sb.WriteString(levelStyle(entry.Level).Render("[" + strings.ToUpper(entry.Level) + "]"))
	sb.WriteString(" ")
	sb.WriteString(entry.Msg)

	if entry.Queue != "" {
		sb.WriteString(" ")
		sb.WriteString(titleStyle.Render("queue=" + entry.Queue))
	}

	keys := make([]string, 0, len(entry.Extra))
	for key := range entry.Extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		sb.WriteString(" ")
		sb.WriteString(titleStyle.Render(key + "="))
		sb.WriteString(fmt.Sprintf("%v", entry.Extra[key]))
	}

	return sb.String()
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	out := cmd.OutOrStdout()

	if cfg.Logging.Dir == "" {
		fmt.Fprintln(out, "Logging goes to stderr; set logging.dir to keep a log file.")
		return nil
	}
	logPath := filepath.Join(cfg.Logging.Dir, logging.LogFileName)

	if exists, _ := afero.Exists(configFs, logPath); !exists {
		fmt.Fprintf(out, "No logs found at %s\n", logPath)
		return nil
	}

	filter, err := parseLogFilter(logsRunID, logsLevel, logsSince, logsGrep)
	if err != nil {
		return err
	}

	if logsFollow {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return followLogs(ctx, out, logPath, filter)
	}
	return displayLogs(out, logPath, logsTail, filter)
}

func parseLogFilter(runID, level, since, grep string) (logFilter, error) {
	f := logFilter{runID: runID, minLevel: -1}

	if level != "" {
		f.minLevel = levelPriority(logging.ParseLevel(level))
	}

	if since != "" {
		duration, err := time.ParseDuration(since)
		if err != nil {
			return f, fmt.Errorf("invalid duration format: %w", err)
		}
		f.since = time.Now().Add(-duration)
	}

	if grep != "" {
		re, err := regexp.Compile(grep)
		if err != nil {
			return f, fmt.Errorf("invalid grep pattern: %w", err)
		}
		f.grep = re
	}

	return f, nil
}

// displayLogs reads the log file and displays filtered entries
func displayLogs(out io.Writer, logPath string, tail int, filter logFilter) error {
	file, err := configFs.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	var entries []string
	scanner := bufio.NewScanner(file)

	// Increase buffer size for potentially long log lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		var entry logEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			// If we can't parse as JSON, display raw line
			entries = append(entries, line)
			continue
		}

		if !filter.passes(&entry) {
			continue
		}

		entries = append(entries, formatLogEntry(&entry))
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading log file: %w", err)
	}

	// Apply tail limit
	if tail > 0 && len(entries) > tail {
		entries = entries[len(entries)-tail:]
	}

	for _, entry := range entries {
		fmt.Fprintln(out, entry)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No matching log entries found.")
	}

	return nil
}

// followLogs implements tail -f behavior for the log file until ctx ends
func followLogs(ctx context.Context, out io.Writer, logPath string, filter logFilter) error {
	file, err := configFs.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	// Seek to end of file
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}

	fmt.Fprintf(out, "Following logs... (Ctrl+C to stop)\n\n")

	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return fmt.Errorf("error reading log file: %w", err)
			}
			// No new data, wait briefly and try again
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var entry logEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			fmt.Fprintln(out, line)
			continue
		}

		if filter.passes(&entry) {
			fmt.Fprintln(out, formatLogEntry(&entry))
		}
	}
}

// passes checks if a log entry passes all filter criteria
func (f logFilter) passes(entry *logEntry) bool {
	if f.runID != "" && !strings.HasPrefix(entry.SessionID, f.runID) {
		return false
	}

	if f.minLevel >= 0 && levelPriority(entry.Level) < f.minLevel {
		return false
	}

	if !f.since.IsZero() && entry.Time.Before(f.since) {
		return false
	}

	// Grep filter - search in message and extra fields
	if f.grep != nil {
		searchText := entry.Msg
		for _, v := range entry.Extra {
			searchText += " " + fmt.Sprintf("%v", v)
		}
		if !f.grep.MatchString(searchText) {
			return false
		}
	}

	return true
}
