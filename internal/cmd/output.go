package cmd

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var (
	primaryColor = lipgloss.Color("#A78BFA") // Purple
	successColor = lipgloss.Color("#10B981") // Green
	warningColor = lipgloss.Color("#F59E0B") // Amber
	errorColor   = lipgloss.Color("#F87171") // Red
	mutedColor   = lipgloss.Color("#9CA3AF") // Gray
	pausedColor  = lipgloss.Color("#60A5FA") // Blue

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	successStyle = lipgloss.NewStyle().Foreground(successColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	pausedStyle  = lipgloss.NewStyle().Foreground(pausedColor)
)

// maxLineWidth bounds how wide a single output line may get.
const maxLineWidth = 100

// printer serializes styled lines from concurrent goroutines.
type printer struct {
	mu sync.Mutex
	w  io.Writer
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

func (p *printer) line(style lipgloss.Style, format string, args ...any) {
	s := truncate(fmt.Sprintf(format, args...), maxLineWidth)
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, style.Render(s))
}

func (p *printer) title(format string, args ...any)   { p.line(titleStyle, format, args...) }
func (p *printer) success(format string, args ...any) { p.line(successStyle, format, args...) }
func (p *printer) warn(format string, args ...any)    { p.line(warningStyle, format, args...) }
func (p *printer) fail(format string, args ...any)    { p.line(errorStyle, format, args...) }
func (p *printer) muted(format string, args ...any)   { p.line(mutedStyle, format, args...) }
func (p *printer) paused(format string, args ...any)  { p.line(pausedStyle, format, args...) }

// truncate shortens s to maxWidth visual columns, adding "..." if truncated.
// ANSI escape codes and wide characters are accounted for.
func truncate(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	return ansi.Truncate(s, maxWidth, "...")
}
