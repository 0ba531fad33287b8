package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/raphaelgruber/knowbot/internal/metrics"
	"github.com/raphaelgruber/knowbot/internal/models"
)

// Theme holds the color scheme for terminal output.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
	Bot     lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
	Bot:     lipgloss.Color("#AF87FF"), // purple
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status).Bold(true)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) botStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Bot)
}

// printer writes command output, styled only when it goes to a terminal.
// tty also enables the interactive spinner.
type printer struct {
	w     io.Writer
	theme Theme
	tty   bool
	color bool
}

func (e *env) printer(cmd *cobra.Command) *printer {
	w := cmd.OutOrStdout()
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	color := tty && !e.noColor && os.Getenv("NO_COLOR") == ""
	return &printer{w: w, theme: defaultTheme, tty: tty, color: color}
}

func (p *printer) render(style lipgloss.Style, s string) string {
	if !p.color {
		return s
	}
	return style.Render(s)
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *printer) heading(s string) {
	p.printf("%s\n", p.render(p.theme.statusStyle(), s))
}

func (p *printer) success(format string, args ...any) {
	p.printf("%s\n", p.render(p.theme.completedStyle(), fmt.Sprintf(format, args...)))
}

func (p *printer) warn(format string, args ...any) {
	p.printf("%s\n", p.render(p.theme.errorStyle(), fmt.Sprintf(format, args...)))
}

func (p *printer) hint(format string, args ...any) {
	p.printf("%s\n", p.render(p.theme.hintStyle(), fmt.Sprintf(format, args...)))
}

func (p *printer) conversation(c models.Conversation) {
	archived := ""
	if c.Archived {
		archived = p.render(p.theme.hintStyle(), " (archived)")
	}
	p.printf("  %-15s %s%s  %s\n", c.ID, c.Title, archived,
		p.render(p.theme.hintStyle(), formatMillis(c.LastUpdated)))
}

func (p *printer) message(m models.Message) {
	switch m.Sender {
	case models.SenderBot:
		p.printf("%s %s\n", p.render(p.theme.botStyle(), "Bot:"), m.Text)
	default:
		p.printf("%s %s\n", p.render(p.theme.statusStyle(), "You:"), m.Text)
	}
}

func (p *printer) project(pr models.Project) {
	p.printf("  %-22s %s  %s\n", pr.ID, pr.Name,
		p.render(p.theme.hintStyle(), fmt.Sprintf("%d conversations, %d files", len(pr.ConversationIDs), len(pr.Files))))
}

// opStats displays timing statistics for an operation.
func (p *printer) opStats(name string, op *metrics.OperationSnapshot) {
	if op == nil {
		return
	}
	p.printf("\n%s:\n", name)
	p.printf("  Calls: %d, Errors: %d, Total: %dms\n", op.Count, op.Errors, op.TotalTimeMs)
	p.printf("  Time: avg %.1fms, min %dms, max %dms\n", op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}
