package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the terminal colour scheme.
type Theme struct {
	Primary lipgloss.Color
	Dim     lipgloss.Color
	Warn    lipgloss.Color
	Error   lipgloss.Color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Warn:    lipgloss.Color("#ffb86c"),
	Error:   lipgloss.Color("#ff5555"),
}

// Styles holds the styles derived from a theme.
type Styles struct {
	Title lipgloss.Style
	Label lipgloss.Style
	Value lipgloss.Style
	Dim   lipgloss.Style
	Warn  lipgloss.Style
	Error lipgloss.Style
	Box   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label: lipgloss.NewStyle().Bold(true),
		Value: lipgloss.NewStyle(),
		Dim:   lipgloss.NewStyle().Foreground(t.Dim),
		Warn:  lipgloss.NewStyle().Foreground(t.Warn),
		Error: lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Primary).
			Padding(0, 1),
	}
}

var styles = NewStyles(DefaultTheme)

// Field is one labelled line of a Panel.
type Field struct {
	Label string
	Value string
}

// Panel is a titled box of aligned label/value lines.
type Panel struct {
	Title  string
	Fields []Field
	Footer string
}

// Render draws the panel with s.
func (p Panel) Render(s Styles) string {
	width := 0
	for _, f := range p.Fields {
		width = max(width, lipgloss.Width(f.Label))
	}

	lines := []string{s.Title.Render(p.Title), ""}
	for _, f := range p.Fields {
		pad := strings.Repeat(" ", width-lipgloss.Width(f.Label))
		lines = append(lines, s.Label.Render(f.Label)+pad+"  "+s.Value.Render(f.Value))
	}
	if p.Footer != "" {
		lines = append(lines, "", s.Dim.Render(p.Footer))
	}
	return s.Box.Render(strings.Join(lines, "\n"))
}

// PrintPanel writes p to w with the default styles.
func PrintPanel(w io.Writer, p Panel) {
	fmt.Fprintln(w, p.Render(styles))
}

// PrintSuccess prints a success message with checkmark.
func PrintSuccess(format string, args ...any) {
	fmt.Println(styles.Title.Render("✓") + " " + fmt.Sprintf(format, args...))
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintln(os.Stderr, styles.Error.Render("Error:")+" "+fmt.Sprintf(format, args...))
}

// PrintInfo prints an info message.
func PrintInfo(format string, args ...any) {
	fmt.Println(styles.Dim.Render("ℹ") + " " + fmt.Sprintf(format, args...))
}

// PrintWarning prints a warning message.
func PrintWarning(format string, args ...any) {
	fmt.Println(styles.Warn.Render("⚠") + " " + fmt.Sprintf(format, args...))
}
