package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the color scheme for terminal output.
type Theme struct {
	Header  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

var defaultTheme = Theme{
	Header:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) headerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Header).Bold(true)
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// printHeader prints a styled section header.
func printHeader(text string) {
	rule := defaultTheme.headerStyle().Render("════════════════════════════════════════")
	fmt.Println(rule)
	fmt.Println(defaultTheme.headerStyle().Render(" " + text))
	fmt.Println(rule)
}

func printSuccess(format string, args ...any) {
	fmt.Println(defaultTheme.successStyle().Render("✓ " + fmt.Sprintf(format, args...)))
}

func printFailure(format string, args ...any) {
	fmt.Println(defaultTheme.errorStyle().Render("✗ " + fmt.Sprintf(format, args...)))
}

func printHint(format string, args ...any) {
	fmt.Println(defaultTheme.hintStyle().Render(fmt.Sprintf(format, args...)))
}
