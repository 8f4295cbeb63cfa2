package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// uiOut receives human-readable command output. Logs go to the logger's
// writer instead.
var uiOut io.Writer = os.Stdout

// Palette. ANSI 256 codes chosen to read on dark and light terminals.
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

func fg(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

var (
	StyleTitle   = fg(colorCyan).Bold(true)
	StyleLink    = fg(colorBlue).Underline(true)
	StyleDim     = fg(colorDim)
	StyleValue   = fg(colorWhite)
	StyleSuccess = fg(colorGreen)
	StyleWarning = fg(colorYellow)
	StyleError   = fg(colorRed)

	styleIconSpinner = fg(colorCyan)
	styleHeader      = fg(colorGray).Bold(true)
	styleLabel       = fg(colorGray).Width(12)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconArrow   = "→"
)

// statusKinds pairs each status line kind with its icon and styles.
var statusKinds = map[string]struct {
	icon      string
	iconStyle lipgloss.Style
	textStyle lipgloss.Style
}{
	"success": {iconSuccess, StyleSuccess, lipgloss.NewStyle()},
	"error":   {iconError, StyleError, lipgloss.NewStyle()},
	"warning": {"!", StyleWarning, StyleWarning},
	"info":    {"›", fg(colorGray), lipgloss.NewStyle()},
}

func printStatus(kind, format string, args ...any) {
	k := statusKinds[kind]
	fmt.Fprintln(uiOut, k.iconStyle.Render(k.icon)+" "+k.textStyle.Render(fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...any) { printStatus("success", format, args...) }
func printError(format string, args ...any)   { printStatus("error", format, args...) }
func printWarning(format string, args ...any) { printStatus("warning", format, args...) }
func printInfo(format string, args ...any)    { printStatus("info", format, args...) }

// printDetail prints an indented dim line under a status line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(uiOut, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints "→ path" for a file the command wrote.
func printFile(path string) {
	fmt.Fprintln(uiOut, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(uiOut, styleLabel.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints facts separated by dots and ends with "cached" or
// "fresh". Empty facts are skipped.
func printStats(cached bool, facts ...string) {
	sep := StyleDim.Render(" · ")
	var line []string
	for _, f := range facts {
		if f != "" {
			line = append(line, StyleDim.Render(f))
		}
	}
	if cached {
		line = append(line, StyleSuccess.Render("cached"))
	} else {
		line = append(line, fg(colorGray).Render("fresh"))
	}
	fmt.Fprintln(uiOut, "  "+strings.Join(line, sep))
}

// newTable returns a rounded, padded table with bold gray headers.
func newTable(headers ...string) *table.Table {
	cell := lipgloss.NewStyle().Padding(0, 1)
	head := styleHeader.Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == -1 {
				return head
			}
			return cell
		})
}

// humanSize formats a byte count with binary units: 512 B, 1.5 KB, 2.0 MB.
func humanSize(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	v := float64(n)
	unit := ""
	for _, u := range []string{"KB", "MB", "GB", "TB"} {
		v /= 1024
		unit = u
		if v < 1024 {
			break
		}
	}
	return fmt.Sprintf("%.1f %s", v, unit)
}

// truncate shortens s to at most n runes, ending in "…" when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	switch {
	case len(r) <= n:
		return s
	case n <= 1:
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
