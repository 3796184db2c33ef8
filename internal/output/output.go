// Package output renders Folio CLI status lines: colored on a real
// terminal, plain otherwise. Scoped to single-line status output and
// simple tables, since Folio's CLI has no interactive screen.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

const (
	colorLime = "154"
	colorRed  = "196"
	colorYellow = "220"
	colorGray = "245"
)

// Writer renders status lines to out, styled with lipgloss when out is
// a color-capable terminal.
type Writer struct {
	out      io.Writer
	useColor bool

	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	dim     lipgloss.Style
}

// New creates a Writer. Color is enabled automatically when out is a
// terminal and NO_COLOR is unset; construct with NewWithColor to
// override that detection (e.g. for --json callers who always want
// plain text).
func New(out io.Writer) *Writer {
	return NewWithColor(out, detectColor(out))
}

// NewWithColor creates a Writer with an explicit color setting.
func NewWithColor(out io.Writer, useColor bool) *Writer {
	w := &Writer{out: out, useColor: useColor}
	if useColor {
		w.success = lipgloss.NewStyle().Foreground(lipgloss.Color(colorLime))
		w.warning = lipgloss.NewStyle().Foreground(lipgloss.Color(colorYellow))
		w.failure = lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed))
		w.dim = lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray))
	}
	return w
}

func detectColor(out io.Writer) bool {
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (w *Writer) render(style lipgloss.Style, prefix, msg string) string {
	if !w.useColor {
		return prefix + msg
	}
	return style.Render(prefix + msg)
}

// Success prints a success status line.
func (w *Writer) Success(msg string) {
	fmt.Fprintln(w.out, w.render(w.success, "✓ ", msg))
}

// Successf prints a formatted success status line.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning status line.
func (w *Writer) Warning(msg string) {
	fmt.Fprintln(w.out, w.render(w.warning, "! ", msg))
}

// Warningf prints a formatted warning status line.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error status line.
func (w *Writer) Error(msg string) {
	fmt.Fprintln(w.out, w.render(w.failure, "✗ ", msg))
}

// Errorf prints a formatted error status line.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Info prints a plain (dim, when colored) status line.
func (w *Writer) Info(msg string) {
	fmt.Fprintln(w.out, w.render(w.dim, "  ", msg))
}

// Infof prints a formatted plain status line.
func (w *Writer) Infof(format string, args ...any) {
	w.Info(fmt.Sprintf(format, args...))
}

// Table renders rows of equal column count as a left-aligned,
// space-padded table with a header row.
func (w *Writer) Table(header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	writeRow := func(cells []string) {
		padded := make([]string, len(cells))
		for i, cell := range cells {
			padded[i] = cell + strings.Repeat(" ", widths[i]-len(cell))
		}
		fmt.Fprintln(w.out, strings.Join(padded, "  "))
	}

	writeRow(header)
	for _, row := range rows {
		writeRow(row)
	}
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	fmt.Fprintln(w.out)
}
