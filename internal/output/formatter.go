// Package output prints operator-facing progress and results to stdout.
// Diagnostics go through the logger package instead.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	stepColor    = color.New(color.Bold)
)

// out overrides the destination; nil means color.Output (stdout).
var out io.Writer

// SetOutput redirects all output to w. Pass nil to restore stdout.
func SetOutput(w io.Writer) {
	out = w
}

func writer() io.Writer {
	if out != nil {
		return out
	}
	return color.Output
}

// JSON outputs data as JSON
func JSON(data interface{}) error {
	encoder := json.NewEncoder(writer())
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Table outputs data as a formatted table
func Table(headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}
	w := writer()

	// Calculate column widths
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	headerLine := make([]string, len(headers))
	for i, h := range headers {
		headerLine[i] = fmt.Sprintf("%-*s", widths[i], h)
	}
	_, _ = fmt.Fprintln(w, strings.TrimRight(strings.Join(headerLine, "  "), " "))

	sepLine := make([]string, len(headers))
	for i, width := range widths {
		sepLine[i] = strings.Repeat("-", width)
	}
	_, _ = fmt.Fprintln(w, strings.Join(sepLine, "  "))

	for _, row := range rows {
		rowLine := make([]string, len(headers))
		for i := range headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			rowLine[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		_, _ = fmt.Fprintln(w, strings.TrimRight(strings.Join(rowLine, "  "), " "))
	}
}

// Step announces step index of total.
func Step(index, total int, name string) {
	_, _ = stepColor.Fprintf(writer(), "[%d/%d] %s\n", index, total, name)
}

// StepDone reports how a step ended.
func StepDone(name string, elapsed time.Duration, err error) {
	if err != nil {
		Error("%s failed after %v", name, elapsed)
		return
	}
	Success("%s (%v)", name, elapsed)
}

// Success prints a success message
func Success(format string, args ...interface{}) {
	_, _ = successColor.Fprintf(writer(), "✓ "+format+"\n", args...)
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	_, _ = errorColor.Fprintf(writer(), "✗ "+format+"\n", args...)
}

// Warn prints a warning message
func Warn(format string, args ...interface{}) {
	_, _ = warnColor.Fprintf(writer(), "! "+format+"\n", args...)
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	_, _ = infoColor.Fprintf(writer(), "→ "+format+"\n", args...)
}

// Print prints a plain message
func Print(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(writer(), format+"\n", args...)
}
