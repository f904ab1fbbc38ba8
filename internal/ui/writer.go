package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/kvit-s/kvit-patch/internal/patch"
)

// Color definitions for consistent UI
var (
	// Brown color for startup info
	brownColor = color.New(color.FgYellow, color.Faint)

	// Gray for hunk headers and previews
	grayColor = color.New(color.FgWhite, color.Faint)

	// Red for errors and rejected targets
	errorColor = color.New(color.FgRed)

	// Yellow for warnings
	warnColor = color.New(color.FgYellow)

	// Green for targets that applied cleanly
	okColor = color.New(color.FgGreen)
)

// Writer provides formatted output with consistent prefixes and optional colors.
// Reports go to stdout, diagnostics to stderr.
type Writer struct {
	verbose  bool
	quiet    bool
	jsonMode bool
	stdout   io.Writer
	stderr   io.Writer
}

// NewWriter creates a Writer on the process's standard streams.
func NewWriter() *Writer {
	return &Writer{stdout: os.Stdout, stderr: os.Stderr}
}

// NewWriterTo creates a Writer on the given streams.
func NewWriterTo(stdout, stderr io.Writer) *Writer {
	return &Writer{stdout: stdout, stderr: stderr}
}

// SetVerbose enables previews and rejection hints.
func (w *Writer) SetVerbose(verbose bool) {
	w.verbose = verbose
}

// SetQuiet enables or disables quiet mode (suppresses everything but errors and JSON).
func (w *Writer) SetQuiet(quiet bool) {
	w.quiet = quiet
}

// SetJSONMode enables or disables JSON output mode.
func (w *Writer) SetJSONMode(jsonMode bool) {
	w.jsonMode = jsonMode
}

// IsJSONMode returns true if JSON mode is enabled.
func (w *Writer) IsJSONMode() bool {
	return w.jsonMode
}

func (w *Writer) silent() bool {
	return w.quiet || w.jsonMode
}

// StartupInfo prints startup information in brown.
func (w *Writer) StartupInfo(msg string) {
	if w.silent() {
		return
	}
	brownColor.Fprintln(w.stderr, msg)
}

// Info prints an info message with [info] prefix in gray.
func (w *Writer) Info(msg string) {
	if w.silent() {
		return
	}
	grayColor.Fprintf(w.stderr, "[info] %s\n", msg)
}

// Warn prints a warning message with [warn] prefix in yellow.
func (w *Writer) Warn(msg string) {
	if w.silent() {
		return
	}
	warnColor.Fprintf(w.stderr, "[warn] %s\n", msg)
}

// Error prints an error message with [error] prefix in red. Errors are
// printed even in quiet mode.
func (w *Writer) Error(msg string) {
	errorColor.Fprintf(w.stderr, "[error] %s\n", msg)
}

// Result prints one target's outcome. path is the display path and action
// what was done on disk ("" for dry runs).
func (w *Writer) Result(path string, res *patch.Result, action string) {
	if w.silent() {
		return
	}

	if !res.Diff.Enabled {
		grayColor.Fprintf(w.stdout, "- %s (skipped)\n", path)
		return
	}

	suffix := ""
	if action != "" {
		suffix = ", " + action
	}
	total := res.Diff.EnabledHunks()

	if !res.Failed() {
		okColor.Fprintf(w.stdout, "✓ %s (%s%s)\n", path, pluralHunks(res.Applied), suffix)
	} else {
		errorColor.Fprintf(w.stdout, "✗ %s (%d of %d hunks rejected%s)\n", path, len(res.Rejected), total, suffix)
		for _, h := range res.Rejected {
			grayColor.Fprintf(w.stdout, "    %s\n", h.Header())
			if w.verbose {
				if hint := RejectHint(h, res.Original); hint != "" {
					fmt.Fprintf(w.stdout, "      %s\n", hint)
				}
			}
		}
	}

	if w.verbose {
		if preview := Preview(path, res); preview != "" {
			for _, line := range strings.Split(strings.TrimSuffix(preview, "\n"), "\n") {
				grayColor.Fprintf(w.stdout, "    %s\n", line)
			}
		}
	}
}

func pluralHunks(n int) string {
	if n == 1 {
		return "1 hunk"
	}
	return fmt.Sprintf("%d hunks", n)
}

// WriteJSON outputs v as indented JSON to stdout. It does nothing outside JSON mode.
func (w *Writer) WriteJSON(v any) {
	if !w.jsonMode {
		return
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		w.Error(fmt.Sprintf("encode json: %v", err))
		return
	}
	fmt.Fprintln(w.stdout, string(data))
}
