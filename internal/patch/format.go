package patch

import (
	"fmt"
	"strings"
)

// Header renders the hunk's "@@ -O,L +O2,L2 @@" line with 1-based starts.
func (h *Hunk) Header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", oneBased(h.OldStart, h.OldLength), h.OldLength,
		oneBased(h.NewStart, h.NewLength), h.NewLength)
}

func oneBased(start, length int) int {
	if start == 0 && length == 0 {
		return 0
	}
	return start + 1
}

// writeHunk renders the header and body of h.
func writeHunk(b *strings.Builder, h *Hunk) {
	b.WriteString(h.Header())
	b.WriteByte('\n')
	for _, line := range h.Lines {
		b.WriteString(line.Kind.String())
		b.WriteString(line.Text)
		if !strings.HasSuffix(line.Text, "\n") {
			b.WriteString("\n\\ No newline at end of file\n")
		}
	}
}

// FormatRejects renders hunks of d as a unified diff, suitable for a .rej file.
// It returns "" when hunks is empty.
func FormatRejects(d *Diff, hunks []*Hunk) string {
	if len(hunks) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(oldHeaderPrefix + sidePath(d.OldPath, d.OldExists) + "\n")
	b.WriteString(newHeaderPrefix + sidePath(d.NewPath, d.NewExists) + "\n")
	for _, h := range hunks {
		writeHunk(&b, h)
	}
	return b.String()
}

// String renders the hunk in unified form.
func (h *Hunk) String() string {
	var b strings.Builder
	writeHunk(&b, h)
	return b.String()
}

func sidePath(path string, exists bool) string {
	if !exists {
		return NullDevice
	}
	return path
}
