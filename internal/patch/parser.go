package patch

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	oldHeaderPrefix = "--- "
	newHeaderPrefix = "+++ "
	hunkPrefix      = "@@"
	noNewlineMarker = "\\"

	// NullDevice marks the side of a diff that does not exist.
	NullDevice = "/dev/null"
)

// hunkHeaderRegex matches "@@ -O[,L] +O2[,L2] @@" with an optional section after it.
var hunkHeaderRegex = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// timestampLayouts are the header date formats recognized when checking for
// the epoch date that diff tools write for missing files.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999 -0700",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"Mon Jan _2 15:04:05 2006",
	"Mon Jan _2 15:04:05 -0700 2006",
}

// Parse reads patch text into diffs in order of appearance. It never fails:
// leading noise is skipped, malformed hunks are dropped and diffs without
// hunks are discarded. All returned diffs and hunks start enabled.
func Parse(text string) []*Diff {
	p := &parser{lines: SplitLines(text)}
	return p.parse()
}

type parser struct {
	lines []string
	pos   int
}

func (p *parser) parse() []*Diff {
	var diffs []*Diff
	var current *Diff

	flush := func() {
		if current != nil && len(current.Hunks) > 0 {
			current.finalize()
			diffs = append(diffs, current)
		}
		current = nil
	}

	for p.pos < len(p.lines) {
		line := p.lines[p.pos]

		if p.atDiffHeader() {
			flush()
			current = p.readDiffHeader()
			continue
		}

		if current != nil && strings.HasPrefix(line, hunkPrefix) {
			if h := p.readHunk(); h != nil {
				current.Hunks = append(current.Hunks, h)
			}
			continue
		}

		p.pos++
	}
	flush()
	return diffs
}

// atDiffHeader reports whether an old-file header is immediately followed
// by a new-file header at the current position.
func (p *parser) atDiffHeader() bool {
	if p.pos+1 >= len(p.lines) {
		return false
	}
	return strings.HasPrefix(p.lines[p.pos], oldHeaderPrefix) &&
		strings.HasPrefix(p.lines[p.pos+1], newHeaderPrefix)
}

func (p *parser) readDiffHeader() *Diff {
	oldPath, oldExists := parseFileHeader(p.lines[p.pos], oldHeaderPrefix)
	newPath, newExists := parseFileHeader(p.lines[p.pos+1], newHeaderPrefix)
	p.pos += 2

	if !oldExists {
		oldPath = newPath
	}
	if !newExists {
		newPath = oldPath
	}
	return &Diff{
		OldPath:   oldPath,
		NewPath:   newPath,
		OldExists: oldExists,
		NewExists: newExists,
		Enabled:   true,
	}
}

// parseFileHeader extracts the path from a "--- path<TAB>date" line and
// reports whether that side exists.
func parseFileHeader(line, prefix string) (string, bool) {
	rest := trimTerminator(strings.TrimPrefix(line, prefix))

	path, date := rest, ""
	if idx := strings.IndexByte(rest, '\t'); idx >= 0 {
		path, date = rest[:idx], strings.TrimSpace(rest[idx+1:])
	}
	path = stripRevision(strings.TrimSpace(path))

	exists := path != NullDevice && !isEpoch(date)
	return path, exists
}

// stripRevision removes a trailing ":revision" marker from a path.
// Colons followed by a path separator (drive letters, URLs) are kept.
func stripRevision(path string) string {
	idx := strings.LastIndexByte(path, ':')
	if idx < 0 || strings.ContainsAny(path[idx+1:], `/\`) {
		return path
	}
	return path[:idx]
}

func isEpoch(date string) bool {
	if date == "" {
		return false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Unix() == 0
		}
	}
	return false
}

// readHunk consumes a hunk header and its body. It returns nil when the
// header cannot be parsed or the body is empty; the body is consumed either way.
func (p *parser) readHunk() *Hunk {
	h, ok := parseHunkHeader(p.lines[p.pos])
	p.pos++
	if !ok {
		p.skipHunkBody()
		return nil
	}

	oldLeft, newLeft := h.OldLength, h.NewLength
	for p.pos < len(p.lines) && (oldLeft > 0 || newLeft > 0) {
		line := p.lines[p.pos]
		if strings.HasPrefix(line, hunkPrefix) || p.atDiffHeader() {
			break
		}

		kind, text, ok := parseHunkLine(line)
		if !ok {
			if p.applyNoNewline(h, line) {
				p.pos++
				continue
			}
			break
		}
		switch kind {
		case LineContext:
			oldLeft--
			newLeft--
		case LineDelete:
			oldLeft--
		case LineAdd:
			newLeft--
		}
		h.Lines = append(h.Lines, HunkLine{Kind: kind, Text: text})
		p.pos++
	}

	// A trailing marker belongs to the last line of the body.
	if p.pos < len(p.lines) && p.applyNoNewline(h, p.lines[p.pos]) {
		p.pos++
	}

	if len(h.Lines) == 0 {
		return nil
	}
	return h
}

// applyNoNewline handles a "\ No newline at end of file" marker by removing
// the terminator from the preceding hunk line.
func (p *parser) applyNoNewline(h *Hunk, line string) bool {
	if !strings.HasPrefix(line, noNewlineMarker) || len(h.Lines) == 0 {
		return false
	}
	last := &h.Lines[len(h.Lines)-1]
	last.Text = trimTerminator(last.Text)
	return true
}

func (p *parser) skipHunkBody() {
	for p.pos < len(p.lines) {
		if strings.HasPrefix(p.lines[p.pos], hunkPrefix) || p.atDiffHeader() {
			return
		}
		p.pos++
	}
}

// parseHunkLine splits a body line into its tag and text. A bare line
// terminator is read as an empty context line.
func parseHunkLine(line string) (LineKind, string, bool) {
	if line == "" {
		return 0, "", false
	}
	switch line[0] {
	case ' ':
		return LineContext, line[1:], true
	case '-':
		return LineDelete, line[1:], true
	case '+':
		return LineAdd, line[1:], true
	case '\n', '\r':
		return LineContext, line, true
	default:
		return 0, "", false
	}
}

func parseHunkHeader(line string) (*Hunk, bool) {
	m := hunkHeaderRegex.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	oldStart, ok1 := atoi(m[1], 0)
	oldLength, ok2 := atoi(m[2], 1)
	newStart, ok3 := atoi(m[3], 0)
	newLength, ok4 := atoi(m[4], 1)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, false
	}
	return &Hunk{
		OldStart:  zeroBased(oldStart),
		OldLength: oldLength,
		NewStart:  zeroBased(newStart),
		NewLength: newLength,
		Enabled:   true,
	}, true
}

func atoi(s string, def int) (int, bool) {
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func zeroBased(start int) int {
	if start > 0 {
		return start - 1
	}
	return 0
}
