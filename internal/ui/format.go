package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/kvit-s/kvit-patch/internal/patch"
)

// Preview renders the change a result makes to its target as a unified diff.
// It returns "" when there is no content or nothing changed.
func Preview(path string, res *patch.Result) string {
	if res.Lines == nil {
		return ""
	}
	diff := difflib.UnifiedDiff{
		A:        withTerminators(res.Original),
		B:        withTerminators(res.Lines),
		FromFile: path,
		ToFile:   path,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}

// withTerminators makes sure every line ends in "\n" so that the last line
// of a file without a final newline renders on its own row.
func withTerminators(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		if !strings.HasSuffix(l, "\n") {
			l += "\n"
		}
		out[i] = l
	}
	return out
}

// minHintRatio is the similarity below which a line is not offered as a hint.
const minHintRatio = 0.5

// RejectHint explains a rejected hunk: it finds the target line most similar
// to the hunk's first context or delete line and shows how the two differ.
// It returns "" when the hunk has no such line.
func RejectHint(h *patch.Hunk, original []string) string {
	var expected string
	found := false
	for _, l := range h.Lines {
		if l.Kind != patch.LineAdd {
			expected, found = trimLine(l.Text), true
			break
		}
	}
	if !found {
		return ""
	}

	dmp := diffmatchpatch.New()
	idx, ratio := mostSimilarLine(dmp, original, expected, h.OldStart)
	if idx < 0 || ratio < minHintRatio {
		return fmt.Sprintf("no line resembles %q", expected)
	}

	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(trimLine(original[idx]), expected, false))
	return fmt.Sprintf("line %d (%.0f%% similar): %s", idx+1, ratio*100, dmp.DiffPrettyText(diffs))
}

// mostSimilarLine returns the index of the line closest to search and its
// similarity ratio. Ties go to the line nearest near.
func mostSimilarLine(dmp *diffmatchpatch.DiffMatchPatch, lines []string, search string, near int) (int, float64) {
	best, bestRatio := -1, 0.0
	for i, line := range lines {
		r := similarity(dmp, strings.TrimSpace(line), strings.TrimSpace(search))
		if r > bestRatio || (r == bestRatio && best >= 0 && distance(i, near) < distance(best, near)) {
			best, bestRatio = i, r
		}
	}
	return best, bestRatio
}

// similarity is 1 - levenshtein(a, b) / max(len(a), len(b)), in runes.
func similarity(dmp *diffmatchpatch.DiffMatchPatch, a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	d := dmp.DiffLevenshtein(dmp.DiffMain(a, b, false))
	return 1 - float64(d)/float64(longest)
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

func trimLine(s string) string {
	return strings.TrimRight(s, "\r\n")
}
