package patch

import "strings"

// LinesEqual compares two lines ignoring their line terminators.
// One trailing "\n" and then one trailing "\r" are removed from each side.
func LinesEqual(a, b string) bool {
	return trimTerminator(a) == trimTerminator(b)
}

func trimTerminator(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

// SplitLines splits text into lines that keep their terminators, so that
// strings.Join(SplitLines(s), "") == s. A final line without a terminator
// is kept as is; empty text yields an empty, non-nil slice.
func SplitLines(text string) []string {
	lines := make([]string, 0, strings.Count(text, "\n")+1)
	for len(text) > 0 {
		idx := strings.IndexByte(text, '\n')
		if idx < 0 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:idx+1])
		text = text[idx+1:]
	}
	return lines
}

// JoinLines reconstitutes text from a line buffer.
func JoinLines(lines []string) string {
	return strings.Join(lines, "")
}
