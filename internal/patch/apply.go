package patch

// FuzzWindow is how far, in lines, a hunk may drift from its predicted
// position in either direction before it is rejected. A position past the
// end of the buffer never matches, so a trailing pure addition recorded too
// far down is picked up by a backward probe or rejected.
const FuzzWindow = 2

// TryMatch reports whether the context and delete lines of h can be found
// in buf when h is placed at h.OldStart+offset. It does not modify buf.
//
// The first context line and the first delete line must match exactly at
// the position reached; later lines of the same kind may skip ahead over
// non-matching buffer lines.
func TryMatch(h *Hunk, buf []string, offset int) bool {
	pos := h.OldStart + offset
	if pos < 0 || pos > len(buf) {
		return false
	}

	var contextMatches, deleteMatches int
	for _, line := range h.Lines {
		var matches *int
		switch line.Kind {
		case LineContext:
			matches = &contextMatches
		case LineDelete:
			matches = &deleteMatches
		default:
			continue
		}

		for {
			if pos >= len(buf) {
				return false
			}
			if LinesEqual(buf[pos], line.Text) {
				*matches++
				pos++
				break
			}
			if *matches == 0 {
				return false
			}
			pos++
		}
	}
	return true
}

// Apply mutates buf with the changes of h placed at h.OldStart+offset and
// returns the header-declared line delta. It must only be called after
// TryMatch succeeded for the same buffer and offset.
func Apply(h *Hunk, buf *[]string, offset int) int {
	lines := *buf
	pos := h.OldStart + offset

	for _, line := range h.Lines {
		switch line.Kind {
		case LineContext:
			pos = seek(lines, pos, line.Text)
			pos++
		case LineDelete:
			pos = seek(lines, pos, line.Text)
			if pos < len(lines) {
				lines = append(lines[:pos], lines[pos+1:]...)
			}
		case LineAdd:
			if pos > len(lines) {
				pos = len(lines)
			}
			lines = append(lines, "")
			copy(lines[pos+1:], lines[pos:])
			lines[pos] = line.Text
			pos++
		}
	}

	*buf = lines
	return h.Delta()
}

// seek returns the first position at or after pos whose line equals text,
// or len(lines) when there is none.
func seek(lines []string, pos int, text string) int {
	for pos < len(lines) && !LinesEqual(lines[pos], text) {
		pos++
	}
	return pos
}

// probeOffsets lists the offsets tried for a hunk, in order, given the
// current shift: the shift itself, then nearer-backward before nearer-forward.
func probeOffsets(shift int) []int {
	offsets := make([]int, 0, 2*FuzzWindow+1)
	offsets = append(offsets, shift)
	for d := 1; d <= FuzzWindow; d++ {
		offsets = append(offsets, shift-d)
	}
	for d := 1; d <= FuzzWindow; d++ {
		offsets = append(offsets, shift+d)
	}
	return offsets
}

// locate finds the first offset in probe order at which h matches.
func locate(h *Hunk, buf []string, shift int) (int, bool) {
	for _, offset := range probeOffsets(shift) {
		if TryMatch(h, buf, offset) {
			return offset, true
		}
	}
	return 0, false
}

// ApplyDiff applies the enabled hunks of d, in order, to lines and returns
// the patched buffer together with the hunks that could not be placed.
// lines is modified in place; disabled hunks are skipped without being
// reported.
func ApplyDiff(d *Diff, lines []string) ([]string, []*Hunk) {
	var rejected []*Hunk
	shift := 0
	for _, h := range d.Hunks {
		if !h.Enabled {
			continue
		}
		offset, ok := locate(h, lines, shift)
		if !ok {
			rejected = append(rejected, h)
			continue
		}
		shift = offset + Apply(h, &lines, offset)
	}
	return lines, rejected
}
