// Package patch parses unified diffs and applies their hunks to line buffers,
// tolerating small drift between recorded and actual line positions.
package patch

import "strings"

// LineKind tags a single hunk line.
type LineKind int

// Hunk line kinds.
const (
	LineContext LineKind = iota
	LineDelete
	LineAdd
)

// String returns the unified-diff prefix for the kind.
func (k LineKind) String() string {
	switch k {
	case LineDelete:
		return "-"
	case LineAdd:
		return "+"
	default:
		return " "
	}
}

// HunkLine is one tagged line of a hunk. Text keeps its original terminator.
type HunkLine struct {
	Kind LineKind
	Text string
}

// Hunk is one contiguous block of changes. Starts are 0-based.
type Hunk struct {
	OldStart  int
	OldLength int
	NewStart  int
	NewLength int
	Lines     []HunkLine
	Enabled   bool
}

// Delta returns the header-declared change in line count.
func (h *Hunk) Delta() int {
	return h.NewLength - h.OldLength
}

// DiffKind classifies what a diff does to its target.
type DiffKind int

// Diff kinds.
const (
	KindChange DiffKind = iota
	KindAddition
	KindDeletion
)

func (k DiffKind) String() string {
	switch k {
	case KindAddition:
		return "addition"
	case KindDeletion:
		return "deletion"
	default:
		return "change"
	}
}

// Diff is the set of hunks between one old and one new version of a target.
type Diff struct {
	OldPath   string
	NewPath   string
	OldExists bool
	NewExists bool
	Hunks     []*Hunk
	Enabled   bool
	Kind      DiffKind
}

// finalize normalizes single-hunk framing and computes the kind. A single
// hunk that empties the file makes the diff a deletion; one that starts from
// nothing makes it an addition.
func (d *Diff) finalize() {
	if len(d.Hunks) == 1 {
		h := d.Hunks[0]
		if h.NewLength == 0 {
			d.NewPath = d.OldPath
			d.NewExists = false
		} else if h.OldLength == 0 && h.OldStart == 0 {
			d.OldPath = d.NewPath
			d.OldExists = false
		}
	}
	d.Kind = kindOf(d.OldExists, d.NewExists)
}

func kindOf(oldExists, newExists bool) DiffKind {
	switch {
	case !oldExists:
		return KindAddition
	case !newExists:
		return KindDeletion
	default:
		return KindChange
	}
}

// Reverse returns a copy of d that undoes it: paths, existence flags and
// hunk ranges are swapped and adds become deletes. Enabled flags carry over.
func (d *Diff) Reverse() *Diff {
	r := &Diff{
		OldPath:   d.NewPath,
		NewPath:   d.OldPath,
		OldExists: d.NewExists,
		NewExists: d.OldExists,
		Enabled:   d.Enabled,
		Hunks:     make([]*Hunk, 0, len(d.Hunks)),
	}
	for _, h := range d.Hunks {
		rh := &Hunk{
			OldStart:  h.NewStart,
			OldLength: h.NewLength,
			NewStart:  h.OldStart,
			NewLength: h.OldLength,
			Enabled:   h.Enabled,
			Lines:     make([]HunkLine, len(h.Lines)),
		}
		for i, l := range h.Lines {
			switch l.Kind {
			case LineAdd:
				l.Kind = LineDelete
			case LineDelete:
				l.Kind = LineAdd
			}
			rh.Lines[i] = l
		}
		r.Hunks = append(r.Hunks, rh)
	}
	r.Kind = kindOf(r.OldExists, r.NewExists)
	return r
}

// Path returns the display path: the new side unless the diff deletes.
func (d *Diff) Path() string {
	if d.Kind == KindDeletion {
		return d.OldPath
	}
	return d.NewPath
}

// TargetPath returns Path with strip leading "/"-separated segments removed.
// When the path has too few segments, the last one is kept.
func (d *Diff) TargetPath(strip int) string {
	return StripSegments(d.Path(), strip)
}

// StripSegments drops n leading "/"-separated segments from p.
func StripSegments(p string, n int) string {
	for i := 0; i < n; i++ {
		idx := strings.IndexByte(p, '/')
		if idx < 0 {
			break
		}
		p = p[idx+1:]
	}
	return p
}

// EnabledHunks counts the hunks that will be attempted.
func (d *Diff) EnabledHunks() int {
	n := 0
	for _, h := range d.Hunks {
		if h.Enabled {
			n++
		}
	}
	return n
}
