package patch

import (
	"context"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kvit-s/kvit-patch/internal/logger"
)

// Resolver supplies the current lines of a diff's target, or false when the
// target does not exist.
type Resolver func(d *Diff) ([]string, bool)

// ContentResolver resolves targets from an in-memory map keyed by
// d.TargetPath(strip).
func ContentResolver(contents map[string]string, strip int) Resolver {
	return func(d *Diff) ([]string, bool) {
		text, ok := contents[d.TargetPath(strip)]
		if !ok {
			return nil, false
		}
		return SplitLines(text), true
	}
}

// Result is the outcome of applying one diff to its target.
type Result struct {
	Diff *Diff
	// Original is a copy of the target's lines before application.
	Original []string
	// Lines is the patched buffer, nil when nothing was produced.
	Lines []string
	// Rejected holds the enabled hunks that could not be placed, in order.
	Rejected []*Hunk
	// Applied counts the hunks that were placed.
	Applied int
}

// Content returns the reconstituted text, or false if the diff produced none.
func (r *Result) Content() (string, bool) {
	if r.Lines == nil {
		return "", false
	}
	return JoinLines(r.Lines), true
}

// Failed reports whether any hunk was rejected.
func (r *Result) Failed() bool {
	return len(r.Rejected) > 0
}

// Options configure a Session.
type Options struct {
	Reverse bool // apply every diff in reverse
	Jobs    int  // parallel targets in ApplyAll (0 = GOMAXPROCS)
}

// Session parses patches and applies their diffs to resolved targets.
type Session struct {
	opts Options
	log  *logger.Logger
}

// NewSession creates a Session. A nil logger disables logging.
func NewSession(opts Options, log *logger.Logger) *Session {
	if log == nil {
		log = logger.Nop()
	}
	return &Session{opts: opts, log: log}
}

// Parse parses patch text, reversing every diff if the session is configured to.
func (s *Session) Parse(text string) []*Diff {
	diffs := Parse(text)
	hunks := 0
	for i, d := range diffs {
		if s.opts.Reverse {
			diffs[i] = d.Reverse()
		}
		hunks += len(d.Hunks)
	}
	s.log.PatchParsed(len(diffs), hunks)
	return diffs
}

// Run parses text and applies each diff, in order, to its resolved target.
func (s *Session) Run(text string, resolve Resolver) []*Result {
	diffs := s.Parse(text)
	results := make([]*Result, len(diffs))
	for i, d := range diffs {
		results[i] = s.Apply(d, resolve)
	}
	return results
}

// ApplyAll applies diffs concurrently, one target per goroutine. Results are
// returned in diff order. Cancellation is observed between targets only; the
// diffs already started run to completion.
func (s *Session) ApplyAll(ctx context.Context, diffs []*Diff, resolve Resolver) ([]*Result, error) {
	jobs := s.opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]*Result, len(diffs))
	if len(diffs) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(diffs)))

	for i, d := range diffs {
		i, d := i, d
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			// Each index is owned by exactly one goroutine.
			results[i] = s.Apply(d, resolve)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Apply applies one diff to the target supplied by resolve. Disabled diffs
// produce an empty result. A missing target is an empty buffer for
// additions; for any other kind every enabled hunk is rejected.
func (s *Session) Apply(d *Diff, resolve Resolver) *Result {
	res := &Result{Diff: d}
	if !d.Enabled {
		return res
	}

	start := time.Now()
	path := d.Path()

	original, ok := resolve(d)
	if !ok {
		if d.Kind != KindAddition {
			for i, h := range d.Hunks {
				if h.Enabled {
					res.Rejected = append(res.Rejected, h)
					s.log.HunkRejected(path, i, h.OldStart)
				}
			}
			s.log.DiffApplied(path, 0, len(res.Rejected), time.Since(start))
			return res
		}
		original = nil
	}
	if original == nil {
		original = []string{}
	}

	res.Original = slices.Clone(original)
	res.Lines, res.Rejected = ApplyDiff(d, original)
	res.Applied = d.EnabledHunks() - len(res.Rejected)

	for i, h := range d.Hunks {
		if slices.Contains(res.Rejected, h) {
			s.log.HunkRejected(path, i, h.OldStart)
		}
	}
	s.log.DiffApplied(path, res.Applied, len(res.Rejected), time.Since(start))
	return res
}
