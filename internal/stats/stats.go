// Package stats provides statistics tracking for patch runs.
package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kvit-s/kvit-patch/internal/patch"
)

// RunStats tracks cumulative statistics across all targets of one patch run.
type RunStats struct {
	Diffs         int
	SkippedDiffs  int
	FailedDiffs   int
	HunksApplied  int
	HunksRejected int
	FilesUpdated  int
	FilesCreated  int
	FilesDeleted  int
	RejectFiles   int
	TotalTime     time.Duration
	ParseTime     time.Duration
	ApplyTime     time.Duration
}

// TargetJSON is the per-target entry in the JSON summary.
type TargetJSON struct {
	Path     string   `json:"path"`
	Kind     string   `json:"kind"`
	Skipped  bool     `json:"skipped,omitempty"`
	Applied  int      `json:"applied"`
	Rejected []string `json:"rejected,omitempty"`
	Action   string   `json:"action,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// RunStatsJSON is the JSON output format for run stats
type RunStatsJSON struct {
	Diffs struct {
		Total   int `json:"total"`
		Skipped int `json:"skipped"`
		Failed  int `json:"failed"`
	} `json:"diffs"`
	Hunks struct {
		Applied  int `json:"applied"`
		Rejected int `json:"rejected"`
	} `json:"hunks"`
	Files struct {
		Updated int `json:"updated"`
		Created int `json:"created"`
		Deleted int `json:"deleted"`
		Rejects int `json:"rejects"`
	} `json:"files"`
	Timing struct {
		TotalSeconds float64 `json:"total_seconds"`
		ParseSeconds float64 `json:"parse_seconds"`
		ApplySeconds float64 `json:"apply_seconds"`
	} `json:"timing"`
}

// Add folds one target's result into the totals.
func (s *RunStats) Add(res *patch.Result) {
	s.Diffs++
	if !res.Diff.Enabled {
		s.SkippedDiffs++
		return
	}
	s.HunksApplied += res.Applied
	s.HunksRejected += len(res.Rejected)
	if res.Failed() {
		s.FailedDiffs++
	}
}

// Written records a write-back action by name ("updated", "created", "deleted").
func (s *RunStats) Written(action string, rejects bool) {
	switch action {
	case "updated":
		s.FilesUpdated++
	case "created":
		s.FilesCreated++
	case "deleted":
		s.FilesDeleted++
	}
	if rejects {
		s.RejectFiles++
	}
}

// Target builds the JSON summary entry for one result.
func Target(path string, res *patch.Result, action string, err error) TargetJSON {
	t := TargetJSON{
		Path:    path,
		Kind:    res.Diff.Kind.String(),
		Skipped: !res.Diff.Enabled,
		Applied: res.Applied,
		Action:  action,
	}
	for _, h := range res.Rejected {
		t.Rejected = append(t.Rejected, h.Header())
	}
	if err != nil {
		t.Error = err.Error()
	}
	return t
}

// ToJSON converts RunStats to its JSON representation
func (s *RunStats) ToJSON() RunStatsJSON {
	var j RunStatsJSON
	j.Diffs.Total = s.Diffs
	j.Diffs.Skipped = s.SkippedDiffs
	j.Diffs.Failed = s.FailedDiffs
	j.Hunks.Applied = s.HunksApplied
	j.Hunks.Rejected = s.HunksRejected
	j.Files.Updated = s.FilesUpdated
	j.Files.Created = s.FilesCreated
	j.Files.Deleted = s.FilesDeleted
	j.Files.Rejects = s.RejectFiles
	j.Timing.TotalSeconds = s.TotalTime.Seconds()
	j.Timing.ParseSeconds = s.ParseTime.Seconds()
	j.Timing.ApplySeconds = s.ApplyTime.Seconds()
	return j
}

// Print outputs the run stats in a formatted JSON block to stdout
func (s *RunStats) Print() {
	s.PrintTo(os.Stdout)
}

// PrintTo outputs the run stats in a formatted JSON block to the given writer
func (s *RunStats) PrintTo(w io.Writer) {
	jsonBytes, _ := json.MarshalIndent(s.ToJSON(), "", "  ")
	fmt.Fprintln(w, "=== PATCH STATS START ===")
	fmt.Fprintln(w, string(jsonBytes))
	fmt.Fprintln(w, "=== PATCH STATS END ===")
}

// Summary returns a one-line human summary.
func (s *RunStats) Summary() string {
	return fmt.Sprintf("%d files, %d hunks applied, %d rejected", s.Diffs-s.SkippedDiffs, s.HunksApplied, s.HunksRejected)
}
