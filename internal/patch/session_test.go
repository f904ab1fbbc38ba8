package patch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kvit-s/kvit-patch/internal/logger"
)

// unifiedDiff generates a unified diff between two texts for path.
func unifiedDiff(t *testing.T, path, from, to string, context int) string {
	t.Helper()
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        SplitLines(from),
		B:        SplitLines(to),
		FromFile: path,
		ToFile:   path,
		Context:  context,
	})
	if err != nil {
		t.Fatalf("GetUnifiedDiffString() error = %v", err)
	}
	return text
}

func lettered(letters string) string {
	var b strings.Builder
	for _, r := range letters {
		b.WriteString(string(r))
		b.WriteString("\n")
	}
	return b.String()
}

func TestSession_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		context int
	}{
		{
			name:    "scattered edits",
			from:    lettered("abcdefghijklmnopqrst"),
			to:      strings.Replace(lettered("abCdefgXhijklmnopqs"), "q\n", "q\nQ1\nQ2\n", 1),
			context: 1,
		},
		{
			name:    "scattered edits wide context",
			from:    lettered("abcdefghijklmnopqrst"),
			to:      lettered("abCdefgXhijklmnopqs"),
			context: 3,
		},
		{
			name:    "insert at start",
			from:    lettered("abcdef"),
			to:      "new\n" + lettered("abcdef"),
			context: 3,
		},
		{
			name:    "repeated lines",
			from:    "{\n}\n{\n}\n{\n}\n",
			to:      "{\nx\n}\n{\n}\n{\ny\n}\n",
			context: 1,
		},
		{
			name:    "crlf content",
			from:    "one\r\ntwo\r\nthree\r\n",
			to:      "one\r\n2\r\nthree\r\n",
			context: 1,
		},
		{
			name:    "file from empty",
			from:    "",
			to:      lettered("xyz"),
			context: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := unifiedDiff(t, "f.txt", tt.from, tt.to, tt.context)

			s := NewSession(Options{}, nil)
			results := s.Run(text, ContentResolver(map[string]string{"f.txt": tt.from}, 0))
			if len(results) != 1 {
				t.Fatalf("Run() returned %d results, want 1", len(results))
			}
			res := results[0]
			if res.Failed() {
				t.Fatalf("rejected %d hunks:\n%s", len(res.Rejected), FormatRejects(res.Diff, res.Rejected))
			}
			got, ok := res.Content()
			if !ok {
				t.Fatal("Content() returned no content")
			}
			if got != tt.to {
				t.Errorf("content = %q, want %q", got, tt.to)
			}
			if JoinLines(res.Original) != tt.from {
				t.Errorf("Original = %q, want %q", JoinLines(res.Original), tt.from)
			}
		})
	}
}

func TestSession_Reverse(t *testing.T) {
	from := lettered("abcdefghij")
	to := lettered("abcXefghiJ")
	text := unifiedDiff(t, "f.txt", from, to, 2)

	s := NewSession(Options{Reverse: true}, nil)
	results := s.Run(text, ContentResolver(map[string]string{"f.txt": to}, 0))
	if len(results) != 1 || results[0].Failed() {
		t.Fatalf("reverse application failed: %+v", results)
	}
	if got, _ := results[0].Content(); got != from {
		t.Errorf("content = %q, want %q", got, from)
	}
}

func TestSession_Targets(t *testing.T) {
	const text = `--- a/change.txt
+++ b/change.txt
@@ -1,2 +1,2 @@
 keep
-old
+new
@@ -10,1 +10,1 @@
-x
+y
--- /dev/null
+++ b/added.txt
@@ -0,0 +1,2 @@
+hello
+world
--- a/disabled.txt
+++ b/disabled.txt
@@ -1 +1 @@
-a
+b
`
	s := NewSession(Options{}, nil)
	diffs := s.Parse(text)
	if len(diffs) != 3 {
		t.Fatalf("Parse() returned %d diffs, want 3", len(diffs))
	}
	diffs[2].Enabled = false

	t.Run("missing change target rejects every hunk", func(t *testing.T) {
		res := s.Apply(diffs[0], ContentResolver(nil, 1))
		if len(res.Rejected) != 2 {
			t.Errorf("rejected %d hunks, want 2", len(res.Rejected))
		}
		if _, ok := res.Content(); ok {
			t.Error("Content() should report no content")
		}
	})

	t.Run("missing addition target starts empty", func(t *testing.T) {
		res := s.Apply(diffs[1], ContentResolver(nil, 1))
		if res.Failed() {
			t.Fatalf("rejected %d hunks", len(res.Rejected))
		}
		got, ok := res.Content()
		if !ok || got != "hello\nworld\n" {
			t.Errorf("Content() = %q, %v", got, ok)
		}
	})

	t.Run("disabled diff is inert", func(t *testing.T) {
		res := s.Apply(diffs[2], ContentResolver(map[string]string{"disabled.txt": "a\n"}, 1))
		if res.Failed() || res.Applied != 0 {
			t.Errorf("disabled diff applied=%d rejected=%d", res.Applied, len(res.Rejected))
		}
		if _, ok := res.Content(); ok {
			t.Error("Content() should report no content")
		}
	})

	t.Run("partial success", func(t *testing.T) {
		res := s.Apply(diffs[0], ContentResolver(map[string]string{"change.txt": "keep\nold\nrest\n"}, 1))
		if res.Applied != 1 || len(res.Rejected) != 1 {
			t.Fatalf("applied=%d rejected=%d, want 1 and 1", res.Applied, len(res.Rejected))
		}
		if res.Rejected[0] != diffs[0].Hunks[1] {
			t.Error("wrong hunk rejected")
		}
		if got, _ := res.Content(); got != "keep\nnew\nrest\n" {
			t.Errorf("Content() = %q", got)
		}
	})
}

func TestSession_ApplyAll(t *testing.T) {
	var b strings.Builder
	contents := make(map[string]string)
	for i := 0; i < 20; i++ {
		path := fmt.Sprintf("f%02d.txt", i)
		from := lettered("abcdefgh")
		contents[path] = from
		b.WriteString(unifiedDiff(t, path, from, lettered("abcDefgh"), 1))
	}

	s := NewSession(Options{Jobs: 4}, nil)
	diffs := s.Parse(b.String())
	results, err := s.ApplyAll(context.Background(), diffs, ContentResolver(contents, 0))
	if err != nil {
		t.Fatalf("ApplyAll() error = %v", err)
	}
	if len(results) != 20 {
		t.Fatalf("ApplyAll() returned %d results, want 20", len(results))
	}
	for i, res := range results {
		if res.Diff != diffs[i] {
			t.Errorf("result %d out of order", i)
		}
		if got, _ := res.Content(); got != lettered("abcDefgh") {
			t.Errorf("result %d content = %q", i, got)
		}
	}
}

func TestSession_ApplyAllCanceled(t *testing.T) {
	s := NewSession(Options{}, nil)
	diffs := s.Parse(unifiedDiff(t, "f.txt", "a\n", "b\n", 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ApplyAll(ctx, diffs, ContentResolver(map[string]string{"f.txt": "a\n"}, 0))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ApplyAll() error = %v, want context.Canceled", err)
	}
}

func TestSession_LogsRejections(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewSession(Options{}, logger.FromZap(zap.New(core)))

	text := "--- a/f.txt\n+++ b/f.txt\n@@ -1 +1 @@\n-missing\n+x\n"
	s.Run(text, ContentResolver(map[string]string{"b/f.txt": "other\n"}, 0))

	if n := logs.FilterMessage("patch parsed").Len(); n != 1 {
		t.Errorf("logged %d parse entries, want 1", n)
	}
	rejected := logs.FilterMessage("hunk rejected").All()
	if len(rejected) != 1 {
		t.Fatalf("logged %d rejections, want 1", len(rejected))
	}
	if path := rejected[0].ContextMap()["path"]; path != "b/f.txt" {
		t.Errorf("rejection path = %v, want b/f.txt", path)
	}
}
