package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kvit-s/kvit-patch/internal/ui"
)

const patchText = `--- a/main.txt
+++ b/main.txt
@@ -1,3 +1,3 @@
 one
-two
+TWO
 three
--- /dev/null
+++ b/added.txt
@@ -0,0 +1,2 @@
+hello
+world
--- a/gone.txt
+++ /dev/null
@@ -1,1 +0,0 @@
-bye
`

func setup(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func runPatch(t *testing.T, opts options, patch string) (int, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	w := ui.NewWriterTo(&stdout, &stderr)
	w.SetJSONMode(opts.jsonOutput)
	code := run(context.Background(), opts, strings.NewReader(patch), w)
	return code, stdout.String()
}

func TestRun_Apply(t *testing.T) {
	dir := setup(t, map[string]string{
		"main.txt": "zero\none\ntwo\nthree\n",
		"gone.txt": "bye\n",
	})

	code, out := runPatch(t, options{root: dir, strip: 1}, patchText)
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d\n%s", code, exitOK, out)
	}

	if got := readFile(t, filepath.Join(dir, "main.txt")); got != "zero\none\nTWO\nthree\n" {
		t.Errorf("main.txt = %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "added.txt")); got != "hello\nworld\n" {
		t.Errorf("added.txt = %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "gone.txt")); !os.IsNotExist(err) {
		t.Errorf("gone.txt should be deleted, stat err = %v", err)
	}
	if !strings.Contains(out, "main.txt") || !strings.Contains(out, "created") {
		t.Errorf("report = %q", out)
	}
}

func TestRun_Rejected(t *testing.T) {
	dir := setup(t, map[string]string{
		"main.txt": "something\nelse\n",
		"gone.txt": "bye\n",
	})

	code, _ := runPatch(t, options{root: dir, strip: 1}, patchText)
	if code != exitRejected {
		t.Fatalf("exit code = %d, want %d", code, exitRejected)
	}

	if got := readFile(t, filepath.Join(dir, "main.txt")); got != "something\nelse\n" {
		t.Errorf("main.txt changed: %q", got)
	}
	rej := readFile(t, filepath.Join(dir, "main.txt.rej"))
	if !strings.Contains(rej, "@@ -1,3 +1,3 @@") || !strings.Contains(rej, "+TWO") {
		t.Errorf("main.txt.rej = %q", rej)
	}
	// The other targets still apply.
	if got := readFile(t, filepath.Join(dir, "added.txt")); got != "hello\nworld\n" {
		t.Errorf("added.txt = %q", got)
	}
}

func TestRun_DryRun(t *testing.T) {
	dir := setup(t, map[string]string{
		"main.txt": "one\ntwo\nthree\n",
		"gone.txt": "bye\n",
	})

	code, out := runPatch(t, options{root: dir, strip: 1, dryRun: true}, patchText)
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d", code, exitOK)
	}
	if got := readFile(t, filepath.Join(dir, "main.txt")); got != "one\ntwo\nthree\n" {
		t.Errorf("dry run changed main.txt: %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "added.txt")); !os.IsNotExist(err) {
		t.Error("dry run created added.txt")
	}
	if !strings.Contains(out, "+TWO") {
		t.Errorf("dry run should preview changes:\n%s", out)
	}
}

func TestRun_Reverse(t *testing.T) {
	dir := setup(t, map[string]string{
		"main.txt":  "one\nTWO\nthree\n",
		"added.txt": "hello\nworld\n",
	})

	code, _ := runPatch(t, options{root: dir, strip: 1, reverse: true}, patchText)
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d", code, exitOK)
	}
	if got := readFile(t, filepath.Join(dir, "main.txt")); got != "one\ntwo\nthree\n" {
		t.Errorf("main.txt = %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "added.txt")); !os.IsNotExist(err) {
		t.Error("reverse should delete added.txt")
	}
	if got := readFile(t, filepath.Join(dir, "gone.txt")); got != "bye\n" {
		t.Errorf("gone.txt = %q", got)
	}
}

func TestRun_JSON(t *testing.T) {
	dir := setup(t, map[string]string{
		"main.txt": "one\ntwo\nthree\n",
		"gone.txt": "bye\n",
	})

	code, out := runPatch(t, options{root: dir, strip: 1, jsonOutput: true}, patchText)
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d", code, exitOK)
	}

	var s summary
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(s.Targets) != 3 {
		t.Fatalf("len(Targets) = %d, want 3", len(s.Targets))
	}
	wantActions := []string{"updated", "created", "deleted"}
	for i, want := range wantActions {
		if s.Targets[i].Action != want {
			t.Errorf("target %d action = %q, want %q", i, s.Targets[i].Action, want)
		}
	}
	if s.Stats.Hunks.Applied != 3 || s.Stats.Files.Deleted != 1 {
		t.Errorf("stats = %+v", s.Stats)
	}
}

func TestRun_Errors(t *testing.T) {
	dir := setup(t, map[string]string{"added.txt": "already here\n", "main.txt": "one\ntwo\nthree\n", "gone.txt": "bye\n"})

	t.Run("no diffs", func(t *testing.T) {
		if code, _ := runPatch(t, options{root: dir, strip: 1}, "just some text\n"); code != exitSetup {
			t.Errorf("exit code = %d, want %d", code, exitSetup)
		}
	})

	t.Run("missing patch file", func(t *testing.T) {
		opts := options{root: dir, strip: 1, patchFile: filepath.Join(dir, "nope.patch")}
		if code, _ := runPatch(t, opts, ""); code != exitSetup {
			t.Errorf("exit code = %d, want %d", code, exitSetup)
		}
	})

	t.Run("missing config file", func(t *testing.T) {
		opts := options{root: dir, strip: 1, configPath: filepath.Join(dir, "nope.yaml")}
		if code, _ := runPatch(t, opts, patchText); code != exitSetup {
			t.Errorf("exit code = %d, want %d", code, exitSetup)
		}
	})

	t.Run("addition over existing file", func(t *testing.T) {
		if code, _ := runPatch(t, options{root: dir, strip: 1}, patchText); code != exitSetup {
			t.Errorf("exit code = %d, want %d", code, exitSetup)
		}
		if got := readFile(t, filepath.Join(dir, "added.txt")); got != "already here\n" {
			t.Errorf("added.txt overwritten: %q", got)
		}
	})
}

func TestLoadConfig_Overrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kvit-patch.yaml")
	yaml := "patch:\n  strip: 2\n  jobs: 3\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(options{configPath: path, strip: -1, noRejects: true, backupSuffix: ".orig"})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Patch.Strip != 2 || cfg.Patch.Jobs != 3 {
		t.Errorf("file values lost: %+v", cfg.Patch)
	}
	if cfg.Patch.GetRejectFiles() || cfg.Patch.BackupSuffix != ".orig" {
		t.Errorf("flag overrides not applied: %+v", cfg.Patch)
	}

	cfg, err = loadConfig(options{configPath: path, strip: 0})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Patch.Strip != 0 {
		t.Errorf("Strip = %d, want 0 from flag", cfg.Patch.Strip)
	}
}
