package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kvit-s/kvit-patch/internal/config"
	"github.com/kvit-s/kvit-patch/internal/files"
	"github.com/kvit-s/kvit-patch/internal/logger"
	"github.com/kvit-s/kvit-patch/internal/patch"
	"github.com/kvit-s/kvit-patch/internal/stats"
	"github.com/kvit-s/kvit-patch/internal/tui"
	"github.com/kvit-s/kvit-patch/internal/ui"
	"github.com/kvit-s/kvit-patch/internal/workspace"
)

// Exit codes
const (
	exitOK       = 0
	exitRejected = 1
	exitSetup    = 2
)

type options struct {
	configPath   string
	root         string
	strip        int // -1 = use config
	reverse      bool
	dryRun       bool
	noRejects    bool
	backupSuffix string
	jobs         int
	logFile      string
	jsonOutput   bool
	interactive  bool
	verbose      bool
	quiet        bool
	stats        bool
	patchFile    string
}

// summary is the document printed in JSON mode.
type summary struct {
	DryRun  bool               `json:"dry_run"`
	Targets []stats.TargetJSON `json:"targets"`
	Stats   stats.RunStatsJSON `json:"stats"`
}

// run applies one patch and returns the process exit code.
func run(ctx context.Context, opts options, stdin io.Reader, writer *ui.Writer) int {
	start := time.Now()

	cfg, err := loadConfig(opts)
	if err != nil {
		writer.Error(fmt.Sprintf("load config: %v", err))
		return exitSetup
	}
	writer.SetVerbose(opts.verbose || opts.dryRun)
	if opts.verbose {
		writer.StartupInfo(fmt.Sprintf("Workspace: %s (strip %d)", cfg.Workspace.Root, cfg.Patch.Strip))
		if cfg.Log.File != "" {
			writer.StartupInfo(fmt.Sprintf("Logs: %s", cfg.Log.File))
		}
	}

	text, err := readPatch(opts.patchFile, stdin)
	if err != nil {
		writer.Error(fmt.Sprintf("read patch: %v", err))
		return exitSetup
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		writer.Error(fmt.Sprintf("initialize logger: %v", err))
		return exitSetup
	}
	defer log.Close()

	// Acquire workspace lock to prevent concurrent runs writing the same tree
	if !opts.dryRun {
		lock, err := workspace.AcquireLock(cfg.Workspace.Root)
		if err != nil {
			writer.Error(fmt.Sprintf("acquire workspace lock: %v", err))
			return exitSetup
		}
		defer lock.Release()
	}

	var runStats stats.RunStats

	session := patch.NewSession(patch.Options{
		Reverse: cfg.Patch.Reverse,
		Jobs:    cfg.Patch.Jobs,
	}, log)

	parseStart := time.Now()
	diffs := session.Parse(text)
	runStats.ParseTime = time.Since(parseStart)
	if len(diffs) == 0 {
		writer.Error("no diffs found in patch")
		return exitSetup
	}

	if opts.interactive {
		ok, err := tui.Select(diffs, cfg.Patch.Strip)
		if err != nil {
			writer.Error(err.Error())
			return exitSetup
		}
		if !ok {
			writer.Info("cancelled")
			return exitOK
		}
	}

	store := files.NewStore(cfg, log)

	applyStart := time.Now()
	results, err := session.ApplyAll(ctx, diffs, store.Resolve)
	runStats.ApplyTime = time.Since(applyStart)
	if err != nil {
		writer.Error(fmt.Sprintf("apply: %v", err))
		return exitSetup
	}

	var targets []stats.TargetJSON
	commitFailed := false
	for _, res := range results {
		path := res.Diff.TargetPath(cfg.Patch.Strip)
		runStats.Add(res)

		var action string
		var commitErr error
		if !opts.dryRun && res.Diff.Enabled {
			var a files.Action
			a, commitErr = store.Commit(res)
			if commitErr != nil {
				commitFailed = true
				writer.Error(fmt.Sprintf("%s: %v", path, commitErr))
				log.Error("commit "+path, commitErr)
			} else if a != files.ActionNone {
				action = string(a)
			}
			runStats.Written(action, res.Failed() && cfg.Patch.GetRejectFiles() && !errors.Is(commitErr, files.ErrPermission))
		}

		writer.Result(path, res, action)
		targets = append(targets, stats.Target(path, res, action, commitErr))
	}

	runStats.TotalTime = time.Since(start)

	writer.WriteJSON(summary{DryRun: opts.dryRun, Targets: targets, Stats: runStats.ToJSON()})
	if opts.stats && !writer.IsJSONMode() {
		runStats.Print()
	}
	if runStats.HunksRejected > 0 && (opts.dryRun || !cfg.Patch.GetRejectFiles()) {
		writer.Warn(fmt.Sprintf("%d rejected hunks were not saved to .rej files", runStats.HunksRejected))
	}
	writer.Info(runStats.Summary())

	switch {
	case commitFailed:
		return exitSetup
	case runStats.HunksRejected > 0:
		return exitRejected
	default:
		return exitOK
	}
}

// loadConfig reads the config file and applies flag overrides.
// An explicit -config must exist; the default path is optional.
func loadConfig(opts options) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.LoadOrDefault(config.DefaultPath)
	}
	if err != nil {
		return nil, err
	}

	if opts.root != "" {
		if err := cfg.SetRoot(opts.root); err != nil {
			return nil, err
		}
	}
	if opts.strip >= 0 {
		cfg.Patch.Strip = opts.strip
	}
	if opts.reverse {
		cfg.Patch.Reverse = true
	}
	if opts.noRejects {
		off := false
		cfg.Patch.RejectFiles = &off
	}
	if opts.backupSuffix != "" {
		cfg.Patch.BackupSuffix = opts.backupSuffix
	}
	if opts.jobs > 0 {
		cfg.Patch.Jobs = opts.jobs
	}
	if opts.logFile != "" {
		cfg.Log.File = opts.logFile
	}
	return cfg, nil
}

func readPatch(path string, stdin io.Reader) (string, error) {
	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
