// Package files resolves diff targets in the workspace and writes patch
// results back to disk.
package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kvit-s/kvit-patch/internal/config"
	"github.com/kvit-s/kvit-patch/internal/logger"
	"github.com/kvit-s/kvit-patch/internal/patch"
	"github.com/kvit-s/kvit-patch/internal/workspace"
)

// RejectSuffix is appended to a target's path for its reject file.
const RejectSuffix = ".rej"

var (
	// ErrPermission is returned for targets the configuration does not allow writing.
	ErrPermission = errors.New("permission denied")
	// ErrTargetExists is returned when an addition would overwrite a non-empty file.
	ErrTargetExists = errors.New("target already exists")
)

// Action describes what Commit did to a target.
type Action string

const (
	ActionNone    Action = "none"
	ActionUpdated Action = "updated"
	ActionCreated Action = "created"
	ActionDeleted Action = "deleted"
)

// Store maps diffs onto files under the workspace root.
type Store struct {
	cfg *config.Config
	log *logger.Logger
}

// NewStore creates a Store. A nil logger disables logging.
func NewStore(cfg *config.Config, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{cfg: cfg, log: log}
}

// FullPath returns the absolute file path targeted by d.
func (s *Store) FullPath(d *patch.Diff) (string, error) {
	rel := d.TargetPath(s.cfg.Patch.Strip)

	perm, err := s.cfg.CheckPathPermission(rel)
	if perm == config.PermissionDenied {
		return "", fmt.Errorf("%w: %v", ErrPermission, err)
	}

	fullPath, outside, err := workspace.NormalizeAndValidatePath(s.cfg.Workspace.Root, rel)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", rel, err)
	}
	if outside {
		s.log.Info("target outside workspace", zap.String("path", fullPath))
	}
	return fullPath, nil
}

// Resolve reads the current lines of d's target. It reports false when the
// target does not exist or cannot be read.
func (s *Store) Resolve(d *patch.Diff) ([]string, bool) {
	fullPath, err := s.FullPath(d)
	if err != nil {
		s.log.Error("resolve target", err)
		return nil, false
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Error("read target", err)
		}
		return nil, false
	}
	return patch.SplitLines(string(data)), true
}

// Commit writes a result back to its target: rejected hunks go to a reject
// file, patched content replaces or creates the target, and a deletion that
// empties its target removes the file.
func (s *Store) Commit(res *patch.Result) (Action, error) {
	fullPath, err := s.FullPath(res.Diff)
	if err != nil {
		return ActionNone, err
	}

	if res.Failed() && s.cfg.Patch.GetRejectFiles() {
		rejects := patch.FormatRejects(res.Diff, res.Rejected)
		if err := s.WriteFileAtomic(fullPath+RejectSuffix, rejects); err != nil {
			return ActionNone, fmt.Errorf("write rejects: %w", err)
		}
		s.log.FileWritten(s.relPath(fullPath+RejectSuffix), "rejects")
	}

	content, ok := res.Content()
	if !ok || res.Applied == 0 {
		return ActionNone, nil
	}

	_, statErr := os.Stat(fullPath)
	exists := statErr == nil

	if res.Diff.Kind == patch.KindAddition && exists && len(res.Original) > 0 {
		return ActionNone, fmt.Errorf("%w: %s", ErrTargetExists, fullPath)
	}

	if exists {
		if err := s.backup(fullPath, res.Original); err != nil {
			return ActionNone, err
		}
	}

	var action Action
	switch {
	case res.Diff.Kind == patch.KindDeletion && content == "":
		if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return ActionNone, fmt.Errorf("delete target: %w", err)
		}
		action = ActionDeleted
	case exists:
		if err := s.WriteFileAtomic(fullPath, content); err != nil {
			return ActionNone, err
		}
		action = ActionUpdated
	default:
		if err := s.WriteFileAtomic(fullPath, content); err != nil {
			return ActionNone, err
		}
		action = ActionCreated
	}

	s.log.FileWritten(s.relPath(fullPath), string(action))
	return action, nil
}

func (s *Store) relPath(fullPath string) string {
	return workspace.RelPath(s.cfg.Workspace.Root, fullPath)
}

func (s *Store) backup(fullPath string, original []string) error {
	suffix := s.cfg.Patch.BackupSuffix
	if suffix == "" {
		return nil
	}
	if err := s.WriteFileAtomic(fullPath+suffix, patch.JoinLines(original)); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// WriteFileAtomic writes content to a file atomically using temp file + rename
func (s *Store) WriteFileAtomic(fullPath, content string) error {
	parentDir := filepath.Dir(fullPath)
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	tempFile, err := os.CreateTemp(parentDir, ".patch-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	defer os.Remove(tempPath) // Clean up temp file in case of error

	if _, err := tempFile.WriteString(content); err != nil {
		tempFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// Keep the mode of the file being replaced
	if info, err := os.Stat(fullPath); err == nil {
		_ = os.Chmod(tempPath, info.Mode())
	} else {
		_ = os.Chmod(tempPath, 0644)
	}

	if err := os.Rename(tempPath, fullPath); err != nil {
		return fmt.Errorf("atomic rename failed: %w", err)
	}
	return nil
}
