package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PermissionResult indicates the result of a permission check
type PermissionResult int

const (
	PermissionGranted PermissionResult = iota
	PermissionWarn
	PermissionDenied
)

// CheckPathPermission validates if a target path may be written.
// Relative paths are resolved against the workspace root.
func (c *Config) CheckPathPermission(path string) (PermissionResult, error) {
	var absPath string
	if filepath.IsAbs(path) {
		absPath = filepath.Clean(path)
	} else {
		absPath = filepath.Clean(filepath.Join(c.Workspace.Root, path))
	}

	// Check denied paths first (highest priority)
	for _, denied := range c.Workspace.DeniedPaths {
		deniedAbs := expandPath(denied)
		if !filepath.IsAbs(deniedAbs) {
			deniedAbs = filepath.Join(c.Workspace.Root, deniedAbs)
		}
		if isWithin(filepath.Clean(deniedAbs), absPath) {
			return PermissionDenied, fmt.Errorf("path is in denied_paths: %s", path)
		}
	}

	if isWithin(filepath.Clean(c.Workspace.Root), absPath) {
		return PermissionGranted, nil
	}

	switch c.Workspace.PathSafetyMode {
	case "warn":
		return PermissionWarn, nil
	default:
		return PermissionDenied, fmt.Errorf("path outside workspace: %s", path)
	}
}

func isWithin(root, path string) bool {
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
