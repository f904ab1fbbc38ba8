package workspace

import (
	"os"
	"path/filepath"
	"strings"
)

// NormalizeAndValidatePath normalizes a path and checks if it's outside workspace
// Returns: (normalizedPath, isOutside, error)
func NormalizeAndValidatePath(workspaceRoot, inputPath string) (string, bool, error) {
	path := inputPath
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false, err
		}
		path = filepath.Join(home, path[2:])
	}

	var absPath string
	if filepath.IsAbs(path) {
		absPath = path
	} else {
		absPath = filepath.Join(workspaceRoot, filepath.FromSlash(path))
	}
	absPath = filepath.Clean(absPath)

	relPath, err := filepath.Rel(filepath.Clean(workspaceRoot), absPath)
	if err != nil {
		return "", false, err
	}

	outside := relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator))
	return absPath, outside, nil
}

// RelPath returns fullPath relative to the workspace root for display,
// or fullPath itself when it cannot be expressed relatively.
func RelPath(workspaceRoot, fullPath string) string {
	rel, err := filepath.Rel(workspaceRoot, fullPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fullPath
	}
	return filepath.ToSlash(rel)
}
