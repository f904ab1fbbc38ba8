// Package tui provides the interactive hunk selector for kvit-patch.
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kvit-s/kvit-patch/internal/patch"
)

// Select lets the user enable or disable diffs and hunks in place.
// It returns false when the user cancelled.
func Select(diffs []*patch.Diff, strip int) (bool, error) {
	if len(diffs) == 0 {
		return false, nil
	}

	p := tea.NewProgram(NewModel(diffs, strip), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("run selector: %w", err)
	}

	final, ok := result.(Model)
	if !ok {
		return false, fmt.Errorf("unexpected model type %T", result)
	}
	return final.Confirmed(), nil
}
