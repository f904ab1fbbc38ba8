package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kvit-s/kvit-patch/internal/patch"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("136")).Bold(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	addStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	deleteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	previewStyle  = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(lipgloss.Color("240"))
)

// row is one selectable line: a diff header (hunk == -1) or one of its hunks.
type row struct {
	diff int
	hunk int
}

// Model lets the user enable and disable diffs and hunks before applying.
// Toggles write through to the *patch.Diff values it was built from.
type Model struct {
	diffs     []*patch.Diff
	strip     int
	rows      []row
	cursor    int
	preview   viewport.Model
	height    int
	confirmed bool
	quitting  bool
}

// NewModel builds a selector over diffs. strip is used only to display paths.
func NewModel(diffs []*patch.Diff, strip int) Model {
	m := Model{
		diffs:   diffs,
		strip:   strip,
		preview: viewport.New(80, 10),
		height:  24,
	}
	for i, d := range diffs {
		m.rows = append(m.rows, row{diff: i, hunk: -1})
		for j := range d.Hunks {
			m.rows = append(m.rows, row{diff: i, hunk: j})
		}
	}
	m.refreshPreview()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.preview.Width = msg.Width
		m.preview.Height = max(msg.Height/3, 5)
		m.refreshPreview()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Cancel):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Apply):
			m.confirmed = true
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.refreshPreview()
			}

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				m.refreshPreview()
			}

		case key.Matches(msg, keys.ToggleHunk):
			m.toggle()

		case key.Matches(msg, keys.ToggleDiff):
			if len(m.rows) > 0 {
				d := m.diffs[m.rows[m.cursor].diff]
				d.Enabled = !d.Enabled
			}

		case key.Matches(msg, keys.ScrollUp):
			m.preview.LineUp(m.preview.Height / 2)

		case key.Matches(msg, keys.ScrollDown):
			m.preview.LineDown(m.preview.Height / 2)
		}
	}
	return m, nil
}

// toggle flips the flag under the cursor: the diff on a header row, the hunk otherwise.
func (m *Model) toggle() {
	if len(m.rows) == 0 {
		return
	}
	r := m.rows[m.cursor]
	d := m.diffs[r.diff]
	if r.hunk < 0 {
		d.Enabled = !d.Enabled
		return
	}
	h := d.Hunks[r.hunk]
	h.Enabled = !h.Enabled
}

// refreshPreview loads the hunk (or the first hunk of the diff) under the cursor.
func (m *Model) refreshPreview() {
	if len(m.rows) == 0 {
		m.preview.SetContent("")
		return
	}
	r := m.rows[m.cursor]
	d := m.diffs[r.diff]
	idx := r.hunk
	if idx < 0 {
		idx = 0
	}
	if idx >= len(d.Hunks) {
		m.preview.SetContent("")
		return
	}

	var b strings.Builder
	for _, line := range strings.Split(strings.TrimSuffix(d.Hunks[idx].String(), "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			b.WriteString(addStyle.Render(line))
		case strings.HasPrefix(line, "-"):
			b.WriteString(deleteStyle.Render(line))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	m.preview.SetContent(b.String())
	m.preview.GotoTop()
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Select hunks to apply"))
	b.WriteString("\n\n")

	start, end := m.window()
	for i := start; i < end; i++ {
		b.WriteString(m.renderRow(i))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(previewStyle.Render(m.preview.View()))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(helpLine()))
	return b.String()
}

// window returns the range of rows that fit above the preview.
func (m Model) window() (int, int) {
	visible := m.height - m.preview.Height - 6
	if visible < 3 {
		visible = 3
	}
	if len(m.rows) <= visible {
		return 0, len(m.rows)
	}
	start := m.cursor - visible/2
	if start < 0 {
		start = 0
	}
	if start+visible > len(m.rows) {
		start = len(m.rows) - visible
	}
	return start, start + visible
}

func (m Model) renderRow(i int) string {
	r := m.rows[i]
	d := m.diffs[r.diff]

	var text string
	enabled := d.Enabled
	if r.hunk < 0 {
		text = fmt.Sprintf("%s %s (%s, %d hunks)", checkbox(d.Enabled), d.TargetPath(m.strip), d.Kind, len(d.Hunks))
	} else {
		h := d.Hunks[r.hunk]
		text = fmt.Sprintf("    %s %s", checkbox(h.Enabled), h.Header())
		enabled = enabled && h.Enabled
	}

	if i == m.cursor {
		return cursorStyle.Render("> " + text)
	}
	if !enabled {
		return disabledStyle.Render("  " + text)
	}
	return "  " + text
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func helpLine() string {
	var parts []string
	for _, b := range keys.help() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

// Confirmed reports whether the user chose to apply.
func (m Model) Confirmed() bool {
	return m.confirmed
}
