package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// FileCandidate is one unmerged file offered by the selector. Conflicts is
// the number of marker blocks currently in it.
type FileCandidate struct {
	Path      string
	Conflicts int
}

type fileItem struct {
	path      string
	conflicts int
}

func (f fileItem) Title() string {
	return f.path
}

func (f fileItem) Description() string {
	return ""
}

func (f fileItem) FilterValue() string {
	return f.path
}

func (f fileItem) label() string {
	switch f.conflicts {
	case 0:
		return "resolved"
	case 1:
		return "1 conflict"
	}
	return fmt.Sprintf("%d conflicts", f.conflicts)
}

type fileItemDelegate struct{}

const labelWidth = len("99 conflicts")

func (d fileItemDelegate) Height() int {
	return 1
}

func (d fileItemDelegate) Spacing() int {
	return 0
}

func (d fileItemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd {
	return nil
}

func (d fileItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	file, ok := item.(fileItem)
	if !ok {
		return
	}
	cursor := "  "
	if index == m.Index() {
		cursor = "> "
	}
	labelStyle := unresolvedLabelStyle
	if file.conflicts == 0 {
		labelStyle = resolvedLabelStyle
	}
	labelText := fmt.Sprintf("%*s", labelWidth, file.label())
	fmt.Fprint(w, cursor+labelStyle.Render(labelText)+"  "+file.path)
}

type fileSelectModel struct {
	list     list.Model
	selected string
	err      error
}

var ErrSelectorQuit = errors.New("selector quit")

// SelectFile opens a TUI selector and returns the chosen repo-relative path.
func SelectFile(ctx context.Context, candidates []FileCandidate) (string, error) {
	if err := ensureThemeLoaded(); err != nil {
		return "", err
	}

	program := tea.NewProgram(newFileSelectModel(candidates), tea.WithAltScreen(), tea.WithContext(ctx))
	finalModel, err := program.Run()
	if err != nil {
		return "", fmt.Errorf("file selector TUI error: %w", err)
	}

	result, ok := finalModel.(fileSelectModel)
	if !ok {
		return "", fmt.Errorf("file selector returned unexpected model")
	}
	if result.err != nil {
		return "", result.err
	}
	if result.selected == "" {
		return "", fmt.Errorf("no file selected")
	}
	return result.selected, nil
}

func newFileSelectModel(candidates []FileCandidate) fileSelectModel {
	items := make([]list.Item, 0, len(candidates))
	for _, candidate := range candidates {
		items = append(items, fileItem{path: candidate.Path, conflicts: candidate.Conflicts})
	}

	model := fileSelectModel{list: list.New(items, fileItemDelegate{}, 0, 0)}
	model.list.Title = "Select conflicted file"
	model.list.SetShowHelp(false)
	model.list.SetShowStatusBar(false)
	model.list.SetShowPagination(false)
	model.list.SetFilteringEnabled(false)
	return model
}

func (m fileSelectModel) Init() tea.Cmd {
	return nil
}

func (m fileSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.err = ErrSelectorQuit
			return m, tea.Quit
		case "enter":
			if item, ok := m.list.SelectedItem().(fileItem); ok {
				m.selected = item.path
				return m, tea.Quit
			}
		}
	case tea.WindowSizeMsg:
		width := msg.Width
		height := msg.Height
		if height < 5 {
			height = 5
		}
		m.list.SetSize(width, height-2)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m fileSelectModel) View() string {
	return m.list.View() + "\n" + "up/down: move, enter: select, q: quit"
}
