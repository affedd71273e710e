package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/chojs23/mergelens/internal/cli"
	"github.com/chojs23/mergelens/internal/commands"
	"github.com/chojs23/mergelens/internal/config"
	"github.com/chojs23/mergelens/internal/engine"
	"github.com/chojs23/mergelens/internal/markers"
	"github.com/chojs23/mergelens/internal/tracker"
	"github.com/tliron/commonlog"
)

const (
	maxUndoSize   = 100
	toastDuration = 2 * time.Second
)

var ErrBackToSelector = errors.New("back to selector")

var log = commonlog.GetLogger("mergelens.tui")

type model struct {
	ctx      context.Context
	opts     cli.Options
	cfg      config.Config
	buf      *commands.Buffer
	handler  *commands.Handler
	viewport viewport.Model

	pendingScroll bool
	ready         bool
	width         int
	height        int
	quitting      bool
	toastMessage  string
	toastWarning  bool
	toastSeq      int
	err           error
}

// Run opens opts.MergedPath in the viewer and blocks until the user leaves.
func Run(ctx context.Context, opts cli.Options, cfg config.Config) error {
	if err := ensureThemeLoaded(); err != nil {
		return err
	}

	m, err := newModel(ctx, opts, cfg)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	if m, ok := finalModel.(model); ok {
		return m.err
	}
	return nil
}

func newModel(ctx context.Context, opts cli.Options, cfg config.Config) (model, error) {
	data, err := os.ReadFile(opts.MergedPath)
	if err != nil {
		return model{}, fmt.Errorf("read merged: %w", err)
	}

	state, err := engine.NewState(opts.MergedPath, string(data), maxUndoSize)
	if err != nil {
		return model{}, fmt.Errorf("failed to create state: %w", err)
	}

	m := model{
		ctx:           ctx,
		opts:          opts,
		cfg:           cfg,
		buf:           commands.NewBuffer(state),
		handler:       commands.NewHandler(tracker.New(engine.ScannerFor(opts), cfg.CacheTTL)),
		pendingScroll: true,
	}
	// Start on the first conflict rather than the top of the file.
	if cs := m.conflicts(); len(cs) > 0 {
		m.buf.SetCursor(cs[0].Range.Start, cs[0].Range)
	}
	return m, nil
}

func (m model) Init() tea.Cmd {
	return nil
}

type editorFinishedMsg struct {
	err error
}

type toastExpiredMsg struct {
	id int
}

func (m *model) showToast(message string, warning bool) tea.Cmd {
	m.toastMessage = message
	m.toastWarning = warning
	m.toastSeq++
	seq := m.toastSeq
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: seq}
	})
}

func (m *model) conflicts() []markers.Conflict {
	return m.handler.Tracker().GetConflicts(m.buf.Document())
}

// textChanged drops the cached scan after undo, redo or a reload, which
// change the text without going through the handler.
func (m *model) textChanged() {
	m.handler.Tracker().Forget(m.buf.Document())
	m.buf.MoveCursor(m.buf.Cursor())
	m.pendingScroll = true
	m.updateViewport()
}

// run executes a handler command. Warnings become a toast; anything else
// ends the session.
func (m *model) run(cmd commands.Command) tea.Cmd {
	err := m.handler.Run(m.buf, cmd, commands.FromCursor())
	switch {
	case err == nil:
		m.pendingScroll = true
		m.updateViewport()
		return nil
	case commands.IsWarning(err):
		return m.showToast(err.Error(), true)
	}
	m.err = fmt.Errorf("%s: %w", cmd, err)
	m.quitting = true
	return tea.Quit
}

func (m *model) moveCursor(delta int) {
	pos := m.buf.Cursor()
	pos.Line += delta
	pos.Character = 0
	if last := m.lastLine(); pos.Line > last {
		pos.Line = last
	}
	m.buf.MoveCursor(pos)
	m.pendingScroll = true
	m.updateViewport()
}

// lastLine is the last line shown, which skips the empty line after a final
// newline.
func (m *model) lastLine() int {
	doc := m.buf.TextDocument()
	last := doc.LineCount() - 1
	if last > 0 && doc.Line(last) == "" {
		last--
	}
	return last
}

var keyCommands = map[string]commands.Command{
	"n": commands.Next,
	"p": commands.Previous,
	"o": commands.AcceptCurrent,
	"t": commands.AcceptIncoming,
	"b": commands.AcceptBoth,
	"a": commands.AcceptSelection,
	"O": commands.AcceptAllCurrent,
	"T": commands.AcceptAllIncoming,
	"B": commands.AcceptAllBoth,
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case editorFinishedMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("editor workflow failed: %w", msg.err)
			m.quitting = true
			return m, tea.Quit
		}
		if err := m.reloadFromFile(); err != nil {
			m.err = fmt.Errorf("reload after editor failed: %w", err)
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case toastExpiredMsg:
		if msg.id == m.toastSeq {
			m.toastMessage = ""
		}
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		if c, ok := keyCommands[key]; ok {
			return m, m.run(c)
		}

		switch key {
		case "q":
			m.err = ErrBackToSelector
			m.quitting = true
			return m, tea.Quit

		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "j", "down":
			m.moveCursor(1)
			return m, nil

		case "k", "up":
			m.moveCursor(-1)
			return m, nil

		case "g", "home":
			m.moveCursor(-m.buf.Cursor().Line)
			return m, nil

		case "G", "end":
			m.moveCursor(m.buf.TextDocument().LineCount())
			return m, nil

		case "u":
			if err := m.buf.State().Undo(); err != nil {
				return m, m.showToast("Nothing to undo", true)
			}
			m.textChanged()
			return m, nil

		case "ctrl+r":
			if err := m.buf.State().Redo(); err != nil {
				return m, m.showToast("Nothing to redo", true)
			}
			m.textChanged()
			return m, nil

		case "w":
			left, err := m.writeResolved()
			if err != nil {
				m.err = fmt.Errorf("failed to write resolved: %w", err)
				m.quitting = true
				return m, tea.Quit
			}
			if left > 0 {
				return m, m.showToast(fmt.Sprintf("Saved (%d unresolved)", left), true)
			}
			return m, m.showToast("Saved", false)

		case "e":
			editorCmd, err := m.prepareEditor()
			if err != nil {
				m.err = err
				m.quitting = true
				return m, tea.Quit
			}
			return m, tea.ExecProcess(editorCmd, func(err error) tea.Msg {
				return editorFinishedMsg{err: err}
			})
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 2
		footerHeight := 3
		contentHeight := m.height - headerHeight - footerHeight - 4 // border + title
		if contentHeight < 1 {
			contentHeight = 1
		}
		paneWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(paneWidth, contentHeight)
			m.ready = true
		} else {
			m.viewport.Width = paneWidth
			m.viewport.Height = contentHeight
		}
		m.updateViewport()
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	if m.quitting {
		if m.err != nil {
			if errors.Is(m.err, ErrBackToSelector) {
				return "\n  Returning to selector...\n"
			}
			return fmt.Sprintf("\n  Error: %v\n", m.err)
		}
		return "\n  Bye.\n"
	}

	conflicts := m.conflicts()
	header := headerStyle.Render(fmt.Sprintf("%s - %s", m.opts.MergedPath, conflictStatus(conflicts, m.buf.Cursor())))

	statusText := fmt.Sprintf("%d unresolved", len(conflicts))
	statusStyle := statusPendingStyle
	if len(conflicts) == 0 {
		statusText = "Resolved"
		statusStyle = statusResolvedStyle
	}
	title := titleStyle.Render(sideTitle(conflicts, m.buf.Cursor())) + " " + statusStyle.Render("("+statusText+")")
	pane := paneStyle.Render(title + "\n" + m.viewport.View())

	undoInfo := ""
	if depth := m.buf.State().UndoDepth(); depth > 0 {
		undoInfo = fmt.Sprintf(" | Undo available: %d", depth)
	}
	footerText := footerStyle.Width(m.width).Render(
		"j/k: move | n/p: next/prev | o: current | t: incoming | b: both | a: side under cursor | O/T/B: all | u: undo | ctrl+r: redo | e: editor | w: write | q: back" + undoInfo,
	)
	footer := lipgloss.JoinVertical(lipgloss.Left, footerText, m.renderToastLine())

	return lipgloss.JoinVertical(lipgloss.Left, header, pane, footer)
}

// conflictStatus names the conflict under the cursor, e.g. "Conflict 2/3".
func conflictStatus(conflicts []markers.Conflict, cursor markers.Position) string {
	if len(conflicts) == 0 {
		return "No conflicts"
	}
	for i, c := range conflicts {
		if c.Range.Contains(cursor) {
			return fmt.Sprintf("Conflict %d/%d", i+1, len(conflicts))
		}
	}
	return fmt.Sprintf("%d conflicts", len(conflicts))
}

// sideTitle shows both labels of the conflict under the cursor.
func sideTitle(conflicts []markers.Conflict, cursor markers.Position) string {
	for _, c := range conflicts {
		if !c.Range.Contains(cursor) {
			continue
		}
		current, incoming := "CURRENT", "INCOMING"
		if label := shortLabel(c.Current.Name); label != "" {
			current = fmt.Sprintf("CURRENT (%s)", label)
		}
		if label := shortLabel(c.Incoming.Name); label != "" {
			incoming = fmt.Sprintf("INCOMING (%s)", label)
		}
		return current + " vs " + incoming
	}
	return "FILE"
}

func (m model) renderToastLine() string {
	content := ""
	if m.toastMessage != "" {
		style := toastStyle
		if m.toastWarning {
			style = warningToastStyle
		}
		content = style.Render(m.toastMessage)
	}
	return toastLineStyle.Width(m.width).Render(content)
}

func (m *model) updateViewport() {
	if !m.ready {
		return
	}
	lines, activeStart := buildLines(m.buf.TextDocument(), m.conflicts(), m.cfg, m.buf.Cursor())
	if m.cfg.Decorations {
		annotate(lines)
	}
	m.viewport.SetContent(renderLines(lines, regionStyles, plainLineStyle))
	if m.pendingScroll {
		// Bring the header of the active conflict in first, then the cursor.
		if activeStart >= 0 {
			ensureVisible(&m.viewport, activeStart, len(lines))
		}
		ensureVisible(&m.viewport, m.buf.Cursor().Line, len(lines))
		m.pendingScroll = false
	}
}

// ensureVisible scrolls only when line is outside the viewport, keeping a
// small margin.
func ensureVisible(viewportModel *viewport.Model, line int, total int) {
	if viewportModel.Height <= 0 {
		return
	}
	if total <= 0 {
		viewportModel.YOffset = 0
		return
	}

	maxOffset := total - viewportModel.Height
	if maxOffset < 0 {
		maxOffset = 0
	}

	margin := 2
	target := viewportModel.YOffset
	if line-margin < target {
		target = line - margin
	}
	if line+margin >= target+viewportModel.Height {
		target = line + margin - viewportModel.Height + 1
	}
	if target < 0 {
		target = 0
	}
	if target > maxOffset {
		target = maxOffset
	}
	viewportModel.YOffset = target
}

// writeResolved writes the buffer back and returns how many conflicts are
// still in it.
func (m *model) writeResolved() (int, error) {
	text := m.buf.State().Text()

	if m.opts.Backup {
		original, err := os.ReadFile(m.opts.MergedPath)
		if err != nil {
			return 0, fmt.Errorf("read merged for backup: %w", err)
		}
		bak := m.opts.MergedPath + engine.BackupSuffix
		if err := os.WriteFile(bak, original, 0o644); err != nil {
			return 0, fmt.Errorf("write backup %s: %w", filepath.Base(bak), err)
		}
	}

	if err := os.WriteFile(m.opts.MergedPath, []byte(text), 0o644); err != nil {
		return 0, fmt.Errorf("write merged: %w", err)
	}

	left := len(m.conflicts())
	log.Infof("wrote %s with %d conflicts left", m.opts.MergedPath, left)
	return left, nil
}

// prepareEditor saves the buffer so the external editor sees the current
// state, and returns the command to run.
func (m *model) prepareEditor() (*exec.Cmd, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	if _, err := m.writeResolved(); err != nil {
		return nil, fmt.Errorf("write merged before editor: %w", err)
	}
	return exec.Command(editor, m.opts.MergedPath), nil
}

func (m *model) reloadFromFile() error {
	data, err := os.ReadFile(m.opts.MergedPath)
	if err != nil {
		return fmt.Errorf("read edited file: %w", err)
	}
	m.buf.State().Reset(string(data))
	m.textChanged()
	return nil
}
