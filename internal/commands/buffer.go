package commands

import (
	"github.com/chojs23/mergelens/internal/engine"
	"github.com/chojs23/mergelens/internal/markers"
)

// Buffer is an in-memory Editor over an engine.State, used by the terminal
// UI and the CLI.
type Buffer struct {
	state  *engine.State
	doc    *markers.TextDocument
	cursor markers.Position
	view   markers.Range
}

func NewBuffer(state *engine.State) *Buffer {
	return &Buffer{state: state}
}

func (b *Buffer) State() *engine.State {
	return b.state
}

// Document returns a snapshot of the current text. The snapshot is reused
// until the text changes.
func (b *Buffer) Document() markers.Document {
	return b.TextDocument()
}

func (b *Buffer) TextDocument() *markers.TextDocument {
	if b.doc == nil || b.doc.Text() != b.state.Text() {
		b.doc = b.state.Document()
	}
	return b.doc
}

func (b *Buffer) Cursor() markers.Position {
	return b.cursor
}

func (b *Buffer) SetCursor(pos markers.Position, r markers.Range) {
	b.cursor = b.clamp(pos)
	b.view = r
}

// MoveCursor sets the cursor without changing the revealed range.
func (b *Buffer) MoveCursor(pos markers.Position) {
	b.cursor = b.clamp(pos)
}

// Revealed is the range last passed to SetCursor.
func (b *Buffer) Revealed() markers.Range {
	return b.view
}

func (b *Buffer) ApplyEdits(edits []engine.Edit) error {
	if err := b.state.Apply(edits); err != nil {
		return err
	}
	b.cursor = b.clamp(b.cursor)
	return nil
}

func (b *Buffer) clamp(pos markers.Position) markers.Position {
	doc := b.TextDocument()
	if pos.Line < 0 {
		return markers.Position{}
	}
	if last := doc.LineCount() - 1; pos.Line > last {
		pos.Line = last
	}
	if pos.Character < 0 {
		pos.Character = 0
	}
	return doc.PositionAt(doc.OffsetAt(pos))
}
