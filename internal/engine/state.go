package engine

import (
	"fmt"

	"github.com/chojs23/mergelens/internal/markers"
)

// State holds the text of one buffer being resolved, with undo support.
type State struct {
	identity    string
	text        string
	undoStack   []string
	redoStack   []string
	maxUndoSize int
}

// NewState creates a new State for text identified by identity.
// maxUndoSize controls how many undo operations to retain (must be >= 1).
func NewState(identity, text string, maxUndoSize int) (*State, error) {
	if maxUndoSize < 1 {
		return nil, fmt.Errorf("maxUndoSize must be >= 1, got %d", maxUndoSize)
	}
	return &State{
		identity:    identity,
		text:        text,
		undoStack:   make([]string, 0, maxUndoSize),
		redoStack:   make([]string, 0, maxUndoSize),
		maxUndoSize: maxUndoSize,
	}, nil
}

// Apply commits a batch of edits as one undoable step.
func (s *State) Apply(edits []Edit) error {
	updated, err := ApplyEdits(s.text, edits)
	if err != nil {
		return err
	}
	if updated == s.text {
		return nil
	}

	// Save current state to undo stack before modifying, and invalidate redo history.
	s.beginMutation()
	s.text = updated
	return nil
}

// ApplyResolution replaces c with the side chosen by res.
// c must come from a scan of the current text.
func (s *State) ApplyResolution(c markers.Conflict, res markers.Resolution) error {
	edit, err := Resolve(s.Document(), c, res)
	if err != nil {
		return err
	}
	return s.Apply([]Edit{edit})
}

// ApplyAll resolves every conflict with res in one step.
func (s *State) ApplyAll(conflicts []markers.Conflict, res markers.Resolution) error {
	edits, err := ResolveAll(s.Document(), conflicts, res)
	if err != nil {
		return err
	}
	return s.Apply(edits)
}

// Undo restores the previous state.
// Returns error if no undo history is available.
func (s *State) Undo() error {
	if len(s.undoStack) == 0 {
		return fmt.Errorf("no undo history available")
	}

	// Save current state to redo stack before restoring previous state.
	s.pushWithLimit(&s.redoStack, s.text)

	lastIdx := len(s.undoStack) - 1
	s.text = s.undoStack[lastIdx]
	s.undoStack = s.undoStack[:lastIdx]

	return nil
}

// Redo reapplies a previously undone state.
// Returns error if no redo history is available.
func (s *State) Redo() error {
	if len(s.redoStack) == 0 {
		return fmt.Errorf("no redo history available")
	}

	// Save current state to undo stack before restoring redone state.
	s.pushWithLimit(&s.undoStack, s.text)

	lastIdx := len(s.redoStack) - 1
	s.text = s.redoStack[lastIdx]
	s.redoStack = s.redoStack[:lastIdx]

	return nil
}

// Reset replaces the text, e.g. after an external editor ran, and drops
// history.
func (s *State) Reset(text string) {
	s.text = text
	s.undoStack = s.undoStack[:0]
	s.redoStack = s.redoStack[:0]
}

func (s *State) Identity() string {
	return s.identity
}

func (s *State) Text() string {
	return s.text
}

// Document returns an immutable snapshot of the current text.
func (s *State) Document() *markers.TextDocument {
	return markers.NewTextDocument(s.identity, s.text)
}

// UndoDepth returns the current number of undo operations available.
func (s *State) UndoDepth() int {
	return len(s.undoStack)
}

// RedoDepth returns the current number of redo operations available.
func (s *State) RedoDepth() int {
	return len(s.redoStack)
}

// beginMutation saves the current state to undo and clears redo history.
func (s *State) beginMutation() {
	s.pushWithLimit(&s.undoStack, s.text)
	s.redoStack = s.redoStack[:0]
}

// pushWithLimit saves a snapshot into the stack and enforces max size.
func (s *State) pushWithLimit(stack *[]string, text string) {
	*stack = append(*stack, text)
	if len(*stack) > s.maxUndoSize {
		*stack = (*stack)[1:]
	}
}
