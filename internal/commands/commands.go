// Package commands implements the accept and navigate commands on top of the
// tracker, the resolver and the selection index. Editors plug in through the
// Editor interface.
package commands

import (
	"errors"
	"fmt"

	"github.com/chojs23/mergelens/internal/engine"
	"github.com/chojs23/mergelens/internal/markers"
	"github.com/chojs23/mergelens/internal/selection"
	"github.com/chojs23/mergelens/internal/tracker"
	"github.com/tliron/commonlog"
)

// User-facing warnings. None of them change the document.
var (
	ErrCursorNotInConflict = errors.New("Editor cursor is not within a merge conflict")
	ErrCursorOnSplitter    = errors.New("Editor cursor is within the merge conflict splitter, please move it to either the \"current\" or \"incoming\" block")
	ErrNoConflicts         = errors.New("No merge conflicts found in this file")
	ErrNoOtherConflicts    = errors.New("No other merge conflicts within this file")
)

var ErrUnknownCommand = errors.New("unknown command")

var log = commonlog.GetLogger("mergelens.commands")

// IsWarning reports whether err is one of the user-facing warnings.
func IsWarning(err error) bool {
	return errors.Is(err, ErrCursorNotInConflict) ||
		errors.Is(err, ErrCursorOnSplitter) ||
		errors.Is(err, ErrNoConflicts) ||
		errors.Is(err, ErrNoOtherConflicts)
}

// Editor is the view of one open document a command acts on.
type Editor interface {
	Document() markers.Document
	Cursor() markers.Position
	// SetCursor moves the cursor and brings r into view.
	SetCursor(pos markers.Position, r markers.Range)
	// ApplyEdits applies the batch atomically against the current text.
	ApplyEdits(edits []engine.Edit) error
}

// Invocation says where an accept command takes its conflict from: the
// cursor, or a conflict the caller already holds (a code lens).
type Invocation struct {
	known *markers.Conflict
}

func FromCursor() Invocation {
	return Invocation{}
}

func FromKnownConflict(c markers.Conflict) Invocation {
	return Invocation{known: &c}
}

// Known returns the carried conflict, if any.
func (i Invocation) Known() (markers.Conflict, bool) {
	if i.known == nil {
		return markers.Conflict{}, false
	}
	return *i.known, true
}

// Command names a handler operation.
type Command string

const (
	AcceptCurrent     Command = "accept.current"
	AcceptIncoming    Command = "accept.incoming"
	AcceptBoth        Command = "accept.both"
	AcceptSelection   Command = "accept.selection"
	AcceptAllCurrent  Command = "accept.all-current"
	AcceptAllIncoming Command = "accept.all-incoming"
	AcceptAllBoth     Command = "accept.all-both"
	Next              Command = "next"
	Previous          Command = "previous"
)

// All lists every command in a stable order.
var All = []Command{
	AcceptCurrent, AcceptIncoming, AcceptBoth, AcceptSelection,
	AcceptAllCurrent, AcceptAllIncoming, AcceptAllBoth,
	Next, Previous,
}

// Handler runs commands. It is safe for concurrent use as long as each Editor
// is used by one command at a time.
type Handler struct {
	tracker *tracker.Tracker
}

func NewHandler(t *tracker.Tracker) *Handler {
	return &Handler{tracker: t}
}

// Tracker returns the cache the handler reads conflicts from.
func (h *Handler) Tracker() *tracker.Tracker {
	return h.tracker
}

// Run dispatches cmd. inv only matters for the single-conflict accepts.
func (h *Handler) Run(ed Editor, cmd Command, inv Invocation) error {
	switch cmd {
	case AcceptCurrent:
		return h.Accept(ed, markers.ResolutionCurrent, inv)
	case AcceptIncoming:
		return h.Accept(ed, markers.ResolutionIncoming, inv)
	case AcceptBoth:
		return h.Accept(ed, markers.ResolutionBoth, inv)
	case AcceptSelection:
		return h.AcceptSelection(ed)
	case AcceptAllCurrent:
		return h.AcceptAll(ed, markers.ResolutionCurrent)
	case AcceptAllIncoming:
		return h.AcceptAll(ed, markers.ResolutionIncoming)
	case AcceptAllBoth:
		return h.AcceptAll(ed, markers.ResolutionBoth)
	case Next:
		return h.Next(ed)
	case Previous:
		return h.Previous(ed)
	}
	return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
}

// Accept replaces one conflict with the side chosen by res.
func (h *Handler) Accept(ed Editor, res markers.Resolution, inv Invocation) error {
	c, ok := inv.Known()
	if !ok {
		c, ok = h.containing(ed)
	}
	if !ok {
		return ErrCursorNotInConflict
	}
	return h.commit(ed, []markers.Conflict{c}, res)
}

// AcceptSelection accepts the side of the conflict the cursor is in.
func (h *Handler) AcceptSelection(ed Editor) error {
	c, ok := h.containing(ed)
	if !ok {
		return ErrCursorNotInConflict
	}
	side := selection.FindSide(c, ed.Cursor())
	if side == selection.SideAmbiguous {
		return ErrCursorOnSplitter
	}
	return h.commit(ed, []markers.Conflict{c}, side.Resolution())
}

// AcceptAll resolves every conflict in one edit.
func (h *Handler) AcceptAll(ed Editor, res markers.Resolution) error {
	conflicts := h.tracker.GetConflicts(ed.Document())
	if len(conflicts) == 0 {
		return ErrNoConflicts
	}
	return h.commit(ed, conflicts, res)
}

// Next moves the cursor to the start of the next conflict.
func (h *Handler) Next(ed Editor) error {
	return h.navigate(ed, selection.FindNext)
}

// Previous moves the cursor to the start of the previous conflict.
func (h *Handler) Previous(ed Editor) error {
	return h.navigate(ed, selection.FindPrevious)
}

type finder func([]markers.Conflict, markers.Position) (selection.Navigation, bool)

func (h *Handler) navigate(ed Editor, find finder) error {
	nav, ok := find(h.tracker.GetConflicts(ed.Document()), ed.Cursor())
	if !ok {
		return ErrNoConflicts
	}
	if !nav.CanNavigate {
		return ErrNoOtherConflicts
	}
	ed.SetCursor(nav.Conflict.Range.Start, nav.Conflict.Range)
	return nil
}

func (h *Handler) containing(ed Editor) (markers.Conflict, bool) {
	return selection.FindContaining(h.tracker.GetConflicts(ed.Document()), ed.Cursor())
}

func (h *Handler) commit(ed Editor, conflicts []markers.Conflict, res markers.Resolution) error {
	doc := ed.Document()
	edits, err := engine.ResolveAll(doc, conflicts, res)
	if err != nil {
		return err
	}

	// The edit invalidates every cached range of this document.
	h.tracker.Forget(doc)
	if err := ed.ApplyEdits(edits); err != nil {
		return fmt.Errorf("apply %d edits: %w", len(edits), err)
	}
	log.Debugf("accepted %s for %d conflicts in %s", res, len(conflicts), doc.Identity())
	return nil
}
