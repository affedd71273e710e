// Package selection answers cursor queries against an ordered conflict list.
package selection

import "github.com/chojs23/mergelens/internal/markers"

// Side is the half of a conflict a cursor is in.
type Side int

const (
	SideCurrent Side = iota
	SideIncoming
	SideAmbiguous
)

func (s Side) String() string {
	switch s {
	case SideCurrent:
		return "current"
	case SideIncoming:
		return "incoming"
	}
	return "ambiguous"
}

// Resolution maps a side to the commit type accepting it. Ambiguous maps to
// ResolutionUnset.
func (s Side) Resolution() markers.Resolution {
	switch s {
	case SideCurrent:
		return markers.ResolutionCurrent
	case SideIncoming:
		return markers.ResolutionIncoming
	}
	return markers.ResolutionUnset
}

// Navigation is the outcome of FindNext or FindPrevious. CanNavigate is false
// when the only conflict already contains the cursor.
type Navigation struct {
	Conflict    markers.Conflict
	CanNavigate bool
}

// FindContaining returns the first conflict whose range contains pos.
func FindContaining(conflicts []markers.Conflict, pos markers.Position) (markers.Conflict, bool) {
	for _, c := range conflicts {
		if c.Range.Contains(pos) {
			return c, true
		}
	}
	return markers.Conflict{}, false
}

// FindSide reports which side of c pos is on. Positions on the splitter line,
// including its ends, are ambiguous.
func FindSide(c markers.Conflict, pos markers.Position) Side {
	if pos.Before(c.Splitter.Start) {
		return SideCurrent
	}
	if pos.After(c.Splitter.End) {
		return SideIncoming
	}
	return SideAmbiguous
}

// FindNext returns the first conflict starting after pos that does not
// contain it, wrapping to the first conflict. ok is false for an empty list.
func FindNext(conflicts []markers.Conflict, pos markers.Position) (Navigation, bool) {
	return find(conflicts, pos, true)
}

// FindPrevious mirrors FindNext: the last conflict starting before pos that
// does not contain it, wrapping to the last conflict.
func FindPrevious(conflicts []markers.Conflict, pos markers.Position) (Navigation, bool) {
	return find(conflicts, pos, false)
}

func find(conflicts []markers.Conflict, pos markers.Position, forward bool) (Navigation, bool) {
	switch len(conflicts) {
	case 0:
		return Navigation{}, false
	case 1:
		c := conflicts[0]
		return Navigation{Conflict: c, CanNavigate: !c.Range.Contains(pos)}, true
	}

	if forward {
		for _, c := range conflicts {
			if pos.Before(c.Range.Start) && !c.Range.Contains(pos) {
				return Navigation{Conflict: c, CanNavigate: true}, true
			}
		}
		return Navigation{Conflict: conflicts[0], CanNavigate: true}, true
	}

	for i := len(conflicts) - 1; i >= 0; i-- {
		c := conflicts[i]
		if pos.After(c.Range.Start) && !c.Range.Contains(pos) {
			return Navigation{Conflict: c, CanNavigate: true}, true
		}
	}
	return Navigation{Conflict: conflicts[len(conflicts)-1], CanNavigate: true}, true
}
