package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/chojs23/mergelens/internal/markers"
)

var (
	ErrOverlappingEdits = errors.New("overlapping edits")
	ErrEditOutOfRange   = errors.New("edit out of range")
)

// Edit replaces [Start, End) of the pre-edit text with Text. Range is the
// same span as a position range for callers that apply edits themselves.
type Edit struct {
	Range markers.Range
	Start int
	End   int
	Text  string
}

// Resolve computes the edit that replaces c with the side chosen by res.
func Resolve(doc markers.Document, c markers.Conflict, res markers.Resolution) (Edit, error) {
	text, err := markers.ResolvedText(doc, c, res)
	if err != nil {
		return Edit{}, err
	}
	return Edit{
		Range: c.Range,
		Start: doc.OffsetAt(c.Range.Start),
		End:   doc.OffsetAt(c.Range.End),
		Text:  text,
	}, nil
}

// ResolveAll computes one edit per conflict, all against the same pre-edit
// text. The result must be applied as a single transaction.
func ResolveAll(doc markers.Document, conflicts []markers.Conflict, res markers.Resolution) ([]Edit, error) {
	edits := make([]Edit, 0, len(conflicts))
	for i, c := range conflicts {
		edit, err := Resolve(doc, c, res)
		if err != nil {
			return nil, fmt.Errorf("conflict %d: %w", i, err)
		}
		edits = append(edits, edit)
	}
	return edits, nil
}

// ApplyEdits applies every edit against the offsets of text in one step.
// Either all edits apply or text is returned unchanged with an error.
func ApplyEdits(text string, edits []Edit) (string, error) {
	if len(edits) == 0 {
		return text, nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	for i, e := range sorted {
		if e.Start < 0 || e.End < e.Start || e.End > len(text) {
			return text, fmt.Errorf("%w: [%d, %d) in %d bytes", ErrEditOutOfRange, e.Start, e.End, len(text))
		}
		if i > 0 && e.Start < sorted[i-1].End {
			return text, fmt.Errorf("%w: [%d, %d) and [%d, %d)", ErrOverlappingEdits,
				sorted[i-1].Start, sorted[i-1].End, e.Start, e.End)
		}
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, e := range sorted {
		b.WriteString(text[last:e.Start])
		b.WriteString(e.Text)
		last = e.End
	}
	b.WriteString(text[last:])
	return b.String(), nil
}
