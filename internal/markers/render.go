package markers

import (
	"errors"
	"fmt"
)

var ErrUnresolved = errors.New("unresolved")

// ResolvedText returns the text that replaces c.Range for res.
//
// Both joins the two bodies with a single "\n" whatever the document's line
// endings are.
func ResolvedText(doc Document, c Conflict, res Resolution) (string, error) {
	switch res {
	case ResolutionCurrent:
		return doc.TextIn(c.Current.Content), nil
	case ResolutionIncoming:
		return doc.TextIn(c.Incoming.Content), nil
	case ResolutionBoth:
		return doc.TextIn(c.Current.Content) + "\n" + doc.TextIn(c.Incoming.Content), nil
	case ResolutionUnset:
		return "", fmt.Errorf("%w: conflict without resolution", ErrUnresolved)
	default:
		return "", fmt.Errorf("invalid resolution: %q", res)
	}
}
