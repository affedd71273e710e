package markers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tliron/commonlog"
)

var ErrScanBudgetExceeded = errors.New("conflict scan budget exceeded")

const (
	markStart = "<<<<<<<"
	markMid   = "======="
	markEnd   = ">>>>>>>"
)

// DefaultScanTimeout bounds a single scan.
const DefaultScanTimeout = time.Second

// How many lines are processed between deadline checks.
const budgetCheckInterval = 256

var log = commonlog.GetLogger("mergelens.markers")

// Scanner finds conflict marker blocks in text.
//
// Scanning is a single pass over lines with three states: outside a block,
// in the current body, and in the incoming body. Bodies are lazy, so the
// first splitter after a header and the first footer after a splitter close
// their sections.
type Scanner struct {
	// Timeout is the wall-clock budget for one scan. Zero disables it.
	Timeout time.Duration
	// MaxLines is the step budget for one scan. Zero disables it.
	MaxLines int
}

// NewScanner returns a scanner with the default timeout and no line budget.
func NewScanner() *Scanner {
	return &Scanner{Timeout: DefaultScanTimeout}
}

// Scan returns every well-formed conflict in text. A scan that runs out of
// budget returns no matches; the caller will retry on the next change.
func (s *Scanner) Scan(ctx context.Context, text string) []RawMatch {
	matches, err := s.ScanContext(ctx, text)
	if err != nil {
		log.Warningf("giving up on conflict scan of %d bytes: %s", len(text), err)
		return nil
	}
	return matches
}

// ScanContext is Scan with the budget error exposed.
func (s *Scanner) ScanContext(ctx context.Context, text string) ([]RawMatch, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	type scanState int
	const (
		outside scanState = iota
		inCurrent
		inIncoming
	)

	var (
		matches      []RawMatch
		cur          RawMatch
		state        = outside
		contentStart int
		steps        int
	)

	for pos := 0; pos < len(text); {
		steps++
		if s.MaxLines > 0 && steps > s.MaxLines {
			return nil, fmt.Errorf("%w: more than %d lines", ErrScanBudgetExceeded, s.MaxLines)
		}
		if steps%budgetCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrScanBudgetExceeded, err)
			}
		}

		lineEnd, next := nextLine(text, pos)
		line := text[pos:lineEnd]

		switch state {
		case outside:
			if name, ok := markerLabel(line, markStart); ok {
				cur = RawMatch{
					CurrentHeader: Span{Offset: pos, Length: lineEnd - pos},
					CurrentName:   name,
				}
				contentStart = next
				state = inCurrent
			}
		case inCurrent:
			if line == markMid {
				cur.CurrentContent = Span{Offset: contentStart, Length: pos - contentStart}
				cur.Splitter = Span{Offset: pos, Length: lineEnd - pos}
				contentStart = next
				state = inIncoming
			}
		case inIncoming:
			if name, ok := markerLabel(line, markEnd); ok {
				cur.IncomingContent = Span{Offset: contentStart, Length: pos - contentStart}
				cur.IncomingHeader = Span{Offset: pos, Length: lineEnd - pos}
				cur.IncomingName = name
				matches = append(matches, cur)
				state = outside
			}
		}

		pos = next
	}

	// An unfinished block at EOF is dropped. No later header can complete
	// either: it would need the same missing splitter or footer.
	if state != outside {
		log.Debugf("unterminated conflict block at offset %d", cur.CurrentHeader.Offset)
	}

	return matches, nil
}

// ContainsConflict is a cheap precheck: false means Scan would find nothing.
// True does not guarantee a well-formed block.
func ContainsConflict(text string) bool {
	return strings.Contains(text, markStart) && strings.Contains(text, markEnd)
}

// nextLine returns the end of the line starting at pos, excluding "\n" or
// "\r\n", and the start of the following line.
func nextLine(text string, pos int) (int, int) {
	end := len(text)
	next := len(text)
	if idx := strings.IndexByte(text[pos:], '\n'); idx >= 0 {
		end = pos + idx
		next = end + 1
	}
	if end > pos && text[end-1] == '\r' {
		end--
	}
	return end, next
}

// markerLabel matches a header or footer line: the bare marker, or the marker
// followed by a space and a label.
func markerLabel(line, marker string) (string, bool) {
	if line == marker {
		return "", true
	}
	if strings.HasPrefix(line, marker+" ") {
		return line[len(marker)+1:], true
	}
	return "", false
}
