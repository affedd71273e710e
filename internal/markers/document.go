package markers

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"
)

// Document is the read-only view of a text buffer the scanner works against.
//
// Identity is used as the cache key; an empty identity disables caching.
type Document interface {
	Identity() string
	Text() string
	PositionAt(offset int) Position
	OffsetAt(pos Position) int
	TextIn(r Range) string
}

// TextDocument is an immutable Document snapshot backed by a string.
type TextDocument struct {
	identity   string
	text       string
	lineStarts []int
}

// NewTextDocument indexes text for offset/position conversion.
func NewTextDocument(identity, text string) *TextDocument {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &TextDocument{identity: identity, text: text, lineStarts: starts}
}

func (d *TextDocument) Identity() string {
	return d.identity
}

func (d *TextDocument) Text() string {
	return d.text
}

// LineCount returns the number of lines, counting a trailing empty line.
func (d *TextDocument) LineCount() int {
	return len(d.lineStarts)
}

// PositionAt converts a byte offset to a position. Offsets are clamped to the
// document.
func (d *TextDocument) PositionAt(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.text) {
		offset = len(d.text)
	}
	line := sort.Search(len(d.lineStarts), func(i int) bool {
		return d.lineStarts[i] > offset
	}) - 1
	start := d.lineStarts[line]
	return Position{Line: line, Character: utf16Len(d.text[start:offset])}
}

// OffsetAt converts a position to a byte offset. Characters past the end of
// the line clamp to the line end, before its terminator.
func (d *TextDocument) OffsetAt(pos Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(d.lineStarts) {
		return len(d.text)
	}
	start := d.lineStarts[pos.Line]
	end := d.lineEnd(pos.Line)

	units := 0
	offset := start
	for offset < end && units < pos.Character {
		r, size := utf8.DecodeRuneInString(d.text[offset:end])
		units += utf16.RuneLen(r)
		if units > pos.Character {
			break
		}
		offset += size
	}
	return offset
}

// TextIn returns the text covered by r.
func (d *TextDocument) TextIn(r Range) string {
	start := d.OffsetAt(r.Start)
	end := d.OffsetAt(r.End)
	if end < start {
		return ""
	}
	return d.text[start:end]
}

// Line returns line i without its terminator.
func (d *TextDocument) Line(i int) string {
	if i < 0 || i >= len(d.lineStarts) {
		return ""
	}
	return d.text[d.lineStarts[i]:d.lineEnd(i)]
}

func (d *TextDocument) lineEnd(line int) int {
	end := len(d.text)
	if line+1 < len(d.lineStarts) {
		end = d.lineStarts[line+1] - 1
	}
	if end > d.lineStarts[line] && d.text[end-1] == '\r' {
		end--
	}
	return end
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
