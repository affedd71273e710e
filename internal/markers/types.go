package markers

import (
	"fmt"
	"strings"
)

// Resolution selects which side of a conflict replaces the marker block.
type Resolution string

const (
	ResolutionUnset    Resolution = ""
	ResolutionCurrent  Resolution = "current"
	ResolutionIncoming Resolution = "incoming"
	ResolutionBoth     Resolution = "both"
)

// ParseResolution accepts current|incoming|both, plus ours|theirs as aliases.
func ParseResolution(s string) (Resolution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "current", "ours":
		return ResolutionCurrent, nil
	case "incoming", "theirs":
		return ResolutionIncoming, nil
	case "both":
		return ResolutionBoth, nil
	}
	return ResolutionUnset, fmt.Errorf("invalid resolution: %q (expected current|incoming|both)", s)
}

// Position is a zero-based line/character location. Character counts UTF-16
// code units, matching LSP clients.
type Position struct {
	Line      int
	Character int
}

func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Character < other.Character
}

func (p Position) After(other Position) bool {
	return other.Before(p)
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

type Range struct {
	Start Position
	End   Position
}

// Contains reports whether p lies within r, inclusive at both ends.
func (r Range) Contains(p Position) bool {
	return !p.Before(r.Start) && !p.After(r.End)
}

func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

func (r Range) String() string {
	return r.Start.String() + "-" + r.End.String()
}

// Region is one side of a conflict.
type Region struct {
	Name    string
	Header  Range
	Content Range
}

// Conflict describes one marker block. It is only valid for the text it was
// scanned from.
type Conflict struct {
	Range    Range
	Current  Region
	Splitter Range
	Incoming Region
}

type RegionKind int

const (
	RegionCurrentHeader RegionKind = iota
	RegionCurrentContent
	RegionSplitter
	RegionIncomingContent
	RegionIncomingHeader
)

func (k RegionKind) String() string {
	switch k {
	case RegionCurrentHeader:
		return "current.header"
	case RegionCurrentContent:
		return "current.content"
	case RegionSplitter:
		return "splitter"
	case RegionIncomingContent:
		return "incoming.content"
	case RegionIncomingHeader:
		return "incoming.header"
	}
	return fmt.Sprintf("RegionKind(%d)", int(k))
}

// LabeledRange pairs a sub-range with its kind.
type LabeledRange struct {
	Kind  RegionKind
	Range Range
}

// Regions returns the five sub-ranges in document order.
func (c Conflict) Regions() []LabeledRange {
	return []LabeledRange{
		{Kind: RegionCurrentHeader, Range: c.Current.Header},
		{Kind: RegionCurrentContent, Range: c.Current.Content},
		{Kind: RegionSplitter, Range: c.Splitter},
		{Kind: RegionIncomingContent, Range: c.Incoming.Content},
		{Kind: RegionIncomingHeader, Range: c.Incoming.Header},
	}
}

// Span is a byte offset and length into the scanned text.
type Span struct {
	Offset int
	Length int
}

func (s Span) End() int {
	return s.Offset + s.Length
}

// RawMatch is one scanned conflict before it is mapped to positions.
//
// Header, splitter and footer spans exclude their line terminator. Content
// spans cover whole body lines including the final terminator and may be
// empty.
type RawMatch struct {
	CurrentHeader   Span
	CurrentContent  Span
	Splitter        Span
	IncomingContent Span
	IncomingHeader  Span

	CurrentName  string
	IncomingName string
}

// Offset is the start of the whole block.
func (m RawMatch) Offset() int {
	return m.CurrentHeader.Offset
}

// End is the end of the footer line, excluding its terminator.
func (m RawMatch) End() int {
	return m.IncomingHeader.End()
}
