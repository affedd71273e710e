package markers

// Build maps a raw match onto doc positions.
//
// Content ranges are pulled back over their trailing "\n" or "\r\n" so that
// text typed at the end of a body stays in that body and the next marker line
// is never included.
func Build(doc Document, m RawMatch) Conflict {
	toRange := func(s Span) Range {
		return Range{Start: doc.PositionAt(s.Offset), End: doc.PositionAt(s.End())}
	}
	text := doc.Text()

	return Conflict{
		Range: Range{
			Start: doc.PositionAt(m.Offset()),
			End:   doc.PositionAt(m.End()),
		},
		Current: Region{
			Name:    m.CurrentName,
			Header:  toRange(m.CurrentHeader),
			Content: toRange(trimTerminator(text, m.CurrentContent)),
		},
		Splitter: toRange(m.Splitter),
		Incoming: Region{
			Name:    m.IncomingName,
			Header:  toRange(m.IncomingHeader),
			Content: toRange(trimTerminator(text, m.IncomingContent)),
		},
	}
}

// Conflicts builds every match in order.
func Conflicts(doc Document, matches []RawMatch) []Conflict {
	if len(matches) == 0 {
		return nil
	}
	out := make([]Conflict, 0, len(matches))
	for _, m := range matches {
		out = append(out, Build(doc, m))
	}
	return out
}

func trimTerminator(text string, s Span) Span {
	end := s.End()
	if s.Length > 0 && text[end-1] == '\n' {
		s.Length--
		if s.Length > 0 && text[end-2] == '\r' {
			s.Length--
		}
	}
	return s
}
