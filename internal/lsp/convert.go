package lsp

import (
	"github.com/chojs23/mergelens/internal/config"
	"github.com/chojs23/mergelens/internal/engine"
	"github.com/chojs23/mergelens/internal/markers"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const diagnosticSource = "mergelens"

func toProtocolPosition(p markers.Position) protocol.Position {
	return protocol.Position{Line: protocol.UInteger(p.Line), Character: protocol.UInteger(p.Character)}
}

func fromProtocolPosition(p protocol.Position) markers.Position {
	return markers.Position{Line: int(p.Line), Character: int(p.Character)}
}

func toProtocolRange(r markers.Range) protocol.Range {
	return protocol.Range{Start: toProtocolPosition(r.Start), End: toProtocolPosition(r.End)}
}

func toTextEdits(edits []engine.Edit) []protocol.TextEdit {
	out := make([]protocol.TextEdit, 0, len(edits))
	for _, e := range edits {
		out = append(out, protocol.TextEdit{Range: toProtocolRange(e.Range), NewText: e.Text})
	}
	return out
}

var regionMessages = map[markers.RegionKind]string{
	markers.RegionCurrentHeader:   "Current change",
	markers.RegionCurrentContent:  "Current change",
	markers.RegionSplitter:        "Merge conflict splitter",
	markers.RegionIncomingContent: "Incoming change",
	markers.RegionIncomingHeader:  "Incoming change",
}

// regionDiagnostics renders the highlighted regions of conflicts as hint
// diagnostics, the closest thing to decorations a language server has.
func regionDiagnostics(cfg config.Config, conflicts []markers.Conflict) []protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityHint
	source := diagnosticSource

	diagnostics := []protocol.Diagnostic{}
	for _, c := range conflicts {
		for _, r := range cfg.VisibleRegions([]markers.Conflict{c}) {
			if r.Range.IsEmpty() {
				continue
			}
			msg := regionMessages[r.Kind]
			switch r.Kind {
			case markers.RegionCurrentHeader, markers.RegionCurrentContent:
				msg = withLabel(msg, c.Current.Name)
			case markers.RegionIncomingHeader, markers.RegionIncomingContent:
				msg = withLabel(msg, c.Incoming.Name)
			}
			code := protocol.IntegerOrString{Value: r.Kind.String()}
			diagnostics = append(diagnostics, protocol.Diagnostic{
				Range:    toProtocolRange(r.Range),
				Severity: &severity,
				Code:     &code,
				Source:   &source,
				Message:  msg,
			})
		}
	}
	return diagnostics
}

func withLabel(msg, label string) string {
	if label == "" {
		return msg
	}
	return msg + " (" + label + ")"
}
