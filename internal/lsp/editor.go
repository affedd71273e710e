package lsp

import (
	"fmt"

	"github.com/chojs23/mergelens/internal/engine"
	"github.com/chojs23/mergelens/internal/markers"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// client is the part of glsp.Context used to talk back to the editor.
// Everything goes out as a notification: the glsp context is done by the
// time a handler runs, so a request would never see its reply.
type client struct {
	notify func(method string, params any)
}

func clientFrom(context *glsp.Context) client {
	return client{notify: context.Notify}
}

func (c client) warn(msg string) {
	c.notify("window/showMessage", protocol.ShowMessageParams{
		Type:    protocol.MessageTypeWarning,
		Message: msg,
	})
}

func (c client) publishDiagnostics(uri string, diagnostics []protocol.Diagnostic) {
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}
	c.notify("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// remoteEditor is a commands.Editor for one document open in the client.
// Edits go out as a single workspace/applyEdit; the new text comes back
// through didChange, which also drops the cached scan.
type remoteEditor struct {
	client client
	doc    *markers.TextDocument
	cursor markers.Position
}

func (e *remoteEditor) Document() markers.Document {
	return e.doc
}

func (e *remoteEditor) Cursor() markers.Position {
	return e.cursor
}

func (e *remoteEditor) SetCursor(pos markers.Position, r markers.Range) {
	e.cursor = pos
	sel := toProtocolRange(markers.Range{Start: pos, End: pos})
	e.client.notify("window/showDocument", protocol.ShowDocumentParams{
		URI:       protocol.URI(e.doc.Identity()),
		TakeFocus: &protocol.True,
		Selection: &sel,
	})
	log.Debugf("revealing %s in %s", r, e.doc.Identity())
}

func (e *remoteEditor) ApplyEdits(edits []engine.Edit) error {
	label := "Resolve merge conflict"
	if len(edits) > 1 {
		label = fmt.Sprintf("Resolve %d merge conflicts", len(edits))
	}
	e.client.notify("workspace/applyEdit", protocol.ApplyWorkspaceEditParams{
		Label: &label,
		Edit: protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentUri][]protocol.TextEdit{
				e.doc.Identity(): toTextEdits(edits),
			},
		},
	})
	return nil
}
