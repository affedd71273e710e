package lsp

import (
	"fmt"
	"sync"

	"github.com/chojs23/mergelens/internal/markers"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// documentStore holds the text of every open document. Snapshots handed out
// are immutable; a change replaces the snapshot.
type documentStore struct {
	mu   sync.RWMutex
	docs map[string]*markers.TextDocument
}

func newDocumentStore() *documentStore {
	return &documentStore{docs: make(map[string]*markers.TextDocument)}
}

func (s *documentStore) open(uri, text string) *markers.TextDocument {
	doc := markers.NewTextDocument(uri, text)
	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()
	return doc
}

func (s *documentStore) get(uri string) (*markers.TextDocument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[uri]
	return doc, ok
}

// change applies content change events in order.
func (s *documentStore) change(uri string, changes []any) (*markers.TextDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[uri]
	if !ok {
		return nil, fmt.Errorf("document not open: %s", uri)
	}
	for _, change := range changes {
		var err error
		if doc, err = applyChange(doc, change); err != nil {
			return nil, err
		}
	}
	s.docs[uri] = doc
	return doc, nil
}

func (s *documentStore) close(uri string) {
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
}

func (s *documentStore) closeAll() {
	s.mu.Lock()
	clear(s.docs)
	s.mu.Unlock()
}

func applyChange(doc *markers.TextDocument, change any) (*markers.TextDocument, error) {
	switch c := change.(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		return markers.NewTextDocument(doc.Identity(), c.Text), nil
	case protocol.TextDocumentContentChangeEvent:
		if c.Range == nil {
			return markers.NewTextDocument(doc.Identity(), c.Text), nil
		}
		start := doc.OffsetAt(fromProtocolPosition(c.Range.Start))
		end := doc.OffsetAt(fromProtocolPosition(c.Range.End))
		if end < start {
			start, end = end, start
		}
		text := doc.Text()
		return markers.NewTextDocument(doc.Identity(), text[:start]+c.Text+text[end:]), nil
	}
	return nil, fmt.Errorf("unsupported content change %T", change)
}
