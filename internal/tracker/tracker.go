// Package tracker caches conflict scans per document for a short time so that
// code lenses, diagnostics and commands triggered by one edit share a scan.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/chojs23/mergelens/internal/markers"
	"github.com/tliron/commonlog"
)

// DefaultTTL is how long a scan result is reused.
const DefaultTTL = 100 * time.Millisecond

var log = commonlog.GetLogger("mergelens.tracker")

type entry struct {
	scannedAt time.Time
	conflicts []markers.Conflict
}

// Tracker is safe for concurrent use.
type Tracker struct {
	scanner *markers.Scanner
	ttl     time.Duration
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]entry
}

// New returns a tracker. A nil scanner uses markers.NewScanner and a
// non-positive ttl uses DefaultTTL.
func New(scanner *markers.Scanner, ttl time.Duration) *Tracker {
	if scanner == nil {
		scanner = markers.NewScanner()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tracker{
		scanner: scanner,
		ttl:     ttl,
		now:     time.Now,
		cache:   make(map[string]entry),
	}
}

// GetConflicts returns the conflicts of doc, reusing a scan younger than the
// TTL. Documents with an empty identity are scanned every time.
//
// The returned slice is shared between callers and must not be modified.
func (t *Tracker) GetConflicts(doc markers.Document) []markers.Conflict {
	key := doc.Identity()
	if key == "" {
		return t.scan(doc)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if e, ok := t.cache[key]; ok && now.Sub(e.scannedAt) < t.ttl {
		log.Debugf("cache hit for %s", key)
		return e.conflicts
	}

	conflicts := t.scan(doc)
	t.cache[key] = entry{scannedAt: now, conflicts: conflicts}
	log.Debugf("scanned %s: %d conflicts", key, len(conflicts))
	return conflicts
}

// Forget drops the cached scan of doc. Call it after every edit that resolves
// a conflict.
func (t *Tracker) Forget(doc markers.Document) {
	t.ForgetIdentity(doc.Identity())
}

// ForgetIdentity is Forget for callers that only hold the key.
func (t *Tracker) ForgetIdentity(identity string) {
	if identity == "" {
		return
	}
	t.mu.Lock()
	delete(t.cache, identity)
	t.mu.Unlock()
}

// Clear drops every cached scan.
func (t *Tracker) Clear() {
	t.mu.Lock()
	clear(t.cache)
	t.mu.Unlock()
}

// Len returns the number of cached documents.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.cache)
}

func (t *Tracker) scan(doc markers.Document) []markers.Conflict {
	text := doc.Text()
	if !markers.ContainsConflict(text) {
		return nil
	}
	return markers.Conflicts(doc, t.scanner.Scan(context.Background(), text))
}
