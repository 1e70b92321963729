package diag

import (
	"sync"

	"refflow/internal/source"
)

type dedupKey struct {
	code Code
	pos  source.Pos
	msg  string
}

// DedupReporter forwards the first diagnostic for each (code, position,
// message) and drops repeats. Safe for concurrent use.
type DedupReporter struct {
	next       Reporter
	mu         sync.Mutex
	seen       map[dedupKey]Severity
	suppressed int
}

// NewDedupReporter wraps next.
func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: make(map[dedupKey]Severity)}
}

// Report forwards d unless an identical diagnostic of the same or higher
// severity was already forwarded.
func (r *DedupReporter) Report(code Code, sev Severity, primary source.Pos, msg string, notes []Note) {
	if r == nil {
		return
	}
	key := dedupKey{code: code, pos: primary, msg: msg}
	r.mu.Lock()
	if prev, ok := r.seen[key]; ok && prev >= sev {
		r.suppressed++
		r.mu.Unlock()
		return
	}
	r.seen[key] = sev
	r.mu.Unlock()
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes)
	}
}

// Suppressed counts the dropped repeats.
func (r *DedupReporter) Suppressed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.suppressed
}
