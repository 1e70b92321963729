package trace

import (
	"bytes"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

// NextSeq returns the next global event sequence number.
func NextSeq() uint64 { return seqCounter.Add(1) }

// NextSpanID returns a fresh span identifier; 0 is never returned.
func NextSpanID() uint64 { return spanCounter.Add(1) }

// getGoroutineID parses the goroutine number from the "goroutine N [" header
// of runtime.Stack. Parallel workers are told apart by it.
func getGoroutineID() uint64 {
	var buf [64]byte
	stack := buf[:runtime.Stack(buf[:], false)]
	stack, ok := bytes.CutPrefix(stack, []byte("goroutine "))
	if !ok {
		return 0
	}
	num, _, ok := bytes.Cut(stack, []byte(" "))
	if !ok {
		return 0
	}
	gid, err := strconv.ParseUint(string(num), 10, 64)
	if err != nil {
		return 0
	}
	return gid
}

// Span is an open begin/end pair. A span filtered out by the tracer level
// is inert: all its methods are no-ops and ID returns 0.
type Span struct {
	tracer   Tracer
	id       uint64
	parentID uint64
	gid      uint64
	scope    Scope
	name     string
	site     Site
	started  time.Time
	extra    map[string]string
}

var inert = &Span{tracer: Nop}

// Begin emits the begin event of a span under parent (0 for a root span).
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	return BeginAt(t, scope, name, parent, Site{})
}

// BeginAt is Begin for work tied to a pass or a place in the program; both
// events of the span carry site.
func BeginAt(t Tracer, scope Scope, name string, parent uint64, site Site) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return inert
	}
	s := &Span{
		tracer:   t,
		id:       NextSpanID(),
		parentID: parent,
		gid:      getGoroutineID(),
		scope:    scope,
		name:     name,
		site:     site,
		started:  time.Now(),
	}
	s.emit(KindSpanBegin, s.started, "", nil)
	return s
}

func (s *Span) live() bool { return s != nil && s.tracer != nil && s.tracer.Enabled() }

func (s *Span) emit(kind Kind, at time.Time, detail string, extra map[string]string) {
	s.tracer.Emit(&Event{
		Time:     at,
		Seq:      NextSeq(),
		Kind:     kind,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parentID,
		GID:      s.gid,
		Name:     s.name,
		Detail:   detail,
		Site:     s.site,
		Extra:    extra,
	})
}

// End emits the end event with detail and the collected extras, and returns
// the span duration.
func (s *Span) End(detail string) time.Duration {
	if !s.live() {
		return 0
	}
	now := time.Now()
	s.emit(KindSpanEnd, now, detail, s.extra)
	return now.Sub(s.started)
}

// WithExtra records a key/value pair reported on End.
func (s *Span) WithExtra(key, value string) *Span {
	if !s.live() {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string, 2)
	}
	s.extra[key] = value
	return s
}

// ID returns the span identifier, 0 for inert spans.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point emits an instant event under parent.
func Point(t Tracer, scope Scope, name string, parent uint64, detail string) {
	PointAt(t, scope, name, parent, Site{}, detail)
}

// PointAt is Point with a program site.
func PointAt(t Tracer, scope Scope, name string, parent uint64, site Site, detail string) {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return
	}
	t.Emit(&Event{
		Time:     time.Now(),
		Seq:      NextSeq(),
		Kind:     KindPoint,
		Scope:    scope,
		SpanID:   NextSpanID(),
		ParentID: parent,
		GID:      getGoroutineID(),
		Name:     name,
		Detail:   detail,
		Site:     site,
	})
}
