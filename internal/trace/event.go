package trace

import (
	"strconv"
	"time"
)

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat // periodic liveness signal
)

var kindNames = [...]string{
	KindSpanBegin: "begin",
	KindSpanEnd:   "end",
	KindPoint:     "point",
	KindHeartbeat: "heartbeat",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Scope is the granularity of an event. Coarser scopes have lower values,
// so a level admits every scope up to its ceiling.
type Scope uint8

const (
	// ScopeDriver covers whole runs and parallel rounds.
	ScopeDriver Scope = iota + 1
	// ScopePass covers one re-analysis pass.
	ScopePass
	// ScopeFunction covers one body analysis, main code included.
	ScopeFunction
	ScopeCall // one call site: binding, memo reuse or descent
)

var scopeNames = [...]string{
	ScopeDriver:   "driver",
	ScopePass:     "pass",
	ScopeFunction: "function",
	ScopeCall:     "call",
}

func (s Scope) String() string {
	if int(s) < len(scopeNames) && scopeNames[s] != "" {
		return scopeNames[s]
	}
	return "unknown"
}

// Site places an event in the analysed program. The zero Site is used for
// events outside the pass loop.
type Site struct {
	Pass int    // re-analysis pass, from 1
	File string // display path
	Line uint32 // 0 when only the file is known
}

// IsZero reports whether s carries no location.
func (s Site) IsZero() bool { return s == Site{} }

// Loc renders the program location as path:line, or just the path.
func (s Site) Loc() string {
	if s.File == "" {
		return ""
	}
	if s.Line == 0 {
		return s.File
	}
	return s.File + ":" + strconv.FormatUint(uint64(s.Line), 10)
}

// Event is one trace record.
type Event struct {
	Time     time.Time
	Seq      uint64 // assigned by the storing tracer
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for roots
	GID      uint64 // goroutine of the emitter; tells parallel workers apart
	Name     string // "pass", "fn:fill", "call:fill"
	Detail   string
	Site     Site
	Extra    map[string]string
}
