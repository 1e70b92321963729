package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // nothing streamed; the ring is dumped on failure
	LevelPhase        // runs and passes
	LevelDetail       // plus function analyses
	LevelDebug        // plus call sites
)

var levelNames = [...]string{
	LevelOff:    "off",
	LevelError:  "error",
	LevelPhase:  "phase",
	LevelDetail: "detail",
	LevelDebug:  "debug",
}

// ceiling is the finest scope a level lets through; 0 lets nothing through.
var ceiling = [...]Scope{
	LevelOff:    0,
	LevelError:  0,
	LevelPhase:  ScopePass,
	LevelDetail: ScopeFunction,
	LevelDebug:  ScopeCall,
}

// scopeLevels lets a level be named after the finest scope it shows.
var scopeLevels = map[string]Level{
	"pass":     LevelPhase,
	"function": LevelDetail,
	"call":     LevelDebug,
}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel accepts a level name or the name of the finest scope to show
// (pass, function, call).
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for l, name := range levelNames {
		if name == s {
			return Level(l), nil
		}
	}
	if l, ok := scopeLevels[s]; ok {
		return l, nil
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|phase|detail|debug or pass|function|call)", s)
}

// ShouldEmit reports whether events of scope pass this level.
func (l Level) ShouldEmit(scope Scope) bool {
	if int(l) >= len(ceiling) {
		return false
	}
	return scope != 0 && scope <= ceiling[l]
}
