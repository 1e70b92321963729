package diag

import (
	"fmt"
	"strings"

	"refflow/internal/source"
)

// FilterReporter forwards diagnostics at or above a minimum level that are
// not suppressed by issue type.
type FilterReporter struct {
	next     Reporter
	minLevel int
	suppress map[Code]struct{}
}

// NewFilterReporter builds a filter. suppress entries are code IDs or issue
// names; unknown entries are an error.
func NewFilterReporter(next Reporter, minLevel int, suppress []string) (*FilterReporter, error) {
	r := &FilterReporter{next: next, minLevel: minLevel, suppress: make(map[Code]struct{}, len(suppress))}
	var unknown []string
	for _, s := range suppress {
		code, ok := LookupCode(s)
		if !ok {
			unknown = append(unknown, s)
			continue
		}
		r.suppress[code] = struct{}{}
	}
	if len(unknown) > 0 {
		return r, fmt.Errorf("unknown issue types: %s", strings.Join(unknown, ", "))
	}
	return r, nil
}

func (r *FilterReporter) Report(code Code, sev Severity, primary source.Pos, msg string, notes []Note) {
	if r == nil || r.next == nil {
		return
	}
	if sev.Level() < r.minLevel {
		return
	}
	if _, drop := r.suppress[code]; drop {
		return
	}
	r.next.Report(code, sev, primary, msg, notes)
}
