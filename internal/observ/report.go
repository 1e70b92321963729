package observ

import (
	"fmt"

	"refflow/internal/diag"
	"refflow/internal/source"
)

// ReportTimings emits the timer contents as a single informational
// diagnostic with one note per phase.
func ReportTimings(r diag.Reporter, t *Timer) {
	if r == nil || t == nil {
		return
	}
	report := t.Report()
	if len(report.Phases) == 0 {
		return
	}
	b := diag.ReportInfo(r, diag.ObsTimings, source.Pos{}, fmt.Sprintf("run took %.2f ms", report.TotalMS))
	for _, p := range report.Phases {
		msg := fmt.Sprintf("%s: %.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			msg += " (" + p.Note + ")"
		}
		b = b.WithNote(source.Pos{}, msg)
	}
	b.Emit()
}
