package ui

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"refflow/internal/analysis"
)

func TestApplyEventTracksPasses(t *testing.T) {
	m := NewProgressModel("analyzing", []string{"a.php", "b.php"}, nil).(*progressModel)

	m.applyEvent(analysis.Event{File: "a.php", Stage: analysis.StageAnalyze, Status: analysis.StatusWorking, Pass: 1, Passes: 8})
	if m.items[0].status != "pass 1" {
		t.Fatalf("status = %q", m.items[0].status)
	}
	m.applyEvent(analysis.Event{File: "a.php", Stage: analysis.StageAnalyze, Status: analysis.StatusDone, Pass: 1, Passes: 8})
	if got := m.percent(); got != 0.5 {
		t.Fatalf("percent = %v, want 0.5", got)
	}
	m.applyEvent(analysis.Event{File: "b.php", Stage: analysis.StageAnalyze, Status: analysis.StatusWorking, Pass: 2, Passes: 8})
	if got := m.percent(); got != 0 {
		t.Fatalf("percent after new pass = %v, want 0", got)
	}
	if !strings.Contains(m.header(), "pass 2, at most 8") {
		t.Fatalf("header = %q", m.header())
	}
	// unknown files are ignored
	m.applyEvent(analysis.Event{File: "c.php", Status: analysis.StatusError, Pass: 2})
	if strings.Contains(m.View(), "c.php") {
		t.Fatalf("unknown file rendered")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("src/very/long/path.php", 10); got != "src/ver..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
	// the ellipsis counts toward the width
	for _, width := range []int{4, 8, 12} {
		got := truncate("internal/analysis/analyzer_test.ir.json", width)
		if w := runewidth.StringWidth(got); w != width {
			t.Fatalf("truncate(%d) = %q, width %d", width, got, w)
		}
	}
	if got := truncate("файлы/проекта.ir.json", 8); got != "файлы..." {
		t.Fatalf("truncate = %q", got)
	}
}
