package trace

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestStreamTracerLogfmt(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatLogfmt)

	span := BeginAt(tr, ScopePass, "pass", 0, Site{Pass: 1})
	span.WithExtra("changed", "true")
	Point(tr, ScopeCall, "memo-hit", span.ID(), "dropped at detail level")
	span.End("done")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 records, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "kind=begin") || !strings.Contains(lines[0], "name=pass") {
		t.Fatalf("begin record wrong: %s", lines[0])
	}
	if !strings.Contains(lines[1], "pass=1 name=pass detail=done changed=true") {
		t.Fatalf("end record wrong: %s", lines[1])
	}
}

func TestFormatNDJSON(t *testing.T) {
	ev := &Event{Time: time.Unix(0, 0).UTC(), Seq: 7, Kind: KindPoint, Scope: ScopeFunction, Name: "fn:f", Extra: map[string]string{"b": "2", "a": "1"}}
	got := string(FormatEvent(ev, FormatNDJSON))
	if !strings.HasSuffix(got, "\n") || !strings.Contains(got, `"extra":{"a":"1","b":"2"}`) {
		t.Fatalf("unexpected ndjson: %s", got)
	}
}

func TestRingTracerKeepsLastEvents(t *testing.T) {
	ring := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		ring.Emit(&Event{Kind: KindPoint, Scope: ScopeCall, Name: name})
	}
	snap := ring.Snapshot()
	if len(snap) != 2 || snap[0].Name != "b" || snap[1].Name != "c" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestContextPropagation(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("expected Nop by default")
	}
	ring := NewRingTracer(4, LevelPhase)
	ctx := WithTracer(context.Background(), ring)
	if FromContext(ctx) != Tracer(ring) {
		t.Fatalf("tracer lost")
	}
	ctx = WithSpanContext(ctx, SpanContext{SpanID: 9})
	if CurrentSpan(ctx).SpanID != 9 {
		t.Fatalf("span context lost")
	}
}

func TestParseHelpers(t *testing.T) {
	for in, want := range map[string]Level{"DETAIL": LevelDetail, "call": LevelDebug, "pass": LevelPhase, " off ": LevelOff} {
		if l, err := ParseLevel(in); err != nil || l != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, l, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected level error")
	}
	if LevelDetail.ShouldEmit(ScopeCall) || !LevelDebug.ShouldEmit(ScopeCall) || LevelError.ShouldEmit(ScopeDriver) {
		t.Fatalf("ShouldEmit ceilings wrong")
	}
	if f, err := ParseFormat("logfmt"); err != nil || f != FormatLogfmt {
		t.Fatalf("ParseFormat: %v %v", f, err)
	}
	if _, err := ParseMode("chrome"); err == nil {
		t.Fatalf("expected mode error")
	}
}

func TestStartNestsSpans(t *testing.T) {
	ring := NewRingTracer(8, LevelDetail)
	ctx := WithTracer(context.Background(), ring)

	outer, ctx := Start(ctx, ScopePass, "pass")
	inner, innerCtx := Start(ctx, ScopeFunction, "fn:fill")
	inner.End("")
	outer.End("")
	if CurrentSpan(innerCtx).SpanID != inner.ID() {
		t.Fatalf("inner context carries span %d", CurrentSpan(innerCtx).SpanID)
	}

	// call scope is below the level: inert span, context unchanged
	call, callCtx := Start(innerCtx, ScopeCall, "call")
	if call.ID() != 0 || callCtx != innerCtx {
		t.Fatalf("filtered span was not inert")
	}
	call.WithExtra("k", "v").End("")

	snap := ring.Snapshot()
	if len(snap) != 4 {
		t.Fatalf("events = %d, want 4", len(snap))
	}
	if snap[1].ParentID != outer.ID() || snap[1].Name != "fn:fill" {
		t.Fatalf("inner begin = %+v", snap[1])
	}
}

func TestFanoutAndRingLookup(t *testing.T) {
	var buf bytes.Buffer
	stream := NewStreamTracer(&buf, LevelDebug, FormatText)
	ring := NewRingTracer(4, LevelDebug)
	fan := NewFanout(LevelDebug, stream, ring)

	Point(fan, ScopeCall, "bind", 0, "x")
	if err := fan.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if !strings.Contains(buf.String(), "bind") {
		t.Fatalf("stream output = %q", buf.String())
	}
	got, ok := Ring(fan)
	if !ok || got != ring || len(got.Snapshot()) != 1 {
		t.Fatalf("Ring(fan) = %v, %v", got, ok)
	}
	if _, ok := Ring(stream); ok {
		t.Fatalf("stream tracer reported a ring")
	}
}

func TestHeartbeatStops(t *testing.T) {
	if h := StartHeartbeat(Nop, time.Millisecond); h != nil {
		t.Fatalf("heartbeat started on a disabled tracer")
	}
	ring := NewRingTracer(16, LevelPhase)
	h := StartHeartbeat(ring, time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for len(ring.Snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	h.Stop()
	h.Stop()
	snap := ring.Snapshot()
	if len(snap) == 0 || snap[0].Kind != KindHeartbeat || snap[0].Extra["goroutines"] == "" {
		t.Fatalf("heartbeat events = %+v", snap)
	}
}

func TestSitesInOutput(t *testing.T) {
	ev := &Event{Kind: KindPoint, Scope: ScopeCall, Name: "call:fill", Detail: "memo",
		Site: Site{Pass: 2, File: "app.ir.json", Line: 3}}

	if got := string(FormatEvent(ev, FormatText)); !strings.Contains(got, "p2 ") || !strings.Contains(got, "call:fill @app.ir.json:3 (memo)") {
		t.Fatalf("text = %q", got)
	}
	if got := string(FormatEvent(ev, FormatNDJSON)); !strings.Contains(got, `"pass":2,"site":"app.ir.json:3"`) {
		t.Fatalf("ndjson = %q", got)
	}
	if got := string(FormatEvent(ev, FormatLogfmt)); !strings.Contains(got, "pass=2 name=call:fill site=app.ir.json:3") {
		t.Fatalf("logfmt = %q", got)
	}
	if (Site{File: "a.ir.json"}).Loc() != "a.ir.json" || !(Site{}).IsZero() {
		t.Fatalf("Site helpers wrong")
	}
}

func TestStreamMarksPasses(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)
	for _, pass := range []int{1, 1, 2} {
		BeginAt(tr, ScopeFunction, "fn:f", 0, Site{Pass: pass}).End("")
	}
	Point(tr, ScopeDriver, "report", 0, "")

	if got := strings.Count(buf.String(), "──── pass"); got != 2 {
		t.Fatalf("pass rules = %d, want 2:\n%s", got, buf.String())
	}
	if !strings.Contains(buf.String(), "──── pass 2 ────") {
		t.Fatalf("missing pass 2 rule:\n%s", buf.String())
	}
}

func TestNewPicksFormatFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "traces", "run.ndjson")
	tr, err := New(Config{Level: LevelPhase, Mode: ModeStream, OutputPath: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	Point(tr, ScopeDriver, "start", 0, "")
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read trace: %v", err)
	}
	if !strings.HasPrefix(string(data), "{") {
		t.Fatalf("expected ndjson, got %q", data)
	}
	if off, _ := New(Config{Level: LevelOff}); off != Nop {
		t.Fatalf("LevelOff did not yield Nop")
	}
}
