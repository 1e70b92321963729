// Package trace provides the tracing subsystem of the analyzer: structured
// events for runs, re-analysis passes, function analyses and call sites.
//
// # Usage
//
//	refflow analyze --trace=- --trace-level=detail --trace-format=logfmt
//
// # Architecture
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write (text, NDJSON or logfmt)
//   - RingTracer: circular buffer dumped on failure
//   - Fanout: stream and ring together
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: only dumps on failure
//   - LevelPhase: run and pass boundaries
//   - LevelDetail: function analyses
//   - LevelDebug: everything including call sites
//
// Level names may also be given as the finest scope to show: pass, function
// or call.
//
// # Sites
//
// Events raised inside the pass loop carry a Site: the pass number and, for
// call sites, the file and line. Text streams print a rule when a new pass
// begins.
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "pass", trace.CurrentSpan(ctx).SpanID)
//	defer span.End("")
package trace
