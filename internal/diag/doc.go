// Package diag defines the diagnostic model shared by the loader, the
// codebase builder and the analyzer.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – low / normal / critical, mapped onto the 0/5/10 scale used by
//     the minimum_severity option.
//   - Code – compact numeric identifier (see codes.go) with a stable string ID
//     such as REF1001 and an issue-type Name such as UndeclaredVariable.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary – the source.Pos the issue is attached to.
//   - Notes – optional secondary positions (e.g. "declared here").
//
// # Emitting diagnostics
//
// Producers use a Reporter and never touch storage directly. ReportBuilder
// (or the ReportError/ReportWarning/ReportInfo helpers) collects notes before
// Emit. BagReporter stores into a Bag; DedupReporter and FilterReporter wrap
// another Reporter to drop repeats, low-severity or suppressed issues.
//
// Package diag does not format for humans; rendering lives in internal/diagfmt.
// FormatGoldenDiagnostics exists for tests and stays deterministic.
package diag
