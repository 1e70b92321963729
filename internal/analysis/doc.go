// Package analysis drives type propagation over a lowered program until the
// unions of all persistent elements stop changing.
//
// A run consists of passes. Every pass analyses the top-level statements of
// each file and every function body standalone; call sites descend into the
// callee with its by-reference parameters bound to proxies of the caller's
// variables, so writes inside the callee land directly on the caller's
// elements. Analyses are memoised per (callee, argument types, by-reference
// owners) within a pass. A pass whose fingerprint of persistent unions equals
// the previous one ends the run; hitting max_passes ends it with an
// UnsoundByReference advisory per function that was still changing.
//
// Diagnostics are collected per pass and only the last pass is reported, so
// findings that depend on types discovered late are not reported twice or
// spuriously.
package analysis
