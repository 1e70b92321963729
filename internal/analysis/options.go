package analysis

import (
	"refflow/internal/config"
	"refflow/internal/diag"
	"refflow/internal/ir"
	"refflow/internal/source"
)

// State is the per-function analysis state.
type State uint8

const (
	// StateUnanalyzed: never analysed, or its signature changed in the last pass.
	StateUnanalyzed State = iota
	// StateAnalyzing: an analysis of the body is on the stack.
	StateAnalyzing
	// StateStable: the last pass left parameters, outputs and result unchanged.
	StateStable
)

func (s State) String() string {
	switch s {
	case StateUnanalyzed:
		return "unanalyzed"
	case StateAnalyzing:
		return "analyzing"
	case StateStable:
		return "stable"
	default:
		return "unknown"
	}
}

// Options configure one Analyzer.
type Options struct {
	Files    []*ir.File
	FileSet  *source.FileSet
	Config   config.Config
	Reporter diag.Reporter
	Progress ProgressSink
	// Seed is merged into persistent elements before the first pass.
	Seed *Summary
	// Owned restricts standalone analysis and reporting to these files.
	// Nil means every file.
	Owned map[source.FileID]bool
}

// Result describes a finished run.
type Result struct {
	// Rounds counts worker barriers; a sequential run has one.
	Rounds    int
	Passes    int
	Converged bool
	// Unstable lists functions still changing when the run stopped.
	Unstable []string
	Summary  *Summary
	// States covers the functions this analyzer owns.
	States map[string]State
}
