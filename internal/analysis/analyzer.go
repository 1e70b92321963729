package analysis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"refflow/internal/codebase"
	"refflow/internal/config"
	"refflow/internal/diag"
	"refflow/internal/element"
	"refflow/internal/ir"
	"refflow/internal/source"
	"refflow/internal/symbols"
	"refflow/internal/trace"
	"refflow/internal/types"
)

// Analyzer owns one disjoint typed-element graph. It is not safe for
// concurrent use; parallel runs give every worker its own Analyzer.
type Analyzer struct {
	opts     Options
	cfg      config.Config
	fileSet  *source.FileSet
	types    *types.Interner
	store    *element.Store
	cb       *codebase.Codebase
	table    *symbols.Table
	progress ProgressSink
	out      diag.Reporter

	fns      map[*codebase.Function]*fnState
	fnOrder  []*fnState
	declDiag []diag.Diagnostic

	// per run
	ctx    context.Context
	tracer trace.Tracer
	span   uint64

	// per pass
	pass     int
	rep      diag.Reporter
	memo     map[uint64]*memoEntry
	recs     []*recording
	undo     []map[element.ID]types.UnionType
	literals map[string]types.UnionType
}

type fnState struct {
	fn       *codebase.Function
	settled  State
	depth    int
	out      []types.UnionType // accumulated by-reference results per parameter
	analyses int
	sig      uint64
}

// State reports the current state of the function.
func (st *fnState) State() State {
	if st.depth > 0 {
		return StateAnalyzing
	}
	return st.settled
}

// New builds the element graph for opts.Files. Declaration problems become
// diagnostics of the run; a broken seed is an error.
func New(opts Options) (*Analyzer, error) {
	cfg := opts.Config
	if cfg.MaxPasses <= 0 {
		cfg.MaxPasses = config.Default().MaxPasses
	}
	fileSet := opts.FileSet
	if fileSet == nil {
		fileSet = source.NewFileSet()
	}
	in := types.NewInterner(nil)
	store := element.NewStore(in.Strings(), 0)
	a := &Analyzer{
		opts:     opts,
		cfg:      cfg,
		fileSet:  fileSet,
		types:    in,
		store:    store,
		table:    symbols.NewTable(symbols.Hints{}, in.Strings()),
		progress: opts.Progress,
		out:      opts.Reporter,
		fns:      make(map[*codebase.Function]*fnState),
	}
	if a.progress == nil {
		a.progress = nopSink{}
	}
	if a.out == nil {
		a.out = diag.NopReporter{}
	}

	cb, err := codebase.Build(store, in, opts.Files, codebase.Options{ReadTypeAnnotations: cfg.ReadTypeAnnotations})
	if err != nil {
		a.declDiag = declDiagnostics(err)
	}
	a.cb = cb
	for _, fn := range cb.Functions() {
		st := &fnState{fn: fn, out: make([]types.UnionType, len(fn.Params))}
		a.fns[fn] = st
		a.fnOrder = append(a.fnOrder, st)
	}
	if opts.Seed != nil {
		if err := a.applySummary(opts.Seed); err != nil {
			return nil, fmt.Errorf("apply stored state: %w", err)
		}
	}
	return a, nil
}

func declDiagnostics(err error) []diag.Diagnostic {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}
	out := make([]diag.Diagnostic, 0, len(errs))
	for _, e := range errs {
		var de *codebase.DeclError
		if !errors.As(e, &de) {
			continue
		}
		code := diag.IOInvalidProgram
		if errors.Is(de.Err, types.ErrBadTypeString) {
			code = diag.IOInvalidTypeDecl
		}
		out = append(out, diag.Diagnostic{
			Severity: diag.SevError,
			Code:     code,
			Message:  de.Err.Error(),
			Primary:  source.Pos{File: de.File, Line: de.Line},
		})
	}
	return out
}

// Codebase exposes the declaration index.
func (a *Analyzer) Codebase() *codebase.Codebase { return a.cb }

// Store exposes the element arena.
func (a *Analyzer) Store() *element.Store { return a.store }

// Types exposes the type interner.
func (a *Analyzer) Types() *types.Interner { return a.types }

// Table exposes the scope table.
func (a *Analyzer) Table() *symbols.Table { return a.table }

// FunctionState reports the state of a function by name.
func (a *Analyzer) FunctionState(name string) (State, bool) {
	fn, ok := a.cb.Function(name)
	if !ok {
		return StateUnanalyzed, false
	}
	return a.fns[fn].State(), true
}

// Run performs passes until the persistent fingerprint stops changing or the
// pass bound is reached. Cancellation is checked between passes, files and
// call sites.
func (a *Analyzer) Run(ctx context.Context) (*Result, error) {
	runSpan, ctx := trace.Start(ctx, trace.ScopeDriver, "analyze")
	a.ctx = ctx
	a.tracer = trace.FromContext(ctx)
	a.span = runSpan.ID()

	maxPasses := a.cfg.MaxPasses
	if a.cfg.QuickMode {
		maxPasses = 1
	}

	var (
		bag       *diag.Bag
		passes    int
		converged bool
	)
	prev := a.fingerprint()
	for _, st := range a.fnOrder {
		st.sig = a.signature(st)
	}
	for pass := 1; pass <= maxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			runSpan.End("cancelled")
			return nil, err
		}
		bag = diag.NewBag(0)
		a.rep = &ownedReporter{next: diag.NewDedupReporter(diag.BagReporter{Bag: bag}), a: a}
		if err := a.runPass(ctx, pass, maxPasses); err != nil {
			runSpan.End("cancelled")
			return nil, err
		}
		passes = pass
		cur := a.fingerprint()
		a.settle()
		if cur == prev {
			converged = true
			break
		}
		prev = cur
	}

	res := &Result{
		Rounds:    1,
		Passes:    passes,
		Converged: converged,
		States:    make(map[string]State, len(a.fnOrder)),
	}
	for _, st := range a.fnOrder {
		if !a.analyzable(st.fn.File.ID) {
			continue
		}
		res.States[st.fn.Name] = st.State()
		if st.settled != StateStable {
			res.Unstable = append(res.Unstable, st.fn.Name)
		}
	}

	a.progress.OnEvent(Event{Stage: StageReport, Status: StatusWorking, Pass: passes, Passes: maxPasses})
	final := &ownedReporter{next: a.out, a: a}
	for _, d := range a.declDiag {
		final.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
	}
	if bag != nil {
		bag.Sort()
		for _, d := range bag.Items() {
			final.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
		}
	}
	if !converged && !a.cfg.QuickMode {
		for _, st := range a.fnOrder {
			if st.settled == StateStable || !a.analyzable(st.fn.File.ID) {
				continue
			}
			ctxRef := st.fn.Context.Ref
			diag.ReportInfo(final, diag.RefUnsoundByReference, ctxRef.Pos(),
				fmt.Sprintf("types of %s() still changed after %d passes; keeping the last inferred unions", st.fn.Name, passes)).Emit()
		}
	}
	res.Summary = a.Summary()
	a.progress.OnEvent(Event{Stage: StageReport, Status: StatusDone, Pass: passes, Passes: maxPasses})

	runSpan.WithExtra("passes", strconv.Itoa(passes)).WithExtra("converged", strconv.FormatBool(converged))
	runSpan.End("")
	return res, nil
}

func (a *Analyzer) runPass(ctx context.Context, pass, maxPasses int) error {
	a.pass = pass
	a.memo = make(map[uint64]*memoEntry)
	a.recs = a.recs[:0]
	a.literals = make(map[string]types.UnionType)
	a.undo = a.undo[:0]

	passSpan := trace.BeginAt(a.tracer, trace.ScopePass, "pass", a.span, trace.Site{Pass: pass})
	runParent := a.span
	a.span = passSpan.ID()
	defer func() { a.span = runParent }()

	byFile := make(map[source.FileID][]*fnState)
	for _, st := range a.fnOrder {
		byFile[st.fn.File.ID] = append(byFile[st.fn.File.ID], st)
	}
	sample := newSampler(a.cfg.ProgressBarSampleRate)
	for _, f := range a.opts.Files {
		if !a.analyzable(f.ID) {
			continue
		}
		if err := ctx.Err(); err != nil {
			passSpan.End("cancelled")
			return err
		}
		path := a.fileSet.DisplayPath(f.ID)
		if sample.next() {
			a.progress.OnEvent(Event{File: path, Stage: StageAnalyze, Status: StatusWorking, Pass: pass, Passes: maxPasses})
		}
		a.analyzeMain(f)
		for _, st := range byFile[f.ID] {
			a.analyzeStandalone(st)
		}
		a.progress.OnEvent(Event{File: path, Stage: StageAnalyze, Status: StatusDone, Pass: pass, Passes: maxPasses})
	}
	passSpan.WithExtra("memo", strconv.Itoa(len(a.memo)))
	passSpan.End("")
	return nil
}

// settle moves every function analysed during the pass to Stable or back to
// Unanalyzed depending on whether its parameters, outputs or result changed.
func (a *Analyzer) settle() {
	for _, st := range a.fnOrder {
		sig := a.signature(st)
		switch {
		case st.analyses == 0:
		case sig == st.sig:
			st.settled = StateStable
		default:
			st.settled = StateUnanalyzed
		}
		st.sig = sig
		st.analyses = 0
	}
}

var separatorByte = []byte{0xff}

func (a *Analyzer) signature(st *fnState) uint64 {
	h := xxhash.New()
	ids := append([]element.ID{st.fn.Result}, st.fn.Params...)
	_, _ = h.WriteString(strconv.FormatUint(a.store.Fingerprint(ids), 16))
	for _, u := range st.out {
		_, _ = h.Write(separatorByte)
		_, _ = h.WriteString(u.Key())
	}
	return h.Sum64()
}

// fingerprint digests every persistent union plus accumulated outputs.
func (a *Analyzer) fingerprint() uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(strconv.FormatUint(a.store.Fingerprint(a.cb.Persistent()), 16))
	for _, st := range a.fnOrder {
		_, _ = h.Write(separatorByte)
		_, _ = h.WriteString(st.fn.Name)
		for _, u := range st.out {
			_, _ = h.Write(separatorByte)
			_, _ = h.WriteString(u.Key())
		}
	}
	return h.Sum64()
}

// site locates trace events of the current pass.
func (a *Analyzer) site(f *ir.File, line uint32) trace.Site {
	if a.tracer == nil || !a.tracer.Enabled() {
		return trace.Site{}
	}
	return trace.Site{Pass: a.pass, File: a.fileSet.DisplayPath(f.ID), Line: line}
}

func (a *Analyzer) analyzable(file source.FileID) bool {
	if a.opts.Owned != nil && !a.opts.Owned[file] {
		return false
	}
	if f := a.fileSet.Get(file); f != nil && len(a.cfg.ExcludeAnalysisDirectoryList) > 0 {
		return !a.cfg.IsExcludedFromAnalysis(f.Path)
	}
	return true
}

// ownedReporter drops diagnostics located in files this analyzer does not
// analyse (other workers' partitions, excluded directories).
type ownedReporter struct {
	next diag.Reporter
	a    *Analyzer
}

func (r *ownedReporter) Report(code diag.Code, sev diag.Severity, primary source.Pos, msg string, notes []diag.Note) {
	if !r.a.analyzable(primary.File) {
		return
	}
	r.next.Report(code, sev, primary, msg, notes)
}

func (a *Analyzer) analyzeMain(f *ir.File) {
	if len(f.Main) == 0 {
		return
	}
	path := a.fileSet.DisplayPath(f.ID)
	span := trace.BeginAt(a.tracer, trace.ScopeFunction, "main:"+path, a.span, trace.Site{Pass: a.pass, File: path})
	parent := a.span
	a.span = span.ID()
	fr := &frame{file: f, scope: a.table.FileRoot(f.ID), main: true}
	a.block(fr, f.Main)
	a.span = parent
	span.End("")
}

// analyzeStandalone analyses fn with every parameter bound to a fresh local
// seeded from the parameter's union.
func (a *Analyzer) analyzeStandalone(st *fnState) {
	fn := st.fn
	entities := make([]element.ID, len(fn.Params))
	for i, pid := range fn.Params {
		local := a.store.NewVariable(a.store.Name(pid), a.store.Context(pid))
		a.store.SetUnionType(local, a.paramEntry(fn, i))
		entities[i] = local
	}
	a.body(st, entities)
	for _, id := range entities {
		a.store.Release(id)
	}
}

// paramEntry is the union a parameter holds on entry without call-site
// information: everything observed so far, or its default.
func (a *Analyzer) paramEntry(fn *codebase.Function, i int) types.UnionType {
	pid := fn.Params[i]
	u := a.store.UnionType(pid)
	if def, ok := a.store.DefaultValue(pid); ok {
		u = u.Merge(def.Union)
	}
	if a.store.IsVariadic(pid) {
		return a.arrayOf(u)
	}
	return u
}

// body analyses fn with entities bound to its parameters and returns the
// union of its return statements.
func (a *Analyzer) body(st *fnState, entities []element.ID) types.UnionType {
	fn := st.fn
	span := trace.BeginAt(a.tracer, trace.ScopeFunction, "fn:"+fn.Name, a.span, a.site(fn.File, fn.Decl.Line))
	parent := a.span
	a.span = span.ID()

	scope := a.table.EnterFunction(fn.File.ID, fn.Name)
	for _, id := range entities {
		a.table.Bind(scope, a.store.Name(id), id)
	}
	st.depth++
	st.analyses++
	fr := &frame{file: fn.File, fn: st, scope: scope}
	a.block(fr, fn.Decl.Body)
	for i, pid := range fn.Params {
		if a.store.IsPassByReference(pid) && !a.store.IsVariadic(pid) {
			st.out[i] = st.out[i].Merge(a.store.UnionType(entities[i]))
		}
	}
	st.depth--
	for _, id := range a.table.Leave(scope) {
		a.store.Release(id)
	}

	a.span = parent
	span.End("")
	return fr.ret
}

func (a *Analyzer) arrayOf(elem types.UnionType) types.UnionType {
	if elem.IsEmpty() {
		return types.NewUnion(a.types.ArrayOf(types.MixedType))
	}
	return elem.MapMembers(a.types.ArrayOf)
}
