package analysis

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"refflow/internal/config"
	"refflow/internal/diag"
	"refflow/internal/ir"
	"refflow/internal/testkit"
	"refflow/internal/trace"
)

func assignsIntOrString(intFirst bool) *ir.File {
	intArm := []ir.Stmt{assign(3, ref("p"), lit("int"))}
	strArm := []ir.Stmt{assign(5, ref("p"), lit("string"))}
	arms := [][]ir.Stmt{intArm, strArm}
	if !intFirst {
		arms = [][]ir.Stmt{strArm, intArm}
	}
	return &ir.File{
		Path: "main.php",
		Functions: []ir.Function{{
			Name: "fill", Line: 1, EndLine: 7,
			Params: []ir.Param{byRef("p")},
			Body:   []ir.Stmt{branch(2, true, arms...)},
		}},
		Main: []ir.Stmt{callStmt(9, "fill", ref("x"))},
	}
}

func TestByReferenceWritesReachCaller(t *testing.T) {
	for _, intFirst := range []bool{true, false} {
		cfg := config.Default()
		cfg.MaxPasses = 1
		r := analyze(t, cfg, assignsIntOrString(intFirst))
		r.expectUnion(t, r.global(t, "x"), "int|string")
		if r.res.Passes != 1 {
			t.Fatalf("passes = %d, want 1", r.res.Passes)
		}
		if n := r.count(diag.RefUndeclaredVariable); n != 0 {
			t.Fatalf("x reported undeclared %d times", n)
		}
	}
}

func TestByReferenceRunConverges(t *testing.T) {
	r := analyze(t, config.Default(), assignsIntOrString(true))
	if !r.res.Converged {
		t.Fatalf("run did not converge in %d passes", r.res.Passes)
	}
	r.expectUnion(t, r.global(t, "x"), "int|string")
	if got := r.res.States["fill"]; got != StateStable {
		t.Fatalf("fill state = %v, want stable", got)
	}
	// only persistent elements survive a run
	if err := testkit.CheckQuiescent(r.a.Codebase(), r.a.Table()); err != nil {
		t.Fatalf("after run: %v", err)
	}
}

func TestNonExhaustiveBranchKeepsEntryUnion(t *testing.T) {
	f := &ir.File{
		Path: "main.php",
		Functions: []ir.Function{{
			Name: "maybe", Line: 1,
			Params: []ir.Param{byRef("p")},
			Body: []ir.Stmt{
				branch(2, false, []ir.Stmt{assign(3, ref("p"), lit("int"))}),
			},
		}},
		Main: []ir.Stmt{
			assign(6, ref("x"), lit("null")),
			callStmt(7, "maybe", ref("x")),
		},
	}
	r := analyze(t, config.Default(), f)
	r.expectUnion(t, r.global(t, "x"), "null|int")
}

func TestVariableAssignmentReplacesUnion(t *testing.T) {
	f := &ir.File{
		Path: "main.php",
		Functions: []ir.Function{{
			Name: "set", Line: 1,
			Params: []ir.Param{byRef("p")},
			Body:   []ir.Stmt{assign(2, ref("p"), lit("float"))},
		}},
		Main: []ir.Stmt{
			assign(5, ref("x"), lit("int")),
			callStmt(6, "set", ref("x")),
		},
	}
	r := analyze(t, config.Default(), f)
	r.expectUnion(t, r.global(t, "x"), "float")
	fn, _ := r.a.Codebase().Function("set")
	// the parameter accumulates what every call passed in
	r.expectUnion(t, r.a.Store().UnionType(fn.Params[0]), "int")
}

func TestReferenceThroughTwoCalls(t *testing.T) {
	f := &ir.File{
		Path: "main.php",
		Functions: []ir.Function{
			{
				Name: "outer", Line: 1,
				Params: []ir.Param{byRef("a")},
				Body:   []ir.Stmt{callStmt(2, "inner", ref("a"))},
			},
			{
				Name: "inner", Line: 4,
				Params: []ir.Param{byRef("b")},
				Body:   []ir.Stmt{assign(5, ref("b"), lit("bool"))},
			},
		},
		Main: []ir.Stmt{callStmt(8, "outer", ref("x"))},
	}
	r := analyze(t, config.Default(), f)
	r.expectUnion(t, r.global(t, "x"), "bool")
}

func mutualRecursion() *ir.File {
	return &ir.File{
		Path: "main.php",
		Functions: []ir.Function{
			{
				Name: "ping", Line: 1,
				Params: []ir.Param{byRef("v")},
				Body: []ir.Stmt{branch(2, true,
					[]ir.Stmt{assign(3, ref("v"), lit("int"))},
					[]ir.Stmt{callStmt(5, "pong", ref("v"))},
				)},
			},
			{
				Name: "pong", Line: 8,
				Params: []ir.Param{byRef("v")},
				Body: []ir.Stmt{branch(9, true,
					[]ir.Stmt{assign(10, ref("v"), lit("string"))},
					[]ir.Stmt{callStmt(12, "ping", ref("v"))},
				)},
			},
		},
		Main: []ir.Stmt{callStmt(16, "ping", ref("a"))},
	}
}

func TestMutualRecursionConverges(t *testing.T) {
	r := analyze(t, config.Default(), mutualRecursion())
	if !r.res.Converged {
		t.Fatalf("run did not converge in %d passes", r.res.Passes)
	}
	if len(r.res.Unstable) != 0 {
		t.Fatalf("unstable functions: %v", r.res.Unstable)
	}
	r.expectUnion(t, r.global(t, "a"), "int|string")
	if n := r.count(diag.RefUnsoundByReference); n != 0 {
		t.Fatalf("unexpected unsound advisories: %d", n)
	}
	if err := testkit.CheckQuiescent(r.a.Codebase(), r.a.Table()); err != nil {
		t.Fatalf("after run: %v", err)
	}
}

func TestUnboundedGrowthStopsAtBound(t *testing.T) {
	f := &ir.File{
		Path: "main.php",
		Functions: []ir.Function{{
			Name: "grow", Line: 1, EndLine: 4,
			Params: []ir.Param{byRef("v")},
			Body: []ir.Stmt{
				assign(2, ref("w"), arrayOf(ref("v"))),
				callStmt(3, "grow", ref("w")),
			},
		}},
		Main: []ir.Stmt{
			assign(6, ref("a"), lit("int")),
			callStmt(7, "grow", ref("a")),
		},
	}
	cfg := config.Default()
	cfg.MaxPasses = 3
	r := analyze(t, cfg, f)
	if r.res.Converged {
		t.Fatalf("growing program reported convergence")
	}
	if r.res.Passes != 3 {
		t.Fatalf("passes = %d, want 3", r.res.Passes)
	}
	if diff := cmp.Diff([]string{"grow"}, r.res.Unstable); diff != "" {
		t.Fatalf("unstable mismatch (-want +got):\n%s", diff)
	}
	var advisories []diag.Diagnostic
	for _, d := range r.bag.Items() {
		if d.Code == diag.RefUnsoundByReference {
			advisories = append(advisories, d)
		}
	}
	if len(advisories) != 1 || advisories[0].Primary.Line != 1 || advisories[0].Severity != diag.SevInfo {
		t.Fatalf("unexpected advisories: %+v", advisories)
	}
}

func TestQuickModeRunsOnePass(t *testing.T) {
	f := &ir.File{
		Path: "main.php",
		Functions: []ir.Function{
			{
				Name: "id", Line: 1,
				Params: []ir.Param{{Name: "p"}},
				Body:   []ir.Stmt{returns(2, ref("p"))},
			},
			{
				Name: "set", Line: 4,
				Params: []ir.Param{byRef("p")},
				Body:   []ir.Stmt{assign(5, ref("p"), lit("int"))},
			},
		},
		Main: []ir.Stmt{
			assign(8, ref("y"), callExpr("id", lit("string"))),
			callStmt(9, "set", ref("x")),
		},
	}
	cfg := config.Default()
	cfg.QuickMode = true
	r := analyze(t, cfg, f)
	if r.res.Passes != 1 {
		t.Fatalf("passes = %d, want 1", r.res.Passes)
	}
	// by-reference callees are still analysed at the call site
	r.expectUnion(t, r.global(t, "x"), "int")
	// by-value callees are not: the result is unknown before id's own analysis
	if got := r.global(t, "y"); !got.IsEmpty() {
		t.Fatalf("quick mode descended into id(): y = %v", got)
	}
	if n := r.count(diag.RefUnsoundByReference); n != 0 {
		t.Fatalf("quick mode emitted %d unsound advisories", n)
	}
}

func TestResultFlowsFromReturn(t *testing.T) {
	f := &ir.File{
		Path: "main.php",
		Functions: []ir.Function{{
			Name: "pick", Line: 1,
			Params: []ir.Param{{Name: "p"}},
			Body: []ir.Stmt{branch(2, true,
				[]ir.Stmt{returns(3, ref("p"))},
				[]ir.Stmt{returns(5, lit("null"))},
			)},
		}},
		Main: []ir.Stmt{assign(8, ref("y"), callExpr("pick", lit("int")))},
	}
	r := analyze(t, config.Default(), f)
	r.expectUnion(t, r.global(t, "y"), "int|null")
}

func TestDiagnosticsComeFromFinalPassOnly(t *testing.T) {
	f := &ir.File{
		Path:      "main.php",
		Constants: []ir.Constant{{Name: "OLD", Line: 1, Types: "int", Deprecated: true}},
		Main: []ir.Stmt{
			assign(3, ref("a"), ref("nope")),
			callStmt(4, "missing"),
			assign(5, ref("b"), &ir.Expr{Op: ir.ExprConst, Name: "NOPE"}),
			assign(6, ref("c"), &ir.Expr{Op: ir.ExprNew, Class: "Ghost"}),
			assign(7, ref("d"), &ir.Expr{Op: ir.ExprConst, Name: "OLD"}),
		},
	}
	r := analyze(t, config.Default(), f)
	want := []string{"REF1001", "REF1002", "REF1004", "REF1005", "REF1008"}
	got := r.codes()
	slices.Sort(got)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("codes mismatch (-want +got):\n%s", diff)
	}
}

func TestCallSiteChecks(t *testing.T) {
	f := &ir.File{
		Path: "main.php",
		Functions: []ir.Function{
			{Name: "one", Line: 1, Params: []ir.Param{{Name: "p", Types: "int"}}},
			{Name: "out", Line: 2, Params: []ir.Param{byRef("p")}},
			{Name: "old", Line: 3, Deprecated: true},
		},
		Main: []ir.Stmt{
			callStmt(5, "one"),
			callStmt(6, "one", lit("int"), lit("int")),
			callStmt(7, "one", lit("string")),
			callStmt(8, "out", lit("int")),
			callStmt(9, "old"),
		},
	}
	r := analyze(t, config.Default(), f)
	wantByLine := map[uint32]diag.Code{
		5: diag.RefTooFewArguments,
		6: diag.RefTooManyArguments,
		7: diag.RefTypeMismatchArgument,
		8: diag.RefNonVariableByReference,
		9: diag.RefDeprecatedFunction,
	}
	got := make(map[uint32]diag.Code)
	for _, d := range r.bag.Items() {
		got[d.Primary.Line] = d.Code
	}
	if diff := cmp.Diff(wantByLine, got); diff != "" {
		t.Fatalf("diagnostics mismatch (-want +got):\n%s", diff)
	}
}

func TestScalarImplicitCastAcceptsScalars(t *testing.T) {
	f := &ir.File{
		Path:      "main.php",
		Functions: []ir.Function{{Name: "one", Line: 1, Params: []ir.Param{{Name: "p", Types: "int"}}}},
		Main: []ir.Stmt{
			callStmt(3, "one", lit("string")),
			callStmt(4, "one", lit("null")),
		},
	}
	cfg := config.Default()
	cfg.ScalarImplicitCast = true
	cfg.NullCastsAsAnyType = true
	r := analyze(t, cfg, f)
	if r.bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", r.codes())
	}
}

func TestReturnMismatch(t *testing.T) {
	f := &ir.File{
		Path: "main.php",
		Functions: []ir.Function{{
			Name: "num", Line: 1, Returns: "int",
			Body: []ir.Stmt{returns(2, lit("string"))},
		}},
		Main: []ir.Stmt{assign(4, ref("n"), callExpr("num"))},
	}
	r := analyze(t, config.Default(), f)
	if r.count(diag.RefTypeMismatchReturn) != 1 {
		t.Fatalf("codes = %v", r.codes())
	}
	// the declared return type wins at call sites
	r.expectUnion(t, r.global(t, "n"), "int")
}

func TestPropertiesGrowAndMissingOnes(t *testing.T) {
	obj := ref("o")
	f := &ir.File{
		Path:    "main.php",
		Classes: []ir.Class{{Name: "Box", Line: 1, Properties: []ir.Property{{Name: "v", Line: 2}}}},
		Main: []ir.Stmt{
			assign(4, ref("o"), &ir.Expr{Op: ir.ExprNew, Class: "Box"}),
			assign(5, &ir.Expr{Op: ir.ExprProp, Left: obj, Name: "v"}, lit("int")),
			assign(6, &ir.Expr{Op: ir.ExprProp, Left: obj, Name: "v"}, lit("string")),
			assign(7, &ir.Expr{Op: ir.ExprProp, Left: obj, Name: "extra"}, lit("bool")),
		},
	}

	r := analyze(t, config.Default(), f)
	id, ok := r.a.Codebase().Property("Box", "v")
	if !ok {
		t.Fatalf("property Box::v missing")
	}
	r.expectUnion(t, r.a.Store().UnionType(id), "int|string")
	if r.count(diag.RefUndeclaredProperty) != 1 {
		t.Fatalf("codes = %v", r.codes())
	}

	cfg := config.Default()
	cfg.AllowMissingProperties = true
	r = analyze(t, cfg, f)
	if r.bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", r.codes())
	}
	if _, ok := r.a.Codebase().Property("Box", "extra"); !ok {
		t.Fatalf("dynamic property was not created")
	}
}

func TestGlobalStatementBindsProgramGlobal(t *testing.T) {
	f := &ir.File{
		Path: "main.php",
		Functions: []ir.Function{{
			Name: "touch", Line: 1,
			Body: []ir.Stmt{
				{Op: ir.StmtGlobal, Line: 2, Names: []string{"g"}},
				assign(3, ref("g"), lit("float")),
			},
		}},
		Main: []ir.Stmt{callStmt(5, "touch")},
	}
	r := analyze(t, config.Default(), f)
	r.expectUnion(t, r.global(t, "g"), "float")
}

func globalStmt(line uint32, names ...string) ir.Stmt {
	return ir.Stmt{Op: ir.StmtGlobal, Line: line, Names: names}
}

// Calls with identical arguments must not reuse an earlier analysis once a
// global the callee reads or writes has changed in between.
func TestCallReuseTracksGlobals(t *testing.T) {
	tests := []struct {
		name   string
		fn     ir.Function
		main   []ir.Stmt
		global string
		want   string
	}{
		{
			name: "by-reference copy of a global",
			fn: ir.Function{
				Name: "copyGlobal", Line: 1,
				Params: []ir.Param{byRef("p")},
				Body: []ir.Stmt{
					globalStmt(2, "g"),
					assign(3, ref("p"), ref("g")),
				},
			},
			main: []ir.Stmt{
				assign(6, ref("g"), lit("int")),
				assign(7, ref("x"), lit("null")),
				callStmt(8, "copyGlobal", ref("x")),
				assign(9, ref("g"), lit("string")),
				assign(10, ref("x"), lit("null")),
				callStmt(11, "copyGlobal", ref("x")),
			},
			global: "x",
			want:   "string",
		},
		{
			name: "result read from a global",
			fn: ir.Function{
				Name: "get", Line: 1,
				Body: []ir.Stmt{
					globalStmt(2, "g"),
					returns(3, ref("g")),
				},
			},
			main: []ir.Stmt{
				assign(6, ref("g"), lit("int")),
				assign(7, ref("y"), callExpr("get")),
				assign(8, ref("g"), lit("string")),
				assign(9, ref("y"), callExpr("get")),
			},
			global: "y",
			want:   "string",
		},
		{
			name: "write to a global",
			fn: ir.Function{
				Name: "reset", Line: 1,
				Body: []ir.Stmt{
					globalStmt(2, "g"),
					assign(3, ref("g"), lit("float")),
				},
			},
			main: []ir.Stmt{
				callStmt(6, "reset"),
				assign(7, ref("g"), lit("null")),
				callStmt(8, "reset"),
			},
			global: "g",
			want:   "float",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// the callee is only reached through calls, so the last call
			// decides what the global holds
			lib := &ir.File{Path: "vendor/lib.php", Functions: []ir.Function{tt.fn}}
			app := &ir.File{Path: "app.php", Main: tt.main}
			cfg := config.Default()
			cfg.MaxPasses = 1
			cfg.ExcludeAnalysisDirectoryList = []string{"vendor"}
			r := analyze(t, cfg, lib, app)
			r.expectUnion(t, r.global(t, tt.global), tt.want)
		})
	}
}

func TestExcludedFilesAreAnalysedOnlyThroughCalls(t *testing.T) {
	lib := &ir.File{
		Path: "vendor/lib.php",
		Functions: []ir.Function{{
			Name: "fill", Line: 1,
			Params: []ir.Param{byRef("p")},
			Body: []ir.Stmt{
				assign(2, ref("p"), ref("undefined")),
				assign(3, ref("p"), lit("int")),
			},
		}},
	}
	app := &ir.File{
		Path: "app.php",
		Main: []ir.Stmt{callStmt(1, "fill", ref("x"))},
	}
	cfg := config.Default()
	cfg.ExcludeAnalysisDirectoryList = []string{"vendor"}
	r := analyze(t, cfg, lib, app)
	r.expectUnion(t, r.global(t, "x"), "int")
	if r.bag.Len() != 0 {
		t.Fatalf("excluded file reported: %v", r.codes())
	}
	if _, ok := r.res.States["fill"]; ok {
		t.Fatalf("excluded function listed in states")
	}
}

func TestDeclarationErrorsAreReported(t *testing.T) {
	f := &ir.File{
		Path:      "main.php",
		Functions: []ir.Function{{Name: "bad", Line: 3, Params: []ir.Param{{Name: "p", Line: 3, Types: "int|"}}}},
	}
	r := analyze(t, config.Default(), f)
	if diff := cmp.Diff([]string{"IO4003"}, r.codes()); diff != "" {
		t.Fatalf("codes mismatch (-want +got):\n%s", diff)
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	f := assignsIntOrString(true)
	fs := register(t, f)
	a, err := New(Options{Files: []*ir.File{f}, FileSet: fs, Config: config.Default()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
}

func TestProgressEvents(t *testing.T) {
	f := assignsIntOrString(true)
	fs := register(t, f)
	ch := make(chan Event, 64)
	a, err := New(Options{Files: []*ir.File{f}, FileSet: fs, Config: config.Default(), Progress: ChannelSink{Ch: ch}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	close(ch)
	done := 0
	var last Event
	for evt := range ch {
		if evt.Stage == StageAnalyze && evt.Status == StatusDone {
			done++
		}
		last = evt
	}
	if done != res.Passes {
		t.Fatalf("analyze done events = %d, passes = %d", done, res.Passes)
	}
	if last.Stage != StageReport || last.Status != StatusDone {
		t.Fatalf("last event = %+v", last)
	}
}

func TestTraceEventsCarrySites(t *testing.T) {
	f := assignsIntOrString(true)
	fs := register(t, f)
	ring := trace.NewRingTracer(256, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)
	a, err := New(Options{Files: []*ir.File{f}, FileSet: fs, Config: config.Default()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := a.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	passes := make(map[int]bool)
	calls := 0
	for _, ev := range ring.Snapshot() {
		if ev.Scope == trace.ScopePass && ev.Kind == trace.KindSpanBegin {
			passes[ev.Site.Pass] = true
		}
		if ev.Scope == trace.ScopeCall && ev.Name == "call:fill" {
			calls++
			if ev.Site.Loc() != "main.php:9" || ev.Site.Pass < 1 {
				t.Fatalf("call event site = %+v", ev.Site)
			}
		}
	}
	if len(passes) != res.Passes || !passes[1] {
		t.Fatalf("pass spans = %v, passes = %d", passes, res.Passes)
	}
	if calls == 0 {
		t.Fatalf("no call events traced")
	}
}
