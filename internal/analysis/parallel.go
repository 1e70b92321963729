package analysis

import (
	"context"
	"math/rand/v2"
	"slices"
	"strconv"

	"golang.org/x/sync/errgroup"

	"refflow/internal/diag"
	"refflow/internal/ir"
	"refflow/internal/source"
	"refflow/internal/trace"
)

// Partition splits files over n workers round-robin. With shuffle the order
// is randomized first, using seed.
func Partition(files []*ir.File, n int, shuffle bool, seed uint64) []map[source.FileID]bool {
	if n < 1 {
		n = 1
	}
	order := slices.Clone(files)
	if shuffle {
		r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		r.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	parts := make([]map[source.FileID]bool, n)
	for i := range parts {
		parts[i] = make(map[source.FileID]bool)
	}
	for i, f := range order {
		parts[i%n][f.ID] = true
	}
	return parts
}

// RunParallel analyses opts.Files with opts.Config.Processes workers. Every
// worker holds its own element graph over all files but analyses and reports
// only its partition; summaries are exchanged at a barrier after every round
// until a round leaves the merged summary unchanged.
func RunParallel(ctx context.Context, opts Options, shuffleSeed uint64) (*Result, error) {
	workers := min(opts.Config.Processes, len(opts.Files))
	if workers <= 1 {
		a, err := New(opts)
		if err != nil {
			return nil, err
		}
		return a.Run(ctx)
	}
	maxRounds := opts.Config.MaxPasses
	if maxRounds <= 0 || opts.Config.QuickMode {
		maxRounds = 1
	}

	span, ctx := trace.Start(ctx, trace.ScopeDriver, "parallel")
	defer span.End("")

	parts := Partition(opts.Files, workers, opts.Config.RandomizeFileOrder, shuffleSeed)
	merged := NewSummary()
	merged.Merge(opts.Seed)
	prev := merged.Digest()

	var (
		bags    []*diag.Bag
		results []*Result
		rounds  int
		stable  bool
	)
	for round := 1; round <= maxRounds; round++ {
		rounds = round
		bags = make([]*diag.Bag, workers)
		results = make([]*Result, workers)

		// Барьер: все воркеры начинают раунд с одной и той же сводкой
		seed := merged
		roundSpan, rctx := trace.Start(ctx, trace.ScopeDriver, "round")
		roundSpan.WithExtra("round", strconv.Itoa(round)).WithExtra("workers", strconv.Itoa(workers))
		g, gctx := errgroup.WithContext(rctx)
		g.SetLimit(workers)
		for w := range workers {
			g.Go(func() error {
				bag := diag.NewBag(0)
				wopts := opts
				wopts.Seed = seed
				wopts.Owned = parts[w]
				wopts.Reporter = diag.BagReporter{Bag: bag}
				a, err := New(wopts)
				if err != nil {
					return err
				}
				res, err := a.Run(gctx)
				if err != nil {
					return err
				}
				bags[w] = bag
				results[w] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			roundSpan.End("failed")
			return nil, err
		}

		next := NewSummary()
		next.Merge(seed)
		for _, res := range results {
			next.Merge(res.Summary)
		}
		merged = next
		digest := merged.Digest()
		if digest == prev {
			stable = true
			roundSpan.End("stable")
			break
		}
		roundSpan.End("changed")
		prev = digest
	}

	out := &Result{
		Rounds:    rounds,
		Converged: stable,
		Summary:   merged,
		States:    make(map[string]State),
	}
	all := diag.NewBag(0)
	for w, res := range results {
		all.Merge(bags[w])
		out.Passes = max(out.Passes, res.Passes)
		out.Converged = out.Converged && res.Converged
		out.Unstable = append(out.Unstable, res.Unstable...)
		for name, st := range res.States {
			out.States[name] = st
		}
	}
	slices.Sort(out.Unstable)
	all.Sort()
	if opts.Reporter != nil {
		for _, d := range all.Items() {
			opts.Reporter.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
		}
	}
	return out, nil
}
