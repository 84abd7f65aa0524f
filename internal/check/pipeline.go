package check

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// checkFn is one consistency check. Checks are pure reads: they may be run
// in any order or concurrently, and an abandoned run leaves no state behind.
type checkFn func(ctx context.Context, in Input) (CheckResult, error)

// pipelineChecks lists the six checks in report order.
var pipelineChecks = []checkFn{
	checkStaleContext,
	checkBrokenImports,
	checkOrphanedClaims,
	checkCoverageRegression,
	checkCallGraphIntegrity,
	checkWisdomCoverage,
}

// Run executes the full pipeline and aggregates the results. When the store
// has never been bootstrapped, or becomes unavailable mid-run, no partial
// verdict is invented: the result is StatusUnchecked.
func Run(ctx context.Context, in Input) (*Verdict, error) {
	in = in.withDefaults()

	boot, err := in.Store.Bootstrapped(ctx)
	if err != nil || !boot {
		return &Verdict{
			Status:      StatusUnchecked,
			Summary:     "knowledge store has never been bootstrapped; index the workspace first",
			GeneratedAt: time.Now().UTC(),
		}, nil
	}

	results := make([]CheckResult, len(pipelineChecks))
	g, gctx := errgroup.WithContext(ctx)
	for i, fn := range pipelineChecks {
		g.Go(func() error {
			res, err := fn(gctx, in)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Storage failed under a running check; the verdict cannot be
		// trusted either way.
		return &Verdict{
			Status:      StatusUnchecked,
			Summary:     fmt.Sprintf("checks aborted: %v", err),
			GeneratedAt: time.Now().UTC(),
		}, nil
	}

	return &Verdict{
		Status:      aggregate(results),
		Checks:      results,
		Summary:     summarize(results),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// aggregate folds check statuses: any fail wins, else any warn, else pass.
func aggregate(results []CheckResult) Status {
	status := StatusPass
	for _, r := range results {
		switch r.Status {
		case StatusFail:
			return StatusFail
		case StatusWarn:
			status = StatusWarn
		}
	}
	return status
}

// summarize renders the one-line counts string.
func summarize(results []CheckResult) string {
	var passed, warned, failed int
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			passed++
		case StatusWarn:
			warned++
		case StatusFail:
			failed++
		}
	}
	return fmt.Sprintf("%d checks: %d passed, %d warned, %d failed", len(results), passed, warned, failed)
}

// ExitCode maps a verdict to the process exit code: 1 for fail, 2 for
// unchecked, 0 otherwise.
func ExitCode(v *Verdict) int {
	switch v.Status {
	case StatusFail:
		return 1
	case StatusUnchecked:
		return 2
	default:
		return 0
	}
}
