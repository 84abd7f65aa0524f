// Package check implements the consistency verdict pipeline: six
// independent, read-only checks over the persisted knowledge graph that
// find files, imports, and claims invalidated by a changeset.
package check

import (
	"time"

	"github.com/vigil-dev/vigil/internal/changeset"
	"github.com/vigil-dev/vigil/internal/knowledge"
)

// Status is the outcome of one check or of the whole pipeline.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
	// StatusUnchecked is returned instead of running any check when the
	// knowledge store has never been bootstrapped.
	StatusUnchecked Status = "unchecked"
)

// Check names, in pipeline order.
const (
	NameStaleContext       = "stale_context"
	NameBrokenImports      = "broken_imports"
	NameOrphanedClaims     = "orphaned_claims"
	NameCoverageRegression = "coverage_regression"
	NameCallGraphIntegrity = "call_graph_integrity"
	NameWisdomCoverage     = "wisdom_coverage"
)

// CheckResult is the outcome of one consistency check. Results are pure
// functions of (changeset, storage state) and are never persisted.
type CheckResult struct {
	Name          string   `json:"name"`
	Status        Status   `json:"status"`
	Message       string   `json:"message"`
	AffectedFiles []string `json:"affectedFiles,omitempty"`
	// Fix is a human-readable repair hint, carried by every non-pass
	// result so the report is self-diagnosing.
	Fix string `json:"fix,omitempty"`
}

// Verdict aggregates all check results.
type Verdict struct {
	Status      Status        `json:"status"`
	Checks      []CheckResult `json:"checks"`
	Summary     string        `json:"summary"`
	GeneratedAt time.Time     `json:"generatedAt"`
}

// Default policy knobs for wisdom coverage.
const (
	DefaultMinWisdomCoverage = 0.5
	DefaultMinCorpusSize     = 5
)

// Input carries everything the checks read. Checks never mutate any of it.
type Input struct {
	Store knowledge.Store
	// Changes may be nil (no version control, or provider failure); the
	// changed-file-scoped checks then trivially pass.
	Changes *changeset.Changeset
	// WorkspaceRoot is the absolute root used to stat changed files.
	WorkspaceRoot string
	// MinWisdomCoverage is the minimum enriched fraction of the function
	// corpus; below it wisdom_coverage fails.
	MinWisdomCoverage float64
	// MinCorpusSize is the function count under which wisdom_coverage is
	// skipped rather than judged.
	MinCorpusSize int
}

// withDefaults fills unset policy knobs.
func (in Input) withDefaults() Input {
	if in.MinWisdomCoverage <= 0 {
		in.MinWisdomCoverage = DefaultMinWisdomCoverage
	}
	if in.MinCorpusSize <= 0 {
		in.MinCorpusSize = DefaultMinCorpusSize
	}
	return in
}
