package check

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/vigil-dev/vigil/internal/knowledge"
)

// checkStaleContext fails when any changed file is unindexed or its on-disk
// mtime is newer than the recorded index time.
func checkStaleContext(ctx context.Context, in Input) (CheckResult, error) {
	changed := in.Changes.ChangedExisting()
	if len(changed) == 0 {
		return pass(NameStaleContext, "no changed files"), nil
	}

	var stale []string
	for _, f := range changed {
		rec, err := in.Store.GetFileByPath(ctx, f)
		if err != nil {
			return CheckResult{}, err
		}
		if rec == nil {
			stale = append(stale, f)
			continue
		}
		info, err := os.Stat(filepath.Join(in.WorkspaceRoot, filepath.FromSlash(f)))
		if err != nil || info.ModTime().After(rec.LastIndexed) {
			stale = append(stale, f)
		}
	}
	if len(stale) == 0 {
		return pass(NameStaleContext, fmt.Sprintf("index is current for all %d changed file(s)", len(changed))), nil
	}
	return CheckResult{
		Name:          NameStaleContext,
		Status:        StatusFail,
		Message:       fmt.Sprintf("%d of %d changed file(s) have stale or missing index entries", len(stale), len(changed)),
		AffectedFiles: stale,
		Fix:           "reindex changed files",
	}, nil
}

// checkBrokenImports fails when any imports-edge targets a deleted file's id.
// The edge's source file is the impacted one.
func checkBrokenImports(ctx context.Context, in Input) (CheckResult, error) {
	gone := in.Changes.Gone()
	if len(gone) == 0 {
		return pass(NameBrokenImports, "no deleted files"), nil
	}

	goneSet := toSet(gone)
	impacted := make(map[string]bool)
	broken := 0
	for _, f := range gone {
		rec, err := in.Store.GetFileByPath(ctx, f)
		if err != nil {
			return CheckResult{}, err
		}
		if rec == nil {
			continue
		}
		edges, err := in.Store.GetGraphEdges(ctx, knowledge.EdgeFilter{
			ToIDs: []string{rec.ID},
			Kinds: []knowledge.EdgeKind{knowledge.EdgeKindImports},
		})
		if err != nil {
			return CheckResult{}, err
		}
		for _, e := range edges {
			broken++
			if e.SourceFile != "" && !goneSet[e.SourceFile] {
				impacted[e.SourceFile] = true
			}
		}
	}
	if broken == 0 {
		return pass(NameBrokenImports, fmt.Sprintf("no imports target the %d deleted file(s)", len(gone))), nil
	}
	return CheckResult{
		Name:          NameBrokenImports,
		Status:        StatusFail,
		Message:       fmt.Sprintf("%d import edge(s) target deleted files", broken),
		AffectedFiles: sorted(impacted),
		Fix:           "reindex the impacted files to drop dangling imports",
	}, nil
}

// checkOrphanedClaims warns when an entity's supporting evidence file is
// itself in the changed set. Co-change reduces confidence in the claim; it
// does not prove the claim wrong, so this never fails.
func checkOrphanedClaims(ctx context.Context, in Input) (CheckResult, error) {
	changed := in.Changes.ChangedExisting()
	if len(changed) == 0 {
		return pass(NameOrphanedClaims, "no changed files"), nil
	}

	changedSet := toSet(changed)
	suspect := make(map[string]bool)
	claims := 0
	for _, f := range changed {
		targets, err := entitiesOfFile(ctx, in.Store, f)
		if err != nil {
			return CheckResult{}, err
		}
		for _, t := range targets {
			evidence, err := in.Store.GetEvidenceForTarget(ctx, t.id, t.typ)
			if err != nil {
				return CheckResult{}, err
			}
			for _, ev := range evidence {
				if changedSet[ev.FilePath] {
					claims++
					suspect[ev.FilePath] = true
				}
			}
		}
	}
	if claims == 0 {
		return pass(NameOrphanedClaims, "no claims rest on co-changed evidence"), nil
	}
	return CheckResult{
		Name:          NameOrphanedClaims,
		Status:        StatusWarn,
		Message:       fmt.Sprintf("%d claim(s) rest on evidence files that also changed", claims),
		AffectedFiles: sorted(suspect),
		Fix:           "re-verify evidence for entities in changed files",
	}, nil
}

// checkCoverageRegression fails when a changed file has zero context packs
// referencing it, invalidated ones included.
func checkCoverageRegression(ctx context.Context, in Input) (CheckResult, error) {
	changed := in.Changes.ChangedExisting()
	if len(changed) == 0 {
		return pass(NameCoverageRegression, "no changed files"), nil
	}

	var uncovered []string
	for _, f := range changed {
		packs, err := in.Store.GetContextPacks(ctx, knowledge.PackFilter{
			RelatedFile:        f,
			IncludeInvalidated: true,
			Limit:              1,
		})
		if err != nil {
			return CheckResult{}, err
		}
		if len(packs) == 0 {
			uncovered = append(uncovered, f)
		}
	}
	coverage := float64(len(changed)-len(uncovered)) / float64(len(changed)) * 100
	if len(uncovered) == 0 {
		return pass(NameCoverageRegression, fmt.Sprintf("context pack coverage %.0f%% for changed files", coverage)), nil
	}
	return CheckResult{
		Name:          NameCoverageRegression,
		Status:        StatusFail,
		Message:       fmt.Sprintf("context pack coverage %.0f%%: %d changed file(s) have no context packs", coverage, len(uncovered)),
		AffectedFiles: uncovered,
		Fix:           "generate context packs for uncovered files",
	}, nil
}

// checkCallGraphIntegrity warns when calls-edges link changed functions to
// callers or callees outside the changed set. Strictly one hop, and
// informational only.
func checkCallGraphIntegrity(ctx context.Context, in Input) (CheckResult, error) {
	changed := in.Changes.ChangedExisting()
	if len(changed) == 0 {
		return pass(NameCallGraphIntegrity, "no changed files"), nil
	}

	changedFiles := toSet(changed)
	changedFns := make(map[string]bool)
	var fnIDs []string
	for _, f := range changed {
		fns, err := in.Store.GetFunctionsByPath(ctx, f)
		if err != nil {
			return CheckResult{}, err
		}
		for _, fn := range fns {
			changedFns[fn.ID] = true
			fnIDs = append(fnIDs, fn.ID)
		}
	}
	if len(fnIDs) == 0 {
		return pass(NameCallGraphIntegrity, "no indexed functions in changed files"), nil
	}

	impacted := make(map[string]bool)
	links := 0
	for _, id := range fnIDs {
		others, err := propagateOneHop(ctx, in.Store, id, knowledge.EdgeKindCalls, changedFns)
		if err != nil {
			return CheckResult{}, err
		}
		for _, other := range others {
			links++
			fn, err := in.Store.GetFunction(ctx, other)
			if err != nil {
				return CheckResult{}, err
			}
			if fn != nil && !changedFiles[fn.FilePath] {
				impacted[fn.FilePath] = true
			}
		}
	}
	if links == 0 {
		return pass(NameCallGraphIntegrity, "no call edges leave the changed set"), nil
	}
	return CheckResult{
		Name:          NameCallGraphIntegrity,
		Status:        StatusWarn,
		Message:       fmt.Sprintf("%d call edge(s) link changed functions to %d file(s) outside the changed set", links, len(impacted)),
		AffectedFiles: sorted(impacted),
		Fix:           "review callers and callees one hop from changed functions",
	}, nil
}

// wisdomPayload is the expected enrichment payload shape.
type wisdomPayload struct {
	Pitfalls []string `json:"pitfalls"`
	Tips     []string `json:"tips"`
}

// checkWisdomCoverage fails when the enriched fraction of the function
// corpus is below the configured minimum. Small corpora are skipped.
// Malformed payloads count separately from missing ones.
func checkWisdomCoverage(ctx context.Context, in Input) (CheckResult, error) {
	stats, err := in.Store.Stats(ctx)
	if err != nil {
		return CheckResult{}, err
	}
	if stats.FunctionCount < in.MinCorpusSize {
		return pass(NameWisdomCoverage,
			fmt.Sprintf("corpus of %d function(s) below minimum %d; skipped", stats.FunctionCount, in.MinCorpusSize)), nil
	}

	records, err := in.Store.GetUniversalKnowledgeByKind(ctx, knowledge.KindFunctionWisdom)
	if err != nil {
		return CheckResult{}, err
	}
	enriched, parseErrors := 0, 0
	for _, rec := range records {
		var w wisdomPayload
		if err := json.Unmarshal([]byte(rec.Payload), &w); err != nil {
			parseErrors++
			continue
		}
		if len(w.Pitfalls) > 0 || len(w.Tips) > 0 {
			enriched++
		}
	}

	coverage := float64(enriched) / float64(stats.FunctionCount)
	detail := fmt.Sprintf("wisdom coverage %.0f%% (%d of %d functions enriched",
		coverage*100, enriched, stats.FunctionCount)
	if parseErrors > 0 {
		detail += fmt.Sprintf(", %d payload(s) unparseable", parseErrors)
	}
	detail += ")"

	if coverage < in.MinWisdomCoverage {
		return CheckResult{
			Name:    NameWisdomCoverage,
			Status:  StatusFail,
			Message: fmt.Sprintf("%s below minimum %.0f%%", detail, in.MinWisdomCoverage*100),
			Fix:     "run enrichment for functions without practical notes",
		}, nil
	}
	return pass(NameWisdomCoverage, detail), nil
}

// --- helpers ---

type entityRef struct {
	id  string
	typ knowledge.EntityType
}

// entitiesOfFile collects the file, function, and module entities indexed
// for one path.
func entitiesOfFile(ctx context.Context, store knowledge.Store, path string) ([]entityRef, error) {
	var out []entityRef
	file, err := store.GetFileByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if file != nil {
		out = append(out, entityRef{id: file.ID, typ: knowledge.EntityFile})
	}
	fns, err := store.GetFunctionsByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	for _, fn := range fns {
		out = append(out, entityRef{id: fn.ID, typ: knowledge.EntityFunction})
	}
	mod, err := store.GetModuleByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if mod != nil {
		out = append(out, entityRef{id: mod.ID, typ: knowledge.EntityModule})
	}
	return out, nil
}

// propagateOneHop fetches edges of one kind touching the entity on either
// side and returns the other endpoints that are not themselves in the
// changed set. It deliberately does not walk further: impact is one hop.
func propagateOneHop(ctx context.Context, store knowledge.Store, id string, kind knowledge.EdgeKind, changed map[string]bool) ([]string, error) {
	edges, err := store.GetGraphEdges(ctx, knowledge.EdgeFilter{
		FromIDs: []string{id},
		ToIDs:   []string{id},
		Kinds:   []knowledge.EdgeKind{kind},
	})
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range edges {
		other := e.ToID
		if other == id {
			other = e.FromID
		}
		if other == id || changed[other] {
			continue
		}
		out = append(out, other)
	}
	sort.Strings(out)
	return out, nil
}

func pass(name, message string) CheckResult {
	return CheckResult{Name: name, Status: StatusPass, Message: message}
}

func toSet(ss []string) map[string]bool {
	set := make(map[string]bool, len(ss))
	for _, s := range ss {
		set[s] = true
	}
	return set
}

func sorted(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
