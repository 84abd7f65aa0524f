package main

import (
	"fmt"
	"path/filepath"

	"github.com/vigil-dev/vigil/internal/backend"
	"github.com/vigil-dev/vigil/internal/changeset"
	"github.com/vigil-dev/vigil/internal/check"
	"github.com/vigil-dev/vigil/internal/config"
	"github.com/vigil-dev/vigil/internal/knowledge"
	"github.com/vigil-dev/vigil/internal/mcptools"
	"github.com/vigil-dev/vigil/internal/parser"
	"github.com/vigil-dev/vigil/internal/scip"
)

// engine bundles the wired components for one workspace.
type engine struct {
	workspace   string
	cfg         *config.Config
	store       knowledge.Store
	coordinator *scip.Coordinator
	resolver    *backend.Resolver
	changes     *changeset.GitProvider
}

// newEngine loads config and wires every component. openStore controls
// whether the persistent knowledge store is required; resolve/refresh paths
// work without it.
func newEngine(workspaceFlag string, openStore bool) (*engine, error) {
	ws, err := filepath.Abs(workspaceFlag)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace: %w", err)
	}

	cfg, err := config.Load(ws)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	coordinator := scip.NewCoordinator(scip.Config{
		WorkspaceRoot:   ws,
		ArtifactPath:    filepath.Join(ws, cfg.ArtifactPath),
		LocalIndexer:    cfg.LocalIndexer,
		IndexerArgs:     cfg.IndexerArgs,
		FallbackIndexer: cfg.FallbackIndexer,
		SCIPBin:         cfg.SCIPBin,
		TTL:             cfg.CacheTTL.Std(),
		Timeout:         cfg.IndexerTimeout.Std(),
	})

	resolver := backend.NewResolver(backend.ResolverConfig{
		Enabled:       cfg.Enabled(),
		Extensions:    cfg.ExtensionSet(),
		WorkspaceRoot: ws,
	}, coordinator, parser.NewTreeSitterParser())

	e := &engine{
		workspace:   ws,
		cfg:         cfg,
		coordinator: coordinator,
		resolver:    resolver,
		changes:     changeset.NewGitProvider(ws, cfg.ExcludeGlobs),
	}

	if openStore {
		store, err := knowledge.Open(filepath.Join(ws, cfg.DatabasePath))
		if err != nil {
			return nil, fmt.Errorf("open knowledge store: %w", err)
		}
		e.store = store
	}
	return e, nil
}

// close releases the store if one was opened.
func (e *engine) close() {
	if e.store != nil {
		e.store.Close()
	}
}

// checkInput builds the pipeline input minus the changeset.
func (e *engine) checkInput() check.Input {
	return check.Input{
		Store:             e.store,
		WorkspaceRoot:     e.workspace,
		MinWisdomCoverage: e.cfg.MinWisdomCoverage,
		MinCorpusSize:     e.cfg.MinCorpusSize,
	}
}

// service wraps the engine for MCP serving.
func (e *engine) service() *mcptools.FreshnessService {
	return mcptools.NewFreshnessService(e.store, e.resolver, e.coordinator, e.changes, e.checkInput())
}
