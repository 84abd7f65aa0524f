package mcptools

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vigil-dev/vigil/internal/backend"
	"github.com/vigil-dev/vigil/internal/changeset"
	"github.com/vigil-dev/vigil/internal/check"
	"github.com/vigil-dev/vigil/internal/knowledge"
	"github.com/vigil-dev/vigil/internal/scip"
)

// FreshnessService holds the engine pieces the MCP tool handlers drive.
type FreshnessService struct {
	store       knowledge.Store
	resolver    *backend.Resolver
	coordinator *scip.Coordinator
	changes     *changeset.GitProvider
	checkInput  check.Input
}

// NewFreshnessService wires the engine into an MCP-callable service.
func NewFreshnessService(
	store knowledge.Store,
	resolver *backend.Resolver,
	coordinator *scip.Coordinator,
	changes *changeset.GitProvider,
	checkInput check.Input,
) *FreshnessService {
	return &FreshnessService{
		store:       store,
		resolver:    resolver,
		coordinator: coordinator,
		changes:     changes,
		checkInput:  checkInput,
	}
}

// --- MCP Tool Input/Output Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// RunChecksInput is the input for the run_checks MCP tool.
type RunChecksInput struct {
	Ref string `json:"ref,omitempty" jsonschema:"git ref or range to check (empty = working tree)"`
}

// RunChecksOutput is the result of the run_checks MCP tool.
type RunChecksOutput struct {
	Verdict *check.Verdict `json:"verdict"`
}

// ResolveFileInput is the input for the resolve_file MCP tool.
type ResolveFileInput struct {
	Path string `json:"path" jsonschema:"path of the source file to resolve"`
}

// ResolveFileOutput is the result of the resolve_file MCP tool.
type ResolveFileOutput struct {
	Result *backend.ParseResult `json:"result"`
}

// RefreshIndexInput is the input for the refresh_index MCP tool.
type RefreshIndexInput struct{}

// RefreshIndexOutput is the result of the refresh_index MCP tool.
type RefreshIndexOutput struct {
	CachedFiles int       `json:"cachedFiles"`
	CachedAt    time.Time `json:"cachedAt"`
}

// IndexStatsInput is the input for the index_stats MCP tool.
type IndexStatsInput struct{}

// IndexStatsOutput is the result of the index_stats MCP tool.
type IndexStatsOutput struct {
	Store       *knowledge.Stats `json:"store"`
	CachedFiles int              `json:"cachedFiles"`
	CachedAt    time.Time        `json:"cachedAt"`
}

// --- Handlers ---

// RunChecks resolves a changeset and runs the consistency verdict pipeline.
func (s *FreshnessService) RunChecks(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunChecksInput,
) (*mcp.CallToolResult, RunChecksOutput, error) {
	cs, err := s.changes.Resolve(ctx, input.Ref)
	if err != nil {
		// Provider failure degrades to an empty changeset rather than
		// failing the tool call.
		cs = nil
	}
	in := s.checkInput
	in.Changes = cs
	verdict, err := check.Run(ctx, in)
	if err != nil {
		return nil, RunChecksOutput{}, fmt.Errorf("run checks: %w", err)
	}
	return nil, RunChecksOutput{Verdict: verdict}, nil
}

// ResolveFile returns the parsed entities for one file, from the
// high-fidelity index when possible and the fallback parser otherwise.
func (s *FreshnessService) ResolveFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ResolveFileInput,
) (*mcp.CallToolResult, ResolveFileOutput, error) {
	if input.Path == "" {
		return nil, ResolveFileOutput{}, fmt.Errorf("path is required")
	}
	result, err := s.resolver.Resolve(ctx, input.Path, nil)
	if err != nil {
		return nil, ResolveFileOutput{}, fmt.Errorf("resolve %s: %w", input.Path, err)
	}
	return nil, ResolveFileOutput{Result: result}, nil
}

// RefreshIndex forces a cache refresh regardless of staleness policy.
func (s *FreshnessService) RefreshIndex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ RefreshIndexInput,
) (*mcp.CallToolResult, RefreshIndexOutput, error) {
	s.coordinator.ForceRefresh(ctx)
	return nil, RefreshIndexOutput{
		CachedFiles: s.coordinator.CachedFiles(),
		CachedAt:    s.coordinator.CachedAt(),
	}, nil
}

// IndexStats reports store and cache counts.
func (s *FreshnessService) IndexStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ IndexStatsInput,
) (*mcp.CallToolResult, IndexStatsOutput, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, IndexStatsOutput{}, fmt.Errorf("store stats: %w", err)
	}
	return nil, IndexStatsOutput{
		Store:       stats,
		CachedFiles: s.coordinator.CachedFiles(),
		CachedAt:    s.coordinator.CachedAt(),
	}, nil
}
