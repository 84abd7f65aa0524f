package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewFreshnessMCPServer creates an MCP server with the freshness and
// consistency tools registered.
func NewFreshnessMCPServer(svc *FreshnessService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "vigil-freshness",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_checks",
		Description: "Run the six consistency checks against the knowledge graph for a changeset. Returns a verdict with per-check pass/warn/fail results and fix hints.",
	}, svc.RunChecks)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_file",
		Description: "Resolve one source file into its function-like entities, exported names, and dependencies. Uses the high-fidelity index when fresh, falling back to the general-purpose parser.",
	}, svc.ResolveFile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "refresh_index",
		Description: "Force a refresh of the high-fidelity index cache: reruns the external indexer, decodes its artifact, and rebuilds the per-file cache.",
	}, svc.RefreshIndex)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "index_stats",
		Description: "Report knowledge store counts and index cache freshness.",
	}, svc.IndexStats)

	return server
}

// RunMCPServer starts an HTTP server exposing the freshness MCP tools.
func RunMCPServer(ctx context.Context, svc *FreshnessService, addr string) error {
	server := NewFreshnessMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
