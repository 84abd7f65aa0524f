package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/vigil-dev/vigil/internal/mcptools"
)

// runServeMCP exposes the engine as MCP tools over streamable HTTP.
func runServeMCP(args []string) (int, error) {
	fs := flag.NewFlagSet("serve-mcp", flag.ContinueOnError)
	workspace := fs.String("workspace", ".", "workspace root")
	addr := fs.String("addr", "127.0.0.1:7466", "listen address")
	if err := fs.Parse(args); err != nil {
		return 2, err
	}

	e, err := newEngine(*workspace, true)
	if err != nil {
		return 1, err
	}
	defer e.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("vigil MCP server listening on %s\n", *addr)
	if err := mcptools.RunMCPServer(ctx, e.service(), *addr); err != nil {
		return 1, err
	}
	return 0, nil
}
