package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
)

// runResolve prints the parse result for one file as JSON.
func runResolve(args []string) (int, error) {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	workspace := fs.String("workspace", ".", "workspace root")
	if err := fs.Parse(args); err != nil {
		return 2, err
	}
	if fs.NArg() != 1 {
		return 2, fmt.Errorf("resolve: expected exactly one file argument")
	}

	e, err := newEngine(*workspace, false)
	if err != nil {
		return 1, err
	}
	defer e.close()

	result, err := e.resolver.Resolve(context.Background(), fs.Arg(0), nil)
	if err != nil {
		return 1, err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return 1, err
	}
	os.Stdout.Write(append(out, '\n'))
	return 0, nil
}

// runRefresh forces an index cache refresh.
func runRefresh(args []string) (int, error) {
	fs := flag.NewFlagSet("refresh", flag.ContinueOnError)
	workspace := fs.String("workspace", ".", "workspace root")
	if err := fs.Parse(args); err != nil {
		return 2, err
	}

	e, err := newEngine(*workspace, false)
	if err != nil {
		return 1, err
	}
	defer e.close()

	e.coordinator.ForceRefresh(context.Background())
	fmt.Printf("index cache: %d file(s), refreshed at %s\n",
		e.coordinator.CachedFiles(), e.coordinator.CachedAt().Format("15:04:05"))
	return 0, nil
}

// runStats prints knowledge store and cache counts.
func runStats(args []string) (int, error) {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	workspace := fs.String("workspace", ".", "workspace root")
	if err := fs.Parse(args); err != nil {
		return 2, err
	}

	e, err := newEngine(*workspace, true)
	if err != nil {
		return 1, err
	}
	defer e.close()

	stats, err := e.store.Stats(context.Background())
	if err != nil {
		return 1, err
	}
	fmt.Printf("files: %d\nfunctions: %d\nmodules: %d\nedges: %d\ncontext packs: %d\n",
		stats.FileCount, stats.FunctionCount, stats.ModuleCount, stats.EdgeCount, stats.PackCount)
	fmt.Printf("index cache: %d file(s)\n", e.coordinator.CachedFiles())
	return 0, nil
}
