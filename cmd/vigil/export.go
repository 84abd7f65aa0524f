package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/vigil-dev/vigil/internal/export"
)

// runExport writes the knowledge graph as a JSON snapshot or a Mermaid
// imports diagram.
func runExport(args []string) (int, error) {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	workspace := fs.String("workspace", ".", "workspace root")
	format := fs.String("format", "json", "output format: json or mermaid")
	output := fs.String("o", "", "write to file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return 2, err
	}

	e, err := newEngine(*workspace, true)
	if err != nil {
		return 1, err
	}
	defer e.close()

	ctx := context.Background()
	var out []byte
	switch *format {
	case "json":
		out, err = export.RenderJSON(ctx, e.store)
	case "mermaid":
		var diagram string
		diagram, err = export.GenerateMermaid(ctx, e.store)
		out = []byte(diagram)
	default:
		return 2, fmt.Errorf("export: unknown format %q", *format)
	}
	if err != nil {
		return 1, err
	}

	if *output != "" {
		if err := os.WriteFile(*output, out, 0o644); err != nil {
			return 1, fmt.Errorf("export: write %s: %w", *output, err)
		}
		return 0, nil
	}
	os.Stdout.Write(out)
	return 0, nil
}
