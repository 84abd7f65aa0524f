// Package export renders the knowledge graph in shareable formats: a JSON
// snapshot of indexed entities and a Mermaid diagram of the import graph.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/vigil-dev/vigil/internal/knowledge"
)

// Snapshot is the top-level JSON export structure.
type Snapshot struct {
	GeneratedAt string           `json:"generatedAt"`
	Stats       *knowledge.Stats `json:"stats"`
	Files       []FileExport     `json:"files,omitempty"`
	Edges       []EdgeExport     `json:"edges,omitempty"`
}

// FileExport describes one indexed file and its functions.
type FileExport struct {
	Path        string           `json:"path"`
	Language    string           `json:"language,omitempty"`
	LastIndexed time.Time        `json:"lastIndexed"`
	Functions   []FunctionExport `json:"functions,omitempty"`
}

// FunctionExport describes one indexed function.
type FunctionExport struct {
	Name      string `json:"name"`
	Signature string `json:"signature,omitempty"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
}

// EdgeExport describes one graph edge with endpoint IDs resolved to file
// paths where possible.
type EdgeExport struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
}

// BuildSnapshot reads the whole store into an export structure.
func BuildSnapshot(ctx context.Context, store knowledge.Store) (*Snapshot, error) {
	stats, err := store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: stats: %w", err)
	}
	files, err := store.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: list files: %w", err)
	}
	edges, err := store.GetGraphEdges(ctx, knowledge.EdgeFilter{})
	if err != nil {
		return nil, fmt.Errorf("export: edges: %w", err)
	}

	snap := &Snapshot{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Stats:       stats,
	}

	idToPath := make(map[string]string, len(files))
	for _, f := range files {
		idToPath[f.ID] = f.Path
	}
	for _, f := range files {
		fe := FileExport{Path: f.Path, Language: f.Language, LastIndexed: f.LastIndexed}
		fns, err := store.GetFunctionsByPath(ctx, f.Path)
		if err != nil {
			return nil, fmt.Errorf("export: functions for %s: %w", f.Path, err)
		}
		sort.Slice(fns, func(i, j int) bool { return fns[i].StartLine < fns[j].StartLine })
		for _, fn := range fns {
			fe.Functions = append(fe.Functions, FunctionExport{
				Name:      fn.Name,
				Signature: fn.Signature,
				StartLine: fn.StartLine,
				EndLine:   fn.EndLine,
			})
		}
		snap.Files = append(snap.Files, fe)
	}

	for _, e := range edges {
		snap.Edges = append(snap.Edges, EdgeExport{
			From: endpoint(e.FromID, idToPath),
			To:   endpoint(e.ToID, idToPath),
			Kind: string(e.Kind),
		})
	}
	return snap, nil
}

// RenderJSON builds and marshals the snapshot.
func RenderJSON(ctx context.Context, store knowledge.Store) ([]byte, error) {
	snap, err := BuildSnapshot(ctx, store)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: marshal: %w", err)
	}
	return append(out, '\n'), nil
}

// endpoint resolves a file entity ID to its path; other IDs pass through.
func endpoint(id string, idToPath map[string]string) string {
	if path, ok := idToPath[id]; ok {
		return path
	}
	return id
}
