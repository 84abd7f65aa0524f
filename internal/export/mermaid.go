package export

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/vigil-dev/vigil/internal/knowledge"
)

// GenerateMermaid produces a Mermaid graph TD diagram of the import graph.
// Files are grouped by directory; imports edges become arrows.
func GenerateMermaid(ctx context.Context, store knowledge.Store) (string, error) {
	files, err := store.ListFiles(ctx)
	if err != nil {
		return "", fmt.Errorf("export: list files: %w", err)
	}
	edges, err := store.GetGraphEdges(ctx, knowledge.EdgeFilter{
		Kinds: []knowledge.EdgeKind{knowledge.EdgeKindImports},
	})
	if err != nil {
		return "", fmt.Errorf("export: edges: %w", err)
	}

	// Build node → ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(p string) string {
		if id, ok := nodeIDs[p]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[p] = id
		return id
	}

	idToPath := make(map[string]string, len(files))
	byDir := make(map[string][]string)
	for _, f := range files {
		idToPath[f.ID] = f.Path
		dir := path.Dir(f.Path)
		byDir[dir] = append(byDir[dir], f.Path)
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	dirs := make([]string, 0, len(byDir))
	for d := range byDir {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	for _, dir := range dirs {
		members := byDir[dir]
		sort.Strings(members)
		if dir == "." {
			for _, m := range members {
				sb.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", getID(m), path.Base(m)))
			}
			continue
		}
		sb.WriteString(fmt.Sprintf("  subgraph %s[\"%.40s\"]\n", getID(dir+"/"), dir))
		for _, m := range members {
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", getID(m), path.Base(m)))
		}
		sb.WriteString("  end\n")
	}

	for _, e := range edges {
		from, okFrom := idToPath[e.FromID]
		to, okTo := idToPath[e.ToID]
		if !okFrom || !okTo {
			// Edges touching non-file entities do not belong on a
			// file-level diagram.
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s --> %s\n", getID(from), getID(to)))
	}

	return sb.String(), nil
}
