package export

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigil-dev/vigil/internal/knowledge"
)

func seededStore(t *testing.T) *knowledge.MemStore {
	t.Helper()
	ctx := context.Background()
	store := knowledge.NewMemStore()

	require.NoError(t, store.PutFile(ctx, knowledge.FileRecord{
		ID: "file:src/a.ts", Path: "src/a.ts", Language: "typescript", LastIndexed: time.Now(),
	}))
	require.NoError(t, store.PutFile(ctx, knowledge.FileRecord{
		ID: "file:src/b.ts", Path: "src/b.ts", Language: "typescript", LastIndexed: time.Now(),
	}))
	require.NoError(t, store.PutFile(ctx, knowledge.FileRecord{
		ID: "file:index.ts", Path: "index.ts", Language: "typescript", LastIndexed: time.Now(),
	}))
	require.NoError(t, store.PutFunction(ctx, knowledge.FunctionRecord{
		ID: "fn:handle", Name: "handle", FilePath: "src/a.ts", StartLine: 10, EndLine: 20,
		Signature: "function handle(req: Request)",
	}))
	require.NoError(t, store.PutFunction(ctx, knowledge.FunctionRecord{
		ID: "fn:init", Name: "init", FilePath: "src/a.ts", StartLine: 1, EndLine: 5,
	}))
	require.NoError(t, store.PutEdge(ctx, knowledge.GraphEdge{
		FromID: "file:src/a.ts", ToID: "file:src/b.ts",
		Kind: knowledge.EdgeKindImports, SourceFile: "src/a.ts",
	}))
	require.NoError(t, store.PutEdge(ctx, knowledge.GraphEdge{
		FromID: "file:src/a.ts", ToID: "fn:handle",
		Kind: knowledge.EdgeKindDefines, SourceFile: "src/a.ts",
	}))
	return store
}

func TestBuildSnapshot(t *testing.T) {
	snap, err := BuildSnapshot(context.Background(), seededStore(t))
	require.NoError(t, err)

	assert.NotEmpty(t, snap.GeneratedAt)
	assert.Equal(t, 3, snap.Stats.FileCount)
	require.Len(t, snap.Files, 3)
	assert.Equal(t, "index.ts", snap.Files[0].Path, "files sort by path")

	var aFile *FileExport
	for i := range snap.Files {
		if snap.Files[i].Path == "src/a.ts" {
			aFile = &snap.Files[i]
		}
	}
	require.NotNil(t, aFile)
	require.Len(t, aFile.Functions, 2)
	assert.Equal(t, "init", aFile.Functions[0].Name, "functions sort by start line")
	assert.Equal(t, "handle", aFile.Functions[1].Name)

	require.Len(t, snap.Edges, 2)
	assert.Equal(t, EdgeExport{From: "src/a.ts", To: "src/b.ts", Kind: "imports"}, snap.Edges[0])
	assert.Equal(t, "fn:handle", snap.Edges[1].To, "non-file endpoints keep their raw id")
}

func TestRenderJSON(t *testing.T) {
	out, err := RenderJSON(context.Background(), seededStore(t))
	require.NoError(t, err)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Len(t, decoded.Files, 3)
	assert.Equal(t, 2, decoded.Stats.EdgeCount)
}

func TestGenerateMermaid(t *testing.T) {
	out, err := GenerateMermaid(context.Background(), seededStore(t))
	require.NoError(t, err)

	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, `subgraph N1["src"]`)
	assert.Contains(t, out, `["a.ts"]`)
	assert.Contains(t, out, `["index.ts"]`, "root files sit outside any subgraph")

	// Exactly one arrow: the imports edge. The defines edge touches a
	// function and stays off the diagram.
	assert.Equal(t, 1, strings.Count(out, "-->"))
}

func TestGenerateMermaid_EmptyStore(t *testing.T) {
	out, err := GenerateMermaid(context.Background(), knowledge.NewMemStore())
	require.NoError(t, err)
	assert.Equal(t, "graph TD\n", out)
}
