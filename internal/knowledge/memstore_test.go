package knowledge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore_Bootstrapped(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	boot, err := store.Bootstrapped(ctx)
	require.NoError(t, err)
	assert.False(t, boot, "a store with no files has never been indexed")

	require.NoError(t, store.PutFile(ctx, FileRecord{ID: "f1", Path: "src/a.ts"}))
	boot, err = store.Bootstrapped(ctx)
	require.NoError(t, err)
	assert.True(t, boot)
}

func TestMemStore_FileUpsertByPath(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	first := time.Now().Add(-time.Hour)

	require.NoError(t, store.PutFile(ctx, FileRecord{ID: "f1", Path: "src/a.ts", LastIndexed: first}))
	require.NoError(t, store.PutFile(ctx, FileRecord{ID: "f1", Path: "src/a.ts", LastIndexed: time.Now()}))

	rec, err := store.GetFileByPath(ctx, "src/a.ts")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.LastIndexed.After(first), "a second put replaces the record")

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FileCount)
}

func TestMemStore_MissesAreNilNotError(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	rec, err := store.GetFileByPath(ctx, "src/none.ts")
	require.NoError(t, err)
	assert.Nil(t, rec)

	fn, err := store.GetFunction(ctx, "fn:none")
	require.NoError(t, err)
	assert.Nil(t, fn)

	mod, err := store.GetModuleByPath(ctx, "src")
	require.NoError(t, err)
	assert.Nil(t, mod)
}

func TestMemStore_FunctionsByPath(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	require.NoError(t, store.PutFunction(ctx, FunctionRecord{ID: "fn:a", Name: "a", FilePath: "src/a.ts"}))
	require.NoError(t, store.PutFunction(ctx, FunctionRecord{ID: "fn:b", Name: "b", FilePath: "src/a.ts"}))
	require.NoError(t, store.PutFunction(ctx, FunctionRecord{ID: "fn:c", Name: "c", FilePath: "src/c.ts"}))

	fns, err := store.GetFunctionsByPath(ctx, "src/a.ts")
	require.NoError(t, err)
	assert.Len(t, fns, 2)
}

// ---------------------------------------------------------------------------
// Edge filtering
// ---------------------------------------------------------------------------

func seedEdges(t *testing.T, store *MemStore) {
	t.Helper()
	ctx := context.Background()
	edges := []GraphEdge{
		{FromID: "fn:a", ToID: "fn:b", Kind: EdgeKindCalls},
		{FromID: "fn:b", ToID: "fn:c", Kind: EdgeKindCalls},
		{FromID: "file:a", ToID: "file:b", Kind: EdgeKindImports},
		{FromID: "file:a", ToID: "fn:a", Kind: EdgeKindDefines},
	}
	for _, e := range edges {
		require.NoError(t, store.PutEdge(ctx, e))
	}
}

func TestEdgeFilter_EitherEndpointMatches(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	seedEdges(t, store)

	// fn:b on either side: both calls edges match.
	edges, err := store.GetGraphEdges(ctx, EdgeFilter{
		FromIDs: []string{"fn:b"},
		ToIDs:   []string{"fn:b"},
		Kinds:   []EdgeKind{EdgeKindCalls},
	})
	require.NoError(t, err)
	assert.Len(t, edges, 2)
}

func TestEdgeFilter_KindConstrains(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	seedEdges(t, store)

	edges, err := store.GetGraphEdges(ctx, EdgeFilter{
		FromIDs: []string{"file:a"},
		Kinds:   []EdgeKind{EdgeKindImports},
	})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "file:b", edges[0].ToID)
}

func TestEdgeFilter_EmptyMatchesAll(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	seedEdges(t, store)

	edges, err := store.GetGraphEdges(ctx, EdgeFilter{})
	require.NoError(t, err)
	assert.Len(t, edges, 4)
}

func TestEdgeFilter_OnlyToIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	seedEdges(t, store)

	edges, err := store.GetGraphEdges(ctx, EdgeFilter{
		ToIDs: []string{"file:b"},
		Kinds: []EdgeKind{EdgeKindImports},
	})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "file:a", edges[0].FromID)
}

// ---------------------------------------------------------------------------
// Evidence, packs, knowledge
// ---------------------------------------------------------------------------

func TestMemStore_EvidenceByTarget(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	require.NoError(t, store.PutEvidence(ctx, EvidenceEntry{TargetID: "fn:a", TargetType: EntityFunction, FilePath: "src/b.ts"}))
	require.NoError(t, store.PutEvidence(ctx, EvidenceEntry{TargetID: "fn:a", TargetType: EntityFile, FilePath: "src/c.ts"}))

	evidence, err := store.GetEvidenceForTarget(ctx, "fn:a", EntityFunction)
	require.NoError(t, err)
	require.Len(t, evidence, 1, "target type disambiguates colliding ids")
	assert.Equal(t, "src/b.ts", evidence[0].FilePath)
}

func TestMemStore_PackFilter(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	require.NoError(t, store.PutContextPack(ctx, ContextPack{ID: "p1", RelatedFiles: []string{"src/a.ts", "src/b.ts"}}))
	require.NoError(t, store.PutContextPack(ctx, ContextPack{ID: "p2", RelatedFiles: []string{"src/a.ts"}, Invalidated: true}))
	require.NoError(t, store.PutContextPack(ctx, ContextPack{ID: "p3", RelatedFiles: []string{"src/c.ts"}}))

	packs, err := store.GetContextPacks(ctx, PackFilter{RelatedFile: "src/a.ts"})
	require.NoError(t, err)
	assert.Len(t, packs, 1, "invalidated packs are hidden by default")

	packs, err = store.GetContextPacks(ctx, PackFilter{RelatedFile: "src/a.ts", IncludeInvalidated: true})
	require.NoError(t, err)
	assert.Len(t, packs, 2)

	packs, err = store.GetContextPacks(ctx, PackFilter{RelatedFile: "src/a.ts", IncludeInvalidated: true, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, packs, 1)

	packs, err = store.GetContextPacks(ctx, PackFilter{IncludeInvalidated: true})
	require.NoError(t, err)
	assert.Len(t, packs, 3, "empty RelatedFile matches all packs")
}

func TestMemStore_KnowledgeByKind(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	require.NoError(t, store.PutUniversalKnowledge(ctx, UniversalKnowledge{ID: "k1", Kind: KindFunctionWisdom, Payload: "{}"}))
	require.NoError(t, store.PutUniversalKnowledge(ctx, UniversalKnowledge{ID: "k2", Kind: "other", Payload: "{}"}))

	records, err := store.GetUniversalKnowledgeByKind(ctx, KindFunctionWisdom)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "k1", records[0].ID)
}

func TestMemStore_Stats(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	require.NoError(t, store.PutFile(ctx, FileRecord{ID: "f1", Path: "src/a.ts"}))
	require.NoError(t, store.PutFunction(ctx, FunctionRecord{ID: "fn:a", FilePath: "src/a.ts"}))
	require.NoError(t, store.PutModule(ctx, ModuleRecord{ID: "m1", Path: "src"}))
	require.NoError(t, store.PutEdge(ctx, GraphEdge{FromID: "f1", ToID: "fn:a", Kind: EdgeKindDefines}))
	require.NoError(t, store.PutContextPack(ctx, ContextPack{ID: "p1"}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Stats{FileCount: 1, FunctionCount: 1, ModuleCount: 1, EdgeCount: 1, PackCount: 1}, stats)
}
