package knowledge

import (
	"context"
	"io"
)

// Store is the interface for the persisted knowledge graph backend.
// Implementations: KuzuStore (production), MemStore (testing).
// The consistency engine only calls the read side; the write side exists
// for the indexing pipeline and for seeding test fixtures.
type Store interface {
	io.Closer

	// Schema setup — called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// Bootstrapped reports whether the store has ever been populated.
	// A store that was never bootstrapped makes every consistency check
	// meaningless, so callers short-circuit to an "unchecked" verdict.
	Bootstrapped(ctx context.Context) (bool, error)

	// Write operations (indexing side).
	PutFile(ctx context.Context, rec FileRecord) error
	PutFunction(ctx context.Context, rec FunctionRecord) error
	PutModule(ctx context.Context, rec ModuleRecord) error
	PutEdge(ctx context.Context, edge GraphEdge) error
	PutEvidence(ctx context.Context, ev EvidenceEntry) error
	PutContextPack(ctx context.Context, pack ContextPack) error
	PutUniversalKnowledge(ctx context.Context, rec UniversalKnowledge) error

	// Read operations (consistency engine side). Lookups return nil,
	// not an error, when nothing matches.
	GetFileByPath(ctx context.Context, path string) (*FileRecord, error)
	ListFiles(ctx context.Context) ([]FileRecord, error)
	GetFunctionsByPath(ctx context.Context, path string) ([]FunctionRecord, error)
	GetFunction(ctx context.Context, id string) (*FunctionRecord, error)
	GetModuleByPath(ctx context.Context, path string) (*ModuleRecord, error)
	GetGraphEdges(ctx context.Context, filter EdgeFilter) ([]GraphEdge, error)
	GetEvidenceForTarget(ctx context.Context, targetID string, targetType EntityType) ([]EvidenceEntry, error)
	GetContextPacks(ctx context.Context, filter PackFilter) ([]ContextPack, error)
	GetUniversalKnowledgeByKind(ctx context.Context, kind KnowledgeKind) ([]UniversalKnowledge, error)

	// Stats.
	Stats(ctx context.Context) (*Stats, error)
}
