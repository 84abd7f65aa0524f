package knowledge

import (
	"context"
	"sort"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu        sync.RWMutex
	files     map[string]FileRecord // key: path
	functions map[string]FunctionRecord
	modules   map[string]ModuleRecord // key: path
	edges     []GraphEdge
	evidence  []EvidenceEntry
	packs     []ContextPack
	knowledge []UniversalKnowledge
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		files:     make(map[string]FileRecord),
		functions: make(map[string]FunctionRecord),
		modules:   make(map[string]ModuleRecord),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// Bootstrapped reports whether any file has ever been indexed.
func (m *MemStore) Bootstrapped(_ context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files) > 0, nil
}

// PutFile stores a file record keyed by its path.
func (m *MemStore) PutFile(_ context.Context, rec FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[rec.Path] = rec
	return nil
}

// PutFunction stores a function record keyed by its ID.
func (m *MemStore) PutFunction(_ context.Context, rec FunctionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.functions[rec.ID] = rec
	return nil
}

// PutModule stores a module record keyed by its path.
func (m *MemStore) PutModule(_ context.Context, rec ModuleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modules[rec.Path] = rec
	return nil
}

// PutEdge appends an edge to the internal slice.
func (m *MemStore) PutEdge(_ context.Context, edge GraphEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges = append(m.edges, edge)
	return nil
}

// PutEvidence appends an evidence entry.
func (m *MemStore) PutEvidence(_ context.Context, ev EvidenceEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evidence = append(m.evidence, ev)
	return nil
}

// PutContextPack appends a context pack.
func (m *MemStore) PutContextPack(_ context.Context, pack ContextPack) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.packs = append(m.packs, pack)
	return nil
}

// PutUniversalKnowledge appends an enrichment record.
func (m *MemStore) PutUniversalKnowledge(_ context.Context, rec UniversalKnowledge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.knowledge = append(m.knowledge, rec)
	return nil
}

// GetFileByPath returns the file record for the given path, or nil if not found.
func (m *MemStore) GetFileByPath(_ context.Context, path string) (*FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[path]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

// ListFiles returns every file record, sorted by path.
func (m *MemStore) ListFiles(_ context.Context) ([]FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]FileRecord, 0, len(m.files))
	for _, f := range m.files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// GetFunctionsByPath returns all functions indexed for the given file path.
func (m *MemStore) GetFunctionsByPath(_ context.Context, path string) ([]FunctionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []FunctionRecord
	for _, fn := range m.functions {
		if fn.FilePath == path {
			out = append(out, fn)
		}
	}
	return out, nil
}

// GetFunction returns the function with the given ID, or nil if not found.
func (m *MemStore) GetFunction(_ context.Context, id string) (*FunctionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn, ok := m.functions[id]
	if !ok {
		return nil, nil
	}
	return &fn, nil
}

// GetModuleByPath returns the module record for the given path, or nil if not found.
func (m *MemStore) GetModuleByPath(_ context.Context, path string) (*ModuleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mod, ok := m.modules[path]
	if !ok {
		return nil, nil
	}
	return &mod, nil
}

// GetGraphEdges returns all edges matching the filter.
func (m *MemStore) GetGraphEdges(_ context.Context, filter EdgeFilter) ([]GraphEdge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []GraphEdge
	for _, e := range m.edges {
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetEvidenceForTarget returns all evidence entries for the given entity.
func (m *MemStore) GetEvidenceForTarget(_ context.Context, targetID string, targetType EntityType) ([]EvidenceEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []EvidenceEntry
	for _, ev := range m.evidence {
		if ev.TargetID == targetID && ev.TargetType == targetType {
			out = append(out, ev)
		}
	}
	return out, nil
}

// GetContextPacks returns packs matching the filter. A Limit <= 0 returns
// all matches.
func (m *MemStore) GetContextPacks(_ context.Context, filter PackFilter) ([]ContextPack, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ContextPack
	for _, p := range m.packs {
		if p.Invalidated && !filter.IncludeInvalidated {
			continue
		}
		if filter.RelatedFile != "" && !containsStr(p.RelatedFiles, filter.RelatedFile) {
			continue
		}
		out = append(out, p)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// GetUniversalKnowledgeByKind returns all enrichment records of the given kind.
func (m *MemStore) GetUniversalKnowledgeByKind(_ context.Context, kind KnowledgeKind) ([]UniversalKnowledge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []UniversalKnowledge
	for _, k := range m.knowledge {
		if k.Kind == kind {
			out = append(out, k)
		}
	}
	return out, nil
}

// Stats returns counts of all record types in the store.
func (m *MemStore) Stats(_ context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &Stats{
		FileCount:     len(m.files),
		FunctionCount: len(m.functions),
		ModuleCount:   len(m.modules),
		EdgeCount:     len(m.edges),
		PackCount:     len(m.packs),
	}, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
