package knowledge

import "time"

// --- Enums ---

// EntityType classifies the endpoint of a graph edge or the target of
// evidence and enrichment records.
type EntityType string

const (
	EntityFile     EntityType = "file"
	EntityFunction EntityType = "function"
	EntityModule   EntityType = "module"
)

// EdgeKind classifies relationships between indexed entities.
type EdgeKind string

const (
	EdgeKindImports EdgeKind = "imports"
	EdgeKindCalls   EdgeKind = "calls"
	EdgeKindDefines EdgeKind = "defines"
)

// KnowledgeKind names a category of enrichment record.
type KnowledgeKind string

const (
	// KindFunctionWisdom is the per-function enrichment record carrying
	// practical notes (pitfalls, tips) as a JSON payload.
	KindFunctionWisdom KnowledgeKind = "function_wisdom"
)

// --- Models ---

// FileRecord is an indexed source file.
type FileRecord struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"` // workspace-relative
	Language    string    `json:"language"`
	LastIndexed time.Time `json:"lastIndexed"`
}

// FunctionRecord is an indexed function-like unit.
type FunctionRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FilePath  string `json:"filePath"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
	Signature string `json:"signature"`
}

// ModuleRecord is an indexed module (directory-level grouping of files).
type ModuleRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// GraphEdge is a directed, typed relation between two indexed entities.
// Edges are produced by indexing and are read-only to the consistency engine.
type GraphEdge struct {
	FromID     string     `json:"fromId"`
	FromType   EntityType `json:"fromType"`
	ToID       string     `json:"toId"`
	ToType     EntityType `json:"toType"`
	Kind       EdgeKind   `json:"kind"`
	SourceFile string     `json:"sourceFile"`
	SourceLine int        `json:"sourceLine"`
	Confidence float64    `json:"confidence"`
}

// EvidenceEntry is a fact supporting a claim about an entity. The FilePath
// is the file the fact was derived from; if that file changes, confidence
// in the claim is reduced.
type EvidenceEntry struct {
	TargetID   string     `json:"targetId"`
	TargetType EntityType `json:"targetType"`
	FilePath   string     `json:"filePath"`
	Content    string     `json:"content"`
}

// ContextPack is a precomputed explanatory bundle tied to source files.
// Its existence is the coverage signal for the files it references.
type ContextPack struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	RelatedFiles []string `json:"relatedFiles"`
	Invalidated  bool     `json:"invalidated"`
}

// UniversalKnowledge is an enrichment record keyed by kind. Payload is an
// opaque JSON document whose shape depends on the kind.
type UniversalKnowledge struct {
	ID       string        `json:"id"`
	TargetID string        `json:"targetId"`
	Kind     KnowledgeKind `json:"kind"`
	Payload  string        `json:"payload"`
}

// Stats summarizes the contents of a knowledge store.
type Stats struct {
	FileCount     int `json:"fileCount"`
	FunctionCount int `json:"functionCount"`
	ModuleCount   int `json:"moduleCount"`
	EdgeCount     int `json:"edgeCount"`
	PackCount     int `json:"packCount"`
}

// EdgeFilter narrows a GetGraphEdges query. A nil/empty field means
// "no constraint". When both FromIDs and ToIDs are set, an edge matches
// if either endpoint is listed, which is what one-hop impact propagation
// needs (the changed entity may sit on either side).
type EdgeFilter struct {
	FromIDs []string
	ToIDs   []string
	Kinds   []EdgeKind
}

// PackFilter narrows a GetContextPacks query.
type PackFilter struct {
	RelatedFile        string
	IncludeInvalidated bool
	Limit              int
}

// Matches reports whether the edge satisfies the filter.
func (f EdgeFilter) Matches(e GraphEdge) bool {
	if len(f.Kinds) > 0 && !containsKind(f.Kinds, e.Kind) {
		return false
	}
	if len(f.FromIDs) == 0 && len(f.ToIDs) == 0 {
		return true
	}
	if len(f.FromIDs) > 0 && containsStr(f.FromIDs, e.FromID) {
		return true
	}
	if len(f.ToIDs) > 0 && containsStr(f.ToIDs, e.ToID) {
		return true
	}
	return false
}

func containsKind(kinds []EdgeKind, k EdgeKind) bool {
	for _, c := range kinds {
		if c == k {
			return true
		}
	}
	return false
}

func containsStr(ss []string, s string) bool {
	for _, c := range ss {
		if c == s {
			return true
		}
	}
	return false
}
