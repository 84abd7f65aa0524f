package backend

import "context"

// Origin tags identify which backend produced a ParseResult.
const (
	OriginSCIP       = "scip"
	OriginTreeSitter = "treesitter"
)

// ParsedEntity is one function-like unit discovered in a file.
// Lines are 1-based inclusive.
type ParsedEntity struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
	Purpose   string `json:"purpose,omitempty"`
}

// ParseResult is the per-file output of any backend. Callers are
// backend-agnostic: the shape is identical whether it came from the
// SCIP index or the tree-sitter fallback.
type ParseResult struct {
	Origin       string         `json:"origin"`
	Entities     []ParsedEntity `json:"entities"`
	Exported     []string       `json:"exported"`
	Dependencies []string       `json:"dependencies"`
}

// Backend turns a source file into a ParseResult. A nil result with a nil
// error means the backend has nothing for this file and the caller should
// try the next backend.
type Backend interface {
	Resolve(ctx context.Context, path string, content []byte) (*ParseResult, error)
}
