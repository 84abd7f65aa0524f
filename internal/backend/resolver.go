package backend

import (
	"context"
	"log"
	"path/filepath"
	"strings"
)

// ResolverConfig controls when the high-fidelity backend is consulted.
type ResolverConfig struct {
	// Enabled gates the high-fidelity backend entirely.
	Enabled bool
	// Extensions is the set of file extensions (".ts", ".go", ...) the
	// high-fidelity backend supports.
	Extensions map[string]bool
	// WorkspaceRoot is the absolute workspace root. Files outside it are
	// never sent to the high-fidelity backend.
	WorkspaceRoot string
}

// Resolver composes the high-fidelity backend with the general-purpose
// fallback parser. The high-fidelity result wins outright when present;
// the fallback may be arbitrarily expensive and is only invoked on a miss.
type Resolver struct {
	cfg      ResolverConfig
	primary  Backend
	fallback Backend
}

// NewResolver wires the two backends together. primary may be nil, in which
// case every request goes straight to the fallback.
func NewResolver(cfg ResolverConfig, primary, fallback Backend) *Resolver {
	return &Resolver{cfg: cfg, primary: primary, fallback: fallback}
}

// Resolve returns the ParseResult for a file. It tries the high-fidelity
// backend first when it is enabled, the extension is supported, and the file
// lives inside the workspace; any miss or failure falls through to the
// fallback parser, whose result is returned verbatim.
func (r *Resolver) Resolve(ctx context.Context, path string, content []byte) (*ParseResult, error) {
	if r.eligible(path) {
		result, err := r.primary.Resolve(ctx, path, content)
		if err != nil {
			// Internal backend failure is benign for the caller; the
			// fallback covers it.
			log.Printf("backend: high-fidelity resolve failed for %s: %v", path, err)
		} else if result != nil {
			return result, nil
		}
	}
	return r.fallback.Resolve(ctx, path, content)
}

// eligible reports whether the high-fidelity backend should be consulted
// for this path.
func (r *Resolver) eligible(path string) bool {
	if r.primary == nil || !r.cfg.Enabled {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !r.cfg.Extensions[ext] {
		return false
	}
	return insideWorkspace(r.cfg.WorkspaceRoot, path)
}

// insideWorkspace reports whether path resolves to a location under root.
func insideWorkspace(root, path string) bool {
	if root == "" {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
