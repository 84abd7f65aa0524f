package scip

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vigil-dev/vigil/internal/backend"
)

// Default policy knobs. Overridable per Config.
const (
	DefaultTTL            = 5 * time.Minute
	DefaultTimeout        = 2 * time.Minute
	DefaultMaxOutputBytes = 1 << 20
)

// Config holds the coordinator's workspace and subprocess settings.
type Config struct {
	// WorkspaceRoot is the absolute root of the indexed repository.
	WorkspaceRoot string
	// ArtifactPath is where the indexer writes the binary index.
	ArtifactPath string
	// LocalIndexer is a workspace-relative indexer executable, preferred
	// over FallbackIndexer when it exists (avoids a network fetch).
	LocalIndexer string
	// IndexerArgs are extra arguments passed to the local indexer.
	IndexerArgs []string
	// FallbackIndexer is the fetch-and-run command used when no local
	// indexer executable is present, e.g. ["npx", "--yes", "@sourcegraph/scip-typescript", "index"].
	FallbackIndexer []string
	// SCIPBin is the CLI used by the subprocess decode fallback.
	SCIPBin string
	// TTL bounds how long a populated cache is trusted without re-checking.
	TTL time.Duration
	// Timeout is the hard bound on one indexer run.
	Timeout time.Duration
	// MaxOutputBytes caps captured indexer output.
	MaxOutputBytes int
}

// Coordinator owns the decoded-index cache and serializes refreshes.
// It is the single writer of the cache; concurrent resolvers that observe
// a stale cache collapse into one in-flight refresh.
type Coordinator struct {
	cfg      Config
	decoders []decoder

	// now and runIndexer are replaceable for tests.
	now        func() time.Time
	runIndexer func(ctx context.Context) error

	group singleflight.Group

	mu       sync.RWMutex
	cachedAt time.Time
	byFile   map[string]*backend.ParseResult
}

// Compile-time check that the coordinator is a usable backend.
var _ backend.Backend = (*Coordinator)(nil)

// NewCoordinator creates a Coordinator with the in-process decoder tried
// first and the CLI decoder as fallback.
func NewCoordinator(cfg Config) *Coordinator {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = DefaultMaxOutputBytes
	}
	c := &Coordinator{
		cfg:      cfg,
		decoders: []decoder{wireDecoder{}, cliDecoder{bin: cfg.SCIPBin}},
		now:      time.Now,
		byFile:   make(map[string]*backend.ParseResult),
	}
	c.runIndexer = c.runIndexerProcess
	return c
}

// Resolve implements backend.Backend. It ensures the cache is fresh for the
// target file, then serves from the cache. A nil result means the index has
// nothing for this file and the caller should use the fallback parser.
func (c *Coordinator) Resolve(ctx context.Context, path string, _ []byte) (*backend.ParseResult, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("scip: resolve %s: %w", path, err)
	}
	if c.shouldRefresh(abs) {
		c.refresh(ctx)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byFile[abs], nil
}

// shouldRefresh decides whether the cache can serve the target file:
// an empty cache always refreshes, a cache past its TTL refreshes, and a
// target file newer than the artifact (or either stat failing) refreshes.
func (c *Coordinator) shouldRefresh(targetFile string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.byFile) == 0 {
		return true
	}
	if c.now().Sub(c.cachedAt) > c.cfg.TTL {
		return true
	}
	fileInfo, err := os.Stat(targetFile)
	if err != nil {
		return true
	}
	artifactInfo, err := os.Stat(c.cfg.ArtifactPath)
	if err != nil {
		return true
	}
	return fileInfo.ModTime().After(artifactInfo.ModTime())
}

// ForceRefresh bypasses the staleness policy and refreshes now. Concurrent
// callers still collapse into one execution.
func (c *Coordinator) ForceRefresh(ctx context.Context) {
	c.refresh(ctx)
}

// refresh runs one refresh, collapsing concurrent callers into a single
// execution. Late callers block on the in-flight refresh instead of
// starting another indexer process.
func (c *Coordinator) refresh(ctx context.Context) {
	c.group.Do("refresh", func() (any, error) {
		c.doRefresh(ctx)
		return nil, nil
	})
}

// doRefresh reindexes the workspace, decodes the artifact, and replaces the
// cache wholesale. On any failure the cache is cleared (not left partial)
// and the refresh time is still stamped; the next caller retries because an
// empty cache always refreshes.
func (c *Coordinator) doRefresh(ctx context.Context) {
	fresh, err := c.rebuild(ctx)
	if err != nil {
		log.Printf("scip: refresh failed: %v", err)
		fresh = make(map[string]*backend.ParseResult)
	}
	c.mu.Lock()
	c.byFile = fresh
	c.cachedAt = c.now()
	c.mu.Unlock()
}

// rebuild produces a complete replacement cache from a fresh indexer run.
func (c *Coordinator) rebuild(ctx context.Context) (map[string]*backend.ParseResult, error) {
	if err := os.MkdirAll(filepath.Dir(c.cfg.ArtifactPath), 0o755); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	if err := c.runIndexer(ctx); err != nil {
		return nil, err
	}
	idx, err := decodeArtifact(ctx, c.cfg.ArtifactPath, c.decoders)
	if err != nil {
		return nil, err
	}
	fresh := make(map[string]*backend.ParseResult, len(idx.Documents))
	for _, doc := range idx.Documents {
		abs := filepath.Join(c.cfg.WorkspaceRoot, filepath.FromSlash(doc.RelativePath))
		fresh[abs] = Extract(doc)
	}
	return fresh, nil
}

// runIndexerProcess invokes the external indexer, preferring a
// workspace-local executable over the fetch-and-run command, bounded by a
// hard timeout and a capped output buffer.
func (c *Coordinator) runIndexerProcess(ctx context.Context) error {
	argv := c.indexerCommand()
	if len(argv) == 0 {
		return fmt.Errorf("no indexer configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = c.cfg.WorkspaceRoot
	out := &cappedBuffer{limit: c.cfg.MaxOutputBytes}
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("indexer %s: %w (output: %s)", argv[0], err, truncate(out.String(), 512))
	}
	return nil
}

// indexerCommand builds the full argv for one indexer run. The artifact
// path and the no-interactive-progress flag are always appended.
func (c *Coordinator) indexerCommand() []string {
	var argv []string
	if c.cfg.LocalIndexer != "" {
		local := filepath.Join(c.cfg.WorkspaceRoot, c.cfg.LocalIndexer)
		if _, err := os.Stat(local); err == nil {
			argv = append([]string{local}, c.cfg.IndexerArgs...)
		}
	}
	if argv == nil && len(c.cfg.FallbackIndexer) > 0 {
		argv = append(argv, c.cfg.FallbackIndexer...)
	}
	if argv == nil {
		return nil
	}
	return append(argv, "--output", c.cfg.ArtifactPath, "--no-progress-bar")
}

// CachedAt returns the time of the last refresh (zero before the first).
func (c *Coordinator) CachedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cachedAt
}

// CachedFiles returns the number of files in the cache.
func (c *Coordinator) CachedFiles() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byFile)
}

// cappedBuffer discards writes past its limit while reporting full writes,
// so a chatty indexer cannot balloon memory or block on a full pipe.
type cappedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string { return b.buf.String() }
