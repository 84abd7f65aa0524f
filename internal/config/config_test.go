package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultArtifactPath, cfg.ArtifactPath)
	assert.Equal(t, DefaultDatabasePath, cfg.DatabasePath)
	assert.Equal(t, DefaultSCIPExtensions, cfg.SCIPExtensions)
	assert.True(t, cfg.Enabled(), "the high-fidelity backend is on unless disabled")
	assert.Zero(t, cfg.CacheTTL)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vigil.yml"), []byte(`
artifactPath: out/index.scip
localIndexer: node_modules/.bin/scip-typescript
indexerArgs: [index]
scipEnabled: false
scipExtensions: [".ts"]
cacheTTL: 10m
indexerTimeout: 1m
databasePath: out/graph.kuzu
excludeGlobs:
  - "dist/**"
  - "**/*_gen.ts"
minWisdomCoverage: 0.75
minCorpusSize: 10
`), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "out/index.scip", cfg.ArtifactPath)
	assert.Equal(t, "node_modules/.bin/scip-typescript", cfg.LocalIndexer)
	assert.Equal(t, []string{"index"}, cfg.IndexerArgs)
	assert.False(t, cfg.Enabled())
	assert.Equal(t, []string{".ts"}, cfg.SCIPExtensions)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL.Std())
	assert.Equal(t, time.Minute, cfg.IndexerTimeout.Std())
	assert.Equal(t, "out/graph.kuzu", cfg.DatabasePath)
	assert.Equal(t, []string{"dist/**", "**/*_gen.ts"}, cfg.ExcludeGlobs)
	assert.InDelta(t, 0.75, cfg.MinWisdomCoverage, 1e-9)
	assert.Equal(t, 10, cfg.MinCorpusSize)
}

func TestLoad_PrefersYmlOverYaml(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vigil.yml"), []byte("databasePath: from-yml\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vigil.yaml"), []byte("databasePath: from-yaml\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-yml", cfg.DatabasePath)
}

func TestLoad_MalformedYAMLErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vigil.yml"), []byte("artifactPath: [unclosed\n"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoad_BadDurationErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vigil.yml"), []byte("cacheTTL: soon\n"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse duration")
}

func TestExtensionSet(t *testing.T) {
	cfg := &Config{SCIPExtensions: []string{".ts", ".tsx"}}
	set := cfg.ExtensionSet()
	assert.True(t, set[".ts"])
	assert.True(t, set[".tsx"])
	assert.False(t, set[".go"])
}

func TestEnabled_ExplicitTrue(t *testing.T) {
	on := true
	cfg := &Config{SCIPEnabled: &on}
	assert.True(t, cfg.Enabled())
}
