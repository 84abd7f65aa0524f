package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML duration strings
// ("10m", "1h30m").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds project-level settings loaded from vigil.yml.
type Config struct {
	// ArtifactPath is where the external indexer writes the binary index,
	// relative to the workspace root.
	ArtifactPath string `yaml:"artifactPath,omitempty"`
	// LocalIndexer is a workspace-relative indexer executable, preferred
	// over FallbackIndexer.
	LocalIndexer string `yaml:"localIndexer,omitempty"`
	// IndexerArgs are extra arguments for the local indexer.
	IndexerArgs []string `yaml:"indexerArgs,omitempty"`
	// FallbackIndexer is the fetch-and-run indexer command.
	FallbackIndexer []string `yaml:"fallbackIndexer,omitempty"`
	// SCIPBin is the CLI used for the subprocess decode fallback.
	SCIPBin string `yaml:"scipBin,omitempty"`
	// SCIPEnabled gates the high-fidelity backend.
	SCIPEnabled *bool `yaml:"scipEnabled,omitempty"`
	// SCIPExtensions are the file extensions the high-fidelity backend
	// supports.
	SCIPExtensions []string `yaml:"scipExtensions,omitempty"`
	// CacheTTL bounds how long a populated index cache is trusted.
	CacheTTL Duration `yaml:"cacheTTL,omitempty"`
	// IndexerTimeout is the hard bound on one indexer run.
	IndexerTimeout Duration `yaml:"indexerTimeout,omitempty"`
	// DatabasePath is the knowledge store location, relative to the
	// workspace root.
	DatabasePath string `yaml:"databasePath,omitempty"`
	// ExcludeGlobs drops matching paths from changesets ("vendor/**").
	ExcludeGlobs []string `yaml:"excludeGlobs,omitempty"`
	// MinWisdomCoverage is the minimum enriched fraction of the function
	// corpus before wisdom_coverage fails.
	MinWisdomCoverage float64 `yaml:"minWisdomCoverage,omitempty"`
	// MinCorpusSize is the function count under which wisdom_coverage is
	// skipped.
	MinCorpusSize int `yaml:"minCorpusSize,omitempty"`
}

// Defaults applied when the config file is absent or fields are unset.
const (
	DefaultArtifactPath = ".vigil/index.scip"
	DefaultDatabasePath = ".vigil/knowledge.kuzu"
)

// DefaultSCIPExtensions cover the languages the default indexer handles.
var DefaultSCIPExtensions = []string{".ts", ".tsx", ".js", ".jsx"}

// Load attempts to read vigil.yml or vigil.yaml from the given directory.
// Returns a defaulted config (not an error) if no config file exists.
func Load(dir string) (*Config, error) {
	cfg := &Config{}
	for _, name := range []string{"vigil.yml", "vigil.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
		break
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ArtifactPath == "" {
		c.ArtifactPath = DefaultArtifactPath
	}
	if c.DatabasePath == "" {
		c.DatabasePath = DefaultDatabasePath
	}
	if len(c.SCIPExtensions) == 0 {
		c.SCIPExtensions = append([]string(nil), DefaultSCIPExtensions...)
	}
}

// Enabled reports whether the high-fidelity backend is on. It defaults to
// true when the config does not say otherwise.
func (c *Config) Enabled() bool {
	if c.SCIPEnabled == nil {
		return true
	}
	return *c.SCIPEnabled
}

// ExtensionSet returns the supported extensions as a lookup set.
func (c *Config) ExtensionSet() map[string]bool {
	set := make(map[string]bool, len(c.SCIPExtensions))
	for _, ext := range c.SCIPExtensions {
		set[ext] = true
	}
	return set
}
