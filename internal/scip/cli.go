package scip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
)

// decoder is one strategy for turning an artifact file into an Index.
// Strategies are tried in order; the first success wins.
type decoder interface {
	Name() string
	Decode(ctx context.Context, artifactPath string) (*Index, error)
}

// wireDecoder decodes the artifact in-process via protowire.
type wireDecoder struct{}

func (wireDecoder) Name() string { return "protowire" }

func (wireDecoder) Decode(_ context.Context, artifactPath string) (*Index, error) {
	data, err := os.ReadFile(artifactPath)
	if err != nil {
		return nil, fmt.Errorf("scip: read artifact: %w", err)
	}
	return DecodeIndex(data)
}

// cliDecoder spawns the scip CLI to decode the artifact and emit JSON.
// It exists so a broken or unavailable in-process decode path does not
// take the whole refresh down with it.
type cliDecoder struct {
	bin string // "scip" unless overridden
}

func (d cliDecoder) Name() string { return "scip-cli" }

func (d cliDecoder) Decode(ctx context.Context, artifactPath string) (*Index, error) {
	bin := d.bin
	if bin == "" {
		bin = "scip"
	}
	cmd := exec.CommandContext(ctx, bin, "print", "--json", artifactPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("scip: cli decode: %w (stderr: %s)", err, truncate(stderr.String(), 512))
	}
	var idx Index
	if err := json.Unmarshal(stdout.Bytes(), &idx); err != nil {
		return nil, fmt.Errorf("scip: cli decode: parse json: %w", err)
	}
	return &idx, nil
}

// decodeArtifact tries each decoder in order and returns the first Index
// produced. Failures short of the last decoder are logged, not returned.
func decodeArtifact(ctx context.Context, artifactPath string, decoders []decoder) (*Index, error) {
	var lastErr error
	for _, d := range decoders {
		idx, err := d.Decode(ctx, artifactPath)
		if err == nil {
			return idx, nil
		}
		log.Printf("scip: decoder %s failed for %s: %v", d.Name(), artifactPath, err)
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("scip: no decoders configured")
	}
	return nil, lastErr
}

// truncate caps s at n bytes for log and error output.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
