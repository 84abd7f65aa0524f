package changeset

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitProvider resolves changesets by shelling out to git.
type GitProvider struct {
	workspace string
	excludes  []string
}

// NewGitProvider creates a provider rooted at the given workspace. Paths
// matching an exclude glob are dropped from every changeset.
func NewGitProvider(workspace string, excludes []string) *GitProvider {
	return &GitProvider{workspace: workspace, excludes: excludes}
}

// Resolve turns a reference into a changeset. An empty ref means the
// working tree (staged + unstaged against HEAD); "a..b" compares two refs;
// anything else is a single commit. A workspace that is not under version
// control resolves to nil, not an error — checks degrade to trivially
// passing on an empty changeset.
func (p *GitProvider) Resolve(ctx context.Context, ref string) (*Changeset, error) {
	top := p.toplevel(ctx)
	if top == "" {
		return nil, nil
	}
	prefix, err := workspacePrefix(top, p.workspace)
	if err != nil {
		return nil, fmt.Errorf("changeset: resolve %q: %w", ref, err)
	}

	var out []byte
	switch {
	case ref == "":
		out, err = p.git(ctx, "diff", "HEAD", "--name-status", "--find-renames")
		if err != nil {
			// A repository without commits has no HEAD; the staged
			// set is all there is.
			out, err = p.git(ctx, "diff", "--cached", "--name-status", "--find-renames")
		}
	case strings.Contains(ref, ".."):
		out, err = p.git(ctx, "diff", "--name-status", "--find-renames", ref)
	default:
		out, err = p.git(ctx, "diff-tree", "--no-commit-id", "--name-status", "-r", "--find-renames", ref)
	}
	if err != nil {
		return nil, fmt.Errorf("changeset: resolve %q: %w", ref, err)
	}

	cs, err := parseNameStatus(out)
	if err != nil {
		return nil, fmt.Errorf("changeset: resolve %q: %w", ref, err)
	}
	cs.rebase(prefix)
	cs.normalize(p.excludes)
	return cs, nil
}

// toplevel returns the repository root containing the workspace, or ""
// when the workspace is not under version control.
func (p *GitProvider) toplevel(ctx context.Context) string {
	out, err := p.git(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// workspacePrefix returns the workspace's path relative to the repository
// toplevel, slash-separated. "." means the workspace is the repo root.
// Git reports diff paths relative to the toplevel, so when the workspace
// is a subdirectory those paths must be rebased before the checks stat
// them against the workspace.
func workspacePrefix(top, workspace string) (string, error) {
	absTop, err := resolvePath(top)
	if err != nil {
		return "", err
	}
	absWS, err := resolvePath(workspace)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absTop, absWS)
	if err != nil {
		return "", fmt.Errorf("workspace %s outside repo %s: %w", absWS, absTop, err)
	}
	return filepath.ToSlash(rel), nil
}

// resolvePath makes a path absolute and resolves symlinks, so that a
// workspace reached through a symlink (macOS /tmp, for one) compares
// equal to the toplevel git reports.
func resolvePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

func (p *GitProvider) git(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = p.workspace
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git %s: %w (%s)", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// parseNameStatus parses `git diff --name-status` output. Lines look like
// "M\tpath", "A\tpath", "D\tpath", or "R100\told\tnew".
func parseNameStatus(out []byte) (*Changeset, error) {
	var cs Changeset
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		status := fields[0]
		path := filepath.ToSlash(fields[1])

		switch {
		case status == "A":
			cs.Added = append(cs.Added, path)
		case status == "M", status == "T":
			cs.Modified = append(cs.Modified, path)
		case status == "D":
			cs.Deleted = append(cs.Deleted, path)
		case strings.HasPrefix(status, "R"):
			if len(fields) < 3 {
				continue
			}
			cs.Renamed = append(cs.Renamed, Rename{
				From: path,
				To:   filepath.ToSlash(fields[2]),
			})
		case strings.HasPrefix(status, "C"):
			if len(fields) < 3 {
				continue
			}
			cs.Added = append(cs.Added, filepath.ToSlash(fields[2]))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse name-status: %w", err)
	}
	return &cs, nil
}
