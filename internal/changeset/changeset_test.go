package changeset

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Changeset views
// ---------------------------------------------------------------------------

func TestEmpty(t *testing.T) {
	var nilSet *Changeset
	assert.True(t, nilSet.Empty(), "nil changeset reads as empty")
	assert.True(t, (&Changeset{}).Empty())
	assert.False(t, (&Changeset{Modified: []string{"a.ts"}}).Empty())
	assert.False(t, (&Changeset{Renamed: []Rename{{From: "a.ts", To: "b.ts"}}}).Empty())
}

func TestChangedExisting(t *testing.T) {
	cs := &Changeset{
		Added:    []string{"src/new.ts"},
		Modified: []string{"src/a.ts", "src/new.ts"}, // overlap dedupes
		Deleted:  []string{"src/gone.ts"},
		Renamed:  []Rename{{From: "src/old.ts", To: "src/moved.ts"}},
	}
	assert.Equal(t, []string{"src/a.ts", "src/moved.ts", "src/new.ts"}, cs.ChangedExisting())

	var nilSet *Changeset
	assert.Nil(t, nilSet.ChangedExisting())
}

func TestGone(t *testing.T) {
	cs := &Changeset{
		Deleted: []string{"src/gone.ts"},
		Renamed: []Rename{{From: "src/old.ts", To: "src/moved.ts"}},
	}
	assert.Equal(t, []string{"src/gone.ts", "src/old.ts"}, cs.Gone())

	var nilSet *Changeset
	assert.Nil(t, nilSet.Gone())
}

// ---------------------------------------------------------------------------
// Normalization
// ---------------------------------------------------------------------------

func TestNormalize_DedupeSortTrim(t *testing.T) {
	cs := &Changeset{
		Added:    []string{" src/b.ts ", "src/a.ts", "src/b.ts", ""},
		Modified: []string{"src/z.ts", "src/z.ts"},
	}
	cs.normalize(nil)
	assert.Equal(t, []string{"src/a.ts", "src/b.ts"}, cs.Added)
	assert.Equal(t, []string{"src/z.ts"}, cs.Modified)
}

func TestNormalize_ExcludeGlobs(t *testing.T) {
	cs := &Changeset{
		Added:    []string{"dist/bundle.js", "src/a.ts"},
		Modified: []string{"src/types_gen.ts", "src/b.ts"},
		Deleted:  []string{"node_modules/left-pad/index.js"},
		Renamed: []Rename{
			{From: "src/old.ts", To: "dist/moved.js"},
			{From: "src/old2.ts", To: "src/moved2.ts"},
		},
	}
	cs.normalize([]string{"dist/**", "node_modules/**", "**/*_gen.ts"})

	assert.Equal(t, []string{"src/a.ts"}, cs.Added)
	assert.Equal(t, []string{"src/b.ts"}, cs.Modified)
	assert.Nil(t, cs.Deleted)
	assert.Equal(t, []Rename{{From: "src/old2.ts", To: "src/moved2.ts"}}, cs.Renamed,
		"renames are excluded by their destination")
}

func TestNormalize_RenameOrderingAndDedupe(t *testing.T) {
	cs := &Changeset{Renamed: []Rename{
		{From: "src/b.ts", To: "src/y.ts"},
		{From: "src/a.ts", To: "src/x.ts"},
		{From: "src/a.ts", To: "src/x.ts"},
	}}
	cs.normalize(nil)
	assert.Equal(t, []Rename{
		{From: "src/a.ts", To: "src/x.ts"},
		{From: "src/b.ts", To: "src/y.ts"},
	}, cs.Renamed)
}

// ---------------------------------------------------------------------------
// Rebasing repo-relative paths onto the workspace
// ---------------------------------------------------------------------------

func TestRebase_RepoRootIsNoop(t *testing.T) {
	cs := &Changeset{Modified: []string{"src/a.ts"}}
	cs.rebase(".")
	assert.Equal(t, []string{"src/a.ts"}, cs.Modified)

	cs.rebase("")
	assert.Equal(t, []string{"src/a.ts"}, cs.Modified)
}

func TestRebase_SubdirectoryWorkspace(t *testing.T) {
	cs := &Changeset{
		Added:    []string{"svc/api/src/new.ts", "README.md"},
		Modified: []string{"svc/api/src/a.ts", "svc/worker/main.ts"},
		Deleted:  []string{"svc/api/src/gone.ts"},
		Renamed: []Rename{
			{From: "svc/api/src/old.ts", To: "svc/api/src/moved.ts"},
			{From: "svc/api/src/leaving.ts", To: "svc/worker/leaving.ts"},
			{From: "docs/arriving.md", To: "svc/api/docs/arriving.md"},
			{From: "docs/a.md", To: "docs/b.md"},
		},
	}
	cs.rebase("svc/api")

	assert.Equal(t, []string{"src/new.ts", "docs/arriving.md"}, cs.Added,
		"files outside the workspace are dropped, incoming rename targets become additions")
	assert.Equal(t, []string{"src/a.ts"}, cs.Modified)
	assert.Equal(t, []string{"src/gone.ts", "src/leaving.ts"}, cs.Deleted,
		"outgoing rename sources become deletions")
	assert.Equal(t, []Rename{{From: "src/old.ts", To: "src/moved.ts"}}, cs.Renamed)
}

func TestWorkspacePrefix(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "svc", "api")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	prefix, err := workspacePrefix(root, root)
	require.NoError(t, err)
	assert.Equal(t, ".", prefix)

	prefix, err = workspacePrefix(root, sub)
	require.NoError(t, err)
	assert.Equal(t, "svc/api", prefix)
}

// ---------------------------------------------------------------------------
// git name-status parsing
// ---------------------------------------------------------------------------

func TestParseNameStatus(t *testing.T) {
	out := []byte("" +
		"A\tsrc/new.ts\n" +
		"M\tsrc/a.ts\n" +
		"T\tsrc/typechange.ts\n" +
		"D\tsrc/gone.ts\n" +
		"R087\tsrc/old.ts\tsrc/moved.ts\n" +
		"C075\tsrc/template.ts\tsrc/copy.ts\n")

	cs, err := parseNameStatus(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/new.ts", "src/copy.ts"}, cs.Added)
	assert.Equal(t, []string{"src/a.ts", "src/typechange.ts"}, cs.Modified, "type changes count as modifications")
	assert.Equal(t, []string{"src/gone.ts"}, cs.Deleted)
	assert.Equal(t, []Rename{{From: "src/old.ts", To: "src/moved.ts"}}, cs.Renamed)
}

func TestParseNameStatus_IgnoresNoise(t *testing.T) {
	out := []byte("\n" +
		"warning: something\n" + // no tab: skipped
		"R100\tsrc/only-old.ts\n" + // truncated rename: skipped
		"M\tsrc/a.ts\n")

	cs, err := parseNameStatus(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.ts"}, cs.Modified)
	assert.Empty(t, cs.Renamed)
	assert.Empty(t, cs.Added)
}

func TestParseNameStatus_EmptyOutput(t *testing.T) {
	cs, err := parseNameStatus(nil)
	require.NoError(t, err)
	assert.True(t, cs.Empty())
}

// ---------------------------------------------------------------------------
// GitProvider
// ---------------------------------------------------------------------------

func TestGitProvider_NonRepoResolvesNil(t *testing.T) {
	p := NewGitProvider(t.TempDir(), nil)
	cs, err := p.Resolve(context.Background(), "")
	require.NoError(t, err, "no version control is not an error")
	assert.Nil(t, cs)
}

// mustGit runs a git command in dir, failing the test on error.
func mustGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestGitProvider_WorkspaceInRepoSubdirectory(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	root := t.TempDir()
	mustGit(t, root, "init", "-q")
	mustGit(t, root, "config", "user.email", "test@example.com")
	mustGit(t, root, "config", "user.name", "test")

	workspace := filepath.Join(root, "svc", "api")
	writeFile(t, filepath.Join(workspace, "src", "a.ts"), "export const a = 1\n")
	writeFile(t, filepath.Join(root, "README.md"), "hello\n")
	mustGit(t, root, "add", ".")
	mustGit(t, root, "commit", "-q", "-m", "initial")

	writeFile(t, filepath.Join(workspace, "src", "a.ts"), "export const a = 2\n")
	writeFile(t, filepath.Join(root, "README.md"), "changed outside the workspace\n")

	p := NewGitProvider(workspace, nil)
	cs, err := p.Resolve(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, cs)

	// Paths come back relative to the workspace, not the repo root, and
	// changes outside the workspace are dropped.
	assert.Equal(t, []string{"src/a.ts"}, cs.Modified)
	assert.Empty(t, cs.Added)
	assert.Empty(t, cs.Deleted)
}

func TestGitProvider_WorkspaceAtRepoRoot(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	root := t.TempDir()
	mustGit(t, root, "init", "-q")
	mustGit(t, root, "config", "user.email", "test@example.com")
	mustGit(t, root, "config", "user.name", "test")

	writeFile(t, filepath.Join(root, "src", "a.ts"), "export const a = 1\n")
	mustGit(t, root, "add", ".")
	mustGit(t, root, "commit", "-q", "-m", "initial")

	writeFile(t, filepath.Join(root, "src", "a.ts"), "export const a = 2\n")
	writeFile(t, filepath.Join(root, "src", "b.ts"), "export const b = 1\n")
	mustGit(t, root, "add", filepath.Join(root, "src", "b.ts"))

	p := NewGitProvider(root, nil)
	cs, err := p.Resolve(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, cs)

	assert.Equal(t, []string{"src/b.ts"}, cs.Added)
	assert.Equal(t, []string{"src/a.ts"}, cs.Modified)
}
