// Package changeset resolves version-control state into the file lists the
// consistency checks consume.
package changeset

import (
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Rename records one rename as reported by git.
type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Changeset is the resolved set of changed files, workspace-relative with
// forward slashes, deduplicated and sorted.
type Changeset struct {
	Added    []string `json:"added"`
	Modified []string `json:"modified"`
	Deleted  []string `json:"deleted"`
	Renamed  []Rename `json:"renamed,omitempty"`
}

// Empty reports whether no files changed. A nil changeset (no version
// control, or provider failure) is empty.
func (c *Changeset) Empty() bool {
	if c == nil {
		return true
	}
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Deleted) == 0 && len(c.Renamed) == 0
}

// ChangedExisting returns added ∪ modified plus rename targets: the files
// that exist now and whose index entries are suspect.
func (c *Changeset) ChangedExisting() []string {
	if c == nil {
		return nil
	}
	set := make(map[string]bool)
	for _, f := range c.Added {
		set[f] = true
	}
	for _, f := range c.Modified {
		set[f] = true
	}
	for _, r := range c.Renamed {
		set[r.To] = true
	}
	return sortedSet(set)
}

// Gone returns deleted files plus rename sources: paths the index may still
// reference but that no longer exist under that name.
func (c *Changeset) Gone() []string {
	if c == nil {
		return nil
	}
	set := make(map[string]bool)
	for _, f := range c.Deleted {
		set[f] = true
	}
	for _, r := range c.Renamed {
		set[r.From] = true
	}
	return sortedSet(set)
}

// rebase rewrites repo-root-relative paths to workspace-relative ones,
// given the workspace's prefix inside the repository. Paths outside the
// workspace are dropped. A rename that crosses the workspace boundary
// degrades to an addition (target inside) or a deletion (source inside).
func (c *Changeset) rebase(prefix string) {
	if prefix == "" || prefix == "." {
		return
	}
	c.Added = rebasePaths(c.Added, prefix)
	c.Modified = rebasePaths(c.Modified, prefix)
	c.Deleted = rebasePaths(c.Deleted, prefix)

	var renames []Rename
	for _, r := range c.Renamed {
		from, fromOK := stripPrefix(r.From, prefix)
		to, toOK := stripPrefix(r.To, prefix)
		switch {
		case fromOK && toOK:
			renames = append(renames, Rename{From: from, To: to})
		case toOK:
			c.Added = append(c.Added, to)
		case fromOK:
			c.Deleted = append(c.Deleted, from)
		}
	}
	c.Renamed = renames
}

func rebasePaths(paths []string, prefix string) []string {
	out := paths[:0]
	for _, p := range paths {
		if rel, ok := stripPrefix(p, prefix); ok {
			out = append(out, rel)
		}
	}
	return out
}

func stripPrefix(path, prefix string) (string, bool) {
	rel, ok := strings.CutPrefix(path, prefix+"/")
	if !ok {
		return "", false
	}
	return rel, true
}

// normalize dedupes, sorts, and drops paths matching any exclude glob.
func (c *Changeset) normalize(excludes []string) {
	c.Added = cleanPaths(c.Added, excludes)
	c.Modified = cleanPaths(c.Modified, excludes)
	c.Deleted = cleanPaths(c.Deleted, excludes)

	var renames []Rename
	seen := make(map[Rename]bool)
	for _, r := range c.Renamed {
		r.From = strings.TrimSpace(r.From)
		r.To = strings.TrimSpace(r.To)
		if r.From == "" || r.To == "" || seen[r] || excluded(r.To, excludes) {
			continue
		}
		seen[r] = true
		renames = append(renames, r)
	}
	sort.Slice(renames, func(i, j int) bool {
		if renames[i].To != renames[j].To {
			return renames[i].To < renames[j].To
		}
		return renames[i].From < renames[j].From
	})
	c.Renamed = renames
}

func cleanPaths(paths, excludes []string) []string {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" || excluded(p, excludes) {
			continue
		}
		set[p] = true
	}
	return sortedSet(set)
}

// excluded reports whether the path matches any exclude glob. Globs use
// doublestar syntax ("vendor/**", "**/*_gen.go").
func excluded(path string, excludes []string) bool {
	for _, g := range excludes {
		if ok, err := doublestar.Match(g, path); err == nil && ok {
			return true
		}
	}
	return false
}

func sortedSet(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
