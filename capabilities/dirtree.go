package capabilities

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// treeItem is one node of the cached directory tree. Children is nil for
// files and for directories that have not been expanded yet.
type treeItem struct {
	path     string
	isDir    bool
	expanded bool
	children []*treeItem
}

func (i *treeItem) name() string { return filepath.Base(i.path) }

// DirectoryTree caches a lazily-expandable view of a directory, honoring
// ignore rules from a .gitignore at the root if present. Rendered forms
// (tree and path list) are cached together and invalidated together on any
// mutation.
type DirectoryTree struct {
	root         string
	initialDepth int
	ignore       *ignoreMatcher

	rootItem   *treeItem
	treeCache  string
	pathsCache string
	rendered   bool
}

// NewDirectoryTree builds the initial tree down to initialDepth levels.
func NewDirectoryTree(root string, initialDepth int, respectGitignore bool) *DirectoryTree {
	t := &DirectoryTree{
		root:         root,
		initialDepth: initialDepth,
	}
	if respectGitignore {
		t.ignore = newIgnoreMatcher(filepath.Join(root, ".gitignore"))
	}
	t.rootItem = t.build(root, 0)
	return t
}

// build constructs a subtree rooted at dir, descending while depth allows.
// Entries sort directories first, then case-insensitive by name.
func (t *DirectoryTree) build(dir string, depth int) *treeItem {
	item := &treeItem{path: dir, isDir: true, expanded: true}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return item
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})

	for _, entry := range entries {
		if entry.Name() == ".git" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if t.ignored(path, entry.IsDir()) {
			continue
		}

		if entry.IsDir() {
			if depth < t.initialDepth {
				item.children = append(item.children, t.build(path, depth+1))
			} else {
				item.children = append(item.children, &treeItem{path: path, isDir: true})
			}
		} else {
			item.children = append(item.children, &treeItem{path: path})
		}
	}

	return item
}

func (t *DirectoryTree) ignored(path string, isDir bool) bool {
	if t.ignore == nil {
		return false
	}
	rel, err := filepath.Rel(t.root, path)
	if err != nil {
		return false
	}
	return t.ignore.Match(rel, isDir)
}

// Expand re-lists the directory at target in place, revealing one level of
// its contents. Descendant directories come back collapsed. Returns false
// when the target is not part of the tree.
func (t *DirectoryTree) Expand(target string) bool {
	ok := t.expand(t.rootItem, target)
	if ok {
		t.invalidate()
	}
	return ok
}

func (t *DirectoryTree) expand(item *treeItem, target string) bool {
	rel, err := filepath.Rel(item.path, target)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}

	if item.path == target {
		// Passing the full depth budget yields exactly one new level:
		// direct children listed, their subdirectories collapsed.
		fresh := t.build(item.path, t.initialDepth)
		item.children = fresh.children
		item.expanded = true
		return true
	}

	for _, child := range item.children {
		if child.isDir && t.expand(child, target) {
			return true
		}
	}
	return false
}

func (t *DirectoryTree) invalidate() {
	t.treeCache = ""
	t.pathsCache = ""
	t.rendered = false
}

// FormatAsTree renders the tree with box-drawing connectors.
func (t *DirectoryTree) FormatAsTree() string {
	if !t.rendered {
		t.render()
	}
	return t.treeCache
}

// FormatAsPaths renders the tree as a list of root-relative paths;
// unexpanded directories are annotated.
func (t *DirectoryTree) FormatAsPaths() string {
	if !t.rendered {
		t.render()
	}
	return t.pathsCache
}

func (t *DirectoryTree) render() {
	lines := []string{t.rootItem.name() + "/"}
	lines = append(lines, formatTreeLines(t.rootItem, "")...)
	t.treeCache = strings.Join(lines, "\n")
	t.pathsCache = strings.Join(t.collectPaths(t.rootItem), "\n")
	t.rendered = true
}

func formatTreeLines(item *treeItem, prefix string) []string {
	var lines []string
	for i, child := range item.children {
		last := i == len(item.children)-1
		connector := "├─ "
		if last {
			connector = "└─ "
		}

		name := child.name()
		if child.isDir {
			name += "/"
			if !child.expanded {
				name += " [not expanded]"
			}
		}
		lines = append(lines, prefix+connector+name)

		if child.isDir && child.expanded && len(child.children) > 0 {
			childPrefix := prefix + "│  "
			if last {
				childPrefix = prefix + "   "
			}
			lines = append(lines, formatTreeLines(child, childPrefix)...)
		}
	}
	return lines
}

func (t *DirectoryTree) collectPaths(item *treeItem) []string {
	var paths []string

	if item.path != t.root {
		rel, err := filepath.Rel(t.root, item.path)
		if err == nil {
			if item.isDir {
				rel += "/"
				if !item.expanded {
					rel += " [not expanded]"
				}
			}
			paths = append(paths, rel)
		}
	}

	for _, child := range item.children {
		paths = append(paths, t.collectPaths(child)...)
	}
	return paths
}

// ignoreMatcher applies a practical subset of gitignore pattern matching.
type ignoreMatcher struct {
	patterns []string
}

func newIgnoreMatcher(path string) *ignoreMatcher {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if len(patterns) == 0 {
		return nil
	}
	return &ignoreMatcher{patterns: patterns}
}

// Match reports whether a root-relative path is ignored.
func (m *ignoreMatcher) Match(path string, dir bool) bool {
	if m == nil {
		return false
	}
	normalized := filepath.ToSlash(path)
	for _, pattern := range m.patterns {
		pat := pattern
		negate := false
		if strings.HasPrefix(pat, "!") {
			negate = true
			pat = strings.TrimPrefix(pat, "!")
		}
		dirOnly := strings.HasSuffix(pat, "/")
		pat = strings.TrimSuffix(pat, "/")
		pat = strings.TrimPrefix(pat, "/")
		if dirOnly && !dir {
			continue
		}

		matched, _ := filepath.Match(pat, normalized)
		if !matched {
			// Patterns without a slash apply at every level.
			if !strings.Contains(pat, "/") {
				matched, _ = filepath.Match(pat, filepath.Base(normalized))
			} else {
				matched = strings.HasPrefix(normalized, pat+"/") || normalized == pat
			}
		}
		if matched {
			return !negate
		}
	}
	return false
}
