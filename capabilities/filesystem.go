package capabilities

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adeptdev/adept/tools"
)

// FileSystem exposes read/write access to a directory subtree along with a
// lazily-expandable directory listing that is folded into the system prompt.
type FileSystem struct {
	Base
	root string
	tree *DirectoryTree
}

// FileSystemOption configures a FileSystem capability.
type FileSystemOption func(*fsConfig)

type fsConfig struct {
	initialDepth     int
	respectGitignore bool
}

// WithInitialDepth sets how many directory levels the initial listing
// descends. Deeper directories appear collapsed until expanded.
func WithInitialDepth(depth int) FileSystemOption {
	return func(c *fsConfig) { c.initialDepth = depth }
}

// WithGitignore controls whether a .gitignore at the root filters the
// listing. Enabled by default.
func WithGitignore(respect bool) FileSystemOption {
	return func(c *fsConfig) { c.respectGitignore = respect }
}

// NewFileSystem creates a filesystem capability rooted at root. All tool
// paths are interpreted relative to root and may not escape it.
func NewFileSystem(root string, enabled bool, opts ...FileSystemOption) (*FileSystem, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}

	cfg := fsConfig{initialDepth: 3, respectGitignore: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	fs := &FileSystem{
		Base: NewBase("file_system", "Read and write files in the working directory", enabled),
		root: absRoot,
		tree: NewDirectoryTree(absRoot, cfg.initialDepth, cfg.respectGitignore),
	}
	fs.SetInstructions([]string{
		"Use the filesystem tools to inspect and modify files.",
		"Paths are relative to the working directory.",
		"Expand collapsed directories before assuming their contents.",
	})
	fs.SetExamples([]string{
		`read_file(path="src/main.go")`,
		`create_file(path="docs/notes.md", content="# Notes\n")`,
		`expand_directory(path="src/internal")`,
	})
	return fs, nil
}

// resolve maps a tool-supplied relative path onto the root, rejecting
// absolute paths and any path that escapes the root.
func (f *FileSystem) resolve(path string) (string, error) {
	if filepath.IsAbs(path) {
		return "", tools.NewToolError("path %s must be relative to the working directory", path)
	}
	full := filepath.Clean(filepath.Join(f.root, path))
	rel, err := filepath.Rel(f.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", tools.NewToolError("path %s is outside the working directory", path)
	}
	return full, nil
}

type readFileArgs struct {
	Path string `json:"path" jsonschema:"required" jsonschema_description:"File path relative to the working directory"`
}

type createFileArgs struct {
	Path    string `json:"path" jsonschema:"required" jsonschema_description:"File path relative to the working directory"`
	Content string `json:"content" jsonschema:"required" jsonschema_description:"Full contents to write"`
}

type expandDirectoryArgs struct {
	Path string `json:"path" jsonschema:"required" jsonschema_description:"Directory path relative to the working directory"`
}

// Tools returns the filesystem tool set.
func (f *FileSystem) Tools(ctx context.Context) ([]tools.Tool, error) {
	return []tools.Tool{
		tools.FromStruct[readFileArgs](
			"read_file",
			"Read the contents of a file",
			f.readFile,
		),
		tools.FromStruct[createFileArgs](
			"create_file",
			"Create a new file with the given contents. DO NOT use to overwrite existing files",
			f.createFile,
		).WithPromptUpdate(),
		tools.FromStruct[expandDirectoryArgs](
			"expand_directory",
			"Expand a collapsed directory in the project listing",
			f.expandDirectory,
		).WithPromptUpdate(),
	}, nil
}

func (f *FileSystem) readFile(ctx context.Context, args readFileArgs) (string, error) {
	full, err := f.resolve(args.Path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", tools.NewToolError("file %s does not exist", args.Path)
		}
		return "", tools.NewToolError("reading %s: %v", args.Path, err)
	}
	return string(data), nil
}

func (f *FileSystem) createFile(ctx context.Context, args createFileArgs) (string, error) {
	full, err := f.resolve(args.Path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(full); err == nil {
		return "", tools.NewToolError("File already exists at %s", args.Path)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", tools.NewToolError("creating directories for %s: %v", args.Path, err)
	}
	if err := os.WriteFile(full, []byte(args.Content), 0o644); err != nil {
		return "", tools.NewToolError("writing %s: %v", args.Path, err)
	}
	// The listing changed; re-expand the parent so the new file shows up.
	f.tree.Expand(filepath.Dir(full))
	return fmt.Sprintf("Created %s", args.Path), nil
}

func (f *FileSystem) expandDirectory(ctx context.Context, args expandDirectoryArgs) (string, error) {
	full, err := f.resolve(args.Path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(full)
	if err != nil || !info.IsDir() {
		return "", tools.NewToolError("directory %s does not exist", args.Path)
	}
	if !f.tree.Expand(full) {
		return "", tools.NewToolError("directory %s is not part of the project listing", args.Path)
	}
	return fmt.Sprintf("Expanded %s", args.Path), nil
}

// ContextData renders the working directory and the current listing for the
// system prompt.
func (f *FileSystem) ContextData(ctx context.Context) (string, error) {
	var b strings.Builder
	b.WriteString("Working directory: ")
	b.WriteString(f.root)
	b.WriteString("\n\nProject files:\n")
	b.WriteString(f.tree.FormatAsPaths())
	return b.String(), nil
}
