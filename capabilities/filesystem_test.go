package capabilities

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adeptdev/adept/tools"
)

func newTestFS(t *testing.T) (*FileSystem, string) {
	t.Helper()
	root := setupTestProject(t)
	fs, err := NewFileSystem(root, true)
	if err != nil {
		t.Fatal(err)
	}
	return fs, root
}

func findTool(t *testing.T, cap Capability, name string) tools.Tool {
	t.Helper()
	list, err := cap.Tools(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, tool := range list {
		if tool.Name == name {
			return tool
		}
	}
	t.Fatalf("tool %s not found", name)
	return tools.Tool{}
}

func TestReadFile(t *testing.T) {
	fs, _ := newTestFS(t)
	readFile := findTool(t, fs, "read_file")

	result, err := readFile.Call(context.Background(), map[string]any{"path": "main.go"})
	if err != nil {
		t.Fatalf("Expected read to succeed, got %v", err)
	}
	if result != "package main\n" {
		t.Errorf("Expected file contents, got %q", result)
	}
}

func TestReadFileMissing(t *testing.T) {
	fs, _ := newTestFS(t)
	readFile := findTool(t, fs, "read_file")

	_, err := readFile.Call(context.Background(), map[string]any{"path": "nope.go"})
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !strings.Contains(err.Error(), "nope.go") {
		t.Errorf("Expected error to name the path, got %v", err)
	}
}

func TestPathEscapeRejected(t *testing.T) {
	fs, _ := newTestFS(t)
	readFile := findTool(t, fs, "read_file")

	for _, path := range []string{"../secrets.txt", "src/../../etc/passwd", "/etc/passwd"} {
		_, err := readFile.Call(context.Background(), map[string]any{"path": path})
		if err == nil {
			t.Errorf("Expected error for path %s", path)
			continue
		}
		if !strings.Contains(err.Error(), path) {
			t.Errorf("Expected error to name %s, got %v", path, err)
		}
	}
}

func TestCreateFile(t *testing.T) {
	fs, root := newTestFS(t)
	createFile := findTool(t, fs, "create_file")

	_, err := createFile.Call(context.Background(), map[string]any{
		"path":    "docs/notes.md",
		"content": "# Notes\n",
	})
	if err != nil {
		t.Fatalf("Expected create to succeed, got %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "docs", "notes.md"))
	if err != nil {
		t.Fatalf("Expected file on disk, got %v", err)
	}
	if string(data) != "# Notes\n" {
		t.Errorf("Expected written contents, got %q", data)
	}

	if !createFile.UpdatesSystemPrompt {
		t.Error("Expected create_file to update the system prompt")
	}
}

func TestCreateFileRejectsExisting(t *testing.T) {
	fs, root := newTestFS(t)
	createFile := findTool(t, fs, "create_file")

	_, err := createFile.Call(context.Background(), map[string]any{
		"path":    "main.go",
		"content": "overwritten\n",
	})
	if err == nil {
		t.Fatal("Expected error when target already exists")
	}
	if !strings.Contains(err.Error(), "already exists") || !strings.Contains(err.Error(), "main.go") {
		t.Errorf("Expected already-exists error naming the path, got %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "main.go"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == "overwritten\n" {
		t.Error("Expected existing file to be left untouched")
	}
}

func TestExpandDirectoryTool(t *testing.T) {
	root := setupTestProject(t)
	fs, err := NewFileSystem(root, true, WithInitialDepth(1))
	if err != nil {
		t.Fatal(err)
	}

	expandDir := findTool(t, fs, "expand_directory")

	if _, err := expandDir.Call(context.Background(), map[string]any{"path": "src"}); err != nil {
		t.Fatalf("Expected expansion to succeed, got %v", err)
	}

	ctxData, err := fs.ContextData(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ctxData, "src/deep/") {
		t.Errorf("Expected expanded listing in context data, got:\n%s", ctxData)
	}

	_, err = expandDir.Call(context.Background(), map[string]any{"path": "missing"})
	if err == nil {
		t.Fatal("Expected error for missing directory")
	}
	if !strings.Contains(err.Error(), "missing") {
		t.Errorf("Expected error to name the path, got %v", err)
	}
}

func TestContextDataShape(t *testing.T) {
	fs, root := newTestFS(t)

	ctxData, err := fs.ContextData(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ctxData, "Working directory: "+root) {
		t.Error("Expected working directory line")
	}
	if !strings.Contains(ctxData, "Project files:") {
		t.Error("Expected project files header")
	}
	if !strings.Contains(ctxData, "main.go") {
		t.Error("Expected file listing")
	}
}

func TestNewFileSystemRejectsFileRoot(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "plain.txt")
	writeTestFile(t, file, "x")

	if _, err := NewFileSystem(file, true); err == nil {
		t.Fatal("Expected error for non-directory root")
	}
}
