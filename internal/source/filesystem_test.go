package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestFilesystemFetch_MarkdownTitleFromHeading(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes/meeting.md", "# Weekly Sync\n\nDiscussed the roadmap.\n")

	adapter := NewFilesystemAdapter(root)
	doc, err := adapter.Fetch(context.Background(), "owner-a", "notes/meeting.md")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if doc.Title != "Weekly Sync" {
		t.Errorf("Title: expected %q, got %q", "Weekly Sync", doc.Title)
	}
	if doc.Type != TypeFilesystem {
		t.Errorf("Type: expected %q, got %q", TypeFilesystem, doc.Type)
	}
	if doc.Path != "notes/meeting.md" {
		t.Errorf("Path: expected %q, got %q", "notes/meeting.md", doc.Path)
	}
	if doc.Text == "" {
		t.Error("Text must carry the raw file content")
	}
}

func TestFilesystemFetch_PlainTextTitleFromFilename(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "todo.txt", "buy milk\n")

	adapter := NewFilesystemAdapter(root)
	doc, err := adapter.Fetch(context.Background(), "owner-a", "todo.txt")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if doc.Title != "todo" {
		t.Errorf("Title: expected %q, got %q", "todo", doc.Title)
	}
}

func TestFilesystemFetch_MissingFile(t *testing.T) {
	adapter := NewFilesystemAdapter(t.TempDir())

	_, err := adapter.Fetch(context.Background(), "owner-a", "nope.md")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestFilesystemFetch_RejectsEscapingReference(t *testing.T) {
	adapter := NewFilesystemAdapter(t.TempDir())

	_, err := adapter.Fetch(context.Background(), "owner-a", "../../etc/passwd")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for escaping reference, got %v", err)
	}
}

func TestFilesystemList(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "# A\n")
	writeFile(t, root, "sub/b.txt", "b\n")
	writeFile(t, root, "sub/ignored.png", "binary")
	writeFile(t, root, ".hidden/c.md", "# C\n")

	adapter := NewFilesystemAdapter(root)
	refs, err := adapter.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(refs) != 2 {
		t.Fatalf("Expected 2 references, got %d: %v", len(refs), refs)
	}
	want := map[string]bool{"a.md": true, "sub/b.txt": true}
	for _, ref := range refs {
		if !want[ref] {
			t.Errorf("Unexpected reference %q", ref)
		}
	}
}

func TestFirstHeading_NoHeadings(t *testing.T) {
	if got := firstHeading([]byte("just prose, no structure")); got != "" {
		t.Errorf("Expected empty title, got %q", got)
	}
}
