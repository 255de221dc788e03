package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewManagerCreatesTree(t *testing.T) {
	root := t.TempDir()

	manager, err := NewManager(root)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	for _, dir := range []string{MediaDir, PostsDir} {
		info, err := os.Stat(filepath.Join(root, dir))
		if err != nil || !info.IsDir() {
			t.Errorf("Expected %s directory to exist", dir)
		}
	}
	if manager.MediaCount() != 0 {
		t.Error("Expected initial media count to be 0")
	}
}

func TestNewManagerKeepsExistingTree(t *testing.T) {
	root := t.TempDir()
	page := filepath.Join(root, PostsDir, "old.html")
	if err := os.MkdirAll(filepath.Dir(page), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(page, []byte("kept"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewManager(root); err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	content, err := os.ReadFile(page)
	if err != nil || string(content) != "kept" {
		t.Errorf("Expected existing page to survive, got %q, %v", content, err)
	}
}

func TestSaveMedia(t *testing.T) {
	root := t.TempDir()
	manager, err := NewManager(root)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if _, ok := manager.FindMedia("abc_0"); ok {
		t.Error("Expected FindMedia to miss before saving")
	}

	ref, err := manager.SaveMedia(strings.NewReader("png bytes"), "abc_0.png")
	if err != nil {
		t.Fatalf("Failed to save media: %v", err)
	}
	if ref != "media/abc_0.png" {
		t.Errorf("Unexpected media reference %q", ref)
	}

	content, err := os.ReadFile(filepath.Join(root, MediaDir, "abc_0.png"))
	if err != nil || string(content) != "png bytes" {
		t.Errorf("Saved content mismatch: %q, %v", content, err)
	}
	if leftovers, _ := filepath.Glob(filepath.Join(root, MediaDir, "*.tmp")); len(leftovers) != 0 {
		t.Errorf("Expected temporary files to be gone, found %v", leftovers)
	}

	name, ok := manager.FindMedia("abc_0")
	if !ok || name != "abc_0.png" {
		t.Errorf("Expected FindMedia to return abc_0.png, got %q", name)
	}
}

func TestScanExistingMedia(t *testing.T) {
	root := t.TempDir()
	mediaDir := filepath.Join(root, MediaDir)
	if err := os.MkdirAll(mediaDir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"x_0.jpg", "x_1.mp4", "partial.jpg.tmp"} {
		if err := os.WriteFile(filepath.Join(mediaDir, name), []byte("data"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	manager, err := NewManager(root)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if manager.MediaCount() != 2 {
		t.Errorf("Expected 2 media files after scanning, got %d", manager.MediaCount())
	}
	if name, ok := manager.FindMedia("x_1"); !ok || name != "x_1.mp4" {
		t.Errorf("Expected x_1.mp4, got %q", name)
	}
}

func TestWritePostOverwrites(t *testing.T) {
	root := t.TempDir()
	manager, err := NewManager(root)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := manager.WritePost("p1", "first"); err != nil {
		t.Fatal(err)
	}
	if err := manager.WritePost("p1", "second"); err != nil {
		t.Fatal(err)
	}

	content, err := os.ReadFile(manager.PostPath("p1"))
	if err != nil || string(content) != "second" {
		t.Errorf("Expected overwritten page, got %q, %v", content, err)
	}
	if manager.PostPath("p1") != filepath.Join(root, "posts", "p1.html") {
		t.Errorf("Unexpected post path %s", manager.PostPath("p1"))
	}
}

func TestWriteDocument(t *testing.T) {
	root := t.TempDir()
	manager, err := NewManager(root)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if err := manager.WriteDocument("saved.html", "<html></html>"); err != nil {
		t.Fatal(err)
	}
	content, err := os.ReadFile(filepath.Join(root, "saved.html"))
	if err != nil || string(content) != "<html></html>" {
		t.Errorf("Unexpected document %q, %v", content, err)
	}
}

func TestWriteFileMissingParent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "file.txt")
	if err := WriteFile(path, []byte("x"), 0644); err == nil {
		t.Error("Expected error for missing parent directory")
	}
}
