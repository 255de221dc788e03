package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	// MediaDir holds downloaded media shared by every mode
	MediaDir = "media"
	// PostsDir holds one standalone page per archived post
	PostsDir = "posts"
)

// Manager owns the archive tree under one location: the media and posts
// directories and the per-mode archive documents.
type Manager struct {
	root  string
	media map[string]string // name without extension -> file name
	mu    sync.RWMutex
}

// NewManager prepares the archive tree. Existing directories and files are
// left untouched.
func NewManager(root string) (*Manager, error) {
	for _, dir := range []string{MediaDir, PostsDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}

	manager := &Manager{
		root:  root,
		media: make(map[string]string),
	}

	if err := manager.scanExistingMedia(); err != nil {
		return nil, fmt.Errorf("failed to scan existing media: %w", err)
	}

	return manager, nil
}

// scanExistingMedia indexes media saved by earlier runs
func (m *Manager) scanExistingMedia() error {
	entries, err := os.ReadDir(filepath.Join(m.root, MediaDir))
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasSuffix(name, ".tmp") {
			continue
		}
		m.media[stem(name)] = name
	}

	return nil
}

// FindMedia returns the saved file name for a media stem such as
// "abc123_0", whatever extension it was saved with.
func (m *Manager) FindMedia(mediaStem string) (string, bool) {
	m.mu.RLock()
	name, ok := m.media[mediaStem]
	m.mu.RUnlock()
	return name, ok
}

// SaveMedia stores one media file and returns its reference relative to
// the archive root.
func (m *Manager) SaveMedia(r io.Reader, name string) (string, error) {
	path := filepath.Join(m.root, MediaDir, name)
	if err := writeAtomic(path, r, 0644); err != nil {
		return "", fmt.Errorf("failed to save media %s: %w", name, err)
	}

	m.mu.Lock()
	m.media[stem(name)] = name
	m.mu.Unlock()

	return MediaRef(name), nil
}

// WritePost writes the standalone page for one post, replacing any
// previous page with the same identifier.
func (m *Manager) WritePost(id, page string) error {
	if err := WriteFile(m.PostPath(id), []byte(page), 0644); err != nil {
		return fmt.Errorf("failed to write post page %s: %w", id, err)
	}
	return nil
}

// WriteDocument replaces an archive document in one rename
func (m *Manager) WriteDocument(file, content string) error {
	if err := WriteFile(m.DocumentPath(file), []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write archive %s: %w", file, err)
	}
	return nil
}

// Root returns the archive location
func (m *Manager) Root() string {
	return m.root
}

// DocumentPath returns the path of an archive document
func (m *Manager) DocumentPath(file string) string {
	return filepath.Join(m.root, file)
}

// PostPath returns the path of a post's standalone page
func (m *Manager) PostPath(id string) string {
	return filepath.Join(m.root, PostsDir, id+".html")
}

// MediaCount returns the number of media files known to the manager
func (m *Manager) MediaCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.media)
}

// MediaRef is the reference used inside archive HTML for a media file
func MediaRef(name string) string {
	return MediaDir + "/" + name
}

// WriteFile writes data to a uniquely named temporary sibling and renames
// it over path, so readers see either the old or the new content.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	return writeAtomic(path, bytes.NewReader(data), perm)
}

func writeAtomic(path string, r io.Reader, perm os.FileMode) error {
	tempFile := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())
	out, err := os.OpenFile(tempFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	if err == nil {
		err = out.Sync()
	}
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
