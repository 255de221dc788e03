package ledger

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"redditarchive/pkg/logger"
	"redditarchive/pkg/storage"
)

// Ledger is the plain-text list of posts that looked private when the
// user's comments were archived. One identifier per line.
type Ledger struct {
	path   string
	logger logger.Logger
}

// New returns a ledger backed by path. A relative path is resolved against
// the process working directory, not the archive location.
func New(path string, log logger.Logger) *Ledger {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Ledger{path: path, logger: log}
}

// Path returns the ledger file path
func (l *Ledger) Path() string {
	return l.path
}

// IDs returns the identifiers in file order. A missing file is an empty
// ledger.
func (l *Ledger) IDs() ([]string, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	var ids []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if id := strings.TrimSpace(scanner.Text()); id != "" {
			ids = append(ids, id)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse ledger: %w", err)
	}
	return ids, nil
}

// Contains reports whether id is recorded
func (l *Ledger) Contains(id string) (bool, error) {
	ids, err := l.IDs()
	if err != nil {
		return false, err
	}
	for _, existing := range ids {
		if existing == id {
			return true, nil
		}
	}
	return false, nil
}

// Add appends id unless it is already present. It reports whether the
// file changed.
func (l *Ledger) Add(id string) (bool, error) {
	present, err := l.Contains(id)
	if err != nil {
		return false, err
	}
	if present {
		return false, nil
	}

	prefix := ""
	if data, err := os.ReadFile(l.path); err == nil && len(data) > 0 && data[len(data)-1] != '\n' {
		prefix = "\n"
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return false, fmt.Errorf("failed to open ledger: %w", err)
	}
	if _, err := file.WriteString(prefix + id + "\n"); err != nil {
		file.Close()
		return false, fmt.Errorf("failed to append to ledger: %w", err)
	}
	if err := file.Close(); err != nil {
		return false, fmt.Errorf("failed to close ledger: %w", err)
	}

	l.logger.DebugWithFields("Ledger entry added", map[string]interface{}{
		"id":   id,
		"path": l.path,
	})
	return true, nil
}

// Remove deletes every line equal to id and rewrites the file in one
// rename. It reports whether anything was removed.
func (l *Ledger) Remove(id string) (bool, error) {
	ids, err := l.IDs()
	if err != nil {
		return false, err
	}

	kept := make([]string, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(ids) {
		return false, nil
	}

	var buf strings.Builder
	for _, existing := range kept {
		buf.WriteString(existing)
		buf.WriteByte('\n')
	}
	if err := storage.WriteFile(l.path, []byte(buf.String()), 0644); err != nil {
		return false, fmt.Errorf("failed to rewrite ledger: %w", err)
	}

	l.logger.DebugWithFields("Ledger entry removed", map[string]interface{}{
		"id":        id,
		"remaining": len(kept),
	})
	return true, nil
}
