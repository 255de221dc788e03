// Package fragment recovers archived items from a previously written
// archive document.
//
// The document is the only persisted record of what has been archived.
// Each fragment carries its item identifier in an id attribute and is
// bounded by kind-specific markers, so a prior run's output can be read
// back without any side index.
package fragment

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

const (
	// PostStart opens every post fragment
	PostStart = `<div class="post"`
	// PostEnd closes every post fragment
	PostEnd = `<!--postend--></div>`
	// CommentStart opens every comment fragment
	CommentStart = `<div class="comment"`
	// CommentEnd closes every comment fragment
	CommentEnd = `<!--commentend--></div>`
)

var (
	idPattern      = regexp.MustCompile(`id="(.+?)"`)
	postPattern    = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(PostStart) + `.+?` + regexp.QuoteMeta(PostEnd))
	commentPattern = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(CommentStart) + `.+?` + regexp.QuoteMeta(CommentEnd))
)

// Store is the parsed state of one archive document
type Store struct {
	ids      []string
	known    map[string]struct{}
	posts    []string
	comments []string
	openings int
}

// Parse extracts identifiers and fragments from an archive document.
// Identifiers come from a single pass over both kinds; fragments keep
// document order.
func Parse(doc string) *Store {
	s := &Store{known: make(map[string]struct{})}

	for _, m := range idPattern.FindAllStringSubmatch(doc, -1) {
		id := m[1]
		if _, dup := s.known[id]; dup {
			continue
		}
		s.known[id] = struct{}{}
		s.ids = append(s.ids, id)
	}

	s.posts = postPattern.FindAllString(doc, -1)
	s.comments = commentPattern.FindAllString(doc, -1)
	s.openings = strings.Count(doc, PostStart) + strings.Count(doc, CommentStart)
	return s
}

// Load reads and parses the document at path. A document that does not
// exist yet yields an empty store.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Parse(""), nil
		}
		return nil, fmt.Errorf("failed to read archive %s: %w", path, err)
	}
	return Parse(string(data)), nil
}

// Has reports whether id was found anywhere in the document
func (s *Store) Has(id string) bool {
	_, ok := s.known[id]
	return ok
}

// IDs returns the recovered identifiers in first-seen order
func (s *Store) IDs() []string {
	return append([]string(nil), s.ids...)
}

// Posts returns the post fragments in document order
func (s *Store) Posts() []string {
	return append([]string(nil), s.posts...)
}

// Comments returns the comment fragments in document order
func (s *Store) Comments() []string {
	return append([]string(nil), s.comments...)
}

// Len returns the number of distinct identifiers
func (s *Store) Len() int {
	return len(s.ids)
}

// Empty reports whether nothing at all was recovered
func (s *Store) Empty() bool {
	return len(s.ids) == 0 && len(s.posts) == 0 && len(s.comments) == 0
}

// Incomplete reports whether the document opens more fragments than could
// be recovered, which happens when end markers are missing or damaged
func (s *Store) Incomplete() bool {
	return s.openings > len(s.posts)+len(s.comments)
}
