package archive

import (
	"context"

	"redditarchive/pkg/models"
)

// Renderer produces fragments and standalone pages
type Renderer interface {
	PostFragment(item models.Item) (string, error)
	CommentFragment(item models.Item) (string, error)
	AddMediaPreview(frag string, media []string) string
	Page(ctx context.Context, item models.Item, frag string) (string, error)
}

// MediaSaver stores the media of a post and returns local references
type MediaSaver interface {
	Save(ctx context.Context, item models.Item) ([]string, error)
}

// Ledger is the pending-private-post side file
type Ledger interface {
	IDs() ([]string, error)
	Add(id string) (bool, error)
	Remove(id string) (bool, error)
}

// Assets supplies the document shell and the inlined style and script
type Assets interface {
	Shell(outputFile string) (string, error)
	Style() (string, error)
	Script() (string, error)
}

// Storage is the archive tree under one location
type Storage interface {
	WritePost(id, page string) error
	WriteDocument(file, content string) error
	DocumentPath(file string) string
}
