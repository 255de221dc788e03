package models

import "time"

// Kind distinguishes the two kinds of archived items
type Kind string

const (
	KindPost    Kind = "post"
	KindComment Kind = "comment"
)

// Item is a post or comment fetched from Reddit
type Item struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Title       string    `json:"title"`
	Body        string    `json:"body,omitempty"`
	URL         string    `json:"url,omitempty"`
	Permalink   string    `json:"permalink,omitempty"`
	Author      string    `json:"author,omitempty"`
	Subreddit   string    `json:"subreddit,omitempty"`
	Score       int       `json:"score"`
	NumComments int       `json:"num_comments"`
	IsSelf      bool      `json:"is_self"`
	Over18      bool      `json:"over_18"`
	CreatedUTC  time.Time `json:"created_utc"`

	// Media holds remote media candidates in preference order.
	Media []MediaRef `json:"media,omitempty"`

	// Set on comments only.
	LinkTitle     string `json:"link_title,omitempty"`
	LinkPermalink string `json:"link_permalink,omitempty"`
}

// Resolvable reports whether the item carries a URL. Posts that
// Reddit no longer returns (private or banned subreddits) come back
// without one.
func (i Item) Resolvable() bool {
	return i.URL != ""
}

// MediaType classifies a remote media candidate
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaPage  MediaType = "page"
)

// MediaRef is a remote media candidate attached to an item
type MediaRef struct {
	URL  string    `json:"url"`
	Type MediaType `json:"type"`
}

// Thread is one comment with its replies, as shown on a post's page
type Thread struct {
	Comment Item     `json:"comment"`
	Replies []Thread `json:"replies,omitempty"`
}
