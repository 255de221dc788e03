package render

import (
	"context"
	"fmt"
	"html/template"
	"net/url"
	"path"
	"strings"
	"time"

	"redditarchive/pkg/fragment"
	"redditarchive/pkg/models"
)

// ThreadSource fetches a post's comment tree for its standalone page
type ThreadSource interface {
	Thread(ctx context.Context, postID string) ([]models.Thread, error)
}

// Renderer turns items into archive fragments and standalone pages
type Renderer struct {
	assets  *Assets
	threads ThreadSource
}

// New creates a renderer. threads may be nil, in which case pages carry no
// comments.
func New(assets *Assets, threads ThreadSource) *Renderer {
	if assets == nil {
		assets = NewAssets("")
	}
	return &Renderer{assets: assets, threads: threads}
}

type itemView struct {
	ID             string
	Title          string
	Body           template.HTML
	URL            string
	Domain         string
	External       bool
	Permalink      string
	PagePath       string
	Author         string
	Subreddit      string
	Score          int
	NumComments    int
	Over18         bool
	Created        string
	CreatedDisplay string
	LinkTitle      string
	LinkPermalink  string
	Search         string
}

func newItemView(item models.Item) itemView {
	v := itemView{
		ID:            item.ID,
		Title:         item.Title,
		Body:          trusted(item.Body),
		URL:           item.URL,
		External:      item.URL != "" && !item.IsSelf,
		Permalink:     item.Permalink,
		PagePath:      PagePath(item.ID),
		Author:        item.Author,
		Subreddit:     item.Subreddit,
		Score:         item.Score,
		NumComments:   item.NumComments,
		Over18:        item.Over18,
		LinkTitle:     item.LinkTitle,
		LinkPermalink: item.LinkPermalink,
		Search:        strings.ToLower(strings.Join([]string{item.Title, item.LinkTitle, item.Subreddit, item.Author}, " ")),
	}
	if u, err := url.Parse(item.URL); err == nil {
		v.Domain = strings.TrimPrefix(u.Hostname(), "www.")
	}
	if !item.CreatedUTC.IsZero() {
		v.Created = item.CreatedUTC.UTC().Format(time.RFC3339)
		v.CreatedDisplay = item.CreatedUTC.UTC().Format("2006-01-02 15:04")
	}
	return v
}

// PagePath is the link from an archive document to a post's page
func PagePath(id string) string {
	return "posts/" + id + ".html"
}

// PostFragment renders the archive entry of a post
func (r *Renderer) PostFragment(item models.Item) (string, error) {
	return execute("post", newItemView(item), fragment.PostEnd)
}

// CommentFragment renders the archive entry of a comment
func (r *Renderer) CommentFragment(item models.Item) (string, error) {
	return execute("comment", newItemView(item), fragment.CommentEnd)
}

type mediaView struct {
	Ref   string
	Video bool
}

var videoExtensions = map[string]bool{".mp4": true, ".webm": true, ".mov": true}

// AddMediaPreview inserts previews of locally saved media just before the
// fragment's end marker. Fragments without a post end marker are returned
// unchanged.
func (r *Renderer) AddMediaPreview(frag string, media []string) string {
	if len(media) == 0 {
		return frag
	}
	at := strings.LastIndex(frag, fragment.PostEnd)
	if at < 0 {
		return frag
	}

	views := make([]mediaView, len(media))
	for i, ref := range media {
		views[i] = mediaView{Ref: ref, Video: videoExtensions[strings.ToLower(path.Ext(ref))]}
	}

	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, "media", views); err != nil {
		return frag
	}
	return frag[:at] + b.String() + frag[at:]
}

type pageView struct {
	Title    string
	Style    template.CSS
	Fragment template.HTML
	Threads  []models.Thread
}

// Page renders the standalone page of a post around its fragment. It
// fetches the post's comments, so it can fail transiently.
func (r *Renderer) Page(ctx context.Context, item models.Item, frag string) (string, error) {
	style, err := r.assets.Style()
	if err != nil {
		return "", err
	}

	view := pageView{
		Title:    item.Title,
		Style:    template.CSS(style),
		Fragment: trusted(frag),
	}

	if r.threads != nil {
		threads, err := r.threads.Thread(ctx, item.ID)
		if err != nil {
			return "", fmt.Errorf("failed to render page for %s: %w", item.ID, err)
		}
		view.Threads = threads
	}

	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, "page", view); err != nil {
		return "", fmt.Errorf("failed to render page for %s: %w", item.ID, err)
	}
	return b.String(), nil
}

func execute(name string, data interface{}, end string) (string, error) {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	b.WriteString(end)
	return b.String(), nil
}
