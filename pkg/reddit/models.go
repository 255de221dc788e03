package reddit

import (
	"encoding/json"
	"path"
	"strings"
	"time"

	"redditarchive/pkg/models"
)

// Listing is the envelope of every paginated Reddit response
type Listing struct {
	Kind string      `json:"kind"`
	Data ListingData `json:"data"`
}

// ListingData holds one page of things
type ListingData struct {
	After    string  `json:"after"`
	Children []Thing `json:"children"`
}

// Thing is a kind-tagged Reddit object whose data is decoded lazily
type Thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Link is a submission
type Link struct {
	ID           string                   `json:"id"`
	Name         string                   `json:"name"`
	Title        string                   `json:"title"`
	SelfTextHTML string                   `json:"selftext_html"`
	URL          string                   `json:"url"`
	Permalink    string                   `json:"permalink"`
	Author       string                   `json:"author"`
	Subreddit    string                   `json:"subreddit"`
	Domain       string                   `json:"domain"`
	PostHint     string                   `json:"post_hint"`
	Score        int                      `json:"score"`
	NumComments  int                      `json:"num_comments"`
	IsSelf       bool                     `json:"is_self"`
	IsGallery    bool                     `json:"is_gallery"`
	Over18       bool                     `json:"over_18"`
	CreatedUTC   float64                  `json:"created_utc"`
	SecureMedia  *Media                   `json:"secure_media"`
	GalleryData  *GalleryData             `json:"gallery_data"`
	MediaMeta    map[string]MediaMetadata `json:"media_metadata"`
}

// Comment is a comment as listed on a user page
type Comment struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	BodyHTML      string  `json:"body_html"`
	Permalink     string  `json:"permalink"`
	Author        string  `json:"author"`
	Subreddit     string  `json:"subreddit"`
	Score         int     `json:"score"`
	CreatedUTC    float64 `json:"created_utc"`
	LinkID        string  `json:"link_id"`
	LinkTitle     string  `json:"link_title"`
	LinkPermalink string  `json:"link_permalink"`
}

// Media carries Reddit-hosted video
type Media struct {
	RedditVideo *struct {
		FallbackURL string `json:"fallback_url"`
	} `json:"reddit_video"`
}

// GalleryData lists gallery images in display order
type GalleryData struct {
	Items []struct {
		MediaID string `json:"media_id"`
	} `json:"items"`
}

// MediaMetadata describes one gallery image
type MediaMetadata struct {
	Status string `json:"status"`
	Source struct {
		URL string `json:"u"`
		GIF string `json:"gif"`
		MP4 string `json:"mp4"`
	} `json:"s"`
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// Item converts a link into the archiver's item model
func (l *Link) Item() models.Item {
	return models.Item{
		ID:          l.ID,
		Kind:        models.KindPost,
		Title:       l.Title,
		Body:        l.SelfTextHTML,
		URL:         l.URL,
		Permalink:   PermalinkURL(l.Permalink),
		Author:      l.Author,
		Subreddit:   l.Subreddit,
		Score:       l.Score,
		NumComments: l.NumComments,
		IsSelf:      l.IsSelf,
		Over18:      l.Over18,
		CreatedUTC:  unixTime(l.CreatedUTC),
		Media:       l.mediaRefs(),
	}
}

// mediaRefs lists remote media in the order it should be saved
func (l *Link) mediaRefs() []models.MediaRef {
	if l.IsGallery && l.GalleryData != nil {
		var refs []models.MediaRef
		for _, entry := range l.GalleryData.Items {
			meta, ok := l.MediaMeta[entry.MediaID]
			if !ok || meta.Status != "valid" {
				continue
			}
			switch {
			case meta.Source.URL != "":
				refs = append(refs, models.MediaRef{URL: meta.Source.URL, Type: models.MediaImage})
			case meta.Source.GIF != "":
				refs = append(refs, models.MediaRef{URL: meta.Source.GIF, Type: models.MediaImage})
			case meta.Source.MP4 != "":
				refs = append(refs, models.MediaRef{URL: meta.Source.MP4, Type: models.MediaVideo})
			}
		}
		return refs
	}

	if l.SecureMedia != nil && l.SecureMedia.RedditVideo != nil && l.SecureMedia.RedditVideo.FallbackURL != "" {
		return []models.MediaRef{{URL: l.SecureMedia.RedditVideo.FallbackURL, Type: models.MediaVideo}}
	}

	if l.IsSelf || l.URL == "" {
		return nil
	}

	if l.PostHint == "image" || imageExtensions[strings.ToLower(path.Ext(urlPath(l.URL)))] {
		return []models.MediaRef{{URL: l.URL, Type: models.MediaImage}}
	}

	return []models.MediaRef{{URL: l.URL, Type: models.MediaPage}}
}

// Item converts a comment into the archiver's item model
func (c *Comment) Item() models.Item {
	return models.Item{
		ID:            c.ID,
		Kind:          models.KindComment,
		Title:         c.LinkTitle,
		Body:          c.BodyHTML,
		URL:           PermalinkURL(c.Permalink),
		Permalink:     PermalinkURL(c.Permalink),
		Author:        c.Author,
		Subreddit:     c.Subreddit,
		Score:         c.Score,
		CreatedUTC:    unixTime(c.CreatedUTC),
		LinkTitle:     c.LinkTitle,
		LinkPermalink: PermalinkURL(c.LinkPermalink),
	}
}

func unixTime(seconds float64) time.Time {
	if seconds <= 0 {
		return time.Time{}
	}
	return time.Unix(int64(seconds), 0).UTC()
}

func urlPath(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}
