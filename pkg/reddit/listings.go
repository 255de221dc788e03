package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	errs "redditarchive/pkg/errors"
	"redditarchive/pkg/models"
)

// Saved returns the user's saved posts and saved comments, newest first
func (c *Client) Saved(ctx context.Context) ([]models.Item, []models.Item, error) {
	var posts, comments []models.Item
	err := c.walkListing(ctx, ListingSaved, func(th Thing) error {
		switch th.Kind {
		case KindLink:
			link, err := decodeLink(th)
			if err != nil {
				return err
			}
			posts = append(posts, link.Item())
		case KindComment:
			comment, err := decodeComment(th)
			if err != nil {
				return err
			}
			comments = append(comments, comment.Item())
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch saved items: %w", err)
	}
	return posts, comments, nil
}

// Upvoted returns the user's upvoted posts, newest first
func (c *Client) Upvoted(ctx context.Context) ([]models.Item, error) {
	posts, err := c.links(ctx, ListingUpvoted)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch upvoted posts: %w", err)
	}
	return posts, nil
}

// Submitted returns the posts the user authored, newest first
func (c *Client) Submitted(ctx context.Context) ([]models.Item, error) {
	posts, err := c.links(ctx, ListingSubmitted)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submitted posts: %w", err)
	}
	return posts, nil
}

// CommentedPosts returns the posts the user has commented on, in the
// order of the user's most recent comment on each. Posts Reddit no longer
// serves come back with the comment's link title and an empty URL.
func (c *Client) CommentedPosts(ctx context.Context) ([]models.Item, error) {
	var order []string
	titles := make(map[string]string)
	permalinks := make(map[string]string)

	err := c.walkListing(ctx, ListingComments, func(th Thing) error {
		if th.Kind != KindComment {
			return nil
		}
		comment, err := decodeComment(th)
		if err != nil {
			return err
		}
		id := SplitFullname(comment.LinkID)
		if id == "" {
			return nil
		}
		if _, seen := titles[id]; !seen {
			order = append(order, id)
			titles[id] = comment.LinkTitle
			permalinks[id] = PermalinkURL(comment.LinkPermalink)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comments: %w", err)
	}

	links, err := c.infoLinks(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve commented posts: %w", err)
	}

	items := make([]models.Item, 0, len(order))
	for _, id := range order {
		if link, ok := links[id]; ok {
			items = append(items, link.Item())
			continue
		}
		items = append(items, models.Item{
			ID:        id,
			Kind:      models.KindPost,
			Title:     titles[id],
			Permalink: permalinks[id],
		})
	}
	return items, nil
}

// PostsByID looks posts up by id, keeping the given order. Posts Reddit
// does not return are reported with the id as title and an empty URL.
func (c *Client) PostsByID(ctx context.Context, ids []string) ([]models.Item, error) {
	links, err := c.infoLinks(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to look up posts: %w", err)
	}

	items := make([]models.Item, 0, len(ids))
	for _, id := range ids {
		id = SplitFullname(id)
		if link, ok := links[id]; ok {
			items = append(items, link.Item())
			continue
		}
		items = append(items, models.Item{ID: id, Kind: models.KindPost, Title: id})
	}
	return items, nil
}

// Identity returns the name of the authenticated account
func (c *Client) Identity(ctx context.Context) (string, error) {
	var me struct {
		Name string `json:"name"`
	}
	if err := c.getJSON(ctx, "/api/v1/me", nil, &me); err != nil {
		return "", fmt.Errorf("failed to fetch identity: %w", err)
	}
	return me.Name, nil
}

func (c *Client) links(ctx context.Context, listing string) ([]models.Item, error) {
	var posts []models.Item
	err := c.walkListing(ctx, listing, func(th Thing) error {
		if th.Kind != KindLink {
			return nil
		}
		link, err := decodeLink(th)
		if err != nil {
			return err
		}
		posts = append(posts, link.Item())
		return nil
	})
	return posts, err
}

// walkListing pages through a user listing with the after cursor
func (c *Client) walkListing(ctx context.Context, listing string, fn func(Thing) error) error {
	if c.opts.Username == "" {
		return errs.New(errs.ErrorTypeAuth, 0, "no username configured")
	}

	path := UserListingPath(c.opts.Username, listing)
	after := ""
	for page := 1; ; page++ {
		params := map[string]string{
			"limit":    strconv.Itoa(ListingLimit),
			"raw_json": "1",
		}
		if after != "" {
			params["after"] = after
		}

		var l Listing
		if err := c.getJSON(ctx, path, params, &l); err != nil {
			return err
		}

		c.logger.DebugWithFields("listing page fetched", map[string]interface{}{
			"listing": listing,
			"page":    page,
			"items":   len(l.Data.Children),
		})

		for _, th := range l.Data.Children {
			if err := fn(th); err != nil {
				return err
			}
		}

		if l.Data.After == "" || len(l.Data.Children) == 0 {
			return nil
		}
		after = l.Data.After
	}
}

// infoLinks resolves post ids through /api/info in batches
func (c *Client) infoLinks(ctx context.Context, ids []string) (map[string]*Link, error) {
	found := make(map[string]*Link, len(ids))
	for start := 0; start < len(ids); start += InfoBatchSize {
		end := start + InfoBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		names := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			names = append(names, Fullname(KindLink, SplitFullname(id)))
		}

		var l Listing
		params := map[string]string{
			"id":       strings.Join(names, ","),
			"raw_json": "1",
		}
		if err := c.getJSON(ctx, InfoEndpoint, params, &l); err != nil {
			return nil, err
		}

		for _, th := range l.Data.Children {
			if th.Kind != KindLink {
				continue
			}
			link, err := decodeLink(th)
			if err != nil {
				return nil, err
			}
			found[link.ID] = link
		}
	}
	return found, nil
}

func decodeLink(th Thing) (*Link, error) {
	var link Link
	if err := json.Unmarshal(th.Data, &link); err != nil {
		return nil, errs.New(errs.ErrorTypeParsing, 0, "failed to decode link: %v", err)
	}
	return &link, nil
}

func decodeComment(th Thing) (*Comment, error) {
	var comment Comment
	if err := json.Unmarshal(th.Data, &comment); err != nil {
		return nil, errs.New(errs.ErrorTypeParsing, 0, "failed to decode comment: %v", err)
	}
	return &comment, nil
}
