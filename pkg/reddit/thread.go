package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"redditarchive/pkg/models"
)

const (
	// ThreadDepth limits how deep a post's comment tree is fetched
	ThreadDepth = 4
	// ThreadLimit limits how many comments a post's page shows
	ThreadLimit = 200
)

type threadComment struct {
	Comment
	Replies json.RawMessage `json:"replies"`
}

// Thread returns the comment tree of a post, best comments first. Reddit
// answers with two listings: the post itself and its comments.
func (c *Client) Thread(ctx context.Context, postID string) ([]models.Thread, error) {
	var listings []Listing
	params := map[string]string{
		"depth":    strconv.Itoa(ThreadDepth),
		"limit":    strconv.Itoa(ThreadLimit),
		"sort":     "top",
		"raw_json": "1",
	}
	if err := c.getJSON(ctx, "/comments/"+SplitFullname(postID), params, &listings); err != nil {
		return nil, fmt.Errorf("failed to fetch comments of %s: %w", postID, err)
	}
	if len(listings) < 2 {
		return nil, nil
	}
	return decodeThreads(listings[1].Data.Children)
}

func decodeThreads(children []Thing) ([]models.Thread, error) {
	var threads []models.Thread
	for _, th := range children {
		// "more" placeholders are not expanded
		if th.Kind != KindComment {
			continue
		}

		var tc threadComment
		if err := json.Unmarshal(th.Data, &tc); err != nil {
			return nil, fmt.Errorf("failed to decode comment: %w", err)
		}

		thread := models.Thread{Comment: tc.Comment.Item()}

		// Replies is an empty string when there are none
		if len(tc.Replies) > 0 && tc.Replies[0] == '{' {
			var replies Listing
			if err := json.Unmarshal(tc.Replies, &replies); err != nil {
				return nil, fmt.Errorf("failed to decode replies: %w", err)
			}
			nested, err := decodeThreads(replies.Data.Children)
			if err != nil {
				return nil, err
			}
			thread.Replies = nested
		}

		threads = append(threads, thread)
	}
	return threads, nil
}
