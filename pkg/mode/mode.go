// Package mode defines the closed set of archive modes. Each mode is data:
// where its items come from, which document it writes, and what happens
// to posts that cannot be resolved.
package mode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"redditarchive/pkg/models"
)

// ErrUnknownMode is returned by Lookup for names outside the table
var ErrUnknownMode = errors.New("unknown mode")

// Source is the remote capability the modes draw items from
type Source interface {
	Saved(ctx context.Context) (posts, comments []models.Item, err error)
	Upvoted(ctx context.Context) ([]models.Item, error)
	Submitted(ctx context.Context) ([]models.Item, error)
	CommentedPosts(ctx context.Context) ([]models.Item, error)
	PostsByID(ctx context.Context, ids []string) ([]models.Item, error)
}

// PendingList is the read side of the private-post ledger
type PendingList interface {
	IDs() ([]string, error)
}

// Env carries what a fetch strategy may use
type Env struct {
	Source  Source
	Pending PendingList
}

// FetchFunc returns posts and comments in the order Reddit lists them
type FetchFunc func(ctx context.Context, env Env) (posts, comments []models.Item, err error)

// Policy decides what happens to posts without a URL and to the ledger
type Policy int

const (
	// PolicySkip drops unresolvable posts silently
	PolicySkip Policy = iota
	// PolicyLedgerAppend records unresolvable posts in the ledger
	PolicyLedgerAppend
	// PolicyLedgerRecover removes resolved posts from the ledger
	PolicyLedgerRecover
)

func (p Policy) String() string {
	switch p {
	case PolicySkip:
		return "skip"
	case PolicyLedgerAppend:
		return "ledger-append"
	case PolicyLedgerRecover:
		return "ledger-recover"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Mode is one row of the strategy table
type Mode struct {
	Name        string
	Description string
	OutputFile  string
	Fetch       FetchFunc
	Unresolved  Policy
	// Comments is set for modes whose fetch also yields comments
	Comments bool
}

const (
	Saved                             = "saved"
	Upvoted                           = "upvoted"
	MyPosts                           = "my_posts"
	PostsContainingMyComments         = "posts_containing_my_comments"
	PrivatePostsContainingMyComments  = "private_posts_containing_my_comments"
	postsContainingMyCommentsDocument = "posts_containing_my_comments.html"
)

var table = []Mode{
	{
		Name:        Saved,
		Description: "posts and comments you saved",
		OutputFile:  "saved.html",
		Fetch: func(ctx context.Context, env Env) ([]models.Item, []models.Item, error) {
			return env.Source.Saved(ctx)
		},
		Comments: true,
	},
	{
		Name:        Upvoted,
		Description: "posts you upvoted",
		OutputFile:  "upvoted.html",
		Fetch:       postsOnly(func(ctx context.Context, s Source) ([]models.Item, error) { return s.Upvoted(ctx) }),
	},
	{
		Name:        MyPosts,
		Description: "posts you submitted",
		OutputFile:  "my_posts.html",
		Fetch:       postsOnly(func(ctx context.Context, s Source) ([]models.Item, error) { return s.Submitted(ctx) }),
	},
	{
		Name:        PostsContainingMyComments,
		Description: "posts you commented on",
		OutputFile:  postsContainingMyCommentsDocument,
		Fetch:       postsOnly(func(ctx context.Context, s Source) ([]models.Item, error) { return s.CommentedPosts(ctx) }),
		Unresolved:  PolicyLedgerAppend,
	},
	{
		Name:        PrivatePostsContainingMyComments,
		Description: "commented posts that were private on an earlier run",
		OutputFile:  postsContainingMyCommentsDocument,
		Fetch:       fetchPending,
		Unresolved:  PolicyLedgerRecover,
	},
}

func postsOnly(fetch func(context.Context, Source) ([]models.Item, error)) FetchFunc {
	return func(ctx context.Context, env Env) ([]models.Item, []models.Item, error) {
		posts, err := fetch(ctx, env.Source)
		return posts, nil, err
	}
}

func fetchPending(ctx context.Context, env Env) ([]models.Item, []models.Item, error) {
	if env.Pending == nil {
		return nil, nil, nil
	}
	ids, err := env.Pending.IDs()
	if err != nil {
		return nil, nil, err
	}
	if len(ids) == 0 {
		return nil, nil, nil
	}
	posts, err := env.Source.PostsByID(ctx, ids)
	return posts, nil, err
}

// Lookup returns the mode with the given name
func Lookup(name string) (Mode, error) {
	for _, m := range table {
		if m.Name == name {
			return m, nil
		}
	}
	return Mode{}, fmt.Errorf("%w %q (choose from %s)", ErrUnknownMode, name, strings.Join(Names(), ", "))
}

// Names lists every mode in table order
func Names() []string {
	names := make([]string, len(table))
	for i, m := range table {
		names[i] = m.Name
	}
	return names
}

// All returns a copy of the table
func All() []Mode {
	return append([]Mode(nil), table...)
}
