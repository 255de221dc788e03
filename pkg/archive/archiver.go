package archive

import (
	"context"
	"errors"
	"fmt"
	"io"

	"redditarchive/pkg/fragment"
	"redditarchive/pkg/logger"
	"redditarchive/pkg/mode"
	"redditarchive/pkg/retry"
	"redditarchive/pkg/ui"
)

// Deps are the collaborators of an archive run. Media may be nil to
// archive without media; everything else is required.
type Deps struct {
	Source   mode.Source
	Renderer Renderer
	Media    MediaSaver
	Ledger   Ledger
	Assets   Assets
	Storage  Storage
	Retry    *retry.Config
	Console  *ui.Console
	Logger   logger.Logger
}

// Result summarizes one run
type Result struct {
	Mode          string
	Document      string
	NewPosts      int
	NewComments   int
	TotalPosts    int
	TotalComments int
}

// Archiver runs modes against one archive location
type Archiver struct {
	deps Deps
}

// New checks deps and returns an archiver
func New(deps Deps) (*Archiver, error) {
	switch {
	case deps.Source == nil:
		return nil, errors.New("archive: source is required")
	case deps.Renderer == nil:
		return nil, errors.New("archive: renderer is required")
	case deps.Ledger == nil:
		return nil, errors.New("archive: ledger is required")
	case deps.Assets == nil:
		return nil, errors.New("archive: assets are required")
	case deps.Storage == nil:
		return nil, errors.New("archive: storage is required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.GetLogger()
	}
	if deps.Console == nil {
		deps.Console = ui.NewConsole(io.Discard, true)
	}
	return &Archiver{deps: deps}, nil
}

// Run fetches the mode's items, archives the new ones and rewrites the
// mode's document. The document is only replaced once everything else
// succeeded; on error the previous document is left as it was.
func (a *Archiver) Run(ctx context.Context, m mode.Mode) (*Result, error) {
	log := a.deps.Logger.WithField("mode", m.Name)
	console := a.deps.Console

	posts, comments, err := m.Fetch(ctx, mode.Env{Source: a.deps.Source, Pending: a.deps.Ledger})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", m.Name, err)
	}
	log.InfoWithFields("Fetched items", map[string]interface{}{
		"posts":    len(posts),
		"comments": len(comments),
	})

	docPath := a.deps.Storage.DocumentPath(m.OutputFile)
	prior, err := loadPrior(docPath, log)
	if err != nil {
		return nil, err
	}

	pipeline := newPipeline(a.deps, m.Unresolved)

	newPosts := Select(posts, prior)
	if len(newPosts) == 0 {
		console.Println("No new saved posts")
	} else {
		log.WithField("count", len(newPosts)).Info("New posts")
	}
	postFragments, err := pipeline.Posts(ctx, newPosts)
	if err != nil {
		return nil, err
	}

	newComments := Select(comments, prior)
	if m.Comments {
		if len(newComments) == 0 {
			console.Println("No new saved comments")
		} else {
			log.WithField("count", len(newComments)).Info("New comments")
		}
	}
	commentFragments, err := pipeline.Comments(ctx, newComments)
	if err != nil {
		return nil, err
	}

	allPosts := Merge(postFragments, prior.Posts())
	allComments := Merge(commentFragments, prior.Comments())

	doc, err := a.emit(m.OutputFile, allPosts, allComments)
	if err != nil {
		return nil, err
	}
	if err := a.deps.Storage.WriteDocument(m.OutputFile, doc); err != nil {
		return nil, err
	}

	result := &Result{
		Mode:          m.Name,
		Document:      docPath,
		NewPosts:      len(postFragments),
		NewComments:   len(commentFragments),
		TotalPosts:    len(allPosts),
		TotalComments: len(allComments),
	}
	log.InfoWithFields("Archive written", map[string]interface{}{
		"path":           docPath,
		"new_posts":      result.NewPosts,
		"new_comments":   result.NewComments,
		"total_posts":    result.TotalPosts,
		"total_comments": result.TotalComments,
	})
	return result, nil
}

func (a *Archiver) emit(outputFile string, posts, comments []string) (string, error) {
	shell, err := a.deps.Assets.Shell(outputFile)
	if err != nil {
		return "", err
	}
	style, err := a.deps.Assets.Style()
	if err != nil {
		return "", err
	}
	script, err := a.deps.Assets.Script()
	if err != nil {
		return "", err
	}

	doc, err := Emit(shell, style, script, posts, comments)
	if err != nil {
		return "", fmt.Errorf("failed to build %s: %w", outputFile, err)
	}
	return doc, nil
}

// loadPrior parses the previous document. Fragments that cannot be
// recovered are reported but the run goes on with what was found.
func loadPrior(path string, log logger.Logger) (*fragment.Store, error) {
	store, err := fragment.Load(path)
	if err != nil {
		return nil, err
	}
	if store.Incomplete() {
		log.WarnWithFields("Prior archive has fragments that could not be recovered", map[string]interface{}{
			"path":     path,
			"posts":    len(store.Posts()),
			"comments": len(store.Comments()),
		})
	}
	return store, nil
}
