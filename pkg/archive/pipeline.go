package archive

import (
	"context"
	"errors"
	"fmt"
	"io"

	"redditarchive/pkg/logger"
	"redditarchive/pkg/mode"
	"redditarchive/pkg/models"
	"redditarchive/pkg/retry"
	"redditarchive/pkg/ui"
)

// Pipeline turns new items into fragments, saving media and standalone
// pages for posts along the way. Items are handled one at a time in order.
type Pipeline struct {
	renderer Renderer
	media    MediaSaver
	ledger   Ledger
	storage  Storage
	retry    retry.Config
	policy   mode.Policy
	console  *ui.Console
	logger   logger.Logger
}

// Posts renders new posts. Posts without a URL are skipped; under the
// ledger-append policy they are recorded for a later recovery run. Under
// the recover policy a resolved post leaves the ledger once its page is
// written.
func (p *Pipeline) Posts(ctx context.Context, items []models.Item) ([]string, error) {
	progress := ui.NewProgress(p.console, "posts", len(items))
	defer progress.Done()

	var fragments []string
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frag, err := p.post(ctx, item, progress)
		if err != nil {
			return nil, err
		}
		if frag != "" {
			fragments = append(fragments, frag)
		}
		progress.Increment()
	}
	return fragments, nil
}

func (p *Pipeline) post(ctx context.Context, item models.Item, progress *ui.Progress) (string, error) {
	log := p.logger.WithField("post_id", item.ID)

	frag, err := p.renderer.PostFragment(item)
	if err != nil {
		return "", fmt.Errorf("failed to render post %s: %w", item.ID, err)
	}

	if !item.Resolvable() {
		if p.policy == mode.PolicyLedgerAppend {
			if _, err := p.ledger.Add(item.ID); err != nil {
				return "", err
			}
			progress.Println(`Private(?): "%s"`, item.Title)
		}
		log.Debug("Skipping post without URL")
		return "", nil
	}

	if p.media != nil {
		media, err := p.media.Save(ctx, item)
		if err != nil {
			return "", err
		}
		if len(media) > 0 {
			frag = p.renderer.AddMediaPreview(frag, media)
		}
	}

	cfg := p.retry
	cfg.Context = ctx
	cfg.Logger = log
	page, err := retry.DoWithResult(func() (string, error) {
		return p.renderer.Page(ctx, item, frag)
	}, &cfg)
	if err != nil {
		return "", fmt.Errorf("failed to render page for post %s: %w", item.ID, err)
	}

	if err := p.storage.WritePost(item.ID, page); err != nil {
		return "", err
	}

	// the entry stays until the page is on disk so a failed run can retry it
	if p.policy == mode.PolicyLedgerRecover {
		if _, err := p.ledger.Remove(item.ID); err != nil {
			return "", err
		}
		progress.Println(`Recovered: "%s"`, item.Title)
	}

	return frag, nil
}

// Comments renders new comments
func (p *Pipeline) Comments(ctx context.Context, items []models.Item) ([]string, error) {
	fragments := make([]string, 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frag, err := p.renderer.CommentFragment(item)
		if err != nil {
			return nil, fmt.Errorf("failed to render comment %s: %w", item.ID, err)
		}
		fragments = append(fragments, frag)
	}
	return fragments, nil
}

// retryPage retries every page failure except cancellation
func retryPage(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func newPipeline(d Deps, policy mode.Policy) *Pipeline {
	cfg := retry.Config{MaxAttempts: 5, Backoff: retry.DefaultExponentialBackoff()}
	if d.Retry != nil {
		cfg = *d.Retry
	}
	cfg.RetryIf = retryPage

	console := d.Console
	if console == nil {
		console = ui.NewConsole(io.Discard, true)
	}

	return &Pipeline{
		renderer: d.Renderer,
		media:    d.Media,
		ledger:   d.Ledger,
		storage:  d.Storage,
		retry:    cfg,
		policy:   policy,
		console:  console,
		logger:   d.Logger,
	}
}
