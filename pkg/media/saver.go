package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"redditarchive/pkg/logger"
	"redditarchive/pkg/models"
	"redditarchive/pkg/ratelimit"
	"redditarchive/pkg/storage"
)

// Downloader fetches a remote resource and reports its content type
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, string, error)
}

// Store is the part of the archive tree the saver writes into
type Store interface {
	FindMedia(stem string) (string, bool)
	SaveMedia(r io.Reader, name string) (string, error)
}

// Options tune which candidates are downloaded
type Options struct {
	SkipVideos bool
}

// Saver downloads the media of archived posts into the media directory
type Saver struct {
	downloader Downloader
	store      Store
	limiter    ratelimit.Limiter
	opts       Options
	logger     logger.Logger
}

// NewSaver creates a media saver. limiter paces downloads and may be nil.
func NewSaver(downloader Downloader, store Store, limiter ratelimit.Limiter, opts Options, log logger.Logger) *Saver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Saver{
		downloader: downloader,
		store:      store,
		limiter:    limiter,
		opts:       opts,
		logger:     log,
	}
}

// Save downloads every media candidate of item and returns the local
// references of what is on disk, in candidate order. Candidate n is saved
// as <ID>_<n>.<ext> and is not downloaded again once present. Failures of
// single candidates are logged and skipped; only context cancellation is
// returned as an error.
func (s *Saver) Save(ctx context.Context, item models.Item) ([]string, error) {
	var refs []string

	for n, candidate := range item.Media {
		mediaStem := fmt.Sprintf("%s_%d", item.ID, n)
		log := s.logger.WithFields(map[string]interface{}{
			"item_id": item.ID,
			"url":     candidate.URL,
		})

		if name, ok := s.store.FindMedia(mediaStem); ok {
			log.Debug("Media already on disk")
			refs = append(refs, storage.MediaRef(name))
			continue
		}

		ref, err := s.saveCandidate(ctx, candidate, mediaStem)
		if err != nil {
			if ctx.Err() != nil {
				return refs, ctx.Err()
			}
			log.WithError(err).Warn("Media download failed")
			continue
		}
		if ref == "" {
			log.Debug("No media to save")
			continue
		}

		log.WithField("path", ref).Debug("Media saved")
		refs = append(refs, ref)
	}

	return refs, nil
}

func (s *Saver) saveCandidate(ctx context.Context, candidate models.MediaRef, mediaStem string) (string, error) {
	if candidate.Type == models.MediaPage {
		data, _, err := s.download(ctx, candidate.URL)
		if err != nil {
			return "", err
		}
		resolved, ok := s.fromPage(candidate.URL, data)
		if !ok {
			return "", nil
		}
		candidate = resolved
	}

	if candidate.Type == models.MediaVideo && s.opts.SkipVideos {
		return "", nil
	}

	data, contentType, err := s.download(ctx, candidate.URL)
	if err != nil {
		return "", err
	}

	ext, ok := extension(candidate.URL, contentType)
	if !ok {
		return "", fmt.Errorf("%s is not media (content type %q)", candidate.URL, contentType)
	}

	return s.store.SaveMedia(bytes.NewReader(data), mediaStem+ext)
}

func (s *Saver) download(ctx context.Context, rawURL string) ([]byte, string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, "", err
		}
	}
	return s.downloader.Download(ctx, rawURL)
}

// fromPage picks the preview media a linked page advertises through
// Open Graph or Twitter card tags.
func (s *Saver) fromPage(pageURL string, page []byte) (models.MediaRef, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return models.MediaRef{}, false
	}

	base, _ := url.Parse(pageURL)
	lookup := func(selectors ...string) string {
		for _, sel := range selectors {
			content, ok := doc.Find(sel).First().Attr("content")
			content = strings.TrimSpace(content)
			if !ok || content == "" {
				continue
			}
			if base == nil {
				return content
			}
			if u, err := base.Parse(content); err == nil {
				return u.String()
			}
		}
		return ""
	}

	if !s.opts.SkipVideos {
		if v := lookup(`meta[property="og:video:secure_url"]`, `meta[property="og:video:url"]`, `meta[property="og:video"]`); v != "" {
			return models.MediaRef{URL: v, Type: models.MediaVideo}, true
		}
	}
	if img := lookup(`meta[property="og:image:secure_url"]`, `meta[property="og:image"]`, `meta[name="twitter:image"]`); img != "" {
		return models.MediaRef{URL: img, Type: models.MediaImage}, true
	}
	return models.MediaRef{}, false
}

var knownExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".mp4": true, ".webm": true, ".mov": true,
}

var typeExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"video/quicktime": ".mov",
}

// extension chooses the file extension for downloaded media. A declared
// content type that is neither image nor video rejects the download.
func extension(rawURL, contentType string) (string, bool) {
	mediaType := ""
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			mediaType = strings.ToLower(mt)
		}
	}
	if mediaType != "" && !strings.HasPrefix(mediaType, "image/") && !strings.HasPrefix(mediaType, "video/") {
		return "", false
	}

	if u, err := url.Parse(rawURL); err == nil {
		if ext := strings.ToLower(path.Ext(u.Path)); knownExtensions[ext] {
			return ext, true
		}
	}

	if ext, ok := typeExtensions[mediaType]; ok {
		return ext, true
	}
	if mediaType != "" {
		if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
			return exts[0], true
		}
	}
	return "", false
}
