package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"redditarchive/pkg/config"
	errs "redditarchive/pkg/errors"
	"redditarchive/pkg/logger"
	"redditarchive/pkg/retry"
)

// Options configures a Client for a Reddit "script" application
type Options struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
	AuthURL      string
	APIURL       string
	Timeout      time.Duration
	// MaxAttempts bounds retries of each API call (0 means unlimited)
	MaxAttempts int
	// MaxMediaSize rejects larger downloads (0 means no limit)
	MaxMediaSize int64
}

// OptionsFromConfig maps application configuration onto client options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ClientID:     cfg.Reddit.ClientID,
		ClientSecret: cfg.Reddit.ClientSecret,
		Username:     SanitizeUsername(cfg.Reddit.Username),
		Password:     cfg.Reddit.Password,
		UserAgent:    cfg.Reddit.UserAgent,
		AuthURL:      cfg.Reddit.AuthURL,
		APIURL:       cfg.Reddit.APIURL,
		Timeout:      cfg.Download.Timeout,
		MaxAttempts:  3,
		MaxMediaSize: cfg.Download.MaxMediaSize,
	}
}

// Limiter paces API calls and learns from the server's quota headers
type Limiter interface {
	Wait(ctx context.Context) error
	Observe(remaining int, reset time.Duration)
}

// Client talks to the Reddit OAuth API on behalf of one user
type Client struct {
	auth    *resty.Client
	api     *resty.Client
	media   *resty.Client
	opts    Options
	limiter Limiter
	logger  logger.Logger
	backoff *retry.ByErrorType

	token       string
	tokenExpiry time.Time
	now         func() time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
}

// NewClient creates a Reddit API client. limiter may be nil.
func NewClient(opts Options, limiter Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	newHTTP := func(baseURL string) *resty.Client {
		c := resty.New().
			SetTimeout(opts.Timeout).
			SetHeader("User-Agent", opts.UserAgent)
		if baseURL != "" {
			c.SetBaseURL(strings.TrimRight(baseURL, "/"))
		}
		return c
	}

	return &Client{
		auth:    newHTTP(opts.AuthURL),
		api:     newHTTP(opts.APIURL),
		media:   newHTTP(""),
		opts:    opts,
		limiter: limiter,
		logger:  log,
		backoff: retry.APIBackoff(),
		now:     time.Now,
	}
}

// Username returns the account whose activity is archived
func (c *Client) Username() string {
	return c.opts.Username
}

// authenticate fetches a bearer token with the password grant unless the
// cached one is still valid
func (c *Client) authenticate(ctx context.Context) error {
	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return nil
	}

	c.logger.DebugWithFields("requesting access token", map[string]interface{}{
		"username": c.opts.Username,
	})

	resp, err := c.auth.R().
		SetContext(ctx).
		SetBasicAuth(c.opts.ClientID, c.opts.ClientSecret).
		SetFormData(map[string]string{
			"grant_type": "password",
			"username":   c.opts.Username,
			"password":   c.opts.Password,
		}).
		Post(TokenEndpoint)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errs.New(errs.ErrorTypeNetwork, 0, "token request failed: %v", err)
	}

	if resp.IsError() {
		apiErr := errs.FromStatus(resp.StatusCode(), "token request rejected")
		if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
			apiErr.Type = errs.ErrorTypeAuth
			apiErr.Message = "invalid client id or secret"
		}
		return apiErr
	}

	var tok tokenResponse
	if err := json.Unmarshal(resp.Body(), &tok); err != nil {
		return errs.New(errs.ErrorTypeParsing, resp.StatusCode(), "failed to parse token response: %v", err)
	}
	if tok.Error != "" || tok.AccessToken == "" {
		return errs.New(errs.ErrorTypeAuth, resp.StatusCode(), "token request rejected: %s", tok.Error)
	}

	lifetime := time.Duration(tok.ExpiresIn) * time.Second
	if lifetime > 2*time.Minute {
		lifetime -= time.Minute
	}
	c.token = tok.AccessToken
	c.tokenExpiry = c.now().Add(lifetime)

	c.logger.DebugWithFields("access token acquired", map[string]interface{}{
		"expires_in": tok.ExpiresIn,
	})
	return nil
}

// getJSON performs an authenticated GET with retries and decodes the body
func (c *Client) getJSON(ctx context.Context, path string, params map[string]string, target interface{}) error {
	return retry.Do(func() error {
		return c.getJSONOnce(ctx, path, params, target)
	}, &retry.Config{
		MaxAttempts:  c.opts.MaxAttempts,
		Backoff:      c.backoff.Fallback,
		PerErrorType: c.backoff,
		RetryIf:      retry.DefaultRetryIf,
		Context:      ctx,
		Logger:       c.logger.WithField("path", path),
	})
}

func (c *Client) getJSONOnce(ctx context.Context, path string, params map[string]string, target interface{}) error {
	if err := c.authenticate(ctx); err != nil {
		return err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"path":   path,
		"params": params,
	})

	resp, err := c.api.R().
		SetContext(ctx).
		SetAuthToken(c.token).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"path":     path,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return errs.New(errs.ErrorTypeNetwork, 0, "network error: %v", err)
	}

	c.observeRateLimit(resp.Header())

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"path":     path,
		"status":   resp.StatusCode(),
		"duration": time.Since(start),
	})

	if err := c.checkResponseStatus(resp, path); err != nil {
		if errs.TypeOf(err) == errs.ErrorTypeAuth {
			c.token = ""
		}
		return err
	}

	if err := json.Unmarshal(resp.Body(), target); err != nil {
		bodyPreview := string(resp.Body())
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"path":         path,
			"status":       resp.StatusCode(),
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errs.New(errs.ErrorTypeParsing, resp.StatusCode(), "failed to parse JSON: %v", err)
	}

	return nil
}

// checkResponseStatus maps error statuses onto typed errors
func (c *Client) checkResponseStatus(resp *resty.Response, path string) error {
	if !resp.IsError() {
		return nil
	}

	apiErr := errs.FromStatus(resp.StatusCode(), http.StatusText(resp.StatusCode()))
	fields := map[string]interface{}{
		"status": resp.StatusCode(),
		"path":   path,
		"type":   string(apiErr.Type),
	}
	if apiErr.Type == errs.ErrorTypeServerError {
		c.logger.ErrorWithFields("server error", fields)
	} else {
		c.logger.WarnWithFields("API error", fields)
	}
	return apiErr
}

// observeRateLimit forwards Reddit's quota headers to the limiter
func (c *Client) observeRateLimit(h http.Header) {
	if c.limiter == nil {
		return
	}
	remainingHeader := h.Get("X-Ratelimit-Remaining")
	resetHeader := h.Get("X-Ratelimit-Reset")
	if remainingHeader == "" || resetHeader == "" {
		return
	}

	remaining, err := strconv.ParseFloat(remainingHeader, 64)
	if err != nil {
		return
	}
	reset, err := strconv.Atoi(resetHeader)
	if err != nil {
		return
	}

	c.limiter.Observe(int(remaining), time.Duration(reset)*time.Second)
}

// Download fetches a media file or web page without API credentials and
// returns its body and content type.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, string, error) {
	c.logger.DebugWithFields("downloading", map[string]interface{}{
		"url": rawURL,
	})

	resp, err := c.media.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		return nil, "", errs.New(errs.ErrorTypeNetwork, 0, "download failed: %v", err)
	}
	if resp.IsError() {
		return nil, "", errs.FromStatus(resp.StatusCode(), fmt.Sprintf("download of %s failed", rawURL))
	}

	body := resp.Body()
	if c.opts.MaxMediaSize > 0 && int64(len(body)) > c.opts.MaxMediaSize {
		return nil, "", errs.New(errs.ErrorTypeUnknown, resp.StatusCode(),
			"%s is %d bytes, above the %d byte limit", rawURL, len(body), c.opts.MaxMediaSize)
	}

	return body, resp.Header().Get("Content-Type"), nil
}
