// Package fetcher downloads employee files from remote URLs.
package fetcher

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/employee-contacts/internal/resilience"
)

// Document is a downloaded file plus the hints the parser dispatcher uses.
type Document struct {
	Content     []byte
	ContentType string
	Filename    string
}

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
	MaxBytes  int64
	Retry     resilience.RetryConfig
	Logger    *zap.Logger
}

// HTTPFetcher downloads documents with retry on transient failures.
type HTTPFetcher struct {
	client *http.Client
	opts   HTTPOptions
}

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 10 << 20
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "employee-contacts/1.0"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.RetryLogger(opts.Logger, "fetch document")
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
	}
}

// Fetch downloads rawURL. 429 and 5xx responses and network failures are
// retried; other non-2xx statuses fail immediately.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, eris.Errorf("fetch: unsupported url %q", rawURL)
	}

	doc, err := resilience.DoVal(ctx, f.opts.Retry, func(ctx context.Context) (*Document, error) {
		return f.get(ctx, u)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "fetch %s", u.Redacted())
	}

	f.opts.Logger.Debug("document fetched",
		zap.String("url", u.Redacted()),
		zap.String("content_type", doc.ContentType),
		zap.Int("bytes", len(doc.Content)),
	)
	return doc, nil
}

func (f *HTTPFetcher) get(ctx context.Context, u *url.URL) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := eris.Errorf("unexpected status %d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, resilience.NewTransientError(statusErr)
		}
		return nil, statusErr
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBytes+1))
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "read body"))
	}
	if int64(len(content)) > f.opts.MaxBytes {
		return nil, eris.Errorf("document exceeds %d bytes", f.opts.MaxBytes)
	}

	return &Document{
		Content:     content,
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    filename(resp, u),
	}, nil
}

// filename prefers Content-Disposition, then the last URL path segment.
func filename(resp *http.Response, u *url.URL) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			return path.Base(params["filename"])
		}
	}
	if base := path.Base(u.Path); base != "/" && base != "." {
		return base
	}
	return ""
}
