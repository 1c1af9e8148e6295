// Package fetch retrieves the raw lift status document.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/smazurov/liftlights/internal/version"
)

// DefaultTimeout bounds a single GET when no client is supplied.
const DefaultTimeout = 10 * time.Second

// maxBodySize caps the payload read; real responses are a few kilobytes.
const maxBodySize = 1 << 20

// Fetcher issues one GET per call against a fixed URL. It never retries.
type Fetcher struct {
	url     string
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient replaces the default HTTP client. The client is never modified.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithTimeout bounds each request. With WithClient it applies to a copy of
// that client.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// New creates a fetcher for rawURL. Only http and https URLs are accepted.
func New(rawURL string, logger *slog.Logger, opts ...Option) (*Fetcher, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, newError(ErrCodeInvalidURL, "failed to parse status URL", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, newError(ErrCodeInvalidURL, fmt.Sprintf("unsupported scheme %q", u.Scheme), nil)
	}

	f := &Fetcher{url: u.String(), logger: logger}
	for _, opt := range opts {
		opt(f)
	}
	switch {
	case f.client == nil:
		timeout := f.timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		f.client = &http.Client{Timeout: timeout}
	case f.timeout > 0:
		c := *f.client
		c.Timeout = f.timeout
		f.client = &c
	}
	return f, nil
}

// URL returns the endpoint being polled.
func (f *Fetcher) URL() string {
	return f.url
}

// Fetch performs the GET and returns the body on HTTP 200.
// Any other outcome is returned as an *Error and means no data this cycle.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	start := time.Now()
	f.logger.Debug("Fetching lift status", "url", f.url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, newError(ErrCodeInvalidURL, "failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("Status fetch failed", "url", f.url, "error", err)
		return nil, newError(ErrCodeTransport, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused next cycle.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		f.logger.Warn("Status fetch returned non-200", "url", f.url, "status", resp.StatusCode)
		e := newError(ErrCodeHTTPStatus, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
		e.StatusCode = resp.StatusCode
		return nil, e
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		f.logger.Warn("Failed to read status body", "url", f.url, "error", err)
		return nil, newError(ErrCodeReadBody, "failed to read body", err)
	}

	f.logger.Info("Status fetched",
		"url", f.url,
		"bytes", len(body),
		"duration", time.Since(start))

	return body, nil
}
