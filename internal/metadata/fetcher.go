package metadata

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// MaxBodyBytes caps how much of a page is read.
const MaxBodyBytes = 2 << 20

// Fetcher downloads pages and extracts their Metadata.
type Fetcher struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

// NewFetcher creates a Fetcher whose requests are bounded by timeout.
func NewFetcher(timeout time.Duration, userAgent string, logger *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		logger:    logger,
	}
}

// Fetch returns the page's Metadata. It never fails: any problem (bad URL,
// network error, non-2xx status, nothing to parse) yields empty fields.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) Metadata {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Metadata{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Metadata{}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Debug("metadata: fetch failed", slog.String("url", rawURL), slog.String("error", err.Error()))
		return Metadata{}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Debug("metadata: non-2xx", slog.String("url", rawURL), slog.Int("status", resp.StatusCode))
		return Metadata{}
	}

	// Redirects change the base for relative image URLs.
	base := u
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}
	return Parse(io.LimitReader(resp.Body, MaxBodyBytes), base)
}
