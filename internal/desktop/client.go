// Package desktop pulls a collection snapshot from an info-filter instance
// running on another machine of the local network.
package desktop

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kexin94yyds/RI-Flow/internal/apperr"
	"github.com/kexin94yyds/RI-Flow/internal/collection"
	"github.com/kexin94yyds/RI-Flow/internal/models"
)

// DefaultPort is the port the desktop host serves on.
const DefaultPort = 3000

const maxSnapshotBytes = 32 << 20

// Client talks to a desktop host.
type Client struct {
	http   *http.Client
	port   int
	logger *slog.Logger
}

// NewClient creates a Client. Each request is bounded by timeout.
func NewClient(port int, timeout time.Duration, logger *slog.Logger) *Client {
	if port <= 0 {
		port = DefaultPort
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		http:   &http.Client{Timeout: timeout},
		port:   port,
		logger: logger,
	}
}

// BaseURL returns the root URL of host. A host that already carries a port keeps it.
func (c *Client) BaseURL(host string) string {
	host = strings.TrimSpace(host)
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimSuffix(host, "/")
	if _, _, err := net.SplitHostPort(host); err == nil {
		return "http://" + host
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.port))
}

// Pull fetches the full collection from host. Transport failures wrap
// apperr.ErrUnavailable; a malformed snapshot wraps apperr.ErrFormat.
func (c *Client) Pull(ctx context.Context, host string) ([]models.Item, error) {
	if strings.TrimSpace(host) == "" {
		return nil, fmt.Errorf("desktop: empty host: %w", apperr.ErrUnavailable)
	}
	endpoint := c.BaseURL(host) + "/api/items"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("desktop: build request: %w", apperr.ErrUnavailable)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("desktop: pull %s: %w: %v", host, apperr.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("desktop: pull %s: status %d: %w", host, resp.StatusCode, apperr.ErrUnavailable)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return nil, fmt.Errorf("desktop: read snapshot: %w: %v", apperr.ErrUnavailable, err)
	}

	items, err := collection.DecodeImport(data)
	if err != nil {
		return nil, fmt.Errorf("desktop: %w", err)
	}
	c.logger.Info("desktop: pulled snapshot", slog.String("host", host), slog.Int("items", len(items)))
	return items, nil
}

// Discover probes every candidate concurrently and returns the first host
// whose health endpoint answers.
func (c *Client) Discover(ctx context.Context, candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("desktop: no candidate hosts configured: %w", apperr.ErrUnavailable)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	found := make(chan string, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	for _, host := range candidates {
		g.Go(func() error {
			if err := c.probe(gctx, host); err != nil {
				c.logger.Debug("desktop: probe failed", slog.String("host", host), slog.String("error", err.Error()))
				return nil
			}
			found <- host
			cancel()
			return nil
		})
	}
	_ = g.Wait()
	close(found)

	if host, ok := <-found; ok {
		return host, nil
	}
	return "", fmt.Errorf("desktop: no host answered: %w", apperr.ErrUnavailable)
}

func (c *Client) probe(ctx context.Context, host string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL(host)+"/health/live", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
