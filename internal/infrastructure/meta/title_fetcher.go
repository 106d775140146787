// Package meta fetches page metadata for links created without a title.
package meta

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linkdeck/linkdeck/internal/infrastructure/config"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// ErrNoTitle is returned when the fetched page has no usable <title>.
var ErrNoTitle = errors.New("page has no title")

const (
	defaultTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 20 // pages larger than 1MB are cut off; <title> sits early anyway
	userAgent      = "linkdeck/1.0 (+https://github.com/linkdeck/linkdeck)"
)

// HTTPTitleFetcher fetches the <title> of a web page over HTTP.
type HTTPTitleFetcher struct {
	client *http.Client
	logger *zap.Logger
}

// NewHTTPTitleFetcher creates a title fetcher with the configured timeout
func NewHTTPTitleFetcher(cfg config.LinksConfig, logger *zap.Logger) *HTTPTitleFetcher {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPTitleFetcher{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// FetchTitle downloads the page at pageURL and returns its <title> text.
func (f *HTTPTitleFetcher) FetchTitle(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	title := strings.Join(strings.Fields(extractTitle(doc)), " ")
	if title == "" {
		return "", ErrNoTitle
	}

	f.logger.Debug("fetched page title",
		zap.String("url", pageURL),
		zap.String("title", title))
	return title, nil
}

// extractTitle extracts the page title from HTML.
func extractTitle(doc *html.Node) string {
	var title string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = n.FirstChild.Data
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return title
}
