package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsIngest/internal/ports"
)

// ContentFetcher pulls the paragraph text of a linked article page. Used
// when full content was requested but the upstream record arrived without
// it.
type ContentFetcher struct {
	client *http.Client
}

var _ ports.ContentFetcher = (*ContentFetcher)(nil)

// NewContentFetcher wires an HTTP client; nil gets a 20s-timeout default.
func NewContentFetcher(client *http.Client) *ContentFetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &ContentFetcher{client: client}
}

// FetchBody downloads the page and joins its non-empty <p> nodes.
func (f *ContentFetcher) FetchBody(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsIngest/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request article page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("article page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse article page: %w", err)
	}

	var parts []string
	doc.Find("p").Each(func(i int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})

	return strings.Join(parts, "\n"), nil
}
