package adapter

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/Londondannyboy/quest-sub002/internal/domain"
)

// CrawlerAdapter fetches a URL and extracts its readable title, text, and
// in-article images (spec §6 crawler contract). Grounded on the teacher's
// HTML-cleaning pipeline (goquery pre/post-processing wrapping
// go-shiori/go-readability's article extraction), adapted from a
// pass-through text transform into a fetch-then-extract adapter.
type CrawlerAdapter struct {
	client *http.Client
}

// NewCrawlerAdapter builds a CrawlerAdapter.
func NewCrawlerAdapter() *CrawlerAdapter {
	return &CrawlerAdapter{client: &http.Client{Timeout: 30 * time.Second}}
}

// Crawl fetches req.URL and extracts its content.
func (a *CrawlerAdapter) Crawl(ctx context.Context, req CrawlRequest) (CrawlResponse, error) {
	parsed, err := url.Parse(req.URL)
	if err != nil {
		return CrawlResponse{}, domain.Input(domain.CodeValidation, "invalid crawl url: "+err.Error())
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return CrawlResponse{}, domain.Transient(domain.CodeFetchFail, "build request", err, nil)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return CrawlResponse{}, domain.Transient(domain.CodeFetchFail, "fetch failed", err, nil)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return CrawlResponse{}, domain.Data(domain.CodeNotFound, "page not found", nil)
	}
	if resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusForbidden {
		return CrawlResponse{}, domain.Data(domain.CodePaywall, "page requires access not granted", nil)
	}
	if resp.StatusCode >= 500 {
		return CrawlResponse{}, domain.Transient(domain.CodeFetchFail, "upstream server error", nil, nil)
	}
	if resp.StatusCode >= 400 {
		return CrawlResponse{}, domain.Data(domain.CodeFetchFail, "unexpected status", nil)
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		return CrawlResponse{}, domain.Data(domain.CodeFetchFail, "extract readable content: "+err.Error(), err)
	}

	images := extractImages(article.Content)

	return CrawlResponse{
		URL:    req.URL,
		Title:  strings.TrimSpace(article.Title),
		Text:   strings.TrimSpace(article.TextContent),
		Images: images,
	}, nil
}

func extractImages(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var images []string
	seen := make(map[string]bool)
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || src == "" || seen[src] {
			return
		}
		seen[src] = true
		images = append(images, src)
	})
	return images
}
