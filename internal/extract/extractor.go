// Package extract fetches a URL and turns it into plain text for the
// summarization engine. HTML pages are stripped down to readable content;
// RSS/Atom feeds are flattened to their recent entries.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"pagebrief/internal/domain"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

	fetchTimeout = 20 * time.Second
	maxBodyBytes = 5 << 20

	maxFeedItems = 10
)

var blankLinesRe = regexp.MustCompile(`\n{3,}`)

type Extractor struct {
	client     *http.Client
	feedParser *gofeed.Parser
	log        *slog.Logger
}

func NewExtractor(log *slog.Logger) *Extractor {
	return &Extractor{
		client:     &http.Client{Timeout: fetchTimeout},
		feedParser: gofeed.NewParser(),
		log:        log,
	}
}

// Fetch downloads pageURL and extracts {url, title, text}. The text is
// opaque to downstream consumers; no DOM detail leaks past this package.
func (e *Extractor) Fetch(ctx context.Context, pageURL string) (*domain.PageContent, error) {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return nil, errors.New("URL is empty")
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s", parsed.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			e.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"pageURL", pageURL,
				"operation", "Fetch")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("do request: unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if looksLikeFeed(resp.Header.Get("Content-Type"), body) {
		return e.parseFeed(pageURL, body)
	}

	return parsePage(pageURL, body)
}

func looksLikeFeed(contentType string, body []byte) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "rss") || strings.Contains(ct, "atom") {
		return true
	}

	head := bytes.TrimSpace(body)
	if len(head) > 256 {
		head = head[:256]
	}

	for _, prefix := range []string{"<?xml", "<rss", "<feed"} {
		if bytes.HasPrefix(head, []byte(prefix)) {
			return true
		}
	}

	return false
}

func (e *Extractor) parseFeed(feedURL string, body []byte) (*domain.PageContent, error) {
	feed, err := e.feedParser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var b strings.Builder

	items := feed.Items
	if len(items) > maxFeedItems {
		items = items[:maxFeedItems]
	}

	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		text := stripHTML(item.Content)
		if text == "" {
			text = stripHTML(item.Description)
		}

		if title == "" && text == "" {
			continue
		}

		if b.Len() > 0 {
			b.WriteString("\n\n")
		}

		if title != "" {
			b.WriteString(title)
			b.WriteString("\n")
		}
		b.WriteString(text)
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return nil, errors.New("feed has no readable entries")
	}

	return &domain.PageContent{
		URL:   feedURL,
		Title: strings.TrimSpace(feed.Title),
		Text:  text,
	}, nil
}

func parsePage(pageURL string, body []byte) (*domain.PageContent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create document from reader: %w", err)
	}

	title := ""
	if content, ok := doc.Find("meta[property='og:title']").Attr("content"); ok {
		title = strings.TrimSpace(content)
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	doc.Find("script, style, noscript, template, svg, nav, header, footer, aside, form, iframe").Remove()

	container := doc.Find("article").First()
	if container.Length() == 0 {
		container = doc.Find("main").First()
	}
	if container.Length() == 0 {
		container = doc.Find("body").First()
	}

	var b strings.Builder

	container.Find("p, li, h1, h2, h3, h4, blockquote, pre, td").Each(
		func(_ int, s *goquery.Selection) {
			fragment := strings.TrimSpace(s.Text())
			if fragment == "" {
				return
			}

			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(fragment)
		},
	)

	text := strings.TrimSpace(b.String())
	if text == "" {
		// Markup without paragraph structure; fall back to all visible text.
		text = squashWhitespace(container.Text())
	}

	if text == "" {
		return nil, errors.New("page has no readable text")
	}

	return &domain.PageContent{
		URL:   pageURL,
		Title: title,
		Text:  blankLinesRe.ReplaceAllString(text, "\n\n"),
	}, nil
}

func stripHTML(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	return squashWhitespace(doc.Text())
}

func squashWhitespace(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}
