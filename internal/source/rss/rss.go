// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package rss acquires content from RSS and Atom feeds.
package rss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.astrophena.name/chirp/internal/request"
	"go.astrophena.name/chirp/internal/source"
	"go.astrophena.name/chirp/internal/version"

	"github.com/mmcdole/gofeed"
)

// DefaultFeeds returns the default feed URLs for a niche. Unknown niches get
// the general set.
func DefaultFeeds(niche string) []string {
	if feeds, ok := defaultFeeds[strings.ToLower(niche)]; ok {
		return feeds
	}
	return defaultFeeds["general"]
}

var defaultFeeds = map[string][]string{
	"tech": {
		"https://feeds.feedburner.com/TechCrunch",
		"https://www.theverge.com/rss/index.xml",
		"https://feeds.arstechnica.com/arstechnica/index",
		"https://www.wired.com/feed/rss",
	},
	"crypto": {
		"https://coindesk.com/arc/outboundfeeds/rss/",
		"https://cointelegraph.com/rss",
		"https://decrypt.co/feed",
		"https://bitcoinmagazine.com/.rss/full/",
	},
	"ai": {
		"https://venturebeat.com/category/ai/feed/",
		"https://www.artificialintelligence-news.com/feed/",
		"https://syncedreview.com/feed/",
	},
	"general": {
		"https://feeds.bbci.co.uk/news/rss.xml",
		"https://feeds.npr.org/1001/rss.xml",
	},
}

// Feed fetches items from a single RSS or Atom feed. It remembers the ETag
// and Last-Modified headers between fetches and asks the server to skip
// unchanged content.
type Feed struct {
	url   string
	httpc *http.Client
	fp    *gofeed.Parser

	etag         string
	lastModified string
}

// New returns a [Feed] for the given URL. If httpc is nil,
// [request.DefaultClient] is used.
func New(url string, httpc *http.Client) *Feed {
	if httpc == nil {
		httpc = request.DefaultClient
	}
	return &Feed{
		url:   url,
		httpc: httpc,
		fp:    gofeed.NewParser(),
	}
}

// Describe implements the [source.Source] interface.
func (f *Feed) Describe() string { return "rss: " + f.url }

// FetchNew implements the [source.Source] interface.
func (f *Feed) FetchNew(ctx context.Context, cutoff time.Time) ([]source.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", version.UserAgent())
	if f.etag != "" {
		req.Header.Set("If-None-Match", f.etag)
	}
	if f.lastModified != "" {
		req.Header.Set("If-Modified-Since", f.lastModified)
	}

	res, err := f.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotModified {
		return nil, nil
	}
	if res.StatusCode != http.StatusOK {
		const readLimit = 16384 // 16 KB is enough for error messages (probably)
		body, err := io.ReadAll(io.LimitReader(res.Body, readLimit))
		if err != nil {
			body = []byte("unable to read body")
		}
		return nil, fmt.Errorf("fetching %s: want 200, got %d: %s", f.url, res.StatusCode, body)
	}

	feed, err := f.fp.Parse(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", f.url, err)
	}

	f.etag = res.Header.Get("ETag")
	if lastModified := res.Header.Get("Last-Modified"); lastModified != "" {
		f.lastModified = lastModified
	}

	tag := feed.Title
	if tag == "" {
		tag = f.url
	}

	var items []source.Item
	for _, fi := range feed.Items {
		if strings.TrimSpace(fi.Title) == "" {
			continue
		}

		var published time.Time
		if fi.PublishedParsed != nil {
			published = *fi.PublishedParsed
		} else if fi.UpdatedParsed != nil {
			published = *fi.UpdatedParsed
		}
		if !published.IsZero() && published.Before(cutoff) {
			continue
		}

		items = append(items, source.Item{
			ID:        fi.Link,
			Title:     strings.TrimSpace(fi.Title),
			Body:      cleanSummary(fi.Description),
			URL:       fi.Link,
			Published: published,
			SourceTag: tag,
		})
	}
	return items, nil
}

// cleanSummary strips HTML tags from a feed summary and caps its length.
func cleanSummary(s string) string {
	var (
		sb    strings.Builder
		inTag bool
	)
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}
	out := strings.Join(strings.Fields(sb.String()), " ")
	const maxSummary = 200
	if runes := []rune(out); len(runes) > maxSummary {
		out = string(runes[:maxSummary]) + "…"
	}
	return out
}

var _ source.Source = (*Feed)(nil)
