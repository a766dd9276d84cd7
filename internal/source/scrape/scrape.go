// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package scrape acquires content by scraping article listings from HTML
// pages.
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.astrophena.name/chirp/internal/request"
	"go.astrophena.name/chirp/internal/source"
	"go.astrophena.name/chirp/internal/version"

	"github.com/PuerkitoBio/goquery"
)

// Default selectors, overridable per page.
const (
	defaultContainerSelector = "article"
	defaultTitleSelector     = "h1, h2, .headline, .title, .article-title, .entry-title"
	defaultLinkSelector      = "a[href]"
)

// Config configures a [Page].
type Config struct {
	// URL is the page to scrape.
	URL string
	// ContainerSelector matches article containers. Defaults to "article".
	ContainerSelector string
	// TitleSelector matches the headline inside a container.
	TitleSelector string
	// LinkSelector matches the article link inside a container.
	LinkSelector string
	// HTTPClient defaults to request.DefaultClient.
	HTTPClient *http.Client
}

// Page scrapes article headlines from a single HTML page.
type Page struct {
	url       string
	container string
	title     string
	link      string
	httpc     *http.Client
}

// New returns a [Page] for the given config.
func New(cfg Config) *Page {
	p := &Page{
		url:       cfg.URL,
		container: cfg.ContainerSelector,
		title:     cfg.TitleSelector,
		link:      cfg.LinkSelector,
		httpc:     cfg.HTTPClient,
	}
	if p.container == "" {
		p.container = defaultContainerSelector
	}
	if p.title == "" {
		p.title = defaultTitleSelector
	}
	if p.link == "" {
		p.link = defaultLinkSelector
	}
	if p.httpc == nil {
		p.httpc = request.DefaultClient
	}
	return p
}

// Describe implements the [source.Source] interface.
func (p *Page) Describe() string { return "scrape: " + p.url }

// FetchNew implements the [source.Source] interface.
//
// Pages rarely carry publication times, so scraped items usually have a zero
// Published and the cutoff doesn't apply to them; dedup keeps repeats out.
func (p *Page) FetchNew(ctx context.Context, cutoff time.Time) ([]source.Item, error) {
	doc, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(p.url)
	if err != nil {
		return nil, err
	}

	var items []source.Item
	doc.Find(p.container).Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Find(p.title).First().Text())
		if title == "" {
			return
		}

		var link string
		if href, ok := sel.Find(p.link).First().Attr("href"); ok {
			if u, err := base.Parse(href); err == nil {
				link = u.String()
			}
		}

		var published time.Time
		if dt, ok := sel.Find("time[datetime]").First().Attr("datetime"); ok {
			if t, err := time.Parse(time.RFC3339, dt); err == nil {
				published = t
				if published.Before(cutoff) {
					return
				}
			}
		}

		items = append(items, source.Item{
			ID:        link,
			Title:     title,
			URL:       link,
			Published: published,
			SourceTag: base.Host,
		})
	})
	return items, nil
}

func (p *Page) fetch(ctx context.Context) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", version.UserAgent())

	res, err := p.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: want 200, got %d", p.url, res.StatusCode)
	}

	return goquery.NewDocumentFromReader(res.Body)
}

var _ source.Source = (*Page)(nil)
