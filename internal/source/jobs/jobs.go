// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package jobs acquires content by monitoring job boards for new postings.
package jobs

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

// board describes how to search a job board and pick postings out of the
// results page.
type board struct {
	searchURL func(query, location string) string

	cardSelector     string
	titleSelector    string
	companySelector  string
	locationSelector string
	linkSelector     string
}

var boards = map[string]board{
	"indeed": {
		searchURL: func(query, location string) string {
			return "https://www.indeed.com/jobs?" + url.Values{
				"q":    {query},
				"l":    {location},
				"sort": {"date"},
			}.Encode()
		},
		cardSelector:     "[data-jk]",
		titleSelector:    "h2.jobTitle a span",
		companySelector:  ".companyName",
		locationSelector: ".companyLocation",
		linkSelector:     "h2.jobTitle a",
	},
	"linkedin": {
		searchURL: func(query, location string) string {
			return "https://www.linkedin.com/jobs/search?" + url.Values{
				"keywords": {query},
				"location": {location},
				"sortBy":   {"DD"},
			}.Encode()
		},
		cardSelector:     ".job-search-card",
		titleSelector:    ".base-search-card__title",
		companySelector:  ".base-search-card__subtitle",
		locationSelector: ".job-search-card__location",
		linkSelector:     ".base-card__full-link",
	},
}

// Boards returns the names of supported job boards.
func Boards() []string {
	return []string{"indeed", "linkedin"}
}

// Config configures a [Monitor].
type Config struct {
	// Board is the job board name, one of [Boards].
	Board string
	// Query is the search query, e.g. "golang developer".
	Query string
	// Location is an optional location filter.
	Location string
	// HTTPClient defaults to request.DefaultClient.
	HTTPClient *http.Client
}

// Monitor watches a single job board search for new postings.
type Monitor struct {
	board    board
	name     string
	query    string
	location string
	httpc    *http.Client
}

// New returns a [Monitor]. It fails if the board is unknown or the query is
// empty.
func New(cfg Config) (*Monitor, error) {
	b, ok := boards[strings.ToLower(cfg.Board)]
	if !ok {
		return nil, fmt.Errorf("unknown job board %q", cfg.Board)
	}
	if strings.TrimSpace(cfg.Query) == "" {
		return nil, fmt.Errorf("job board %q: search query is required", cfg.Board)
	}
	m := &Monitor{
		board:    b,
		name:     strings.ToLower(cfg.Board),
		query:    cfg.Query,
		location: cfg.Location,
		httpc:    cfg.HTTPClient,
	}
	if m.httpc == nil {
		m.httpc = request.DefaultClient
	}
	return m, nil
}

// Describe implements the [source.Source] interface.
func (m *Monitor) Describe() string {
	return fmt.Sprintf("jobs: %s (%q)", m.name, m.query)
}

// FetchNew implements the [source.Source] interface.
//
// Job boards don't expose machine-readable posting times on search pages, so
// postings carry a zero Published and new ones are told apart by dedup.
func (m *Monitor) FetchNew(ctx context.Context, cutoff time.Time) ([]source.Item, error) {
	searchURL := m.board.searchURL(m.query, m.location)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", version.UserAgent())

	res, err := m.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searching %s: want 200, got %d", m.name, res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(searchURL)
	if err != nil {
		return nil, err
	}

	var items []source.Item
	doc.Find(m.board.cardSelector).Each(func(_ int, card *goquery.Selection) {
		title := strings.TrimSpace(card.Find(m.board.titleSelector).First().Text())
		if title == "" {
			return
		}
		company := strings.TrimSpace(card.Find(m.board.companySelector).First().Text())
		location := strings.TrimSpace(card.Find(m.board.locationSelector).First().Text())

		var link string
		if href, ok := card.Find(m.board.linkSelector).First().Attr("href"); ok {
			if u, err := base.Parse(href); err == nil {
				link = u.String()
			}
		}

		var body strings.Builder
		if company != "" {
			body.WriteString(company)
		}
		if location != "" {
			if body.Len() > 0 {
				body.WriteString(", ")
			}
			body.WriteString(location)
		}

		items = append(items, source.Item{
			ID:        link,
			Title:     title,
			Body:      body.String(),
			URL:       link,
			SourceTag: m.name,
		})
	})
	return items, nil
}

var _ source.Source = (*Monitor)(nil)
