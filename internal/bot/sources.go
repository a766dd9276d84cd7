// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package bot

import (
	"fmt"
	"net/http"
	"strings"

	"go.astrophena.name/chirp/internal/registry"
	"go.astrophena.name/chirp/internal/source"
	"go.astrophena.name/chirp/internal/source/jobs"
	"go.astrophena.name/chirp/internal/source/mail"
	"go.astrophena.name/chirp/internal/source/rss"
	"go.astrophena.name/chirp/internal/source/scrape"
)

// Sources builds content sources from a registry record. If httpc is nil, a
// default client is used.
func Sources(rec registry.Record, httpc *http.Client) ([]source.Source, error) {
	switch rec.Kind {
	case registry.KindRSS:
		feeds := splitList(rec.SourceConfig["feeds"])
		if len(feeds) == 0 {
			feeds = rss.DefaultFeeds(rec.Niche)
		}
		var srcs []source.Source
		for _, url := range feeds {
			srcs = append(srcs, rss.New(url, httpc))
		}
		return srcs, nil
	case registry.KindScrape:
		url := rec.SourceConfig["url"]
		if url == "" {
			return nil, fmt.Errorf("bot %q: scrape source needs a url", rec.ID)
		}
		return []source.Source{scrape.New(scrape.Config{
			URL:               url,
			ContainerSelector: rec.SourceConfig["container_selector"],
			TitleSelector:     rec.SourceConfig["title_selector"],
			LinkSelector:      rec.SourceConfig["link_selector"],
			HTTPClient:        httpc,
		})}, nil
	case registry.KindJobs:
		boards := splitList(rec.SourceConfig["boards"])
		if len(boards) == 0 {
			boards = []string{"indeed"}
		}
		var srcs []source.Source
		for _, board := range boards {
			m, err := jobs.New(jobs.Config{
				Board:      board,
				Query:      rec.SourceConfig["query"],
				Location:   rec.SourceConfig["location"],
				HTTPClient: httpc,
			})
			if err != nil {
				return nil, fmt.Errorf("bot %q: %w", rec.ID, err)
			}
			srcs = append(srcs, m)
		}
		return srcs, nil
	case registry.KindMail:
		query := rec.SourceConfig["query"]
		if query == "" {
			return nil, fmt.Errorf("bot %q: mail source needs a query", rec.ID)
		}
		return []source.Source{mail.New(mail.Config{
			Token:      rec.SourceConfig["token"],
			Query:      query,
			HTTPClient: httpc,
		})}, nil
	}
	return nil, fmt.Errorf("bot %q: unknown kind %q", rec.ID, rec.Kind)
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
