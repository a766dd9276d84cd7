// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package mail acquires content from a Gmail mailbox matching a search query,
// such as newsletter digests.
package mail

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.astrophena.name/chirp/internal/request"
	"go.astrophena.name/chirp/internal/source"
)

const defaultAPIURL = "https://gmail.googleapis.com/gmail/v1"

// Config configures a [Mailbox].
type Config struct {
	// Token is an OAuth access token with gmail.readonly scope.
	Token string
	// Query is a Gmail search query, e.g. "from:newsletter@example.com".
	Query string
	// APIURL overrides the API endpoint, for tests.
	APIURL     string
	HTTPClient *http.Client
	Scrubber   *strings.Replacer
}

// Mailbox fetches messages matching a search query from Gmail.
type Mailbox struct {
	token    string
	query    string
	apiURL   string
	httpc    *http.Client
	scrubber *strings.Replacer
}

// New returns a [Mailbox].
func New(cfg Config) *Mailbox {
	m := &Mailbox{
		token:    cfg.Token,
		query:    cfg.Query,
		apiURL:   cfg.APIURL,
		httpc:    cfg.HTTPClient,
		scrubber: cfg.Scrubber,
	}
	if m.apiURL == "" {
		m.apiURL = defaultAPIURL
	}
	if m.httpc == nil {
		m.httpc = request.DefaultClient
	}
	return m
}

// Describe implements the [source.Source] interface.
func (m *Mailbox) Describe() string { return "mail: " + m.query }

type listResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type messageResponse struct {
	ID           string `json:"id"`
	Snippet      string `json:"snippet"`
	InternalDate string `json:"internalDate"` // milliseconds since epoch
	Payload      struct {
		Headers []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"headers"`
	} `json:"payload"`
}

// FetchNew implements the [source.Source] interface.
func (m *Mailbox) FetchNew(ctx context.Context, cutoff time.Time) ([]source.Item, error) {
	// The after: operator has day granularity; the precise cutoff is applied
	// below from internalDate.
	q := m.query + " after:" + cutoff.Format("2006/01/02")

	list, err := get[listResponse](ctx, m, "/users/me/messages?"+url.Values{
		"q":          {q},
		"maxResults": {"20"},
	}.Encode())
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	var items []source.Item
	for _, msg := range list.Messages {
		full, err := get[messageResponse](ctx, m, "/users/me/messages/"+msg.ID+"?format=metadata&metadataHeaders=Subject&metadataHeaders=From")
		if err != nil {
			return nil, fmt.Errorf("fetching message %s: %w", msg.ID, err)
		}

		var subject, from string
		for _, h := range full.Payload.Headers {
			switch h.Name {
			case "Subject":
				subject = h.Value
			case "From":
				from = h.Value
			}
		}
		if strings.TrimSpace(subject) == "" {
			continue
		}

		var published time.Time
		var ms int64
		if _, err := fmt.Sscanf(full.InternalDate, "%d", &ms); err == nil {
			published = time.UnixMilli(ms)
			if published.Before(cutoff) {
				continue
			}
		}

		items = append(items, source.Item{
			ID:        full.ID,
			Title:     strings.TrimSpace(subject),
			Body:      strings.TrimSpace(full.Snippet),
			Published: published,
			SourceTag: from,
		})
	}
	return items, nil
}

func get[Response any](ctx context.Context, m *Mailbox, path string) (Response, error) {
	return request.Make[Response](ctx, request.Params{
		Method: http.MethodGet,
		URL:    m.apiURL + path,
		Headers: map[string]string{
			"Authorization": "Bearer " + m.token,
		},
		HTTPClient: m.httpc,
		Scrubber:   m.scrubber,
	})
}

var _ source.Source = (*Mailbox)(nil)
