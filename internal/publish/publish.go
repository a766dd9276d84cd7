// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package publish dispatches approved drafts to X.
//
// When no credentials are configured dispatch is simulated: the call succeeds
// without touching the network, so a bot can run end to end before its owner
// wires up an X account.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.astrophena.name/chirp/internal/request"
	"go.astrophena.name/chirp/internal/version"
)

const (
	defaultAPIURL = "https://api.x.com"
	// MaxLen is the post length limit in characters.
	MaxLen = 280
)

// ErrEmpty is returned when the text to publish is empty.
var ErrEmpty = errors.New("empty post text")

// TooLongError is returned when the text exceeds [MaxLen] characters.
type TooLongError struct {
	Length int
}

func (e *TooLongError) Error() string {
	return fmt.Sprintf("post is %d characters, limit is %d", e.Length, MaxLen)
}

// Result describes the outcome of a dispatch.
type Result struct {
	// Simulated is true when no credentials were configured and nothing was
	// actually sent.
	Simulated bool
	// PostID is the ID assigned by X. Empty for simulated dispatches.
	PostID string
}

// Poster publishes short posts.
type Poster interface {
	// Post publishes the text. The text must be non-empty and at most MaxLen
	// characters.
	Post(ctx context.Context, text string) (Result, error)
}

// Config configures an [XPoster].
type Config struct {
	// BearerToken authorizes requests. If empty, dispatch is simulated.
	BearerToken string
	// APIURL overrides the API endpoint, for tests.
	APIURL     string
	HTTPClient *http.Client
	Scrubber   *strings.Replacer
	Logger     *slog.Logger
}

// XPoster publishes posts via the X API v2.
type XPoster struct {
	token    string
	apiURL   string
	httpc    *http.Client
	scrubber *strings.Replacer
	slog     *slog.Logger
}

// NewXPoster returns an XPoster.
func NewXPoster(cfg Config) *XPoster {
	p := &XPoster{
		token:    cfg.BearerToken,
		apiURL:   cfg.APIURL,
		httpc:    cfg.HTTPClient,
		scrubber: cfg.Scrubber,
		slog:     cfg.Logger,
	}
	if p.apiURL == "" {
		p.apiURL = defaultAPIURL
	}
	if p.httpc == nil {
		p.httpc = request.DefaultClient
	}
	if p.slog == nil {
		p.slog = slog.Default()
	}
	return p
}

type postResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Post publishes the text, or simulates doing so when no bearer token is
// configured.
func (p *XPoster) Post(ctx context.Context, text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, ErrEmpty
	}
	if n := utf8.RuneCountInString(text); n > MaxLen {
		return Result{}, &TooLongError{Length: n}
	}

	if p.token == "" {
		p.slog.Info("no X credentials configured, simulating post", slog.String("text", text))
		return Result{Simulated: true}, nil
	}

	res, err := request.Make[postResponse](ctx, request.Params{
		Method: http.MethodPost,
		URL:    p.apiURL + "/2/tweets",
		Body:   map[string]string{"text": text},
		Headers: map[string]string{
			"Authorization": "Bearer " + p.token,
			"User-Agent":    version.UserAgent(),
		},
		WantStatusCode: http.StatusCreated,
		HTTPClient:     p.httpc,
		Scrubber:       p.scrubber,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{PostID: res.Data.ID}, nil
}

var _ Poster = (*XPoster)(nil)
