// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package source defines content sources and fans out fetching across them.
package source

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.astrophena.name/chirp/internal/syncx"
)

// Item is a single piece of acquired content.
type Item struct {
	// ID is a stable identifier, usually the item URL. May be empty.
	ID string `json:"id,omitempty"`
	// Title is the headline.
	Title string `json:"title"`
	// Body is an optional summary or excerpt.
	Body string `json:"body,omitempty"`
	// URL links to the full content.
	URL string `json:"url,omitempty"`
	// Published is when the item was published, if known.
	Published time.Time `json:"published,omitzero"`
	// SourceTag names the source the item came from.
	SourceTag string `json:"source_tag,omitempty"`
}

// DedupKey returns the key under which the item is deduplicated: its ID when
// present, otherwise the lowercased trimmed title.
func (it *Item) DedupKey() string {
	if it.ID != "" {
		return it.ID
	}
	return strings.ToLower(strings.TrimSpace(it.Title))
}

// Source acquires content items.
type Source interface {
	// FetchNew returns items published after the cutoff. Items without a
	// publication time are included.
	FetchNew(ctx context.Context, cutoff time.Time) ([]Item, error)
	// Describe returns a short human-readable description of the source.
	Describe() string
}

const (
	maxConcurrentFetches = 8
	retryPause           = 2 * time.Second
	// maxItems caps how many items a single fetch round returns after merging.
	maxItems = 10
)

// FetchAll fetches from all sources concurrently and merges the results.
//
// A failed source is retried once after a short pause; if it still fails, the
// failure is logged and the round proceeds with what the other sources
// returned. Merged items are deduplicated, sorted newest first and capped.
func FetchAll(ctx context.Context, logger *slog.Logger, sources []Source, cutoff time.Time) []Item {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		mu    = syncx.Protect(&[]Item{})
		wg    = syncx.NewLimitedWaitGroup(maxConcurrentFetches)
		fetch = func(ctx context.Context, s Source) ([]Item, error) {
			items, err := s.FetchNew(ctx, cutoff)
			if err == nil {
				return items, nil
			}
			select {
			case <-time.After(retryPause):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return s.FetchNew(ctx, cutoff)
		}
	)

	for _, s := range sources {
		wg.Go(func() {
			items, err := fetch(ctx, s)
			if err != nil {
				logger.Error("fetching source failed", slog.String("source", s.Describe()), slog.Any("error", err))
				return
			}
			mu.Access(func(all *[]Item) {
				*all = append(*all, items...)
			})
		})
	}
	wg.Wait()

	var merged []Item
	mu.Access(func(all *[]Item) {
		merged = *all
	})
	return merge(merged)
}

func merge(items []Item) []Item {
	slices.SortFunc(items, func(a, b Item) int {
		return cmp.Compare(b.Published.UnixNano(), a.Published.UnixNano())
	})

	seen := make(map[string]bool)
	out := items[:0]
	for _, it := range items {
		key := it.DedupKey()
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
		if len(out) == maxItems {
			break
		}
	}
	return out
}
