// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"go.astrophena.name/chirp/internal/testutil"
)

type fakeSource struct {
	name  string
	items []Item
	err   error
	calls int
}

func (f *fakeSource) FetchNew(_ context.Context, _ time.Time) ([]Item, error) {
	f.calls++
	return f.items, f.err
}

func (f *fakeSource) Describe() string { return f.name }

func TestDedupKey(t *testing.T) {
	t.Parallel()

	withID := Item{ID: "https://example.com/a", Title: "Some Title"}
	testutil.AssertEqual(t, withID.DedupKey(), "https://example.com/a")

	titleOnly := Item{Title: "  Some Title  "}
	testutil.AssertEqual(t, titleOnly.DedupKey(), "some title")
}

func TestFetchAllMerges(t *testing.T) {
	t.Parallel()

	now := time.Now()
	srcs := []Source{
		&fakeSource{name: "a", items: []Item{
			{ID: "1", Title: "Oldest", Published: now.Add(-2 * time.Hour)},
			{ID: "2", Title: "Newest", Published: now},
		}},
		&fakeSource{name: "b", items: []Item{
			{ID: "3", Title: "Middle", Published: now.Add(-time.Hour)},
			{ID: "2", Title: "Newest (duplicate)", Published: now},
		}},
	}

	items := FetchAll(t.Context(), slog.New(slog.DiscardHandler), srcs, now.Add(-24*time.Hour))

	var titles []string
	for _, it := range items {
		titles = append(titles, it.Title)
	}
	testutil.AssertEqual(t, titles, []string{"Newest", "Middle", "Oldest"})
}

func TestFetchAllTitleCollision(t *testing.T) {
	t.Parallel()

	srcs := []Source{
		&fakeSource{name: "a", items: []Item{
			{Title: "Same Headline"},
			{Title: "same headline "},
		}},
	}
	items := FetchAll(t.Context(), slog.New(slog.DiscardHandler), srcs, time.Time{})
	testutil.AssertEqual(t, len(items), 1)
}

func TestFetchAllCaps(t *testing.T) {
	t.Parallel()

	var many []Item
	for i := range 30 {
		many = append(many, Item{ID: fmt.Sprintf("item-%d", i), Title: fmt.Sprintf("Item %d", i)})
	}
	items := FetchAll(t.Context(), slog.New(slog.DiscardHandler), []Source{&fakeSource{name: "a", items: many}}, time.Time{})
	testutil.AssertEqual(t, len(items), maxItems)
}

func TestFetchAllPartialFailure(t *testing.T) {
	t.Parallel()

	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	broken := &fakeSource{name: "broken", err: errors.New("connection refused")}
	working := &fakeSource{name: "working", items: []Item{{ID: "1", Title: "Still here"}}}

	items := FetchAll(t.Context(), logger, []Source{broken, working}, time.Time{})

	testutil.AssertEqual(t, len(items), 1)
	testutil.AssertEqual(t, items[0].Title, "Still here")

	// The failing source is retried once, then reported exactly once.
	testutil.AssertEqual(t, broken.calls, 2)
	testutil.AssertEqual(t, strings.Count(logBuf.String(), "fetching source failed"), 1)
	testutil.AssertContains(t, logBuf.String(), "broken")
}
