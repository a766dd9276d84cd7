// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package rss

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.astrophena.name/chirp/internal/testutil"
)

func feedXML(pubDate time.Time) string {
	return fmt.Sprintf(`<?xml version="1.0"?>
<rss version="2.0">
<channel>
<title>Example News</title>
<item>
	<title>Fresh article</title>
	<link>https://example.com/fresh</link>
	<description>&lt;p&gt;Something &lt;b&gt;new&lt;/b&gt; happened.&lt;/p&gt;</description>
	<pubDate>%s</pubDate>
</item>
<item>
	<title>Stale article</title>
	<link>https://example.com/stale</link>
	<pubDate>%s</pubDate>
</item>
</channel>
</rss>`, pubDate.Format(time.RFC1123Z), pubDate.Add(-48*time.Hour).Format(time.RFC1123Z))
}

func TestFetchNew(t *testing.T) {
	t.Parallel()

	now := time.Now()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)
		fmt.Fprint(w, feedXML(now))
	}))
	t.Cleanup(srv.Close)

	f := New(srv.URL, srv.Client())
	items, err := f.FetchNew(t.Context(), now.Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	testutil.AssertEqual(t, len(items), 1)
	testutil.AssertEqual(t, items[0].Title, "Fresh article")
	testutil.AssertEqual(t, items[0].ID, "https://example.com/fresh")
	testutil.AssertEqual(t, items[0].SourceTag, "Example News")
	testutil.AssertEqual(t, items[0].Body, "Something new happened.")
}

func TestConditionalGet(t *testing.T) {
	t.Parallel()

	now := time.Now()
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		fmt.Fprint(w, feedXML(now))
	}))
	t.Cleanup(srv.Close)

	f := New(srv.URL, srv.Client())
	cutoff := now.Add(-24 * time.Hour)

	items, err := f.FetchNew(t.Context(), cutoff)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, len(items), 1)

	// Second fetch sends the remembered ETag and gets nothing back.
	items, err = f.FetchNew(t.Context(), cutoff)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, len(items), 0)
	testutil.AssertEqual(t, requests, 2)
}

func TestFetchError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	f := New(srv.URL, srv.Client())
	if _, err := f.FetchNew(t.Context(), time.Time{}); err == nil {
		t.Fatal("want an error for a 403 response")
	}
}

func TestDefaultFeeds(t *testing.T) {
	t.Parallel()

	if len(DefaultFeeds("tech")) == 0 {
		t.Fatal("no default feeds for tech niche")
	}
	// Unknown niches fall back to the general set.
	testutil.AssertEqual(t, DefaultFeeds("underwater basket weaving"), DefaultFeeds("general"))
}
