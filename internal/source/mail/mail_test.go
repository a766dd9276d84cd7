// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package mail

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.astrophena.name/chirp/internal/testutil"
)

func TestFetchNew(t *testing.T) {
	t.Parallel()

	now := time.Now()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		testutil.AssertEqual(t, r.Header.Get("Authorization"), "Bearer test")
		testutil.AssertContains(t, r.URL.Query().Get("q"), "label:newsletters")
		testutil.AssertContains(t, r.URL.Query().Get("q"), "after:")
		fmt.Fprint(w, `{"messages": [{"id": "msg1"}, {"id": "msg2"}]}`)
	})
	mux.HandleFunc("GET /users/me/messages/msg1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"id": "msg1",
			"snippet": "This week in Go...",
			"internalDate": "%d",
			"payload": {"headers": [
				{"name": "Subject", "value": "Golang Weekly #123"},
				{"name": "From", "value": "Golang Weekly <peter@golangweekly.com>"}
			]}
		}`, now.UnixMilli())
	})
	mux.HandleFunc("GET /users/me/messages/msg2", func(w http.ResponseWriter, r *http.Request) {
		// Too old, filtered out by the cutoff.
		fmt.Fprintf(w, `{
			"id": "msg2",
			"internalDate": "%d",
			"payload": {"headers": [{"name": "Subject", "value": "Old digest"}]}
		}`, now.Add(-72*time.Hour).UnixMilli())
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	m := New(Config{
		Token:      "test",
		Query:      "label:newsletters",
		APIURL:     srv.URL,
		HTTPClient: srv.Client(),
	})

	items, err := m.FetchNew(t.Context(), now.Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	testutil.AssertEqual(t, len(items), 1)
	testutil.AssertEqual(t, items[0].ID, "msg1")
	testutil.AssertEqual(t, items[0].Title, "Golang Weekly #123")
	testutil.AssertEqual(t, items[0].Body, "This week in Go...")
	testutil.AssertEqual(t, items[0].SourceTag, "Golang Weekly <peter@golangweekly.com>")
}

func TestFetchNewEmptyMailbox(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	t.Cleanup(srv.Close)

	m := New(Config{Token: "test", Query: "label:empty", APIURL: srv.URL, HTTPClient: srv.Client()})
	items, err := m.FetchNew(t.Context(), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, len(items), 0)
}
