// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package request

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.astrophena.name/chirp/internal/testutil"
)

func TestMake(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		testutil.AssertEqual(t, r.Method, http.MethodGet)
		fmt.Fprint(w, `{"message": "hello"}`)
	}))
	t.Cleanup(srv.Close)

	type response struct {
		Message string `json:"message"`
	}
	res, err := Make[response](t.Context(), Params{
		Method:     http.MethodGet,
		URL:        srv.URL,
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, res.Message, "hello")
}

func TestMakeBytes(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json at all")
	}))
	t.Cleanup(srv.Close)

	res, err := Make[Bytes](t.Context(), Params{
		Method:     http.MethodGet,
		URL:        srv.URL,
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, string(res), "not json at all")
}

func TestMakeWantStatusCode(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{}`)
	}))
	t.Cleanup(srv.Close)

	// Default expectation is 200, so a 201 is an error.
	_, err := Make[IgnoreResponse](t.Context(), Params{
		Method:     http.MethodPost,
		URL:        srv.URL,
		HTTPClient: srv.Client(),
	})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("got %v, want StatusError", err)
	}
	testutil.AssertEqual(t, statusErr.StatusCode, http.StatusCreated)

	// Asking for 201 makes it pass.
	if _, err := Make[IgnoreResponse](t.Context(), Params{
		Method:         http.MethodPost,
		URL:            srv.URL,
		WantStatusCode: http.StatusCreated,
		HTTPClient:     srv.Client(),
	}); err != nil {
		t.Fatal(err)
	}
}

func TestScrubber(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token supersecret is invalid", http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	_, err := Make[IgnoreResponse](t.Context(), Params{
		Method:     http.MethodGet,
		URL:        srv.URL,
		HTTPClient: srv.Client(),
		Scrubber:   strings.NewReplacer("supersecret", "[EXPUNGED]"),
	})
	if err == nil {
		t.Fatal("want an error")
	}
	testutil.AssertNotContains(t, err.Error(), "supersecret")
	testutil.AssertContains(t, err.Error(), "[EXPUNGED]")
}
