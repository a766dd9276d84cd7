// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"go.astrophena.name/chirp/internal/testutil"
)

const tgToken = "123:test"

func testClient(t *testing.T, mux *http.ServeMux) *Client {
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := New(Config{
		Token:      tgToken,
		APIURL:     srv.URL,
		HTTPClient: srv.Client(),
	})
	c.sleep = func(_ context.Context, _ time.Duration) bool { return true }
	return c
}

func TestSendMessage(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /bot"+tgToken+"/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		body := testutil.UnmarshalJSON[map[string]any](t, readAll(t, r))
		testutil.AssertEqual(t, body["chat_id"], float64(42))
		testutil.AssertEqual(t, body["text"], "Hello!")
		fmt.Fprint(w, `{"ok": true, "result": {"message_id": 7, "chat": {"id": 42}}}`)
	})

	c := testClient(t, mux)
	id, err := c.SendMessage(t.Context(), 42, "Hello!", nil)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, id, int64(7))
}

func TestSendMessageKeyboard(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /bot"+tgToken+"/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ReplyMarkup struct {
				InlineKeyboard [][]Button `json:"inline_keyboard"`
			} `json:"reply_markup"`
		}
		if err := json.Unmarshal(readAll(t, r), &body); err != nil {
			t.Fatal(err)
		}
		kb := body.ReplyMarkup.InlineKeyboard
		testutil.AssertEqual(t, len(kb), 2)
		testutil.AssertEqual(t, kb[0][0], Button{Text: "✅ Post 1", Data: "pick:1:0"})
		testutil.AssertEqual(t, kb[1][0], Button{Text: "❌ Skip", Data: "skip:1"})
		fmt.Fprint(w, `{"ok": true, "result": {"message_id": 1, "chat": {"id": 42}}}`)
	})

	c := testClient(t, mux)
	_, err := c.SendMessage(t.Context(), 42, "Pick one", &SendOptions{
		Keyboard: [][]Button{
			{{Text: "✅ Post 1", Data: "pick:1:0"}},
			{{Text: "❌ Skip", Data: "skip:1"}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestSendMessageRetriesOnRateLimit(t *testing.T) {
	t.Parallel()

	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("POST /bot"+tgToken+"/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"ok": false, "parameters": {"retry_after": 1}}`)
			return
		}
		fmt.Fprint(w, `{"ok": true, "result": {"message_id": 3, "chat": {"id": 42}}}`)
	})

	c := testClient(t, mux)
	id, err := c.SendMessage(t.Context(), 42, "Hello!", nil)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, id, int64(3))
	testutil.AssertEqual(t, calls, 2)
}

func TestSendMessageGivesUpOnPersistentError(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /bot"+tgToken+"/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok": false, "description": "Bad Request"}`, http.StatusBadRequest)
	})

	c := testClient(t, mux)
	if _, err := c.SendMessage(t.Context(), 42, "Hello!", nil); err == nil {
		t.Fatal("want an error for a 400 response")
	}
}

func TestSplitMessage(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		text       string
		wantChunks int
	}{
		"empty":        {"", 0},
		"short":        {"Hello!", 1},
		"exactly 4096": {strings.Repeat("a", 4096), 1},
		"long":         {strings.Repeat("word ", 2000), 3},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			chunks := splitMessage(tc.text)
			testutil.AssertEqual(t, len(chunks), tc.wantChunks)
			for _, chunk := range chunks {
				if n := utf8.RuneCountInString(chunk); n > 4096 {
					t.Errorf("chunk of %d runes exceeds the limit", n)
				}
			}
		})
	}
}

func TestPollerDispatch(t *testing.T) {
	t.Parallel()

	var (
		gotCommand, gotArgs string
		gotCallback         string
	)
	p := NewPoller(nil, nil)
	p.OnCommand("status", func(_ context.Context, _ *Message, args string) {
		gotCommand, gotArgs = "status", args
	})
	p.OnCallback(func(_ context.Context, q *CallbackQuery) {
		gotCallback = q.Data
	})

	p.dispatch(t.Context(), Update{Message: &Message{Text: "/status@some_bot verbose"}})
	testutil.AssertEqual(t, gotCommand, "status")
	testutil.AssertEqual(t, gotArgs, "verbose")

	p.dispatch(t.Context(), Update{CallbackQuery: &CallbackQuery{Data: "pick:1:0"}})
	testutil.AssertEqual(t, gotCallback, "pick:1:0")

	// Unknown commands and plain messages are ignored.
	p.dispatch(t.Context(), Update{Message: &Message{Text: "/unknown"}})
	p.dispatch(t.Context(), Update{Message: &Message{Text: "just chatting"}})
}

func readAll(t *testing.T, r *http.Request) []byte {
	t.Helper()
	b, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatal(err)
	}
	return b
}
