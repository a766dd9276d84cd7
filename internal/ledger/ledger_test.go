// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package ledger

import (
	"testing"
	"time"

	"go.astrophena.name/chirp/internal/store"
	"go.astrophena.name/chirp/internal/testutil"
)

func TestLedger(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	l := New("testbot", store.NewMemStore(ctx, time.Hour))

	isNew, err := l.IsNew(ctx, "https://example.com/article")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, isNew, true)

	if err := l.MarkConsumed(ctx, "https://example.com/article"); err != nil {
		t.Fatal(err)
	}

	isNew, err = l.IsNew(ctx, "https://example.com/article")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, isNew, false)

	// Marking again is harmless.
	if err := l.MarkConsumed(ctx, "https://example.com/article"); err != nil {
		t.Fatal(err)
	}
}

func TestLedgerScopedToBot(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	s := store.NewMemStore(ctx, time.Hour)

	if err := New("first", s).MarkConsumed(ctx, "shared-key"); err != nil {
		t.Fatal(err)
	}

	isNew, err := New("second", s).IsNew(ctx, "shared-key")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, isNew, true)
}

func TestLedgerEmptyKey(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	l := New("testbot", store.NewMemStore(ctx, time.Hour))

	// Empty keys are never new, so items without one are just skipped.
	isNew, err := l.IsNew(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, isNew, false)

	if err := l.MarkConsumed(ctx, ""); err != nil {
		t.Fatal(err)
	}
}
