// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package store

import (
	"path/filepath"
	"testing"
	"time"

	"go.astrophena.name/chirp/internal/testutil"
)

func TestMemStore(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	s := NewMemStore(ctx, time.Hour)

	val, err := s.Get(ctx, "missing")
	if err != nil {
		t.Fatal(err)
	}
	if val != nil {
		t.Fatalf("got %q for a missing key, want nil", val)
	}

	if err := s.Set(ctx, "key", []byte("value")); err != nil {
		t.Fatal(err)
	}
	val, err = s.Get(ctx, "key")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, string(val), "value")
}

func TestMemStoreTTL(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	s := NewMemStore(ctx, 10*time.Millisecond)

	if err := s.Set(ctx, "key", []byte("value")); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)

	val, err := s.Get(ctx, "key")
	if err != nil {
		t.Fatal(err)
	}
	if val != nil {
		t.Fatalf("got %q for an expired key, want nil", val)
	}
}

func TestJSONFile(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	path := filepath.Join(t.TempDir(), "store.json")

	s, err := NewJSONFile(ctx, path, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "key", []byte("value")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopen and check the value survived.
	s, err = NewJSONFile(ctx, path, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	val, err := s.Get(ctx, "key")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, string(val), "value")

	val, err = s.Get(ctx, "missing")
	if err != nil {
		t.Fatal(err)
	}
	if val != nil {
		t.Fatalf("got %q for a missing key, want nil", val)
	}
}
