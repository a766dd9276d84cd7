// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package registry

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.astrophena.name/chirp/internal/testutil"

	"github.com/google/go-cmp/cmp/cmpopts"
)

func testRecord(id string) Record {
	return Record{
		ID:      id,
		Name:    "Test Bot",
		OwnerID: 42,
		Token:   "123:test",
		Kind:    KindRSS,
		Niche:   "tech",
		Active:  true,
	}
}

func TestRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "registry.json")

	reg, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.Add(testRecord("technews")); err != nil {
		t.Fatal(err)
	}

	// Reopen and check the record survived.
	reg, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	rec, err := reg.Get("technews")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, rec, testRecord("technews"), cmpopts.IgnoreFields(Record{}, "CreatedAt"))
	if rec.CreatedAt.IsZero() {
		t.Fatal("CreatedAt wasn't set on add")
	}
}

func TestGetNotFound(t *testing.T) {
	t.Parallel()

	reg, err := Open(filepath.Join(t.TempDir(), "registry.json"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Get("nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestAddDuplicate(t *testing.T) {
	t.Parallel()

	reg, err := Open(filepath.Join(t.TempDir(), "registry.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.Add(testRecord("dup")); err != nil {
		t.Fatal(err)
	}
	if err := reg.Add(testRecord("dup")); err == nil {
		t.Fatal("want an error when adding a duplicate ID")
	}
}

func TestValidation(t *testing.T) {
	t.Parallel()

	reg, err := Open(filepath.Join(t.TempDir(), "registry.json"))
	if err != nil {
		t.Fatal(err)
	}

	cases := map[string]func(*Record){
		"empty ID":       func(r *Record) { r.ID = "" },
		"ID with spaces": func(r *Record) { r.ID = "has spaces" },
		"no token":       func(r *Record) { r.Token = "" },
		"no owner":       func(r *Record) { r.OwnerID = 0 },
		"bad kind":       func(r *Record) { r.Kind = "telepathy" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			rec := testRecord("valid")
			mutate(&rec)
			if err := reg.Add(rec); err == nil {
				t.Fatal("want a validation error")
			}
		})
	}
}

func TestListSorted(t *testing.T) {
	t.Parallel()

	reg, err := Open(filepath.Join(t.TempDir(), "registry.json"))
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"charlie", "alpha", "bravo"} {
		if err := reg.Add(testRecord(id)); err != nil {
			t.Fatal(err)
		}
	}

	var ids []string
	for _, rec := range reg.List() {
		ids = append(ids, rec.ID)
	}
	testutil.AssertEqual(t, ids, []string{"alpha", "bravo", "charlie"})
}

func TestSetActiveAndRemove(t *testing.T) {
	t.Parallel()

	reg, err := Open(filepath.Join(t.TempDir(), "registry.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.Add(testRecord("bot")); err != nil {
		t.Fatal(err)
	}

	if err := reg.SetActive("bot", false); err != nil {
		t.Fatal(err)
	}
	rec, err := reg.Get("bot")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, rec.Active, false)

	if err := reg.Remove("bot"); err != nil {
		t.Fatal(err)
	}
	if err := reg.Remove("bot"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestInterval(t *testing.T) {
	t.Parallel()

	rec := testRecord("bot")
	testutil.AssertEqual(t, rec.Interval(), time.Hour)

	rec.IntervalHours = 0.5
	testutil.AssertEqual(t, rec.Interval(), 30*time.Minute)
}
