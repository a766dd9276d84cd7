// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package draft turns acquired content items into short post drafts.
package draft

import (
	"context"

	"go.astrophena.name/chirp/internal/source"
)

// MaxLen is the post length limit in characters. Drafts longer than this are
// discarded, never truncated.
const MaxLen = 280

// MaxDrafts is how many drafts are produced per item at most.
const MaxDrafts = 3

// Request describes what to draft.
type Request struct {
	// Item is the content item to draft about.
	Item source.Item
	// Niche tunes tone and hashtags, e.g. "tech" or "crypto".
	Niche string
}

// Drafter produces up to [MaxDrafts] drafts for an item. Every returned
// draft is non-empty and at most [MaxLen] characters.
type Drafter interface {
	Draft(ctx context.Context, req Request) ([]string, error)
}
