// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package ledger remembers which items a bot has already consumed.
package ledger

import (
	"context"
	"time"

	"go.astrophena.name/chirp/internal/store"
)

// Ledger records consumed items per bot, so the same item is never offered or
// posted twice.
type Ledger struct {
	botID string
	store store.Store
}

// New returns a ledger for the bot with the given ID, backed by s.
func New(botID string, s store.Store) *Ledger {
	return &Ledger{botID: botID, store: s}
}

// IsNew reports whether the item with the given dedup key hasn't been
// consumed yet.
func (l *Ledger) IsNew(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	val, err := l.store.Get(ctx, l.botID+"/"+key)
	if err != nil {
		return false, err
	}
	return val == nil, nil
}

// MarkConsumed records that the item with the given dedup key has been
// consumed.
func (l *Ledger) MarkConsumed(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return l.store.Set(ctx, l.botID+"/"+key, []byte(time.Now().Format(time.RFC3339)))
}
