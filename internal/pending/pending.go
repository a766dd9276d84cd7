// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package pending tracks draft offers awaiting the owner's decision.
//
// Each owner has at most one live offer. Making a new offer supersedes the
// previous one: its buttons keep working in the chat, but pressing them
// resolves to [Expired] instead of selecting anything. Button tokens carry the
// offer ID so a stale keyboard can never act on a newer offer.
package pending

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.astrophena.name/chirp/internal/syncx"
)

// Outcome classifies the resolution of a button press.
type Outcome int

// Possible outcomes.
const (
	// Selected means a draft was picked. Decision.Choice holds its index.
	Selected Outcome = iota
	// Skipped means the whole offer was declined.
	Skipped
	// Expired means the press referred to an offer that is no longer live.
	Expired
	// Invalid means the token was malformed or out of range. The offer stays
	// live so the owner can press a valid button.
	Invalid
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Selected:
		return "selected"
	case Skipped:
		return "skipped"
	case Expired:
		return "expired"
	case Invalid:
		return "invalid"
	}
	return "unknown"
}

// Offer is a set of drafts presented to an owner for approval.
type Offer struct {
	ID        string
	Drafts    []string
	MessageID int64 // chat message carrying the keyboard
	CreatedAt time.Time
}

// PickToken returns the callback token for selecting draft k (zero-based).
func (o *Offer) PickToken(k int) string {
	return fmt.Sprintf("pick:%s:%d", o.ID, k)
}

// SkipToken returns the callback token for declining the offer.
func (o *Offer) SkipToken() string {
	return "skip:" + o.ID
}

// Decision is the result of resolving a button press.
type Decision struct {
	Outcome Outcome
	// Offer is the resolved offer. Nil for Expired and for Invalid presses
	// that don't match the live offer.
	Offer *Offer
	// Choice is the selected draft index, meaningful only for Selected.
	Choice int
}

// Table holds the live offers, one slot per owner.
type Table struct {
	offers syncx.Map[int64, *Offer]
	seq    atomic.Int64
}

// Offer installs a new offer for the owner, superseding any previous one, and
// returns it. The returned offer's ID is unique within the table.
func (t *Table) Offer(ownerID int64, drafts []string) *Offer {
	o := &Offer{
		ID:        strconv.FormatInt(t.seq.Add(1), 10),
		Drafts:    drafts,
		CreatedAt: time.Now(),
	}
	t.offers.Store(ownerID, o)
	return o
}

// Live returns the owner's live offer, if any.
func (t *Table) Live(ownerID int64) (*Offer, bool) {
	return t.offers.Load(ownerID)
}

// Drop removes the owner's live offer without resolving it.
func (t *Table) Drop(ownerID int64) {
	t.offers.Delete(ownerID)
}

// Resolve interprets a button token pressed by the owner.
//
// Selected and Skipped consume the live offer. Expired and Invalid leave the
// table unchanged.
func (t *Table) Resolve(ownerID int64, token string) Decision {
	live, ok := t.offers.Load(ownerID)
	if !ok {
		return Decision{Outcome: Expired}
	}

	action, rest, ok := strings.Cut(token, ":")
	if !ok {
		return Decision{Outcome: Invalid}
	}

	switch action {
	case "skip":
		if rest != live.ID {
			return Decision{Outcome: Expired}
		}
		t.offers.Delete(ownerID)
		return Decision{Outcome: Skipped, Offer: live}
	case "pick":
		offerID, idx, ok := strings.Cut(rest, ":")
		if !ok {
			return Decision{Outcome: Invalid}
		}
		if offerID != live.ID {
			return Decision{Outcome: Expired}
		}
		k, err := strconv.Atoi(idx)
		if err != nil || k < 0 || k >= len(live.Drafts) {
			return Decision{Outcome: Invalid, Offer: live}
		}
		t.offers.Delete(ownerID)
		return Decision{Outcome: Selected, Offer: live, Choice: k}
	}
	return Decision{Outcome: Invalid}
}
