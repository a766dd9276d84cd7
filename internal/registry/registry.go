// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package registry keeps the durable catalog of configured bots.
//
// Each bot is described by a [Record]. The registry is shared between the
// controller, which edits it, and the workers, which read their own record at
// startup. It's backed by a JSON file that is rewritten atomically on every
// change, so a crashed writer never leaves a half-written catalog behind.
package registry

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"crawshaw.dev/jsonfile"
)

// ErrNotFound is returned when a bot record doesn't exist.
var ErrNotFound = errors.New("bot not found")

// Kind identifies the content acquisition strategy of a bot.
type Kind string

// Available bot kinds.
const (
	KindRSS    Kind = "rss"    // RSS/Atom feeds
	KindScrape Kind = "scrape" // HTML scraping
	KindJobs   Kind = "jobs"   // job board monitoring
	KindMail   Kind = "mail"   // mailbox queries
)

// Valid reports whether k is a known bot kind.
func (k Kind) Valid() bool {
	switch k {
	case KindRSS, KindScrape, KindJobs, KindMail:
		return true
	}
	return false
}

// Record describes a single configured bot.
type Record struct {
	// ID is the unique identifier of the bot, chosen at creation time.
	ID string `json:"id"`
	// Name is the human-readable display name.
	Name string `json:"name"`
	// OwnerID is the Telegram user ID allowed to control the bot.
	OwnerID int64 `json:"owner_id"`
	// Token is the Telegram Bot API token.
	Token string `json:"token"`
	// Kind selects the content acquisition strategy.
	Kind Kind `json:"kind"`
	// Niche tunes source defaults and draft tone (e.g. "tech", "crypto", "ai").
	Niche string `json:"niche,omitempty"`
	// SourceConfig holds kind-specific source settings: feed URLs for rss,
	// page URL and selectors for scrape, board names and search terms for
	// jobs, a mailbox query for mail.
	SourceConfig map[string]string `json:"source_config,omitempty"`
	// IntervalHours is the acquisition cycle interval. Zero means the default
	// of one hour.
	IntervalHours float64 `json:"interval_hours,omitempty"`
	// AutoPost makes the bot publish the top draft without asking for
	// approval. On publish failure it falls back to asking.
	AutoPost bool `json:"auto_post,omitempty"`
	// XBearerToken authorizes publishing. If empty, dispatch is simulated.
	XBearerToken string `json:"x_bearer_token,omitempty"`
	// Active marks the bot as eligible to run.
	Active bool `json:"active"`
	// CreatedAt is when the record was added.
	CreatedAt time.Time `json:"created_at"`
}

// Interval returns the acquisition cycle interval as a [time.Duration].
func (r *Record) Interval() time.Duration {
	hours := r.IntervalHours
	if hours <= 0 {
		hours = 1
	}
	return time.Duration(hours * float64(time.Hour))
}

type catalog struct {
	Bots map[string]Record `json:"bots"`
}

// Registry is the durable catalog of bot records.
type Registry struct {
	f *jsonfile.JSONFile[catalog]
}

// Open opens the registry file at path, creating it if it doesn't exist.
func Open(path string) (*Registry, error) {
	f, err := jsonfile.Load[catalog](path)
	if errors.Is(err, fs.ErrNotExist) {
		f, err = jsonfile.New[catalog](path)
		if err == nil {
			if err := f.Write(func(c *catalog) error {
				c.Bots = make(map[string]Record)
				return nil
			}); err != nil {
				return nil, err
			}
		}
	}
	if err != nil {
		return nil, err
	}
	return &Registry{f: f}, nil
}

// Get returns the record for the bot with the given ID.
func (r *Registry) Get(id string) (Record, error) {
	var (
		rec Record
		ok  bool
	)
	r.f.Read(func(c *catalog) {
		rec, ok = c.Bots[id]
	})
	if !ok {
		return Record{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return rec, nil
}

// List returns all records, sorted by ID.
func (r *Registry) List() []Record {
	var recs []Record
	r.f.Read(func(c *catalog) {
		for _, rec := range c.Bots {
			recs = append(recs, rec)
		}
	})
	slices.SortFunc(recs, func(a, b Record) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return recs
}

// Add inserts a new record. It fails if a record with the same ID already
// exists or the record is invalid.
func (r *Registry) Add(rec Record) error {
	if err := validate(&rec); err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	return r.f.Write(func(c *catalog) error {
		if c.Bots == nil {
			c.Bots = make(map[string]Record)
		}
		if _, exists := c.Bots[rec.ID]; exists {
			return fmt.Errorf("bot %q already exists", rec.ID)
		}
		c.Bots[rec.ID] = rec
		return nil
	})
}

// Update replaces the record with the same ID.
func (r *Registry) Update(rec Record) error {
	if err := validate(&rec); err != nil {
		return err
	}
	return r.f.Write(func(c *catalog) error {
		if _, exists := c.Bots[rec.ID]; !exists {
			return fmt.Errorf("%w: %q", ErrNotFound, rec.ID)
		}
		c.Bots[rec.ID] = rec
		return nil
	})
}

// Remove deletes the record with the given ID.
func (r *Registry) Remove(id string) error {
	return r.f.Write(func(c *catalog) error {
		if _, exists := c.Bots[id]; !exists {
			return fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		delete(c.Bots, id)
		return nil
	})
}

// SetActive flips the active flag of the record with the given ID.
func (r *Registry) SetActive(id string, active bool) error {
	return r.f.Write(func(c *catalog) error {
		rec, exists := c.Bots[id]
		if !exists {
			return fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		rec.Active = active
		c.Bots[id] = rec
		return nil
	})
}

func validate(rec *Record) error {
	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("bot ID is required")
	}
	if strings.ContainsAny(rec.ID, " /") {
		return fmt.Errorf("bot ID %q must not contain spaces or slashes", rec.ID)
	}
	if rec.Token == "" {
		return fmt.Errorf("bot %q: token is required", rec.ID)
	}
	if rec.OwnerID == 0 {
		return fmt.Errorf("bot %q: owner ID is required", rec.ID)
	}
	if !rec.Kind.Valid() {
		return fmt.Errorf("bot %q: unknown kind %q", rec.ID, rec.Kind)
	}
	if rec.Name == "" {
		rec.Name = rec.ID
	}
	return nil
}
