// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package bot implements the chat bot worker: it periodically acquires
// content, drafts posts about it and asks its owner in Telegram which draft
// to publish.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"go.astrophena.name/chirp/internal/draft"
	"go.astrophena.name/chirp/internal/ledger"
	"go.astrophena.name/chirp/internal/pending"
	"go.astrophena.name/chirp/internal/publish"
	"go.astrophena.name/chirp/internal/registry"
	"go.astrophena.name/chirp/internal/schedule"
	"go.astrophena.name/chirp/internal/source"
	"go.astrophena.name/chirp/internal/store"
	"go.astrophena.name/chirp/internal/syncx"
	"go.astrophena.name/chirp/internal/telegram"
)

const (
	// cutoffWindow is how far back a cycle looks for new content.
	cutoffWindow = 24 * time.Hour
	// batchCap is how many items a single cycle processes at most.
	batchCap = 3
	// interItemDelay spaces out messages within a cycle so the owner isn't
	// flooded and Telegram doesn't rate limit us.
	interItemDelay = 2 * time.Second
)

// Config configures a [Bot].
type Config struct {
	// Record is the bot's registry record. Required.
	Record registry.Record
	// Telegram talks to the Telegram Bot API. Required.
	Telegram *telegram.Client
	// Drafter produces post drafts. If nil or failing, the deterministic
	// fallback templates are used.
	Drafter draft.Drafter
	// Poster dispatches approved drafts. Required.
	Poster publish.Poster
	// Sources are the bot's content sources. Required.
	Sources []source.Source
	// Store persists the consumed-items ledger. Required.
	Store store.Store
	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// sleep is swapped in tests.
	sleep func(context.Context, time.Duration) bool
}

// Bot is a single running chat bot worker.
type Bot struct {
	rec    registry.Record
	tg     *telegram.Client
	draft  draft.Drafter
	poster publish.Poster
	srcs   []source.Source
	ledger *ledger.Ledger
	slog   *slog.Logger
	sleep  func(context.Context, time.Duration) bool

	pending pending.Table
	runner  *schedule.Runner

	running  atomic.Bool
	cancel   context.CancelFunc
	stopped  chan struct{}
	consumed atomic.Int64
	lastRun  *syncx.Protected[*runOutcome]
}

type runOutcome struct {
	at       time.Time
	consumed int
	err      error
}

// New returns a new bot from the config.
func New(cfg Config) (*Bot, error) {
	if cfg.Telegram == nil {
		return nil, errors.New("bot: Telegram client is required")
	}
	if cfg.Poster == nil {
		return nil, errors.New("bot: poster is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("bot: store is required")
	}
	if len(cfg.Sources) == 0 {
		return nil, errors.New("bot: at least one source is required")
	}

	b := &Bot{
		rec:     cfg.Record,
		tg:      cfg.Telegram,
		draft:   cfg.Drafter,
		poster:  cfg.Poster,
		srcs:    cfg.Sources,
		ledger:  ledger.New(cfg.Record.ID, cfg.Store),
		slog:    cfg.Logger,
		sleep:   cfg.sleep,
		lastRun: syncx.Protect(&runOutcome{}),
	}
	if b.slog == nil {
		b.slog = slog.Default()
	}
	b.slog = b.slog.With(slog.String("bot", b.rec.ID))
	if b.sleep == nil {
		b.sleep = sleep
	}
	b.runner = schedule.New(b.cycle, b.rec.Interval(), b.slog)
	return b, nil
}

// Start begins polling for updates and running acquisition cycles. It returns
// an error if the bot is already started.
func (b *Bot) Start(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return errors.New("bot: already started")
	}

	ctx, b.cancel = context.WithCancel(ctx)
	b.stopped = make(chan struct{})

	p := telegram.NewPoller(b.tg, b.slog)
	p.OnCommand("start", b.handleStart)
	p.OnCommand("help", b.handleStart)
	p.OnCommand("status", b.handleStatus)
	p.OnCommand("latest", b.handleLatest)
	p.OnCallback(b.handleCallback)

	go p.Run(ctx)
	go func() {
		defer close(b.stopped)
		b.runner.Run(ctx)
	}()

	b.slog.Info("started", slog.String("kind", string(b.rec.Kind)), slog.Duration("interval", b.rec.Interval()))
	return nil
}

// Stop shuts the bot down. It is safe to call more than once.
func (b *Bot) Stop() {
	if !b.running.CompareAndSwap(true, false) {
		return
	}
	b.cancel()
	<-b.stopped
	b.slog.Info("stopped")
}

// cycle runs one acquisition round: fetch, dedup, draft, then either
// auto-post or offer the drafts to the owner.
func (b *Bot) cycle(ctx context.Context) error {
	cutoff := time.Now().Add(-cutoffWindow)
	items := source.FetchAll(ctx, b.slog, b.srcs, cutoff)

	var fresh []source.Item
	for _, it := range items {
		isNew, err := b.ledger.IsNew(ctx, it.DedupKey())
		if err != nil {
			return fmt.Errorf("checking ledger: %w", err)
		}
		if isNew {
			fresh = append(fresh, it)
		}
		if len(fresh) == batchCap {
			break
		}
	}

	b.slog.Info("cycle", slog.Int("fetched", len(items)), slog.Int("fresh", len(fresh)))

	var cycleErr error
	var consumed int
	for i, it := range fresh {
		if i > 0 && !b.sleep(ctx, interItemDelay) {
			break
		}
		if err := b.processItem(ctx, it); err != nil {
			b.slog.Error("processing item failed", slog.String("item", it.Title), slog.Any("error", err))
			cycleErr = err
			continue
		}
		if err := b.ledger.MarkConsumed(ctx, it.DedupKey()); err != nil {
			return fmt.Errorf("updating ledger: %w", err)
		}
		consumed++
		b.consumed.Add(1)
	}

	b.lastRun.Access(func(o *runOutcome) {
		o.at = time.Now()
		o.consumed = consumed
		o.err = cycleErr
	})
	return cycleErr
}

func (b *Bot) processItem(ctx context.Context, it source.Item) error {
	drafts := b.makeDrafts(ctx, it)
	if len(drafts) == 0 {
		return fmt.Errorf("no drafts for %q", it.Title)
	}

	if b.rec.AutoPost {
		res, err := b.poster.Post(ctx, drafts[0])
		if err == nil {
			return b.announcePost(ctx, drafts[0], res)
		}
		// Fall back to asking the owner.
		b.slog.Error("auto-post failed, asking for approval", slog.Any("error", err))
	}

	return b.offer(ctx, it, drafts)
}

func (b *Bot) makeDrafts(ctx context.Context, it source.Item) []string {
	req := draft.Request{Item: it, Niche: b.rec.Niche}
	if b.draft != nil {
		drafts, err := b.draft.Draft(ctx, req)
		if err == nil && len(drafts) > 0 {
			return drafts
		}
		if err != nil {
			b.slog.Error("drafting failed, using fallback", slog.Any("error", err))
		}
	}
	drafts, _ := draft.Fallback{}.Draft(ctx, req)
	return drafts
}

// offer sends the drafts to the owner with an approval keyboard and installs
// them as the live offer, superseding any previous one.
func (b *Bot) offer(ctx context.Context, it source.Item, drafts []string) error {
	o := b.pending.Offer(b.rec.OwnerID, drafts)

	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s**", it.Title)
	if it.SourceTag != "" {
		fmt.Fprintf(&sb, " (%s)", it.SourceTag)
	}
	sb.WriteString("\n\n")
	for i, d := range drafts {
		fmt.Fprintf(&sb, "%d. %s\n\n", i+1, d)
	}
	if it.URL != "" {
		fmt.Fprintf(&sb, "%s\n", it.URL)
	}

	var row []telegram.Button
	for i := range drafts {
		row = append(row, telegram.Button{
			Text: fmt.Sprintf("✅ Post %d", i+1),
			Data: o.PickToken(i),
		})
	}
	keyboard := [][]telegram.Button{
		row,
		{{Text: "❌ Skip", Data: o.SkipToken()}},
	}

	messageID, err := b.tg.SendMessage(ctx, b.rec.OwnerID, sb.String(), &telegram.SendOptions{
		Keyboard:           keyboard,
		DisableLinkPreview: true,
	})
	if err != nil {
		b.pending.Drop(b.rec.OwnerID)
		return err
	}
	o.MessageID = messageID
	return nil
}

func (b *Bot) announcePost(ctx context.Context, text string, res publish.Result) error {
	var msg string
	if res.Simulated {
		msg = fmt.Sprintf("🧪 Simulated post (no X credentials):\n\n%s", text)
	} else {
		msg = fmt.Sprintf("✅ Posted (ID %s):\n\n%s", res.PostID, text)
	}
	_, err := b.tg.SendMessage(ctx, b.rec.OwnerID, msg, nil)
	return err
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
