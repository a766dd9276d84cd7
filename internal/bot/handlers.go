// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.astrophena.name/chirp/internal/pending"
	"go.astrophena.name/chirp/internal/schedule"
	"go.astrophena.name/chirp/internal/telegram"
)

func (b *Bot) handleStart(ctx context.Context, msg *telegram.Message, _ string) {
	if !b.fromOwner(msg) {
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "👋 I'm **%s**.\n\n", b.rec.Name)
	fmt.Fprintf(&sb, "Every %s I look for new %s content and suggest posts about it. ", b.rec.Interval(), b.rec.Kind)
	sb.WriteString("Pick a suggestion to publish it, or skip.\n\n")
	sb.WriteString("Commands:\n\n")
	sb.WriteString("- /status — what I'm up to\n")
	sb.WriteString("- /latest — look for new content right now\n")
	b.reply(ctx, msg, sb.String())
}

func (b *Bot) handleStatus(ctx context.Context, msg *telegram.Message, _ string) {
	if !b.fromOwner(msg) {
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Sources: %d (%s)\n", len(b.srcs), b.rec.Kind)
	fmt.Fprintf(&sb, "Posts suggested or published: %d\n", b.consumed.Load())

	b.lastRun.RAccess(func(o *runOutcome) {
		if o.at.IsZero() {
			return
		}
		fmt.Fprintf(&sb, "Last round: %s ago", time.Since(o.at).Round(time.Second))
		if o.err != nil {
			sb.WriteString(" (failed)")
		}
		sb.WriteString("\n")
	})
	if next := b.runner.NextRun(); !next.IsZero() {
		fmt.Fprintf(&sb, "Next round: in %s\n", time.Until(next).Round(time.Second))
	}
	if _, ok := b.pending.Live(b.rec.OwnerID); ok {
		sb.WriteString("A suggestion is waiting for your decision.\n")
	}
	b.reply(ctx, msg, sb.String())
}

func (b *Bot) handleLatest(ctx context.Context, msg *telegram.Message, _ string) {
	if !b.fromOwner(msg) {
		return
	}
	if err := b.runner.TriggerNow(); err != nil {
		if errors.Is(err, schedule.ErrAlreadyRunning) {
			b.reply(ctx, msg, "Already looking for new content, hold on.")
			return
		}
		b.reply(ctx, msg, "Something went wrong: "+err.Error())
		return
	}
	b.reply(ctx, msg, "🔍 Looking for new content…")
}

func (b *Bot) handleCallback(ctx context.Context, q *telegram.CallbackQuery) {
	if q.From.ID != b.rec.OwnerID {
		b.answer(ctx, q, "This bot doesn't listen to you.")
		return
	}

	d := b.pending.Resolve(b.rec.OwnerID, q.Data)
	switch d.Outcome {
	case pending.Selected:
		b.answer(ctx, q, "")
		b.publishChoice(ctx, d)
	case pending.Skipped:
		b.answer(ctx, q, "Skipped.")
		b.retireOffer(ctx, d.Offer, "⏭ Skipped.")
	case pending.Expired:
		b.answer(ctx, q, "This suggestion has expired.")
	case pending.Invalid:
		b.answer(ctx, q, "Invalid response.")
	}
}

// publishChoice posts the selected draft and rewrites the offer message with
// the outcome. The offer has already been consumed, so a failed post reports
// the error instead of retrying.
func (b *Bot) publishChoice(ctx context.Context, d pending.Decision) {
	text := d.Offer.Drafts[d.Choice]

	res, err := b.poster.Post(ctx, text)
	if err != nil {
		b.slog.Error("publishing failed", slog.Any("error", err))
		b.retireOffer(ctx, d.Offer, fmt.Sprintf("⚠️ Publishing failed: %v\n\n%s", err, text))
		return
	}

	var outcome string
	if res.Simulated {
		outcome = fmt.Sprintf("🧪 Simulated post (no X credentials):\n\n%s", text)
	} else {
		outcome = fmt.Sprintf("✅ Posted (ID %s):\n\n%s", res.PostID, text)
	}
	b.retireOffer(ctx, d.Offer, outcome)
}

// retireOffer replaces the offer message with the outcome text, removing the
// keyboard.
func (b *Bot) retireOffer(ctx context.Context, o *pending.Offer, text string) {
	if o == nil || o.MessageID == 0 {
		return
	}
	if err := b.tg.EditMessage(ctx, b.rec.OwnerID, o.MessageID, text, nil); err != nil {
		b.slog.Error("editing offer message failed", slog.Any("error", err))
	}
}

func (b *Bot) fromOwner(msg *telegram.Message) bool {
	return msg.From != nil && msg.From.ID == b.rec.OwnerID
}

func (b *Bot) reply(ctx context.Context, msg *telegram.Message, text string) {
	if _, err := b.tg.SendMessage(ctx, msg.Chat.ID, text, nil); err != nil {
		b.slog.Error("sending reply failed", slog.Any("error", err))
	}
}

func (b *Bot) answer(ctx context.Context, q *telegram.CallbackQuery, text string) {
	if err := b.tg.AnswerCallbackQuery(ctx, q.ID, text); err != nil {
		b.slog.Error("answering callback failed", slog.Any("error", err))
	}
}
