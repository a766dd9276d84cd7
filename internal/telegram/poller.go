// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package telegram

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// CommandHandler handles a bot command like "/start". args holds the text
// after the command, trimmed.
type CommandHandler func(ctx context.Context, msg *Message, args string)

// CallbackHandler handles an inline keyboard button press.
type CallbackHandler func(ctx context.Context, q *CallbackQuery)

// Poller receives updates via long polling and dispatches them to registered
// handlers.
type Poller struct {
	client   *Client
	slog     *slog.Logger
	timeout  time.Duration
	offset   int64
	commands map[string]CommandHandler
	callback CallbackHandler
}

// NewPoller returns a poller for the given client.
func NewPoller(client *Client, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		client:   client,
		slog:     logger,
		timeout:  30 * time.Second,
		commands: make(map[string]CommandHandler),
	}
}

// OnCommand registers a handler for a command. The command is given without
// the leading slash.
func (p *Poller) OnCommand(command string, h CommandHandler) {
	p.commands[command] = h
}

// OnCallback registers the handler for inline keyboard button presses.
func (p *Poller) OnCallback(h CallbackHandler) {
	p.callback = h
}

// Run polls for updates until ctx is canceled. Transient errors are logged
// and polling continues after a short pause.
func (p *Poller) Run(ctx context.Context) {
	for ctx.Err() == nil {
		updates, err := p.client.GetUpdates(ctx, p.offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.slog.Error("failed to get updates", slog.Any("error", err))
			if !sleep(ctx, 5*time.Second) {
				return
			}
			continue
		}
		for _, u := range updates {
			if u.ID >= p.offset {
				p.offset = u.ID + 1
			}
			p.dispatch(ctx, u)
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, u Update) {
	switch {
	case u.CallbackQuery != nil:
		if p.callback != nil {
			p.callback(ctx, u.CallbackQuery)
		}
	case u.Message != nil && strings.HasPrefix(u.Message.Text, "/"):
		command, args, _ := strings.Cut(u.Message.Text, " ")
		command = strings.TrimPrefix(command, "/")
		// Strip the bot mention from commands like "/status@some_bot".
		command, _, _ = strings.Cut(command, "@")
		if h, ok := p.commands[command]; ok {
			h(ctx, u.Message, strings.TrimSpace(args))
		}
	}
}
