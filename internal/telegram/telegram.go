// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package telegram implements two-way messaging over the Telegram Bot API.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.astrophena.name/chirp/internal/request"
	"go.astrophena.name/chirp/internal/tgmarkup"
	"go.astrophena.name/chirp/internal/version"
)

const (
	defaultAPIURL  = "https://api.telegram.org"
	sendRetryLimit = 5 // N attempts to retry message sending
)

// Config configures a Telegram client.
type Config struct {
	Token      string
	APIURL     string // defaults to the public Bot API endpoint; tests override it
	HTTPClient *http.Client
	Scrubber   *strings.Replacer
	Logger     *slog.Logger
}

// Client talks to the Telegram Bot API on behalf of a single bot.
type Client struct {
	token    string
	apiURL   string
	httpc    *http.Client
	scrubber *strings.Replacer
	slog     *slog.Logger
	sleep    func(context.Context, time.Duration) bool
}

// New returns a Telegram client for the bot identified by the token.
func New(cfg Config) *Client {
	c := &Client{
		token:    cfg.Token,
		apiURL:   cfg.APIURL,
		httpc:    cfg.HTTPClient,
		scrubber: cfg.Scrubber,
		slog:     cfg.Logger,
	}
	if c.apiURL == "" {
		c.apiURL = defaultAPIURL
	}
	if c.httpc == nil {
		c.httpc = request.DefaultClient
	}
	if c.slog == nil {
		c.slog = slog.Default()
	}
	c.sleep = sleep
	return c
}

// Update represents an incoming event from Telegram.
// See https://core.telegram.org/bots/api#update.
type Update struct {
	ID            int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Message represents a chat message.
type Message struct {
	ID   int64  `json:"message_id"`
	Text string `json:"text,omitempty"`
	From *User  `json:"from,omitempty"`
	Chat Chat   `json:"chat"`
}

// User represents a Telegram user.
type User struct {
	ID int64 `json:"id"`
}

// Chat represents a Telegram chat.
type Chat struct {
	ID int64 `json:"id"`
}

// CallbackQuery represents a button press on an inline keyboard.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// Button is a single inline keyboard button. Either Data or URL must be set.
type Button struct {
	Text string `json:"text"`
	Data string `json:"callback_data,omitempty"`
	URL  string `json:"url,omitempty"`
}

type replyMarkup struct {
	InlineKeyboard [][]Button `json:"inline_keyboard"`
}

type outgoingMessage struct {
	ChatID             int64 `json:"chat_id"`
	LinkPreviewOptions struct {
		IsDisabled bool `json:"is_disabled"`
	} `json:"link_preview_options"`
	ReplyMarkup *replyMarkup `json:"reply_markup,omitempty"`
	tgmarkup.Message
}

// SendOptions modify how an outgoing message is delivered.
type SendOptions struct {
	// Keyboard is an optional inline keyboard, one row per outer slice.
	Keyboard [][]Button
	// DisableLinkPreview suppresses the link preview for the message.
	DisableLinkPreview bool
}

// SendMessage sends a Markdown-formatted message to the chat and returns the
// ID of the sent message (the one of the last chunk if the message was split).
// It retries requests when rate limited.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts *SendOptions) (int64, error) {
	msg := &outgoingMessage{ChatID: chatID}
	if opts != nil {
		if len(opts.Keyboard) > 0 {
			msg.ReplyMarkup = &replyMarkup{InlineKeyboard: opts.Keyboard}
		}
		msg.LinkPreviewOptions.IsDisabled = opts.DisableLinkPreview
	}

	var messageID int64
	chunks := splitMessage(text)
	for _, chunk := range chunks {
		msg.Message = tgmarkup.FromMarkdown(chunk)

		sent, err := c.makeRequest(ctx, chatID, "sendMessage", msg)
		if err != nil {
			return 0, err
		}
		messageID = sent.ID
	}
	return messageID, nil
}

type editMessage struct {
	ChatID      int64        `json:"chat_id"`
	MessageID   int64        `json:"message_id"`
	ReplyMarkup *replyMarkup `json:"reply_markup,omitempty"`
	tgmarkup.Message
}

// EditMessage replaces the text and keyboard of a previously sent message.
func (c *Client) EditMessage(ctx context.Context, chatID, messageID int64, text string, keyboard [][]Button) error {
	msg := &editMessage{
		ChatID:    chatID,
		MessageID: messageID,
		Message:   tgmarkup.FromMarkdown(text),
	}
	if len(keyboard) > 0 {
		msg.ReplyMarkup = &replyMarkup{InlineKeyboard: keyboard}
	}
	_, err := c.makeRequest(ctx, chatID, "editMessageText", msg)
	return err
}

// AnswerCallbackQuery acknowledges a button press, optionally flashing a
// notification to the user.
func (c *Client) AnswerCallbackQuery(ctx context.Context, queryID, text string) error {
	args := map[string]string{"callback_query_id": queryID}
	if text != "" {
		args["text"] = text
	}
	_, err := request.Make[request.IgnoreResponse](ctx, request.Params{
		Method: http.MethodPost,
		URL:    c.apiURL + "/bot" + c.token + "/answerCallbackQuery",
		Body:   args,
		Headers: map[string]string{
			"User-Agent": version.UserAgent(),
		},
		HTTPClient: c.httpc,
		Scrubber:   c.scrubber,
	})
	return err
}

// GetUpdates long-polls Telegram for new updates, starting from offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	// The HTTP client must be willing to wait longer than the long poll.
	httpc := &http.Client{Timeout: timeout + 10*time.Second}
	res, err := request.Make[apiResponse[[]Update]](ctx, request.Params{
		Method: http.MethodPost,
		URL:    c.apiURL + "/bot" + c.token + "/getUpdates",
		Body: map[string]any{
			"offset":          offset,
			"timeout":         int(timeout.Seconds()),
			"allowed_updates": []string{"message", "callback_query"},
		},
		Headers: map[string]string{
			"User-Agent": version.UserAgent(),
		},
		HTTPClient: httpc,
		Scrubber:   c.scrubber,
	})
	if err != nil {
		return nil, err
	}
	return res.Result, nil
}

type apiResponse[T any] struct {
	OK     bool `json:"ok"`
	Result T    `json:"result"`
}

func (c *Client) makeRequest(ctx context.Context, chatID int64, method string, args any) (*Message, error) {
	var lastErr error
	for range sendRetryLimit {
		res, err := request.Make[apiResponse[*Message]](ctx, request.Params{
			Method: http.MethodPost,
			URL:    c.apiURL + "/bot" + c.token + "/" + method,
			Body:   args,
			Headers: map[string]string{
				"User-Agent": version.UserAgent(),
			},
			HTTPClient: c.httpc,
			Scrubber:   c.scrubber,
		})
		if err == nil {
			return res.Result, nil
		}
		lastErr = err

		retryable, wait := isRateLimited(err)
		if !retryable {
			break
		}

		c.slog.Warn("rate limited, waiting", slog.Int64("chat_id", chatID), slog.String("method", method), slog.Duration("wait", wait))
		if !c.sleep(ctx, wait) {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("calling %s: %w", method, lastErr)
}

func splitMessage(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= 4096 {
		return []string{text}
	}

	var chunks []string
	for text != "" {
		if utf8.RuneCountInString(text) <= 4096 {
			chunks = append(chunks, text)
			break
		}

		var (
			lastNewline    = -1
			lastWhitespace = -1
			byteCap        = len(text)
			runeCount      int
		)

		for i, r := range text {
			if runeCount == 4096 {
				byteCap = i
				break
			}
			runeCount++

			if r == '\n' {
				lastNewline = i
				continue
			}
			if unicode.IsSpace(r) {
				lastWhitespace = i
			}
		}

		splitAt := byteCap
		switch {
		case lastNewline > 0:
			splitAt = lastNewline
		case lastWhitespace > 0:
			splitAt = lastWhitespace
		}

		chunk := strings.TrimSpace(text[:splitAt])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		text = strings.TrimSpace(text[splitAt:])
	}

	return chunks
}

func isRateLimited(err error) (bool, time.Duration) {
	var statusErr *request.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests {
		return false, 0
	}

	var errorResponse struct {
		Parameters struct {
			RetryAfter int `json:"retry_after"`
		} `json:"parameters"`
	}
	if err := json.Unmarshal(statusErr.Body, &errorResponse); err != nil {
		return false, 0
	}

	return true, time.Duration(errorResponse.Parameters.RetryAfter) * time.Second
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
