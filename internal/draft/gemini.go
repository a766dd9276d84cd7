// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.astrophena.name/chirp/internal/api/gemini"
)

const defaultModel = "gemini-2.0-flash"

// GeminiDrafter produces drafts with the Gemini API.
type GeminiDrafter struct {
	// Client is the Gemini API client. Required.
	Client *gemini.Client
	// Model overrides the default model.
	Model string
}

// ErrNoDrafts is returned when the model produced no usable drafts.
var ErrNoDrafts = errors.New("no usable drafts in model response")

const systemPrompt = `You write short social media posts about news. You are given a headline and
an article summary. Write up to 3 unique, engaging posts about it, each at
most 270 characters. Include relevant hashtags. Don't copy sentences from the
article. Format your response as:
1. [First post]
2. [Second post]
3. [Third post]`

// Draft implements the [Drafter] interface.
func (d *GeminiDrafter) Draft(ctx context.Context, req Request) ([]string, error) {
	model := d.Model
	if model == "" {
		model = defaultModel
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Niche: %s\nHeadline: %s\n", req.Niche, req.Item.Title)
	if req.Item.Body != "" {
		fmt.Fprintf(&sb, "Summary: %s\n", req.Item.Body)
	}
	if req.Item.URL != "" {
		fmt.Fprintf(&sb, "Link: %s\n", req.Item.URL)
	}

	res, err := d.Client.GenerateContent(ctx, model, gemini.GenerateContentParams{
		Contents: []*gemini.Content{
			{
				Parts: []*gemini.Part{{Text: sb.String()}},
				Role:  "user",
			},
		},
		SystemInstruction: &gemini.Content{
			Parts: []*gemini.Part{{Text: systemPrompt}},
		},
	})
	if err != nil {
		return nil, err
	}

	var text string
	for _, cand := range res.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			text += part.Text
		}
		break
	}

	drafts := parseNumbered(text)
	if len(drafts) == 0 {
		return nil, ErrNoDrafts
	}
	return drafts, nil
}

// parseNumbered extracts drafts from numbered lines like "1. ..." in the
// model response, dropping any that exceed the length limit.
func parseNumbered(text string) []string {
	var drafts []string
	for line := range strings.Lines(text) {
		line = strings.TrimSpace(line)
		rest, ok := cutNumberPrefix(line)
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)
		if rest == "" || utf8.RuneCountInString(rest) > MaxLen {
			continue
		}
		drafts = append(drafts, rest)
		if len(drafts) == MaxDrafts {
			break
		}
	}
	return drafts
}

func cutNumberPrefix(line string) (string, bool) {
	for _, prefix := range []string{"1.", "2.", "3."} {
		if rest, ok := strings.CutPrefix(line, prefix); ok {
			return rest, true
		}
	}
	return "", false
}

var _ Drafter = (*GeminiDrafter)(nil)
