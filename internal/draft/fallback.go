// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package draft

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Fallback produces drafts from fixed templates, without calling any model.
// It is used when no model is configured or the model call fails, and its
// output is deterministic for a given item.
type Fallback struct{}

// Draft implements the [Drafter] interface. It never fails.
func (Fallback) Draft(_ context.Context, req Request) ([]string, error) {
	headline := shorten(req.Item.Title, 120)
	tags := hashtags(req.Item.Title+" "+req.Item.Body, req.Niche)

	candidates := []string{
		fmt.Sprintf("📰 %s %s", headline, tags),
		fmt.Sprintf("%s — what does this mean for the industry? %s", headline, tags),
		fmt.Sprintf("Worth a read: %s. Thoughts? %s", headline, tags),
	}

	var drafts []string
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if utf8.RuneCountInString(c) > MaxLen {
			continue
		}
		drafts = append(drafts, c)
	}
	return drafts, nil
}

// tagKeywords maps lowercase content keywords to hashtags.
var tagKeywords = []struct {
	keyword string
	tag     string
}{
	{"ai", "#AI"},
	{"artificial intelligence", "#AI"},
	{"bitcoin", "#Bitcoin"},
	{"ethereum", "#Ethereum"},
	{"crypto", "#Crypto"},
	{"startup", "#Startup"},
	{"security", "#Security"},
	{"google", "#Google"},
	{"apple", "#Apple"},
	{"job", "#Hiring"},
}

var nicheTags = map[string]string{
	"tech":   "#Tech",
	"crypto": "#Crypto",
	"ai":     "#AI",
}

// hashtags picks up to three hashtags for the content, always including the
// niche tag when one exists.
func hashtags(content, niche string) string {
	content = strings.ToLower(content)

	var tags []string
	seen := make(map[string]bool)
	add := func(tag string) {
		if tag == "" || seen[tag] || len(tags) == 3 {
			return
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	add(nicheTags[strings.ToLower(niche)])
	for _, kw := range tagKeywords {
		if strings.Contains(content, kw.keyword) {
			add(kw.tag)
		}
	}
	add("#News")

	return strings.Join(tags, " ")
}

func shorten(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n-1])) + "…"
}

var _ Drafter = Fallback{}
