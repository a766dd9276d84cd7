// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package tgmarkup

import (
	"testing"

	"go.astrophena.name/chirp/internal/testutil"
)

func TestFromMarkdown(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		in   string
		want Message
	}{
		"plain": {
			in:   "Hello, world!",
			want: Message{Text: "Hello, world!\n"},
		},
		"bold": {
			in: "Pick a **draft** below.",
			want: Message{
				Text: "Pick a draft below.\n",
				Entities: []Entity{
					{Type: Bold, Offset: 7, Length: 5},
				},
			},
		},
		"link": {
			in: "[article](https://example.com/a)",
			want: Message{
				Text: "article\n",
				Entities: []Entity{
					{Type: TextLink, Offset: 0, Length: 7, URL: "https://example.com/a"},
				},
			},
		},
		"emoji offsets are UTF-16": {
			in: "✅ Posted **now**",
			want: Message{
				Text: "✅ Posted now\n",
				Entities: []Entity{
					{Type: Bold, Offset: 9, Length: 3},
				},
			},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			testutil.AssertEqual(t, FromMarkdown(tc.in), tc.want)
		})
	}
}
