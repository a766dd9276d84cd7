// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Chirpbot runs a single content-suggesting Telegram bot.

It looks up the bot in the registry by ID, then periodically acquires new
content from the bot's sources (RSS feeds, scraped pages, job boards or a
mailbox), drafts short posts about it and sends them to the bot's owner in
Telegram for approval. An approved draft is published to X, or the dispatch is
simulated when the bot has no X credentials.

# Usage

	$ chirpbot [flags...] <bot ID>

Bots are added to the registry with the chirpctl program.

# Environment Variables

The chirpbot program relies on the following environment variables:

  - CHIRP_REGISTRY: Path to the bot registry file. Defaults to
    registry.json in the state directory. The -registry flag takes
    precedence.
  - GEMINI_API_KEY: Gemini API key used for drafting posts. If not set,
    deterministic template drafts are used instead.
  - STATE_DIRECTORY: Directory where the registry and per-bot ledgers are
    kept. Defaults to $XDG_STATE_HOME/chirp.
*/
package main
