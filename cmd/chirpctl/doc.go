// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Chirpctl manages the registry of content-suggesting Telegram bots.

# Usage

	$ chirpctl [flags...] <command> [arguments...]

Available commands:

  - add [flags...] <bot ID>: add a new bot to the registry
  - list: list all bots
  - show <bot ID>: print a bot's configuration (secrets redacted)
  - enable <bot ID>: mark a bot as eligible to run
  - disable <bot ID>: stop a bot from being run
  - remove <bot ID>: delete a bot from the registry

For example:

	$ chirpctl add -name "Tech News" -owner 123456789 -token "..." -kind rss -niche tech technews
	$ chirpbot technews

# Environment Variables

  - CHIRP_REGISTRY: Path to the bot registry file. Defaults to
    registry.json in the state directory. The -registry flag takes
    precedence.
  - STATE_DIRECTORY: Directory where the registry is kept. Defaults to
    $XDG_STATE_HOME/chirp.
*/
package main
