// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"cmp"
	"context"
	_ "embed"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.astrophena.name/chirp/internal/api/gemini"
	"go.astrophena.name/chirp/internal/bot"
	"go.astrophena.name/chirp/internal/cli"
	"go.astrophena.name/chirp/internal/draft"
	"go.astrophena.name/chirp/internal/publish"
	"go.astrophena.name/chirp/internal/registry"
	"go.astrophena.name/chirp/internal/store"
	"go.astrophena.name/chirp/internal/telegram"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }

func main() { cli.Main(new(app)) }

type app struct {
	registryPath string
	ephemeral    bool
	verbose      bool

	// overridden in tests
	httpc     *http.Client
	geminiKey string
}

func (a *app) Flags(fs *flag.FlagSet) {
	fs.StringVar(&a.registryPath, "registry", "", "`Path` to the bot registry file.")
	fs.BoolVar(&a.ephemeral, "ephemeral", false, "Keep the consumed-items ledger in memory instead of on disk.")
	fs.BoolVar(&a.verbose, "verbose", false, "Enable debug logging.")
}

func (a *app) Run(ctx context.Context, env *cli.Env) error {
	if len(env.Args) != 1 {
		return fmt.Errorf("%w: a single bot ID is required, see -help for usage", cli.ErrInvalidArgs)
	}
	botID := env.Args[0]

	stateDir, err := stateDir(env)
	if err != nil {
		return err
	}
	a.registryPath = cmp.Or(a.registryPath, env.Getenv("CHIRP_REGISTRY"), filepath.Join(stateDir, "registry.json"))
	a.geminiKey = cmp.Or(a.geminiKey, env.Getenv("GEMINI_API_KEY"))

	reg, err := registry.Open(a.registryPath)
	if err != nil {
		return fmt.Errorf("opening registry: %w", err)
	}
	rec, err := reg.Get(botID)
	if err != nil {
		return err
	}
	if !rec.Active {
		return fmt.Errorf("bot %q is disabled, enable it with chirpctl first", botID)
	}

	scrubber := newScrubber(rec, a.geminiKey)

	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(env.Stderr, &slog.HandlerOptions{Level: level}))

	var ledgerStore store.Store
	if a.ephemeral {
		ledgerStore = store.NewMemStore(ctx, 30*24*time.Hour)
	} else {
		ledgerStore, err = store.NewJSONFile(ctx, filepath.Join(stateDir, botID+".json"), 30*24*time.Hour)
		if err != nil {
			return fmt.Errorf("opening ledger: %w", err)
		}
	}
	defer ledgerStore.Close()

	var drafter draft.Drafter
	if a.geminiKey != "" {
		drafter = &draft.GeminiDrafter{
			Client: &gemini.Client{
				APIKey:     a.geminiKey,
				HTTPClient: a.httpc,
				Scrubber:   scrubber,
			},
		}
	}

	srcs, err := bot.Sources(rec, a.httpc)
	if err != nil {
		return err
	}

	b, err := bot.New(bot.Config{
		Record: rec,
		Telegram: telegram.New(telegram.Config{
			Token:      rec.Token,
			HTTPClient: a.httpc,
			Scrubber:   scrubber,
			Logger:     logger,
		}),
		Drafter: drafter,
		Poster: publish.NewXPoster(publish.Config{
			BearerToken: rec.XBearerToken,
			HTTPClient:  a.httpc,
			Scrubber:    scrubber,
			Logger:      logger,
		}),
		Sources: srcs,
		Store:   ledgerStore,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	if err := b.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	b.Stop()
	return nil
}

func stateDir(env *cli.Env) (string, error) {
	if dir := env.Getenv("STATE_DIRECTORY"); dir != "" {
		return dir, nil
	}
	xdgStateHome := env.Getenv("XDG_STATE_HOME")
	if xdgStateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		xdgStateHome = filepath.Join(home, ".local", "state")
	}
	dir := filepath.Join(xdgStateHome, "chirp")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

func newScrubber(rec registry.Record, geminiKey string) *strings.Replacer {
	var pairs []string
	for _, secret := range []string{rec.Token, rec.XBearerToken, geminiKey} {
		if secret != "" {
			pairs = append(pairs, secret, "[EXPUNGED]")
		}
	}
	return strings.NewReplacer(pairs...)
}
