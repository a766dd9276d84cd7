// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.astrophena.name/chirp/internal/cli"
	"go.astrophena.name/chirp/internal/registry"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }

func main() { cli.Main(new(app)) }

type app struct {
	registryPath string
	json         bool
}

func (a *app) Flags(fs *flag.FlagSet) {
	fs.StringVar(&a.registryPath, "registry", "", "`Path` to the bot registry file.")
	fs.BoolVar(&a.json, "json", false, "Output in JSON format (honored in supported commands).")
}

func (a *app) Run(ctx context.Context, env *cli.Env) error {
	if a.registryPath == "" {
		a.registryPath = env.Getenv("CHIRP_REGISTRY")
	}
	if a.registryPath == "" {
		dir, err := defaultStateDir(env)
		if err != nil {
			return err
		}
		a.registryPath = filepath.Join(dir, "registry.json")
	}

	reg, err := registry.Open(a.registryPath)
	if err != nil {
		return fmt.Errorf("opening registry: %w", err)
	}

	if len(env.Args) == 0 {
		return fmt.Errorf("%w: command is required, see -help for usage", cli.ErrInvalidArgs)
	}
	command, args := env.Args[0], env.Args[1:]

	switch command {
	case "add":
		return a.add(reg, args, env)
	case "list":
		return a.list(reg, env.Stdout)
	case "show":
		if len(args) != 1 {
			return fmt.Errorf("%w: show command expects a bot ID", cli.ErrInvalidArgs)
		}
		return a.show(reg, args[0], env.Stdout)
	case "enable", "disable":
		if len(args) != 1 {
			return fmt.Errorf("%w: %s command expects a bot ID", cli.ErrInvalidArgs, command)
		}
		return reg.SetActive(args[0], command == "enable")
	case "remove":
		if len(args) != 1 {
			return fmt.Errorf("%w: remove command expects a bot ID", cli.ErrInvalidArgs)
		}
		return reg.Remove(args[0])
	default:
		return fmt.Errorf("%w: no such command %q", cli.ErrInvalidArgs, command)
	}
}

func (a *app) add(reg *registry.Registry, args []string, env *cli.Env) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	var (
		name     = fs.String("name", "", "Display `name` of the bot.")
		owner    = fs.String("owner", "", "Telegram user `ID` of the bot owner.")
		token    = fs.String("token", "", "Telegram bot API `token`.")
		kind     = fs.String("kind", "rss", "Content source `kind`: rss, scrape, jobs or mail.")
		niche    = fs.String("niche", "", "Content `niche`, e.g. tech, crypto or ai.")
		interval = fs.Float64("interval", 1, "Acquisition interval in `hours`.")
		autoPost = fs.Bool("autopost", false, "Publish the top draft without asking for approval.")
		xToken   = fs.String("x-token", "", "X API bearer `token`. If empty, posting is simulated.")
		srcConf  = fs.String("source", "", "Kind-specific source `settings` as comma-separated key=value pairs, e.g. \"url=https://example.com,title_selector=h2\".")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: add command expects a bot ID", cli.ErrInvalidArgs)
	}

	ownerID, err := strconv.ParseInt(*owner, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: -owner must be a numeric Telegram user ID", cli.ErrInvalidArgs)
	}

	sourceConfig, err := parseSourceConfig(*srcConf)
	if err != nil {
		return err
	}

	rec := registry.Record{
		ID:            fs.Arg(0),
		Name:          *name,
		OwnerID:       ownerID,
		Token:         *token,
		Kind:          registry.Kind(*kind),
		Niche:         *niche,
		SourceConfig:  sourceConfig,
		IntervalHours: *interval,
		AutoPost:      *autoPost,
		XBearerToken:  *xToken,
		Active:        true,
	}
	if err := reg.Add(rec); err != nil {
		return err
	}
	env.Logf("Added bot %q. Run it with: chirpbot %s", rec.ID, rec.ID)
	return nil
}

func parseSourceConfig(s string) (map[string]string, error) {
	if s == "" {
		return nil, nil
	}
	conf := make(map[string]string)
	for pair := range strings.SplitSeq(s, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("%w: malformed -source pair %q, want key=value", cli.ErrInvalidArgs, pair)
		}
		conf[key] = value
	}
	return conf, nil
}

const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorGray  = "\033[90m"
)

func (a *app) list(reg *registry.Registry, w io.Writer) error {
	recs := reg.List()

	if a.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(redact(recs))
	}

	fmt.Fprintln(w, "STATE  BOT                                       KIND    INTERVAL")
	for _, rec := range recs {
		stateStr := colorGreen + "ON" + colorReset
		nameStr := rec.Name
		if !rec.Active {
			stateStr = colorGray + "OFF" + colorReset
			nameStr = colorGray + nameStr + colorReset
		}
		fmt.Fprintf(w, "%s%s%s%s\n",
			pad(stateStr, 7),
			pad(nameStr, 42),
			pad(string(rec.Kind), 8),
			rec.Interval(),
		)
	}
	fmt.Fprintf(w, "\n%d bots\n", len(recs))
	return nil
}

func (a *app) show(reg *registry.Registry, id string, w io.Writer) error {
	rec, err := reg.Get(id)
	if err != nil {
		return err
	}

	if a.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(redact([]registry.Record{rec})[0])
	}

	fmt.Fprintf(w, "ID:        %s\n", rec.ID)
	fmt.Fprintf(w, "Name:      %s\n", rec.Name)
	fmt.Fprintf(w, "Owner:     %d\n", rec.OwnerID)
	fmt.Fprintf(w, "Kind:      %s\n", rec.Kind)
	if rec.Niche != "" {
		fmt.Fprintf(w, "Niche:     %s\n", rec.Niche)
	}
	fmt.Fprintf(w, "Interval:  %s\n", rec.Interval())
	fmt.Fprintf(w, "Auto-post: %t\n", rec.AutoPost)
	fmt.Fprintf(w, "Publish:   %s\n", publishMode(rec))
	fmt.Fprintf(w, "Active:    %t\n", rec.Active)
	fmt.Fprintf(w, "Created:   %s\n", rec.CreatedAt.Format(time.DateTime))
	for key, value := range rec.SourceConfig {
		fmt.Fprintf(w, "Source %s: %s\n", key, value)
	}
	return nil
}

func publishMode(rec registry.Record) string {
	if rec.XBearerToken == "" {
		return "simulated (no X credentials)"
	}
	return "X API"
}

// redact strips secrets from records before printing them.
func redact(recs []registry.Record) []registry.Record {
	out := make([]registry.Record, len(recs))
	for i, rec := range recs {
		if rec.Token != "" {
			rec.Token = "[EXPUNGED]"
		}
		if rec.XBearerToken != "" {
			rec.XBearerToken = "[EXPUNGED]"
		}
		if rec.SourceConfig["token"] != "" {
			conf := make(map[string]string, len(rec.SourceConfig))
			for k, v := range rec.SourceConfig {
				conf[k] = v
			}
			conf["token"] = "[EXPUNGED]"
			rec.SourceConfig = conf
		}
		out[i] = rec
	}
	return out
}

// pad pads s with spaces to width, not counting ANSI escape sequences.
func pad(s string, width int) string {
	visible := s
	for {
		start := strings.Index(visible, "\033[")
		if start == -1 {
			break
		}
		end := strings.Index(visible[start:], "m")
		if end == -1 {
			break
		}
		visible = visible[:start] + visible[start+end+1:]
	}
	if n := width - utf8.RuneCountInString(visible); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s + " "
}

func defaultStateDir(env *cli.Env) (string, error) {
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
