/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"storyboardgen/internal/config"
	"storyboardgen/internal/export"
	"storyboardgen/internal/generate"
	applog "storyboardgen/internal/log"
	"storyboardgen/internal/server"
	"storyboardgen/internal/storage"
	"storyboardgen/internal/storyboard"
)

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errUsage}, args...)...)
}

// generate: storyboardgen generate <script|-> [-format f] [-out file] [-frames n] [-backend b]
// [-images dir] [-title t] [-save]
func (a *app) generate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	format := fs.String("format", a.cfg.Storyboard.OutputFormat, "output format: html, json or pdf")
	out := fs.String("out", "", "write output to this file instead of stdout")
	frames := fs.Int("frames", a.cfg.Storyboard.FramesPerScene, "frames per scene")
	backend := fs.String("backend", a.cfg.Generator.Backend, "generator backend: mock, gemini or openai")
	images := fs.String("images", "", "write placeholder PNGs for every frame into this directory")
	title := fs.String("title", a.cfg.Storyboard.Title, "storyboard title")
	save := fs.Bool("save", false, "store the storyboard in the history database")

	// The script may come before or after the flags.
	var src string
	if len(args) > 0 && (args[0] == "-" || !strings.HasPrefix(args[0], "-")) {
		src, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return usageErr("%v", err)
	}
	if src == "" {
		src = fs.Arg(0)
	}
	if src == "" {
		return usageErr("generate requires a script file or - for stdin")
	}

	text, err := a.readScript(src)
	if err != nil {
		return err
	}

	cfg := a.cfg
	cfg.Storyboard.FramesPerScene = *frames
	cfg.Storyboard.Title = *title
	cfg.Generator.Backend = strings.ToLower(strings.TrimSpace(*backend))
	b, err := a.builder(ctx, cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	sb := b.Generate(ctx, text)
	failed := 0
	for _, r := range sb.Scenes {
		if r.Failed() {
			failed++
		}
	}
	l := a.log.With(slog.String("op", "generate"))
	l.Info("storyboard generated",
		slog.Int("scenes", sb.SceneCount),
		slog.Int("frames", sb.FrameCount),
		slog.Int("failed", failed),
		slog.Duration("took", time.Since(start)))

	if *save {
		st, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		id, err := st.SaveStoryboard(ctx, text, sb)
		if err != nil {
			return fmt.Errorf("save storyboard: %w", err)
		}
		sb.ID = id
		_, _ = fmt.Fprintln(a.stderr, "Saved storyboard", id)
	}

	if *images != "" {
		paths, err := export.WritePlaceholderImages(sb, *images)
		if err != nil {
			return fmt.Errorf("write images: %w", err)
		}
		l.Info("placeholder images written", slog.Int("count", len(paths)), slog.String("dir", *images))
	}

	body, err := export.Render(sb, *format)
	if err != nil {
		return err
	}
	return a.writeOutput(*out, body)
}

func (a *app) readScript(src string) (string, error) {
	var (
		b   []byte
		err error
	)
	if src == "-" {
		b, err = io.ReadAll(a.stdin)
	} else {
		b, err = os.ReadFile(src)
	}
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(b), nil
}

func (a *app) writeOutput(path string, body []byte) error {
	if path == "" {
		_, err := a.stdout.Write(body)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(a.stderr, "Wrote", path)
	return nil
}

// builder resolves the generator backend and its API key, then validates the storyboard options.
func (a *app) builder(ctx context.Context, cfg config.AppConfig) (*storyboard.Builder, error) {
	key, err := config.APIKey(cfg.Generator.Backend)
	if err != nil {
		a.log.Warn("keychain lookup failed", slog.Any("err", err))
	}
	gen, err := generate.New(ctx, cfg.GenerateConfig(key))
	if err != nil {
		return nil, err
	}
	b, err := storyboard.NewBuilder(gen, cfg.BuilderOptions(), applog.L())
	if err != nil {
		return nil, usageErr("%v", err)
	}
	return b, nil
}

func (a *app) openStore(ctx context.Context) (*storage.Store, error) {
	dsn := a.cfg.Storage.DSN
	if dsn == "" {
		p, err := config.DefaultDSN()
		if err != nil {
			return nil, err
		}
		dsn = p
	}
	return storage.Open(ctx, a.cfg.Storage.Driver, dsn)
}

func (a *app) history(ctx context.Context, args []string) error {
	limit := 20
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return usageErr("history limit must be a positive number")
		}
		limit = n
	}
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	list, err := st.ListStoryboards(ctx, limit)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		_, _ = fmt.Fprintln(a.stdout, "No saved storyboards.")
		return nil
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tCREATED\tSCENES\tFRAMES\tTITLE")
	for _, s := range list {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04"), s.SceneCount, s.FrameCount, s.Title)
	}
	return tw.Flush()
}

func (a *app) show(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usageErr("show requires <id>")
	}
	format := export.FormatJSON
	if len(args) > 1 {
		format = args[1]
	}
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	rec, err := st.GetStoryboard(ctx, args[0])
	if err != nil {
		return err
	}
	body, err := export.Render(rec.Storyboard, format)
	if err != nil {
		return err
	}
	_, err = a.stdout.Write(body)
	return err
}

func (a *app) search(ctx context.Context, args []string) error {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return usageErr("search requires <text>")
	}
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	hits, err := st.SearchScenes(ctx, text, 0)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		_, _ = fmt.Fprintln(a.stdout, "No matching scenes.")
		return nil
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STORYBOARD\tSCENE\tFRAMES\tHEADING")
	for _, h := range hits {
		frames := strconv.Itoa(h.FrameCount)
		if h.Error != "" {
			frames = "error"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", h.StoryboardID, h.Position+1, frames, h.Heading)
	}
	return tw.Flush()
}

func (a *app) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageErr("delete requires <id>")
	}
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.DeleteStoryboard(ctx, args[0]); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(a.stdout, "Deleted", args[0])
	return nil
}

func (a *app) schema() error {
	b, err := export.Schema()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.stdout, string(b))
	return err
}

func (a *app) configCmd(args []string) error {
	sub := "show"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "show":
		b, err := yaml.Marshal(a.cfg)
		if err != nil {
			return err
		}
		_, _ = a.stdout.Write(b)
		for _, key := range config.OverrideKeys() {
			if env, ok := config.EnvOverrideFor(key); ok {
				_, _ = fmt.Fprintf(a.stdout, "# %s overridden by %s\n", key, env)
			}
		}
		return nil
	case "path":
		p := a.configPath
		if p == "" {
			var err error
			if p, err = config.ConfigPath(); err != nil {
				return err
			}
		}
		_, _ = fmt.Fprintln(a.stdout, p)
		return nil
	case "set-key":
		if len(args) < 2 {
			return usageErr("config set-key requires <backend>; the key is read from stdin")
		}
		b, err := io.ReadAll(a.stdin)
		if err != nil {
			return err
		}
		if err := config.SaveAPIKey(args[1], strings.TrimSpace(string(b))); err != nil {
			return fmt.Errorf("store api key: %w", err)
		}
		_, _ = fmt.Fprintln(a.stdout, "API key stored in the OS keychain for", args[1])
		return nil
	default:
		return usageErr("unknown config command %q", sub)
	}
}

func (a *app) serve(ctx context.Context, args []string) error {
	addr := a.cfg.Server.Addr
	if len(args) > 0 {
		addr = args[0]
	}
	b, err := a.builder(ctx, a.cfg)
	if err != nil {
		return err
	}
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	srv, err := server.New(server.Options{
		Builder:       b,
		History:       st,
		Logger:        applog.WithComponent("server"),
		DefaultFormat: a.cfg.Storyboard.OutputFormat,
		BodyLimit:     a.cfg.Server.BodyLimit,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(addr) }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
