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
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"storyboardgen/internal/config"
	"storyboardgen/internal/crash"
	applog "storyboardgen/internal/log"
	"storyboardgen/internal/version"
)

// errUsage marks command line mistakes; run exits with 2 for them.
var errUsage = errors.New("usage")

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "storyboardgen: turn a screenplay into storyboard frames")
	_, _ = fmt.Fprintf(w, "Version: %s\n", version.String())
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  storyboardgen [--config <file>] <command> [args]")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Commands:")
	_, _ = fmt.Fprintln(w, "  version|-v|--version                   Show version")
	_, _ = fmt.Fprintln(w, "  generate <script|-> [flags]            Generate a storyboard (see generate -h)")
	_, _ = fmt.Fprintln(w, "  sample                                 Print a sample screenplay")
	_, _ = fmt.Fprintln(w, "  history [limit]                        List saved storyboards")
	_, _ = fmt.Fprintln(w, "  show <id> [html|json|pdf]              Render a saved storyboard")
	_, _ = fmt.Fprintln(w, "  search <text>                          Find saved scenes by heading")
	_, _ = fmt.Fprintln(w, "  delete <id>                            Remove a saved storyboard")
	_, _ = fmt.Fprintln(w, "  schema                                 Print the JSON schema of the storyboard document")
	_, _ = fmt.Fprintln(w, "  config [show|path|set-key <backend>]   Inspect configuration or store an API key")
	_, _ = fmt.Fprintln(w, "  serve [addr]                           Run the HTTP API")
}

func main() {
	defer crash.Recover("")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app carries what every command needs.
type app struct {
	cfg        config.AppConfig
	configPath string
	log        *slog.Logger
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	configPath := os.Getenv("SBG_CONFIG")
	for len(args) > 0 && strings.HasPrefix(args[0], "--config") {
		switch {
		case strings.HasPrefix(args[0], "--config="):
			configPath = strings.TrimPrefix(args[0], "--config=")
			args = args[1:]
		case len(args) > 1:
			configPath = args[1]
			args = args[2:]
		default:
			_, _ = fmt.Fprintln(stderr, "--config requires a file")
			return 2
		}
	}
	if len(args) == 0 {
		usage(stdout)
		return 0
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "version", "--version", "-v":
		_, _ = fmt.Fprintln(stdout, version.String())
		return 0
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	case "sample":
		_, _ = fmt.Fprint(stdout, strings.TrimLeft(sampleScript, "\n"))
		return 0
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	a := &app{
		cfg:        cfg,
		configPath: configPath,
		log:        applog.WithComponent("cli"),
		stdin:      stdin,
		stdout:     stdout,
		stderr:     stderr,
	}
	a.log.Debug("start", slog.String("cmd", cmd), slog.Int("args", len(rest)))

	var cmdErr error
	switch cmd {
	case "generate":
		cmdErr = a.generate(ctx, rest)
	case "history":
		cmdErr = a.history(ctx, rest)
	case "show":
		cmdErr = a.show(ctx, rest)
	case "search":
		cmdErr = a.search(ctx, rest)
	case "delete":
		cmdErr = a.remove(ctx, rest)
	case "schema":
		cmdErr = a.schema()
	case "config":
		cmdErr = a.configCmd(rest)
	case "serve":
		cmdErr = a.serve(ctx, rest)
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		usage(stderr)
		return 2
	}

	switch {
	case cmdErr == nil:
		return 0
	case errors.Is(cmdErr, errUsage):
		_, _ = fmt.Fprintln(stderr, cmdErr)
		return 2
	default:
		a.log.Error("command failed", slog.String("cmd", cmd), slog.Any("err", cmdErr))
		_, _ = fmt.Fprintln(stderr, "Error:", cmdErr)
		return 1
	}
}
