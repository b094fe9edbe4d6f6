package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/samvad-hq/mini-postman/internal/app"
	"github.com/samvad-hq/mini-postman/internal/config"
	"github.com/samvad-hq/mini-postman/internal/domain"
	"github.com/samvad-hq/mini-postman/internal/logger"
	"github.com/samvad-hq/mini-postman/internal/presenter"
	"github.com/samvad-hq/mini-postman/internal/ui"
)

// errRequestFailed marks a one-shot run whose view was a failure.
var errRequestFailed = errors.New("request failed")

type options struct {
	draft     domain.RequestDraft
	oneShot   bool
	ephemeral bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errRequestFailed) {
			fmt.Fprintf(os.Stderr, "mini-postman: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.ephemeral {
		cfg.CredentialStore = "memory"
	}

	zl, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()
	log := logger.NewZapLogger(zl)

	log.InfoObj("mini-postman starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess, err := app.NewSession(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize session", "error", err)
		return err
	}
	defer sess.Close()

	if opts.oneShot {
		view := sess.Run(ctx, opts.draft)
		printView(stdout, os.Stderr, view)
		if view.Failed {
			return errRequestFailed
		}
		return nil
	}

	if err := ui.NewApp(ctx, sess, opts.draft, log).Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func parseFlags(args []string) (options, error) {
	fs := pflag.NewFlagSet("mini-postman", pflag.ContinueOnError)
	draft := domain.NewDraft()

	method := fs.StringP("method", "X", draft.Method.String(), "HTTP method (GET, POST, PUT, DELETE)")
	fs.StringVarP(&draft.URL, "url", "u", "", "target URL; when set the request is sent once and printed")
	fs.StringVarP(&draft.RawHeaders, "headers", "H", draft.RawHeaders, "request headers as a JSON object")
	fs.StringVarP(&draft.RawBody, "body", "d", draft.RawBody, "request body as a JSON object")
	ephemeral := fs.Bool("ephemeral", false, "keep the captured credential in memory only")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	m, err := domain.ParseMethod(*method)
	if err != nil {
		return options{}, err
	}
	draft.Method = m

	return options{
		draft:     draft,
		oneShot:   fs.Changed("url"),
		ephemeral: *ephemeral,
	}, nil
}

// printView writes the response to stdout and a failure message to stderr.
func printView(stdout, stderr io.Writer, v presenter.View) {
	if v.Failed {
		fmt.Fprintln(stderr, v.ErrorMessage)
		return
	}
	if v.HasBadge() {
		fmt.Fprintf(stdout, "Status: %d (%s)\n", *v.StatusCode, v.Badge)
	}
	if v.Preview != "" {
		fmt.Fprintf(stdout, "Title: %s\n", v.Preview)
	}
	fmt.Fprintln(stdout, v.Body)
}
