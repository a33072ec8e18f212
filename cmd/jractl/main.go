// cmd/jractl/main.go
// Terminal client for the JRA site API. The logged-in identity is kept in
// SESSION_DIR and shared by every running jractl.
//
// Usage:
//
//	jractl horses birth_year_from=2015 triple_crown=true
//	jractl -html races racecourse=Tokyo
//	jractl login take secret1
//	jractl fav horses 3
//	jractl entry -horse 3 -race 1 -saddlecloth 4 -barrier 7 -weight 57
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/jraweb/jraweb/app"
	"github.com/jraweb/jraweb/client"
	"github.com/jraweb/jraweb/config"
	"github.com/jraweb/jraweb/logger"
	"github.com/jraweb/jraweb/notify"
	"github.com/jraweb/jraweb/session"
)

func main() {
	html := flag.Bool("html", false, "render tables as HTML")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: jractl [-html] <command> [args]\n\ncommands:\n%s", usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.LoadClient()
	log, err := logger.NewConsole(cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	storage, err := session.NewFileStorage(cfg.SessionDir, log)
	if err != nil {
		log.Fatal("session storage", zap.Error(err))
	}

	api := client.New(cfg.APIBase)
	store := session.New(storage, api, log)
	if err := store.Init(); err != nil {
		log.Fatal("session init", zap.Error(err))
	}
	defer store.Close()

	banner := notify.NewBanner(cfg.NotifyDelay, printNotice(os.Stderr))
	a := app.New(api, store, banner, app.Config{Entry: cfg.Entry, OtherAchievements: true}, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := a.Start(ctx); err != nil {
		log.Warn("could not load favorites", zap.Error(err))
	}
	defer a.Close()

	if err := run(ctx, a, os.Stdout, *html, flag.Args()); err != nil {
		log.Debug("command failed", zap.Error(err))
		stop()
		os.Exit(1)
	}
}

func printNotice(w io.Writer) func(*notify.Notice) {
	return func(n *notify.Notice) {
		if n == nil {
			return
		}
		fmt.Fprintf(w, "[%s] %s\n", n.Level, n.Message)
	}
}
