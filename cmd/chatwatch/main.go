// Command chatwatch submits a question to a conversational web page and
// waits for the new answer to finish streaming.
//
// Usage:
//
//	chatwatch -url https://chat.example.com -question "What is ..."
//	chatwatch -url ... -question ... -sources -audit-db chatwatch.db
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/chatwatch/ask"
	"github.com/hazyhaar/chatwatch/browser"
	"github.com/hazyhaar/chatwatch/observability"
	"github.com/hazyhaar/chatwatch/settings"
)

func main() {
	pageURL := flag.String("url", "", "chat page URL")
	question := flag.String("question", "", "question to submit")
	settingsPath := flag.String("settings", "", "path to settings YAML file")
	auditDB := flag.String("audit-db", "", "path to SQLite audit log (empty = off)")
	remote := flag.String("remote", "", "WebSocket URL of an external Chrome (empty = launch local)")
	headful := flag.Bool("headful", false, "run a visible browser")
	timeout := flag.Duration("timeout", 2*time.Minute, "answer detection deadline")
	pollInterval := flag.Duration("poll-interval", time.Second, "delay between polls")
	withSources := flag.Bool("sources", false, "extract citation references from the answer")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *pageURL == "" || *question == "" {
		fmt.Fprintln(os.Stderr, "usage: chatwatch -url <url> -question <text> [flags]")
		os.Exit(1)
	}

	if err := run(ctx, logger, options{
		pageURL:      *pageURL,
		question:     *question,
		settingsPath: *settingsPath,
		auditDB:      *auditDB,
		remote:       *remote,
		headful:      *headful,
		timeout:      *timeout,
		pollInterval: *pollInterval,
		withSources:  *withSources,
	}); err != nil {
		logger.Error("chatwatch: fatal", "error", err)
		os.Exit(1)
	}
}

type options struct {
	pageURL      string
	question     string
	settingsPath string
	auditDB      string
	remote       string
	headful      bool
	timeout      time.Duration
	pollInterval time.Duration
	withSources  bool
}

func run(ctx context.Context, logger *slog.Logger, opts options) error {
	cfg := settings.Default()
	if opts.settingsPath != "" {
		loaded, err := settings.Load(opts.settingsPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	var recorder *observability.Recorder
	if opts.auditDB != "" {
		db, err := observability.Open(opts.auditDB)
		if err != nil {
			return err
		}
		defer db.Close()
		recorder = observability.NewRecorder(db)
	}

	mgr := browser.NewManager(browser.Config{
		RemoteURL: opts.remote,
		Headful:   opts.headful,
		Logger:    logger,
	})
	if err := mgr.Start(ctx); err != nil {
		return err
	}
	defer mgr.Close()

	tab, err := browser.OpenTab(ctx, mgr, opts.pageURL)
	if err != nil {
		return err
	}
	defer tab.Close()

	asker := ask.New(tab, ask.Config{
		Settings:     cfg,
		Recorder:     recorder,
		Timeout:      opts.timeout,
		PollInterval: opts.pollInterval,
		Logger:       logger,
	})

	answer, err := asker.Ask(ctx, opts.question, opts.withSources)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}
	os.Stdout.Write(out)
	os.Stdout.Write([]byte("\n"))

	if !answer.Found {
		logger.Warn("chatwatch: no answer before deadline", "timeout", opts.timeout)
	}
	return nil
}
