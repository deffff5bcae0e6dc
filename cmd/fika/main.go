// Package main is the Fika CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fikafood/fika/internal/config"
	"github.com/fikafood/fika/internal/server"
	"github.com/fikafood/fika/internal/watcher"
	"github.com/fikafood/fika/pkg/utils"
)

var version = "dev"

const defaultServerURL = "http://localhost:8080"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == config.ConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, config.FallbackConfigPath)
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "summary":
		runSummary(os.Args[2:])
	case "plan":
		runPlan(os.Args[2:])
	case "status":
		runStatus(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("fika version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := newFlagSet("server")
	configPath := fs.String("config", config.ConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	inboxCtx, inboxCancel := context.WithCancel(context.Background())
	defer inboxCancel()
	var inbox *watcher.Inbox
	if cfg.Inbox.Enabled {
		inbox = watcher.NewInbox(cfg.Inbox.Directory, cfg.Inbox.Extensions, components.Records,
			watcher.WithLogger(logger))
		if err := inbox.Start(inboxCtx); err != nil {
			logger.Fatal("Failed to start photo inbox", zap.Error(err))
		}
		go func() {
			n := inbox.SyncExisting(inboxCtx)
			logger.Info("photo inbox synced", zap.String("dir", inbox.Root()), zap.Int("photos", n))
		}()
	}

	srv := server.NewServer(components.ServerDeps(cfg), &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	inboxCancel()
	if inbox != nil {
		inbox.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// newFlagSet returns a flag set that reports parse errors instead of exiting,
// so subcommand parsing can be tested.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`fika - Food photo nutrition tracker

Usage:
  fika server [flags]                 Start the HTTP server
  fika summary [flags]                Show a daily or period nutrition summary
  fika plan parse [flags] <file>      Parse a meal-plan document (pdf, docx, odt, rtf, xlsx, txt)
  fika plan render [flags] <file>     Render a meal-plan JSON file as PDF
  fika status [flags]                 Show storage counts
  fika version                        Show version
  fika help                           Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/fika/config.yaml)
  --debug            Enable debug logging

Summary Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --user string      User ID (required)
  --date string      Day to summarise (YYYY-MM-DD, default today)
  --period string    week, month, year or custom; switches to a period summary
  --start string     Custom period start (YYYY-MM-DD)
  --end string       Custom period end (YYYY-MM-DD)
  --xlsx string      Also write the period summary as a spreadsheet to this path
  --output string    Output format: text or json (default: text)

Plan Flags:
  --output string    parse: output format, text or json (default: text)
  --style string     render: simple or styled (default: simple)
  --out string       render: PDF path (default: derived from the plan dates)
  --user string      render: name shown on the document
  --verify           render: read the PDF back and check every meal is present

Status Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL. Use empty (--server "") for direct storage.
  --output string    Output format: text or json (default: text)

Examples:
  fika server
  fika summary --user 3f1c... --date 2024-03-12
  fika summary --user 3f1c... --period month --output json
  fika summary --user 3f1c... --period custom --start 2024-03-01 --end 2024-03-15 --xlsx marzo.xlsx
  fika plan parse plan.docx
  fika plan render --style styled --verify plan.json
  fika status --output json`)
}
