package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/drummonds/pageshot/config"
	"github.com/drummonds/pageshot/database"
	"github.com/drummonds/pageshot/engine"
	"github.com/drummonds/pageshot/engine/pdfrenderer"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	database.Logger = Logger
	config.Logger = Logger
	engine.Logger = Logger
	pdfrenderer.Logger = Logger
}

func main() {
	config.LoadEnvFiles()

	// Set up context with signal handling so Ctrl+C stops new documents being claimed
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errNoConversions) {
			Logger.Error("pageshot failed", "error", err)
		}
		os.Exit(1)
	}
}
