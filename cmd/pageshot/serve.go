package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/drummonds/pageshot/config"
	"github.com/drummonds/pageshot/engine"
	"github.com/drummonds/pageshot/engine/pdfrenderer"
)

func newServeCmd(app *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run history and single page rendering over HTTP",
		Long: `Serve the status API for the run history database, plus single page rendering
of uploaded documents.

Routes:
  GET  /api/health
  POST /api/pages                  (multipart: pdf, page, dpi, format)
  GET  /api/runs?limit=20&offset=0
  GET  /api/runs/active
  GET  /api/runs/:id
  GET  /api/runs/:id/conversions

Examples:
  pageshot serve --history-db runs.db
  pageshot serve --history-db runs.db --status-addr 127.0.0.1:9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.load("", "")
			if err != nil {
				return err
			}
			db, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			renderer, err := pdfrenderer.NewRenderer(cfg.Renderer, pdfrenderer.Options{
				Instances: engine.NormalizeWorkers(cfg.Jobs),
				Password:  cfg.Password,
			})
			if err != nil {
				return err
			}
			defer renderer.Close()

			handler := engine.NewStatusHandler(db, engine.NewRunTracker(db), nil)
			handler.Renderer = renderer
			handler.Options = engine.OptionsFromConfig(cfg)
			return serveStatus(cmd.Context(), cfg.StatusAddr, handler)
		},
	}
	cmd.Flags().String(config.KeyStatusAddr, ":8090", "address to listen on")
	cmd.Flags().String(config.KeyRenderer, "pdfium", "rendering backend for /api/pages: pdfium or fitz")
	cmd.Flags().IntP(config.KeyJobs, "j", 0, "documents rendered at once, 0 for the CPU count")
	addHistoryFlags(cmd.Flags())
	return cmd
}

// serveStatus runs the status server until ctx is done
func serveStatus(ctx context.Context, addr string, handler *engine.StatusHandler) error {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		Logger.Info("Starting status server", "address", addr)
		if err := handler.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("status server on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	Logger.Info("Shutting down status server", "address", addr)
	return handler.Echo.Shutdown(shutdownCtx)
}
