package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/drummonds/pageshot/config"
	"github.com/drummonds/pageshot/database"
	"github.com/drummonds/pageshot/engine"
	"github.com/drummonds/pageshot/engine/pdfinfo"
	"github.com/drummonds/pageshot/engine/pdfrenderer"
)

// errNoConversions makes the process exit non-zero when a run converted nothing
var errNoConversions = errors.New("no documents were converted")

func newConvertCmd(app *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert INPUT_DIR OUTPUT_DIR",
		Short: "Convert every PDF under INPUT_DIR into page images in OUTPUT_DIR",
		Long: `Convert every PDF found under INPUT_DIR (recursively) into one image per page.
Pages are written to OUTPUT_DIR as <name>_page_001.<format>.

Examples:
  pageshot convert scans/ images/                       # 300 dpi PNG
  pageshot convert scans/ images/ -f jpg --dpi 150      # smaller JPEGs
  pageshot convert scans/ thumbs/ --max-width 400       # thumbnails
  pageshot convert scans/ images/ --every 10m           # watch the input directory
  pageshot convert scans/ images/ --status-addr :8090   # serve progress over HTTP`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.load(args[0], args[1])
			if err != nil {
				return err
			}
			return runConvert(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	f := cmd.Flags()
	f.Float64(config.KeyDPI, 300, "render resolution in dots per inch")
	f.StringP(config.KeyFormat, "f", "png", "image format: png, jpg, jpeg, gif, tif, tiff or bmp")
	f.Int(config.KeyMaxWidth, 0, "maximum image width in pixels, 0 for unlimited")
	f.Int(config.KeyMaxHeight, 0, "maximum image height in pixels, 0 for unlimited")
	f.Bool(config.KeyNoAspectRatio, false, "let width and height scale independently under --max-width/--max-height")
	f.Int(config.KeyJPEGQuality, 95, "JPEG quality from 1 to 100")
	f.IntP(config.KeyJobs, "j", 0, "documents converted at once, 0 for the CPU count")
	f.Int(config.KeyPageLimit, 0, "pages rendered at once, 0 for the CPU count clamped to 2..8")
	f.String(config.KeyPageLimitScope, config.ScopeDocument, "page limit applies per document or per run")
	f.String(config.KeyRenderer, "pdfium", "rendering backend: pdfium or fitz")
	f.String(config.KeyPassword, "", "password for encrypted documents")
	f.String(config.KeyStatusAddr, "", "serve the status API on this address while converting, eg :8090")
	f.String(config.KeyEvery, "", "convert again on this interval until interrupted, eg 10m")
	f.Bool(config.KeyDryRun, false, "list documents and page counts without rendering")
	addHistoryFlags(f)
	return cmd
}

func runConvert(ctx context.Context, w io.Writer, cfg config.Config) error {
	paths, err := engine.Discover(cfg.InputDir)
	if err != nil {
		return err
	}

	out := newConsole(w, cfg)
	if cfg.DryRun {
		return dryRun(w, cfg, paths)
	}

	renderer, err := pdfrenderer.NewRenderer(cfg.Renderer, pdfrenderer.Options{
		Instances: engine.NormalizeWorkers(cfg.Jobs),
		Password:  cfg.Password,
	})
	if err != nil {
		return err
	}
	defer renderer.Close()

	var db database.Repository
	if cfg.HistoryDB != "" {
		Logger.Info("Setting up run history", "type", cfg.DatabaseType)
		bunDB, err := database.NewRepository(cfg)
		if err != nil {
			return fmt.Errorf("failed to open run history: %w", err)
		}
		defer bunDB.Close()
		db = bunDB
	}
	tracker := engine.NewRunTracker(db)
	progress := &engine.LatestProgress{}

	if cfg.StatusAddr != "" {
		statusCtx, stopStatus := context.WithCancel(ctx)
		statusDone := make(chan struct{})
		handler := engine.NewStatusHandler(db, tracker, progress)
		handler.Renderer = renderer
		handler.Options = engine.OptionsFromConfig(cfg)
		go func() {
			defer close(statusDone)
			if err := serveStatus(statusCtx, cfg.StatusAddr, handler); err != nil {
				Logger.Error("Status server failed", "address", cfg.StatusAddr, "error", err)
			}
		}()
		defer func() {
			stopStatus()
			<-statusDone
		}()
	}

	scheduler := engine.NewBatchScheduler(renderer, cfg)
	scheduler.OnProgress = engine.MultiProgress(progress.Observe, out.Progress)
	scheduler.OnPage = out.Page

	convert := func(ctx context.Context, paths []string) engine.BatchResult {
		progress.Reset()
		result, runID := tracker.Run(ctx, scheduler, cfg.InputDir, paths, cfg.OutputDir)
		out.Summary(result, runID, db != nil)
		return result
	}

	if cfg.Every > 0 {
		watch, err := engine.StartWatch(ctx, cfg.Every, func(ctx context.Context) {
			paths, err := engine.Discover(cfg.InputDir)
			if err != nil {
				Logger.Error("Failed to scan input directory", "path", cfg.InputDir, "error", err)
				return
			}
			convert(ctx, paths)
		})
		if err != nil {
			return err
		}
		<-ctx.Done()
		Logger.Info("Stopping watch")
		<-watch.Stop().Done()
		return nil
	}

	if result := convert(ctx, paths); result.SuccessfulConversions == 0 {
		return errNoConversions
	}
	return nil
}

// dryRun lists what a conversion would produce, reading page sizes without rendering
func dryRun(w io.Writer, cfg config.Config, paths []string) error {
	opts := engine.OptionsFromConfig(cfg)
	total := 0
	for _, path := range paths {
		info, err := pdfinfo.Probe(path)
		if err != nil {
			fmt.Fprintf(w, "%s: %v\n", path, err)
			continue
		}
		total += info.PageCount
		fmt.Fprintf(w, "%s: %d pages", path, info.PageCount)
		if len(info.Pages) > 0 {
			first := info.Pages[0]
			sx, sy := engine.ComputeScale(opts, first.Width, first.Height)
			pw, ph := pdfrenderer.PixelSize(first.Width, first.Height, sx, sy)
			fmt.Fprintf(w, ", first page %dx%d px -> %s",
				pw, ph, filepath.Join(cfg.OutputDir, engine.OutputFilename(path, 1, opts.Extension())))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d documents, %d pages\n", len(paths), total)
	return nil
}
