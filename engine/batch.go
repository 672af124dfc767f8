package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/drummonds/pageshot/config"
	"github.com/drummonds/pageshot/engine/pdfrenderer"
	"golang.org/x/sync/errgroup"
)

// ResultFunc observes each recorded document outcome
type ResultFunc func(job DocumentJob, result ConversionResult)

// BatchScheduler runs a fixed pool of workers over a job list. Each worker
// claims the next job with an atomic index and converts it with a PagePipeline.
type BatchScheduler struct {
	Renderer pdfrenderer.Renderer
	Options  ConversionOptions
	// Workers <= 0 uses the CPU count
	Workers   int
	PageLimit int
	// PageLimitScope is config.ScopeDocument (a limiter per document, so up to
	// Workers × PageLimit pages render at once) or config.ScopeRun (one limiter
	// for the whole run)
	PageLimitScope string

	OnProgress ProgressFunc
	OnPage     PageProgressFunc
	OnResult   ResultFunc

	// Save overrides the image encoder
	Save SaveFunc
}

// NewBatchScheduler builds a scheduler from the loaded configuration
func NewBatchScheduler(renderer pdfrenderer.Renderer, cfg config.Config) *BatchScheduler {
	return &BatchScheduler{
		Renderer:       renderer,
		Options:        OptionsFromConfig(cfg),
		Workers:        cfg.Jobs,
		PageLimit:      cfg.PageLimit,
		PageLimitScope: cfg.PageLimitScope,
	}
}

// Jobs numbers paths in order
func Jobs(paths []string) []DocumentJob {
	jobs := make([]DocumentJob, len(paths))
	for i, p := range paths {
		jobs[i] = DocumentJob{Path: p, Ordinal: i}
	}
	return jobs
}

// Run converts every document in paths into outputDir and blocks until all
// workers have exited. ctx is the run's cancellation token: once it is done no
// new document is claimed, while documents already claimed still report an
// outcome.
func (s *BatchScheduler) Run(ctx context.Context, paths []string, outputDir string) BatchResult {
	start := time.Now()
	jobs := Jobs(paths)

	if len(jobs) == 0 {
		Logger.Warn("No PDF files found in input")
		result := failedRun(0, ErrNoInput)
		result.Duration = time.Since(start)
		return result
	}

	if err := outputDirectoryChecks(outputDir); err != nil {
		Logger.Error("Failed to create output directory", "path", outputDir, "error", err)
		result := failedRun(len(jobs), ErrOutputDirectory)
		result.Duration = time.Since(start)
		return result
	}

	workers := NormalizeWorkers(s.Workers)
	pipeline := &PagePipeline{
		Renderer:  s.Renderer,
		Options:   s.Options,
		OutputDir: outputDir,
		PageLimit: s.PageLimit,
		OnPage:    s.OnPage,
		Save:      s.Save,
	}
	if s.PageLimitScope == config.ScopeRun {
		pipeline.Limiter = NewPageLimiter(s.PageLimit)
	}
	Logger.Info("Processing PDF files", "files", len(jobs), "workers", workers, "pageLimitScope", s.scope())

	aggregator := NewResultAggregator(len(jobs))
	var next atomic.Int64
	g := new(errgroup.Group)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			s.worker(ctx, jobs, &next, pipeline, aggregator)
			return nil
		})
	}
	// workers report through the aggregator and never fail; Wait is the join
	_ = g.Wait()

	result := aggregator.Result()
	result.Cancelled = result.TotalPDFs < result.Discovered
	result.Duration = time.Since(start)
	Logger.Info("Batch processing completed",
		"successful", result.SuccessfulConversions,
		"total", result.TotalPDFs,
		"pages", result.TotalPagesConverted,
		"cancelled", result.Cancelled)
	return result
}

func (s *BatchScheduler) worker(ctx context.Context, jobs []DocumentJob, next *atomic.Int64, pipeline *PagePipeline, aggregator *ResultAggregator) {
	for ctx.Err() == nil {
		index := int(next.Add(1) - 1)
		if index >= len(jobs) {
			return
		}
		job := jobs[index]

		if s.OnProgress != nil {
			s.OnProgress(ProgressSnapshot{
				CurrentFile:     index + 1,
				TotalFiles:      len(jobs),
				CurrentFilename: displayName(job.Path),
				PagesProcessed:  aggregator.PagesConverted(),
			})
		}

		result := pipeline.Convert(ctx, job)
		aggregator.Record(result)
		if s.OnResult != nil {
			s.OnResult(job, result)
		}
	}
}

func (s *BatchScheduler) scope() string {
	if s.PageLimitScope == "" {
		return config.ScopeDocument
	}
	return s.PageLimitScope
}
