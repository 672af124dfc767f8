package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// WatchSchedule re-runs a batch on a fixed interval
type WatchSchedule struct {
	cron *cron.Cron

	// runs hold a read lock; Stop takes the write lock once cron has stopped
	mu      sync.RWMutex
	stopped bool
}

// StartWatch runs job at once and then every interval until Stop. A tick that
// arrives while the previous run is still going is skipped.
func StartWatch(ctx context.Context, every time.Duration, job func(ctx context.Context)) (*WatchSchedule, error) {
	if every <= 0 {
		return nil, fmt.Errorf("watch interval must be positive, got %s", every)
	}

	logger := cronLogger{}
	w := &WatchSchedule{cron: cron.New(cron.WithLogger(logger))}
	var watchJob cron.Job
	watchJob = cron.FuncJob(func() {
		w.mu.RLock()
		defer w.mu.RUnlock()
		if w.stopped {
			return
		}
		// Add panic recovery so one bad run does not stop the schedule
		defer func() {
			if r := recover(); r != nil {
				Logger.Error("Panic recovered in watch run", "panic", r)
			}
		}()
		if ctx.Err() != nil {
			return
		}
		job(ctx)
	})
	watchJob = cron.NewChain(cron.SkipIfStillRunning(logger)).Then(watchJob) //ensure we don't kick off another if old one is still running
	if _, err := w.cron.AddJob(fmt.Sprintf("@every %s", every), watchJob); err != nil {
		return nil, fmt.Errorf("failed to schedule watch job: %w", err)
	}

	Logger.Info("Running batch at startup")
	go watchJob.Run()

	Logger.Info("Adding watch scheduler", "interval", every.String())
	w.cron.Start()
	return w, nil
}

// Stop stops future ticks. The returned context is done once a running batch finishes.
func (w *WatchSchedule) Stop() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cronDone := w.cron.Stop()
	go func() {
		<-cronDone.Done()
		w.mu.Lock()
		w.stopped = true
		w.mu.Unlock()
		cancel()
	}()
	return ctx
}

// cronLogger sends cron's own messages to Logger
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	Logger.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	Logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
