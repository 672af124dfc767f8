package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/drummonds/pageshot/database"
	"github.com/oklog/ulid/v2"
)

// RunTracker records batch runs in the history database and keeps the cancel
// functions of runs in progress. DB may be nil, runs are then only cancellable.
type RunTracker struct {
	DB database.Repository

	mu     sync.Mutex
	active map[ulid.ULID]context.CancelFunc
}

// NewRunTracker creates a tracker writing to db
func NewRunTracker(db database.Repository) *RunTracker {
	return &RunTracker{DB: db, active: make(map[ulid.ULID]context.CancelFunc)}
}

// Run executes the batch like BatchScheduler.Run while storing its progress,
// every document outcome and the final report. Storage failures are logged
// and never change the batch.
func (t *RunTracker) Run(ctx context.Context, s *BatchScheduler, inputDir string, paths []string, outputDir string) (result BatchResult, runID ulid.ULID) {
	runID = t.createRun(inputDir, outputDir, len(paths))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	t.register(runID, cancel)
	defer t.unregister(runID)

	// Add panic recovery and update run status on panic
	defer func() {
		if r := recover(); r != nil {
			Logger.Error("Panic recovered in batch run", "panic", r, "runID", runID)
			message := fmt.Sprintf("Panic: %v", r)
			t.fail(runID, message)
			result = BatchResult{Discovered: len(paths), Errors: []string{message}}
		}
	}()

	tracked := *s
	if t.DB != nil {
		tracked.OnProgress = MultiProgress(s.OnProgress, t.progressFunc(runID))
		onResult := s.OnResult
		tracked.OnResult = func(job DocumentJob, result ConversionResult) {
			t.recordConversion(runID, job, result)
			if onResult != nil {
				onResult(job, result)
			}
		}
		if err := t.DB.UpdateRunStatus(runID, database.RunStatusRunning, "Converting documents"); err != nil {
			Logger.Error("Failed to update run status", "runID", runID, "error", err)
		}
	}

	result = tracked.Run(runCtx, paths, outputDir)
	t.finish(runID, result)
	return result, runID
}

// Cancel cancels an active run, false if it is not running here
func (t *RunTracker) Cancel(runID ulid.ULID) bool {
	t.mu.Lock()
	cancel, ok := t.active[runID]
	t.mu.Unlock()
	if ok {
		Logger.Info("Cancelling run", "runID", runID)
		cancel()
	}
	return ok
}

// Active lists the ids of runs in progress
func (t *RunTracker) Active() []ulid.ULID {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]ulid.ULID, 0, len(t.active))
	for id := range t.active {
		ids = append(ids, id)
	}
	return ids
}

func (t *RunTracker) register(runID ulid.ULID, cancel context.CancelFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		t.active = make(map[ulid.ULID]context.CancelFunc)
	}
	t.active[runID] = cancel
}

func (t *RunTracker) unregister(runID ulid.ULID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.active, runID)
}

func (t *RunTracker) createRun(inputDir, outputDir string, total int) ulid.ULID {
	if t.DB != nil {
		run, err := t.DB.CreateRun(inputDir, outputDir, total, "Starting batch conversion")
		if err == nil {
			return run.ID
		}
		Logger.Error("Failed to create run record", "error", err)
	}
	return ulid.Make()
}

func (t *RunTracker) progressFunc(runID ulid.ULID) ProgressFunc {
	return func(s ProgressSnapshot) {
		if err := t.DB.UpdateRunProgress(runID, s.Percent(), s.CurrentFilename); err != nil {
			Logger.Warn("Failed to update run progress", "runID", runID, "error", err)
		}
	}
}

func (t *RunTracker) recordConversion(runID ulid.ULID, job DocumentJob, result ConversionResult) {
	err := t.DB.RecordConversion(&database.Conversion{
		RunID:          runID,
		Ordinal:        job.Ordinal,
		Path:           job.Path,
		Success:        result.Success,
		PageCount:      result.PageCount,
		PagesConverted: result.PagesConverted,
		BytesWritten:   result.BytesWritten,
		Error:          result.ErrorMessage,
		Duration:       result.Duration,
		CreatedAt:      time.Now(),
	})
	if err != nil {
		Logger.Warn("Failed to record conversion", "runID", runID, "path", job.Path, "error", err)
	}
}

func (t *RunTracker) fail(runID ulid.ULID, message string) {
	if t.DB == nil {
		return
	}
	if err := t.DB.UpdateRunError(runID, message); err != nil {
		Logger.Error("Failed to update run error", "runID", runID, "error", err)
	}
}

// finish stores the report with the run's terminal status
func (t *RunTracker) finish(runID ulid.ULID, result BatchResult) {
	if t.DB == nil {
		return
	}
	if result.TotalPDFs == 0 && !result.Cancelled && len(result.Errors) > 0 {
		t.fail(runID, result.Errors[0])
		return
	}

	status := StatusForResult(result)
	payload, err := json.Marshal(result)
	if err != nil {
		Logger.Error("Failed to encode batch result", "runID", runID, "error", err)
		payload = []byte("{}")
	}
	if err := t.DB.CompleteRun(runID, status, string(payload)); err != nil {
		Logger.Error("Failed to complete run", "runID", runID, "error", err)
	}
}

// StatusForResult is the stored terminal status for a batch result
func StatusForResult(result BatchResult) database.RunStatus {
	switch {
	case result.Cancelled:
		return database.RunStatusCancelled
	case result.SuccessfulConversions == 0:
		return database.RunStatusFailed
	default:
		return database.RunStatusCompleted
	}
}
