package database

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// RunStatus represents the status of a batch run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Finished reports whether the status is terminal
func (s RunStatus) Finished() bool {
	return s == RunStatusCompleted || s == RunStatusFailed || s == RunStatusCancelled
}

// Run represents one batch conversion run
type Run struct {
	ID             ulid.ULID  `json:"id"`
	InputDir       string     `json:"inputDir"`
	OutputDir      string     `json:"outputDir"`
	Status         RunStatus  `json:"status"`
	Progress       int        `json:"progress"`        // 0-100, share of documents claimed
	CurrentStep    string     `json:"currentStep"`     // Human-readable current document
	TotalDocuments int        `json:"totalDocuments"`  // Documents discovered
	Message        string     `json:"message"`         // Status message
	Error          string     `json:"error,omitempty"` // Error message if failed
	Result         string     `json:"result,omitempty"` // JSON BatchResult
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// Conversion is the stored outcome of one document in a run
type Conversion struct {
	RunID          ulid.ULID     `json:"runId"`
	Ordinal        int           `json:"ordinal"`
	Path           string        `json:"path"`
	Success        bool          `json:"success"`
	PageCount      int           `json:"pageCount"`
	PagesConverted int           `json:"pagesConverted"`
	BytesWritten   int64         `json:"bytesWritten"`
	Error          string        `json:"error,omitempty"`
	Duration       time.Duration `json:"duration"`
	CreatedAt      time.Time     `json:"createdAt"`
}
