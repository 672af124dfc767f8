package database

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// Repository defines the run history operations
type Repository interface {
	Close() error
	// Run tracking methods
	CreateRun(inputDir, outputDir string, totalDocuments int, message string) (*Run, error)
	UpdateRunProgress(runID ulid.ULID, progress int, currentStep string) error
	UpdateRunStatus(runID ulid.ULID, status RunStatus, message string) error
	UpdateRunError(runID ulid.ULID, errorMsg string) error
	CompleteRun(runID ulid.ULID, status RunStatus, result string) error
	GetRun(runID ulid.ULID) (*Run, error)
	GetRecentRuns(limit, offset int) ([]Run, error)
	GetActiveRuns() ([]Run, error)
	DeleteOldRuns(olderThan time.Duration) (int, error)
	// Per document results
	RecordConversion(conversion *Conversion) error
	GetRunConversions(runID ulid.ULID) ([]Conversion, error)
}

// CalculateUUID for a new run
func CalculateUUID(time time.Time) (ulid.ULID, error) {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.UnixNano())), 0)
	newULID, err := ulid.New(ulid.Timestamp(time), entropy)
	if err != nil {
		return newULID, err
	}
	return newULID, nil
}
