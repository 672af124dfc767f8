package database

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/uptrace/bun"
)

// BunRun represents the runs table for Bun ORM
type BunRun struct {
	bun.BaseModel `bun:"table:runs,alias:r"`

	ID             string     `bun:"id,pk"` // ULID as string
	InputDir       string     `bun:"input_dir,notnull"`
	OutputDir      string     `bun:"output_dir,notnull"`
	Status         string     `bun:"status,default:'pending'"`
	Progress       int        `bun:"progress,default:0"`
	CurrentStep    string     `bun:"current_step,default:''"`
	TotalDocuments int        `bun:"total_documents,default:0"`
	Message        string     `bun:"message,default:''"`
	Error          string     `bun:"error,nullzero"`
	Result         string     `bun:"result,nullzero"`
	CreatedAt      time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt      time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
	StartedAt      *time.Time `bun:"started_at,nullzero"`
	CompletedAt    *time.Time `bun:"completed_at,nullzero"`
}

// ToRun converts BunRun to Run
func (br *BunRun) ToRun() (*Run, error) {
	parsedULID, err := ulid.Parse(br.ID)
	if err != nil {
		return nil, err
	}

	return &Run{
		ID:             parsedULID,
		InputDir:       br.InputDir,
		OutputDir:      br.OutputDir,
		Status:         RunStatus(br.Status),
		Progress:       br.Progress,
		CurrentStep:    br.CurrentStep,
		TotalDocuments: br.TotalDocuments,
		Message:        br.Message,
		Error:          br.Error,
		Result:         br.Result,
		CreatedAt:      br.CreatedAt,
		UpdatedAt:      br.UpdatedAt,
		StartedAt:      br.StartedAt,
		CompletedAt:    br.CompletedAt,
	}, nil
}

// FromRun converts Run to BunRun
func FromRun(run *Run) *BunRun {
	return &BunRun{
		ID:             run.ID.String(),
		InputDir:       run.InputDir,
		OutputDir:      run.OutputDir,
		Status:         string(run.Status),
		Progress:       run.Progress,
		CurrentStep:    run.CurrentStep,
		TotalDocuments: run.TotalDocuments,
		Message:        run.Message,
		Error:          run.Error,
		Result:         run.Result,
		CreatedAt:      run.CreatedAt,
		UpdatedAt:      run.UpdatedAt,
		StartedAt:      run.StartedAt,
		CompletedAt:    run.CompletedAt,
	}
}

// BunConversion represents the conversions table for Bun ORM
type BunConversion struct {
	bun.BaseModel `bun:"table:conversions,alias:c"`

	RunID          string    `bun:"run_id,pk"`
	Ordinal        int       `bun:"ordinal,pk"`
	Path           string    `bun:"path,notnull"`
	Success        bool      `bun:"success,notnull"`
	PageCount      int       `bun:"page_count,default:0"`
	PagesConverted int       `bun:"pages_converted,default:0"`
	BytesWritten   int64     `bun:"bytes_written,default:0"`
	Error          string    `bun:"error,nullzero"`
	DurationMS     int64     `bun:"duration_ms,default:0"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// ToConversion converts BunConversion to Conversion
func (bc *BunConversion) ToConversion() (*Conversion, error) {
	parsedULID, err := ulid.Parse(bc.RunID)
	if err != nil {
		return nil, err
	}

	return &Conversion{
		RunID:          parsedULID,
		Ordinal:        bc.Ordinal,
		Path:           bc.Path,
		Success:        bc.Success,
		PageCount:      bc.PageCount,
		PagesConverted: bc.PagesConverted,
		BytesWritten:   bc.BytesWritten,
		Error:          bc.Error,
		Duration:       time.Duration(bc.DurationMS) * time.Millisecond,
		CreatedAt:      bc.CreatedAt,
	}, nil
}

// FromConversion converts Conversion to BunConversion
func FromConversion(c *Conversion) *BunConversion {
	return &BunConversion{
		RunID:          c.RunID.String(),
		Ordinal:        c.Ordinal,
		Path:           c.Path,
		Success:        c.Success,
		PageCount:      c.PageCount,
		PagesConverted: c.PagesConverted,
		BytesWritten:   c.BytesWritten,
		Error:          c.Error,
		DurationMS:     c.Duration.Milliseconds(),
		CreatedAt:      c.CreatedAt,
	}
}
