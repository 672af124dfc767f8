package engine

import (
	"path/filepath"
	"strings"
	"sync/atomic"
)

// ProgressSnapshot is emitted each time a worker claims a document.
// PagesProcessed is read from the aggregator at claim time and is not
// guaranteed to increase between snapshots from different workers.
type ProgressSnapshot struct {
	CurrentFile     int    `json:"currentFile"` // 1-based claim ordinal
	TotalFiles      int    `json:"totalFiles"`
	CurrentFilename string `json:"currentFilename"`
	PagesProcessed  int    `json:"pagesProcessed"`
}

// Percent is the share of documents claimed so far
func (s ProgressSnapshot) Percent() int {
	if s.TotalFiles <= 0 {
		return 0
	}
	return s.CurrentFile * 100 / s.TotalFiles
}

// ProgressFunc observes snapshots. It runs on the claiming worker's goroutine,
// so it must be safe for concurrent use and a slow observer stalls that worker.
type ProgressFunc func(ProgressSnapshot)

// PageProgressFunc observes page tasks finishing within one document
type PageProgressFunc func(job DocumentJob, done, total int)

// MultiProgress fans a snapshot out to every non-nil observer in order
func MultiProgress(observers ...ProgressFunc) ProgressFunc {
	var active []ProgressFunc
	for _, o := range observers {
		if o != nil {
			active = append(active, o)
		}
	}
	switch len(active) {
	case 0:
		return nil
	case 1:
		return active[0]
	}
	return func(s ProgressSnapshot) {
		for _, o := range active {
			o(s)
		}
	}
}

// LatestProgress keeps the most recent snapshot for readers on other goroutines
type LatestProgress struct {
	current atomic.Pointer[ProgressSnapshot]
}

// Observe is a ProgressFunc
func (l *LatestProgress) Observe(s ProgressSnapshot) {
	l.current.Store(&s)
}

// Load returns the latest snapshot, false if none has been stored
func (l *LatestProgress) Load() (ProgressSnapshot, bool) {
	p := l.current.Load()
	if p == nil {
		return ProgressSnapshot{}, false
	}
	return *p, true
}

// Reset forgets the stored snapshot
func (l *LatestProgress) Reset() {
	l.current.Store(nil)
}

func displayName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
