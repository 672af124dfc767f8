package engine

import (
	"fmt"
	"sync"
	"time"
)

// BatchResult is the report of one batch run. SuccessfulConversions +
// FailedConversions == TotalPDFs always holds; Discovered is the size of the
// job list, so a cancelled run has TotalPDFs < Discovered.
type BatchResult struct {
	TotalPDFs             int           `json:"total_pdfs"`
	Discovered            int           `json:"discovered"`
	SuccessfulConversions int           `json:"successful_conversions"`
	FailedConversions     int           `json:"failed_conversions"`
	TotalPagesConverted   int           `json:"total_pages_converted"`
	BytesWritten          int64         `json:"bytes_written"`
	Errors                []string      `json:"errors"`
	Duration              time.Duration `json:"duration"`
	Cancelled             bool          `json:"cancelled"`
}

// ResultAggregator collects document outcomes from concurrent workers
type ResultAggregator struct {
	mu     sync.Mutex
	result BatchResult
}

// NewResultAggregator starts an empty report for a run of discovered documents
func NewResultAggregator(discovered int) *ResultAggregator {
	return &ResultAggregator{result: BatchResult{Discovered: discovered, Errors: []string{}}}
}

// Record adds one document outcome. Only failed documents add an error entry.
func (a *ResultAggregator) Record(result ConversionResult) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.result.TotalPDFs++
	a.result.TotalPagesConverted += result.PagesConverted
	a.result.BytesWritten += result.BytesWritten
	if result.Success {
		a.result.SuccessfulConversions++
		return
	}
	a.result.FailedConversions++
	a.result.Errors = append(a.result.Errors, fmt.Sprintf("%s: %s", result.Path, result.ErrorMessage))
}

// PagesConverted is the running page total. It may be stale as soon as it returns.
func (a *ResultAggregator) PagesConverted() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result.TotalPagesConverted
}

// Result returns a copy of the report so far
func (a *ResultAggregator) Result() BatchResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.result
	out.Errors = make([]string, len(a.result.Errors))
	copy(out.Errors, a.result.Errors)
	return out
}

// failedRun is the report of a run that stopped before any worker started
func failedRun(discovered int, err error) BatchResult {
	return BatchResult{Discovered: discovered, Errors: []string{err.Error()}}
}
