package engine

import (
	"fmt"
	"sync"
	"testing"
)

func TestResultAggregator_ConcurrentRecord(t *testing.T) {
	agg := NewResultAggregator(200)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				path := fmt.Sprintf("w%d/doc%d.pdf", w, i)
				if i%5 == 0 {
					agg.Record(ConversionResult{Path: path, ErrorMessage: "Failed to load PDF document"})
					continue
				}
				agg.Record(ConversionResult{Path: path, Success: true, PagesConverted: 2, BytesWritten: 100})
				_ = agg.PagesConverted()
			}
		}(w)
	}
	wg.Wait()

	result := agg.Result()
	if result.TotalPDFs != 200 || result.Discovered != 200 {
		t.Errorf("Expected 200 documents, got %d of %d", result.TotalPDFs, result.Discovered)
	}
	if result.SuccessfulConversions != 160 || result.FailedConversions != 40 {
		t.Errorf("Expected 160/40, got %d/%d", result.SuccessfulConversions, result.FailedConversions)
	}
	if result.TotalPagesConverted != 320 || result.BytesWritten != 16000 {
		t.Errorf("Expected 320 pages and 16000 bytes, got %d and %d", result.TotalPagesConverted, result.BytesWritten)
	}
	if len(result.Errors) != 40 {
		t.Errorf("Expected 40 errors, got %d", len(result.Errors))
	}
}

func TestResultAggregator_ErrorFormat(t *testing.T) {
	agg := NewResultAggregator(2)
	agg.Record(ConversionResult{Path: "in/b.pdf", Success: true, PagesConverted: 2})
	agg.Record(ConversionResult{Path: "in/c.pdf", ErrorMessage: "Failed to load PDF document"})

	result := agg.Result()
	if len(result.Errors) != 1 || result.Errors[0] != "in/c.pdf: Failed to load PDF document" {
		t.Errorf("Unexpected errors %q", result.Errors)
	}

	// Result hands out a copy
	result.Errors[0] = "changed"
	if agg.Result().Errors[0] == "changed" {
		t.Error("Expected Result to copy the error list")
	}
}

func TestResultAggregator_Empty(t *testing.T) {
	result := NewResultAggregator(0).Result()
	if result.Errors == nil {
		t.Error("Expected an empty, non-nil error list")
	}
	if result.TotalPDFs != 0 {
		t.Errorf("Expected no documents, got %d", result.TotalPDFs)
	}
}
