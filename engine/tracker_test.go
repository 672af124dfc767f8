package engine

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/drummonds/pageshot/config"
	"github.com/drummonds/pageshot/database"
	"github.com/oklog/ulid/v2"
)

func newTestHistory(t *testing.T) *database.BunDB {
	t.Helper()
	db, err := database.NewRepository(config.Config{DatabaseType: "sqlite", HistoryDB: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to create history database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunTracker_CompletedRun(t *testing.T) {
	db := newTestHistory(t)
	tracker := NewRunTracker(db)
	r := newFakeRenderer(map[string]fakeDoc{
		"a.pdf": {pages: 2},
		"b.pdf": {pages: 3, fail: map[int]bool{1: true}},
		"c.pdf": {corrupt: true},
	})

	var results int
	s := newTestScheduler(r, 1)
	s.OnResult = func(DocumentJob, ConversionResult) { results++ }

	paths := []string{"in/a.pdf", "in/b.pdf", "in/c.pdf"}
	result, runID := tracker.Run(context.Background(), s, "in", paths, filepath.Join(t.TempDir(), "out"))
	if result.SuccessfulConversions != 2 || result.FailedConversions != 1 {
		t.Fatalf("Unexpected result %+v", result)
	}
	if results != 3 {
		t.Errorf("Expected the caller's OnResult to still see 3 results, got %d", results)
	}
	if len(tracker.Active()) != 0 {
		t.Error("Expected no active runs after Run returned")
	}

	run, err := db.GetRun(runID)
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}
	if run.Status != database.RunStatusCompleted || run.Progress != 100 {
		t.Errorf("Expected completed at 100%%, got %s at %d", run.Status, run.Progress)
	}
	if run.TotalDocuments != 3 || run.InputDir != "in" {
		t.Errorf("Unexpected run record %+v", run)
	}

	var stored BatchResult
	if err := json.Unmarshal([]byte(run.Result), &stored); err != nil {
		t.Fatalf("Stored result is not JSON: %v", err)
	}
	if stored.TotalPagesConverted != 4 || len(stored.Errors) != 1 {
		t.Errorf("Unexpected stored result %+v", stored)
	}

	conversions, err := db.GetRunConversions(runID)
	if err != nil {
		t.Fatalf("Failed to get conversions: %v", err)
	}
	if len(conversions) != 3 {
		t.Fatalf("Expected 3 conversions, got %d", len(conversions))
	}
	for i, c := range conversions {
		if c.Ordinal != i || c.Path != paths[i] {
			t.Errorf("conversion %d: unexpected %+v", i, c)
		}
	}
	if conversions[2].Success || conversions[2].Error != "Failed to load PDF document" {
		t.Errorf("Expected c.pdf to be stored as failed, got %+v", conversions[2])
	}
	if conversions[1].PagesConverted != 2 || conversions[1].PageCount != 3 {
		t.Errorf("Expected b.pdf with 2 of 3 pages, got %+v", conversions[1])
	}
}

func TestRunTracker_CancelledRun(t *testing.T) {
	db := newTestHistory(t)
	tracker := NewRunTracker(db)
	docs := map[string]fakeDoc{}
	var paths []string
	for i := 0; i < 10; i++ {
		name := string(rune('a'+i)) + ".pdf"
		docs[name] = fakeDoc{pages: 1}
		paths = append(paths, name)
	}

	s := newTestScheduler(newFakeRenderer(docs), 1)
	s.OnProgress = func(p ProgressSnapshot) {
		if p.CurrentFile == 2 {
			for _, id := range tracker.Active() {
				tracker.Cancel(id)
			}
		}
	}

	result, runID := tracker.Run(context.Background(), s, "in", paths, t.TempDir())
	if !result.Cancelled || result.TotalPDFs != 2 {
		t.Fatalf("Expected a run cancelled after 2 claims, got %+v", result)
	}

	run, err := db.GetRun(runID)
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}
	if run.Status != database.RunStatusCancelled {
		t.Errorf("Expected cancelled status, got %s", run.Status)
	}
	if run.CompletedAt == nil {
		t.Error("Expected completion time on a cancelled run")
	}
}

func TestRunTracker_EmptyInput(t *testing.T) {
	db := newTestHistory(t)
	tracker := NewRunTracker(db)

	result, runID := tracker.Run(context.Background(), newTestScheduler(newFakeRenderer(nil), 1), "in", nil, t.TempDir())
	if result.TotalPDFs != 0 || len(result.Errors) != 1 {
		t.Fatalf("Unexpected result %+v", result)
	}

	run, err := db.GetRun(runID)
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}
	if run.Status != database.RunStatusFailed || run.Error != "No PDF files found in input directory" {
		t.Errorf("Expected failed run with error, got %s %q", run.Status, run.Error)
	}
}

func TestRunTracker_WithoutHistory(t *testing.T) {
	tracker := NewRunTracker(nil)
	r := newFakeRenderer(map[string]fakeDoc{"a.pdf": {pages: 1}})

	result, runID := tracker.Run(context.Background(), newTestScheduler(r, 1), "in", []string{"a.pdf"}, t.TempDir())
	if result.SuccessfulConversions != 1 {
		t.Errorf("Expected one success, got %+v", result)
	}
	if runID == (ulid.ULID{}) {
		t.Error("Expected a run id even without history")
	}
	if tracker.Cancel(ulid.Make()) {
		t.Error("Expected Cancel of an unknown run to return false")
	}
}

func TestStatusForResult(t *testing.T) {
	tests := []struct {
		result BatchResult
		want   database.RunStatus
	}{
		{BatchResult{TotalPDFs: 2, SuccessfulConversions: 1, FailedConversions: 1}, database.RunStatusCompleted},
		{BatchResult{TotalPDFs: 2, FailedConversions: 2}, database.RunStatusFailed},
		{BatchResult{TotalPDFs: 1, SuccessfulConversions: 1, Cancelled: true}, database.RunStatusCancelled},
	}
	for _, tt := range tests {
		if got := StatusForResult(tt.result); got != tt.want {
			t.Errorf("StatusForResult(%+v) = %s, want %s", tt.result, got, tt.want)
		}
	}
}
