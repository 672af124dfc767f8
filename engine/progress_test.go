package engine

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestProgressSnapshot_Percent(t *testing.T) {
	tests := []struct {
		snapshot ProgressSnapshot
		want     int
	}{
		{ProgressSnapshot{CurrentFile: 1, TotalFiles: 4}, 25},
		{ProgressSnapshot{CurrentFile: 4, TotalFiles: 4}, 100},
		{ProgressSnapshot{CurrentFile: 1, TotalFiles: 3}, 33},
		{ProgressSnapshot{}, 0},
	}
	for _, tt := range tests {
		if got := tt.snapshot.Percent(); got != tt.want {
			t.Errorf("Percent(%+v) = %d, want %d", tt.snapshot, got, tt.want)
		}
	}
}

func TestMultiProgress(t *testing.T) {
	if MultiProgress() != nil || MultiProgress(nil, nil) != nil {
		t.Error("Expected nil without observers")
	}

	var calls []string
	fn := MultiProgress(
		func(ProgressSnapshot) { calls = append(calls, "first") },
		nil,
		func(ProgressSnapshot) { calls = append(calls, "second") },
	)
	fn(ProgressSnapshot{})
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("Expected observers in order, got %v", calls)
	}
}

func TestLatestProgress(t *testing.T) {
	var latest LatestProgress
	if _, ok := latest.Load(); ok {
		t.Error("Expected no snapshot before Observe")
	}

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			latest.Observe(ProgressSnapshot{CurrentFile: i, TotalFiles: 20})
		}(i)
	}
	wg.Wait()

	s, ok := latest.Load()
	if !ok || s.TotalFiles != 20 || s.CurrentFile < 1 || s.CurrentFile > 20 {
		t.Errorf("Unexpected latest snapshot %+v", s)
	}

	latest.Reset()
	if _, ok := latest.Load(); ok {
		t.Error("Expected Reset to clear the snapshot")
	}
}

func TestPageLimiter(t *testing.T) {
	l := NewPageLimiter(2)
	if l.Size() != 2 {
		t.Fatalf("Expected size 2, got %d", l.Size())
	}
	ctx := context.Background()
	if err := l.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if err := l.Acquire(ctx); err != nil {
		t.Fatal(err)
	}

	// full: a bounded wait must fail
	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := l.Acquire(waitCtx); err == nil {
		t.Error("Expected Acquire to fail while the limiter is full")
	}

	l.Release()
	if err := l.Acquire(ctx); err != nil {
		t.Errorf("Expected a permit after Release: %v", err)
	}

	cancelled, cancelNow := context.WithCancel(ctx)
	cancelNow()
	l.Release()
	if err := l.Acquire(cancelled); err == nil {
		t.Error("Expected Acquire to fail on a cancelled context even with free permits")
	}

	if NewPageLimiter(0).Size() != DefaultPageLimit() {
		t.Error("Expected size 0 to use the default page limit")
	}
}
