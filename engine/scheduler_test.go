package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestStartWatch_RunsImmediately(t *testing.T) {
	var runs atomic.Int64
	started := make(chan struct{}, 1)

	w, err := StartWatch(context.Background(), time.Hour, func(ctx context.Context) {
		runs.Add(1)
		select {
		case started <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("StartWatch failed: %v", err)
	}
	defer w.Stop()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("Expected the job to run at startup")
	}
	if n := runs.Load(); n != 1 {
		t.Errorf("Expected exactly one run before the first tick, got %d", n)
	}
}

func TestStartWatch_PanicDoesNotStopSchedule(t *testing.T) {
	done := make(chan struct{})
	w, err := StartWatch(context.Background(), time.Hour, func(ctx context.Context) {
		defer close(done)
		panic("bad run")
	})
	if err != nil {
		t.Fatalf("StartWatch failed: %v", err)
	}
	<-done

	// Stop returns a context that is done once no job is running
	select {
	case <-w.Stop().Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Expected Stop to complete after a panicking job")
	}
}

func TestStartWatch_CancelledContextSkipsJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var runs atomic.Int64
	w, err := StartWatch(ctx, time.Hour, func(ctx context.Context) { runs.Add(1) })
	if err != nil {
		t.Fatalf("StartWatch failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	<-w.Stop().Done()
	if runs.Load() != 0 {
		t.Error("Expected no run once the context is cancelled")
	}
}

func TestStartWatch_InvalidInterval(t *testing.T) {
	for _, every := range []time.Duration{0, -time.Second} {
		if _, err := StartWatch(context.Background(), every, func(context.Context) {}); err == nil {
			t.Errorf("Expected error for interval %s", every)
		}
	}
}
