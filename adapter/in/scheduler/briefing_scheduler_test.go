package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"briefing_worker/core/domain"
)

type fakeRunner struct {
	calls int
	block chan struct{}
}

func (f *fakeRunner) RunOnce(ctx context.Context) (*domain.RunResult, error) {
	f.calls++
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &domain.RunResult{RunID: "r1"}, nil
}

func newTestScheduler(t *testing.T, runner *fakeRunner, times []string) *Scheduler {
	t.Helper()
	return New(runner, Config{
		Times:    times,
		LockFile: filepath.Join(t.TempDir(), "test.lock"),
	}, zerolog.Nop())
}

func TestTickFiresMatchingSlot(t *testing.T) {
	runner := &fakeRunner{}
	s := newTestScheduler(t, runner, []string{"06:00", "12:00"})

	s.tick(context.Background(), time.Date(2026, 8, 25, 6, 0, 12, 0, time.Local))
	if runner.calls != 1 {
		t.Fatalf("calls = %d, want 1", runner.calls)
	}

	s.tick(context.Background(), time.Date(2026, 8, 25, 7, 30, 0, 0, time.Local))
	if runner.calls != 1 {
		t.Errorf("calls = %d, non-slot minute must not fire", runner.calls)
	}
}

func TestTickFiresOncePerSlotPerDay(t *testing.T) {
	runner := &fakeRunner{}
	s := newTestScheduler(t, runner, []string{"06:00"})

	day1 := time.Date(2026, 8, 25, 6, 0, 0, 0, time.Local)
	s.tick(context.Background(), day1)
	s.tick(context.Background(), day1.Add(10*time.Second))
	if runner.calls != 1 {
		t.Errorf("calls = %d, same slot same day must fire once", runner.calls)
	}

	s.tick(context.Background(), day1.Add(24*time.Hour))
	if runner.calls != 2 {
		t.Errorf("calls = %d, next day must fire again", runner.calls)
	}
}

func TestTickTrimsSlotWhitespace(t *testing.T) {
	runner := &fakeRunner{}
	s := newTestScheduler(t, runner, []string{" 09:00 "})

	s.tick(context.Background(), time.Date(2026, 8, 25, 9, 0, 0, 0, time.Local))
	if runner.calls != 1 {
		t.Errorf("calls = %d, want 1 after trimming", runner.calls)
	}
}

func TestAcquireLockExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")

	release, err := acquireLock(path)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	if _, err := acquireLock(path); err == nil {
		t.Error("second acquire must fail while lock is held")
	}

	release()

	release2, err := acquireLock(path)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	release2()
}

func TestRunLockedSkipsWhenLockHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")
	release, err := acquireLock(path)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()

	runner := &fakeRunner{}
	s := New(runner, Config{Times: []string{"06:00"}, LockFile: path}, zerolog.Nop())

	s.runLocked(context.Background(), "06:00")
	if runner.calls != 0 {
		t.Errorf("calls = %d, held lock must skip the run", runner.calls)
	}
}
