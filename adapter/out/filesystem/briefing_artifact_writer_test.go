package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"briefing_worker/core/domain"
)

func TestPersistWritesTimestampedJSON(t *testing.T) {
	dir := t.TempDir()
	w := NewArtifactWriter(dir).WithClock(func() time.Time {
		return time.Date(2026, 8, 25, 6, 0, 30, 0, time.UTC)
	})

	artifact := &domain.RunArtifact{
		Result: domain.RunResult{
			RunID:           "run-1",
			ThreadsFetched:  4,
			ThreadsAnalyzed: 2,
			TasksCreated:    1,
		},
		Analyses: []domain.ThreadAnalysis{
			{ThreadKey: "budget review", Summary: "review requested", Tier: domain.TierHigh},
		},
	}

	if err := w.Persist(context.Background(), artifact); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	path := filepath.Join(dir, "briefing_20260825_060030.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected artifact file at %s: %v", path, err)
	}

	var got domain.RunArtifact
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("artifact is not valid JSON: %v", err)
	}
	if got.Result.RunID != "run-1" {
		t.Errorf("run id = %q", got.Result.RunID)
	}
	if len(got.Analyses) != 1 || got.Analyses[0].ThreadKey != "budget review" {
		t.Errorf("analyses = %v", got.Analyses)
	}
}

func TestPersistCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")
	w := NewArtifactWriter(dir)

	if err := w.Persist(context.Background(), &domain.RunArtifact{}); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("output dir missing: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if filepath.Ext(entries[0].Name()) != ".json" {
		t.Errorf("file name = %q, want .json", entries[0].Name())
	}
}

func TestPersistLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	w := NewArtifactWriter(dir)

	if err := w.Persist(context.Background(), &domain.RunArtifact{}); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
