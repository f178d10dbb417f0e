// Package filesystem persists briefing artifacts as local JSON files.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"briefing_worker/core/domain"
	"briefing_worker/core/port/out"
)

// ArtifactWriter implements out.ArtifactStorePort on the local
// filesystem. Each run produces one timestamped file in the output
// directory.
type ArtifactWriter struct {
	dir string
	now func() time.Time
}

var _ out.ArtifactStorePort = (*ArtifactWriter)(nil)

func NewArtifactWriter(dir string) *ArtifactWriter {
	return &ArtifactWriter{dir: dir, now: time.Now}
}

// WithClock overrides the time source. Used by tests.
func (w *ArtifactWriter) WithClock(now func() time.Time) *ArtifactWriter {
	w.now = now
	return w
}

// Persist writes the artifact as pretty-printed JSON. The write goes
// through a temp file and rename so a crash never leaves a truncated
// artifact behind.
func (w *ArtifactWriter) Persist(ctx context.Context, artifact *domain.RunArtifact) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}

	name := fmt.Sprintf("briefing_%s.json", w.now().UTC().Format("20060102_150405"))
	path := filepath.Join(w.dir, name)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename artifact: %w", err)
	}
	return nil
}
