package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hardware-forge/fij-go/internal/core/domain"
)

// JSONRecorder writes one JSON file per iteration under the campaign's
// directory tree — the canonical
// persistence of iteration results (everything else is a supplement).
type JSONRecorder struct {
	dir string
}

func NewJSONRecorder(dir string) *JSONRecorder {
	return &JSONRecorder{dir: dir}
}

// IterationDir returns the per-iteration subdirectory a recorded injection
// run's JSON and output files live under: <dir>/injection_<n>/.
func (j *JSONRecorder) IterationDir(iteration int) string {
	return filepath.Join(j.dir, fmt.Sprintf("injection_%d", iteration))
}

// Write saves rec to <dir>/injection_<n>/injection_<n>.json.
func (j *JSONRecorder) Write(rec domain.Record) error {
	iterDir := j.IterationDir(rec.Iteration)
	if err := os.MkdirAll(iterDir, 0o755); err != nil {
		return fmt.Errorf("json record: mkdir %s: %w", iterDir, err)
	}
	path := filepath.Join(iterDir, fmt.Sprintf("injection_%d.json", rec.Iteration))
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("json record: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("json record: write %s: %w", path, err)
	}
	return nil
}
