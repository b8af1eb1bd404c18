package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hardware-forge/fij-go/internal/core/domain"
)

// CSVReporter writes the campaign's classification table: one row per
// iteration followed by one totals row per classification. The
// register/memory breakdown (RegisterCounts/MemoryCounts) is not written to
// the CSV.
type CSVReporter struct{}

func NewCSVReporter() *CSVReporter { return &CSVReporter{} }

// Write renders summary to <dir>/summary.csv.
func (r *CSVReporter) Write(dir string, summary domain.CampaignSummary) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("csv report: mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, "summary.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv report: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"iteration", "classification", "kind", "duration_ms", "diff_pixels"}); err != nil {
		return err
	}
	for _, o := range summary.Outcomes {
		row := []string{
			fmt.Sprintf("%d", o.Iteration),
			string(o.Classification),
			string(o.Kind),
			fmt.Sprintf("%.3f", o.DurationMS),
			fmt.Sprintf("%d", o.DiffPixels),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	for _, class := range []domain.Classification{domain.ClassCrash, domain.ClassHang, domain.ClassSDC, domain.ClassBenign} {
		if err := w.Write([]string{"total", string(class), "", fmt.Sprintf("%d", summary.Counts[class]), ""}); err != nil {
			return err
		}
	}

	return w.Error()
}
