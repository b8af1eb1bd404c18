package reporting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hardware-forge/fij-go/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVReporterWritesRowsAndTotals(t *testing.T) {
	dir := t.TempDir()
	summary := *domain.NewCampaignSummary("csv-target")
	summary.Add(domain.IterationOutcome{Iteration: 1, Classification: domain.ClassCrash, Kind: domain.KindRegister, DurationMS: 12.5})
	summary.Add(domain.IterationOutcome{Iteration: 2, Classification: domain.ClassBenign, Kind: domain.KindMemory, DurationMS: 8})

	require.NoError(t, NewCSVReporter().Write(dir, summary))

	data, err := os.ReadFile(filepath.Join(dir, "summary.csv"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "iteration,classification,kind,duration_ms,diff_pixels")
	assert.Contains(t, content, "CRASH")
	assert.Contains(t, content, "BENIGN")
	assert.Contains(t, content, "total,CRASH,,1,")
}
