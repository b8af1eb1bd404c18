package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hardware-forge/fij-go/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestRecordCampaignStartAndEnd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	store, err := NewSQLiteAuditStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	id, err := store.RecordCampaignStart(ctx, "demo-campaign", "digest-123")
	require.NoError(t, err)
	require.NotZero(t, id)

	summary := *domain.NewCampaignSummary("demo-campaign")
	summary.Add(domain.IterationOutcome{Iteration: 1, Classification: domain.ClassCrash, Kind: domain.KindRegister})
	summary.Requested = 10
	summary.Completed = 1
	summary.MeanMS = 4.2
	summary.StdDevMS = 0.8

	require.NoError(t, store.RecordCampaignEnd(ctx, id, summary))

	var row CampaignModel
	require.NoError(t, store.db.First(&row, id).Error)
	require.True(t, row.Finished)
	require.Equal(t, "demo-campaign", row.Label)
	require.Equal(t, 10, row.Requested)
	require.Equal(t, 1, row.Completed)
}
