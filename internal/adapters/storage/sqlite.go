// Package storage holds the campaign audit trail: a GORM/SQLite record of
// which campaigns ran, over what configuration, and with what summary
// counts. Iteration results stay a directory tree of JSON/CSV files per
// distinct persistence layer; this is a supplement, not a replacement.
package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hardware-forge/fij-go/internal/core/domain"
	"github.com/hardware-forge/fij-go/internal/core/ports"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// SQLiteAuditStore implements ports.AuditStore using GORM and SQLite.
type SQLiteAuditStore struct {
	db *gorm.DB
}

// CampaignModel is the GORM model for one campaign run.
type CampaignModel struct {
	ID           uint   `gorm:"primaryKey"`
	Label        string `gorm:"index"`
	ConfigDigest string
	StartedAt    time.Time
	EndedAt      time.Time
	BaselineRuns int
	BaselineOK   int
	Requested    int
	Completed    int
	MeanMS       float64
	StdDevMS     float64
	CountsJSON   string
	Finished     bool
}

// NewSQLiteAuditStore opens path, migrates the schema, and tunes SQLite for
// a single writer with concurrent readers.
func NewSQLiteAuditStore(path string) (*SQLiteAuditStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&CampaignModel{}); err != nil {
		return nil, err
	}

	if err := db.Use(tracing.NewPlugin()); err != nil {
		return nil, err
	}

	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA busy_timeout=5000;")
	db.Exec("PRAGMA synchronous=NORMAL;")

	db.Exec("CREATE INDEX IF NOT EXISTS idx_campaigns_label ON campaign_models(label)")

	return &SQLiteAuditStore{db: db}, nil
}

// RecordCampaignStart inserts a row for a campaign about to begin.
func (a *SQLiteAuditStore) RecordCampaignStart(ctx context.Context, label, configDigest string) (uint, error) {
	model := CampaignModel{
		Label:        label,
		ConfigDigest: configDigest,
		StartedAt:    time.Now(),
	}
	if err := a.db.WithContext(ctx).Create(&model).Error; err != nil {
		return 0, err
	}
	return model.ID, nil
}

// RecordCampaignEnd fills in the summary counts for a finished campaign.
func (a *SQLiteAuditStore) RecordCampaignEnd(ctx context.Context, campaignID uint, summary domain.CampaignSummary) error {
	countsBytes, err := json.Marshal(summary.Counts)
	if err != nil {
		return err
	}
	updates := map[string]interface{}{
		"ended_at":      time.Now(),
		"baseline_runs": summary.BaselineRuns,
		"baseline_ok":   summary.BaselineOK,
		"requested":     summary.Requested,
		"completed":     summary.Completed,
		"mean_ms":       summary.MeanMS,
		"std_dev_ms":    summary.StdDevMS,
		"counts_json":   string(countsBytes),
		"finished":      true,
	}
	return a.db.WithContext(ctx).Model(&CampaignModel{}).Where("id = ?", campaignID).Updates(updates).Error
}

func (a *SQLiteAuditStore) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ ports.AuditStore = (*SQLiteAuditStore)(nil)
