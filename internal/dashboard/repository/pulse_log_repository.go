package repository

import (
	"context"
	"strings"

	"corporate-pulse/internal/entity"
	"corporate-pulse/internal/pulse"

	"gorm.io/gorm"
)

// pulseLogColumns casts the numeric columns to text so a bad value is coerced later instead of
// failing the whole scan, and tolerates top_news being either text or jsonb.
var pulseLogColumns = []string{
	"id",
	"ticker",
	"created_at",
	"pe_ratio::text AS pe_ratio",
	"hype_score::text AS hype_score",
	"gap_score::text AS gap_score",
	"COALESCE(top_news::text, '') AS top_news",
	"COALESCE(is_synthetic, false) AS is_synthetic",
}

// PulseLogRepository reads pipeline observations from the datastore.
type PulseLogRepository interface {
	FindRecent(ctx context.Context, limit int, includeSynthetic bool) ([]entity.PulseLog, error)
	FindHistory(ctx context.Context, ticker string, includeSynthetic bool) ([]entity.PulseLog, error)
	Ping(ctx context.Context) error
}

// NewPulseLogRepository creates a new GORM-based pulse log repository.
func NewPulseLogRepository(db *gorm.DB) PulseLogRepository {
	return &pulseLogRepository{db: db}
}

type pulseLogRepository struct {
	db *gorm.DB
}

// FindRecent returns up to limit rows across all tickers, newest first.
func (r *pulseLogRepository) FindRecent(ctx context.Context, limit int, includeSynthetic bool) ([]entity.PulseLog, error) {
	var rows []entity.PulseLog
	q := r.base(ctx, includeSynthetic).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, &pulse.DataUnavailableError{Op: "find recent pulse logs", Err: err}
	}
	return rows, nil
}

// FindHistory returns every row for one ticker, oldest first.
func (r *pulseLogRepository) FindHistory(ctx context.Context, ticker string, includeSynthetic bool) ([]entity.PulseLog, error) {
	var rows []entity.PulseLog
	err := r.base(ctx, includeSynthetic).
		Where("ticker = ?", strings.ToUpper(ticker)).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, &pulse.DataUnavailableError{Op: "find pulse log history", Err: err}
	}
	return rows, nil
}

// Ping checks the datastore connection.
func (r *pulseLogRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return &pulse.DataUnavailableError{Op: "ping", Err: err}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return &pulse.DataUnavailableError{Op: "ping", Err: err}
	}
	return nil
}

func (r *pulseLogRepository) base(ctx context.Context, includeSynthetic bool) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&entity.PulseLog{}).Select(pulseLogColumns)
	if !includeSynthetic {
		q = q.Where("COALESCE(is_synthetic, false) = ?", false).
			Where("COALESCE(top_news::text, '') NOT LIKE ?", "%"+pulse.SyntheticMarker+"%")
	}
	return q
}
