package entity

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

// PulseLog is one row written by the automation pipeline. The dashboard only reads it.
// Numeric columns are scanned as text so that bad values can be coerced instead of failing the query.
type PulseLog struct {
	ID          int64          `gorm:"primaryKey" json:"id"`
	Ticker      string         `gorm:"not null;index" json:"ticker"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
	PERatio     sql.NullString `gorm:"column:pe_ratio" json:"pe_ratio"`
	HypeScore   sql.NullString `gorm:"column:hype_score" json:"hype_score"`
	GapScore    sql.NullString `gorm:"column:gap_score" json:"gap_score"`
	TopNews     datatypes.JSON `gorm:"column:top_news" json:"top_news"`
	IsSynthetic bool           `gorm:"column:is_synthetic;not null;default:false" json:"is_synthetic"`
}

// TableName specifies the table name for the PulseLog model.
func (PulseLog) TableName() string {
	return "pulse_logs"
}
