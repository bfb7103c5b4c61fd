package models

import "time"

// ReferenceSequence backs date-scoped human-facing reference numbers.
// Scope is the number family plus its period prefix, e.g. "RCP-20260823".
type ReferenceSequence struct {
	Scope     string    `gorm:"column:scope;primaryKey"`
	LastValue int       `gorm:"column:last_value;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
