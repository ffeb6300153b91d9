package models

import "time"

// Feature key read by the deadline & retention sweeper before every run.
const FeatureAutoDeleteExpired = "auto_delete_expired_opportunities"

// FeatureToggle is a named boolean switch controlling optional behavior.
// An absent key always reads as disabled.
type FeatureToggle struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FeatureKey string    `gorm:"type:varchar(100);unique;not null" json:"feature_key"`
	IsEnabled  bool      `gorm:"default:false" json:"is_enabled"`
	UpdatedBy  *uint     `json:"updated_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
