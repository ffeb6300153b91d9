package models

import "time"

const ApplicationStatusApplied = "applied"

// Application records that a user applied to an opportunity. One row per
// (user, opportunity) pair; re-applying is a no-op for the counter.
type Application struct {
	ID                uint        `gorm:"primaryKey" json:"id"`
	UserID            uint        `gorm:"not null;index;uniqueIndex:idx_user_opportunity_app" json:"user_id"`
	OpportunityID     uint        `gorm:"not null;index;uniqueIndex:idx_user_opportunity_app" json:"opportunity_id"`
	Opportunity       Opportunity `gorm:"foreignKey:OpportunityID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"opportunity"`
	ApplicationStatus string      `gorm:"type:varchar(20);not null;default:'applied'" json:"application_status"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}
