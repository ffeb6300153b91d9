package models

import "time"

// Bookmark is a user's saved reference to an opportunity. The unique index
// on (user_id, opportunity_id) is what makes ToggleBookmark safe under
// rapid double-invocation.
type Bookmark struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	UserID        uint        `gorm:"not null;index;uniqueIndex:idx_user_opportunity" json:"user_id"`
	OpportunityID uint        `gorm:"not null;index;uniqueIndex:idx_user_opportunity" json:"opportunity_id"`
	Opportunity   Opportunity `gorm:"foreignKey:OpportunityID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"opportunity"`
	CreatedAt     time.Time   `json:"created_at"`
}
