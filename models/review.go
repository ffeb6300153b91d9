package models

import "time"

type ReviewDecision string

const (
	ReviewDecisionApproved ReviewDecision = "approved"
	ReviewDecisionRejected ReviewDecision = "rejected"
)

// SubmissionReview is the moderation trail: one row per approve/reject
// decision on an opportunity.
type SubmissionReview struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	OpportunityID uint           `gorm:"not null;index" json:"opportunity_id"`
	ReviewerID    uint           `gorm:"not null;index" json:"reviewer_id"`
	Reviewer      User           `gorm:"foreignKey:ReviewerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Decision      ReviewDecision `gorm:"type:varchar(20);not null" json:"decision"`
	Notes         string         `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
}
