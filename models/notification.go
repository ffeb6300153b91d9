package models

import "time"

type NotificationType string

const (
	NotificationTypeOpportunity NotificationType = "opportunity"
	NotificationTypeDeadline    NotificationType = "deadline"
	NotificationTypeApproval    NotificationType = "approval"
	NotificationTypeSystem      NotificationType = "system"
)

type Notification struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	UserID        uint             `gorm:"not null;index" json:"user_id"` // recipient
	User          User             `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Type          NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Title         string           `gorm:"type:varchar(255);not null" json:"title"`
	Message       string           `gorm:"type:text;not null" json:"message"`
	IsRead        bool             `gorm:"default:false;index" json:"is_read"`
	OpportunityID *uint            `gorm:"index" json:"opportunity_id,omitempty"`
	CreatedAt     time.Time        `gorm:"not null" json:"created_at"`
}
