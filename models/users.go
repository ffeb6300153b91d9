package models

import (
	"fmt"
	"time"
)

// Role is a closed set; authorization checks switch over it exhaustively
// instead of comparing raw strings.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleStaffAdmin Role = "staff_admin"
)

// ParseRole converts a raw string to a Role, returning an error for
// unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	switch r {
	case RoleUser, RoleAdmin, RoleStaffAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// CanModerate reports whether the role may approve, reject, publish or
// delete opportunities.
func (r Role) CanModerate() bool {
	switch r {
	case RoleAdmin, RoleStaffAdmin:
		return true
	case RoleUser:
		return false
	}
	return false
}

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"type:varchar(255); not null" json:"name"`
	Email    string `gorm:"type:varchar(255); unique;not null" json:"email"`
	Password string `gorm:"type:varchar(255); not null" json:"-"`
	Role     Role   `gorm:"type:varchar(20); not null;default:'user'" json:"role"`

	// Profile fields used by the notification dispatcher for matching.
	FieldOfStudy string `gorm:"type:varchar(255)" json:"field_of_study"`
	Country      string `gorm:"type:varchar(100)" json:"country"`
	RemoteOK     bool   `gorm:"default:false" json:"remote_ok"`

	NotifyOpportunities bool `gorm:"default:true" json:"notify_opportunities"`
	NotifyDeadlines     bool `gorm:"default:true" json:"notify_deadlines"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
