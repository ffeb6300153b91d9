package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Moderation status of an opportunity.
//
//	pending ──► approved ──► (published | held)
//	   │
//	   └──────► rejected
//
// rejected and expired are terminal with no outgoing transitions.
type OpportunityStatus string

const (
	StatusPending  OpportunityStatus = "pending"
	StatusApproved OpportunityStatus = "approved"
	StatusRejected OpportunityStatus = "rejected"
	StatusExpired  OpportunityStatus = "expired"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[OpportunityStatus][]OpportunityStatus{
	StatusPending:  {StatusApproved, StatusRejected, StatusExpired},
	StatusApproved: {StatusExpired},
}

// ParseOpportunityStatus converts a raw string to an OpportunityStatus,
// returning an error for unknown values.
func ParseOpportunityStatus(s string) (OpportunityStatus, error) {
	st := OpportunityStatus(s)
	switch st {
	case StatusPending, StatusApproved, StatusRejected, StatusExpired:
		return st, nil
	}
	return "", fmt.Errorf("unknown opportunity status %q", s)
}

// CanTransition returns true when moving from → to is permitted.
func CanTransition(from, to OpportunityStatus) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false // terminal state
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

type OpportunitySource string

const (
	SourceUserSubmitted OpportunitySource = "user_submitted"
	SourceScraped       OpportunitySource = "scraped"
	SourceAdminCreated  OpportunitySource = "admin_created"
)

// ParseOpportunitySource converts a raw string to an OpportunitySource,
// returning an error for unknown values.
func ParseOpportunitySource(s string) (OpportunitySource, error) {
	src := OpportunitySource(s)
	switch src {
	case SourceUserSubmitted, SourceScraped, SourceAdminCreated:
		return src, nil
	}
	return "", fmt.Errorf("unknown opportunity source %q", s)
}

// StringList is stored as a JSON array in a text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return fmt.Errorf("cannot scan %T into StringList", value)
}

type Opportunity struct {
	ID                  uint              `gorm:"primaryKey" json:"id"`
	Title               string            `gorm:"type:varchar(255);not null" json:"title"`
	Organization        string            `gorm:"type:varchar(255);not null" json:"organization"`
	Description         string            `gorm:"type:text;not null" json:"description"`
	CategoryID          uint              `gorm:"not null;index" json:"category_id"`
	Category            Category          `gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category"`
	Tags                StringList        `gorm:"type:text" json:"tags"`
	Requirements        StringList        `gorm:"type:text" json:"requirements"`
	Benefits            StringList        `gorm:"type:text" json:"benefits"`
	Location            string            `gorm:"type:varchar(255)" json:"location"`
	IsRemote            bool              `gorm:"default:false" json:"is_remote"`
	SalaryRange         string            `gorm:"type:varchar(100)" json:"salary_range"`
	ApplicationDeadline *time.Time        `gorm:"index" json:"application_deadline,omitempty"`
	ApplicationURL      string            `gorm:"type:varchar(512)" json:"application_url"`
	Status              OpportunityStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	IsPublished         bool              `gorm:"default:false;index" json:"is_published"`
	PublishedAt         *time.Time        `json:"published_at,omitempty"`
	Source              OpportunitySource `gorm:"type:varchar(20);not null;default:'user_submitted'" json:"source"`
	ViewCount           int64             `gorm:"not null;default:0" json:"view_count"`
	ApplicationCount    int64             `gorm:"not null;default:0" json:"application_count"`
	SubmittedBy         uint              `gorm:"not null;index" json:"submitted_by"`
	ApprovedBy          *uint             `json:"approved_by,omitempty"`
	ApprovedAt          *time.Time        `json:"approved_at,omitempty"`
	CreatedAt           time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time         `gorm:"not null" json:"updated_at"`
}
