package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/primechances/primechances-api/apperrors"
	"github.com/primechances/primechances-api/models"
	"github.com/primechances/primechances-api/utils"
	"gorm.io/gorm"
)

// OpportunityService is the canonical store for opportunities and owns the
// moderation state machine. Controllers never mutate opportunity rows
// directly.
type OpportunityService struct {
	db         *gorm.DB
	dispatcher *NotificationService
}

func NewOpportunityService(db *gorm.DB, dispatcher *NotificationService) *OpportunityService {
	return &OpportunityService{db: db, dispatcher: dispatcher}
}

// OpportunityInput carries the writable fields for create and update.
type OpportunityInput struct {
	Title               string                   `json:"title"`
	Organization        string                   `json:"organization"`
	Description         string                   `json:"description"`
	CategoryID          uint                     `json:"category_id"`
	Tags                models.StringList        `json:"tags"`
	Requirements        models.StringList        `json:"requirements"`
	Benefits            models.StringList        `json:"benefits"`
	Location            string                   `json:"location"`
	IsRemote            bool                     `json:"is_remote"`
	SalaryRange         string                   `json:"salary_range"`
	ApplicationDeadline *time.Time               `json:"application_deadline"`
	ApplicationURL      string                   `json:"application_url"`
	Source              models.OpportunitySource `json:"source"`
	Publish             bool                     `json:"publish"` // admin create+publish shortcut
}

func (in *OpportunityInput) validate() error {
	missing := ""
	switch {
	case in.Title == "":
		missing = "title"
	case in.Description == "":
		missing = "description"
	case in.Organization == "":
		missing = "organization"
	case in.CategoryID == 0:
		missing = "category"
	}
	if missing != "" {
		return apperrors.NewValidationError("missing required field: " + missing)
	}
	if in.Source != "" {
		if _, err := models.ParseOpportunitySource(string(in.Source)); err != nil {
			return apperrors.NewValidationError(err.Error())
		}
	}
	return nil
}

// Create validates the input and inserts a new opportunity. A regular user
// submission lands in pending; an admin creation is approved immediately,
// and with the publish flag set the create+approve+publish happens as one
// transaction attributed to the creating admin.
func (s *OpportunityService) Create(input OpportunityInput, actor *models.User) (*models.Opportunity, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	source := input.Source
	if source == "" {
		source = models.SourceUserSubmitted
	}

	opp := models.Opportunity{
		Title:               input.Title,
		Organization:        input.Organization,
		Description:         input.Description,
		CategoryID:          input.CategoryID,
		Tags:                input.Tags,
		Requirements:        input.Requirements,
		Benefits:            input.Benefits,
		Location:            input.Location,
		IsRemote:            input.IsRemote,
		SalaryRange:         input.SalaryRange,
		ApplicationDeadline: input.ApplicationDeadline,
		ApplicationURL:      input.ApplicationURL,
		Status:              models.StatusPending,
		Source:              source,
		SubmittedBy:         actor.ID,
	}

	if actor.Role.CanModerate() {
		now := time.Now()
		opp.Status = models.StatusApproved
		opp.ApprovedBy = &actor.ID
		opp.ApprovedAt = &now
		if source == models.SourceUserSubmitted {
			opp.Source = models.SourceAdminCreated
		}
		if input.Publish {
			opp.IsPublished = true
			opp.PublishedAt = &now
		}
	}

	if err := s.db.Create(&opp).Error; err != nil {
		return nil, err
	}

	if opp.IsPublished {
		s.dispatcher.DispatchPublished(&opp)
	}

	utils.InfoLogger.Printf("Opportunity %d created (source=%s status=%s published=%v)",
		opp.ID, opp.Source, opp.Status, opp.IsPublished)
	return &opp, nil
}

// UpdatePatch carries a partial merge; nil pointers leave fields untouched.
type UpdatePatch struct {
	Title               *string            `json:"title"`
	Organization        *string            `json:"organization"`
	Description         *string            `json:"description"`
	CategoryID          *uint              `json:"category_id"`
	Tags                *models.StringList `json:"tags"`
	Requirements        *models.StringList `json:"requirements"`
	Benefits            *models.StringList `json:"benefits"`
	Location            *string            `json:"location"`
	IsRemote            *bool              `json:"is_remote"`
	SalaryRange         *string            `json:"salary_range"`
	ApplicationDeadline *time.Time         `json:"application_deadline"`
	ApplicationURL      *string            `json:"application_url"`
	IsPublished         *bool              `json:"is_published"`
}

// Update applies a partial merge. Setting is_published=true requires the
// row to be approved and stamps published_at once, on the first false→true
// transition. Validation happens before any write.
func (s *OpportunityService) Update(id uint, patch UpdatePatch) (*models.Opportunity, error) {
	var opp models.Opportunity
	if err := s.db.First(&opp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("opportunity not found")
		}
		return nil, err
	}

	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, apperrors.NewValidationError("title cannot be empty")
		}
		opp.Title = *patch.Title
	}
	if patch.Organization != nil {
		if *patch.Organization == "" {
			return nil, apperrors.NewValidationError("organization cannot be empty")
		}
		opp.Organization = *patch.Organization
	}
	if patch.Description != nil {
		if *patch.Description == "" {
			return nil, apperrors.NewValidationError("description cannot be empty")
		}
		opp.Description = *patch.Description
	}
	if patch.CategoryID != nil {
		opp.CategoryID = *patch.CategoryID
	}
	if patch.Tags != nil {
		opp.Tags = *patch.Tags
	}
	if patch.Requirements != nil {
		opp.Requirements = *patch.Requirements
	}
	if patch.Benefits != nil {
		opp.Benefits = *patch.Benefits
	}
	if patch.Location != nil {
		opp.Location = *patch.Location
	}
	if patch.IsRemote != nil {
		opp.IsRemote = *patch.IsRemote
	}
	if patch.SalaryRange != nil {
		opp.SalaryRange = *patch.SalaryRange
	}
	if patch.ApplicationDeadline != nil {
		opp.ApplicationDeadline = patch.ApplicationDeadline
	}
	if patch.ApplicationURL != nil {
		opp.ApplicationURL = *patch.ApplicationURL
	}

	wasPublished := opp.IsPublished
	if patch.IsPublished != nil {
		if *patch.IsPublished && opp.Status != models.StatusApproved {
			return nil, apperrors.NewInvalidStateError(
				fmt.Sprintf("cannot publish opportunity in %s status", opp.Status))
		}
		opp.IsPublished = *patch.IsPublished
		if opp.IsPublished && !wasPublished {
			now := time.Now()
			opp.PublishedAt = &now
		}
	}

	if err := s.db.Save(&opp).Error; err != nil {
		return nil, err
	}

	if opp.IsPublished && !wasPublished {
		s.dispatcher.DispatchPublished(&opp)
	}

	return &opp, nil
}

// Delete removes the row together with every bookmark, application and
// notification referencing it, in one transaction. No dangling engagement
// rows survive a delete.
func (s *OpportunityService) Delete(id uint) error {
	var opp models.Opportunity
	if err := s.db.First(&opp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFoundError("opportunity not found")
		}
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("opportunity_id = ?", id).Delete(&models.Bookmark{}).Error; err != nil {
			return err
		}
		if err := tx.Where("opportunity_id = ?", id).Delete(&models.Application{}).Error; err != nil {
			return err
		}
		if err := tx.Where("opportunity_id = ?", id).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("opportunity_id = ?", id).Delete(&models.SubmissionReview{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Opportunity{}, id).Error
	})
	if err != nil {
		return apperrors.NewReferentialIntegrityError("failed to delete opportunity and dependents: " + err.Error())
	}

	utils.InfoLogger.Printf("Opportunity %d deleted with dependents", id)
	return nil
}

// Approve moves pending → approved, stamps the reviewer and writes the
// review trail. Approval does not publish.
func (s *OpportunityService) Approve(id uint, reviewer *models.User, notes string) (*models.Opportunity, error) {
	return s.review(id, reviewer, models.StatusApproved, models.ReviewDecisionApproved, notes)
}

// Reject moves pending → rejected. Rejected is terminal.
func (s *OpportunityService) Reject(id uint, reviewer *models.User, reason string) (*models.Opportunity, error) {
	return s.review(id, reviewer, models.StatusRejected, models.ReviewDecisionRejected, reason)
}

func (s *OpportunityService) review(id uint, reviewer *models.User, target models.OpportunityStatus, decision models.ReviewDecision, notes string) (*models.Opportunity, error) {
	var opp models.Opportunity
	if err := s.db.First(&opp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("opportunity not found")
		}
		return nil, err
	}

	if !models.CanTransition(opp.Status, target) {
		return nil, apperrors.NewInvalidStateError(
			fmt.Sprintf("cannot move opportunity from %s to %s", opp.Status, target))
	}

	now := time.Now()
	opp.Status = target
	if target == models.StatusApproved {
		opp.ApprovedBy = &reviewer.ID
		opp.ApprovedAt = &now
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&opp).Error; err != nil {
			return err
		}
		review := models.SubmissionReview{
			OpportunityID: opp.ID,
			ReviewerID:    reviewer.ID,
			Decision:      decision,
			Notes:         notes,
		}
		return tx.Create(&review).Error
	})
	if err != nil {
		return nil, err
	}

	// Best effort; a failed notification never reverts the decision.
	s.dispatcher.DispatchReviewDecision(&opp, decision, notes)

	utils.InfoLogger.Printf("Opportunity %d %s by reviewer %d", opp.ID, decision, reviewer.ID)
	return &opp, nil
}

// Publish sets is_published from approved. Idempotent: publishing an
// already-published row is a no-op and published_at keeps its first value.
func (s *OpportunityService) Publish(id uint) (*models.Opportunity, error) {
	var opp models.Opportunity
	if err := s.db.First(&opp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("opportunity not found")
		}
		return nil, err
	}

	if opp.IsPublished {
		return &opp, nil
	}
	if opp.Status != models.StatusApproved {
		return nil, apperrors.NewInvalidStateError(
			fmt.Sprintf("cannot publish opportunity in %s status", opp.Status))
	}

	now := time.Now()
	opp.IsPublished = true
	opp.PublishedAt = &now
	if err := s.db.Save(&opp).Error; err != nil {
		return nil, err
	}

	s.dispatcher.DispatchPublished(&opp)
	return &opp, nil
}

// Unpublish hides a published row. Status stays approved, so the row can be
// re-published without another moderation pass.
func (s *OpportunityService) Unpublish(id uint) (*models.Opportunity, error) {
	var opp models.Opportunity
	if err := s.db.First(&opp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("opportunity not found")
		}
		return nil, err
	}

	if !opp.IsPublished {
		return nil, apperrors.NewInvalidStateError("opportunity is not published")
	}

	opp.IsPublished = false
	if err := s.db.Save(&opp).Error; err != nil {
		return nil, err
	}
	return &opp, nil
}

// IncrementViewCount bumps view_count atomically at the store. Every page
// load counts; there is no per-session deduplication.
func (s *OpportunityService) IncrementViewCount(id uint) error {
	result := s.db.Model(&models.Opportunity{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("opportunity not found")
	}
	return nil
}
