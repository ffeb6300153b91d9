package services

import (
	"errors"

	"github.com/primechances/primechances-api/apperrors"
	"github.com/primechances/primechances-api/models"
	"github.com/primechances/primechances-api/utils"
	"gorm.io/gorm"
)

// EngagementService owns bookmarks, applications and the derived
// per-opportunity analytics. Bookmark and application rows belong to the
// acting user; every query is scoped by user_id.
type EngagementService struct {
	db *gorm.DB
}

func NewEngagementService(db *gorm.DB) *EngagementService {
	return &EngagementService{db: db}
}

// ToggleBookmark saves or unsaves an opportunity. Returns true when the
// bookmark now exists. The unique (user_id, opportunity_id) index resolves
// concurrent double-clicks: a duplicate insert is treated as idempotent
// success and the stored state is re-read.
func (es *EngagementService) ToggleBookmark(userID, oppID uint) (bool, error) {
	var opp models.Opportunity
	if err := es.db.First(&opp, oppID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperrors.NewNotFoundError("opportunity not found")
		}
		return false, err
	}

	var existing models.Bookmark
	err := es.db.Where("user_id = ? AND opportunity_id = ?", userID, oppID).First(&existing).Error
	if err == nil {
		if err := es.db.Delete(&existing).Error; err != nil {
			return false, err
		}
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	bookmark := models.Bookmark{UserID: userID, OpportunityID: oppID}
	if err := es.db.Create(&bookmark).Error; err != nil {
		if apperrors.IsUniqueConstraint(err) {
			// Lost a race against another toggle of the same intent;
			// the bookmark exists, which is what the caller wanted.
			return true, nil
		}
		return false, err
	}
	return true, nil
}

// ListBookmarks returns the user's saved opportunities.
func (es *EngagementService) ListBookmarks(userID uint) ([]models.Bookmark, error) {
	var bookmarks []models.Bookmark
	err := es.db.Preload("Opportunity").Preload("Opportunity.Category").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookmarks).Error
	return bookmarks, err
}

// RecordApplication inserts the application row and bumps
// application_count by exactly 1, once per (user, opportunity) pair, in
// one transaction. Repeat calls return the existing row untouched; the
// caller still re-opens the external application URL.
func (es *EngagementService) RecordApplication(userID, oppID uint) (*models.Application, bool, error) {
	var opp models.Opportunity
	if err := es.db.First(&opp, oppID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, apperrors.NewNotFoundError("opportunity not found")
		}
		return nil, false, err
	}

	var existing models.Application
	err := es.db.Where("user_id = ? AND opportunity_id = ?", userID, oppID).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	app := models.Application{
		UserID:            userID,
		OpportunityID:     oppID,
		ApplicationStatus: models.ApplicationStatusApplied,
	}
	err = es.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&app).Error; err != nil {
			return err
		}
		return tx.Model(&models.Opportunity{}).
			Where("id = ?", oppID).
			UpdateColumn("application_count", gorm.Expr("application_count + 1")).Error
	})
	if err != nil {
		if apperrors.IsUniqueConstraint(err) {
			// Concurrent duplicate: the winner already incremented the
			// counter, so just hand back the stored row.
			if e := es.db.Where("user_id = ? AND opportunity_id = ?", userID, oppID).First(&existing).Error; e == nil {
				return &existing, false, nil
			}
		}
		return nil, false, err
	}

	utils.InfoLogger.Printf("User %d applied to opportunity %d", userID, oppID)
	return &app, true, nil
}

// ListApplications returns the user's applications.
func (es *EngagementService) ListApplications(userID uint) ([]models.Application, error) {
	var apps []models.Application
	err := es.db.Preload("Opportunity").Preload("Opportunity.Category").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&apps).Error
	return apps, err
}

// OpportunityAnalytics joins the live counters with authoritative bookmark
// counts. Saves come from actual bookmark rows, not an estimate.
type OpportunityAnalytics struct {
	OpportunityID  uint    `json:"opportunity_id"`
	Views          int64   `json:"views"`
	Saves          int64   `json:"saves"`
	Applications   int64   `json:"applications"`
	ConversionRate float64 `json:"conversion_rate"`
}

// Analytics computes the derived engagement numbers for one opportunity.
func (es *EngagementService) Analytics(oppID uint) (*OpportunityAnalytics, error) {
	var opp models.Opportunity
	if err := es.db.First(&opp, oppID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("opportunity not found")
		}
		return nil, err
	}

	var saves int64
	if err := es.db.Model(&models.Bookmark{}).Where("opportunity_id = ?", oppID).Count(&saves).Error; err != nil {
		return nil, err
	}

	analytics := &OpportunityAnalytics{
		OpportunityID: opp.ID,
		Views:         opp.ViewCount,
		Saves:         saves,
		Applications:  opp.ApplicationCount,
	}
	if opp.ViewCount > 0 {
		analytics.ConversionRate = float64(opp.ApplicationCount) / float64(opp.ViewCount)
	}
	return analytics, nil
}
