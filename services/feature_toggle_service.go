package services

import (
	"errors"

	"github.com/primechances/primechances-api/models"
	"gorm.io/gorm"
)

// FeatureToggleService reads and writes feature toggles. Reads fail
// closed: an absent or unreadable key is disabled.
type FeatureToggleService struct {
	db *gorm.DB
}

func NewFeatureToggleService(db *gorm.DB) *FeatureToggleService {
	return &FeatureToggleService{db: db}
}

// IsEnabled performs the read-before-every-protected-action lookup.
func (fs *FeatureToggleService) IsEnabled(key string) bool {
	var toggle models.FeatureToggle
	if err := fs.db.Where("feature_key = ?", key).First(&toggle).Error; err != nil {
		return false
	}
	return toggle.IsEnabled
}

// Set upserts a toggle, recording who flipped it.
func (fs *FeatureToggleService) Set(key string, enabled bool, updatedBy uint) (*models.FeatureToggle, error) {
	var toggle models.FeatureToggle
	err := fs.db.Where("feature_key = ?", key).First(&toggle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		toggle = models.FeatureToggle{FeatureKey: key}
	} else if err != nil {
		return nil, err
	}

	toggle.IsEnabled = enabled
	toggle.UpdatedBy = &updatedBy
	if err := fs.db.Save(&toggle).Error; err != nil {
		return nil, err
	}
	return &toggle, nil
}

// List returns all toggles for the admin surface.
func (fs *FeatureToggleService) List() ([]models.FeatureToggle, error) {
	var toggles []models.FeatureToggle
	err := fs.db.Order("feature_key").Find(&toggles).Error
	return toggles, err
}
