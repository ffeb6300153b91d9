package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/primechances/primechances-api/services"
	"github.com/primechances/primechances-api/utils"
	"gorm.io/gorm"
)

// EngagementController covers bookmarks, applications and the admin
// analytics view.
type EngagementController struct {
	DB         *gorm.DB
	Engagement *services.EngagementService
}

func NewEngagementController(db *gorm.DB, engagement *services.EngagementService) *EngagementController {
	return &EngagementController{DB: db, Engagement: engagement}
}

// ToggleBookmark saves or unsaves an opportunity for the current user.
func (ec *EngagementController) ToggleBookmark(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}
	oppID, err := parseIDParam(c, "opportunity_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	bookmarked, err := ec.Engagement.ToggleBookmark(userID, oppID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	message := "Bookmark removed"
	if bookmarked {
		message = "Bookmark created"
	}
	utils.RespondJSON(c, http.StatusOK, message, gin.H{
		"opportunity_id": oppID,
		"bookmarked":     bookmarked,
	})
}

// GetBookmarks lists the current user's saved opportunities.
func (ec *EngagementController) GetBookmarks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}

	bookmarks, err := ec.Engagement.ListBookmarks(userID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bookmarks", bookmarks)
}

// Apply records the application and returns the external application URL
// for the client to open. Re-applying returns the same URL without
// touching the counter.
func (ec *EngagementController) Apply(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}
	oppID, err := parseIDParam(c, "opportunity_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	app, created, err := ec.Engagement.RecordApplication(userID, oppID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	var opp struct {
		ApplicationURL string
	}
	if err := ec.DB.Table("opportunities").Select("application_url").
		Where("id = ?", oppID).Scan(&opp).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	message := "Application already recorded"
	code := http.StatusOK
	if created {
		message = "Application recorded"
		code = http.StatusCreated
	}
	utils.RespondJSON(c, code, message, gin.H{
		"application":     app,
		"application_url": opp.ApplicationURL,
	})
}

// GetApplications lists the current user's applications.
func (ec *EngagementController) GetApplications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}

	apps, err := ec.Engagement.ListApplications(userID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Applications", apps)
}

// GetAnalytics returns the derived engagement numbers for one
// opportunity. Admin surface.
func (ec *EngagementController) GetAnalytics(c *gin.Context) {
	oppID, err := parseIDParam(c, "opportunity_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	analytics, err := ec.Engagement.Analytics(oppID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Opportunity analytics", analytics)
}
