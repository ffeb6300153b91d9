package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/primechances/primechances-api/middlewares"
	"github.com/primechances/primechances-api/models"
	"github.com/primechances/primechances-api/services"
	"github.com/primechances/primechances-api/utils"
	"gorm.io/gorm"
)

// OpportunityController serves the public listing surface plus
// authenticated submission.
type OpportunityController struct {
	DB    *gorm.DB
	Store *services.OpportunityService
}

func NewOpportunityController(db *gorm.DB, store *services.OpportunityService) *OpportunityController {
	return &OpportunityController{DB: db, Store: store}
}

// GetPublishedOpportunities lists only published rows, newest first, with
// optional category and free-text filters.
func (oc *OpportunityController) GetPublishedOpportunities(c *gin.Context) {
	query := oc.DB.Preload("Category").
		Where("is_published = ?", true).
		Order("published_at DESC")

	if category := c.Query("category"); category != "" {
		query = query.Joins("JOIN categories ON categories.id = opportunities.category_id").
			Where("categories.name = ?", category)
	}
	if search := c.Query("q"); search != "" {
		like := "%" + search + "%"
		query = query.Where("title LIKE ? OR organization LIKE ? OR description LIKE ?", like, like, like)
	}
	if remote := c.Query("remote"); remote == "true" {
		query = query.Where("is_remote = ?", true)
	}

	var opportunities []models.Opportunity
	if err := query.Find(&opportunities).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of opportunities", opportunities)
}

// GetOpportunityByID returns one published opportunity. Unpublished rows
// are only visible to moderators.
func (oc *OpportunityController) GetOpportunityByID(c *gin.Context) {
	id, err := parseIDParam(c, "opportunity_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var opp models.Opportunity
	if err := oc.DB.Preload("Category").First(&opp, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if !opp.IsPublished {
		role, ok := middlewares.RoleFromContext(c)
		if !ok || !role.CanModerate() {
			utils.RespondError(c, http.StatusNotFound, gorm.ErrRecordNotFound)
			return
		}
	}

	utils.RespondJSON(c, http.StatusOK, "Opportunity detail", opp)
}

// RecordView bumps the view counter. Unauthenticated by design; every
// page load counts.
func (oc *OpportunityController) RecordView(c *gin.Context) {
	id, err := parseIDParam(c, "opportunity_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := oc.Store.IncrementViewCount(id); err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "View recorded", gin.H{"opportunity_id": id})
}

// SubmitOpportunity takes a user submission into the moderation queue.
func (oc *OpportunityController) SubmitOpportunity(c *gin.Context) {
	user, ok := loadCurrentUser(c, oc.DB)
	if !ok {
		return
	}

	var input services.OpportunityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	input.Source = models.SourceUserSubmitted
	input.Publish = false

	opp, err := oc.Store.Create(input, user)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Opportunity submitted for review", opp)
}

// GetAllCategories lists the category reference table.
func (oc *OpportunityController) GetAllCategories(c *gin.Context) {
	var categories []models.Category
	if err := oc.DB.Order("name").Find(&categories).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of categories", categories)
}

func parseIDParam(c *gin.Context, name string) (uint, error) {
	idStr := c.Param(name)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	return uint(id), nil
}

// loadCurrentUser fetches the authenticated user row; responds with the
// error itself when that fails.
func loadCurrentUser(c *gin.Context, db *gorm.DB) (*models.User, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return nil, false
	}
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user not found"))
		return nil, false
	}
	return &user, true
}
