package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/primechances/primechances-api/config"
	"github.com/primechances/primechances-api/models"
	"github.com/primechances/primechances-api/services"
	"github.com/primechances/primechances-api/utils"
	"gorm.io/gorm"
)

// AdminController owns the platform-configuration surface: dashboard
// stats, feature toggles, user role management, the admin allow-list
// check and the manual sweep trigger.
type AdminController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Toggles *services.FeatureToggleService
	Sweeper *services.SweeperService
}

func NewAdminController(db *gorm.DB, cfg *config.Config, toggles *services.FeatureToggleService, sweeper *services.SweeperService) *AdminController {
	return &AdminController{DB: db, Cfg: cfg, Toggles: toggles, Sweeper: sweeper}
}

// GetDashboardStats aggregates listing and engagement counts for the
// admin dashboard.
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	var stats struct {
		TotalOpportunities int64 `json:"total_opportunities"`
		Published          int64 `json:"published"`
		PendingReview      int64 `json:"pending_review"`
		Rejected           int64 `json:"rejected"`
		Expired            int64 `json:"expired"`
		TotalUsers         int64 `json:"total_users"`
		TotalBookmarks     int64 `json:"total_bookmarks"`
		TotalApplications  int64 `json:"total_applications"`
	}

	type countQuery struct {
		dest  *int64
		query *gorm.DB
	}
	queries := []countQuery{
		{&stats.TotalOpportunities, ac.DB.Model(&models.Opportunity{})},
		{&stats.Published, ac.DB.Model(&models.Opportunity{}).Where("is_published = ?", true)},
		{&stats.PendingReview, ac.DB.Model(&models.Opportunity{}).Where("status = ?", models.StatusPending)},
		{&stats.Rejected, ac.DB.Model(&models.Opportunity{}).Where("status = ?", models.StatusRejected)},
		{&stats.Expired, ac.DB.Model(&models.Opportunity{}).Where("status = ?", models.StatusExpired)},
		{&stats.TotalUsers, ac.DB.Model(&models.User{})},
		{&stats.TotalBookmarks, ac.DB.Model(&models.Bookmark{})},
		{&stats.TotalApplications, ac.DB.Model(&models.Application{})},
	}
	for _, q := range queries {
		if err := q.query.Count(q.dest).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	}

	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", stats)
}

// GetFeatureToggles lists every toggle.
func (ac *AdminController) GetFeatureToggles(c *gin.Context) {
	toggles, err := ac.Toggles.List()
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Feature toggles", toggles)
}

// SetFeatureToggle upserts one toggle.
func (ac *AdminController) SetFeatureToggle(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}

	var req struct {
		FeatureKey string `json:"feature_key" binding:"required"`
		IsEnabled  bool   `json:"is_enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	toggle, err := ac.Toggles.Set(req.FeatureKey, req.IsEnabled, userID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Feature toggle %s set to %v by user %d", toggle.FeatureKey, toggle.IsEnabled, userID)
	utils.RespondJSON(c, http.StatusOK, "Feature toggle updated", toggle)
}

// GetAllUsers lists users for the admin panel.
func (ac *AdminController) GetAllUsers(c *gin.Context) {
	var users []models.User
	if err := ac.DB.Find(&users).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All users", users)
}

// SetUserRole grants or revokes a role. The role string must parse to a
// known value.
func (ac *AdminController) SetUserRole(c *gin.Context) {
	id, err := parseIDParam(c, "user_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	if err := ac.DB.First(&user, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	user.Role = role
	if err := ac.DB.Save(&user).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("User %d role set to %s", user.ID, role)
	utils.RespondJSON(c, http.StatusOK, "User role updated", user)
}

// CheckAdmin tests (user_id, email) against the configured allow-list and
// grants the admin role as a side effect when it matches.
func (ac *AdminController) CheckAdmin(c *gin.Context) {
	var req struct {
		UserID uint   `json:"user_id" binding:"required"`
		Email  string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if !ac.Cfg.IsAdminEmail(req.Email) {
		utils.RespondJSON(c, http.StatusOK, "Admin check", gin.H{"is_admin": false})
		return
	}

	var user models.User
	if err := ac.DB.First(&user, req.UserID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if !strings.EqualFold(user.Email, req.Email) {
		utils.RespondJSON(c, http.StatusOK, "Admin check", gin.H{"is_admin": false})
		return
	}

	if user.Role == models.RoleUser {
		user.Role = models.RoleAdmin
		if err := ac.DB.Save(&user).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		utils.InfoLogger.Printf("Admin role granted to user %d (%s)", user.ID, user.Email)
	}

	utils.RespondJSON(c, http.StatusOK, "Admin check", gin.H{"is_admin": true})
}

// RunSweeper triggers one sweep and returns its report. The report always
// comes back with status 200; failures live in the payload so an external
// scheduler never sees a crash.
func (ac *AdminController) RunSweeper(c *gin.Context) {
	report := ac.Sweeper.RunSweep(c.Request.Context())
	utils.RespondJSON(c, http.StatusOK, "Sweep report", report)
}

// CreateCategory adds a category to the reference table.
func (ac *AdminController) CreateCategory(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	category := models.Category{Name: req.Name}
	if err := ac.DB.Create(&category).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Category created", category)
}
