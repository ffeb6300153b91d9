package Controllers_test

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/primechances/primechances-api/config"
	"github.com/primechances/primechances-api/controllers"
	"github.com/primechances/primechances-api/middlewares"
	"github.com/primechances/primechances-api/models"
	"github.com/primechances/primechances-api/services"
)

func setupAdminRouter(db *gorm.DB, actor *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.Default()

	cfg := &config.Config{
		SweepIntervalHours:  6,
		SweepRetentionDays:  30,
		SweepAlertPolicy:    config.AlertPolicyEverySweep,
		DeadlineAlertWindow: 7,
		AdminEmails:         []string{"boss@example.com"},
	}
	notifier := services.NewNotificationService(db, nil, nil, cfg)
	store := services.NewOpportunityService(db, notifier)
	toggles := services.NewFeatureToggleService(db)
	sweeper := services.NewSweeperService(db, store, toggles, notifier, cfg)
	adminCtrl := controllers.NewAdminController(db, cfg, toggles, sweeper)

	group := router.Group("/admin", asUser(actor), middlewares.RequireModerator())
	group.GET("/stats", adminCtrl.GetDashboardStats)
	group.POST("/categories", adminCtrl.CreateCategory)
	group.POST("/sweeper/run", adminCtrl.RunSweeper)

	full := group.Group("", middlewares.RequireAdmin())
	full.GET("/users", adminCtrl.GetAllUsers)
	full.PATCH("/users/:user_id/role", adminCtrl.SetUserRole)
	full.GET("/features", adminCtrl.GetFeatureToggles)
	full.PUT("/features", adminCtrl.SetFeatureToggle)
	full.POST("/check-admin", adminCtrl.CheckAdmin)
	return router
}

func TestDashboardStats(t *testing.T) {
	db := setupControllerTestDB(t)
	admin := createUser(t, db, "admin@example.com", models.RoleAdmin)
	user := createUser(t, db, "user@example.com", models.RoleUser)
	router := setupAdminRouter(db, admin)

	store := newStoreService(db)
	_, err := store.Create(services.OpportunityInput{
		Title: "Pending One", Organization: "Org", Description: "d", CategoryID: 1,
	}, user)
	assert.NoError(t, err)
	_, err = store.Create(services.OpportunityInput{
		Title: "Live One", Organization: "Org", Description: "d", CategoryID: 1, Publish: true,
	}, admin)
	assert.NoError(t, err)

	w := doJSON(t, router, "GET", "/admin/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, w)
	assert.EqualValues(t, 2, data["total_opportunities"])
	assert.EqualValues(t, 1, data["published"])
	assert.EqualValues(t, 1, data["pending_review"])
	assert.EqualValues(t, 2, data["total_users"])
}

func TestRoleGates(t *testing.T) {
	db := setupControllerTestDB(t)
	user := createUser(t, db, "user@example.com", models.RoleUser)
	staff := createUser(t, db, "staff@example.com", models.RoleStaffAdmin)

	// A plain user is rejected at the moderator gate.
	router := setupAdminRouter(db, user)
	w := doJSON(t, router, "GET", "/admin/stats", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Staff admins moderate but cannot reach the full-admin surface.
	router = setupAdminRouter(db, staff)
	w = doJSON(t, router, "GET", "/admin/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, "GET", "/admin/users", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSetUserRole(t *testing.T) {
	db := setupControllerTestDB(t)
	admin := createUser(t, db, "admin@example.com", models.RoleAdmin)
	user := createUser(t, db, "user@example.com", models.RoleUser)
	router := setupAdminRouter(db, admin)

	url := "/admin/users/" + strconv.Itoa(int(user.ID)) + "/role"
	w := doJSON(t, router, "PATCH", url, map[string]interface{}{"role": "staff_admin"})
	assert.Equal(t, http.StatusOK, w.Code)

	var reloaded models.User
	assert.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Equal(t, models.RoleStaffAdmin, reloaded.Role)

	// Unknown role strings never reach the database.
	w = doJSON(t, router, "PATCH", url, map[string]interface{}{"role": "superuser"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeatureTogglesOverHTTP(t *testing.T) {
	db := setupControllerTestDB(t)
	admin := createUser(t, db, "admin@example.com", models.RoleAdmin)
	router := setupAdminRouter(db, admin)

	w := doJSON(t, router, "PUT", "/admin/features", map[string]interface{}{
		"feature_key": models.FeatureAutoDeleteExpired,
		"is_enabled":  true,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, w)
	assert.Equal(t, true, data["is_enabled"])

	w = doJSON(t, router, "GET", "/admin/features", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var listResp struct {
		Data []models.FeatureToggle `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	if assert.Len(t, listResp.Data, 1) {
		assert.Equal(t, models.FeatureAutoDeleteExpired, listResp.Data[0].FeatureKey)
		if assert.NotNil(t, listResp.Data[0].UpdatedBy) {
			assert.Equal(t, admin.ID, *listResp.Data[0].UpdatedBy)
		}
	}
}

func TestCheckAdminAllowList(t *testing.T) {
	db := setupControllerTestDB(t)
	admin := createUser(t, db, "admin@example.com", models.RoleAdmin)
	boss := createUser(t, db, "boss@example.com", models.RoleUser)
	outsider := createUser(t, db, "outsider@example.com", models.RoleUser)
	router := setupAdminRouter(db, admin)

	// Allow-listed email matching the user's row: admin granted.
	w := doJSON(t, router, "POST", "/admin/check-admin", map[string]interface{}{
		"user_id": boss.ID, "email": "Boss@Example.com",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, dataOf(t, w)["is_admin"])

	var reloaded models.User
	assert.NoError(t, db.First(&reloaded, boss.ID).Error)
	assert.Equal(t, models.RoleAdmin, reloaded.Role)

	// Not on the list: no grant.
	w = doJSON(t, router, "POST", "/admin/check-admin", map[string]interface{}{
		"user_id": outsider.ID, "email": "outsider@example.com",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, dataOf(t, w)["is_admin"])

	// Allow-listed email paired with a mismatching account: no grant.
	w = doJSON(t, router, "POST", "/admin/check-admin", map[string]interface{}{
		"user_id": outsider.ID, "email": "boss@example.com",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, dataOf(t, w)["is_admin"])
}

func TestRunSweeperEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	admin := createUser(t, db, "admin@example.com", models.RoleAdmin)
	router := setupAdminRouter(db, admin)

	// Toggle disabled: still a 200 with a successful no-op report.
	w := doJSON(t, router, "POST", "/admin/sweeper/run", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, w)
	assert.Equal(t, true, data["success"])
	assert.EqualValues(t, 0, data["expired_count"])
}

func TestCreateCategoryOverHTTP(t *testing.T) {
	db := setupControllerTestDB(t)
	admin := createUser(t, db, "admin@example.com", models.RoleAdmin)
	router := setupAdminRouter(db, admin)

	w := doJSON(t, router, "POST", "/admin/categories", map[string]interface{}{"name": "Internships"})
	assert.Equal(t, http.StatusCreated, w.Code)

	var count int64
	db.Model(&models.Category{}).Where("name = ?", "Internships").Count(&count)
	assert.EqualValues(t, 1, count)
}
