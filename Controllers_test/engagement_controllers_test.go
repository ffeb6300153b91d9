package Controllers_test

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/primechances/primechances-api/controllers"
	"github.com/primechances/primechances-api/models"
	"github.com/primechances/primechances-api/services"
)

func setupEngagementRouter(db *gorm.DB, user *models.User) (*gin.Engine, *services.OpportunityService) {
	gin.SetMode(gin.TestMode)
	router := gin.Default()
	store := newStoreService(db)
	engCtrl := controllers.NewEngagementController(db, services.NewEngagementService(db))

	auth := router.Group("/", asUser(user))
	auth.POST("/opportunities/:opportunity_id/bookmark", engCtrl.ToggleBookmark)
	auth.GET("/bookmarks", engCtrl.GetBookmarks)
	auth.POST("/opportunities/:opportunity_id/apply", engCtrl.Apply)
	auth.GET("/applications", engCtrl.GetApplications)
	auth.GET("/admin/opportunities/:opportunity_id/analytics", engCtrl.GetAnalytics)
	return router, store
}

func createLiveOpportunity(t *testing.T, store *services.OpportunityService, admin *models.User) *models.Opportunity {
	t.Helper()
	opp, err := store.Create(services.OpportunityInput{
		Title: "Live Grant", Organization: "Org", Description: "d", CategoryID: 1,
		ApplicationURL: "https://org.example.com/apply", Publish: true,
	}, admin)
	if err != nil {
		t.Fatalf("failed to create opportunity: %v", err)
	}
	return opp
}

func TestBookmarkToggleOverHTTP(t *testing.T) {
	db := setupControllerTestDB(t)
	user := createUser(t, db, "user@example.com", models.RoleUser)
	admin := createUser(t, db, "admin@example.com", models.RoleAdmin)
	router, store := setupEngagementRouter(db, user)
	opp := createLiveOpportunity(t, store, admin)

	url := "/opportunities/" + strconv.Itoa(int(opp.ID)) + "/bookmark"

	w := doJSON(t, router, "POST", url, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, dataOf(t, w)["bookmarked"])

	w = doJSON(t, router, "GET", "/bookmarks", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var listResp struct {
		Data []models.Bookmark `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	if assert.Len(t, listResp.Data, 1) {
		assert.Equal(t, "Live Grant", listResp.Data[0].Opportunity.Title)
	}

	// Same endpoint toggles the bookmark off again.
	w = doJSON(t, router, "POST", url, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, dataOf(t, w)["bookmarked"])

	w = doJSON(t, router, "GET", "/bookmarks", nil)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Len(t, listResp.Data, 0)
}

func TestApplyOverHTTP(t *testing.T) {
	db := setupControllerTestDB(t)
	user := createUser(t, db, "user@example.com", models.RoleUser)
	admin := createUser(t, db, "admin@example.com", models.RoleAdmin)
	router, store := setupEngagementRouter(db, user)
	opp := createLiveOpportunity(t, store, admin)

	url := "/opportunities/" + strconv.Itoa(int(opp.ID)) + "/apply"

	w := doJSON(t, router, "POST", url, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	data := dataOf(t, w)
	assert.Equal(t, "https://org.example.com/apply", data["application_url"])

	// The second click is acknowledged without another counter bump.
	w = doJSON(t, router, "POST", url, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data = dataOf(t, w)
	assert.Equal(t, "https://org.example.com/apply", data["application_url"])

	var reloaded models.Opportunity
	assert.NoError(t, db.First(&reloaded, opp.ID).Error)
	assert.EqualValues(t, 1, reloaded.ApplicationCount)

	w = doJSON(t, router, "GET", "/applications", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var listResp struct {
		Data []models.Application `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Len(t, listResp.Data, 1)
}

func TestAnalyticsOverHTTP(t *testing.T) {
	db := setupControllerTestDB(t)
	user := createUser(t, db, "user@example.com", models.RoleUser)
	admin := createUser(t, db, "admin@example.com", models.RoleAdmin)
	router, store := setupEngagementRouter(db, admin)
	opp := createLiveOpportunity(t, store, admin)

	assert.NoError(t, store.IncrementViewCount(opp.ID))
	assert.NoError(t, store.IncrementViewCount(opp.ID))
	db.Create(&models.Bookmark{UserID: user.ID, OpportunityID: opp.ID})
	db.Create(&models.Application{UserID: user.ID, OpportunityID: opp.ID, ApplicationStatus: models.ApplicationStatusApplied})
	db.Model(&models.Opportunity{}).Where("id = ?", opp.ID).UpdateColumn("application_count", 1)

	w := doJSON(t, router, "GET", "/admin/opportunities/"+strconv.Itoa(int(opp.ID))+"/analytics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, w)
	assert.EqualValues(t, 2, data["views"])
	assert.EqualValues(t, 1, data["saves"])
	assert.EqualValues(t, 1, data["applications"])
	assert.InDelta(t, 0.5, data["conversion_rate"], 0.0001)
}
