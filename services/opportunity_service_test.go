package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/primechances/primechances-api/apperrors"
	"github.com/primechances/primechances-api/config"
	"github.com/primechances/primechances-api/models"
	"github.com/primechances/primechances-api/utils"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBSeq atomic.Int64

// setupServiceTestDB opens a per-test in-memory sqlite database. The unique
// DSN keeps tests isolated while cache=shared keeps pooled connections on
// the same database.
func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	utils.InitLogger()

	dsn := fmt.Sprintf("file:svc_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Opportunity{},
		&models.SubmissionReview{},
		&models.Bookmark{},
		&models.Application{},
		&models.Notification{},
		&models.FeatureToggle{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	db.Create(&models.Category{Name: "Scholarships"})
	return db
}

func newTestStore(db *gorm.DB) *OpportunityService {
	cfg := &config.Config{SweepAlertPolicy: config.AlertPolicyEverySweep, DeadlineAlertWindow: 7}
	notifier := NewNotificationService(db, nil, nil, cfg)
	return NewOpportunityService(db, notifier)
}

func seedUser(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()
	user := models.User{
		Name:     "Test " + string(role),
		Email:    string(role) + "@example.com",
		Password: "hashed",
		Role:     role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return &user
}

func validInput() OpportunityInput {
	return OpportunityInput{
		Title:        "Research Fellowship",
		Organization: "Acme Institute",
		Description:  "A fellowship for early-career researchers.",
		CategoryID:   1,
	}
}

func TestCreateValidation(t *testing.T) {
	db := setupServiceTestDB(t)
	store := newTestStore(db)
	user := seedUser(t, db, models.RoleUser)

	tests := []struct {
		name    string
		mutate  func(*OpportunityInput)
		wantErr bool
	}{
		{"valid input", func(in *OpportunityInput) {}, false},
		{"missing title", func(in *OpportunityInput) { in.Title = "" }, true},
		{"missing description", func(in *OpportunityInput) { in.Description = "" }, true},
		{"missing organization", func(in *OpportunityInput) { in.Organization = "" }, true},
		{"missing category", func(in *OpportunityInput) { in.CategoryID = 0 }, true},
		{"unknown source", func(in *OpportunityInput) { in.Source = "crowdsourced" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			input.Title = "unique " + tt.name
			tt.mutate(&input)
			_, err := store.Create(input, user)
			if tt.wantErr {
				assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateByUserIsPending(t *testing.T) {
	db := setupServiceTestDB(t)
	store := newTestStore(db)
	user := seedUser(t, db, models.RoleUser)

	opp, err := store.Create(validInput(), user)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusPending, opp.Status)
	assert.False(t, opp.IsPublished)
	assert.Equal(t, user.ID, opp.SubmittedBy)
	assert.Nil(t, opp.ApprovedBy)
}

func TestAdminCreateWithPublishShortcut(t *testing.T) {
	db := setupServiceTestDB(t)
	store := newTestStore(db)
	admin := seedUser(t, db, models.RoleAdmin)

	input := validInput()
	input.Publish = true
	opp, err := store.Create(input, admin)
	assert.NoError(t, err)

	assert.Equal(t, models.StatusApproved, opp.Status)
	assert.True(t, opp.IsPublished)
	assert.NotNil(t, opp.PublishedAt)
	assert.Equal(t, admin.ID, opp.SubmittedBy)
	if assert.NotNil(t, opp.ApprovedBy) {
		assert.Equal(t, admin.ID, *opp.ApprovedBy)
	}
	assert.Equal(t, models.SourceAdminCreated, opp.Source)
}

func TestApproveThenPublish(t *testing.T) {
	db := setupServiceTestDB(t)
	store := newTestStore(db)
	user := seedUser(t, db, models.RoleUser)
	admin := seedUser(t, db, models.RoleAdmin)

	opp, err := store.Create(validInput(), user)
	assert.NoError(t, err)

	approved, err := store.Approve(opp.ID, admin, "looks legit")
	assert.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.False(t, approved.IsPublished, "approval must not publish")
	assert.NotNil(t, approved.ApprovedAt)

	// Review trail row exists.
	var review models.SubmissionReview
	assert.NoError(t, db.Where("opportunity_id = ?", opp.ID).First(&review).Error)
	assert.Equal(t, models.ReviewDecisionApproved, review.Decision)
	assert.Equal(t, admin.ID, review.ReviewerID)

	published, err := store.Publish(opp.ID)
	assert.NoError(t, err)
	assert.True(t, published.IsPublished)
	assert.NotNil(t, published.PublishedAt)
}

func TestPublishIsIdempotent(t *testing.T) {
	db := setupServiceTestDB(t)
	store := newTestStore(db)
	admin := seedUser(t, db, models.RoleAdmin)

	input := validInput()
	input.Publish = true
	opp, err := store.Create(input, admin)
	assert.NoError(t, err)
	firstPublishedAt := *opp.PublishedAt

	time.Sleep(10 * time.Millisecond)
	again, err := store.Publish(opp.ID)
	assert.NoError(t, err)
	assert.True(t, again.PublishedAt.Equal(firstPublishedAt), "published_at must keep its first value")
}

func TestPublishRequiresApproved(t *testing.T) {
	db := setupServiceTestDB(t)
	store := newTestStore(db)
	user := seedUser(t, db, models.RoleUser)

	opp, err := store.Create(validInput(), user)
	assert.NoError(t, err)

	_, err = store.Publish(opp.ID)
	assert.Equal(t, apperrors.CodeInvalidState, apperrors.CodeOf(err))
}

func TestRejectedIsTerminal(t *testing.T) {
	db := setupServiceTestDB(t)
	store := newTestStore(db)
	user := seedUser(t, db, models.RoleUser)
	admin := seedUser(t, db, models.RoleAdmin)

	opp, err := store.Create(validInput(), user)
	assert.NoError(t, err)

	rejected, err := store.Reject(opp.ID, admin, "not a real opportunity")
	assert.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)

	_, err = store.Approve(opp.ID, admin, "")
	assert.Equal(t, apperrors.CodeInvalidState, apperrors.CodeOf(err))

	_, err = store.Publish(opp.ID)
	assert.Equal(t, apperrors.CodeInvalidState, apperrors.CodeOf(err))
}

func TestUnpublishKeepsApproved(t *testing.T) {
	db := setupServiceTestDB(t)
	store := newTestStore(db)
	admin := seedUser(t, db, models.RoleAdmin)

	input := validInput()
	input.Publish = true
	opp, err := store.Create(input, admin)
	assert.NoError(t, err)

	unpublished, err := store.Unpublish(opp.ID)
	assert.NoError(t, err)
	assert.False(t, unpublished.IsPublished)
	assert.Equal(t, models.StatusApproved, unpublished.Status, "unpublish must not revert to pending")

	// Unpublishing a hidden row is an invalid state.
	_, err = store.Unpublish(opp.ID)
	assert.Equal(t, apperrors.CodeInvalidState, apperrors.CodeOf(err))
}

func TestUpdatePublishGate(t *testing.T) {
	db := setupServiceTestDB(t)
	store := newTestStore(db)
	user := seedUser(t, db, models.RoleUser)

	opp, err := store.Create(validInput(), user)
	assert.NoError(t, err)

	publish := true
	_, err = store.Update(opp.ID, UpdatePatch{IsPublished: &publish})
	assert.Equal(t, apperrors.CodeInvalidState, apperrors.CodeOf(err))

	// The failed update must not leave a partial mutation behind.
	var reloaded models.Opportunity
	assert.NoError(t, db.First(&reloaded, opp.ID).Error)
	assert.False(t, reloaded.IsPublished)
}

func TestPublishedImpliesApproved(t *testing.T) {
	db := setupServiceTestDB(t)
	store := newTestStore(db)
	user := seedUser(t, db, models.RoleUser)
	admin := seedUser(t, db, models.RoleAdmin)

	opp, err := store.Create(validInput(), user)
	assert.NoError(t, err)
	_, err = store.Approve(opp.ID, admin, "")
	assert.NoError(t, err)
	_, err = store.Publish(opp.ID)
	assert.NoError(t, err)

	var published []models.Opportunity
	assert.NoError(t, db.Where("is_published = ?", true).Find(&published).Error)
	for _, p := range published {
		assert.Equal(t, models.StatusApproved, p.Status)
	}
}

func TestDeleteCascadesEngagementRows(t *testing.T) {
	db := setupServiceTestDB(t)
	store := newTestStore(db)
	user := seedUser(t, db, models.RoleUser)
	admin := seedUser(t, db, models.RoleAdmin)

	input := validInput()
	input.Publish = true
	opp, err := store.Create(input, admin)
	assert.NoError(t, err)

	db.Create(&models.Bookmark{UserID: user.ID, OpportunityID: opp.ID})
	db.Create(&models.Application{UserID: user.ID, OpportunityID: opp.ID, ApplicationStatus: models.ApplicationStatusApplied})
	db.Create(&models.Notification{UserID: user.ID, Type: models.NotificationTypeDeadline, Title: "t", Message: "m", OpportunityID: &opp.ID})

	assert.NoError(t, store.Delete(opp.ID))

	var count int64
	db.Model(&models.Bookmark{}).Where("opportunity_id = ?", opp.ID).Count(&count)
	assert.Zero(t, count, "no dangling bookmarks")
	db.Model(&models.Application{}).Where("opportunity_id = ?", opp.ID).Count(&count)
	assert.Zero(t, count, "no dangling applications")
	db.Model(&models.Notification{}).Where("opportunity_id = ?", opp.ID).Count(&count)
	assert.Zero(t, count, "no dangling notifications")
}

func TestIncrementViewCount(t *testing.T) {
	db := setupServiceTestDB(t)
	store := newTestStore(db)
	user := seedUser(t, db, models.RoleUser)

	opp, err := store.Create(validInput(), user)
	assert.NoError(t, err)

	assert.NoError(t, store.IncrementViewCount(opp.ID))
	assert.NoError(t, store.IncrementViewCount(opp.ID))

	var reloaded models.Opportunity
	assert.NoError(t, db.First(&reloaded, opp.ID).Error)
	assert.EqualValues(t, 2, reloaded.ViewCount)

	err = store.IncrementViewCount(9999)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}
