package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/primechances/primechances-api/config"
	"github.com/primechances/primechances-api/models"
	"github.com/primechances/primechances-api/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// NotificationService creates and fans out notifications. Rows are
// persisted per recipient, so unread state survives sessions and devices.
// All dispatch paths are best effort: a failure is logged and never rolls
// back the domain mutation that triggered it.
type NotificationService struct {
	db     *gorm.DB
	rdb    *redis.Client
	mailer *MailerService
	cfg    *config.Config
}

func NewNotificationService(db *gorm.DB, rdb *redis.Client, mailer *MailerService, cfg *config.Config) *NotificationService {
	return &NotificationService{db: db, rdb: rdb, mailer: mailer, cfg: cfg}
}

// matches applies the profile match rules: field-of-study substring against
// the description, or country against the location, or a remote profile
// against a remote listing.
func matches(user *models.User, opp *models.Opportunity) bool {
	if user.FieldOfStudy != "" &&
		strings.Contains(strings.ToLower(opp.Description), strings.ToLower(user.FieldOfStudy)) {
		return true
	}
	if user.Country != "" &&
		strings.Contains(strings.ToLower(opp.Location), strings.ToLower(user.Country)) {
		return true
	}
	if user.RemoteOK && opp.IsRemote {
		return true
	}
	return false
}

// DispatchPublished fans a newly published opportunity out to every
// notifiable user whose profile matches.
func (ns *NotificationService) DispatchPublished(opp *models.Opportunity) {
	var users []models.User
	if err := ns.db.Where("notify_opportunities = ?", true).Find(&users).Error; err != nil {
		utils.ErrorLogger.Printf("Publish dispatch for opportunity %d: loading users failed: %v", opp.ID, err)
		return
	}

	created := 0
	for i := range users {
		user := &users[i]
		if user.ID == opp.SubmittedBy || !matches(user, opp) {
			continue
		}
		notif := models.Notification{
			UserID:        user.ID,
			Type:          models.NotificationTypeOpportunity,
			Title:         "New opportunity: " + opp.Title,
			Message:       fmt.Sprintf("%s at %s matches your profile.", opp.Title, opp.Organization),
			OpportunityID: &opp.ID,
		}
		if err := ns.db.Create(&notif).Error; err != nil {
			utils.ErrorLogger.Printf("Publish dispatch for opportunity %d: notify user %d failed: %v", opp.ID, user.ID, err)
			continue
		}
		created++
	}

	utils.InfoLogger.Printf("Opportunity %d published, %d users notified", opp.ID, created)
}

// DispatchReviewDecision notifies the submitter of an approve/reject
// decision, with a best-effort email.
func (ns *NotificationService) DispatchReviewDecision(opp *models.Opportunity, decision models.ReviewDecision, notes string) {
	var submitter models.User
	if err := ns.db.First(&submitter, opp.SubmittedBy).Error; err != nil {
		utils.ErrorLogger.Printf("Review dispatch for opportunity %d: submitter %d not found: %v", opp.ID, opp.SubmittedBy, err)
		return
	}

	var title, message string
	switch decision {
	case models.ReviewDecisionApproved:
		title = "Submission approved"
		message = fmt.Sprintf("Your submission %q has been approved.", opp.Title)
	case models.ReviewDecisionRejected:
		title = "Submission rejected"
		message = fmt.Sprintf("Your submission %q was rejected.", opp.Title)
		if notes != "" {
			message += " Reason: " + notes
		}
	}

	notif := models.Notification{
		UserID:        submitter.ID,
		Type:          models.NotificationTypeApproval,
		Title:         title,
		Message:       message,
		OpportunityID: &opp.ID,
	}
	if err := ns.db.Create(&notif).Error; err != nil {
		utils.ErrorLogger.Printf("Review dispatch for opportunity %d failed: %v", opp.ID, err)
		return
	}

	if ns.mailer != nil {
		go func(to, subject, body string) {
			if _, err := ns.mailer.Send(context.Background(), Email{
				To:      to,
				Subject: subject,
				HTML:    "<p>" + body + "</p>",
			}); err != nil {
				utils.ErrorLogger.Printf("Review email to %s failed: %v", to, err)
			}
		}(submitter.Email, title, message)
	}
}

// dedupKey identifies one (user, opportunity) deadline alert.
func dedupKey(userID, oppID uint) string {
	return fmt.Sprintf("deadline_alert:%d:%d", userID, oppID)
}

// alertTTL translates the configured policy into a dedup-key lifetime.
// A zero duration with ok=false means dedup is off (every sweep fires).
func alertTTL(policy string) (time.Duration, bool) {
	switch policy {
	case config.AlertPolicyOnce:
		return 0, true // no expiry, fire once ever
	case config.AlertPolicyDaily:
		return 24 * time.Hour, true
	default:
		return 0, false
	}
}

// DispatchDeadlineAlert creates a deadline notification for one bookmarking
// user unless the dedup policy suppresses it. Returns true when a
// notification was created.
func (ns *NotificationService) DispatchDeadlineAlert(ctx context.Context, user *models.User, opp *models.Opportunity) (bool, error) {
	if !user.NotifyDeadlines {
		return false, nil
	}

	if ttl, dedup := alertTTL(ns.cfg.SweepAlertPolicy); dedup && ns.rdb != nil {
		set, err := ns.rdb.SetNX(ctx, dedupKey(user.ID, opp.ID), time.Now().Unix(), ttl).Result()
		if err != nil {
			return false, err
		}
		if !set {
			return false, nil // already alerted within the policy window
		}
	}

	deadline := ""
	if opp.ApplicationDeadline != nil {
		deadline = opp.ApplicationDeadline.Format("2 Jan 2006")
	}
	notif := models.Notification{
		UserID:        user.ID,
		Type:          models.NotificationTypeDeadline,
		Title:         "Deadline approaching: " + opp.Title,
		Message:       fmt.Sprintf("The application deadline for %q is %s.", opp.Title, deadline),
		OpportunityID: &opp.ID,
	}
	if err := ns.db.Create(&notif).Error; err != nil {
		return false, err
	}
	return true, nil
}

// ListForUser returns the recipient's most recent notifications.
func (ns *NotificationService) ListForUser(userID uint, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var notifs []models.Notification
	err := ns.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifs).Error
	return notifs, err
}

// UnreadCount returns the recipient's unread counter.
func (ns *NotificationService) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := ns.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead flips is_read for one notification owned by userID.
func (ns *NotificationService) MarkRead(userID, notifID uint) error {
	result := ns.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notifID, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkAllRead flips every unread notification for the recipient.
func (ns *NotificationService) MarkAllRead(userID uint) error {
	return ns.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

// Delete removes one notification owned by userID.
func (ns *NotificationService) Delete(userID, notifID uint) error {
	result := ns.db.Where("id = ? AND user_id = ?", notifID, userID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
