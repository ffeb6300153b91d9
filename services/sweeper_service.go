package services

import (
	"context"
	"fmt"
	"time"

	"github.com/primechances/primechances-api/config"
	"github.com/primechances/primechances-api/models"
	"github.com/primechances/primechances-api/utils"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// SweepReport is the structured result of one sweeper run. Failures are
// reported here, never panicked; the scheduler retries on its next tick.
type SweepReport struct {
	Success              bool     `json:"success"`
	ExpiredCount         int64    `json:"expired_count"`
	DeletedCount         int      `json:"deleted_count"`
	DeletedOpportunities []string `json:"deleted_opportunities"`
	NotifiedCount        int      `json:"notified_count"`
	Error                string   `json:"error,omitempty"`
}

// SweeperService expires scraped opportunities past their deadline,
// deletes expired rows past the retention window, and fans out approaching
// deadline alerts to bookmarking users. Each run is gated by the
// auto_delete_expired_opportunities feature toggle.
type SweeperService struct {
	db         *gorm.DB
	store      *OpportunityService
	toggles    *FeatureToggleService
	dispatcher *NotificationService
	cfg        *config.Config
	cron       *cron.Cron
}

func NewSweeperService(db *gorm.DB, store *OpportunityService, toggles *FeatureToggleService, dispatcher *NotificationService, cfg *config.Config) *SweeperService {
	return &SweeperService{
		db:         db,
		store:      store,
		toggles:    toggles,
		dispatcher: dispatcher,
		cfg:        cfg,
		cron:       cron.New(),
	}
}

// Start registers the cron entry and launches the scheduler. One run fires
// immediately so a restart does not wait a full interval.
func (ss *SweeperService) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %dh", ss.cfg.SweepIntervalHours)
	_, err := ss.cron.AddFunc(spec, func() {
		ss.RunSweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	ss.cron.Start()
	utils.InfoLogger.Printf("Sweeper started with schedule %s", spec)

	go ss.RunSweep(ctx)
	return nil
}

// Stop shuts the scheduler down.
func (ss *SweeperService) Stop() {
	ss.cron.Stop()
	utils.InfoLogger.Println("Sweeper stopped")
}

// RunSweep executes one full sweep and returns its report. Order matters:
// an expiry failure aborts the run before any deadline alert goes out, so
// alerts never fire against a partially expired dataset.
func (ss *SweeperService) RunSweep(ctx context.Context) *SweepReport {
	report := &SweepReport{DeletedOpportunities: []string{}}

	if !ss.toggles.IsEnabled(models.FeatureAutoDeleteExpired) {
		report.Success = true
		utils.InfoLogger.Println("Sweep skipped: auto_delete_expired_opportunities is disabled")
		return report
	}

	now := time.Now()

	// Step 1: expire scraped, unpublished rows whose deadline has passed.
	// Published rows are never touched by this path, and rejected rows are
	// terminal already.
	result := ss.db.Model(&models.Opportunity{}).
		Where("application_deadline < ?", now).
		Where("is_published = ?", false).
		Where("source = ?", models.SourceScraped).
		Where("status IN ?", []models.OpportunityStatus{models.StatusPending, models.StatusApproved}).
		Update("status", models.StatusExpired)
	if result.Error != nil {
		report.Error = fmt.Sprintf("expiring past-deadline opportunities: %v", result.Error)
		utils.ErrorLogger.Printf("Sweep aborted: %s", report.Error)
		return report
	}
	report.ExpiredCount = result.RowsAffected

	// Step 2: retention delete. Expired rows whose deadline is older than
	// the retention window, removed through the cascading store delete.
	cutoff := now.AddDate(0, 0, -ss.cfg.SweepRetentionDays)
	var stale []models.Opportunity
	if err := ss.db.
		Where("status = ?", models.StatusExpired).
		Where("application_deadline < ?", cutoff).
		Find(&stale).Error; err != nil {
		report.Error = fmt.Sprintf("loading expired opportunities: %v", err)
		utils.ErrorLogger.Printf("Sweep aborted: %s", report.Error)
		return report
	}
	for i := range stale {
		if err := ss.store.Delete(stale[i].ID); err != nil {
			report.Error = fmt.Sprintf("deleting opportunity %d: %v", stale[i].ID, err)
			utils.ErrorLogger.Printf("Sweep aborted: %s", report.Error)
			return report
		}
		report.DeletedCount++
		report.DeletedOpportunities = append(report.DeletedOpportunities, stale[i].Title)
	}

	// Step 3: deadline alerts for published rows closing within the window.
	notified, err := ss.sendDeadlineAlerts(ctx, now)
	if err != nil {
		report.Error = fmt.Sprintf("sending deadline alerts: %v", err)
		utils.ErrorLogger.Printf("Sweep finished with alert errors: %s", report.Error)
		return report
	}
	report.NotifiedCount = notified

	report.Success = true
	utils.InfoLogger.Printf("Sweep complete: expired=%d deleted=%d notified=%d",
		report.ExpiredCount, report.DeletedCount, report.NotifiedCount)
	return report
}

// sendDeadlineAlerts fans out one deadline notification per bookmarking
// user for every published opportunity closing within the alert window.
// Per-user dedup is the dispatcher's job.
func (ss *SweeperService) sendDeadlineAlerts(ctx context.Context, now time.Time) (int, error) {
	windowEnd := now.AddDate(0, 0, ss.cfg.DeadlineAlertWindow)

	var closing []models.Opportunity
	if err := ss.db.
		Where("is_published = ?", true).
		Where("application_deadline >= ? AND application_deadline <= ?", now, windowEnd).
		Find(&closing).Error; err != nil {
		return 0, err
	}

	notified := 0
	for i := range closing {
		opp := &closing[i]

		var bookmarks []models.Bookmark
		if err := ss.db.Where("opportunity_id = ?", opp.ID).Find(&bookmarks).Error; err != nil {
			return notified, err
		}

		for _, bm := range bookmarks {
			var user models.User
			if err := ss.db.First(&user, bm.UserID).Error; err != nil {
				utils.ErrorLogger.Printf("Deadline alert: bookmark user %d not found: %v", bm.UserID, err)
				continue
			}
			sent, err := ss.dispatcher.DispatchDeadlineAlert(ctx, &user, opp)
			if err != nil {
				return notified, err
			}
			if sent {
				notified++
			}
		}
	}
	return notified, nil
}
