package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/primechances/primechances-api/config"
	"github.com/primechances/primechances-api/database"
	"github.com/primechances/primechances-api/middlewares"
	"github.com/primechances/primechances-api/models"
	"github.com/primechances/primechances-api/router"
	"github.com/primechances/primechances-api/services"
	"github.com/primechances/primechances-api/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}
	utils.InitLogger()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	utils.InitDB(db)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	ctx := context.Background()

	// Redis is optional: without it the deadline-alert dedup degrades to
	// notifying every sweep.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			utils.ErrorLogger.Fatalf("Failed to connect to redis: %v", err)
		}
	} else {
		utils.InfoLogger.Println("REDIS_URL not set, deadline alert dedup disabled")
	}

	mailer := services.NewMailerService(cfg)
	notifier := services.NewNotificationService(db, rdb, mailer, cfg)
	store := services.NewOpportunityService(db, notifier)
	engagement := services.NewEngagementService(db)
	toggles := services.NewFeatureToggleService(db)
	sweeper := services.NewSweeperService(db, store, toggles, notifier, cfg)

	if err := sweeper.Start(ctx); err != nil {
		utils.ErrorLogger.Fatalf("Failed to start sweeper: %v", err)
	}
	defer sweeper.Stop()

	// Drop expired entries from the token blacklist hourly.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			utils.CleanupBlacklist()
		}
	}()

	rateLimiter := middlewares.NewRateLimiter(50, 1)

	r := router.SetupRouter(db, router.Deps{
		Cfg:        cfg,
		Store:      store,
		Engagement: engagement,
		Notifier:   notifier,
		Toggles:    toggles,
		Sweeper:    sweeper,
	})
	r.Use(rateLimiter.RateLimit())

	utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
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
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
