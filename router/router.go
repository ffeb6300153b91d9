package router

import (
	"github.com/gin-gonic/gin"
	"github.com/primechances/primechances-api/config"
	"github.com/primechances/primechances-api/controllers"
	"github.com/primechances/primechances-api/middlewares"
	"github.com/primechances/primechances-api/services"
	"gorm.io/gorm"
)

// Deps bundles the constructed services the controllers need.
type Deps struct {
	Cfg        *config.Config
	Store      *services.OpportunityService
	Engagement *services.EngagementService
	Notifier   *services.NotificationService
	Toggles    *services.FeatureToggleService
	Sweeper    *services.SweeperService
}

func SetupRouter(db *gorm.DB, deps Deps) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	userCtrl := controllers.NewUserController(db)
	oppCtrl := controllers.NewOpportunityController(db, deps.Store)
	submissionCtrl := controllers.NewSubmissionController(db, deps.Store)
	engagementCtrl := controllers.NewEngagementController(db, deps.Engagement)
	notificationCtrl := controllers.NewNotificationController(deps.Notifier)
	adminCtrl := controllers.NewAdminController(db, deps.Cfg, deps.Toggles, deps.Sweeper)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	r.GET("/categories", oppCtrl.GetAllCategories)
	r.GET("/opportunities", oppCtrl.GetPublishedOpportunities)
	r.GET("/opportunities/:opportunity_id", oppCtrl.GetOpportunityByID)
	r.POST("/opportunities/:opportunity_id/view", oppCtrl.RecordView)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware())
	{
		auth.POST("/logout", userCtrl.Logout)
		auth.GET("/profile", userCtrl.GetProfile)
		auth.PATCH("/profile", userCtrl.UpdateProfile)

		auth.POST("/opportunities", oppCtrl.SubmitOpportunity)
		auth.POST("/opportunities/:opportunity_id/bookmark", engagementCtrl.ToggleBookmark)
		auth.GET("/bookmarks", engagementCtrl.GetBookmarks)
		auth.POST("/opportunities/:opportunity_id/apply", engagementCtrl.Apply)
		auth.GET("/applications", engagementCtrl.GetApplications)

		auth.GET("/notifications", notificationCtrl.GetNotifications)
		auth.GET("/notifications/unread-count", notificationCtrl.GetUnreadCount)
		auth.POST("/notifications/:notif_id/read", notificationCtrl.MarkRead)
		auth.POST("/notifications/read-all", notificationCtrl.MarkAllRead)
		auth.DELETE("/notifications/:notif_id", notificationCtrl.DeleteNotification)
	}

	// ----------------------------------------------------------------
	//                      ADMIN ROUTES
	// ----------------------------------------------------------------
	admin := r.Group("/admin")
	admin.Use(middlewares.AuthMiddleware(), middlewares.RequireModerator())
	{
		admin.GET("/stats", adminCtrl.GetDashboardStats)
		admin.GET("/submissions", submissionCtrl.GetPendingSubmissions)
		admin.GET("/opportunities/:opportunity_id/reviews", submissionCtrl.GetReviewTrail)
		admin.POST("/opportunities", submissionCtrl.CreateOpportunity)
		admin.PATCH("/opportunities/:opportunity_id", submissionCtrl.UpdateOpportunity)
		admin.DELETE("/opportunities/:opportunity_id", submissionCtrl.DeleteOpportunity)
		admin.POST("/opportunities/:opportunity_id/approve", submissionCtrl.ApproveSubmission)
		admin.POST("/opportunities/:opportunity_id/reject", submissionCtrl.RejectSubmission)
		admin.POST("/opportunities/:opportunity_id/publish", submissionCtrl.PublishOpportunity)
		admin.POST("/opportunities/:opportunity_id/unpublish", submissionCtrl.UnpublishOpportunity)
		admin.GET("/opportunities/:opportunity_id/analytics", engagementCtrl.GetAnalytics)
		admin.POST("/categories", adminCtrl.CreateCategory)
		admin.POST("/sweeper/run", adminCtrl.RunSweeper)

		// Full-admin only
		full := admin.Group("/")
		full.Use(middlewares.RequireAdmin())
		{
			full.GET("/users", adminCtrl.GetAllUsers)
			full.PATCH("/users/:user_id/role", adminCtrl.SetUserRole)
			full.GET("/features", adminCtrl.GetFeatureToggles)
			full.PUT("/features", adminCtrl.SetFeatureToggle)
			full.POST("/check-admin", adminCtrl.CheckAdmin)
		}
	}

	return r
}
