package main

import (
	"log"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"squad-management-api/internal/config"
	"squad-management-api/internal/constants"
	"squad-management-api/internal/database"
	"squad-management-api/internal/handlers"
	"squad-management-api/internal/middleware"
	"squad-management-api/internal/repository"
	"squad-management-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.MigrateDatabase(database.GetDB()); err != nil {
		log.Fatalf("Failed to apply indexes: %v", err)
	}

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // username (empty for default user)
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	// Configure session options based on environment
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax (1=Strict, 2=Lax, 3=None)
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// External collaborators. Without configured endpoints the sources fall
	// back to empty static stubs, which fail closed (score 0, no vouches).
	var reputation services.ReputationSource = &services.StaticReputationSource{}
	var vouch services.VouchSource = &services.StaticVouchSource{}
	if cfg.ReputationAPIBase != "" {
		reputation = services.NewHTTPReputationSource(cfg.ReputationAPIBase)
	}
	if cfg.VouchAPIBase != "" {
		vouch = services.NewHTTPVouchSource(cfg.VouchAPIBase)
	}

	// Initialize repositories
	db := database.GetDB()
	squadRepo := repository.NewSquadRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Initialize services
	notificationService := services.NewNotificationService(notificationRepo)
	eligibilityService := services.NewEligibilityService(squadRepo, applicationRepo, reputation, vouch)
	squadService := services.NewSquadService(squadRepo, positionRepo, reputation, notificationService)
	positionService := services.NewPositionService(positionRepo, applicationRepo, squadRepo, eligibilityService, notificationService)
	inviteService := services.NewInviteService(inviteRepo, squadRepo, userRepo, positionService, notificationService)
	authService := services.NewAuthService(userRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	squadHandler := handlers.NewSquadHandler(squadService)
	inviteHandler := handlers.NewInviteHandler(inviteService)
	positionHandler := handlers.NewPositionHandler(positionService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Squad Management API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Squad routes (protected)
		squads := api.Group("/squads")
		squads.Use(middleware.RequireAuth())
		{
			squads.POST("", squadHandler.CreateSquad)
			squads.GET("", squadHandler.ListSquads)
			squads.GET("/quota", squadHandler.GetQuota)
			squads.GET("/:id", middleware.RequireSquadAccess(), squadHandler.GetSquad)
			squads.PATCH("/:id", middleware.RequireSquadAccess(), middleware.RequireSquadCaptain(), squadHandler.UpdateSquad)
			squads.DELETE("/:id", squadHandler.DismantleSquad)
			squads.POST("/:id/leave", squadHandler.LeaveSquad)
			squads.POST("/:id/transfer-captaincy", middleware.RequireSquadAccess(), middleware.RequireSquadCaptain(), squadHandler.TransferCaptaincy)
			squads.DELETE("/:id/members/:user_id", middleware.RequireSquadAccess(), middleware.RequireSquadCaptain(), squadHandler.RemoveMember)
			squads.PATCH("/:id/members/:user_id/role", middleware.RequireSquadAccess(), middleware.RequireSquadCaptain(), squadHandler.ChangeMemberRole)
			squads.POST("/:id/invites", inviteHandler.CreateInvite)
			squads.GET("/:id/invites", inviteHandler.ListSquadInvites)
			squads.POST("/:id/positions", positionHandler.CreatePosition)
			squads.GET("/:id/positions", positionHandler.ListSquadPositions)
		}

		// Invite routes (protected)
		invites := api.Group("/invites")
		invites.Use(middleware.RequireAuth())
		{
			invites.GET("", inviteHandler.ListMyInvites)
			invites.POST("/:id/accept", inviteHandler.AcceptInvite)
			invites.POST("/:id/decline", inviteHandler.DeclineInvite)
			invites.POST("/:id/cancel", inviteHandler.CancelInvite)
		}

		// Position and application routes (protected)
		positions := api.Group("/positions")
		positions.Use(middleware.RequireAuth())
		{
			positions.GET("", positionHandler.BrowsePositions)
			positions.DELETE("/:id", positionHandler.DeletePosition)
			positions.POST("/:id/apply", positionHandler.Apply)
			positions.GET("/:id/applications", positionHandler.ListPositionApplications)
		}

		applications := api.Group("/applications")
		applications.Use(middleware.RequireAuth())
		{
			applications.GET("", positionHandler.ListMyApplications)
			applications.POST("/:id/approve", positionHandler.ApproveApplication)
			applications.POST("/:id/reject", positionHandler.RejectApplication)
			applications.POST("/:id/withdraw", positionHandler.WithdrawApplication)
		}

		// Notification routes (protected)
		notifications := api.Group("/notifications")
		notifications.Use(middleware.RequireAuth())
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
		}

		// Maintenance routes (protected). Intended for an external scheduler.
		maintenance := api.Group("/maintenance")
		maintenance.Use(middleware.RequireAuth())
		{
			maintenance.POST("/process-expirations", positionHandler.ProcessExpirations)
		}
	}

	// Start server
	log.Println("Server starting on :8080")
	if err := r.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
