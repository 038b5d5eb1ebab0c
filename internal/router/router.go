package router

import (
	"log"

	"firebase.google.com/go/v4/auth"
	"github.com/gatherly-app/backend/internal/feed"
	"github.com/gatherly-app/backend/internal/handlers"
	"github.com/gatherly-app/backend/internal/middleware"
	"github.com/gatherly-app/backend/internal/models"
	"github.com/gatherly-app/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, firebaseAuthClient *auth.Client) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Invite{},
		&models.Post{},
		&models.Comment{},
		&models.Tag{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	eventRepo := repositories.NewPostgresEventRepository(pgdb)
	inviteRepo := repositories.NewPostgresInviteRepository(pgdb)
	postRepo := repositories.NewPostgresPostRepository(pgdb)
	commentRepo := repositories.NewPostgresCommentRepository(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)
	activityRepo := repositories.NewMongoActivityRepository(mgClient.Database("gatherly"))

	// The feed hub fans out notification changes to streaming clients.
	hub := feed.NewHub()

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, firebaseAuthClient)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	// User profile routes
	userHandler := handlers.NewUserHandler(userRepo)
	userHandler.RegisterProfileRoutes(api)
	log.Println("User profile routes configured.")

	// Event and invite routes
	eventHandler := handlers.NewEventHandler(eventRepo, inviteRepo, userRepo, notificationRepo, activityRepo, hub)
	eventHandler.RegisterEventRoutes(api)
	log.Println("Event routes configured.")

	// Post routes
	postHandler := handlers.NewPostHandler(postRepo, activityRepo)
	postHandler.RegisterPostRoutes(api)
	log.Println("Post routes configured.")

	// Comment routes
	commentHandler := handlers.NewCommentHandler(commentRepo, postRepo, userRepo, notificationRepo, hub)
	commentHandler.RegisterCommentRoutes(api)
	log.Println("Comment routes configured.")

	// Activity routes
	activityHandler := handlers.NewActivityHandler(activityRepo)
	activityHandler.RegisterActivityRoutes(api)
	log.Println("Activity routes configured.")

	// Notification routes, including the SSE change feed
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, hub)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	log.Println("All routes configured.")
}
