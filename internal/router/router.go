package router

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anonto42/bazaar/backend/internal/auth"
	"github.com/anonto42/bazaar/backend/internal/handlers"
	"github.com/anonto42/bazaar/backend/internal/middleware"
	"github.com/anonto42/bazaar/backend/internal/models"
	"github.com/anonto42/bazaar/backend/internal/repositories"
	"github.com/anonto42/bazaar/backend/internal/services"
	"github.com/anonto42/bazaar/backend/validators"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Repositories is the storage the routes are wired to.
type Repositories struct {
	Users         repositories.UserRepository
	Products      repositories.ProductRepository
	Conversations repositories.ConversationRepository
	Messages      repositories.MessageRepository
	Notifications repositories.NotificationRepository
	Favorites     repositories.FavoriteRepository
}

// NewRepositories builds the PostgreSQL and MongoDB repositories
func NewRepositories(pgdb *gorm.DB, mdb *mongo.Database) Repositories {
	return Repositories{
		Users:         repositories.NewPostgresUserRepository(pgdb),
		Products:      repositories.NewMongoProductRepository(mdb),
		Conversations: repositories.NewMongoConversationRepository(mdb),
		Messages:      repositories.NewMongoMessageRepository(mdb),
		Notifications: repositories.NewMongoNotificationRepository(mdb),
		Favorites:     repositories.NewMongoFavoriteRepository(mdb),
	}
}

// Migrate runs the PostgreSQL auto-migrations and creates the MongoDB indexes
func Migrate(ctx context.Context, pgdb *gorm.DB, mdb *mongo.Database) error {
	if err := pgdb.AutoMigrate(&models.User{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := repositories.EnsureIndexes(ctx, mdb); err != nil {
		return err
	}
	return nil
}

// Options carries the non-storage dependencies of the routes.
type Options struct {
	Tokens   *auth.TokenManager
	Firebase handlers.IDTokenVerifier // nil disables firebase login
	Notifier services.Notifier
	Logger   *slog.Logger
	Health   map[string]handlers.HealthCheck
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, repos Repositories, opts Options) {
	log := opts.Logger
	e.Validator = validators.NewValidator()

	e.GET("/health", handlers.NewHealthHandler(opts.Health))

	// --- Services ---
	conversationService := services.NewConversationService(repos.Conversations, repos.Products, log)
	messageService := services.NewMessageService(conversationService, repos.Messages, opts.Notifier, log)
	inboxService := services.NewInboxService(repos.Notifications, opts.Notifier, log)
	favoriteService := services.NewFavoriteService(repos.Favorites, repos.Products, opts.Notifier, log)
	productService := services.NewProductService(repos.Products, repos.Favorites, opts.Notifier, log)

	// --- Unprotected routes for authentication ---
	authHandler := handlers.NewAuthHandler(repos.Users, opts.Firebase, opts.Tokens, log)
	authHandler.RegisterAuthRoutes(e.Group("/api/v1/auth"))

	// --- Protected routes ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(opts.Tokens, log))

	authHandler.RegisterSessionRoutes(api)
	handlers.NewUserHandler(repos.Users).RegisterProfileRoutes(api)
	handlers.NewProductHandler(productService).RegisterProductRoutes(api)
	handlers.NewFavoriteHandler(favoriteService).RegisterFavoriteRoutes(api)
	handlers.NewConversationHandler(conversationService, messageService).RegisterConversationRoutes(api)

	notificationHandler := handlers.NewNotificationHandler(inboxService)
	notificationHandler.RegisterNotificationRoutes(api)

	admin := api.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	notificationHandler.RegisterAdminRoutes(admin)

	log.Info("routes configured", "count", len(e.Routes()))
}
