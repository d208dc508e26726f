// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Cerega32/Bucket-List/internal/cache"
	"github.com/Cerega32/Bucket-List/internal/config"
	"github.com/Cerega32/Bucket-List/internal/featureflags"
	"github.com/Cerega32/Bucket-List/internal/middleware"
	"github.com/Cerega32/Bucket-List/internal/models"
	"github.com/Cerega32/Bucket-List/internal/notifications"
	"github.com/Cerega32/Bucket-List/internal/repository"
	"github.com/Cerega32/Bucket-List/internal/service"
	"github.com/Cerega32/Bucket-List/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	store          *repository.Store
	blobs          storage.Storage
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	flags          *featureflags.Manager

	catalog      *service.CatalogService
	completion   *service.CompletionService
	comments     *service.CommentService
	users        *service.UserService
	achievements *service.AchievementService
	leaderboard  *service.LeaderboardService
}

// NewServer creates a Server using already-initialized dependencies. redis
// may be nil, in which case caching, token revocation and notifications are
// disabled.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, blobs storage.Storage) *Server {
	store := repository.NewStore(db)
	c := cache.New(redisClient)
	notifier := notifications.NewNotifier(redisClient)
	maxUpload := int64(cfg.UploadMaxSizeMB) << 20

	ledger := service.NewExperienceLedger(service.NewAchievementEvaluator(nil))

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("bucket-list-api"),
		store:          store,
		blobs:          blobs,
		notifier:       notifier,
		hub:            notifications.NewHub(),
		flags:          featureflags.NewManager(cfg.FeatureFlags),
		catalog:        service.NewCatalogService(store, c, blobs, maxUpload),
		completion:     service.NewCompletionService(store, ledger, notifier, c),
		comments:       service.NewCommentService(store, ledger, notifier, c, blobs, maxUpload),
		users:          service.NewUserService(store, c, blobs, maxUpload),
		achievements:   service.NewAchievementService(store, ledger, notifier, c),
		leaderboard: service.NewLeaderboardService(store, c,
			time.Duration(cfg.LeaderboardCacheTTLSeconds)*time.Second),
	}
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	if mem, ok := s.blobs.(*storage.MemoryStorage); ok {
		app.Get("/uploads/*", serveMemoryBlob(mem))
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Bucket List Metrics Dashboard",
	}))

	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.redis, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	// Public catalog
	api.Get("/categories", s.GetCategories)
	api.Get("/leaderboard", s.GetLeaderboard)
	api.Get("/achievements/catalog", s.GetAchievementCatalog)
	api.Get("/achievements", s.OptionalAuth(), s.GetAchievements)

	goals := api.Group("/goals")
	goals.Get("/:code/comments", s.OptionalAuth(), s.GetGoalComments)
	goals.Get("/:code", s.OptionalAuth(), s.GetGoal)

	lists := api.Group("/goal-lists")
	lists.Get("/popular", s.GetPopularLists)
	lists.Get("/category/:categoryId", s.GetListsByCategory)
	lists.Get("/:code", s.OptionalAuth(), s.GetGoalList)

	// /users/me must be registered before the generic /users/:id route.
	me := api.Group("/users/me", s.AuthRequired())
	me.Get("/", s.GetMyProfile)
	me.Put("/", s.UpdateMyProfile)
	me.Post("/avatar", s.UploadAvatar)
	me.Delete("/avatar", s.DeleteAvatar)
	me.Post("/cover", s.UploadCover)
	me.Post("/password", s.ChangePassword)
	api.Get("/users/:id", s.GetUserProfile)

	api.Post("/ws/ticket", s.AuthRequired(), s.IssueWSTicket)
	api.Get("/ws/notifications", s.TicketRequired(), s.NotificationsSocket())

	protected := api.Group("", s.AuthRequired())

	protected.Post("/goals/:code/add", s.AddGoal)
	protected.Post("/goals/:code/remove", s.RemoveGoal)
	protected.Post("/goals/:code/mark", s.MarkGoal)
	protected.Post("/goals/:code/comments",
		middleware.RateLimit(s.redis, 5, time.Minute, "create_comment"), s.CreateGoalComment)

	protected.Post("/goal-lists/:code/add", s.AddGoalList)
	protected.Post("/goal-lists/:code/remove", s.RemoveGoalList)
	protected.Post("/goal-lists/:code/mark-all", s.MarkAllInList)

	protected.Delete("/comments/:id", s.DeleteComment)
	protected.Post("/comments/:id/reaction", s.ReactToComment)

	self := protected.Group("/self")
	self.Get("/added-goals", s.GetAddedGoals)
	self.Get("/added-lists", s.GetAddedLists)

	admin := protected.Group("/admin", s.AdminRequired())
	admin.Post("/categories", s.CreateCategory)
	admin.Post("/goals", s.CreateGoal)
	admin.Post("/goal-lists", s.CreateGoalList)
	admin.Post("/achievements/:id/grant/:userId", s.GrantAchievement)
}

// LivenessCheck handles liveness checks
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness checks
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis only backs caching and notifications, so its absence degrades
	// but does not fail readiness.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// authenticate resolves the bearer token of c. Revoked tokens are rejected
// when Redis is available.
func (s *Server) authenticate(c *fiber.Ctx) (middleware.TokenClaims, *models.AppError) {
	tokenString, err := middleware.BearerToken(c)
	if err != nil {
		return middleware.TokenClaims{}, models.NewUnauthorizedError("Authorization required")
	}
	claims, err := middleware.ParseToken(s.config.JWTSecret, tokenString)
	if err != nil {
		return middleware.TokenClaims{}, models.NewUnauthorizedError("Invalid or expired token")
	}
	if claims.ID != "" && s.redis != nil {
		revoked, err := s.redis.Exists(c.UserContext(), blacklistKey(claims.ID)).Result()
		if err == nil && revoked > 0 {
			return middleware.TokenClaims{}, models.NewUnauthorizedError("Token has been revoked")
		}
	}
	return claims, nil
}

func setCaller(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	c.SetUserContext(middleware.WithUserID(c.UserContext(), userID))
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, appErr := s.authenticate(c)
		if appErr != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, appErr)
		}
		setCaller(c, claims.UserID)
		c.Locals("claims", claims)
		return c.Next()
	}
}

// OptionalAuth resolves the caller when a valid token is present and lets
// anonymous requests through otherwise.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if claims, appErr := s.authenticate(c); appErr == nil {
			setCaller(c, claims.UserID)
		}
		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := currentUserID(c)

		admin, err := s.isAdminByUserID(c.UserContext(), userID)
		if err != nil {
			return models.Respond(c, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// App builds the Fiber app with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:   "Bucket List API",
		BodyLimit: (service.MaxCommentPhotos + 1) * s.config.UploadMaxSizeMB << 20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message, Code: models.CodeValidation})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start blocks serving on the configured port.
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Shutdown()
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}

func blacklistKey(jti string) string {
	return fmt.Sprintf("blacklist:%s", jti)
}
