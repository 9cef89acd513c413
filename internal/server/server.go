// Package server contains the HTML and JSON handlers of the Warbler web application.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "warbler/docs" // swagger docs
	"warbler/internal/cache"
	"warbler/internal/config"
	"warbler/internal/database"
	"warbler/internal/middleware"
	"warbler/internal/notifications"
	"warbler/internal/repository"
	"warbler/internal/service"
	"warbler/internal/session"
	"warbler/internal/views"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/swagger"
	"github.com/gofiber/template/html/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const sessionCookie = "warbler_session"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	views          *html.Engine
	sessions       *fibersession.Store
	identity       *session.Manager
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo    repository.UserRepository
	messageRepo repository.MessageRepository
	followRepo  repository.FollowRepository
	likeRepo    repository.LikeRepository

	hub      *notifications.Hub
	notifier *notifications.Notifier

	credentials    *service.CredentialService
	userService    *service.UserService
	followService  *service.FollowService
	messageService *service.MessageService
	likeService    *service.LikeService
}

// NewServer connects to the database and Redis described by cfg and
// builds a Server on top of them.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// A nil client means Redis is unavailable; the app degrades to
	// in-memory sessions and in-process feed delivery.
	redisClient := cache.InitRedis(cfg.RedisURL)

	return newServer(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use it with an in-memory sqlite database and miniredis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	cache.SetClient(redisClient)
	return newServer(cfg, db, redisClient)
}

func newServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	engine := views.New()
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	tx := repository.NewTransactor(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		views:          engine,
		promMiddleware: middleware.InitMetrics("warbler"),
		userRepo:       repository.NewUserRepository(db),
		messageRepo:    repository.NewMessageRepository(db),
		followRepo:     repository.NewFollowRepository(db),
		likeRepo:       repository.NewLikeRepository(db),
		hub:            notifications.NewHub(),
	}
	s.notifier = notifications.NewNotifier(redisClient, s.hub)
	s.identity = session.NewManager(s.userRepo)

	s.credentials = service.NewCredentialService(s.userRepo, tx, cfg.DefaultImageURL)
	s.userService = service.NewUserService(s.userRepo, s.messageRepo, s.followRepo, s.likeRepo, tx, s.credentials)
	s.userService.SetDefaultImages(cfg.DefaultImageURL, cfg.DefaultHeaderImageURL)
	s.followService = service.NewFollowService(s.followRepo, s.userRepo, tx)
	s.messageService = service.NewMessageService(s.messageRepo, s.followRepo, tx, s.notifier)
	s.likeService = service.NewLikeService(s.likeRepo, s.messageRepo, tx)

	storeCfg := fibersession.Config{
		Expiration:     cfg.SessionTTL(),
		KeyLookup:      "cookie:" + sessionCookie,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   cfg.IsProduction(),
	}
	if redisClient != nil {
		storeCfg.Storage = cache.NewSessionStorage(redisClient)
	}
	s.sessions = fibersession.New(storeCfg)

	return s, nil
}

// App builds the fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:      "Warbler",
		Views:        s.views,
		ViewsLayout:  views.Layout,
		ErrorHandler: s.handleError,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
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

	app.Use(helmet.New(helmet.Config{
		// Stylesheets are served from a CDN.
		CrossOriginEmbedderPolicy: "unsafe-none",
	}))

	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" || origins == "*" {
		origins = "http://localhost:" + s.config.Port
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests, please try again later.")
		},
	}))
}

// SetupRoutes configures all routes for the application. Probes, metrics and
// static assets are registered before the session middleware so they never
// touch the session store.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Use("/static", filesystem.New(filesystem.Config{
		Root:   http.FS(views.Static()),
		MaxAge: 3600,
	}))

	s.setupAPIRoutes(app)

	// Everything below resolves the browser session identity.
	app.Use(s.Identity())

	app.Get("/", s.Home)

	app.Get("/signup", s.SignupForm)
	app.Post("/signup", middleware.RateLimit(s.redis, 5, 10*time.Minute, "signup"), s.Signup)
	app.Get("/login", s.LoginForm)
	app.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	app.Get("/logout", s.Logout)

	users := app.Group("/users", s.LoginRequired())
	users.Get("/", s.ListUsers)
	// Static segments before the generic /:id routes.
	users.Get("/profile", s.EditProfileForm)
	users.Post("/profile", s.UpdateProfile)
	users.Post("/delete", s.DeleteAccount)
	users.Post("/follow/:id<int>", s.Follow)
	users.Post("/stop-following/:id<int>", s.StopFollowing)
	users.Post("/add_like/:id<int>", s.ToggleLike)
	users.Get("/:id<int>/following", s.ShowFollowing)
	users.Get("/:id<int>/followers", s.ShowFollowers)
	users.Get("/:id<int>/likes", s.ShowLikes)
	users.Get("/:id<int>", s.ShowUser)

	messages := app.Group("/messages")
	messages.Get("/new", s.LoginRequired(), s.NewMessageForm)
	messages.Post("/new", s.LoginRequired(),
		middleware.RateLimit(s.redis, 30, time.Minute, "create_message"), s.CreateMessage)
	messages.Post("/:id<int>/delete", s.LoginRequired(), s.DeleteMessage)
	messages.Get("/:id<int>", s.ShowMessage)

	ws := app.Group("/ws", s.LoginRequired())
	ws.Get("/feed", s.FeedUpgrade(), s.FeedHandler())
}

func (s *Server) setupAPIRoutes(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Warbler Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	api.Post("/token", middleware.RateLimit(s.redis, 10, 5*time.Minute, "token"), s.IssueAPIToken)

	// Bearer auth is attached per route so unknown /api paths still 404.
	auth := s.APIAuthRequired()
	api.Post("/token/revoke", auth, s.RevokeAPIToken)
	api.Get("/me", auth, s.APIMe)
	api.Get("/timeline", auth, s.APITimeline)
	api.Get("/users/:id<int>/messages", auth, s.APIUserMessages)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional, so
// only a configured-but-failing Redis makes the service unready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
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

// handleError renders the 404 and error pages, or a JSON error for /api.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := mapServiceError(err)
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}

	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("path", c.Path()), slog.String("error", err.Error()))
	}

	if isAPIRequest(c) {
		if fe != nil {
			return c.Status(status).JSON(fiber.Map{"error": fe.Message})
		}
		return respondAPIError(c, err)
	}

	if status == fiber.StatusNotFound {
		c.Status(status)
		return s.render(c, "not_found", fiber.Map{})
	}

	message := "Something went wrong."
	if fe != nil && status < fiber.StatusInternalServerError {
		message = fe.Message
	}
	c.Status(status)
	if rerr := s.render(c, "error", fiber.Map{"Status": status, "Message": message}); rerr != nil {
		return c.Status(status).SendString(message)
	}
	return nil
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	if s.redis != nil {
		go func() {
			if err := s.notifier.Start(s.shutdownCtx); err != nil {
				middleware.Logger.Error("feed subscriber stopped", slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down feed hub", slog.String("error", err.Error()))
	}

	if err := database.Close(s.db); err != nil {
		middleware.Logger.Error("error closing database", slog.String("error", err.Error()))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
