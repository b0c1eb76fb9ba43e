// Package server contains the HTTP handlers for the board API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/kangback324/board/docs" // swagger docs
	"github.com/kangback324/board/internal/config"
	"github.com/kangback324/board/internal/database"
	"github.com/kangback324/board/internal/middleware"
	"github.com/kangback324/board/internal/models"
	"github.com/kangback324/board/internal/observability"
	"github.com/kangback324/board/internal/password"
	"github.com/kangback324/board/internal/repository"
	"github.com/kangback324/board/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Version is reported by the readiness probe and in traces.
const Version = "1.0.0"

// Server holds all dependencies and provides handlers
type Server struct {
	config          *config.Config
	db              *gorm.DB
	app             *fiber.App
	promMiddleware  *fiberprometheus.FiberPrometheus
	tracingShutdown func(context.Context) error
	postRepo        repository.PostRepository
	postService     *service.PostService
}

// NewServer creates a new server instance with all dependencies. It applies
// pending migrations when DB_AUTO_MIGRATE is set, opens the pool and
// initializes tracing.
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg.DBAutoMigrate {
		if err := database.RunMigrations(cfg); err != nil {
			return nil, fmt.Errorf("database migration failed: %w", err)
		}
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	tracingShutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    observability.ServiceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("tracing initialization failed: %w", err)
	}

	server, err := NewServerWithDeps(cfg, db)
	if err != nil {
		return nil, err
	}
	server.tracingShutdown = tracingShutdown
	return server, nil
}

// NewServerWithDeps creates a Server using an already-opened pool.
// Use this in tests or when a bootstrap layer manages the database.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB) (*Server, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}

	postRepo := repository.NewPostRepository(db)

	return &Server{
		config:         cfg,
		db:             db,
		promMiddleware: middleware.InitMetrics(observability.ServiceName),
		postRepo:       postRepo,
		postService:    service.NewPostService(postRepo, password.NewBcrypt(cfg.BcryptCost)),
	}, nil
}

// App builds a Fiber app with the full middleware chain and routes.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Board API",
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// errorHandler turns errors that escape handlers, including recovered
// panics and unmatched routes, into the standard error body.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		code := ""
		if fe.Code == fiber.StatusNotFound {
			code = models.CodeNotFound
		}
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message, Code: code})
	}

	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())

	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))

	// Tracing runs before ContextMiddleware so the trace ID reaches the logger.
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/api-docs/", fiber.StatusFound)
	})
	app.Get("/api-docs/*", swagger.HandlerDefault)

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	board := app.Group("/board")
	board.Get("/view/:post_id", s.ViewPosts)
	board.Post("/create", s.CreatePost)
	board.Put("/edit/:post_id", s.EditPost)
	board.Delete("/delete/:post_id", s.DeletePost)
}

// LivenessCheck handles GET /health/live
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles GET /health/ready
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
		middleware.Logger.WarnContext(ctx, "readiness check failed", slog.String("error", err.Error()))
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"version": Version,
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.App()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests, flushes traces and closes the pool.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutting down HTTP server: %w", err))
		}
	}

	if s.tracingShutdown != nil {
		if err := s.tracingShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutting down tracer: %w", err))
		}
	}

	if err := database.Close(s.db); err != nil {
		errs = append(errs, fmt.Errorf("closing database: %w", err))
	}

	middleware.Logger.Info("Server shutdown complete")
	return errors.Join(errs...)
}
