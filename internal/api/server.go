package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/dhima/notification-scheduler/internal/api/handlers"
	"github.com/dhima/notification-scheduler/internal/api/middleware"
	"github.com/dhima/notification-scheduler/internal/logging"
	"github.com/dhima/notification-scheduler/internal/scheduler"
	"github.com/dhima/notification-scheduler/internal/storage"
	"github.com/dhima/notification-scheduler/pkg/clock"
	"github.com/dhima/notification-scheduler/pkg/config"
	"github.com/dhima/notification-scheduler/platform/events"
	"github.com/dhima/notification-scheduler/platform/timer"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// presenter is a scheduler.Presenter that may hold resources.
type presenter interface {
	scheduler.Presenter
	Close() error
}

// Server orchestrates HTTP routing and dependencies for the scheduler service.
type Server struct {
	config config.App
	logger logging.Logger
	router *gin.Engine

	db        *storage.Client
	timers    *timer.Local
	presenter presenter
	engine    *scheduler.Engine
}

// NewServer loads configuration and wires the scheduler dependencies together.
func NewServer(ctx context.Context) (*Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLoggerWithEncoding(cfg.Environment, cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(ctx, cfg, logger)
}

// New builds a server from explicit configuration.
func New(ctx context.Context, cfg config.App, logger logging.Logger) (*Server, error) {
	// Set Gin mode based on environment
	switch cfg.Environment {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	db, err := storage.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	timers := timer.NewLocal(timer.Config{
		PreciseAllowed:    cfg.TimerPreciseAllowed,
		ApproximateWindow: cfg.TimerApproximateWindow,
		MaxArmed:          cfg.TimerMaxArmed,
		Location:          loc,
	}, logger)

	p := newPresenter(cfg, logger)
	engine := scheduler.NewEngine(db, timers, p, db, logger).WithLocation(loc)
	timers.Bind(engine.OnFire)

	server := &Server{
		config:    cfg,
		logger:    logger,
		db:        db,
		timers:    timers,
		presenter: p,
		engine:    engine,
	}

	server.setupRouter(loc)
	return server, nil
}

func newPresenter(cfg config.App, logger logging.Logger) presenter {
	if cfg.Presenter == "log" {
		return events.NewLogPresenter(logger)
	}
	return events.NewPublisher(cfg.Brokers(), cfg.KafkaTopic, cfg.PresentRatePerSec, logger)
}

// setupRouter configures the Gin router with middleware and routes.
func (s *Server) setupRouter(loc *time.Location) {
	router := gin.New()

	zapLogger := s.logger.Unwrap()

	// Global middleware (order matters!)
	// 1. Recovery - must be first to catch panics from other middleware
	router.Use(ginzap.RecoveryWithZap(zapLogger, true))

	// 2. Request ID - inject unique ID for tracing
	router.Use(middleware.RequestID())

	// 3. Logging - log all requests with structured fields
	router.Use(ginzap.Ginzap(zapLogger, time.RFC3339, true))

	// 4. CORS - handle cross-origin requests
	router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: !allowsAnyOrigin(s.config.CORSOrigins),
		MaxAge:           12 * time.Hour,
	}))

	// Health and metrics endpoints (no /api/v1 prefix)
	router.GET("/health", handlers.NewHealthHandler(s.logger, s.db).Health)
	router.GET("/metrics", handlers.NewMetricsHandler(s.logger, s.engine, s.timers).Metrics)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		scheduleHandler := handlers.NewScheduleHandler(s.logger, s.engine, s.db)
		schedules := v1.Group("/schedules")
		{
			schedules.POST("", scheduleHandler.RegisterSchedule)
			schedules.GET("", scheduleHandler.ListSchedules)
			schedules.GET("/:id", scheduleHandler.GetSchedule)
			schedules.DELETE("/:id", scheduleHandler.CancelSchedule)
			schedules.GET("/:id/deliveries", scheduleHandler.ListDeliveries)
		}

		patternHandler := handlers.NewPatternHandler(s.logger, clock.RealClock{}, loc)
		v1.POST("/patterns/next", patternHandler.NextTriggers)

		// Wake-ups from an external timer facility
		v1.POST("/wake", handlers.NewWakeHandler(s.logger, s.engine).Wake)
	}

	s.router = router
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start re-arms persisted schedules and begins dispatching timers.
func (s *Server) Start(ctx context.Context) {
	restored, err := s.engine.Restore(ctx)
	if err != nil {
		// Individual failures are logged by the engine; keep serving the rest.
		s.logger.Error("some schedules could not be restored", zap.Int("restored", restored), zap.Error(err))
	} else {
		s.logger.Info("schedules restored", zap.Int("restored", restored))
	}
	s.timers.Start()
}

// Close stops timers and releases the presenter and database.
func (s *Server) Close(ctx context.Context) error {
	s.timers.Stop(ctx)

	var errs []error
	if err := s.presenter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close presenter: %w", err))
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database connection: %w", err))
	}
	return errors.Join(errs...)
}

// Serve starts the HTTP server with graceful shutdown support.
func (s *Server) Serve() error {
	addr := ":" + s.config.APIPort
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.Start(context.Background())

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("starting scheduler API server",
			zap.String("address", addr),
			zap.String("environment", s.config.Environment),
			zap.String("log_level", s.config.LogLevel),
			zap.String("presenter", s.config.Presenter),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		s.logger.Warn("failed to notify systemd", zap.Error(err))
	} else if sent {
		s.logger.Debug("notified systemd of readiness")
	}

	select {
	case <-quit:
	case err := <-serveErr:
		s.logger.Error("server failed", zap.Error(err))
		_ = s.Close(context.Background())
		return err
	}

	s.logger.Info("shutting down server gracefully...")
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	// Graceful shutdown with 30 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	if err := s.Close(ctx); err != nil {
		s.logger.Error("failed to release resources", zap.Error(err))
	}

	// Flush logger before exit
	if err := s.logger.Sync(); err != nil {
		// Ignore sync errors on stdout/stderr
		if err.Error() != "sync /dev/stdout: invalid argument" &&
			err.Error() != "sync /dev/stderr: invalid argument" {
			return err
		}
	}

	s.logger.Info("server stopped")
	return nil
}
