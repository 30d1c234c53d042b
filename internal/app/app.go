package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/skinut3232/MovieBrain/internal/config"
	"github.com/skinut3232/MovieBrain/internal/database"
	"github.com/skinut3232/MovieBrain/internal/handlers"
	"github.com/skinut3232/MovieBrain/internal/messaging"
	"github.com/skinut3232/MovieBrain/internal/middleware"
	"github.com/skinut3232/MovieBrain/internal/services"
)

// App owns the process-level resources and the HTTP server.
type App struct {
	config   *config.Config
	logger   *logrus.Logger
	db       *database.Database
	bus      *messaging.MessageBus
	services *services.Services
	server   *http.Server
}

func New(cfg *config.Config) (*App, error) {
	logger := newLogger(cfg)

	db, err := database.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	bus, err := messaging.NewMessageBus(cfg, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize message bus: %w", err)
	}

	svcs := services.New(cfg, logger, db, bus)

	a := &App{
		config:   cfg,
		logger:   logger,
		db:       db,
		bus:      bus,
		services: svcs,
	}
	a.server = &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      a.router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return a, nil
}

func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

func (a *App) router() *gin.Engine {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.Logger(a.logger),
		middleware.Recovery(a.logger),
		middleware.CORS(a.config),
		middleware.RequestID(),
	)

	h := handlers.New(a.services, a.config, a.logger)

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
		}

		protected := v1.Group("")
		protected.Use(
			middleware.Auth(a.services.Auth, a.logger),
			middleware.RateLimit(a.services.RateLimit, a.logger),
		)
		{
			protected.POST("/auth/logout", h.Logout)

			profiles := protected.Group("/profiles")
			{
				profiles.POST("", h.CreateProfile)
				profiles.GET("", h.ListProfiles)
				profiles.GET("/:profileId", h.GetProfile)
				profiles.DELETE("/:profileId", h.DeleteProfile)

				profiles.POST("/:profileId/watches", h.LogWatch)
				profiles.GET("/:profileId/watches", h.ListWatches)
				profiles.DELETE("/:profileId/watches/:titleId", h.DeleteWatch)

				profiles.PUT("/:profileId/flags/:titleId", h.FlagTitle)
				profiles.DELETE("/:profileId/flags/:titleId", h.UnflagTitle)
				profiles.GET("/:profileId/flags", h.ListFlags)

				profiles.POST("/:profileId/recommendations", h.Recommendations)
				profiles.GET("/:profileId/taste", h.TasteStatus)
				profiles.POST("/:profileId/taste/recompute", h.RecomputeTaste)
			}

			catalog := protected.Group("/catalog")
			{
				catalog.GET("/search", h.SearchTitles)
				catalog.GET("/browse", h.BrowseTitles)
				catalog.GET("/featured", h.FeaturedTitles)
				catalog.GET("/random", h.RandomTitle)
				catalog.GET("/titles/:titleId", h.GetTitle)
				catalog.GET("/titles/:titleId/similar", h.SimilarTitles)
			}
		}
	}

	return router
}

func (a *App) Run() error {
	a.logger.WithField("port", a.config.Server.Port).Info("Starting HTTP server")
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down")

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown failed")
	}
	if err := a.bus.Close(); err != nil {
		a.logger.WithError(err).Error("Message bus close failed")
	}
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Database close failed")
	}

	a.logger.Info("Shutdown complete")
	return nil
}
