package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/skinut3232/MovieBrain/internal/config"
	"github.com/skinut3232/MovieBrain/internal/database"
	"github.com/skinut3232/MovieBrain/internal/messaging"
	"github.com/skinut3232/MovieBrain/internal/ml"
)

// Services bundles every service the handlers depend on.
type Services struct {
	Auth      *AuthService
	RateLimit *RateLimitService
	Health    *HealthService
	Profile   *ProfileService
	Catalog   *CatalogService
	Watch     *WatchService
	Flag      *FlagService
	Taste     TasteEngine
	Mood      *MoodService
	Recommend Recommender
	Metrics   *Metrics
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database, bus *messaging.MessageBus) *Services {
	metrics := NewMetrics(prometheus.DefaultRegisterer)

	chat := ml.NewChatClient(&cfg.OpenAI, logger)
	embedder := ml.NewTextEmbedder(&cfg.OpenAI, logger)

	catalog := NewCatalogService(db.PG, db.Redis.Warm, cfg, logger)
	taste := NewTasteService(db.PG, cfg, logger, metrics)
	mood := NewMoodService(chat, embedder, catalog, cfg, logger, metrics)

	return &Services{
		Auth:      NewAuthService(cfg, logger, db.PG, db.Redis.Hot),
		RateLimit: NewRateLimitService(cfg, logger, db.Redis.Hot),
		Health:    NewHealthService(db, logger),
		Profile:   NewProfileService(db.PG, logger),
		Catalog:   catalog,
		Watch:     NewWatchService(db.PG, bus, cfg, logger),
		Flag:      NewFlagService(db.PG, logger),
		Taste:     taste,
		Mood:      mood,
		Recommend: NewRecommendService(db.PG, taste, mood, cfg, logger, metrics),
		Metrics:   metrics,
	}
}
