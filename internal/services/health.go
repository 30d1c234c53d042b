package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/skinut3232/MovieBrain/internal/database"
)

type HealthService struct {
	db     *database.Database
	logger *logrus.Logger
}

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

func NewHealthService(db *database.Database, logger *logrus.Logger) *HealthService {
	return &HealthService{db: db, logger: logger}
}

func (s *HealthService) Check(ctx context.Context) *HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := &HealthStatus{
		Status:     "healthy",
		Timestamp:  time.Now(),
		Components: map[string]string{},
	}

	if err := s.db.PG.Ping(ctx); err != nil {
		s.logger.WithError(err).Error("PostgreSQL health check failed")
		status.Components["postgres"] = "unhealthy"
		status.Status = "unhealthy"
	} else {
		status.Components["postgres"] = "healthy"
	}

	if err := s.db.Redis.Hot.Ping(ctx).Err(); err != nil {
		s.logger.WithError(err).Error("Redis hot health check failed")
		status.Components["redis_hot"] = "unhealthy"
		status.Status = "degraded"
	} else {
		status.Components["redis_hot"] = "healthy"
	}

	if err := s.db.Redis.Warm.Ping(ctx).Err(); err != nil {
		s.logger.WithError(err).Error("Redis warm health check failed")
		status.Components["redis_warm"] = "unhealthy"
		if status.Status == "healthy" {
			status.Status = "degraded"
		}
	} else {
		status.Components["redis_warm"] = "healthy"
	}

	return status
}
