package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/skinut3232/MovieBrain/internal/config"
	"github.com/skinut3232/MovieBrain/internal/messaging"
	"github.com/skinut3232/MovieBrain/pkg/models"
)

type WatchService struct {
	db     DatabaseQuerier
	bus    *messaging.MessageBus
	config *config.Config
	logger *logrus.Logger
}

func NewWatchService(db DatabaseQuerier, bus *messaging.MessageBus, cfg *config.Config, logger *logrus.Logger) *WatchService {
	return &WatchService{
		db:     db,
		bus:    bus,
		config: cfg,
		logger: logger,
	}
}

// LogWatch records or updates a watch entry. Re-logging the same title
// replaces the rating and watched date. The event publish is best effort; a
// broker outage never fails the write.
func (s *WatchService) LogWatch(ctx context.Context, profileID int64, req *models.LogWatchRequest) (*models.Watch, error) {
	w := &models.Watch{
		ProfileID:   profileID,
		TitleID:     req.TitleID,
		Rating:      req.Rating,
		WatchedDate: req.WatchedDate,
	}

	var inserted bool
	err := s.db.QueryRow(ctx, `
		INSERT INTO watches (profile_id, title_id, rating_1_10, watched_date, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (profile_id, title_id) DO UPDATE SET
			rating_1_10 = EXCLUDED.rating_1_10,
			watched_date = EXCLUDED.watched_date,
			updated_at = now()
		RETURNING updated_at, (xmax = 0)`,
		profileID, req.TitleID, req.Rating, req.WatchedDate,
	).Scan(&w.UpdatedAt, &inserted)
	if err != nil {
		return nil, fmt.Errorf("failed to log watch: %w", err)
	}

	action := "updated"
	if inserted {
		action = "logged"
	}
	s.publishEvent(w, action)

	return w, nil
}

func (s *WatchService) publishEvent(w *models.Watch, action string) {
	if s.bus == nil {
		return
	}
	event := models.WatchEvent{
		EventID:   uuid.New(),
		ProfileID: w.ProfileID,
		TitleID:   w.TitleID,
		Rating:    w.Rating,
		Action:    action,
		Timestamp: time.Now(),
	}
	if err := s.bus.PublishWatchEvent(event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"profile_id": w.ProfileID,
			"title_id":   w.TitleID,
		}).Warn("Failed to publish watch event")
	}
}

// List returns a profile's watch history, newest first, joined with catalog
// metadata.
func (s *WatchService) List(ctx context.Context, profileID int64, page, limit int) (*models.WatchListResponse, error) {
	if limit <= 0 {
		limit = s.config.Recommend.DefaultLimit
	}
	if limit > s.config.Recommend.MaxLimit {
		limit = s.config.Recommend.MaxLimit
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	var total int
	if err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM watches WHERE profile_id = $1`, profileID,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count watches: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT w.profile_id, w.title_id, w.rating_1_10, w.watched_date, w.updated_at,
			ct.id, ct.imdb_tconst, ct.primary_title, ct.start_year, ct.runtime_minutes,
			ct.genres, cr.average_rating, cr.num_votes, cr.rt_critic_score, ct.poster_path
		FROM watches w
		JOIN catalog_titles ct ON ct.id = w.title_id
		LEFT JOIN catalog_ratings cr ON cr.title_id = ct.id
		WHERE w.profile_id = $1
		ORDER BY w.updated_at DESC, w.title_id DESC
		LIMIT $2 OFFSET $3`,
		profileID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list watches: %w", err)
	}
	defer rows.Close()

	var watches []models.Watch
	for rows.Next() {
		var w models.Watch
		var t models.CatalogTitle
		if err := rows.Scan(&w.ProfileID, &w.TitleID, &w.Rating, &w.WatchedDate, &w.UpdatedAt,
			&t.ID, &t.ImdbTconst, &t.PrimaryTitle, &t.StartYear, &t.RuntimeMinutes,
			&t.Genres, &t.AverageRating, &t.NumVotes, &t.RTCriticScore, &t.PosterPath); err != nil {
			return nil, fmt.Errorf("failed to scan watch: %w", err)
		}
		w.Title = &t
		watches = append(watches, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &models.WatchListResponse{
		Watches: watches,
		Total:   total,
		Page:    page,
		Limit:   limit,
	}, nil
}

func (s *WatchService) Delete(ctx context.Context, profileID, titleID int64) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM watches WHERE profile_id = $1 AND title_id = $2`,
		profileID, titleID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete watch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTitleNotFound
	}

	s.publishEvent(&models.Watch{ProfileID: profileID, TitleID: titleID}, "deleted")
	return nil
}
