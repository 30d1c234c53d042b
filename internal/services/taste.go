package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/skinut3232/MovieBrain/internal/config"
	"github.com/skinut3232/MovieBrain/pkg/models"
)

var ErrInsufficientRatings = errors.New("not enough rated movies to build a taste vector")

// TasteService derives a per-profile taste vector from rated watch history.
// Each rated title contributes its catalog embedding weighted by the rating
// with a recency boost; the weighted mean is L2-normalized and upserted under
// (profile_id, model_id).
type TasteService struct {
	db      DatabaseQuerier
	config  *config.Config
	logger  *logrus.Logger
	metrics *Metrics
}

func NewTasteService(db DatabaseQuerier, cfg *config.Config, logger *logrus.Logger, metrics *Metrics) *TasteService {
	return &TasteService{
		db:      db,
		config:  cfg,
		logger:  logger,
		metrics: metrics,
	}
}

// ratingWeight is the contribution of a single rated watch. Recent ratings
// count more: the boost decays linearly to zero over the recency window.
func (s *TasteService) ratingWeight(rating int, ratedAt, now time.Time) float64 {
	days := now.Sub(ratedAt).Hours() / 24
	window := float64(s.config.Recommend.RecencyWindowDays)

	recencyFactor := 1 - days/window
	if recencyFactor < 0 {
		recencyFactor = 0
	}

	return float64(rating) * (1 + s.config.Recommend.RecencyBoost*recencyFactor)
}

type ratedEmbedding struct {
	rating    int
	updatedAt time.Time
	embedding models.Vector
}

func (s *TasteService) loadRatedEmbeddings(ctx context.Context, profileID int64) ([]ratedEmbedding, error) {
	rows, err := s.db.Query(ctx, `
		SELECT w.rating_1_10, w.updated_at, me.embedding::text
		FROM watches w
		JOIN movie_embeddings me ON me.title_id = w.title_id AND me.model_id = $2
		WHERE w.profile_id = $1 AND w.rating_1_10 IS NOT NULL`,
		profileID, s.config.OpenAI.EmbeddingModel,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load rated embeddings: %w", err)
	}
	defer rows.Close()

	var rated []ratedEmbedding
	for rows.Next() {
		var r ratedEmbedding
		var embText string
		if err := rows.Scan(&r.rating, &r.updatedAt, &embText); err != nil {
			return nil, fmt.Errorf("failed to scan rated embedding: %w", err)
		}
		if r.embedding, err = models.ParseVector(embText); err != nil {
			// a corrupt stored vector loses one data point, not the profile
			s.logger.WithError(err).WithField("profile_id", profileID).Warn("Skipping unparseable embedding")
			continue
		}
		rated = append(rated, r)
	}
	return rated, rows.Err()
}

// Compute rebuilds and persists the taste vector from scratch. It returns
// ErrInsufficientRatings when the profile has fewer rated movies than the
// configured minimum.
func (s *TasteService) Compute(ctx context.Context, profileID int64) (*models.ProfileTaste, error) {
	rated, err := s.loadRatedEmbeddings(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if len(rated) == 0 || len(rated) < s.config.Recommend.MinRatedMovies {
		return nil, ErrInsufficientRatings
	}

	// drop dimension-mismatched rows before the threshold check so the
	// persisted count reflects only contributing triples
	dims := len(rated[0].embedding)
	usable := rated[:0]
	for _, r := range rated {
		if len(r.embedding) != dims {
			s.logger.WithField("profile_id", profileID).Warn("Skipping embedding with mismatched dimensions")
			continue
		}
		usable = append(usable, r)
	}
	if len(usable) == 0 || len(usable) < s.config.Recommend.MinRatedMovies {
		return nil, ErrInsufficientRatings
	}

	sum := make([]float64, dims)
	scratch := make([]float64, dims)
	totalWeight := 0.0
	now := time.Now()

	for _, r := range usable {
		w := s.ratingWeight(r.rating, r.updatedAt, now)
		copy(scratch, r.embedding)
		floats.Scale(w, scratch)
		floats.Add(sum, scratch)
		totalWeight += w
	}

	if totalWeight > 0 {
		floats.Scale(1/totalWeight, sum)
	}
	if norm := floats.Norm(sum, 2); norm > 0 {
		floats.Scale(1/norm, sum)
	}

	taste := &models.ProfileTaste{
		ProfileID:      profileID,
		ModelID:        s.config.OpenAI.EmbeddingModel,
		TasteVector:    models.Vector(sum),
		NumRatedMovies: len(usable),
	}

	err = s.db.QueryRow(ctx, `
		INSERT INTO profile_taste (profile_id, model_id, taste_vector, num_rated_movies, updated_at)
		VALUES ($1, $2, $3::vector, $4, now())
		ON CONFLICT (profile_id, model_id) DO UPDATE SET
			taste_vector = EXCLUDED.taste_vector,
			num_rated_movies = EXCLUDED.num_rated_movies,
			updated_at = EXCLUDED.updated_at
		RETURNING updated_at`,
		profileID, taste.ModelID, taste.TasteVector.String(), taste.NumRatedMovies,
	).Scan(&taste.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert taste vector: %w", err)
	}

	if s.metrics != nil {
		s.metrics.TasteRecomputes.Inc()
	}
	s.logger.WithFields(logrus.Fields{
		"profile_id":  profileID,
		"rated_count": taste.NumRatedMovies,
	}).Debug("Recomputed taste vector")

	return taste, nil
}

func (s *TasteService) load(ctx context.Context, profileID int64) (*models.ProfileTaste, error) {
	taste := &models.ProfileTaste{ProfileID: profileID}
	var vecText string
	err := s.db.QueryRow(ctx, `
		SELECT model_id, taste_vector::text, num_rated_movies, updated_at
		FROM profile_taste
		WHERE profile_id = $1 AND model_id = $2`,
		profileID, s.config.OpenAI.EmbeddingModel,
	).Scan(&taste.ModelID, &vecText, &taste.NumRatedMovies, &taste.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if taste.TasteVector, err = models.ParseVector(vecText); err != nil {
		return nil, err
	}
	return taste, nil
}

// EnsureFresh returns the stored taste vector, recomputing it first when any
// watch changed after the last computation. A profile below the rating
// minimum yields ErrInsufficientRatings.
func (s *TasteService) EnsureFresh(ctx context.Context, profileID int64) (*models.ProfileTaste, error) {
	taste, err := s.load(ctx, profileID)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.Compute(ctx, profileID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load taste vector: %w", err)
	}

	var stale bool
	err = s.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(updated_at) > $2, false)
		FROM watches
		WHERE profile_id = $1 AND rating_1_10 IS NOT NULL`,
		profileID, taste.UpdatedAt,
	).Scan(&stale)
	if err != nil {
		return nil, fmt.Errorf("failed to check taste staleness: %w", err)
	}

	if !stale {
		return taste, nil
	}

	fresh, err := s.Compute(ctx, profileID)
	if errors.Is(err, ErrInsufficientRatings) {
		// Ratings dropped below the minimum since the last compute; the
		// stored vector no longer reflects reality.
		return nil, err
	}
	return fresh, err
}

func (s *TasteService) Status(ctx context.Context, profileID int64) (*models.TasteStatus, error) {
	status := &models.TasteStatus{MinRequired: s.config.Recommend.MinRatedMovies}

	// count only watches that can contribute to the vector: rated AND
	// embedded under the active model
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM watches w
		JOIN movie_embeddings me ON me.title_id = w.title_id AND me.model_id = $2
		WHERE w.profile_id = $1 AND w.rating_1_10 IS NOT NULL`,
		profileID, s.config.OpenAI.EmbeddingModel,
	).Scan(&status.NumRatedMovies)
	if err != nil {
		return nil, fmt.Errorf("failed to count rated watches: %w", err)
	}

	taste, err := s.load(ctx, profileID)
	if errors.Is(err, pgx.ErrNoRows) {
		return status, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load taste vector: %w", err)
	}

	status.HasTasteVector = true
	status.UpdatedAt = &taste.UpdatedAt
	return status, nil
}

// Recompute forces a rebuild and reports the resulting status.
func (s *TasteService) Recompute(ctx context.Context, profileID int64) (*models.TasteStatus, error) {
	taste, err := s.Compute(ctx, profileID)
	if errors.Is(err, ErrInsufficientRatings) {
		return s.Status(ctx, profileID)
	}
	if err != nil {
		return nil, err
	}
	return &models.TasteStatus{
		HasTasteVector: true,
		NumRatedMovies: taste.NumRatedMovies,
		MinRequired:    s.config.Recommend.MinRatedMovies,
		UpdatedAt:      &taste.UpdatedAt,
	}, nil
}
