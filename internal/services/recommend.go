package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/skinut3232/MovieBrain/internal/config"
	"github.com/skinut3232/MovieBrain/pkg/models"
)

const resultColumns = `
	ct.id, ct.imdb_tconst, ct.primary_title, ct.start_year, ct.runtime_minutes,
	ct.genres, cr.average_rating, cr.num_votes, cr.rt_critic_score, ct.poster_path`

// RecommendService is the ranked-recommendation engine. It serves three
// modes: mood (blended mood+taste vector), taste (pure taste vector), and a
// popularity fallback for profiles without enough ratings.
type RecommendService struct {
	db      DatabaseQuerier
	taste   TasteEngine
	mood    *MoodService
	config  *config.Config
	logger  *logrus.Logger
	metrics *Metrics
}

func NewRecommendService(db DatabaseQuerier, taste TasteEngine, mood *MoodService, cfg *config.Config, logger *logrus.Logger, metrics *Metrics) *RecommendService {
	return &RecommendService{
		db:      db,
		taste:   taste,
		mood:    mood,
		config:  cfg,
		logger:  logger,
		metrics: metrics,
	}
}

func (s *RecommendService) GetRecommendations(ctx context.Context, profileID int64, req *models.RecommendRequest) (*models.RecommendResponse, error) {
	if req.Limit <= 0 {
		req.Limit = s.config.Recommend.DefaultLimit
	}
	if req.Limit > s.config.Recommend.MaxLimit {
		req.Limit = s.config.Recommend.MaxLimit
	}
	if req.Page <= 0 {
		req.Page = 1
	}

	excluded, err := s.excludedTitles(ctx, profileID)
	if err != nil {
		return nil, err
	}

	taste, err := s.taste.EnsureFresh(ctx, profileID)
	if err != nil && !errors.Is(err, ErrInsufficientRatings) {
		return nil, err
	}

	if req.Mood != "" {
		return s.moodRecommendations(ctx, profileID, req, taste, excluded)
	}
	if taste == nil {
		return s.fallbackRecommendations(ctx, req, excluded)
	}
	return s.vectorRecommendations(ctx, req, taste.TasteVector, excluded, false)
}

func (s *RecommendService) excludedTitles(ctx context.Context, profileID int64) (map[int64]bool, error) {
	rows, err := s.db.Query(ctx, `
		SELECT title_id FROM watches WHERE profile_id = $1
		UNION
		SELECT title_id FROM movie_flags WHERE profile_id = $1`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load excluded titles: %w", err)
	}
	defer rows.Close()

	excluded := map[int64]bool{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan excluded title: %w", err)
		}
		excluded[id] = true
	}
	return excluded, rows.Err()
}

func filterClauses(req *models.RecommendRequest, excluded map[int64]bool) []filterClause {
	var clauses []filterClause
	if req.Genre != "" {
		clauses = append(clauses, filterClause{"ct.genres ILIKE %s", "%" + req.Genre + "%"})
	}
	if req.MinYear != nil {
		clauses = append(clauses, filterClause{"ct.start_year >= %s", *req.MinYear})
	}
	if req.MaxYear != nil {
		clauses = append(clauses, filterClause{"ct.start_year <= %s", *req.MaxYear})
	}
	if req.MinRuntime != nil {
		clauses = append(clauses, filterClause{"ct.runtime_minutes >= %s", *req.MinRuntime})
	}
	if req.MaxRuntime != nil {
		clauses = append(clauses, filterClause{"ct.runtime_minutes <= %s", *req.MaxRuntime})
	}
	if req.MinRating != nil {
		clauses = append(clauses, filterClause{"cr.average_rating >= %s", *req.MinRating})
	}
	if req.MinVotes != nil {
		clauses = append(clauses, filterClause{"cr.num_votes >= %s", *req.MinVotes})
	}
	if len(excluded) > 0 {
		ids := make([]int64, 0, len(excluded))
		for id := range excluded {
			ids = append(ids, id)
		}
		clauses = append(clauses, filterClause{"NOT (ct.id = ANY(%s))", ids})
	}
	return clauses
}

// vectorRecommendations ranks candidates by a blend of cosine similarity and
// critic/audience popularity, computed in SQL so pagination stays exact. Ties
// break on raw distance, then id, keeping pages disjoint.
func (s *RecommendService) vectorRecommendations(ctx context.Context, req *models.RecommendRequest, queryVec models.Vector, excluded map[int64]bool, moodMode bool) (*models.RecommendResponse, error) {
	clauses := filterClauses(req, excluded)

	countWhere, countArgs := buildWhere(clauses, 2)
	countSQL := `
		SELECT COUNT(*)
		FROM movie_embeddings me
		JOIN catalog_titles ct ON ct.id = me.title_id
		LEFT JOIN catalog_ratings cr ON cr.title_id = ct.id
		WHERE me.model_id = $1 AND ` + countWhere

	var total int
	allCountArgs := append([]interface{}{s.config.OpenAI.EmbeddingModel}, countArgs...)
	if err := s.db.QueryRow(ctx, countSQL, allCountArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("recommendation count failed: %w", err)
	}

	pageWhere, pageArgs := buildWhere(clauses, 4)
	allPageArgs := append([]interface{}{queryVec.String(), s.config.OpenAI.EmbeddingModel, s.config.Recommend.PopularityWeight}, pageArgs...)
	limitIdx := len(allPageArgs) + 1
	allPageArgs = append(allPageArgs, req.Limit, (req.Page-1)*req.Limit)

	pageSQL := fmt.Sprintf(`
		SELECT`+resultColumns+`,
			(1 - $3) * (1 - (me.embedding <=> $1::vector))
			+ $3 * COALESCE(cr.rt_critic_score / 100.0, cr.average_rating / 10.0, 0.5) AS score
		FROM movie_embeddings me
		JOIN catalog_titles ct ON ct.id = me.title_id
		LEFT JOIN catalog_ratings cr ON cr.title_id = ct.id
		WHERE me.model_id = $2 AND %s
		ORDER BY score DESC, me.embedding <=> $1::vector ASC, ct.id ASC
		LIMIT $%d OFFSET $%d`,
		pageWhere, limitIdx, limitIdx+1)

	rows, err := s.db.Query(ctx, pageSQL, allPageArgs...)
	if err != nil {
		return nil, fmt.Errorf("recommendation query failed: %w", err)
	}
	defer rows.Close()

	var results []models.RecommendationResult
	for rows.Next() {
		var r models.RecommendationResult
		var score float64
		if err := rows.Scan(&r.TitleID, &r.ImdbTconst, &r.PrimaryTitle, &r.StartYear, &r.RuntimeMinutes,
			&r.Genres, &r.AverageRating, &r.NumVotes, &r.RTCriticScore, &r.PosterPath, &score); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		rounded := math.Round(score*10000) / 10000
		r.SimilarityScore = &rounded
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	mode := "taste"
	if moodMode {
		mode = "mood"
	}
	if s.metrics != nil {
		s.metrics.RecommendationRequests.WithLabelValues(mode).Inc()
	}

	return &models.RecommendResponse{
		Results:  results,
		Total:    total,
		Page:     req.Page,
		Limit:    req.Limit,
		MoodMode: moodMode,
	}, nil
}

// fallbackRecommendations serves cold-start profiles on pure popularity,
// rating weighted by log vote count. Similarity scores are absent.
func (s *RecommendService) fallbackRecommendations(ctx context.Context, req *models.RecommendRequest, excluded map[int64]bool) (*models.RecommendResponse, error) {
	clauses := filterClauses(req, excluded)

	countWhere, countArgs := buildWhere(clauses, 1)
	countSQL := `
		SELECT COUNT(*)
		FROM catalog_titles ct
		JOIN catalog_ratings cr ON cr.title_id = ct.id
		WHERE ` + countWhere

	var total int
	if err := s.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("fallback count failed: %w", err)
	}

	pageWhere, pageArgs := buildWhere(clauses, 1)
	limitIdx := len(pageArgs) + 1
	pageArgs = append(pageArgs, req.Limit, (req.Page-1)*req.Limit)

	pageSQL := fmt.Sprintf(`
		SELECT`+resultColumns+`
		FROM catalog_titles ct
		JOIN catalog_ratings cr ON cr.title_id = ct.id
		WHERE %s
		ORDER BY cr.average_rating * LN(cr.num_votes + 1) DESC NULLS LAST, ct.id ASC
		LIMIT $%d OFFSET $%d`,
		pageWhere, limitIdx, limitIdx+1)

	rows, err := s.db.Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, fmt.Errorf("fallback query failed: %w", err)
	}
	defer rows.Close()

	var results []models.RecommendationResult
	for rows.Next() {
		var r models.RecommendationResult
		if err := rows.Scan(&r.TitleID, &r.ImdbTconst, &r.PrimaryTitle, &r.StartYear, &r.RuntimeMinutes,
			&r.Genres, &r.AverageRating, &r.NumVotes, &r.RTCriticScore, &r.PosterPath); err != nil {
			return nil, fmt.Errorf("failed to scan fallback result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecommendationRequests.WithLabelValues("fallback").Inc()
	}

	return &models.RecommendResponse{
		Results:      results,
		Total:        total,
		Page:         req.Page,
		Limit:        req.Limit,
		FallbackMode: true,
	}, nil
}

// tasteContext returns the profile's highest-rated recent titles, fed into
// the mood prompt so suggestions lean toward the viewer's taste.
func (s *RecommendService) tasteContext(ctx context.Context, profileID int64) []string {
	rows, err := s.db.Query(ctx, `
		SELECT ct.primary_title, ct.start_year, ct.genres, w.rating_1_10
		FROM watches w
		JOIN catalog_titles ct ON ct.id = w.title_id
		WHERE w.profile_id = $1 AND w.rating_1_10 IS NOT NULL
		ORDER BY w.rating_1_10 DESC, w.updated_at DESC
		LIMIT $2`,
		profileID, s.config.Recommend.TasteContextSize,
	)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load taste context titles")
		return nil
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var (
			title  string
			year   *int
			genres *string
			rating int
		)
		if err := rows.Scan(&title, &year, &genres, &rating); err != nil {
			return nil
		}
		entry := title
		if year != nil {
			entry += fmt.Sprintf(" (%d)", *year)
		}
		if genres != nil {
			entry += " [" + *genres + "]"
		}
		entry += fmt.Sprintf(" rated %d/10", rating)
		titles = append(titles, entry)
	}
	return titles
}

// moodRecommendations resolves the mood, then merges exact matches ahead of
// engine results. Matches join the exclusion set so the engine never returns
// them again; the merge applies on page one only.
func (s *RecommendService) moodRecommendations(ctx context.Context, profileID int64, req *models.RecommendRequest, taste *models.ProfileTaste, excluded map[int64]bool) (*models.RecommendResponse, error) {
	var tasteVec models.Vector
	if taste != nil {
		tasteVec = taste.TasteVector
	}

	result, err := s.mood.Resolve(ctx, req.Mood, tasteVec, s.tasteContext(ctx, profileID), excluded)
	if err != nil {
		return nil, err
	}

	matches := filterMatches(result.Matches, req)
	for _, m := range matches {
		excluded[m.ID] = true
	}

	resp, err := s.vectorRecommendations(ctx, req, result.Vector, excluded, true)
	if err != nil {
		return nil, err
	}

	resp.Total += len(matches)
	if req.Page == 1 {
		resp.Results = mergeMoodResults(matches, resp.Results, req.Limit)
	}
	return resp, nil
}

// filterMatches applies the request filters to the exact mood matches, which
// bypass the SQL predicate.
func filterMatches(matches []models.CatalogTitle, req *models.RecommendRequest) []models.CatalogTitle {
	var out []models.CatalogTitle
	for _, m := range matches {
		if req.MinYear != nil && (m.StartYear == nil || *m.StartYear < *req.MinYear) {
			continue
		}
		if req.MaxYear != nil && (m.StartYear == nil || *m.StartYear > *req.MaxYear) {
			continue
		}
		if req.MinRuntime != nil && (m.RuntimeMinutes == nil || *m.RuntimeMinutes < *req.MinRuntime) {
			continue
		}
		if req.MaxRuntime != nil && (m.RuntimeMinutes == nil || *m.RuntimeMinutes > *req.MaxRuntime) {
			continue
		}
		if req.MinRating != nil && (m.AverageRating == nil || *m.AverageRating < *req.MinRating) {
			continue
		}
		if req.MinVotes != nil && (m.NumVotes == nil || *m.NumVotes < *req.MinVotes) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// mergeMoodResults puts exact matches first, drops engine duplicates, and
// truncates to limit. Matches carry no similarity score.
func mergeMoodResults(matches []models.CatalogTitle, engine []models.RecommendationResult, limit int) []models.RecommendationResult {
	merged := make([]models.RecommendationResult, 0, limit)
	seen := map[int64]bool{}

	for _, m := range matches {
		if len(merged) >= limit || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		merged = append(merged, models.RecommendationResult{
			TitleID:        m.ID,
			ImdbTconst:     m.ImdbTconst,
			PrimaryTitle:   m.PrimaryTitle,
			StartYear:      m.StartYear,
			RuntimeMinutes: m.RuntimeMinutes,
			Genres:         m.Genres,
			AverageRating:  m.AverageRating,
			NumVotes:       m.NumVotes,
			RTCriticScore:  m.RTCriticScore,
			PosterPath:     m.PosterPath,
		})
	}

	for _, r := range engine {
		if len(merged) >= limit {
			break
		}
		if seen[r.TitleID] {
			continue
		}
		seen[r.TitleID] = true
		merged = append(merged, r)
	}

	return merged
}

// TitleRecommendations ranks movies similar to a single seed title.
func (s *RecommendService) TitleRecommendations(ctx context.Context, titleID int64, limit int) ([]models.RecommendationResult, error) {
	if limit <= 0 {
		limit = s.config.Recommend.DefaultLimit
	}
	if limit > s.config.Recommend.MaxLimit {
		limit = s.config.Recommend.MaxLimit
	}

	var vecText string
	err := s.db.QueryRow(ctx,
		`SELECT embedding::text FROM movie_embeddings WHERE title_id = $1 AND model_id = $2`,
		titleID, s.config.OpenAI.EmbeddingModel,
	).Scan(&vecText)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTitleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load seed embedding: %w", err)
	}

	req := &models.RecommendRequest{Page: 1, Limit: limit}
	vec, err := models.ParseVector(vecText)
	if err != nil {
		return nil, err
	}

	resp, err := s.vectorRecommendations(ctx, req, vec, map[int64]bool{titleID: true}, false)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}
