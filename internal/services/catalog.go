package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/skinut3232/MovieBrain/internal/config"
	"github.com/skinut3232/MovieBrain/pkg/models"
)

var ErrTitleNotFound = errors.New("title not found")

// featuredGenres drive the genre shelves on the explore page.
var featuredGenres = []string{"Action", "Comedy", "Drama", "Horror", "Sci-Fi", "Thriller"}

const titleColumns = `
	ct.id, ct.imdb_tconst, ct.primary_title, ct.start_year, ct.runtime_minutes,
	ct.genres, cr.average_rating, cr.num_votes, cr.rt_critic_score, ct.poster_path`

type CatalogService struct {
	db     DatabaseQuerier
	cache  *redis.Client // warm cache for explore rows
	config *config.Config
	logger *logrus.Logger
}

func NewCatalogService(db DatabaseQuerier, cache *redis.Client, cfg *config.Config, logger *logrus.Logger) *CatalogService {
	return &CatalogService{
		db:     db,
		cache:  cache,
		config: cfg,
		logger: logger,
	}
}

func scanTitle(rows pgx.Rows) (models.CatalogTitle, error) {
	var t models.CatalogTitle
	err := rows.Scan(&t.ID, &t.ImdbTconst, &t.PrimaryTitle, &t.StartYear, &t.RuntimeMinutes,
		&t.Genres, &t.AverageRating, &t.NumVotes, &t.RTCriticScore, &t.PosterPath)
	return t, err
}

func (s *CatalogService) collectTitles(rows pgx.Rows) ([]models.CatalogTitle, error) {
	defer rows.Close()
	var titles []models.CatalogTitle
	for rows.Next() {
		t, err := scanTitle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

// Search does a case-insensitive title search ordered by vote count.
func (s *CatalogService) Search(ctx context.Context, query string, limit int) ([]models.CatalogTitle, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+titleColumns+`
		FROM catalog_titles ct
		LEFT JOIN catalog_ratings cr ON cr.title_id = ct.id
		WHERE ct.primary_title ILIKE $1
		ORDER BY cr.num_votes DESC NULLS LAST
		LIMIT $2`,
		"%"+query+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("title search failed: %w", err)
	}
	return s.collectTitles(rows)
}

func (s *CatalogService) GetTitle(ctx context.Context, titleID int64) (*models.CatalogTitle, error) {
	var t models.CatalogTitle
	err := s.db.QueryRow(ctx, `
		SELECT`+titleColumns+`
		FROM catalog_titles ct
		LEFT JOIN catalog_ratings cr ON cr.title_id = ct.id
		WHERE ct.id = $1`,
		titleID,
	).Scan(&t.ID, &t.ImdbTconst, &t.PrimaryTitle, &t.StartYear, &t.RuntimeMinutes,
		&t.Genres, &t.AverageRating, &t.NumVotes, &t.RTCriticScore, &t.PosterPath)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTitleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up title: %w", err)
	}
	return &t, nil
}

// FindByTitle resolves an exact case-insensitive title match. With a year it
// prefers the year-qualified row; without one (or when no year-qualified row
// exists) it picks the most-voted match. Returns (nil, nil) when nothing
// matches.
func (s *CatalogService) FindByTitle(ctx context.Context, title string, year *int) (*models.CatalogTitle, error) {
	if year != nil {
		t, err := s.findByTitleQuery(ctx, `
			SELECT`+titleColumns+`
			FROM catalog_titles ct
			LEFT JOIN catalog_ratings cr ON cr.title_id = ct.id
			WHERE LOWER(ct.primary_title) = LOWER($1) AND ct.start_year = $2
			ORDER BY cr.num_votes DESC NULLS LAST
			LIMIT 1`,
			title, *year)
		if err != nil || t != nil {
			return t, err
		}
	}
	return s.findByTitleQuery(ctx, `
		SELECT`+titleColumns+`
		FROM catalog_titles ct
		LEFT JOIN catalog_ratings cr ON cr.title_id = ct.id
		WHERE LOWER(ct.primary_title) = LOWER($1)
		ORDER BY cr.num_votes DESC NULLS LAST
		LIMIT 1`,
		title)
}

func (s *CatalogService) findByTitleQuery(ctx context.Context, sql string, args ...interface{}) (*models.CatalogTitle, error) {
	var t models.CatalogTitle
	err := s.db.QueryRow(ctx, sql, args...).Scan(
		&t.ID, &t.ImdbTconst, &t.PrimaryTitle, &t.StartYear, &t.RuntimeMinutes,
		&t.Genres, &t.AverageRating, &t.NumVotes, &t.RTCriticScore, &t.PosterPath)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("title lookup failed: %w", err)
	}
	return &t, nil
}

// Browse lists catalog titles with filters and sorting.
func (s *CatalogService) Browse(ctx context.Context, req *models.BrowseRequest) (*models.BrowseResponse, error) {
	if req.Limit <= 0 {
		req.Limit = s.config.Recommend.DefaultLimit
	}
	if req.Limit > s.config.Recommend.MaxLimit {
		req.Limit = s.config.Recommend.MaxLimit
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	offset := (req.Page - 1) * req.Limit

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
	if req.MinRating != nil {
		clauses = append(clauses, filterClause{"cr.average_rating >= %s", *req.MinRating})
	}
	if req.MinRuntime != nil {
		clauses = append(clauses, filterClause{"ct.runtime_minutes >= %s", *req.MinRuntime})
	}
	if req.MaxRuntime != nil {
		clauses = append(clauses, filterClause{"ct.runtime_minutes <= %s", *req.MaxRuntime})
	}

	orderBy := map[string]string{
		"popularity": "COALESCE(cr.average_rating * LN(cr.num_votes + 1), 0) DESC",
		"rating":     "cr.average_rating DESC NULLS LAST, cr.num_votes DESC NULLS LAST",
		"year_desc":  "ct.start_year DESC NULLS LAST, cr.num_votes DESC NULLS LAST",
		"year_asc":   "ct.start_year ASC NULLS LAST, cr.num_votes DESC NULLS LAST",
	}[req.SortBy]
	if orderBy == "" {
		orderBy = "COALESCE(cr.average_rating * LN(cr.num_votes + 1), 0) DESC"
	}

	where, args := buildWhere(clauses, 1)

	var total int
	countSQL := `
		SELECT COUNT(*)
		FROM catalog_titles ct
		LEFT JOIN catalog_ratings cr ON cr.title_id = ct.id
		WHERE ` + where
	if err := s.db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("browse count failed: %w", err)
	}

	pageArgs := append(append([]interface{}{}, args...), req.Limit, offset)
	pageSQL := fmt.Sprintf(`
		SELECT`+titleColumns+`
		FROM catalog_titles ct
		LEFT JOIN catalog_ratings cr ON cr.title_id = ct.id
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		where, orderBy, len(args)+1, len(args)+2)

	rows, err := s.db.Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, fmt.Errorf("browse query failed: %w", err)
	}
	titles, err := s.collectTitles(rows)
	if err != nil {
		return nil, err
	}

	return &models.BrowseResponse{
		Results: titles,
		Total:   total,
		Page:    req.Page,
		Limit:   req.Limit,
	}, nil
}

// FeaturedRows builds the explore-page shelves, served from the warm cache
// when fresh.
func (s *CatalogService) FeaturedRows(ctx context.Context, limit int) ([]models.FeaturedRow, error) {
	cacheKey := fmt.Sprintf("explore:featured:%d", limit)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var rows []models.FeaturedRow
			if err := json.Unmarshal([]byte(cached), &rows); err == nil {
				return rows, nil
			}
		}
	}

	var featured []models.FeaturedRow

	trending, err := s.rowByQuery(ctx, "trending", "Trending Now", "", nil, limit)
	if err != nil {
		return nil, err
	}
	if trending != nil {
		featured = append(featured, *trending)
	}

	currentYear := time.Now().Year()
	newReleases, err := s.rowByQuery(ctx, "new-releases", "New Releases", "", &currentYear, limit)
	if err != nil {
		return nil, err
	}
	if newReleases != nil {
		featured = append(featured, *newReleases)
	}

	for _, genre := range featuredGenres {
		row, err := s.rowByQuery(ctx, genre, genre+" Movies", genre, nil, limit)
		if err != nil {
			return nil, err
		}
		if row != nil {
			featured = append(featured, *row)
		}
	}

	if s.cache != nil {
		if data, err := json.Marshal(featured); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, s.config.Recommend.ExploreCacheTTL).Err(); err != nil {
				s.logger.WithError(err).Warn("Failed to cache explore rows")
			}
		}
	}

	return featured, nil
}

func (s *CatalogService) rowByQuery(ctx context.Context, id, title, genre string, minYear *int, limit int) (*models.FeaturedRow, error) {
	var clauses []filterClause
	if genre != "" {
		clauses = append(clauses, filterClause{"ct.genres ILIKE %s", "%" + genre + "%"})
	}
	if minYear != nil {
		clauses = append(clauses, filterClause{"ct.start_year >= %s", *minYear})
	}

	where, args := buildWhere(clauses, 1)
	args = append(args, limit)

	rows, err := s.db.Query(ctx, fmt.Sprintf(`
		SELECT`+titleColumns+`
		FROM catalog_titles ct
		LEFT JOIN catalog_ratings cr ON cr.title_id = ct.id
		WHERE %s
		ORDER BY COALESCE(cr.average_rating * LN(cr.num_votes + 1), 0) DESC
		LIMIT $%d`,
		where, len(args)),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("featured row query failed: %w", err)
	}
	titles, err := s.collectTitles(rows)
	if err != nil {
		return nil, err
	}
	if len(titles) == 0 {
		return nil, nil
	}

	return &models.FeaturedRow{ID: id, Title: title, Movies: titles}, nil
}

// RandomTitle picks a random well-known movie, optionally filtered.
func (s *CatalogService) RandomTitle(ctx context.Context, genre string, minRating *float64) (*models.CatalogTitle, error) {
	clauses := []filterClause{{expr: "cr.num_votes >= 1000"}}
	if genre != "" {
		clauses = append(clauses, filterClause{"ct.genres ILIKE %s", "%" + genre + "%"})
	}
	if minRating != nil {
		clauses = append(clauses, filterClause{"cr.average_rating >= %s", *minRating})
	}

	where, args := buildWhere(clauses, 1)

	var t models.CatalogTitle
	err := s.db.QueryRow(ctx, `
		SELECT`+titleColumns+`
		FROM catalog_titles ct
		JOIN catalog_ratings cr ON cr.title_id = ct.id
		WHERE `+where+`
		ORDER BY RANDOM()
		LIMIT 1`,
		args...,
	).Scan(&t.ID, &t.ImdbTconst, &t.PrimaryTitle, &t.StartYear, &t.RuntimeMinutes,
		&t.Genres, &t.AverageRating, &t.NumVotes, &t.RTCriticScore, &t.PosterPath)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTitleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("random title query failed: %w", err)
	}
	return &t, nil
}
