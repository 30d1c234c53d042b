package services

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skinut3232/MovieBrain/internal/config"
	"github.com/skinut3232/MovieBrain/pkg/models"
)

type stubTasteEngine struct {
	taste *models.ProfileTaste
	err   error
}

func (s *stubTasteEngine) Compute(context.Context, int64) (*models.ProfileTaste, error) {
	return s.taste, s.err
}

func (s *stubTasteEngine) EnsureFresh(context.Context, int64) (*models.ProfileTaste, error) {
	return s.taste, s.err
}

func (s *stubTasteEngine) Status(context.Context, int64) (*models.TasteStatus, error) {
	return nil, s.err
}

func (s *stubTasteEngine) Recompute(context.Context, int64) (*models.TasteStatus, error) {
	return nil, s.err
}

func recommendTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.OpenAI.EmbeddingModel = "text-embedding-3-small"
	cfg.Recommend.DefaultLimit = 20
	cfg.Recommend.MaxLimit = 100
	cfg.Recommend.PopularityWeight = 0.30
	return cfg
}

func newRecommendService(t *testing.T, taste TasteEngine) (*RecommendService, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	svc := NewRecommendService(mock, taste, nil, recommendTestConfig(), logger, NewMetrics(prometheus.NewRegistry()))
	return svc, mock
}

func resultColumnNames() []string {
	return []string{
		"id", "imdb_tconst", "primary_title", "start_year", "runtime_minutes",
		"genres", "average_rating", "num_votes", "rt_critic_score", "poster_path",
	}
}

func TestRecommendService_FallbackMode(t *testing.T) {
	svc, mock := newRecommendService(t, &stubTasteEngine{err: ErrInsufficientRatings})

	mock.ExpectQuery("SELECT title_id FROM watches").
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"title_id"}).AddRow(int64(7)))
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(42))
	mock.ExpectQuery("ORDER BY cr.average_rating").
		WithArgs(pgxmock.AnyArg(), 20, 0).
		WillReturnRows(pgxmock.NewRows(resultColumnNames()).
			AddRow(int64(1), "tt0111161", "The Shawshank Redemption", nil, nil, nil, nil, nil, nil, nil).
			AddRow(int64(2), "tt0068646", "The Godfather", nil, nil, nil, nil, nil, nil, nil))

	resp, err := svc.GetRecommendations(context.Background(), 42, &models.RecommendRequest{})
	require.NoError(t, err)

	assert.True(t, resp.FallbackMode)
	assert.False(t, resp.MoodMode)
	assert.Equal(t, 42, resp.Total)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.Limit)
	require.Len(t, resp.Results, 2)
	assert.Nil(t, resp.Results[0].SimilarityScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecommendService_TasteMode_RoundsScores(t *testing.T) {
	taste := &models.ProfileTaste{TasteVector: models.Vector{1, 0}}
	svc, mock := newRecommendService(t, &stubTasteEngine{taste: taste})

	mock.ExpectQuery("SELECT title_id FROM watches").
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"title_id"}))
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs("text-embedding-3-small").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

	scoreCols := append(resultColumnNames(), "score")
	mock.ExpectQuery("me.embedding <=>").
		WithArgs("[1,0]", "text-embedding-3-small", 0.30, 20, 0).
		WillReturnRows(pgxmock.NewRows(scoreCols).
			AddRow(int64(9), "tt0133093", "The Matrix", nil, nil, nil, nil, nil, nil, nil, 0.87654321))

	resp, err := svc.GetRecommendations(context.Background(), 42, &models.RecommendRequest{})
	require.NoError(t, err)

	assert.False(t, resp.FallbackMode)
	require.Len(t, resp.Results, 1)
	require.NotNil(t, resp.Results[0].SimilarityScore)
	assert.InDelta(t, 0.8765, *resp.Results[0].SimilarityScore, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecommendService_PaginationOffset(t *testing.T) {
	taste := &models.ProfileTaste{TasteVector: models.Vector{1, 0}}
	svc, mock := newRecommendService(t, &stubTasteEngine{taste: taste})

	mock.ExpectQuery("SELECT title_id FROM watches").
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"title_id"}))
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs("text-embedding-3-small").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(100))
	mock.ExpectQuery("me.embedding <=>").
		WithArgs("[1,0]", "text-embedding-3-small", 0.30, 10, 20).
		WillReturnRows(pgxmock.NewRows(append(resultColumnNames(), "score")))

	resp, err := svc.GetRecommendations(context.Background(), 42, &models.RecommendRequest{Page: 3, Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Page)
	assert.Equal(t, 10, resp.Limit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func newMoodRecommendService(t *testing.T, taste TasteEngine, chat TextCompleter, embed TextEmbedder) (*RecommendService, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	cfg := recommendTestConfig()
	cfg.Recommend.MoodBlendWeight = 0.6
	cfg.Recommend.MoodSuggestionCount = 20
	cfg.Recommend.TasteContextSize = 10

	metrics := NewMetrics(prometheus.NewRegistry())
	mood := NewMoodService(chat, embed, NewCatalogService(mock, nil, cfg, logger), cfg, logger, metrics)
	return NewRecommendService(mock, taste, mood, cfg, logger, metrics), mock
}

// Full mood-mode pass on page one: suggested titles resolve against the
// catalog, join the exclusion set before the engine query, land ahead of the
// engine results without similarity scores, and count toward the total.
func TestRecommendService_MoodMode_MergesMatchesOnPageOne(t *testing.T) {
	chat := &fakeCompleter{
		suggestReply: `[{"title":"Aliens","year":1986},{"title":"The Thing"}]`,
		descReply:    "Claustrophobic sci-fi horror with relentless dread.",
	}
	embed := &fakeEmbedder{vec: models.Vector{0, 1}}
	svc, mock := newMoodRecommendService(t, &stubTasteEngine{err: ErrInsufficientRatings}, chat, embed)

	titleRow := func(id int64, title string) *pgxmock.Rows {
		return pgxmock.NewRows(resultColumnNames()).
			AddRow(id, "tt0000001", title, nil, nil, nil, nil, nil, nil, nil)
	}

	mock.ExpectQuery("SELECT title_id FROM watches").
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"title_id"}).AddRow(int64(7)))
	mock.ExpectQuery(`ORDER BY w.rating_1_10 DESC`).
		WithArgs(int64(42), 10).
		WillReturnRows(pgxmock.NewRows([]string{"primary_title", "start_year", "genres", "rating_1_10"}))
	mock.ExpectQuery(`ct.start_year = \$2`).
		WithArgs("Aliens", 1986).
		WillReturnRows(titleRow(1, "Aliens"))
	mock.ExpectQuery(`LOWER\(ct.primary_title\)`).
		WithArgs("The Thing").
		WillReturnRows(titleRow(2, "The Thing"))
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs("text-embedding-3-small", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(50))
	mock.ExpectQuery("me.embedding <=>").
		WithArgs("[0,1]", "text-embedding-3-small", 0.30, pgxmock.AnyArg(), 20, 0).
		WillReturnRows(pgxmock.NewRows(append(resultColumnNames(), "score")).
			AddRow(int64(3), "tt0093773", "Predator", nil, nil, nil, nil, nil, nil, nil, 0.9123))

	resp, err := svc.GetRecommendations(context.Background(), 42, &models.RecommendRequest{Mood: "tense and claustrophobic"})
	require.NoError(t, err)

	assert.True(t, resp.MoodMode)
	assert.False(t, resp.FallbackMode)
	assert.Equal(t, 52, resp.Total) // 50 engine candidates plus 2 exact matches

	require.Len(t, resp.Results, 3)
	assert.Equal(t, int64(1), resp.Results[0].TitleID)
	assert.Equal(t, int64(2), resp.Results[1].TitleID)
	assert.Equal(t, int64(3), resp.Results[2].TitleID)
	assert.Nil(t, resp.Results[0].SimilarityScore)
	assert.Nil(t, resp.Results[1].SimilarityScore)
	assert.NotNil(t, resp.Results[2].SimilarityScore)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// Beyond page one the exact matches still raise the total and stay excluded
// from the engine query, but the page itself is engine results only.
func TestRecommendService_MoodMode_EngineOnlyAfterPageOne(t *testing.T) {
	chat := &fakeCompleter{
		suggestReply: `[{"title":"Aliens","year":1986}]`,
		descReply:    "Claustrophobic sci-fi horror with relentless dread.",
	}
	embed := &fakeEmbedder{vec: models.Vector{0, 1}}
	svc, mock := newMoodRecommendService(t, &stubTasteEngine{err: ErrInsufficientRatings}, chat, embed)

	mock.ExpectQuery("SELECT title_id FROM watches").
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"title_id"}))
	mock.ExpectQuery(`ORDER BY w.rating_1_10 DESC`).
		WithArgs(int64(42), 10).
		WillReturnRows(pgxmock.NewRows([]string{"primary_title", "start_year", "genres", "rating_1_10"}))
	mock.ExpectQuery(`ct.start_year = \$2`).
		WithArgs("Aliens", 1986).
		WillReturnRows(pgxmock.NewRows(resultColumnNames()).
			AddRow(int64(1), "tt0090605", "Aliens", nil, nil, nil, nil, nil, nil, nil))
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs("text-embedding-3-small", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(50))
	mock.ExpectQuery("me.embedding <=>").
		WithArgs("[0,1]", "text-embedding-3-small", 0.30, []int64{1}, 10, 10).
		WillReturnRows(pgxmock.NewRows(append(resultColumnNames(), "score")).
			AddRow(int64(3), "tt0093773", "Predator", nil, nil, nil, nil, nil, nil, nil, 0.9123))

	resp, err := svc.GetRecommendations(context.Background(), 42, &models.RecommendRequest{Mood: "tense", Page: 2, Limit: 10})
	require.NoError(t, err)

	assert.True(t, resp.MoodMode)
	assert.Equal(t, 51, resp.Total)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, int64(3), resp.Results[0].TitleID)
	assert.NotNil(t, resp.Results[0].SimilarityScore)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterClauses_ExclusionAndFilters(t *testing.T) {
	genre := "Horror"
	minYear := 1980
	minVotes := 500

	req := &models.RecommendRequest{Genre: genre, MinYear: &minYear, MinVotes: &minVotes}
	clauses := filterClauses(req, map[int64]bool{3: true, 9: true})

	where, args := buildWhere(clauses, 1)
	assert.Contains(t, where, "ct.genres ILIKE $1")
	assert.Contains(t, where, "ct.start_year >= $2")
	assert.Contains(t, where, "cr.num_votes >= $3")
	assert.Contains(t, where, "NOT (ct.id = ANY($4))")
	require.Len(t, args, 4)

	ids, ok := args[3].([]int64)
	require.True(t, ok)
	assert.ElementsMatch(t, []int64{3, 9}, ids)
}

func TestFilterMatches(t *testing.T) {
	year1979, year2010 := 1979, 2010
	rating82 := 8.2
	votes := 1000

	matches := []models.CatalogTitle{
		{ID: 1, StartYear: &year1979, AverageRating: &rating82, NumVotes: &votes},
		{ID: 2, StartYear: &year2010, AverageRating: &rating82, NumVotes: &votes},
		{ID: 3}, // no metadata at all
	}

	minYear := 2000
	got := filterMatches(matches, &models.RecommendRequest{MinYear: &minYear})
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)

	minRating := 9.0
	got = filterMatches(matches, &models.RecommendRequest{MinRating: &minRating})
	assert.Empty(t, got)

	got = filterMatches(matches, &models.RecommendRequest{})
	assert.Len(t, got, 3)
}

func TestMergeMoodResults(t *testing.T) {
	matches := []models.CatalogTitle{
		{ID: 1, PrimaryTitle: "Aliens"},
		{ID: 2, PrimaryTitle: "The Thing"},
	}
	score := 0.91
	engine := []models.RecommendationResult{
		{TitleID: 2, PrimaryTitle: "The Thing", SimilarityScore: &score}, // duplicate of a match
		{TitleID: 3, PrimaryTitle: "Predator", SimilarityScore: &score},
		{TitleID: 4, PrimaryTitle: "Event Horizon", SimilarityScore: &score},
	}

	merged := mergeMoodResults(matches, engine, 3)

	require.Len(t, merged, 3)
	assert.Equal(t, int64(1), merged[0].TitleID)
	assert.Equal(t, int64(2), merged[1].TitleID)
	assert.Equal(t, int64(3), merged[2].TitleID)

	// exact matches carry no similarity score
	assert.Nil(t, merged[0].SimilarityScore)
	assert.Nil(t, merged[1].SimilarityScore)
	assert.NotNil(t, merged[2].SimilarityScore)
}

func TestMergeMoodResults_TruncatesMatches(t *testing.T) {
	matches := []models.CatalogTitle{{ID: 1}, {ID: 2}, {ID: 3}}
	merged := mergeMoodResults(matches, nil, 2)

	require.Len(t, merged, 2)
	assert.Equal(t, int64(1), merged[0].TitleID)
	assert.Equal(t, int64(2), merged[1].TitleID)
}
