package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skinut3232/MovieBrain/internal/config"
	"github.com/skinut3232/MovieBrain/internal/services"
	"github.com/skinut3232/MovieBrain/pkg/models"
)

type fakeRecommender struct {
	resp *models.RecommendResponse
	err  error
}

func (f *fakeRecommender) GetRecommendations(context.Context, int64, *models.RecommendRequest) (*models.RecommendResponse, error) {
	return f.resp, f.err
}

func (f *fakeRecommender) TitleRecommendations(context.Context, int64, int) ([]models.RecommendationResult, error) {
	return f.resp.Results, f.err
}

type fakeTasteEngine struct {
	status *models.TasteStatus
	err    error
}

func (f *fakeTasteEngine) Compute(context.Context, int64) (*models.ProfileTaste, error) {
	return nil, f.err
}

func (f *fakeTasteEngine) EnsureFresh(context.Context, int64) (*models.ProfileTaste, error) {
	return nil, f.err
}

func (f *fakeTasteEngine) Status(context.Context, int64) (*models.TasteStatus, error) {
	return f.status, f.err
}

func (f *fakeTasteEngine) Recompute(context.Context, int64) (*models.TasteStatus, error) {
	return f.status, f.err
}

func setupRecommendationTest(t *testing.T, rec services.Recommender, taste services.TasteEngine) (*gin.Engine, pgxmock.PgxPoolIface) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	cfg := &config.Config{}
	cfg.Recommend.DefaultLimit = 20
	cfg.Recommend.MaxLimit = 100

	svcs := &services.Services{
		Profile:   services.NewProfileService(mock, logger),
		Recommend: rec,
		Taste:     taste,
	}
	h := New(svcs, cfg, logger)

	router := gin.New()
	authed := func(c *gin.Context) {
		c.Set("user_id", int64(1))
		c.Next()
	}
	router.POST("/profiles/:profileId/recommendations", authed, h.Recommendations)
	router.GET("/profiles/:profileId/taste", authed, h.TasteStatus)

	return router, mock
}

func expectProfileOwned(mock pgxmock.PgxPoolIface, profileID, userID int64) {
	mock.ExpectQuery("SELECT id, user_id, name, created_at FROM profiles").
		WithArgs(profileID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "name", "created_at"}).
			AddRow(profileID, userID, "Main", time.Now()))
}

func TestRecommendationsHandler_Success(t *testing.T) {
	score := 0.9123
	rec := &fakeRecommender{
		resp: &models.RecommendResponse{
			Results: []models.RecommendationResult{
				{TitleID: 1, PrimaryTitle: "The Matrix", SimilarityScore: &score},
			},
			Total: 1,
			Page:  1,
			Limit: 20,
		},
	}
	router, mock := setupRecommendationTest(t, rec, &fakeTasteEngine{})
	expectProfileOwned(mock, 5, 1)

	body, _ := json.Marshal(models.RecommendRequest{Genre: "Sci-Fi"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/profiles/5/recommendations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.RecommendResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "The Matrix", resp.Results[0].PrimaryTitle)
	assert.Equal(t, 1, resp.Total)
}

func TestRecommendationsHandler_MoodUnavailable(t *testing.T) {
	rec := &fakeRecommender{err: services.ErrMoodUnavailable}
	router, mock := setupRecommendationTest(t, rec, &fakeTasteEngine{})
	expectProfileOwned(mock, 5, 1)

	body := []byte(`{"mood":"something tense"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/profiles/5/recommendations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "MOOD_SEARCH_UNAVAILABLE")
}

func TestRecommendationsHandler_ProfileNotOwned(t *testing.T) {
	router, mock := setupRecommendationTest(t, &fakeRecommender{}, &fakeTasteEngine{})
	mock.ExpectQuery("SELECT id, user_id, name, created_at FROM profiles").
		WithArgs(int64(5), int64(1)).
		WillReturnError(pgx.ErrNoRows)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/profiles/5/recommendations", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "PROFILE_NOT_FOUND")
}

func TestRecommendationsHandler_InvalidProfileID(t *testing.T) {
	router, _ := setupRecommendationTest(t, &fakeRecommender{}, &fakeTasteEngine{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/profiles/abc/recommendations", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_ID")
}

func TestTasteStatusHandler(t *testing.T) {
	taste := &fakeTasteEngine{
		status: &models.TasteStatus{HasTasteVector: true, NumRatedMovies: 12, MinRequired: 5},
	}
	router, mock := setupRecommendationTest(t, &fakeRecommender{}, taste)
	expectProfileOwned(mock, 5, 1)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/profiles/5/taste", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var status models.TasteStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.HasTasteVector)
	assert.Equal(t, 12, status.NumRatedMovies)
}
