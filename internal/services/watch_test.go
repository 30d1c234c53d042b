package services

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skinut3232/MovieBrain/internal/config"
	"github.com/skinut3232/MovieBrain/pkg/models"
)

func newWatchService(t *testing.T) (*WatchService, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	cfg := &config.Config{}
	cfg.Recommend.DefaultLimit = 20
	cfg.Recommend.MaxLimit = 100

	// nil bus: publishing is skipped, which also covers the broker-down path
	return NewWatchService(mock, nil, cfg, logger), mock
}

func TestWatchService_LogWatch_Upsert(t *testing.T) {
	svc, mock := newWatchService(t)

	rating := 8
	now := time.Now()
	mock.ExpectQuery("INSERT INTO watches").
		WithArgs(int64(42), int64(7), &rating, (*time.Time)(nil)).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at", "inserted"}).AddRow(now, true))

	watch, err := svc.LogWatch(context.Background(), 42, &models.LogWatchRequest{
		TitleID: 7,
		Rating:  &rating,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(42), watch.ProfileID)
	assert.Equal(t, int64(7), watch.TitleID)
	require.NotNil(t, watch.Rating)
	assert.Equal(t, 8, *watch.Rating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWatchService_Delete_NotFound(t *testing.T) {
	svc, mock := newWatchService(t)

	mock.ExpectExec("DELETE FROM watches").
		WithArgs(int64(42), int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := svc.Delete(context.Background(), 42, 7)
	assert.ErrorIs(t, err, ErrTitleNotFound)
}

func TestWatchService_List_ClampsPage(t *testing.T) {
	svc, mock := newWatchService(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM watches`).
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("FROM watches w").
		WithArgs(int64(42), 20, 0).
		WillReturnRows(pgxmock.NewRows([]string{
			"profile_id", "title_id", "rating_1_10", "watched_date", "updated_at",
			"id", "imdb_tconst", "primary_title", "start_year", "runtime_minutes",
			"genres", "average_rating", "num_votes", "rt_critic_score", "poster_path",
		}))

	resp, err := svc.List(context.Background(), 42, -1, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.Limit)
	assert.Equal(t, 0, resp.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
