package services

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skinut3232/MovieBrain/internal/config"
	"github.com/skinut3232/MovieBrain/pkg/models"
)

func newCatalogService(t *testing.T) (*CatalogService, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	cfg := &config.Config{}
	cfg.Recommend.DefaultLimit = 20
	cfg.Recommend.MaxLimit = 100

	return NewCatalogService(mock, nil, cfg, logger), mock
}

func catalogRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "imdb_tconst", "primary_title", "start_year", "runtime_minutes",
		"genres", "average_rating", "num_votes", "rt_critic_score", "poster_path",
	})
}

func TestCatalogService_FindByTitle_YearPreferred(t *testing.T) {
	svc, mock := newCatalogService(t)

	year := 1986
	mock.ExpectQuery(`ct.start_year = \$2`).
		WithArgs("Aliens", 1986).
		WillReturnRows(catalogRows().
			AddRow(int64(5), "tt0090605", "Aliens", &year, nil, nil, nil, nil, nil, nil))

	title, err := svc.FindByTitle(context.Background(), "Aliens", &year)
	require.NoError(t, err)
	require.NotNil(t, title)

	assert.Equal(t, int64(5), title.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogService_FindByTitle_FallsBackToTitleOnly(t *testing.T) {
	svc, mock := newCatalogService(t)

	year := 1999
	mock.ExpectQuery(`ct.start_year = \$2`).
		WithArgs("Aliens", 1999).
		WillReturnRows(catalogRows())
	mock.ExpectQuery(`LOWER\(ct.primary_title\) = LOWER\(\$1\)`).
		WithArgs("Aliens").
		WillReturnRows(catalogRows().
			AddRow(int64(5), "tt0090605", "Aliens", nil, nil, nil, nil, nil, nil, nil))

	title, err := svc.FindByTitle(context.Background(), "Aliens", &year)
	require.NoError(t, err)
	require.NotNil(t, title)

	assert.Equal(t, int64(5), title.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogService_FindByTitle_NoMatch(t *testing.T) {
	svc, mock := newCatalogService(t)

	mock.ExpectQuery(`LOWER\(ct.primary_title\) = LOWER\(\$1\)`).
		WithArgs("Nonexistent Movie").
		WillReturnRows(catalogRows())

	title, err := svc.FindByTitle(context.Background(), "Nonexistent Movie", nil)
	require.NoError(t, err)
	assert.Nil(t, title)
}

func TestCatalogService_Browse_ClampsLimit(t *testing.T) {
	svc, mock := newCatalogService(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(500))
	mock.ExpectQuery("ORDER BY").
		WithArgs(100, 0).
		WillReturnRows(catalogRows())

	resp, err := svc.Browse(context.Background(), &models.BrowseRequest{Limit: 9999})
	require.NoError(t, err)

	assert.Equal(t, 100, resp.Limit)
	assert.Equal(t, 500, resp.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
