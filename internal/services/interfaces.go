package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/skinut3232/MovieBrain/pkg/models"
)

// DatabaseQuerier is the slice of pgxpool.Pool the services need. pgxmock
// satisfies it in tests.
type DatabaseQuerier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// TextCompleter is the chat-completion contract the mood pipeline depends on.
type TextCompleter interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// TextEmbedder turns text into a vector in the catalog embedding space.
type TextEmbedder interface {
	Embed(ctx context.Context, text string) (models.Vector, error)
}

// TasteEngine is what the recommendation engine and handlers consume from the
// taste vector service.
type TasteEngine interface {
	Compute(ctx context.Context, profileID int64) (*models.ProfileTaste, error)
	EnsureFresh(ctx context.Context, profileID int64) (*models.ProfileTaste, error)
	Status(ctx context.Context, profileID int64) (*models.TasteStatus, error)
	Recompute(ctx context.Context, profileID int64) (*models.TasteStatus, error)
}

// Recommender is the single entry point request handlers call for ranked
// recommendations.
type Recommender interface {
	GetRecommendations(ctx context.Context, profileID int64, req *models.RecommendRequest) (*models.RecommendResponse, error)
	TitleRecommendations(ctx context.Context, titleID int64, limit int) ([]models.RecommendationResult, error)
}
