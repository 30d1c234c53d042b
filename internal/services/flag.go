package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/skinut3232/MovieBrain/pkg/models"
)

// FlagService manages the per-profile "not interested" list. Flagged titles
// are excluded from every recommendation response alongside watched titles.
type FlagService struct {
	db     DatabaseQuerier
	logger *logrus.Logger
}

func NewFlagService(db DatabaseQuerier, logger *logrus.Logger) *FlagService {
	return &FlagService{db: db, logger: logger}
}

func (s *FlagService) Set(ctx context.Context, profileID, titleID int64) (*models.MovieFlag, error) {
	f := &models.MovieFlag{ProfileID: profileID, TitleID: titleID}
	err := s.db.QueryRow(ctx, `
		INSERT INTO movie_flags (profile_id, title_id, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (profile_id, title_id) DO UPDATE SET created_at = movie_flags.created_at
		RETURNING created_at`,
		profileID, titleID,
	).Scan(&f.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to flag title: %w", err)
	}
	return f, nil
}

func (s *FlagService) Remove(ctx context.Context, profileID, titleID int64) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM movie_flags WHERE profile_id = $1 AND title_id = $2`,
		profileID, titleID,
	)
	if err != nil {
		return fmt.Errorf("failed to unflag title: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTitleNotFound
	}
	return nil
}

func (s *FlagService) List(ctx context.Context, profileID int64) ([]models.MovieFlag, error) {
	rows, err := s.db.Query(ctx,
		`SELECT profile_id, title_id, created_at FROM movie_flags
		 WHERE profile_id = $1 ORDER BY created_at DESC`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list flags: %w", err)
	}
	defer rows.Close()

	var flags []models.MovieFlag
	for rows.Next() {
		var f models.MovieFlag
		if err := rows.Scan(&f.ProfileID, &f.TitleID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan flag: %w", err)
		}
		flags = append(flags, f)
	}
	return flags, rows.Err()
}
