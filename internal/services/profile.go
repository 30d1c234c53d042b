package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/skinut3232/MovieBrain/pkg/models"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileService struct {
	db     DatabaseQuerier
	logger *logrus.Logger
}

func NewProfileService(db DatabaseQuerier, logger *logrus.Logger) *ProfileService {
	return &ProfileService{db: db, logger: logger}
}

func (s *ProfileService) Create(ctx context.Context, userID int64, name string) (*models.Profile, error) {
	p := &models.Profile{UserID: userID, Name: name}
	err := s.db.QueryRow(ctx,
		`INSERT INTO profiles (user_id, name, created_at) VALUES ($1, $2, now())
		 RETURNING id, created_at`,
		userID, name,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return p, nil
}

func (s *ProfileService) List(ctx context.Context, userID int64) ([]models.Profile, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, name, created_at FROM profiles
		 WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Get returns the profile only when it belongs to userID.
func (s *ProfileService) Get(ctx context.Context, profileID, userID int64) (*models.Profile, error) {
	p := &models.Profile{}
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, name, created_at FROM profiles
		 WHERE id = $1 AND user_id = $2`,
		profileID, userID,
	).Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up profile: %w", err)
	}
	return p, nil
}

func (s *ProfileService) Delete(ctx context.Context, profileID, userID int64) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM profiles WHERE id = $1 AND user_id = $2`,
		profileID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}
