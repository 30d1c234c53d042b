package models

import "time"

type RecommendRequest struct {
	Genre      string   `json:"genre"`
	MinYear    *int     `json:"min_year"`
	MaxYear    *int     `json:"max_year"`
	MinRuntime *int     `json:"min_runtime"`
	MaxRuntime *int     `json:"max_runtime"`
	MinRating  *float64 `json:"min_imdb_rating" binding:"omitempty,min=0,max=10"`
	MinVotes   *int     `json:"min_votes" binding:"omitempty,min=0"`
	Mood       string   `json:"mood"`
	Page       int      `json:"page" binding:"omitempty,min=1"`
	Limit      int      `json:"limit" binding:"omitempty,min=1,max=100"`
}

// RecommendationResult is one ranked candidate. SimilarityScore is nil in
// pure-popularity fallback mode and for exact mood matches; otherwise it is
// the blended similarity/popularity score.
type RecommendationResult struct {
	TitleID         int64    `json:"title_id"`
	ImdbTconst      string   `json:"imdb_tconst"`
	PrimaryTitle    string   `json:"primary_title"`
	StartYear       *int     `json:"start_year"`
	RuntimeMinutes  *int     `json:"runtime_minutes"`
	Genres          *string  `json:"genres"`
	AverageRating   *float64 `json:"average_rating"`
	NumVotes        *int     `json:"num_votes"`
	SimilarityScore *float64 `json:"similarity_score"`
	PosterPath      *string  `json:"poster_path,omitempty"`
	RTCriticScore   *int     `json:"rt_critic_score,omitempty"`
}

type RecommendResponse struct {
	Results      []RecommendationResult `json:"results"`
	Total        int                    `json:"total"`
	Page         int                    `json:"page"`
	Limit        int                    `json:"limit"`
	FallbackMode bool                   `json:"fallback_mode"`
	MoodMode     bool                   `json:"mood_mode"`
}

// ProfileTaste is the persisted per-profile taste vector row.
type ProfileTaste struct {
	ProfileID      int64     `json:"profile_id"`
	ModelID        string    `json:"model_id"`
	TasteVector    Vector    `json:"-"`
	NumRatedMovies int       `json:"num_rated_movies"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type TasteStatus struct {
	HasTasteVector bool       `json:"has_taste_vector"`
	NumRatedMovies int        `json:"num_rated_movies"`
	MinRequired    int        `json:"min_required"`
	UpdatedAt      *time.Time `json:"updated_at"`
}
