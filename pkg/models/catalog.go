package models

import "time"

type CatalogTitle struct {
	ID             int64    `json:"title_id"`
	ImdbTconst     string   `json:"imdb_tconst"`
	PrimaryTitle   string   `json:"primary_title"`
	StartYear      *int     `json:"start_year"`
	RuntimeMinutes *int     `json:"runtime_minutes"`
	Genres         *string  `json:"genres"`
	AverageRating  *float64 `json:"average_rating"`
	NumVotes       *int     `json:"num_votes"`
	RTCriticScore  *int     `json:"rt_critic_score,omitempty"`
	PosterPath     *string  `json:"poster_path,omitempty"`
}

type MovieEmbedding struct {
	TitleID    int64     `json:"title_id"`
	ModelID    string    `json:"model_id"`
	Embedding  Vector    `json:"-"`
	SourceText string    `json:"source_text"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type BrowseRequest struct {
	Genre      string   `form:"genre"`
	MinYear    *int     `form:"min_year"`
	MaxYear    *int     `form:"max_year"`
	MinRating  *float64 `form:"min_rating"`
	MinRuntime *int     `form:"min_runtime"`
	MaxRuntime *int     `form:"max_runtime"`
	SortBy     string   `form:"sort_by"`
	Page       int      `form:"page"`
	Limit      int      `form:"limit"`
}

type BrowseResponse struct {
	Results []CatalogTitle `json:"results"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	Limit   int            `json:"limit"`
}

// FeaturedRow is one shelf on the explore page.
type FeaturedRow struct {
	ID     string         `json:"id"`
	Title  string         `json:"title"`
	Movies []CatalogTitle `json:"movies"`
}
