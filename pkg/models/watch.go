package models

import (
	"time"

	"github.com/google/uuid"
)

type Watch struct {
	ProfileID   int64         `json:"profile_id"`
	TitleID     int64         `json:"title_id"`
	Rating      *int          `json:"rating_1_10"`
	WatchedDate *time.Time    `json:"watched_date"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Title       *CatalogTitle `json:"title,omitempty"`
}

type LogWatchRequest struct {
	TitleID     int64      `json:"title_id" binding:"required"`
	Rating      *int       `json:"rating_1_10" binding:"omitempty,min=1,max=10"`
	WatchedDate *time.Time `json:"watched_date"`
}

type WatchListResponse struct {
	Watches []Watch `json:"watches"`
	Total   int     `json:"total"`
	Page    int     `json:"page"`
	Limit   int     `json:"limit"`
}

type MovieFlag struct {
	ProfileID int64     `json:"profile_id"`
	TitleID   int64     `json:"title_id"`
	CreatedAt time.Time `json:"created_at"`
}

// WatchEvent is published to Kafka whenever a watch is logged or updated.
// The offline embedding batch and analytics consumers read this topic.
type WatchEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	ProfileID int64     `json:"profile_id"`
	TitleID   int64     `json:"title_id"`
	Rating    *int      `json:"rating_1_10,omitempty"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}
