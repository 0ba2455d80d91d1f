package dto

import (
	"time"

	"github.com/campuslink/campuslink-api/internal/models"
)

// EventResponse describes a campus event.
type EventResponse struct {
	ID       uint      `json:"id"`
	Name     string    `json:"name"`
	Location string    `json:"location,omitempty"`
	Points   int       `json:"points"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

// NewEventResponse converts a model into a DTO.
func NewEventResponse(event models.Event) EventResponse {
	return EventResponse{
		ID:       event.ID,
		Name:     event.Name,
		Location: event.Location,
		Points:   event.Points,
		StartsAt: event.StartsAt,
		EndsAt:   event.EndsAt,
	}
}

// NewEventResponseSlice converts a slice of models into DTOs.
func NewEventResponseSlice(events []models.Event) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, NewEventResponse(event))
	}
	return out
}

// LeaderboardEntry is one row of the points leaderboard.
type LeaderboardEntry struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// TagResponse describes a subscribable tag.
type TagResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// NewTagResponseSlice converts tags to DTOs.
func NewTagResponseSlice(tags []models.Tag) []TagResponse {
	out := make([]TagResponse, 0, len(tags))
	for _, tag := range tags {
		out = append(out, TagResponse{ID: tag.ID, Name: tag.Name})
	}
	return out
}

// UploadResponse returns the hosted media URL for a photo/video message body.
type UploadResponse struct {
	URL string `json:"url"`
}
