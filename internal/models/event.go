package models

import "time"

// Event is a campus event users can check into for leaderboard points.
type Event struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Location  string    `gorm:"size:255" json:"location"`
	Points    int       `gorm:"not null;default:0" json:"points"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CheckIn records that a user checked into an event. The unique pair keeps
// repeat check-ins from awarding points twice.
type CheckIn struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventID   uint      `gorm:"uniqueIndex:idx_event_user;not null" json:"event_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_event_user;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
