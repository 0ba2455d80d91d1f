package models

import "time"

// Client represents one registered device installation. A device is identified
// by the 36-character UUID generated on the device itself; the push token is
// optional and updated independently of registration.
type Client struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UUID           string    `gorm:"size:36;uniqueIndex;not null" json:"uuid"`
	PushToken      string    `gorm:"size:64" json:"push_token,omitempty"`
	SignedInUserID *uint     `gorm:"index" json:"signed_in_user_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// User is an account backed by a Google identity. Profile fields are captured
// on first sign-in and never overwritten afterwards.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	GoogleID    string    `gorm:"size:64;uniqueIndex;not null" json:"google_id"`
	Email       string    `gorm:"size:255;index" json:"email"`
	FirstName   string    `gorm:"size:128" json:"first_name"`
	LastName    string    `gorm:"size:128" json:"last_name"`
	IsModerator bool      `gorm:"not null;default:false" json:"is_moderator"`
	IsAdmin     bool      `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DisplayName renders the name used in broadcasts and notifications.
func (u User) DisplayName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
