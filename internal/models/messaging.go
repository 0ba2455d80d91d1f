package models

import (
	"time"

	"gorm.io/datatypes"
)

// Message body variants. Anything else is rejected on post and suppressed by
// the notification pipeline.
const (
	MessageTypeText  = "text"
	MessageTypePhoto = "photo"
	MessageTypeVideo = "video"
)

// Tag is a named topic that messages and subscriptions attach to. The tag name
// doubles as the realtime room key.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:64;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Subscription links a user to a tag.
type Subscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_user_tag;not null" json:"user_id"`
	TagID     uint      `gorm:"uniqueIndex:idx_user_tag;not null" json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Message belongs to exactly one tag. The auto-incremented ID also carries the
// chronological ordering contract: before/after pagination compares IDs only.
type Message struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	TagID     uint              `gorm:"index;not null" json:"tag_id"`
	UserID    uint              `gorm:"index;not null" json:"user_id"`
	Type      string            `gorm:"size:16;default:text" json:"type"`
	Content   string            `gorm:"type:text" json:"content"`
	MediaURL  string            `gorm:"size:512" json:"media_url,omitempty"`
	Flagged   bool              `gorm:"not null;default:false" json:"flagged"`
	Hidden    bool              `gorm:"not null;default:false" json:"hidden"`
	Metadata  datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
