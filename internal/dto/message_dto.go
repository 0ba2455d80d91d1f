package dto

import (
	"time"

	"github.com/campuslink/campuslink-api/internal/models"
)

// MessageBody is the structured payload of a message: pure text, or a photo or
// video with an optional caption. Text is capped below 512 characters.
type MessageBody struct {
	Type     string `json:"type" validate:"required,oneof=text photo video"`
	Text     string `json:"text" validate:"max=511"`
	MediaURL string `json:"media_url" validate:"omitempty,url,max=512"`
}

// MessageHistoryQuery pages through a tag's messages by ID comparison.
type MessageHistoryQuery struct {
	TagName  string `query:"tag_name" validate:"required,min=1,max=64"`
	BeforeID uint   `query:"before_id"`
	AfterID  uint   `query:"after_id"`
	Limit    int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

// MessageResponse is the serialized representation of a posted message.
type MessageResponse struct {
	ID         uint      `json:"id"`
	TagName    string    `json:"tag_name"`
	UserID     uint      `json:"user_id"`
	AuthorName string    `json:"author_name"`
	Type       string    `json:"type"`
	Text       string    `json:"text"`
	MediaURL   string    `json:"media_url,omitempty"`
	Flagged    bool      `json:"flagged"`
	Hidden     bool      `json:"hidden"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewMessageResponse converts a model into a DTO.
func NewMessageResponse(message models.Message, tagName, authorName string) MessageResponse {
	return MessageResponse{
		ID:         message.ID,
		TagName:    tagName,
		UserID:     message.UserID,
		AuthorName: authorName,
		Type:       message.Type,
		Text:       message.Content,
		MediaURL:   message.MediaURL,
		Flagged:    message.Flagged,
		Hidden:     message.Hidden,
		CreatedAt:  message.CreatedAt,
	}
}

// FlaggedUpdateRequest toggles a message's flagged state.
type FlaggedUpdateRequest struct {
	Flagged *bool `json:"flagged" validate:"required"`
}

// HiddenUpdateRequest toggles a message's hidden moderation state.
type HiddenUpdateRequest struct {
	Hidden *bool `json:"hidden" validate:"required"`
}

// ModeratorUpdateRequest toggles a user's moderator flag.
type ModeratorUpdateRequest struct {
	Moderator *bool `json:"moderator" validate:"required"`
}
