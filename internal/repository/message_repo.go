package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/campuslink/campuslink-api/internal/models"
)

// MessageRepository persists tag messages. IDs are assigned sequentially, so
// ID comparison alone implements before/after pagination.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	FindByID(ctx context.Context, id uint) (models.Message, error)
	ListByTag(ctx context.Context, tagID uint, filter MessageFilter) ([]models.Message, error)
	SetFlagged(ctx context.Context, id uint, flagged bool) error
	SetHidden(ctx context.Context, id uint, hidden bool) error
}

// MessageFilter narrows a tag's message listing.
type MessageFilter struct {
	BeforeID      uint
	AfterID       uint
	Limit         int
	IncludeHidden bool
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository constructs a message repository backed by GORM.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *messageRepository) FindByID(ctx context.Context, id uint) (models.Message, error) {
	var message models.Message
	if err := r.db.WithContext(ctx).First(&message, id).Error; err != nil {
		return models.Message{}, err
	}
	return message, nil
}

func (r *messageRepository) ListByTag(ctx context.Context, tagID uint, filter MessageFilter) ([]models.Message, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := r.db.WithContext(ctx).Where("tag_id = ?", tagID)
	if filter.BeforeID > 0 {
		query = query.Where("id < ?", filter.BeforeID)
	}
	if filter.AfterID > 0 {
		query = query.Where("id > ?", filter.AfterID)
	}
	if !filter.IncludeHidden {
		query = query.Where("hidden = ?", false)
	}

	var messages []models.Message
	if err := query.Order("id DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, err
	}

	// Reverse to ascending ID order for clients.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (r *messageRepository) SetFlagged(ctx context.Context, id uint, flagged bool) error {
	return r.db.WithContext(ctx).Model(&models.Message{}).Where("id = ?", id).
		Update("flagged", flagged).Error
}

func (r *messageRepository) SetHidden(ctx context.Context, id uint, hidden bool) error {
	return r.db.WithContext(ctx).Model(&models.Message{}).Where("id = ?", id).
		Update("hidden", hidden).Error
}
