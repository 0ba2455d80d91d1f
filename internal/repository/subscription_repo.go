package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/campuslink/campuslink-api/internal/models"
)

// SubscriptionRepository persists user/tag subscriptions.
type SubscriptionRepository interface {
	Subscribe(ctx context.Context, userID, tagID uint) error
	Unsubscribe(ctx context.Context, userID, tagID uint) error
	ListTagNamesByUser(ctx context.Context, userID uint) ([]string, error)
	ListUserIDsByTag(ctx context.Context, tagID uint) ([]uint, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository constructs a subscription repository backed by GORM.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Subscribe(ctx context.Context, userID, tagID uint) error {
	subscription := models.Subscription{UserID: userID, TagID: tagID}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND tag_id = ?", userID, tagID).
		FirstOrCreate(&subscription).Error
}

func (r *subscriptionRepository) Unsubscribe(ctx context.Context, userID, tagID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND tag_id = ?", userID, tagID).
		Delete(&models.Subscription{}).Error
}

func (r *subscriptionRepository) ListTagNamesByUser(ctx context.Context, userID uint) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Joins("JOIN tags ON tags.id = subscriptions.tag_id").
		Where("subscriptions.user_id = ?", userID).
		Order("tags.name ASC").
		Pluck("tags.name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (r *subscriptionRepository) ListUserIDsByTag(ctx context.Context, tagID uint) ([]uint, error) {
	var userIDs []uint
	err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("tag_id = ?", tagID).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}
