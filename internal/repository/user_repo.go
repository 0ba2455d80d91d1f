package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/campuslink/campuslink-api/internal/models"
)

// UserRepository persists Google-backed user accounts.
type UserRepository interface {
	FindByID(ctx context.Context, id uint) (models.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (models.User, error)
	Create(ctx context.Context, user *models.User) error
	SetModerator(ctx context.Context, userID uint, moderator bool) error
	FindByIDs(ctx context.Context, ids []uint) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a user repository backed by GORM.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) FindByGoogleID(ctx context.Context, googleID string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("google_id = ?", googleID).First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) SetModerator(ctx context.Context, userID uint, moderator bool) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Update("is_moderator", moderator).Error
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
