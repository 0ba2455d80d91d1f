package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/campuslink/campuslink-api/internal/models"
)

// ClientRepository persists device registrations and their sign-in state.
type ClientRepository interface {
	FindByUUID(ctx context.Context, uuid string) (models.Client, error)
	Create(ctx context.Context, client *models.Client) error
	UpdatePushToken(ctx context.Context, clientID uint, pushToken string) error
	SetSignedInUser(ctx context.Context, clientID uint, userID uint) error
	ClearSignedInUser(ctx context.Context, clientID uint) error
	ListByUserWithPushToken(ctx context.Context, userIDs []uint) ([]models.Client, error)
	DeleteByPushToken(ctx context.Context, pushToken string) (int64, error)
}

type clientRepository struct {
	db *gorm.DB
}

// NewClientRepository constructs a client repository backed by GORM.
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) FindByUUID(ctx context.Context, uuid string) (models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).Where("uuid = ?", uuid).First(&client).Error; err != nil {
		return models.Client{}, err
	}
	return client, nil
}

func (r *clientRepository) Create(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *clientRepository) UpdatePushToken(ctx context.Context, clientID uint, pushToken string) error {
	return r.db.WithContext(ctx).Model(&models.Client{}).Where("id = ?", clientID).
		Update("push_token", pushToken).Error
}

func (r *clientRepository) SetSignedInUser(ctx context.Context, clientID uint, userID uint) error {
	return r.db.WithContext(ctx).Model(&models.Client{}).Where("id = ?", clientID).
		Update("signed_in_user_id", userID).Error
}

func (r *clientRepository) ClearSignedInUser(ctx context.Context, clientID uint) error {
	return r.db.WithContext(ctx).Model(&models.Client{}).Where("id = ?", clientID).
		Update("signed_in_user_id", nil).Error
}

func (r *clientRepository) ListByUserWithPushToken(ctx context.Context, userIDs []uint) ([]models.Client, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	var clients []models.Client
	err := r.db.WithContext(ctx).
		Where("signed_in_user_id IN ?", userIDs).
		Where("push_token <> ''").
		Find(&clients).Error
	if err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *clientRepository) DeleteByPushToken(ctx context.Context, pushToken string) (int64, error) {
	result := r.db.WithContext(ctx).Where("push_token = ?", pushToken).Delete(&models.Client{})
	return result.RowsAffected, result.Error
}
