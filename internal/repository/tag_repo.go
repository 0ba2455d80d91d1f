package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/campuslink/campuslink-api/internal/models"
)

// TagRepository persists the named topics messages attach to.
type TagRepository interface {
	FindByName(ctx context.Context, name string) (models.Tag, error)
	List(ctx context.Context) ([]models.Tag, error)
	Create(ctx context.Context, tag *models.Tag) error
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository constructs a tag repository backed by GORM.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) FindByName(ctx context.Context, name string) (models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&tag).Error; err != nil {
		return models.Tag{}, err
	}
	return tag, nil
}

func (r *tagRepository) List(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) Create(ctx context.Context, tag *models.Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}
