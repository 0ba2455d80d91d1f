package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/campuslink/campuslink-api/internal/models"
)

// EventRepository persists campus events.
type EventRepository interface {
	List(ctx context.Context) ([]models.Event, error)
	FindByID(ctx context.Context, id uint) (models.Event, error)
}

// CheckInRepository records event check-ins.
type CheckInRepository interface {
	Exists(ctx context.Context, eventID, userID uint) (bool, error)
	Create(ctx context.Context, checkIn *models.CheckIn) error
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository constructs an event repository backed by GORM.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) List(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := r.db.WithContext(ctx).Order("starts_at ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *eventRepository) FindByID(ctx context.Context, id uint) (models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return models.Event{}, err
	}
	return event, nil
}

type checkInRepository struct {
	db *gorm.DB
}

// NewCheckInRepository constructs a check-in repository backed by GORM.
func NewCheckInRepository(db *gorm.DB) CheckInRepository {
	return &checkInRepository{db: db}
}

func (r *checkInRepository) Exists(ctx context.Context, eventID, userID uint) (bool, error) {
	var checkIn models.CheckIn
	err := r.db.WithContext(ctx).Where("event_id = ? AND user_id = ?", eventID, userID).First(&checkIn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *checkInRepository) Create(ctx context.Context, checkIn *models.CheckIn) error {
	return r.db.WithContext(ctx).Create(checkIn).Error
}
