package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/campuslink/campuslink-api/internal/dto"
	"github.com/campuslink/campuslink-api/internal/repository"
)

// TagService lists tags and manages the signed-in user's subscriptions.
type TagService interface {
	List(ctx context.Context) ([]dto.TagResponse, error)
	Subscribe(ctx context.Context, auth AuthContext, tagName string) error
	Unsubscribe(ctx context.Context, auth AuthContext, tagName string) error
}

type tagService struct {
	tags          repository.TagRepository
	subscriptions repository.SubscriptionRepository
	logger        zerolog.Logger
}

// NewTagService constructs the tag service.
func NewTagService(tags repository.TagRepository, subscriptions repository.SubscriptionRepository, logger zerolog.Logger) TagService {
	return &tagService{
		tags:          tags,
		subscriptions: subscriptions,
		logger:        logger.With().Str("component", "tag_service").Logger(),
	}
}

func (s *tagService) List(ctx context.Context) ([]dto.TagResponse, error) {
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewTagResponseSlice(tags), nil
}

// Subscribe is idempotent: subscribing to an already-subscribed tag succeeds.
func (s *tagService) Subscribe(ctx context.Context, auth AuthContext, tagName string) error {
	tag, err := s.tags.FindByName(ctx, tagName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTagNotFound
		}
		return err
	}

	return s.subscriptions.Subscribe(ctx, auth.User.ID, tag.ID)
}

// Unsubscribe is idempotent: unsubscribing from a non-subscribed tag succeeds.
func (s *tagService) Unsubscribe(ctx context.Context, auth AuthContext, tagName string) error {
	tag, err := s.tags.FindByName(ctx, tagName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTagNotFound
		}
		return err
	}

	return s.subscriptions.Unsubscribe(ctx, auth.User.ID, tag.ID)
}
