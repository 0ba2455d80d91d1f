package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/campuslink/campuslink-api/internal/dto"
	"github.com/campuslink/campuslink-api/internal/models"
	"github.com/campuslink/campuslink-api/internal/observability"
	"github.com/campuslink/campuslink-api/internal/repository"
)

const (
	lastMessageCachePrefix = "campuslink:messages:last"
	lastMessageCacheTTL    = 30 * time.Minute
)

// NotificationDispatcher hands a posted message to the notification pipeline.
// Dispatch is fire-and-forget: failures are the pipeline's to log.
type NotificationDispatcher interface {
	Dispatch(job NotificationJob)
}

// NotificationJob carries everything the notification fan-out needs.
type NotificationJob struct {
	TagID        uint   `json:"tag_id"`
	TagName      string `json:"tag_name"`
	AuthorUserID uint   `json:"author_user_id"`
	AuthorName   string `json:"author_name"`
	Type         string `json:"type"`
	Text         string `json:"text"`
}

// MessageService persists messages and fans them out to the tag's room.
type MessageService interface {
	Post(ctx context.Context, auth AuthContext, tagName string, body dto.MessageBody) (dto.MessageResponse, error)
	List(ctx context.Context, auth AuthContext, query dto.MessageHistoryQuery) ([]dto.MessageResponse, error)
	LastMessage(ctx context.Context, tagName string) *dto.MessageResponse
}

type messageService struct {
	messages      repository.MessageRepository
	tags          repository.TagRepository
	users         repository.UserRepository
	notifications NotificationDispatcher
	broadcaster   Broadcaster
	redis         *redis.Client
	validator     *validator.Validate
	sanitizer     *bluemonday.Policy
	logger        zerolog.Logger
	tracer        trace.Tracer
}

// NewMessageService constructs the message fan-out engine.
func NewMessageService(messages repository.MessageRepository, tags repository.TagRepository, users repository.UserRepository, notifications NotificationDispatcher, broadcaster Broadcaster, redisClient *redis.Client, validate *validator.Validate, logger zerolog.Logger) MessageService {
	return &messageService{
		messages:      messages,
		tags:          tags,
		users:         users,
		notifications: notifications,
		broadcaster:   broadcaster,
		redis:         redisClient,
		validator:     validate,
		sanitizer:     bluemonday.StrictPolicy(),
		logger:        logger.With().Str("component", "message_service").Logger(),
		tracer:        otel.Tracer("github.com/campuslink/campuslink-api/internal/service/message"),
	}
}

// Post validates and persists the message, broadcasts it to the tag's room,
// then hands it to the notification pipeline. Broadcast and persistence are
// synchronous with the caller; notification delivery is fire-and-forget.
func (s *messageService) Post(ctx context.Context, auth AuthContext, tagName string, body dto.MessageBody) (dto.MessageResponse, error) {
	if err := s.validator.Struct(body); err != nil {
		return dto.MessageResponse{}, fmt.Errorf("%w: %s", ErrBadRequest, err.Error())
	}

	tag, err := s.tags.FindByName(ctx, tagName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MessageResponse{}, ErrTagNotFound
		}
		return dto.MessageResponse{}, err
	}

	clean := strings.TrimSpace(s.sanitizer.Sanitize(body.Text))
	switch body.Type {
	case models.MessageTypeText:
		if clean == "" {
			return dto.MessageResponse{}, fmt.Errorf("%w: message text empty", ErrBadRequest)
		}
	case models.MessageTypePhoto, models.MessageTypeVideo:
		if body.MediaURL == "" {
			return dto.MessageResponse{}, fmt.Errorf("%w: media url required", ErrBadRequest)
		}
	default:
		return dto.MessageResponse{}, fmt.Errorf("%w: unknown message type", ErrBadRequest)
	}

	spanCtx, span := s.tracer.Start(ctx, "messages.post", trace.WithAttributes(
		attribute.String("message.tag", tagName),
		attribute.String("message.type", body.Type),
	))
	defer span.End()

	model := models.Message{
		TagID:    tag.ID,
		UserID:   auth.User.ID,
		Type:     body.Type,
		Content:  clean,
		MediaURL: body.MediaURL,
	}

	if err := s.messages.Create(spanCtx, &model); err != nil {
		span.RecordError(err)
		return dto.MessageResponse{}, err
	}

	response := dto.NewMessageResponse(model, tagName, auth.User.DisplayName())
	s.cacheLastMessage(spanCtx, response)
	s.broadcaster.Broadcast(tagName, dto.ServerFrame{
		Event:   dto.EventNewMessage,
		TagName: tagName,
		Message: &response,
	})

	s.notifications.Dispatch(NotificationJob{
		TagID:        tag.ID,
		TagName:      tagName,
		AuthorUserID: auth.User.ID,
		AuthorName:   auth.User.DisplayName(),
		Type:         model.Type,
		Text:         model.Content,
	})

	observability.MessagesPosted().WithLabelValues(model.Type).Inc()

	return response, nil
}

// List pages through a tag's messages by ID comparison. Hidden messages are
// visible to moderators only.
func (s *messageService) List(ctx context.Context, auth AuthContext, query dto.MessageHistoryQuery) ([]dto.MessageResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadRequest, err.Error())
	}

	tag, err := s.tags.FindByName(ctx, query.TagName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}

	messages, err := s.messages.ListByTag(ctx, tag.ID, repository.MessageFilter{
		BeforeID:      query.BeforeID,
		AfterID:       query.AfterID,
		Limit:         query.Limit,
		IncludeHidden: auth.User.IsModerator,
	})
	if err != nil {
		return nil, err
	}

	authorNames, err := s.authorNames(ctx, messages)
	if err != nil {
		return nil, err
	}

	out := make([]dto.MessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, dto.NewMessageResponse(message, query.TagName, authorNames[message.UserID]))
	}
	return out, nil
}

func (s *messageService) authorNames(ctx context.Context, messages []models.Message) (map[uint]string, error) {
	seen := make(map[uint]struct{}, len(messages))
	ids := make([]uint, 0, len(messages))
	for _, message := range messages {
		if _, ok := seen[message.UserID]; !ok {
			seen[message.UserID] = struct{}{}
			ids = append(ids, message.UserID)
		}
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	names := make(map[uint]string, len(users))
	for _, user := range users {
		names[user.ID] = user.DisplayName()
	}
	return names, nil
}

func (s *messageService) cacheLastMessage(ctx context.Context, message dto.MessageResponse) {
	if s.redis == nil {
		return
	}

	payload, err := json.Marshal(message)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal message for cache")
		return
	}

	key := fmt.Sprintf("%s:%s", lastMessageCachePrefix, message.TagName)
	if err := s.redis.Set(ctx, key, payload, lastMessageCacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache last message")
	}
}

// LastMessage returns the cached most recent message for the tag, if any.
func (s *messageService) LastMessage(ctx context.Context, tagName string) *dto.MessageResponse {
	if s.redis == nil {
		return nil
	}

	key := fmt.Sprintf("%s:%s", lastMessageCachePrefix, tagName)
	result, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return nil
	}

	var message dto.MessageResponse
	if err := json.Unmarshal([]byte(result), &message); err != nil {
		s.logger.Warn().Err(err).Msg("failed to unmarshal cached message")
		return nil
	}

	return &message
}
