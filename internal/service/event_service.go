package service

import (
	"context"
	"errors"
	"strconv"

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

const leaderboardKey = "campuslink:leaderboard"

// EventService handles event check-ins and the points leaderboard.
type EventService interface {
	List(ctx context.Context) ([]dto.EventResponse, error)
	CheckIn(ctx context.Context, auth AuthContext, eventID uint) error
	Leaderboard(ctx context.Context, limit int) ([]dto.LeaderboardEntry, error)
}

type eventService struct {
	events   repository.EventRepository
	checkIns repository.CheckInRepository
	users    repository.UserRepository
	redis    *redis.Client
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewEventService constructs the event check-in service.
func NewEventService(events repository.EventRepository, checkIns repository.CheckInRepository, users repository.UserRepository, redisClient *redis.Client, logger zerolog.Logger) EventService {
	return &eventService{
		events:   events,
		checkIns: checkIns,
		users:    users,
		redis:    redisClient,
		logger:   logger.With().Str("component", "event_service").Logger(),
		tracer:   otel.Tracer("github.com/campuslink/campuslink-api/internal/service/event"),
	}
}

func (s *eventService) List(ctx context.Context) ([]dto.EventResponse, error) {
	events, err := s.events.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewEventResponseSlice(events), nil
}

// CheckIn records the user's check-in and awards the event's points. A repeat
// check-in returns ErrAlreadyCheckedIn and awards nothing.
func (s *eventService) CheckIn(ctx context.Context, auth AuthContext, eventID uint) error {
	spanCtx, span := s.tracer.Start(ctx, "events.check_in", trace.WithAttributes(
		attribute.Int("event.id", int(eventID)),
	))
	defer span.End()

	event, err := s.events.FindByID(spanCtx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		span.RecordError(err)
		return err
	}

	exists, err := s.checkIns.Exists(spanCtx, event.ID, auth.User.ID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if exists {
		return ErrAlreadyCheckedIn
	}

	checkIn := models.CheckIn{EventID: event.ID, UserID: auth.User.ID}
	if err := s.checkIns.Create(spanCtx, &checkIn); err != nil {
		span.RecordError(err)
		return err
	}

	if s.redis != nil {
		member := strconv.FormatUint(uint64(auth.User.ID), 10)
		if err := s.redis.ZIncrBy(spanCtx, leaderboardKey, float64(event.Points), member).Err(); err != nil {
			span.RecordError(err)
			return err
		}
	}

	observability.CheckIns().Inc()
	s.logger.Info().Uint("event_id", event.ID).Uint("user_id", auth.User.ID).Int("points", event.Points).Msg("event check-in recorded")

	return nil
}

// Leaderboard returns the top scorers in descending points order.
func (s *eventService) Leaderboard(ctx context.Context, limit int) ([]dto.LeaderboardEntry, error) {
	if s.redis == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	scores, err := s.redis.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(scores))
	for _, score := range scores {
		member, ok := score.Member.(string)
		if !ok {
			continue
		}
		id, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	names := make(map[uint]string, len(users))
	for _, user := range users {
		names[user.ID] = user.DisplayName()
	}

	entries := make([]dto.LeaderboardEntry, 0, len(scores))
	for _, score := range scores {
		member, ok := score.Member.(string)
		if !ok {
			continue
		}
		id, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, dto.LeaderboardEntry{
			UserID: uint(id),
			Name:   names[uint(id)],
			Points: int(score.Score),
		})
	}

	return entries, nil
}
