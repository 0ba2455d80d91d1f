package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/campuslink/campuslink-api/internal/repository"
)

// ModerationService covers message flagging, moderator hide/unhide, and the
// admin-only user and client management operations.
type ModerationService interface {
	FlagMessage(ctx context.Context, auth AuthContext, messageID uint, flagged bool) error
	SetHidden(ctx context.Context, auth AuthContext, messageID uint, hidden bool) error
	SetModerator(ctx context.Context, auth AuthContext, userID uint, moderator bool) error
	DeleteClientByPushToken(ctx context.Context, auth AuthContext, pushToken string) error
}

type moderationService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	clients  repository.ClientRepository
	auth     AuthService
	logger   zerolog.Logger
}

// NewModerationService constructs the moderation service.
func NewModerationService(messages repository.MessageRepository, users repository.UserRepository, clients repository.ClientRepository, auth AuthService, logger zerolog.Logger) ModerationService {
	return &moderationService{
		messages: messages,
		users:    users,
		clients:  clients,
		auth:     auth,
		logger:   logger.With().Str("component", "moderation_service").Logger(),
	}
}

// FlagMessage marks a message for moderator review. Any signed-in user may
// flag; clearing a flag is reserved for moderators.
func (s *moderationService) FlagMessage(ctx context.Context, auth AuthContext, messageID uint, flagged bool) error {
	if !flagged {
		if err := s.auth.RequireModerator(auth); err != nil {
			return err
		}
	}

	if _, err := s.messages.FindByID(ctx, messageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.messages.SetFlagged(ctx, messageID, flagged); err != nil {
		return err
	}

	s.logger.Info().Uint("message_id", messageID).Bool("flagged", flagged).Uint("by_user", auth.User.ID).Msg("message flag updated")
	return nil
}

// SetHidden hides or restores a message. Moderators only.
func (s *moderationService) SetHidden(ctx context.Context, auth AuthContext, messageID uint, hidden bool) error {
	if err := s.auth.RequireModerator(auth); err != nil {
		return err
	}

	if _, err := s.messages.FindByID(ctx, messageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.messages.SetHidden(ctx, messageID, hidden); err != nil {
		return err
	}

	s.logger.Info().Uint("message_id", messageID).Bool("hidden", hidden).Uint("by_user", auth.User.ID).Msg("message visibility updated")
	return nil
}

// SetModerator grants or revokes the moderator flag. Admins only.
func (s *moderationService) SetModerator(ctx context.Context, auth AuthContext, userID uint, moderator bool) error {
	if err := s.auth.RequireAdmin(auth); err != nil {
		return err
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.users.SetModerator(ctx, userID, moderator); err != nil {
		return err
	}

	s.logger.Info().Uint("user_id", userID).Bool("moderator", moderator).Uint("by_user", auth.User.ID).Msg("moderator flag updated")
	return nil
}

// DeleteClientByPushToken removes every client registration holding the given
// push token. Admins only; used to purge stale or abusive devices.
func (s *moderationService) DeleteClientByPushToken(ctx context.Context, auth AuthContext, pushToken string) error {
	if err := s.auth.RequireAdmin(auth); err != nil {
		return err
	}

	if pushToken == "" {
		return ErrBadRequest
	}

	deleted, err := s.clients.DeleteByPushToken(ctx, pushToken)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotFound
	}

	s.logger.Info().Int64("deleted", deleted).Uint("by_user", auth.User.ID).Msg("clients deleted by push token")
	return nil
}
