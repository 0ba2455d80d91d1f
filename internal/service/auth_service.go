package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/campuslink/campuslink-api/internal/models"
	"github.com/campuslink/campuslink-api/internal/repository"
	"github.com/campuslink/campuslink-api/pkg/googleauth"
)

// AuthContext is the resolved {client, user} pair attached to an authorized
// operation.
type AuthContext struct {
	Client models.Client
	User   models.User
}

// AuthService owns registration, Google sign-in/out and token resolution.
type AuthService interface {
	Register(ctx context.Context, deviceUUID string) (created bool, err error)
	SignIn(ctx context.Context, deviceUUID, googleIDToken string) (string, error)
	SignOut(ctx context.Context, auth AuthContext) error
	Resolve(ctx context.Context, token string) (AuthContext, error)
	RequireModerator(auth AuthContext) error
	RequireAdmin(auth AuthContext) error
	UpdatePushToken(ctx context.Context, auth AuthContext, pushToken string) error
}

type authService struct {
	clients repository.ClientRepository
	users   repository.UserRepository
	tokens  TokenService
	google  googleauth.Verifier
	logger  zerolog.Logger
	tracer  trace.Tracer
	timeout time.Duration
}

// NewAuthService constructs the auth resolver.
func NewAuthService(clients repository.ClientRepository, users repository.UserRepository, tokens TokenService, google googleauth.Verifier, timeout time.Duration, logger zerolog.Logger) AuthService {
	return &authService{
		clients: clients,
		users:   users,
		tokens:  tokens,
		google:  google,
		logger:  logger.With().Str("component", "auth_service").Logger(),
		tracer:  otel.Tracer("github.com/campuslink/campuslink-api/internal/service/auth"),
		timeout: timeout,
	}
}

func (s *authService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Register creates a client for the device UUID. Re-registering an existing
// UUID is a no-op success.
func (s *authService) Register(ctx context.Context, deviceUUID string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.clients.FindByUUID(ctx, deviceUUID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	client := models.Client{UUID: deviceUUID}
	if err := s.clients.Create(ctx, &client); err != nil {
		return false, err
	}

	s.logger.Info().Str("uuid", deviceUUID).Msg("client registered")

	return true, nil
}

// SignIn verifies the Google ID token, finds or creates the user, binds it to
// the client and issues a fresh session token. Profile fields are captured on
// first sign-in only; repeat sign-ins leave the stored record unchanged.
func (s *authService) SignIn(ctx context.Context, deviceUUID, googleIDToken string) (string, error) {
	spanCtx, span := s.tracer.Start(ctx, "auth.sign_in", trace.WithAttributes(
		attribute.String("auth.device_uuid", deviceUUID),
	))
	defer span.End()

	spanCtx, cancel := s.withTimeout(spanCtx)
	defer cancel()

	profile, err := s.google.Verify(spanCtx, googleIDToken)
	if err != nil {
		s.logger.Warn().Err(err).Msg("google token verification failed")
		return "", ErrUnauthorized
	}

	client, err := s.clients.FindByUUID(spanCtx, deviceUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUnauthorized
		}
		span.RecordError(err)
		return "", err
	}

	user, err := s.findOrCreateUser(spanCtx, profile)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	if err := s.clients.SetSignedInUser(spanCtx, client.ID, user.ID); err != nil {
		span.RecordError(err)
		return "", err
	}

	token, err := s.tokens.Issue(deviceUUID, user.ID)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	s.logger.Info().Str("uuid", deviceUUID).Uint("user_id", user.ID).Msg("client signed in")

	return token, nil
}

func (s *authService) findOrCreateUser(ctx context.Context, profile googleauth.Profile) (models.User, error) {
	user, err := s.users.FindByGoogleID(ctx, profile.GoogleID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, err
	}

	user = models.User{
		GoogleID:  profile.GoogleID,
		Email:     profile.Email,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return models.User{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user created on first sign-in")

	return user, nil
}

// SignOut clears the client's signed-in-user reference, which immediately
// invalidates every outstanding token for that client.
func (s *authService) SignOut(ctx context.Context, auth AuthContext) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.clients.ClearSignedInUser(ctx, auth.Client.ID); err != nil {
		return err
	}

	s.logger.Info().Str("uuid", auth.Client.UUID).Msg("client signed out")

	return nil
}

// Resolve turns a session token into an AuthContext or fails with
// ErrUnauthorized. The signed-in-user equality check is the revocation
// mechanism: a signed-out client fails here even though the token itself is
// still cryptographically valid.
func (s *authService) Resolve(ctx context.Context, token string) (AuthContext, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return AuthContext{}, ErrUnauthorized
	}

	client, err := s.clients.FindByUUID(ctx, claims.UUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AuthContext{}, ErrUnauthorized
		}
		return AuthContext{}, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AuthContext{}, ErrUnauthorized
		}
		return AuthContext{}, err
	}

	if client.SignedInUserID == nil || *client.SignedInUserID != user.ID {
		return AuthContext{}, ErrUnauthorized
	}

	return AuthContext{Client: client, User: user}, nil
}

func (s *authService) RequireModerator(auth AuthContext) error {
	if !auth.User.IsModerator {
		return ErrUnauthorized
	}
	return nil
}

func (s *authService) RequireAdmin(auth AuthContext) error {
	if !auth.User.IsAdmin {
		return ErrUnauthorized
	}
	return nil
}

// UpdatePushToken stores the client's push notification token.
func (s *authService) UpdatePushToken(ctx context.Context, auth AuthContext, pushToken string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.clients.UpdatePushToken(ctx, auth.Client.ID, pushToken)
}
