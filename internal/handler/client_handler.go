package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campuslink/campuslink-api/internal/dto"
	"github.com/campuslink/campuslink-api/internal/middleware"
	"github.com/campuslink/campuslink-api/internal/service"
	"github.com/campuslink/campuslink-api/internal/utils"
)

// ClientHandler handles device registration and the Google account session
// lifecycle.
type ClientHandler struct {
	auth      service.AuthService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewClientHandler constructs the client handler.
func NewClientHandler(auth service.AuthService, validator *validator.Validate, logger zerolog.Logger) *ClientHandler {
	return &ClientHandler{
		auth:      auth,
		validator: validator,
		logger:    logger.With().Str("component", "client_handler").Logger(),
	}
}

// Register wires public client routes.
func (h *ClientHandler) Register(router fiber.Router) {
	router.Post("/register", h.register)
	router.Post("/signInToGoogleAccount", h.signIn)
}

// RegisterProtected wires routes that require a resolved session.
func (h *ClientHandler) RegisterProtected(router fiber.Router) {
	router.Post("/signOutFromGoogleAccount", h.signOut)
	router.Get("/GoogleAccountPermissions", h.permissions)
	router.Put("/pushToken", h.updatePushToken)
}

func (h *ClientHandler) register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	created, err := h.auth.Register(c.UserContext(), req.UUID)
	if err != nil {
		h.logger.Error().Err(err).Msg("client registration failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "registration failed")
	}

	if created {
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "client registered", nil)
	}
	return utils.SendSuccess(c, "client already registered", nil)
}

func (h *ClientHandler) signIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	token, err := h.auth.SignIn(c.UserContext(), req.UUID, req.GoogleIDToken)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			return utils.SendError(c, fiber.StatusUnauthorized, "not authorized")
		}
		h.logger.Error().Err(err).Msg("sign-in failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "sign-in failed")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "signed in", dto.TokenResponse{JSONWebToken: token})
}

func (h *ClientHandler) signOut(c *fiber.Ctx) error {
	authCtx, ok := middleware.AuthFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authorized")
	}

	if err := h.auth.SignOut(c.UserContext(), authCtx); err != nil {
		h.logger.Error().Err(err).Msg("sign-out failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "sign-out failed")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "signed out", nil)
}

func (h *ClientHandler) permissions(c *fiber.Ctx) error {
	authCtx, ok := middleware.AuthFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authorized")
	}

	return utils.SendSuccess(c, "permissions retrieved", dto.PermissionsResponse{
		Moderator: authCtx.User.IsModerator,
		Admin:     authCtx.User.IsAdmin,
	})
}

func (h *ClientHandler) updatePushToken(c *fiber.Ctx) error {
	authCtx, ok := middleware.AuthFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authorized")
	}

	var req dto.PushTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.auth.UpdatePushToken(c.UserContext(), authCtx, req.PushToken); err != nil {
		h.logger.Error().Err(err).Msg("push token update failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "push token update failed")
	}

	return utils.SendSuccess(c, "push token updated", nil)
}
