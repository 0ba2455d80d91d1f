package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campuslink/campuslink-api/internal/dto"
	"github.com/campuslink/campuslink-api/internal/middleware"
	"github.com/campuslink/campuslink-api/internal/service"
	"github.com/campuslink/campuslink-api/internal/utils"
)

// ModerationHandler exposes the flag, hide, moderator-grant and client-purge
// operations.
type ModerationHandler struct {
	service   service.ModerationService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewModerationHandler constructs the moderation handler.
func NewModerationHandler(service service.ModerationService, validator *validator.Validate, logger zerolog.Logger) *ModerationHandler {
	return &ModerationHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "moderation_handler").Logger(),
	}
}

// RegisterProtected wires moderation routes. Privilege checks live in the
// service so the websocket path enforces the same rules.
func (h *ModerationHandler) RegisterProtected(router fiber.Router) {
	router.Put("/messages/:id/flagged", h.setFlagged)
	router.Put("/messages/:id/hidden", h.setHidden)
	router.Put("/users/:id/moderator", h.setModerator)
	router.Delete("/admin/clients/:pushToken", h.deleteClient)
}

func (h *ModerationHandler) setFlagged(c *fiber.Ctx) error {
	authCtx, ok := middleware.AuthFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authorized")
	}

	messageID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid message id")
	}

	var req dto.FlaggedUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.FlagMessage(c.UserContext(), authCtx, messageID, *req.Flagged); err != nil {
		return sendServiceError(c, err, "failed to update flag")
	}

	return utils.SendSuccess(c, "flag updated", nil)
}

func (h *ModerationHandler) setHidden(c *fiber.Ctx) error {
	authCtx, ok := middleware.AuthFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authorized")
	}

	messageID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid message id")
	}

	var req dto.HiddenUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.SetHidden(c.UserContext(), authCtx, messageID, *req.Hidden); err != nil {
		return sendServiceError(c, err, "failed to update visibility")
	}

	return utils.SendSuccess(c, "visibility updated", nil)
}

func (h *ModerationHandler) setModerator(c *fiber.Ctx) error {
	authCtx, ok := middleware.AuthFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authorized")
	}

	userID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid user id")
	}

	var req dto.ModeratorUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.SetModerator(c.UserContext(), authCtx, userID, *req.Moderator); err != nil {
		return sendServiceError(c, err, "failed to update moderator flag")
	}

	return utils.SendSuccess(c, "moderator flag updated", nil)
}

func (h *ModerationHandler) deleteClient(c *fiber.Ctx) error {
	authCtx, ok := middleware.AuthFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authorized")
	}

	if err := h.service.DeleteClientByPushToken(c.UserContext(), authCtx, c.Params("pushToken")); err != nil {
		return sendServiceError(c, err, "failed to delete clients")
	}

	return utils.SendSuccess(c, "clients deleted", nil)
}
