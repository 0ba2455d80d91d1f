package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campuslink/campuslink-api/internal/middleware"
	"github.com/campuslink/campuslink-api/internal/service"
	"github.com/campuslink/campuslink-api/internal/utils"
)

// TagHandler handles tag listing and subscription management.
type TagHandler struct {
	service service.TagService
	logger  zerolog.Logger
}

// NewTagHandler constructs the tag handler.
func NewTagHandler(service service.TagService, logger zerolog.Logger) *TagHandler {
	return &TagHandler{
		service: service,
		logger:  logger.With().Str("component", "tag_handler").Logger(),
	}
}

// Register wires public tag routes.
func (h *TagHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

// RegisterProtected wires subscription routes.
func (h *TagHandler) RegisterProtected(router fiber.Router) {
	router.Post("/:name/subscription", h.subscribe)
	router.Delete("/:name/subscription", h.unsubscribe)
}

func (h *TagHandler) list(c *fiber.Ctx) error {
	tags, err := h.service.List(c.UserContext())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list tags")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list tags")
	}

	return utils.SendSuccess(c, "tags retrieved", tags)
}

func (h *TagHandler) subscribe(c *fiber.Ctx) error {
	authCtx, ok := middleware.AuthFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authorized")
	}

	if err := h.service.Subscribe(c.UserContext(), authCtx, c.Params("name")); err != nil {
		return sendServiceError(c, err, "subscription failed")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "subscribed", nil)
}

func (h *TagHandler) unsubscribe(c *fiber.Ctx) error {
	authCtx, ok := middleware.AuthFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authorized")
	}

	if err := h.service.Unsubscribe(c.UserContext(), authCtx, c.Params("name")); err != nil {
		return sendServiceError(c, err, "unsubscribe failed")
	}

	return utils.SendSuccess(c, "unsubscribed", nil)
}
