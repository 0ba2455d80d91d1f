package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campuslink/campuslink-api/internal/middleware"
	"github.com/campuslink/campuslink-api/internal/service"
	"github.com/campuslink/campuslink-api/internal/utils"
)

// EventHandler exposes campus events, check-ins and the leaderboard.
type EventHandler struct {
	service service.EventService
	logger  zerolog.Logger
}

// NewEventHandler constructs the event handler.
func NewEventHandler(service service.EventService, logger zerolog.Logger) *EventHandler {
	return &EventHandler{
		service: service,
		logger:  logger.With().Str("component", "event_handler").Logger(),
	}
}

// Register wires public event routes.
func (h *EventHandler) Register(router fiber.Router) {
	router.Get("/events", h.list)
	router.Get("/leaderboard", h.leaderboard)
}

// RegisterProtected wires check-in routes.
func (h *EventHandler) RegisterProtected(router fiber.Router) {
	router.Post("/events/:id/checkIn", h.checkIn)
}

func (h *EventHandler) list(c *fiber.Ctx) error {
	events, err := h.service.List(c.UserContext())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list events")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list events")
	}

	return utils.SendSuccess(c, "events retrieved", events)
}

func (h *EventHandler) checkIn(c *fiber.Ctx) error {
	authCtx, ok := middleware.AuthFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authorized")
	}

	eventID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid event id")
	}

	if err := h.service.CheckIn(c.UserContext(), authCtx, eventID); err != nil {
		return sendServiceError(c, err, "check-in failed")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "checked in", nil)
}

func (h *EventHandler) leaderboard(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil || limit < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	entries, err := h.service.Leaderboard(c.UserContext(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load leaderboard")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load leaderboard")
	}

	return utils.SendSuccess(c, "leaderboard retrieved", entries)
}
