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

// MessageHandler covers the REST side of messaging: history and posting.
// Realtime delivery goes through the websocket.
type MessageHandler struct {
	service   service.MessageService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewMessageHandler constructs the message handler.
func NewMessageHandler(service service.MessageService, validator *validator.Validate, logger zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "message_handler").Logger(),
	}
}

// RegisterProtected wires message routes.
func (h *MessageHandler) RegisterProtected(router fiber.Router) {
	router.Get("/messages", h.history)
	router.Post("/tags/:name/messages", h.post)
}

func (h *MessageHandler) history(c *fiber.Ctx) error {
	authCtx, ok := middleware.AuthFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authorized")
	}

	beforeID, err := parseQueryInt(c, "before_id")
	if err != nil || beforeID < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid before_id")
	}
	afterID, err := parseQueryInt(c, "after_id")
	if err != nil || afterID < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid after_id")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil || limit < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	query := dto.MessageHistoryQuery{
		TagName:  c.Query("tag_name"),
		BeforeID: uint(beforeID),
		AfterID:  uint(afterID),
		Limit:    limit,
	}

	messages, err := h.service.List(c.UserContext(), authCtx, query)
	if err != nil {
		return sendServiceError(c, err, "failed to list messages")
	}

	return utils.SendSuccess(c, "messages retrieved", messages)
}

func (h *MessageHandler) post(c *fiber.Ctx) error {
	authCtx, ok := middleware.AuthFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "not authorized")
	}

	var body dto.MessageBody
	if err := c.BodyParser(&body); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	message, err := h.service.Post(c.UserContext(), authCtx, c.Params("name"), body)
	if err != nil {
		return sendServiceError(c, err, "failed to post message")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "message posted", message)
}
