package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campuslink/campuslink-api/internal/dto"
	"github.com/campuslink/campuslink-api/internal/service"
	"github.com/campuslink/campuslink-api/internal/utils"
)

// UploadHandler accepts media uploads for photo and video message bodies.
type UploadHandler struct {
	service service.UploadService
	logger  zerolog.Logger
}

// NewUploadHandler constructs the upload handler.
func NewUploadHandler(service service.UploadService, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		service: service,
		logger:  logger.With().Str("component", "upload_handler").Logger(),
	}
}

// RegisterProtected wires the upload route.
func (h *UploadHandler) RegisterProtected(router fiber.Router) {
	router.Post("/uploads", h.upload)
}

func (h *UploadHandler) upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "failed to read file")
	}
	defer file.Close()

	url, err := h.service.UploadMedia(c.UserContext(), fileHeader.Filename, file)
	if err != nil {
		return sendServiceError(c, err, "upload failed")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "upload successful", dto.UploadResponse{URL: url})
}
