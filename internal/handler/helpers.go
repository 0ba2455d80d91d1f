package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/campuslink/campuslink-api/internal/service"
	"github.com/campuslink/campuslink-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseParamID(c *fiber.Ctx, key string) (uint, error) {
	parsed, err := strconv.ParseUint(c.Params(key), 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(parsed), nil
}

// sendServiceError maps the service error taxonomy onto HTTP statuses.
func sendServiceError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		// Bad credentials and insufficient privilege are indistinguishable on
		// the wire: both are the same unauthorized outcome.
		return utils.SendError(c, fiber.StatusUnauthorized, "not authorized")
	case errors.Is(err, service.ErrTagNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "tag does not exist")
	case errors.Is(err, service.ErrNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "not found")
	case errors.Is(err, service.ErrBadRequest):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAlreadyCheckedIn):
		return utils.SendError(c, fiber.StatusConflict, "already checked in")
	default:
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
