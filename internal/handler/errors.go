package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/eventphotos-backend/internal/models"
	"github.com/sefazor/eventphotos-backend/internal/service"
	"go.uber.org/zap"
)

// respondError maps service errors onto status codes and the response envelope.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(models.ValidationErrorResponse(validationErr.Message, validationErr.Fields))
	case errors.Is(err, service.ErrEventNotFound):
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse("Event not found"))
	case errors.Is(err, service.ErrPhotoNotFound):
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse("Photo not found"))
	case errors.Is(err, service.ErrPackageNotFound):
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse("Package not found"))
	case errors.Is(err, service.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(models.ErrorResponse("You don't have permission to perform this action"))
	case errors.Is(err, service.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(models.ErrorResponse(service.ErrInvalidTransition.Error()))
	case errors.Is(err, service.ErrCapacityExceeded),
		errors.Is(err, service.ErrNoPhotosSelected),
		errors.Is(err, service.ErrEmptyArchive):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(models.ErrorResponse(err.Error()))
	}

	logger.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Internal server error"))
}

func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
