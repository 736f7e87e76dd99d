package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/eventphotos-backend/internal/models"
	"github.com/sefazor/eventphotos-backend/internal/service"
	"go.uber.org/zap"
)

// PublicHandler, misafir sayfası ve misafir yüklemeleri (auth yok)
type PublicHandler struct {
	eventService *service.EventService
	photoService *service.PhotoService
	logger       *zap.Logger
}

func NewPublicHandler(eventService *service.EventService, photoService *service.PhotoService, logger *zap.Logger) *PublicHandler {
	return &PublicHandler{
		eventService: eventService,
		photoService: photoService,
		logger:       logger,
	}
}

func (h *PublicHandler) GetEvent(c *fiber.Ctx) error {
	event, err := h.eventService.GetPublishedEvent(c.UserContext(), c.Params("slug"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(event, "Event retrieved successfully"))
}

func (h *PublicHandler) Upload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid multipart form"))
	}

	files, err := toUploadFiles(formFiles(form))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Failed to read uploaded files"))
	}

	result, err := h.photoService.GuestUpload(c.UserContext(), c.Params("slug"), service.GuestUploadRequest{
		Files:         files,
		UploaderName:  formValue(form, "uploader_name"),
		UploaderEmail: formValue(form, "uploader_email"),
		UploaderIP:    c.IP(),
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(fiber.Map{"count": len(result.Photos)}, result.Message))
}
