package handler

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/eventphotos-backend/internal/middleware"
	"github.com/sefazor/eventphotos-backend/internal/models"
	"github.com/sefazor/eventphotos-backend/internal/service"
	"github.com/sefazor/eventphotos-backend/pkg/utils"
	"go.uber.org/zap"
)

type PhotoHandler struct {
	photoService      *service.PhotoService
	moderationService *service.ModerationService
	exportService     *service.ExportService
	validator         *utils.Validator
	logger            *zap.Logger
}

func NewPhotoHandler(
	photoService *service.PhotoService,
	moderationService *service.ModerationService,
	exportService *service.ExportService,
	validator *utils.Validator,
	logger *zap.Logger,
) *PhotoHandler {
	return &PhotoHandler{
		photoService:      photoService,
		moderationService: moderationService,
		exportService:     exportService,
		validator:         validator,
		logger:            logger,
	}
}

func (h *PhotoHandler) toResponses(photos []models.EventPhoto) []models.PhotoResponse {
	responses := make([]models.PhotoResponse, 0, len(photos))
	for _, photo := range photos {
		responses = append(responses, models.NewPhotoResponse(photo, h.photoService.PhotoURL))
	}
	return responses
}

func (h *PhotoHandler) UploadEventPhotos(c *fiber.Ctx) error {
	eventID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid event ID"))
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid multipart form"))
	}
	files, err := toUploadFiles(formFiles(form))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Failed to read uploaded files"))
	}

	result, err := h.photoService.OwnerUpload(c.UserContext(), eventID, middleware.UserID(c), service.OwnerUploadRequest{
		Files:      files,
		OwnerEmail: middleware.UserEmail(c),
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(h.toResponses(result.Photos), result.Message))
}

func (h *PhotoHandler) GetEventPhotos(c *fiber.Ctx) error {
	eventID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid event ID"))
	}

	photos, err := h.moderationService.ListEventPhotos(c.UserContext(), eventID, middleware.UserID(c), models.PhotoStatus(c.Query("status")))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(models.SuccessResponse(h.toResponses(photos), "Photos retrieved successfully"))
}

func (h *PhotoHandler) ReorderPhotos(c *fiber.Ctx) error {
	eventID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid event ID"))
	}

	var req models.ReorderPhotosRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(models.ValidationErrorResponse("The given data was invalid.", utils.FieldErrors(err)))
	}

	updated, err := h.moderationService.Reorder(c.UserContext(), eventID, middleware.UserID(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(models.SuccessResponse(fiber.Map{"updated": updated}, "Photo order updated successfully"))
}

func (h *PhotoHandler) BulkDelete(c *fiber.Ctx) error {
	eventID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid event ID"))
	}

	var req models.BulkDeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(models.ValidationErrorResponse("The given data was invalid.", utils.FieldErrors(err)))
	}

	deleted, err := h.moderationService.BulkDelete(c.UserContext(), eventID, middleware.UserID(c), req.PhotoIDs)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(models.SuccessResponse(fiber.Map{"deleted": deleted}, strconv.FormatInt(deleted, 10)+" photos deleted successfully"))
}

// DownloadAll streams the event archive; the temp file is removed when the
// body stream is closed.
func (h *PhotoHandler) DownloadAll(c *fiber.Ctx) error {
	eventID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid event ID"))
	}

	archive, err := h.exportService.BuildArchive(c.UserContext(), eventID, middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	c.Attachment(archive.Filename)
	c.Set(fiber.HeaderContentType, "application/zip")
	return c.SendStream(archive, int(archive.Size))
}

func (h *PhotoHandler) ApprovePhoto(c *fiber.Ctx) error {
	return h.moderate(c, h.moderationService.Approve, "Photo approved successfully")
}

func (h *PhotoHandler) RejectPhoto(c *fiber.Ctx) error {
	return h.moderate(c, h.moderationService.Reject, "Photo rejected successfully")
}

func (h *PhotoHandler) SetCover(c *fiber.Ctx) error {
	return h.moderate(c, h.moderationService.SetCover, "Cover photo updated successfully")
}

func (h *PhotoHandler) moderate(c *fiber.Ctx, action func(context.Context, uint, uint) (*models.EventPhoto, error), message string) error {
	photoID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid photo ID"))
	}

	photo, err := action(c.UserContext(), photoID, middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(models.SuccessResponse(models.NewPhotoResponse(*photo, h.photoService.PhotoURL), message))
}

func (h *PhotoHandler) DeletePhoto(c *fiber.Ctx) error {
	photoID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid photo ID"))
	}

	if err := h.moderationService.DeletePhoto(c.UserContext(), photoID, middleware.UserID(c)); err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(models.SuccessResponse(nil, "Photo deleted successfully"))
}
