package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/eventphotos-backend/internal/middleware"
	"github.com/sefazor/eventphotos-backend/internal/models"
	"github.com/sefazor/eventphotos-backend/internal/service"
	"go.uber.org/zap"
)

type EventHandler struct {
	eventService *service.EventService
	logger       *zap.Logger
}

func NewEventHandler(eventService *service.EventService, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		logger:       logger,
	}
}

// Sahip görünümünde fotoğraflar URL ile döner
type eventDetailResponse struct {
	*models.Event
	Photos []models.PhotoResponse `json:"photos"`
}

func (h *EventHandler) CreateEvent(c *fiber.Ctx) error {
	var req models.EventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}

	event, err := h.eventService.CreateEvent(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(event, "Event created successfully"))
}

func (h *EventHandler) GetUserEvents(c *fiber.Ctx) error {
	events, err := h.eventService.ListUserEvents(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(events, "Events retrieved successfully"))
}

func (h *EventHandler) GetEvent(c *fiber.Ctx) error {
	eventID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid event ID"))
	}

	event, err := h.eventService.GetEvent(c.UserContext(), eventID, middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	photos := make([]models.PhotoResponse, 0, len(event.Photos))
	for _, photo := range event.Photos {
		photos = append(photos, models.NewPhotoResponse(photo, h.eventService.PhotoURL))
	}
	event.Photos = nil

	return c.JSON(models.SuccessResponse(eventDetailResponse{Event: event, Photos: photos}, "Event retrieved successfully"))
}

func (h *EventHandler) UpdateEvent(c *fiber.Ctx) error {
	eventID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid event ID"))
	}

	var req models.UpdateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}

	event, err := h.eventService.UpdateEvent(c.UserContext(), eventID, middleware.UserID(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(models.SuccessResponse(event, "Event updated successfully"))
}

func (h *EventHandler) DeleteEvent(c *fiber.Ctx) error {
	eventID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid event ID"))
	}

	if err := h.eventService.DeleteEvent(c.UserContext(), eventID, middleware.UserID(c)); err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(models.SuccessResponse(nil, "Event successfully deleted"))
}

func (h *EventHandler) GetEventQRCode(c *fiber.Ctx) error {
	eventID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid event ID"))
	}

	png, err := h.eventService.EventQRCode(c.UserContext(), eventID, middleware.UserID(c), c.QueryInt("size", 0))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}
