package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sefazor/eventphotos-backend/internal/models"
	"github.com/sefazor/eventphotos-backend/internal/repository"
	"github.com/sefazor/eventphotos-backend/pkg/qrcode"
	"github.com/sefazor/eventphotos-backend/pkg/storage"
	"github.com/sefazor/eventphotos-backend/pkg/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxSlugAttempts = 10
	maxQRCodeSize   = 1024
)

type EventService struct {
	eventRepo      *repository.EventRepository
	photoRepo      *repository.PhotoRepository
	packageService *PackageService
	store          storage.BlobStore
	qrService      *qrcode.QRService
	authorizer     Authorizer
	validator      *utils.Validator
	logger         *zap.Logger
	now            func() time.Time
}

func NewEventService(
	eventRepo *repository.EventRepository,
	photoRepo *repository.PhotoRepository,
	packageService *PackageService,
	store storage.BlobStore,
	qrService *qrcode.QRService,
	authorizer Authorizer,
	logger *zap.Logger,
) *EventService {
	return &EventService{
		eventRepo:      eventRepo,
		photoRepo:      photoRepo,
		packageService: packageService,
		store:          store,
		qrService:      qrService,
		authorizer:     authorizer,
		validator:      utils.NewValidator(),
		logger:         logger,
		now:            time.Now,
	}
}

// WithClock testlerde "bugün" değerini sabitlemek için
func (s *EventService) WithClock(now func() time.Time) *EventService {
	s.now = now
	return s
}

func (s *EventService) CreateEvent(ctx context.Context, userID uint, req models.EventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, newValidationError("The given data was invalid.", utils.FieldErrors(err))
	}
	eventDate, err := s.validateSchedule(ctx, req.EventDate, req.PackageID)
	if err != nil {
		return nil, err
	}

	slug, err := s.uniqueSlug(ctx)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		UserID:      userID,
		PackageID:   req.PackageID,
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		Location:    req.Location,
		EventDate:   eventDate,
		EventTime:   stringPtr(req.EventTime),
		Status:      models.EventStatusDraft,
		IsActive:    true,
	}

	createdEvent, err := s.eventRepo.Create(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.logger.Info("event created", zap.Uint("event_id", createdEvent.ID), zap.String("slug", slug))
	return createdEvent, nil
}

// UpdateEvent slug'a dokunmaz
func (s *EventService) UpdateEvent(ctx context.Context, eventID, userID uint, req models.UpdateEventRequest) (*models.Event, error) {
	event, err := s.authorizedEvent(ctx, eventID, userID, ActionUpdate)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, newValidationError("The given data was invalid.", utils.FieldErrors(err))
	}
	eventDate, err := time.Parse("2006-01-02", req.EventDate)
	if err != nil {
		return nil, newValidationError("The given data was invalid.", map[string]string{"event_date": "Invalid format, expected 2006-01-02."})
	}
	if req.PackageID != event.PackageID {
		if _, err := s.packageService.GetActivePackage(ctx, req.PackageID); err != nil {
			if errors.Is(err, ErrPackageNotFound) {
				return nil, newValidationError("The given data was invalid.", map[string]string{"package_id": "Selected package is not available."})
			}
			return nil, err
		}
	}

	event.Name = req.Name
	event.Description = req.Description
	event.Location = req.Location
	event.EventDate = eventDate
	event.EventTime = stringPtr(req.EventTime)
	event.PackageID = req.PackageID
	event.Status = models.EventStatus(req.Status)
	if req.IsActive != nil {
		event.IsActive = *req.IsActive
	}
	event.Package = nil

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return event, nil
}

// DeleteEvent removes every blob best effort, then the photos and the event.
func (s *EventService) DeleteEvent(ctx context.Context, eventID, userID uint) error {
	event, err := s.authorizedEvent(ctx, eventID, userID, ActionDelete)
	if err != nil {
		return err
	}

	photos, err := s.photoRepo.ListByEvent(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to list photos: %w", err)
	}
	for _, photo := range photos {
		if err := s.store.Delete(ctx, photo.PhotoPath); err != nil {
			s.logger.Warn("failed to delete photo file",
				zap.Uint("photo_id", photo.ID),
				zap.String("path", photo.PhotoPath),
				zap.Error(err),
			)
		}
	}

	if err := s.eventRepo.DeleteWithPhotos(ctx, event.ID); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	s.logger.Info("event deleted", zap.Uint("event_id", event.ID), zap.Int("photos", len(photos)))
	return nil
}

// GetEvent, sahibin görünümü: tüm fotoğraflar sıralı
func (s *EventService) GetEvent(ctx context.Context, eventID, userID uint) (*models.Event, error) {
	event, err := s.authorizedEvent(ctx, eventID, userID, ActionView)
	if err != nil {
		return nil, err
	}
	photos, err := s.photoRepo.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	event.Photos = photos
	return event, nil
}

func (s *EventService) ListUserEvents(ctx context.Context, userID uint) ([]models.Event, error) {
	return s.eventRepo.GetByUserID(ctx, userID)
}

// GetPublishedEvent is the guest page: approved photos only, in display order.
func (s *EventService) GetPublishedEvent(ctx context.Context, slug string) (*models.PublicEventResponse, error) {
	event, err := s.eventRepo.GetPublishedBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}

	photos, err := s.photoRepo.ListApprovedByEvent(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}

	responses := make([]models.PhotoResponse, 0, len(photos))
	for _, photo := range photos {
		responses = append(responses, models.NewPhotoResponse(photo, s.store.URL))
	}

	return &models.PublicEventResponse{
		Name:        event.Name,
		Slug:        event.Slug,
		Description: event.Description,
		Location:    event.Location,
		EventDate:   event.EventDate.Format("2006-01-02"),
		EventTime:   event.EventTime,
		Photos:      responses,
	}, nil
}

func (s *EventService) EventQRCode(ctx context.Context, eventID, userID uint, size int) ([]byte, error) {
	event, err := s.authorizedEvent(ctx, eventID, userID, ActionView)
	if err != nil {
		return nil, err
	}
	if size > maxQRCodeSize {
		size = maxQRCodeSize
	}
	return s.qrService.GenerateEventQRCode(event.Slug, size)
}

// PhotoURL, handler'ların depolama yolunu URL'e çevirmesi için
func (s *EventService) PhotoURL(photoPath string) string {
	return s.store.URL(photoPath)
}

func (s *EventService) authorizedEvent(ctx context.Context, eventID, userID uint, action Action) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if !s.authorizer.Can(userID, action, event) {
		return nil, ErrForbidden
	}
	return event, nil
}

// validateSchedule checks the date is after today and the package is active.
func (s *EventService) validateSchedule(ctx context.Context, date string, packageID uint) (time.Time, error) {
	fields := map[string]string{}

	eventDate, err := time.Parse("2006-01-02", date)
	if err != nil {
		fields["event_date"] = "Invalid format, expected 2006-01-02."
	} else {
		y, m, d := s.now().Date()
		today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		if !eventDate.After(today) {
			fields["event_date"] = "The event date must be a date after today."
		}
	}

	if _, err := s.packageService.GetActivePackage(ctx, packageID); err != nil {
		if !errors.Is(err, ErrPackageNotFound) {
			return time.Time{}, err
		}
		fields["package_id"] = "Selected package is not available."
	}

	if len(fields) > 0 {
		return time.Time{}, newValidationError("The given data was invalid.", fields)
	}
	return eventDate, nil
}

func (s *EventService) uniqueSlug(ctx context.Context) (string, error) {
	for i := 0; i < maxSlugAttempts; i++ {
		slug := utils.GenerateEventSlug(s.now())
		exists, err := s.eventRepo.SlugExists(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !exists {
			return slug, nil
		}
	}
	return "", errors.New("failed to generate a unique event slug")
}
