package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sefazor/eventphotos-backend/internal/models"
	"github.com/sefazor/eventphotos-backend/internal/repository"
	"github.com/sefazor/eventphotos-backend/pkg/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ModerationService, sahibinin fotoğraflar üzerindeki işlemleri
type ModerationService struct {
	photoRepo  *repository.PhotoRepository
	eventRepo  *repository.EventRepository
	store      storage.BlobStore
	authorizer Authorizer
	logger     *zap.Logger
}

func NewModerationService(
	photoRepo *repository.PhotoRepository,
	eventRepo *repository.EventRepository,
	store storage.BlobStore,
	authorizer Authorizer,
	logger *zap.Logger,
) *ModerationService {
	return &ModerationService{
		photoRepo:  photoRepo,
		eventRepo:  eventRepo,
		store:      store,
		authorizer: authorizer,
		logger:     logger,
	}
}

func (s *ModerationService) authorizedEvent(ctx context.Context, eventID, userID uint, action Action) (*models.Event, error) {
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

// authorizedPhoto loads a photo and checks the action against its event.
func (s *ModerationService) authorizedPhoto(ctx context.Context, photoID, userID uint, action Action) (*models.EventPhoto, error) {
	photo, err := s.photoRepo.GetByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, fmt.Errorf("failed to load photo: %w", err)
	}
	if _, err := s.authorizedEvent(ctx, photo.EventID, userID, action); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, err
	}
	return photo, nil
}

func (s *ModerationService) Approve(ctx context.Context, photoID, userID uint) (*models.EventPhoto, error) {
	return s.moderate(ctx, photoID, userID, models.PhotoStatusApproved)
}

func (s *ModerationService) Reject(ctx context.Context, photoID, userID uint) (*models.EventPhoto, error) {
	return s.moderate(ctx, photoID, userID, models.PhotoStatusRejected)
}

func (s *ModerationService) moderate(ctx context.Context, photoID, userID uint, next models.PhotoStatus) (*models.EventPhoto, error) {
	photo, err := s.authorizedPhoto(ctx, photoID, userID, ActionUpdate)
	if err != nil {
		return nil, err
	}
	if !photo.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, photo.Status, next)
	}
	if photo.Status == next {
		return photo, nil
	}

	if err := s.photoRepo.UpdateStatus(ctx, photo.ID, next); err != nil {
		return nil, fmt.Errorf("failed to update photo status: %w", err)
	}
	photo.Status = next
	return photo, nil
}

// SetCover makes photoID the only cover of its event.
func (s *ModerationService) SetCover(ctx context.Context, photoID, userID uint) (*models.EventPhoto, error) {
	photo, err := s.authorizedPhoto(ctx, photoID, userID, ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := s.photoRepo.SetCover(ctx, photo.EventID, photo.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, fmt.Errorf("failed to set cover: %w", err)
	}
	photo.IsCover = true
	return photo, nil
}

// DeletePhoto removes the blob (best effort) and then the record.
func (s *ModerationService) DeletePhoto(ctx context.Context, photoID, userID uint) error {
	photo, err := s.authorizedPhoto(ctx, photoID, userID, ActionDelete)
	if err != nil {
		return err
	}
	s.deleteBlob(ctx, photo)
	return s.photoRepo.Delete(ctx, photo.ID)
}

// BulkDelete ids of other events are dropped silently; nothing left is an error.
func (s *ModerationService) BulkDelete(ctx context.Context, eventID, userID uint, photoIDs []uint) (int64, error) {
	if _, err := s.authorizedEvent(ctx, eventID, userID, ActionDelete); err != nil {
		return 0, err
	}

	photos, err := s.photoRepo.FindByIDsForEvent(ctx, eventID, photoIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to load photos: %w", err)
	}
	if len(photos) == 0 {
		return 0, ErrNoPhotosSelected
	}

	ids := make([]uint, 0, len(photos))
	for i := range photos {
		s.deleteBlob(ctx, &photos[i])
		ids = append(ids, photos[i].ID)
	}

	deleted, err := s.photoRepo.DeleteByIDs(ctx, eventID, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete photos: %w", err)
	}

	s.logger.Info("photos bulk deleted",
		zap.Uint("event_id", eventID),
		zap.Int64("count", deleted),
	)
	return deleted, nil
}

// Reorder applies each (id, order) pair independently. Duplicate orders are allowed.
func (s *ModerationService) Reorder(ctx context.Context, eventID, userID uint, req models.ReorderPhotosRequest) (int64, error) {
	if _, err := s.authorizedEvent(ctx, eventID, userID, ActionUpdate); err != nil {
		return 0, err
	}

	var updated int64
	for _, item := range req.Photos {
		if item.Order == nil {
			continue
		}
		n, err := s.photoRepo.UpdateOrder(ctx, eventID, item.ID, *item.Order)
		if err != nil {
			return updated, fmt.Errorf("failed to update order of photo %d: %w", item.ID, err)
		}
		updated += n
	}
	return updated, nil
}

// ListEventPhotos, sahibin moderasyon görünümü; status boşsa hepsi
func (s *ModerationService) ListEventPhotos(ctx context.Context, eventID, userID uint, status models.PhotoStatus) ([]models.EventPhoto, error) {
	if _, err := s.authorizedEvent(ctx, eventID, userID, ActionView); err != nil {
		return nil, err
	}
	if status == "" {
		return s.photoRepo.ListByEvent(ctx, eventID)
	}
	if !status.IsValid() {
		return nil, newValidationError("Invalid status filter.", map[string]string{"status": "Invalid value."})
	}
	return s.photoRepo.ListByEvent(ctx, eventID, status)
}

func (s *ModerationService) deleteBlob(ctx context.Context, photo *models.EventPhoto) {
	if err := s.store.Delete(ctx, photo.PhotoPath); err != nil {
		s.logger.Warn("failed to delete photo file",
			zap.Uint("photo_id", photo.ID),
			zap.String("path", photo.PhotoPath),
			zap.Error(err),
		)
	}
}
