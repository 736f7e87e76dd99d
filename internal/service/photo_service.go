package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/sefazor/eventphotos-backend/internal/metrics"
	"github.com/sefazor/eventphotos-backend/internal/models"
	"github.com/sefazor/eventphotos-backend/internal/repository"
	"github.com/sefazor/eventphotos-backend/pkg/imageconv"
	"github.com/sefazor/eventphotos-backend/pkg/storage"
	"github.com/sefazor/eventphotos-backend/pkg/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	MaxImageSize  int64 = 15 << 20
	MaxVideoSize  int64 = 250 << 20
	MaxUploadSize int64 = 256 << 20

	MaxPhotosPerEvent = 1000
	MaxGuestFiles     = 5
	MaxOwnerFiles     = 10

	sourceGuest = "guest"
	sourceOwner = "owner"
)

// UploadFile, multipart'tan bağımsız bir yükleme parçası
type UploadFile struct {
	Name     string                        `json:"name"`
	MimeType string                        `json:"mime_type" validate:"required"`
	Size     int64                         `json:"size" validate:"max=268435456"`
	Open     func() (io.ReadCloser, error) `json:"-"`
}

func (f UploadFile) IsVideo() bool {
	return strings.HasPrefix(strings.ToLower(f.MimeType), "video/")
}

type GuestUploadRequest struct {
	Files         []UploadFile `json:"files" validate:"required,min=1,max=5,dive"`
	UploaderName  string       `json:"uploader_name" validate:"required,max=255"`
	UploaderEmail string       `json:"uploader_email" validate:"required,email,max=255"`
	UploaderIP    string       `json:"-"`
}

type OwnerUploadRequest struct {
	Files []UploadFile `json:"files" validate:"required,min=1,max=10,dive"`
	// Dosya adlarındaki kimlik kısmı için, boşsa "anon"
	OwnerEmail string `json:"-"`
}

type UploadResult struct {
	Photos  []models.EventPhoto `json:"photos"`
	Message string              `json:"message"`
}

// JobQueue hands processing-state photos to the background worker.
type JobQueue interface {
	EnqueuePhotoProcessing(ctx context.Context, photoID uint) error
}

type PhotoService struct {
	photoRepo  *repository.PhotoRepository
	eventRepo  *repository.EventRepository
	store      storage.BlobStore
	placer     *storage.Placer
	queue      JobQueue
	converter  *imageconv.Converter
	authorizer Authorizer
	validator  *utils.Validator
	logger     *zap.Logger
}

func NewPhotoService(
	photoRepo *repository.PhotoRepository,
	eventRepo *repository.EventRepository,
	store storage.BlobStore,
	queue JobQueue,
	converter *imageconv.Converter,
	authorizer Authorizer,
	logger *zap.Logger,
) *PhotoService {
	return &PhotoService{
		photoRepo:  photoRepo,
		eventRepo:  eventRepo,
		store:      store,
		placer:     storage.NewPlacer(store),
		queue:      queue,
		converter:  converter,
		authorizer: authorizer,
		validator:  utils.NewValidator(),
		logger:     logger,
	}
}

// WithPlacer testlerde sabit saatli yerleştirici için
func (s *PhotoService) WithPlacer(placer *storage.Placer) *PhotoService {
	s.placer = placer
	return s
}

// GuestUpload stores a guest batch for a published event. Every photo starts
// in processing and is queued for the background worker.
func (s *PhotoService) GuestUpload(ctx context.Context, slug string, req GuestUploadRequest) (*UploadResult, error) {
	event, err := s.eventRepo.GetPublishedBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}

	if err := s.validateBatch(req, req.Files, "supported_media"); err != nil {
		metrics.UploadRejections.WithLabelValues("validation").Inc()
		return nil, err
	}

	photos, err := s.storeBatch(ctx, event.ID, req.Files, req.UploaderEmail, func(file UploadFile) (*models.EventPhoto, io.Reader, func(), error) {
		src, err := file.Open()
		if err != nil {
			return nil, nil, nil, err
		}
		photo := &models.EventPhoto{
			OriginalName:  file.Name,
			FileSize:      file.Size,
			MimeType:      file.MimeType,
			UploaderName:  stringPtr(req.UploaderName),
			UploaderEmail: stringPtr(req.UploaderEmail),
			UploaderIP:    stringPtr(req.UploaderIP),
			Status:        models.PhotoStatusProcessing,
		}
		return photo, src, func() { src.Close() }, nil
	})
	if err != nil {
		return nil, err
	}

	for i := range photos {
		metrics.Uploads.WithLabelValues(sourceGuest, mediaKind(photos[i].MimeType)).Inc()
		if err := s.queue.EnqueuePhotoProcessing(ctx, photos[i].ID); err != nil {
			// Kuyruğa giremeyen kayıt processing'de takılı kalmasın
			s.logger.Error("failed to enqueue photo processing",
				zap.Uint("photo_id", photos[i].ID),
				zap.Uint("event_id", event.ID),
				zap.Error(err),
			)
			if err := s.photoRepo.UpdateStatus(ctx, photos[i].ID, models.PhotoStatusFailed); err != nil {
				s.logger.Error("failed to mark photo failed", zap.Uint("photo_id", photos[i].ID), zap.Error(err))
			}
			photos[i].Status = models.PhotoStatusFailed
		}
	}

	s.logger.Info("guest upload stored",
		zap.Uint("event_id", event.ID),
		zap.Int("count", len(photos)),
	)

	return &UploadResult{Photos: photos, Message: uploadMessage(req.Files)}, nil
}

// OwnerUpload stores an owner batch. HEIC files are converted inline when a
// converter is available and photos go straight to pending.
func (s *PhotoService) OwnerUpload(ctx context.Context, eventID, userID uint, req OwnerUploadRequest) (*UploadResult, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if !s.authorizer.Can(userID, ActionUpdate, event) {
		return nil, ErrForbidden
	}

	if err := s.validateBatch(req, req.Files, "supported_image"); err != nil {
		metrics.UploadRejections.WithLabelValues("validation").Inc()
		return nil, err
	}

	photos, err := s.storeBatch(ctx, event.ID, req.Files, req.OwnerEmail, func(file UploadFile) (*models.EventPhoto, io.Reader, func(), error) {
		src, err := file.Open()
		if err != nil {
			return nil, nil, nil, err
		}
		photo := &models.EventPhoto{
			OriginalName: file.Name,
			FileSize:     file.Size,
			MimeType:     file.MimeType,
			Status:       models.PhotoStatusPending,
		}
		if !imageconv.IsHEICMimeType(file.MimeType) || !s.converter.Available() {
			return photo, src, func() { src.Close() }, nil
		}

		defer src.Close()
		data, err := io.ReadAll(src)
		if err != nil {
			return nil, nil, nil, err
		}
		jpeg, err := s.converter.ToJPEG(ctx, data)
		if err != nil {
			// Dönüştürülemeyen dosya orijinal haliyle saklanır
			s.logger.Warn("inline heic conversion failed, keeping original",
				zap.String("file", file.Name),
				zap.Error(err),
			)
			return photo, bytes.NewReader(data), func() {}, nil
		}
		photo.MimeType = "image/jpeg"
		photo.FileSize = int64(len(jpeg))
		return photo, bytes.NewReader(jpeg), func() {}, nil
	})
	if err != nil {
		return nil, err
	}

	for _, photo := range photos {
		metrics.Uploads.WithLabelValues(sourceOwner, mediaKind(photo.MimeType)).Inc()
	}

	return &UploadResult{Photos: photos, Message: uploadMessage(req.Files)}, nil
}

// validateBatch runs the coarse struct rules, then the allow-list and the
// per-kind size ceilings. All failures are reported together.
func (s *PhotoService) validateBatch(req interface{}, files []UploadFile, mimeTag string) error {
	fields := map[string]string{}
	if err := s.validator.Struct(req); err != nil {
		fe := utils.FieldErrors(err)
		if fe == nil {
			return fmt.Errorf("failed to validate upload: %w", err)
		}
		fields = fe
	}

	for i, file := range files {
		key := fmt.Sprintf("files.%d", i)
		if _, failed := fields[key]; failed {
			continue
		}
		if err := s.validator.Var(file.MimeType, mimeTag); err != nil {
			fields[key] = "Unsupported file type."
			continue
		}
		if file.IsVideo() && file.Size > MaxVideoSize {
			fields[key] = "Video files may not exceed 250 MB."
		} else if !file.IsVideo() && file.Size > MaxImageSize {
			fields[key] = "Image files may not exceed 15 MB."
		}
	}

	if len(fields) > 0 {
		return newValidationError("The given data was invalid.", fields)
	}
	return nil
}

type prepareFunc func(file UploadFile) (photo *models.EventPhoto, src io.Reader, done func(), err error)

// storeBatch writes every blob, then inserts all records in one transaction.
// On any failure the blobs already written are removed.
func (s *PhotoService) storeBatch(ctx context.Context, eventID uint, files []UploadFile, email string, prepare prepareFunc) ([]models.EventPhoto, error) {
	count, err := s.photoRepo.CountByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to count photos: %w", err)
	}
	if count+int64(len(files)) > MaxPhotosPerEvent {
		metrics.UploadRejections.WithLabelValues("capacity").Inc()
		return nil, ErrCapacityExceeded
	}

	records := make([]*models.EventPhoto, 0, len(files))
	written := make([]string, 0, len(files))
	cleanup := func() {
		for _, p := range written {
			if err := s.store.Delete(ctx, p); err != nil {
				s.logger.Warn("failed to remove orphaned upload", zap.String("path", p), zap.Error(err))
			}
		}
	}

	for i, file := range files {
		photo, src, done, err := prepare(file)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to read %s: %w", file.Name, err)
		}

		name := file.Name
		if photo.MimeType == "image/jpeg" && imageconv.IsHEIC(name) {
			name = imageconv.JPEGPath(name)
		}
		dir := storage.DirectoryFor(eventID, photo.MimeType)
		key, err := s.placer.Place(ctx, dir, name, photo.MimeType, email, i, src)
		done()
		if err != nil {
			cleanup()
			return nil, err
		}
		written = append(written, key)

		photo.PhotoPath = key
		records = append(records, photo)
	}

	if err := s.photoRepo.AppendToEvent(ctx, eventID, records, MaxPhotosPerEvent); err != nil {
		cleanup()
		if errors.Is(err, repository.ErrCapacityExceeded) {
			metrics.UploadRejections.WithLabelValues("capacity").Inc()
			return nil, ErrCapacityExceeded
		}
		return nil, fmt.Errorf("failed to save photos: %w", err)
	}

	photos := make([]models.EventPhoto, len(records))
	for i, r := range records {
		photos[i] = *r
	}
	return photos, nil
}

// PhotoURL, depolama yolunu public URL'e çevirir
func (s *PhotoService) PhotoURL(photoPath string) string {
	return s.store.URL(photoPath)
}

func uploadMessage(files []UploadFile) string {
	label := "fotoğraf"
	for _, f := range files {
		if !strings.HasPrefix(strings.ToLower(f.MimeType), "image/") {
			label = "dosya"
			break
		}
	}
	return fmt.Sprintf("%d %s başarıyla yüklendi! Onay bekliyor.", len(files), label)
}

func mediaKind(mimeType string) string {
	if strings.HasPrefix(mimeType, "video/") {
		return "video"
	}
	return "image"
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func baseName(name string) string {
	return strings.TrimSuffix(path.Base(name), path.Ext(name))
}
