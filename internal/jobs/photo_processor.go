package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sefazor/eventphotos-backend/internal/metrics"
	"github.com/sefazor/eventphotos-backend/internal/models"
	"github.com/sefazor/eventphotos-backend/internal/repository"
	"github.com/sefazor/eventphotos-backend/pkg/imageconv"
	"github.com/sefazor/eventphotos-backend/pkg/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	TypePhotoProcess = "photo:process"

	QueueMedia   = "media"
	QueueDefault = "default"

	// 1 deneme + 2 tekrar
	photoProcessMaxRetry = 2
	photoProcessTimeout  = 5 * time.Minute

	// Son durum yazımı görev bağlamından bağımsız, kendi süresiyle yapılır
	finalWriteTimeout = 10 * time.Second
)

type PhotoProcessPayload struct {
	PhotoID uint `json:"photo_id"`
}

func NewPhotoProcessTask(photoID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(PhotoProcessPayload{PhotoID: photoID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePhotoProcess, payload), nil
}

// Client, asynq istemcisini yükleme servisinin kuyruk arayüzüne uyarlar
type Client struct {
	client *asynq.Client
}

func NewClient(client *asynq.Client) *Client {
	return &Client{client: client}
}

// EnqueuePhotoProcessing is deduplicated by photo id; an already queued task is not an error.
func (c *Client) EnqueuePhotoProcessing(ctx context.Context, photoID uint) error {
	task, err := NewPhotoProcessTask(photoID)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueMedia),
		asynq.MaxRetry(photoProcessMaxRetry),
		asynq.Timeout(photoProcessTimeout),
		asynq.TaskID(fmt.Sprintf("%s:%d", TypePhotoProcess, photoID)),
	)
	if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("failed to enqueue %s for photo %d: %w", TypePhotoProcess, photoID, err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// PhotoProcessor normalizes guest uploads: HEIC/HEIF is re-encoded to JPEG,
// everything else passes through to processed.
type PhotoProcessor struct {
	photoRepo *repository.PhotoRepository
	store     storage.BlobStore
	converter *imageconv.Converter
	logger    *zap.Logger
}

func NewPhotoProcessor(
	photoRepo *repository.PhotoRepository,
	store storage.BlobStore,
	converter *imageconv.Converter,
	logger *zap.Logger,
) *PhotoProcessor {
	return &PhotoProcessor{
		photoRepo: photoRepo,
		store:     store,
		converter: converter,
		logger:    logger,
	}
}

func (p *PhotoProcessor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload PhotoProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid %s payload: %v: %w", TypePhotoProcess, err, asynq.SkipRetry)
	}
	return p.Process(ctx, payload.PhotoID)
}

func (p *PhotoProcessor) Process(ctx context.Context, photoID uint) error {
	photo, err := p.photoRepo.GetByID(ctx, photoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			p.logger.Warn("photo to process no longer exists", zap.Uint("photo_id", photoID))
			return fmt.Errorf("photo %d not found: %w", photoID, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to load photo %d: %w", photoID, err)
	}

	// failed: önceki denemeden kalan, tekrar deneniyor
	if photo.Status != models.PhotoStatusProcessing && photo.Status != models.PhotoStatusFailed {
		p.logger.Info("photo already processed, skipping",
			zap.Uint("photo_id", photo.ID),
			zap.String("status", string(photo.Status)),
		)
		return nil
	}

	if !imageconv.IsHEIC(photo.PhotoPath) {
		if err := p.photoRepo.UpdateStatus(ctx, photo.ID, models.PhotoStatusProcessed); err != nil {
			return fmt.Errorf("failed to mark photo %d processed: %w", photo.ID, err)
		}
		metrics.Conversions.WithLabelValues("passthrough").Inc()
		return nil
	}

	if err := p.convert(ctx, photo); err != nil {
		metrics.Conversions.WithLabelValues("failed").Inc()
		p.logger.Error("heic conversion failed",
			zap.Uint("photo_id", photo.ID),
			zap.Uint("event_id", photo.EventID),
			zap.String("path", photo.PhotoPath),
			zap.Error(err),
		)
		p.markFailed(ctx, photo.ID)
		if errors.Is(err, imageconv.ErrUnavailable) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}

	metrics.Conversions.WithLabelValues("converted").Inc()
	return nil
}

// convert writes the JPEG, points the record at it, and only then removes the
// original. A failed record update leaves the original in place for the retry.
func (p *PhotoProcessor) convert(ctx context.Context, photo *models.EventPhoto) error {
	if !p.converter.Available() {
		return imageconv.ErrUnavailable
	}

	data, err := p.store.Get(ctx, photo.PhotoPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", photo.PhotoPath, err)
	}

	jpeg, err := p.converter.ToJPEG(ctx, data)
	if err != nil {
		return err
	}

	target, err := p.storeJPEG(ctx, photo.PhotoPath, jpeg)
	if err != nil {
		return err
	}

	if err := p.photoRepo.MarkConverted(ctx, photo.ID, target, "image/jpeg", int64(len(jpeg))); err != nil {
		cleanupCtx, cancel := detached(ctx)
		defer cancel()
		if delErr := p.store.Delete(cleanupCtx, target); delErr != nil {
			p.logger.Warn("failed to remove orphaned jpeg", zap.String("path", target), zap.Error(delErr))
		}
		return fmt.Errorf("failed to update photo %d: %w", photo.ID, err)
	}

	if err := p.store.Delete(ctx, photo.PhotoPath); err != nil {
		p.logger.Warn("failed to delete original heic",
			zap.Uint("photo_id", photo.ID),
			zap.String("path", photo.PhotoPath),
			zap.Error(err),
		)
	}

	p.logger.Info("heic converted",
		zap.Uint("photo_id", photo.ID),
		zap.String("path", target),
	)
	return nil
}

// storeJPEG, .jpg karşılığı doluysa _1, _2 ... dener
func (p *PhotoProcessor) storeJPEG(ctx context.Context, heicPath string, jpeg []byte) (string, error) {
	candidate := imageconv.JPEGPath(heicPath)
	base := strings.TrimSuffix(candidate, path.Ext(candidate))
	for i := 1; i <= 100; i++ {
		err := p.store.Create(ctx, candidate, bytes.NewReader(jpeg))
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, storage.ErrExist) {
			return "", fmt.Errorf("failed to write %s: %w", candidate, err)
		}
		candidate = fmt.Sprintf("%s_%d.jpg", base, i)
	}
	return "", fmt.Errorf("no free jpeg name for %s", heicPath)
}

// detached outlives the task context: after an asynq.Timeout the task context
// is already done, but the final state still has to be written.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), finalWriteTimeout)
}

func (p *PhotoProcessor) markFailed(ctx context.Context, photoID uint) {
	ctx, cancel := detached(ctx)
	defer cancel()
	if err := p.photoRepo.UpdateStatus(ctx, photoID, models.PhotoStatusFailed); err != nil {
		p.logger.Error("failed to mark photo failed", zap.Uint("photo_id", photoID), zap.Error(err))
	}
}

// HandleError is the server's ErrorHandler. Once the task will not run again
// the photo is left in failed.
func (p *PhotoProcessor) HandleError(ctx context.Context, task *asynq.Task, err error) {
	if task.Type() != TypePhotoProcess {
		return
	}

	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	if retried < maxRetry && !errors.Is(err, asynq.SkipRetry) {
		p.logger.Warn("photo processing attempt failed, will retry",
			zap.Int("retried", retried),
			zap.Int("max_retry", maxRetry),
			zap.Error(err),
		)
		return
	}

	var payload PhotoProcessPayload
	if jsonErr := json.Unmarshal(task.Payload(), &payload); jsonErr != nil {
		p.logger.Error("photo processing failed with unreadable payload", zap.Error(err))
		return
	}
	p.MarkFailedPermanently(ctx, payload.PhotoID, err)
}

func (p *PhotoProcessor) MarkFailedPermanently(ctx context.Context, photoID uint, cause error) {
	ctx, cancel := detached(ctx)
	defer cancel()

	photo, err := p.photoRepo.GetByID(ctx, photoID)
	if err != nil {
		p.logger.Error("photo processing failed permanently",
			zap.Uint("photo_id", photoID),
			zap.Error(cause),
		)
		return
	}
	if photo.Status == models.PhotoStatusProcessing || photo.Status == models.PhotoStatusFailed {
		if err := p.photoRepo.UpdateStatus(ctx, photo.ID, models.PhotoStatusFailed); err != nil {
			p.logger.Error("failed to mark photo failed", zap.Uint("photo_id", photo.ID), zap.Error(err))
		}
	}
	p.logger.Error("photo processing failed permanently",
		zap.Uint("photo_id", photo.ID),
		zap.Uint("event_id", photo.EventID),
		zap.String("path", photo.PhotoPath),
		zap.Error(cause),
	)
}
