package repository

import (
	"context"
	"errors"

	"github.com/sefazor/eventphotos-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrCapacityExceeded, toplu eklemenin etkinlik sınırını aşacağı durumda döner
var ErrCapacityExceeded = errors.New("event photo capacity exceeded")

type PhotoRepository struct {
	db *gorm.DB
}

func NewPhotoRepository(db *gorm.DB) *PhotoRepository {
	return &PhotoRepository{
		db: db,
	}
}

// lockEvent serializes writers per event. sqlite ignores the locking clause,
// it already serializes write transactions.
func lockEvent(tx *gorm.DB, eventID uint) error {
	var event models.Event
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&event, eventID).Error
}

func maxOrder(tx *gorm.DB, eventID uint) (int, error) {
	var max int
	err := tx.Model(&models.EventPhoto{}).
		Where("event_id = ?", eventID).
		Select("COALESCE(MAX(sort_order), 0)").
		Row().
		Scan(&max)
	return max, err
}

func (r *PhotoRepository) GetByID(ctx context.Context, id uint) (*models.EventPhoto, error) {
	var photo models.EventPhoto
	err := r.db.WithContext(ctx).First(&photo, id).Error
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

// ListByEvent returns the event's photos in display order, optionally filtered by status.
func (r *PhotoRepository) ListByEvent(ctx context.Context, eventID uint, statuses ...models.PhotoStatus) ([]models.EventPhoto, error) {
	var photos []models.EventPhoto
	q := r.db.WithContext(ctx).Where("event_id = ?", eventID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	err := q.Order("sort_order ASC, id ASC").Find(&photos).Error
	return photos, err
}

func (r *PhotoRepository) ListApprovedByEvent(ctx context.Context, eventID uint) ([]models.EventPhoto, error) {
	return r.ListByEvent(ctx, eventID, models.PhotoStatusApproved)
}

// ListForExport silinmiş olarak işaretlenenler hariç hepsini döner
func (r *PhotoRepository) ListForExport(ctx context.Context, eventID uint) ([]models.EventPhoto, error) {
	var photos []models.EventPhoto
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND status <> ?", eventID, models.PhotoStatusDeleted).
		Order("sort_order ASC, id ASC").
		Find(&photos).Error
	return photos, err
}

func (r *PhotoRepository) CountByEventID(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.EventPhoto{}).Where("event_id = ?", eventID).Count(&count).Error
	return count, err
}

func (r *PhotoRepository) MaxOrder(ctx context.Context, eventID uint) (int, error) {
	return maxOrder(r.db.WithContext(ctx), eventID)
}

// FindByIDsForEvent drops ids that belong to another event.
func (r *PhotoRepository) FindByIDsForEvent(ctx context.Context, eventID uint, ids []uint) ([]models.EventPhoto, error) {
	var photos []models.EventPhoto
	if len(ids) == 0 {
		return photos, nil
	}
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND id IN ?", eventID, ids).
		Find(&photos).Error
	return photos, err
}

// AppendToEvent inserts a batch after the event's current max order. The count
// and max order are read under the event lock together with the inserts, so
// concurrent batches never exceed capacity or share order values.
func (r *PhotoRepository) AppendToEvent(ctx context.Context, eventID uint, photos []*models.EventPhoto, capacity int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockEvent(tx, eventID); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.EventPhoto{}).Where("event_id = ?", eventID).Count(&count).Error; err != nil {
			return err
		}
		if capacity > 0 && count+int64(len(photos)) > capacity {
			return ErrCapacityExceeded
		}

		max, err := maxOrder(tx, eventID)
		if err != nil {
			return err
		}
		for i, photo := range photos {
			photo.EventID = eventID
			photo.Order = max + i + 1
			if err := tx.Create(photo).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PhotoRepository) UpdateStatus(ctx context.Context, id uint, status models.PhotoStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.EventPhoto{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// MarkConverted points the record at the re-encoded blob and marks it processed.
func (r *PhotoRepository) MarkConverted(ctx context.Context, id uint, path, mimeType string, size int64) error {
	return r.db.WithContext(ctx).
		Model(&models.EventPhoto{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"photo_path": path,
			"mime_type":  mimeType,
			"file_size":  size,
			"status":     models.PhotoStatusProcessed,
		}).Error
}

// SetCover clears every cover flag of the event and sets it on photoID, in one transaction.
func (r *PhotoRepository) SetCover(ctx context.Context, eventID, photoID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockEvent(tx, eventID); err != nil {
			return err
		}
		if err := tx.Model(&models.EventPhoto{}).
			Where("event_id = ? AND is_cover = ?", eventID, true).
			Update("is_cover", false).Error; err != nil {
			return err
		}
		result := tx.Model(&models.EventPhoto{}).
			Where("id = ? AND event_id = ?", photoID, eventID).
			Update("is_cover", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// UpdateOrder returns the number of rows touched; 0 means the photo is not in the event.
func (r *PhotoRepository) UpdateOrder(ctx context.Context, eventID, photoID uint, order int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.EventPhoto{}).
		Where("id = ? AND event_id = ?", photoID, eventID).
		Update("sort_order", order)
	return result.RowsAffected, result.Error
}

func (r *PhotoRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.EventPhoto{}, id).Error
}

func (r *PhotoRepository) DeleteByIDs(ctx context.Context, eventID uint, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("event_id = ? AND id IN ?", eventID, ids).
		Delete(&models.EventPhoto{})
	return result.RowsAffected, result.Error
}
