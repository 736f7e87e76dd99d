package repository

import (
	"context"

	"github.com/sefazor/eventphotos-backend/internal/models"
	"gorm.io/gorm"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	result := r.db.WithContext(ctx).Create(event)
	if result.Error != nil {
		return nil, result.Error
	}
	return event, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).Preload("Package").First(&event, id).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *EventRepository) GetBySlug(ctx context.Context, slug string) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// GetPublishedBySlug yalnızca yayında olan etkinliği döner, diğerleri için ErrRecordNotFound
func (r *EventRepository) GetPublishedBySlug(ctx context.Context, slug string) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Where("slug = ? AND status = ?", slug, models.EventStatusPublished).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *EventRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Event{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *EventRepository) GetByUserID(ctx context.Context, userID uint) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Preload("Package").
		Where("user_id = ?", userID).
		Order("event_date DESC, id DESC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Omit("Package", "Photos").Save(event).Error
}

// DeleteWithPhotos removes the event and its photo records in one transaction.
func (r *EventRepository) DeleteWithPhotos(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&models.EventPhoto{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Event{}, id).Error
	})
}
