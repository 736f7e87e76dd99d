package models

import (
	"strings"
	"time"
)

type PhotoStatus string

const (
	PhotoStatusPending    PhotoStatus = "pending"
	PhotoStatusProcessing PhotoStatus = "processing"
	PhotoStatusProcessed  PhotoStatus = "processed"
	PhotoStatusFailed     PhotoStatus = "failed"
	PhotoStatusApproved   PhotoStatus = "approved"
	PhotoStatusRejected   PhotoStatus = "rejected"
	// Silme işlemleri kaydı tamamen kaldırır, bu değer rezerve
	PhotoStatusDeleted PhotoStatus = "deleted"
)

// Geçerli durum geçişleri. failed -> processed kuyruk tekrar denemesi içindir.
var photoTransitions = map[PhotoStatus][]PhotoStatus{
	PhotoStatusPending:    {PhotoStatusApproved, PhotoStatusRejected},
	PhotoStatusProcessing: {PhotoStatusProcessed, PhotoStatusFailed},
	PhotoStatusProcessed:  {PhotoStatusApproved, PhotoStatusRejected},
	PhotoStatusFailed:     {PhotoStatusProcessed, PhotoStatusFailed},
	PhotoStatusApproved:   {PhotoStatusApproved, PhotoStatusRejected},
	PhotoStatusRejected:   {PhotoStatusApproved, PhotoStatusRejected},
}

// CanTransitionTo reports whether a photo in status s may move to next.
func (s PhotoStatus) CanTransitionTo(next PhotoStatus) bool {
	for _, allowed := range photoTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s PhotoStatus) IsValid() bool {
	switch s {
	case PhotoStatusPending, PhotoStatusProcessing, PhotoStatusProcessed, PhotoStatusFailed,
		PhotoStatusApproved, PhotoStatusRejected, PhotoStatusDeleted:
		return true
	}
	return false
}

type EventPhoto struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	EventID       uint        `json:"event_id" gorm:"not null;index:idx_event_photos_event_order,priority:1;index:idx_event_photos_event_status,priority:1"`
	PhotoPath     string      `json:"photo_path" gorm:"not null"`
	OriginalName  string      `json:"original_name"`
	FileSize      int64       `json:"file_size"`
	MimeType      string      `json:"mime_type"`
	Order         int         `json:"order" gorm:"column:sort_order;not null;default:0;index:idx_event_photos_event_order,priority:2"`
	IsCover       bool        `json:"is_cover" gorm:"not null;default:false"`
	UploaderName  *string     `json:"uploader_name"`
	UploaderEmail *string     `json:"uploader_email"`
	UploaderIP    *string     `json:"uploader_ip" gorm:"size:45"`
	Status        PhotoStatus `json:"status" gorm:"type:varchar(16);not null;default:'pending';index:idx_event_photos_event_status,priority:2"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (EventPhoto) TableName() string {
	return "event_photos"
}

func (p *EventPhoto) IsVideo() bool {
	return strings.HasPrefix(p.MimeType, "video/")
}

type PhotoResponse struct {
	ID           uint        `json:"id"`
	EventID      uint        `json:"event_id"`
	URL          string      `json:"url"`
	OriginalName string      `json:"original_name"`
	FileSize     int64       `json:"file_size"`
	MimeType     string      `json:"mime_type"`
	Order        int         `json:"order"`
	IsCover      bool        `json:"is_cover"`
	Status       PhotoStatus `json:"status"`
	UploaderName *string     `json:"uploader_name,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// NewPhotoResponse, urlFor ile depolama yolunu public URL'e çevirir
func NewPhotoResponse(photo EventPhoto, urlFor func(string) string) PhotoResponse {
	return PhotoResponse{
		ID:           photo.ID,
		EventID:      photo.EventID,
		URL:          urlFor(photo.PhotoPath),
		OriginalName: photo.OriginalName,
		FileSize:     photo.FileSize,
		MimeType:     photo.MimeType,
		Order:        photo.Order,
		IsCover:      photo.IsCover,
		Status:       photo.Status,
		UploaderName: photo.UploaderName,
		CreatedAt:    photo.CreatedAt,
	}
}

type PhotoOrder struct {
	ID    uint `json:"id" validate:"required"`
	Order *int `json:"order" validate:"required,min=0"`
}

type ReorderPhotosRequest struct {
	Photos []PhotoOrder `json:"photos" validate:"required,min=1,dive"`
}

type BulkDeleteRequest struct {
	PhotoIDs []uint `json:"photo_ids" validate:"required,min=1"`
}
