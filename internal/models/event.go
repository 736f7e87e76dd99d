package models

import (
	"time"
)

// Etkinlik durumları
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
)

type Event struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	UserID      uint         `json:"user_id" gorm:"not null;index"`
	PackageID   uint         `json:"package_id" gorm:"not null"`
	Name        string       `json:"name" gorm:"not null"`
	Slug        string       `json:"slug" gorm:"size:32;uniqueIndex;not null"`
	Description string       `json:"description"`
	Location    string       `json:"location" gorm:"not null"`
	EventDate   time.Time    `json:"event_date" gorm:"type:date;not null"`
	EventTime   *string      `json:"event_time" gorm:"size:5"`
	Status      EventStatus  `json:"status" gorm:"type:varchar(16);not null;default:'draft'"`
	IsActive    bool         `json:"is_active" gorm:"default:true"`
	Package     *Package     `json:"package,omitempty" gorm:"constraint:OnDelete:RESTRICT"`
	Photos      []EventPhoto `json:"photos,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// IsPublished, misafir yüklemelerine ve galeriye açık olup olmadığını söyler
func (e *Event) IsPublished() bool {
	return e.Status == EventStatusPublished
}

type EventRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
	Location    string `json:"location" validate:"required,max=255"`
	EventDate   string `json:"event_date" validate:"required,datetime=2006-01-02"`
	EventTime   string `json:"event_time" validate:"omitempty,datetime=15:04"`
	PackageID   uint   `json:"package_id" validate:"required"`
}

type UpdateEventRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
	Location    string `json:"location" validate:"required,max=255"`
	EventDate   string `json:"event_date" validate:"required,datetime=2006-01-02"`
	EventTime   string `json:"event_time" validate:"omitempty,datetime=15:04"`
	PackageID   uint   `json:"package_id" validate:"required"`
	Status      string `json:"status" validate:"required,oneof=draft published cancelled"`
	IsActive    *bool  `json:"is_active"`
}

// Misafir sayfası için etkinlik + onaylı fotoğraflar
type PublicEventResponse struct {
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	EventDate   string          `json:"event_date"`
	EventTime   *string         `json:"event_time"`
	Photos      []PhotoResponse `json:"photos"`
}
