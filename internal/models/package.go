package models

import "time"

type PackageQuality string

const (
	QualityNormal PackageQuality = "normal"
	QualityHigh   PackageQuality = "high"
)

// Package, etkinliğin satın alındığı paket kademesi (yükleme hattı için salt okunur)
type Package struct {
	ID                    uint           `json:"id" gorm:"primaryKey"`
	Name                  string         `json:"name" gorm:"not null"`
	Slug                  string         `json:"slug" gorm:"size:64;uniqueIndex;not null"`
	Price                 float64        `json:"price" gorm:"not null;default:0"`
	Currency              string         `json:"currency" gorm:"size:3;not null;default:'TRY'"`
	MaxUploads            *int           `json:"max_uploads"` // nil = sınırsız
	StorageDays           int            `json:"storage_days" gorm:"not null"`
	UploadDays            int            `json:"upload_days" gorm:"not null"`
	Quality               PackageQuality `json:"quality" gorm:"type:varchar(16);not null;default:'normal'"`
	AdvancedCustomization bool           `json:"advanced_customization" gorm:"default:false"`
	Features              []string       `json:"features" gorm:"type:json;serializer:json"`
	IsActive              bool           `json:"is_active" gorm:"default:true"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

func (p *Package) IsUnlimitedUploads() bool {
	return p.MaxUploads == nil
}
