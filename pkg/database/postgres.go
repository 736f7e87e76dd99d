package database

import (
	"errors"
	"fmt"

	"github.com/sefazor/eventphotos-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDatabase(databaseURL string) (*gorm.DB, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func intPtr(v int) *int { return &v }

// Varsayılan paketler, slug ile eşleşir
var defaultPackages = []models.Package{
	{
		Name:        "Free",
		Slug:        "free",
		Price:       0,
		Currency:    "TRY",
		MaxUploads:  intPtr(10),
		StorageDays: 30,
		UploadDays:  7,
		Quality:     models.QualityNormal,
		Features:    []string{"10 photo uploads", "30 days storage"},
		IsActive:    true,
	},
	{
		Name:        "Plus",
		Slug:        "plus",
		Price:       99.99,
		Currency:    "TRY",
		MaxUploads:  intPtr(100),
		StorageDays: 90,
		UploadDays:  30,
		Quality:     models.QualityHigh,
		Features:    []string{"100 photo uploads", "90 days storage", "High quality"},
		IsActive:    true,
	},
	{
		Name:                  "Pro",
		Slug:                  "pro",
		Price:                 299.99,
		Currency:              "TRY",
		MaxUploads:            nil,
		StorageDays:           365,
		UploadDays:            90,
		Quality:               models.QualityHigh,
		AdvancedCustomization: true,
		Features:              []string{"Unlimited uploads", "1 year storage", "High quality", "Advanced customization"},
		IsActive:              true,
	},
}

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Package{},
		&models.Event{},
		&models.EventPhoto{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Paketleri veritabanına ekle (eğer yoksa)
	for _, pkg := range defaultPackages {
		pkg := pkg
		var count int64
		if err := db.Model(&models.Package{}).Where("slug = ?", pkg.Slug).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := db.Create(&pkg).Error; err != nil {
				return fmt.Errorf("failed to add package %s: %w", pkg.Slug, err)
			}
		}
	}

	return nil
}
