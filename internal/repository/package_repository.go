package repository

import (
	"context"

	"github.com/sefazor/eventphotos-backend/internal/models"
	"gorm.io/gorm"
)

type PackageRepository struct {
	db *gorm.DB
}

func NewPackageRepository(db *gorm.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

func (r *PackageRepository) GetByID(ctx context.Context, id uint) (*models.Package, error) {
	var pkg models.Package
	if err := r.db.WithContext(ctx).First(&pkg, id).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *PackageRepository) GetActive(ctx context.Context) ([]models.Package, error) {
	var packages []models.Package
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("price ASC").Find(&packages).Error
	return packages, err
}
