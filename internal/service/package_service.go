package service

import (
	"context"
	"errors"

	"github.com/sefazor/eventphotos-backend/internal/models"
	"github.com/sefazor/eventphotos-backend/internal/repository"
	"gorm.io/gorm"
)

type PackageService struct {
	packageRepo *repository.PackageRepository
}

func NewPackageService(packageRepo *repository.PackageRepository) *PackageService {
	return &PackageService{
		packageRepo: packageRepo,
	}
}

func (s *PackageService) GetActivePackages(ctx context.Context) ([]models.Package, error) {
	return s.packageRepo.GetActive(ctx)
}

// GetActivePackage pasif paketler de bulunamadı sayılır
func (s *PackageService) GetActivePackage(ctx context.Context, id uint) (*models.Package, error) {
	pkg, err := s.packageRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}
	if !pkg.IsActive {
		return nil, ErrPackageNotFound
	}
	return pkg, nil
}
