package storage

import (
	"fmt"

	internalConfig "github.com/sefazor/eventphotos-backend/internal/config"
	"go.uber.org/zap"
)

const (
	DriverDisk = "disk"
	DriverR2   = "r2"
)

// NewBlobStore, STORAGE_DRIVER ayarına göre depoyu seçer
func NewBlobStore(cfg *internalConfig.Config, logger *zap.Logger) (BlobStore, error) {
	switch cfg.StorageDriver {
	case DriverDisk, "":
		return NewDiskStorage(cfg.StoragePath, cfg.StoragePublicURL), nil
	case DriverR2:
		return NewCloudflareStorage(cfg, logger)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}
