package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sefazor/eventphotos-backend/internal/models"
	"github.com/sefazor/eventphotos-backend/pkg/database"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory sqlite database with migrations and
// seeded packages applied.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Tek bağlantı: paylaşımlı önbellekte "table is locked" hatalarını önler
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.RunMigrations(db))
	return db
}

func FreePackage(t *testing.T, db *gorm.DB) models.Package {
	t.Helper()
	var pkg models.Package
	require.NoError(t, db.Where("slug = ?", "free").First(&pkg).Error)
	return pkg
}

func CreateEvent(t *testing.T, db *gorm.DB, userID uint, status models.EventStatus) *models.Event {
	t.Helper()
	pkg := FreePackage(t, db)
	event := &models.Event{
		UserID:    userID,
		PackageID: pkg.ID,
		Name:      "Düğün",
		Slug:      "250820-" + uuid.NewString()[:8],
		Location:  "İstanbul",
		EventDate: time.Date(2030, 8, 20, 0, 0, 0, 0, time.UTC),
		Status:    status,
		IsActive:  true,
	}
	require.NoError(t, db.Create(event).Error)
	return event
}

func CreatePhoto(t *testing.T, db *gorm.DB, eventID uint, photoPath string, status models.PhotoStatus, order int) *models.EventPhoto {
	t.Helper()
	photo := &models.EventPhoto{
		EventID:      eventID,
		PhotoPath:    photoPath,
		OriginalName: "IMG_0001.jpg",
		FileSize:     4,
		MimeType:     "image/jpeg",
		Order:        order,
		Status:       status,
	}
	require.NoError(t, db.Create(photo).Error)
	return photo
}

// CreatePhotos bulk-inserts n plain records, for capacity tests.
func CreatePhotos(t *testing.T, db *gorm.DB, eventID uint, n int) {
	t.Helper()
	photos := make([]models.EventPhoto, n)
	for i := range photos {
		photos[i] = models.EventPhoto{
			EventID:   eventID,
			PhotoPath: fmt.Sprintf("event-photos/%d/seed_%d.jpg", eventID, i),
			MimeType:  "image/jpeg",
			Order:     i + 1,
			Status:    models.PhotoStatusApproved,
		}
	}
	require.NoError(t, db.CreateInBatches(photos, 200).Error)
}
