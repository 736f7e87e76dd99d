package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sefazor/eventphotos-backend/internal/repository"
	"github.com/sefazor/eventphotos-backend/internal/testutil"
	"github.com/sefazor/eventphotos-backend/pkg/imageconv"
	"github.com/sefazor/eventphotos-backend/pkg/qrcode"
	"github.com/sefazor/eventphotos-backend/pkg/storage"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) EnqueuePhotoProcessing(ctx context.Context, photoID uint) error {
	args := m.Called(ctx, photoID)
	return args.Error(0)
}

type fixture struct {
	db         *gorm.DB
	store      *storage.DiskStorage
	queue      *mockQueue
	photoRepo  *repository.PhotoRepository
	eventRepo  *repository.EventRepository
	photos     *PhotoService
	moderation *ModerationService
	export     *ExportService
	events     *EventService
}

func newFixture(t *testing.T, converter *imageconv.Converter) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	store := storage.NewDiskStorage(t.TempDir(), "http://localhost:8080/storage")
	queue := &mockQueue{}
	logger := zap.NewNop()

	photoRepo := repository.NewPhotoRepository(db)
	eventRepo := repository.NewEventRepository(db)
	packageService := NewPackageService(repository.NewPackageRepository(db))
	authorizer := OwnerPolicy{}

	clock := func() time.Time { return time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC) }

	return &fixture{
		db:        db,
		store:     store,
		queue:     queue,
		photoRepo: photoRepo,
		eventRepo: eventRepo,
		photos: NewPhotoService(photoRepo, eventRepo, store, queue, converter, authorizer, logger).
			WithPlacer(storage.NewPlacer(store).WithClock(clock)),
		moderation: NewModerationService(photoRepo, eventRepo, store, authorizer, logger),
		export:     NewExportService(photoRepo, eventRepo, store, authorizer, t.TempDir(), logger),
		events: NewEventService(eventRepo, photoRepo, packageService, store, qrcode.NewQRService("https://eventphotos.app"), authorizer, logger).
			WithClock(clock),
	}
}

func fileOf(name, mimeType, content string) UploadFile {
	return UploadFile{
		Name:     name,
		MimeType: mimeType,
		Size:     int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

// sizedFile reports size without allocating it; only the metadata is validated.
func sizedFile(name, mimeType string, size int64) UploadFile {
	f := fileOf(name, mimeType, "x")
	f.Size = size
	return f
}
