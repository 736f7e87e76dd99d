package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"github.com/sefazor/eventphotos-backend/internal/metrics"
	"github.com/sefazor/eventphotos-backend/internal/models"
	"github.com/sefazor/eventphotos-backend/internal/repository"
	"github.com/sefazor/eventphotos-backend/pkg/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Archive, geçici zip dosyası. Close dosyayı da siler.
type Archive struct {
	Path     string
	Filename string
	Entries  int
	Size     int64
	file     *os.File
}

func (a *Archive) Read(p []byte) (int, error) {
	return a.file.Read(p)
}

func (a *Archive) Close() error {
	err := a.file.Close()
	if rmErr := os.Remove(a.Path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
		err = rmErr
	}
	return err
}

type ExportService struct {
	photoRepo  *repository.PhotoRepository
	eventRepo  *repository.EventRepository
	store      storage.BlobStore
	authorizer Authorizer
	tempDir    string
	logger     *zap.Logger
}

func NewExportService(
	photoRepo *repository.PhotoRepository,
	eventRepo *repository.EventRepository,
	store storage.BlobStore,
	authorizer Authorizer,
	tempDir string,
	logger *zap.Logger,
) *ExportService {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &ExportService{
		photoRepo:  photoRepo,
		eventRepo:  eventRepo,
		store:      store,
		authorizer: authorizer,
		tempDir:    tempDir,
		logger:     logger,
	}
}

// ArchiveEntryName builds "{originalBase}_{id}.{ext}". The extension follows the
// stored file, which differs from the upload after a HEIC conversion.
func ArchiveEntryName(photo models.EventPhoto) string {
	base := baseName(photo.OriginalName)
	if base == "" || base == "." || base == "/" {
		base = "photo"
	}
	ext := strings.TrimPrefix(path.Ext(photo.PhotoPath), ".")
	if ext == "" {
		ext = storage.ResolveExtension("", photo.MimeType)
	}
	return fmt.Sprintf("%s_%d.%s", base, photo.ID, ext)
}

// BuildArchive writes every non-deleted photo of the event into a temp zip.
// Missing blobs are skipped; an archive with no entries is ErrEmptyArchive.
// The caller must Close the archive.
func (s *ExportService) BuildArchive(ctx context.Context, eventID, userID uint) (*Archive, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if !s.authorizer.Can(userID, ActionView, event) {
		return nil, ErrForbidden
	}

	photos, err := s.photoRepo.ListForExport(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}

	archivePath := filepath.Join(s.tempDir, fmt.Sprintf("event_%d_%s.zip", event.ID, uuid.NewString()))
	f, err := os.Create(archivePath)
	if err != nil {
		metrics.Exports.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}
	discard := func() {
		f.Close()
		os.Remove(archivePath)
	}

	zw := zip.NewWriter(f)
	entries := 0
	for _, photo := range photos {
		if err := ctx.Err(); err != nil {
			zw.Close()
			discard()
			return nil, err
		}
		added, err := s.addEntry(ctx, zw, photo)
		if err != nil {
			zw.Close()
			discard()
			metrics.Exports.WithLabelValues("error").Inc()
			return nil, err
		}
		if added {
			entries++
		}
	}

	if err := zw.Close(); err != nil {
		discard()
		metrics.Exports.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	if entries == 0 {
		discard()
		metrics.Exports.WithLabelValues("empty").Inc()
		return nil, ErrEmptyArchive
	}
	info, err := f.Stat()
	if err != nil {
		discard()
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		discard()
		return nil, fmt.Errorf("failed to rewind archive: %w", err)
	}

	metrics.Exports.WithLabelValues("ok").Inc()
	s.logger.Info("event archive built",
		zap.Uint("event_id", event.ID),
		zap.Int("entries", entries),
		zap.Int("skipped", len(photos)-entries),
	)

	return &Archive{
		Path:     archivePath,
		Filename: event.Slug + "-photos.zip",
		Entries:  entries,
		Size:     info.Size(),
		file:     f,
	}, nil
}

// addEntry returns false when the blob is gone; zip write errors are fatal.
func (s *ExportService) addEntry(ctx context.Context, zw *zip.Writer, photo models.EventPhoto) (bool, error) {
	src, err := s.store.Open(ctx, photo.PhotoPath)
	if err != nil {
		s.logger.Warn("skipping photo missing from storage",
			zap.Uint("photo_id", photo.ID),
			zap.String("path", photo.PhotoPath),
			zap.Error(err),
		)
		return false, nil
	}
	defer src.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     ArchiveEntryName(photo),
		Method:   zip.Store,
		Modified: photo.CreatedAt,
	})
	if err != nil {
		return false, fmt.Errorf("failed to add archive entry: %w", err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return false, fmt.Errorf("failed to write archive entry %d: %w", photo.ID, err)
	}
	return true, nil
}
