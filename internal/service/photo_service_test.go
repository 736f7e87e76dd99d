package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/sefazor/eventphotos-backend/internal/models"
	"github.com/sefazor/eventphotos-backend/internal/testutil"
	"github.com/sefazor/eventphotos-backend/pkg/imageconv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type solidDecoder struct{}

func (solidDecoder) Decode(context.Context, []byte) (image.Image, error) {
	return imaging.New(4, 4, color.NRGBA{G: 255, A: 255}), nil
}

func guestRequest(files ...UploadFile) GuestUploadRequest {
	return GuestUploadRequest{
		Files:         files,
		UploaderName:  "Ayşe",
		UploaderEmail: "guest@example.com",
		UploaderIP:    "10.0.0.1",
	}
}

func TestGuestUploadAppendsAfterMaxOrder(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.db, 1, models.EventStatusPublished)
	testutil.CreatePhoto(t, f.db, event.ID, "event-photos/x/a.jpg", models.PhotoStatusApproved, 3)
	testutil.CreatePhoto(t, f.db, event.ID, "event-photos/x/b.jpg", models.PhotoStatusApproved, 7)

	f.queue.On("EnqueuePhotoProcessing", mock.Anything, mock.AnythingOfType("uint")).Return(nil)

	result, err := f.photos.GuestUpload(ctx, event.Slug, guestRequest(
		fileOf("one.jpg", "image/jpeg", "1"),
		fileOf("two.png", "image/png", "2"),
		fileOf("three.heic", "image/heic", "3"),
	))
	require.NoError(t, err)
	assert.Equal(t, "3 fotoğraf başarıyla yüklendi! Onay bekliyor.", result.Message)
	require.Len(t, result.Photos, 3)

	for i, photo := range result.Photos {
		assert.Equal(t, 8+i, photo.Order)
		assert.Equal(t, models.PhotoStatusProcessing, photo.Status)
		assert.Equal(t, "guest@example.com", *photo.UploaderEmail)
		assert.Equal(t, "10.0.0.1", *photo.UploaderIP)
		exists, err := f.store.Exists(ctx, photo.PhotoPath)
		require.NoError(t, err)
		assert.True(t, exists)
	}
	assert.Equal(t, fmt.Sprintf("event-photos/%d/guest_example_com_20250820_120000_2.heic", event.ID), result.Photos[2].PhotoPath)

	f.queue.AssertNumberOfCalls(t, "EnqueuePhotoProcessing", 3)
}

func TestGuestUploadMixedMediaMessage(t *testing.T) {
	f := newFixture(t, nil)
	event := testutil.CreateEvent(t, f.db, 1, models.EventStatusPublished)
	f.queue.On("EnqueuePhotoProcessing", mock.Anything, mock.Anything).Return(nil)

	result, err := f.photos.GuestUpload(context.Background(), event.Slug, guestRequest(
		fileOf("a.jpg", "image/jpeg", "1"),
		fileOf("b.mp4", "video/mp4", "2"),
	))
	require.NoError(t, err)
	assert.Equal(t, "2 dosya başarıyla yüklendi! Onay bekliyor.", result.Message)
	assert.Equal(t, fmt.Sprintf("event-videos/%d/guest_example_com_20250820_120000_1.mp4", event.ID), result.Photos[1].PhotoPath)
	assert.Equal(t, 1, result.Photos[0].Order)
	assert.Equal(t, 2, result.Photos[1].Order)
}

func TestGuestUploadRequiresPublishedEvent(t *testing.T) {
	f := newFixture(t, nil)
	draft := testutil.CreateEvent(t, f.db, 1, models.EventStatusDraft)

	_, err := f.photos.GuestUpload(context.Background(), draft.Slug, guestRequest(fileOf("a.jpg", "image/jpeg", "1")))
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = f.photos.GuestUpload(context.Background(), "nope", guestRequest(fileOf("a.jpg", "image/jpeg", "1")))
	assert.ErrorIs(t, err, ErrEventNotFound)

	f.queue.AssertNotCalled(t, "EnqueuePhotoProcessing", mock.Anything, mock.Anything)
}

func TestGuestUploadCapacityBoundary(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.db, 1, models.EventStatusPublished)
	testutil.CreatePhotos(t, f.db, event.ID, MaxPhotosPerEvent-1)
	f.queue.On("EnqueuePhotoProcessing", mock.Anything, mock.Anything).Return(nil)

	// 1000. fotoğraf kabul
	_, err := f.photos.GuestUpload(ctx, event.Slug, guestRequest(fileOf("last.jpg", "image/jpeg", "1")))
	require.NoError(t, err)

	// 1001. reddedilir, hiçbir şey yazılmaz
	_, err = f.photos.GuestUpload(ctx, event.Slug, guestRequest(fileOf("over.jpg", "image/jpeg", "1")))
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	count, err := f.photoRepo.CountByEventID(ctx, event.ID)
	require.NoError(t, err)
	assert.EqualValues(t, MaxPhotosPerEvent, count)

	entries, err := os.ReadDir(filepath.Join(f.store.BasePath, "event-photos", fmt.Sprint(event.ID)))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGuestUploadSizeBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		file    UploadFile
		wantErr string
	}{
		{"image at limit", sizedFile("a.jpg", "image/jpeg", MaxImageSize), ""},
		{"image over limit", sizedFile("a.jpg", "image/jpeg", MaxImageSize+1), "Image files may not exceed 15 MB."},
		{"video at limit", sizedFile("a.mp4", "video/mp4", MaxVideoSize), ""},
		{"video over limit", sizedFile("a.mp4", "video/mp4", MaxVideoSize+1), "Video files may not exceed 250 MB."},
		{"over coarse ceiling", sizedFile("a.mp4", "video/mp4", MaxUploadSize+1), "File exceeds the maximum upload size."},
		{"unsupported type", sizedFile("a.pdf", "application/pdf", 10), "Unsupported file type."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			event := testutil.CreateEvent(t, f.db, 1, models.EventStatusPublished)
			f.queue.On("EnqueuePhotoProcessing", mock.Anything, mock.Anything).Return(nil)

			_, err := f.photos.GuestUpload(context.Background(), event.Slug, guestRequest(fileOf("ok.jpg", "image/jpeg", "1"), tt.file))
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, map[string]string{"files.1": tt.wantErr}, verr.Fields)

			count, err := f.photoRepo.CountByEventID(context.Background(), event.ID)
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestGuestUploadValidatesRequestFields(t *testing.T) {
	f := newFixture(t, nil)
	event := testutil.CreateEvent(t, f.db, 1, models.EventStatusPublished)

	files := make([]UploadFile, 6)
	for i := range files {
		files[i] = fileOf("a.jpg", "image/jpeg", "1")
	}
	_, err := f.photos.GuestUpload(context.Background(), event.Slug, GuestUploadRequest{
		Files:         files,
		UploaderEmail: "not-an-email",
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "files")
	assert.Contains(t, verr.Fields, "uploader_name")
	assert.Contains(t, verr.Fields, "uploader_email")
}

func TestGuestUploadEnqueueFailureMarksFailed(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.db, 1, models.EventStatusPublished)
	f.queue.On("EnqueuePhotoProcessing", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	result, err := f.photos.GuestUpload(ctx, event.Slug, guestRequest(fileOf("a.jpg", "image/jpeg", "1")))
	require.NoError(t, err)
	assert.Equal(t, models.PhotoStatusFailed, result.Photos[0].Status)

	stored, err := f.photoRepo.GetByID(ctx, result.Photos[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.PhotoStatusFailed, stored.Status)
}

func TestOwnerUpload(t *testing.T) {
	f := newFixture(t, imageconv.NewConverter(solidDecoder{}))
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.db, 1, models.EventStatusDraft)
	testutil.CreatePhoto(t, f.db, event.ID, "event-photos/x/a.jpg", models.PhotoStatusApproved, 5)

	result, err := f.photos.OwnerUpload(ctx, event.ID, 1, OwnerUploadRequest{
		Files: []UploadFile{
			fileOf("cover.png", "image/png", "png"),
			fileOf("IMG_1.HEIC", "image/heic", "heic-bytes"),
		},
		OwnerEmail: "owner@example.com",
	})
	require.NoError(t, err)
	require.Len(t, result.Photos, 2)

	assert.Equal(t, models.PhotoStatusPending, result.Photos[0].Status)
	assert.Equal(t, 6, result.Photos[0].Order)
	assert.Equal(t, 7, result.Photos[1].Order)

	heic := result.Photos[1]
	assert.Equal(t, "image/jpeg", heic.MimeType)
	assert.Equal(t, fmt.Sprintf("event-photos/%d/owner_example_com_20250820_120000_1.jpg", event.ID), heic.PhotoPath)
	data, err := f.store.Get(ctx, heic.PhotoPath)
	require.NoError(t, err)
	assert.EqualValues(t, len(data), heic.FileSize)

	f.queue.AssertNotCalled(t, "EnqueuePhotoProcessing", mock.Anything, mock.Anything)
}

func TestOwnerUploadRules(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	event := testutil.CreateEvent(t, f.db, 1, models.EventStatusDraft)

	_, err := f.photos.OwnerUpload(ctx, event.ID, 2, OwnerUploadRequest{Files: []UploadFile{fileOf("a.jpg", "image/jpeg", "1")}})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.photos.OwnerUpload(ctx, event.ID, 1, OwnerUploadRequest{Files: []UploadFile{fileOf("a.mp4", "video/mp4", "1")}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Unsupported file type.", verr.Fields["files.0"])

	// Dönüştürücü yoksa HEIC olduğu gibi saklanır
	result, err := f.photos.OwnerUpload(ctx, event.ID, 1, OwnerUploadRequest{Files: []UploadFile{fileOf("b.heic", "image/heic", "1")}})
	require.NoError(t, err)
	assert.Equal(t, "image/heic", result.Photos[0].MimeType)
	assert.True(t, imageconv.IsHEIC(result.Photos[0].PhotoPath))
}
