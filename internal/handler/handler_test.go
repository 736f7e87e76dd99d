package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/eventphotos-backend/internal/models"
	"github.com/sefazor/eventphotos-backend/internal/repository"
	"github.com/sefazor/eventphotos-backend/internal/service"
	"github.com/sefazor/eventphotos-backend/internal/testutil"
	jwtPkg "github.com/sefazor/eventphotos-backend/pkg/jwt"
	"github.com/sefazor/eventphotos-backend/pkg/qrcode"
	"github.com/sefazor/eventphotos-backend/pkg/storage"
	"github.com/sefazor/eventphotos-backend/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type nopQueue struct{}

func (nopQueue) EnqueuePhotoProcessing(context.Context, uint) error { return nil }

type testApp struct {
	app   *fiber.App
	db    *gorm.DB
	store *storage.DiskStorage
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db := testutil.NewTestDB(t)
	store := storage.NewDiskStorage(t.TempDir(), "http://localhost:8080/storage")
	logger := zap.NewNop()

	eventRepo := repository.NewEventRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	packageService := service.NewPackageService(repository.NewPackageRepository(db))
	authorizer := service.OwnerPolicy{}

	eventService := service.NewEventService(eventRepo, photoRepo, packageService, store, qrcode.NewQRService("https://eventphotos.app"), authorizer, logger)
	photoService := service.NewPhotoService(photoRepo, eventRepo, store, nopQueue{}, nil, authorizer, logger)
	moderationService := service.NewModerationService(photoRepo, eventRepo, store, authorizer, logger)
	exportService := service.NewExportService(photoRepo, eventRepo, store, authorizer, t.TempDir(), logger)

	app := fiber.New()
	SetupRoutes(app, Handlers{
		Public:  NewPublicHandler(eventService, photoService, logger),
		Event:   NewEventHandler(eventService, logger),
		Photo:   NewPhotoHandler(photoService, moderationService, exportService, utils.NewValidator(), logger),
		Package: NewPackageHandler(packageService, logger),
	}, RouteConfig{JWTSecret: testSecret, Logger: logger})

	return &testApp{app: app, db: db, store: store}
}

type part struct {
	name, contentType, content string
}

func multipartBody(t *testing.T, fields map[string]string, parts ...part) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files[]"; filename="%s"`, p.name))
		h.Set("Content-Type", p.contentType)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write([]byte(p.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decode(t *testing.T, resp *http.Response) models.Response {
	t.Helper()
	defer resp.Body.Close()
	var body models.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func authed(t *testing.T, req *http.Request, userID uint) *http.Request {
	t.Helper()
	token, err := jwtPkg.GenerateToken(testSecret, fmt.Sprintf("owner%d@example.com", userID), userID)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

var guestFields = map[string]string{
	"uploader_name":  "Zeynep",
	"uploader_email": "zeynep@example.com",
}

func TestGuestUploadCreated(t *testing.T) {
	ta := newTestApp(t)
	event := testutil.CreateEvent(t, ta.db, 1, models.EventStatusPublished)

	body, contentType := multipartBody(t, guestFields,
		part{"a.jpg", "image/jpeg", "jpeg-bytes"},
		part{"b.mp4", "video/mp4", "mp4-bytes"},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/events/public/"+event.Slug+"/upload", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	got := decode(t, resp)
	assert.True(t, got.Success)
	assert.Equal(t, "2 dosya başarıyla yüklendi! Onay bekliyor.", got.Message)
	assert.Equal(t, float64(2), got.Data.(map[string]interface{})["count"])
}

func TestGuestUploadRejectsUnsupportedFile(t *testing.T) {
	ta := newTestApp(t)
	event := testutil.CreateEvent(t, ta.db, 1, models.EventStatusPublished)

	body, contentType := multipartBody(t, guestFields,
		part{"a.jpg", "image/jpeg", "jpeg-bytes"},
		part{"notes.txt", "text/plain", "hello"},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/events/public/"+event.Slug+"/upload", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	got := decode(t, resp)
	assert.False(t, got.Success)
	assert.Contains(t, got.Errors, "files.1")
	assert.NotContains(t, got.Errors, "files.0")

	var count int64
	require.NoError(t, ta.db.Model(&models.EventPhoto{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGuestUploadUnknownEvent(t *testing.T) {
	ta := newTestApp(t)

	body, contentType := multipartBody(t, guestFields, part{"a.jpg", "image/jpeg", "x"})
	req := httptest.NewRequest(http.MethodPost, "/api/events/public/000000-missing/upload", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ta := newTestApp(t)

	resp, err := ta.app.Test(httptest.NewRequest(http.MethodGet, "/api/events/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/events/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = ta.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestModerationEndpoints(t *testing.T) {
	ta := newTestApp(t)
	event := testutil.CreateEvent(t, ta.db, 1, models.EventStatusPublished)
	processed := testutil.CreatePhoto(t, ta.db, event.ID, "event-photos/1/a.jpg", models.PhotoStatusProcessed, 1)
	processing := testutil.CreatePhoto(t, ta.db, event.ID, "event-photos/1/b.heic", models.PhotoStatusProcessing, 2)

	approve := func(photoID, userID uint) *http.Response {
		req := authed(t, httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/api/photos/%d/approve", photoID), nil), userID)
		resp, err := ta.app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	resp := approve(processed.ID, 2)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = approve(processing.ID, 1)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = approve(processed.ID, 1)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	got := decode(t, resp)
	assert.Equal(t, string(models.PhotoStatusApproved), got.Data.(map[string]interface{})["status"])

	resp = approve(424242, 1)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDownloadAll(t *testing.T) {
	ta := newTestApp(t)
	event := testutil.CreateEvent(t, ta.db, 1, models.EventStatusPublished)
	require.NoError(t, ta.store.Put(context.Background(), "event-photos/1/a.jpg", strings.NewReader("jpeg")))
	testutil.CreatePhoto(t, ta.db, event.ID, "event-photos/1/a.jpg", models.PhotoStatusApproved, 1)

	req := authed(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/events/%d/photos/download", event.ID), nil), 1)
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), event.Slug+"-photos.zip")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(data[:2]))

	empty := testutil.CreateEvent(t, ta.db, 1, models.EventStatusPublished)
	req = authed(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/events/%d/photos/download", empty.ID), nil), 1)
	resp, err = ta.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}
