package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/sefazor/eventphotos-backend/internal/metrics"
	"github.com/sefazor/eventphotos-backend/internal/middleware"
	"go.uber.org/zap"
)

type Handlers struct {
	Public  *PublicHandler
	Event   *EventHandler
	Photo   *PhotoHandler
	Package *PackageHandler
}

type RouteConfig struct {
	JWTSecret string
	// Misafir yükleme limiti (IP başına dakikada)
	UploadRateLimit int
	Logger          *zap.Logger
}

func SetupRoutes(app *fiber.App, h Handlers, cfg RouteConfig) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")

	// Public routes
	api.Get("/packages", h.Package.GetActivePackages)
	api.Get("/events/public/:slug", h.Public.GetEvent)

	uploadLimiter := func(c *fiber.Ctx) error { return c.Next() }
	if cfg.UploadRateLimit > 0 {
		uploadLimiter = limiter.New(limiter.Config{
			Max:        cfg.UploadRateLimit,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
		})
	}
	api.Post("/events/public/:slug/upload", uploadLimiter, h.Public.Upload)

	// Protected routes
	api.Use(middleware.AuthMiddleware(cfg.JWTSecret, cfg.Logger))
	{
		events := api.Group("/events")
		events.Post("/", h.Event.CreateEvent)
		events.Get("/", h.Event.GetUserEvents)
		events.Get("/:id", h.Event.GetEvent)
		events.Put("/:id", h.Event.UpdateEvent)
		events.Delete("/:id", h.Event.DeleteEvent)
		events.Get("/:id/qrcode", h.Event.GetEventQRCode)

		events.Post("/:id/photos", h.Photo.UploadEventPhotos)
		events.Get("/:id/photos", h.Photo.GetEventPhotos)
		events.Patch("/:id/photos/order", h.Photo.ReorderPhotos)
		events.Post("/:id/photos/bulk-delete", h.Photo.BulkDelete)
		events.Get("/:id/photos/download", h.Photo.DownloadAll)

		photos := api.Group("/photos")
		photos.Patch("/:id/approve", h.Photo.ApprovePhoto)
		photos.Patch("/:id/reject", h.Photo.RejectPhoto)
		photos.Patch("/:id/cover", h.Photo.SetCover)
		photos.Delete("/:id", h.Photo.DeletePhoto)
	}
}
