package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/sefazor/eventphotos-backend/internal/config"
	"github.com/sefazor/eventphotos-backend/internal/handler"
	"github.com/sefazor/eventphotos-backend/internal/jobs"
	"github.com/sefazor/eventphotos-backend/internal/repository"
	"github.com/sefazor/eventphotos-backend/internal/service"
	"github.com/sefazor/eventphotos-backend/pkg/database"
	"github.com/sefazor/eventphotos-backend/pkg/imageconv"
	"github.com/sefazor/eventphotos-backend/pkg/logger"
	"github.com/sefazor/eventphotos-backend/pkg/qrcode"
	"github.com/sefazor/eventphotos-backend/pkg/storage"
	"github.com/sefazor/eventphotos-backend/pkg/utils"
)

// En büyük geçerli misafir isteği: 5 dosya x 256 MB + form alanları
const bodyLimit = int(service.MaxUploadSize)*service.MaxGuestFiles + 1<<20

func main() {
	// Config'i yükle
	cfg := config.LoadConfig()

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.RunMigrations(db); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	store, err := storage.NewBlobStore(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize storage", zap.Error(err))
	}

	var converter *imageconv.Converter
	if decoder, err := imageconv.NewMagickDecoder(cfg.HeicConverterBin); err != nil {
		log.Warn("heic conversion disabled", zap.Error(err))
	} else {
		converter = imageconv.NewConverter(decoder)
	}

	queueClient := jobs.NewClient(asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}))
	defer queueClient.Close()

	// Repositories
	eventRepo := repository.NewEventRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	packageRepo := repository.NewPackageRepository(db)

	// Services
	authorizer := service.OwnerPolicy{}
	packageService := service.NewPackageService(packageRepo)
	eventService := service.NewEventService(
		eventRepo,
		photoRepo,
		packageService,
		store,
		qrcode.NewQRService(cfg.PublicBaseURL),
		authorizer,
		log.Named("events"),
	)
	photoService := service.NewPhotoService(
		photoRepo,
		eventRepo,
		store,
		queueClient,
		converter,
		authorizer,
		log.Named("uploads"),
	)
	moderationService := service.NewModerationService(photoRepo, eventRepo, store, authorizer, log.Named("moderation"))
	exportService := service.NewExportService(photoRepo, eventRepo, store, authorizer, "", log.Named("export"))

	validator := utils.NewValidator()

	// Handlers
	handlers := handler.Handlers{
		Public:  handler.NewPublicHandler(eventService, photoService, log),
		Event:   handler.NewEventHandler(eventService, log),
		Photo:   handler.NewPhotoHandler(photoService, moderationService, exportService, validator, log),
		Package: handler.NewPackageHandler(packageService, log),
	}

	app := fiber.New(fiber.Config{
		BodyLimit:         bodyLimit,
		StreamRequestBody: true,
		ReadTimeout:       10 * time.Minute,
		EnablePrintRoutes: cfg.IsDevelopment(),
	})

	// Global Middleware'ler önce tanımlanmalı
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE",
		AllowCredentials: true,
	}))
	app.Use(fiberLogger.New())

	// Onaylanmamış dosyalar da buradan erişilebilir; moderasyon ekranı bu URL'leri kullanır
	if cfg.StorageDriver == storage.DriverDisk {
		app.Static("/storage", cfg.StoragePath)
	}

	handler.SetupRoutes(app, handlers, handler.RouteConfig{
		JWTSecret:       cfg.JWTSecret,
		UploadRateLimit: cfg.UploadRateLimit,
		Logger:          log,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()
	log.Info("api listening", zap.String("port", cfg.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
