package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/sefazor/eventphotos-backend/internal/config"
	"github.com/sefazor/eventphotos-backend/internal/jobs"
	"github.com/sefazor/eventphotos-backend/internal/repository"
	"github.com/sefazor/eventphotos-backend/pkg/database"
	"github.com/sefazor/eventphotos-backend/pkg/imageconv"
	"github.com/sefazor/eventphotos-backend/pkg/logger"
	"github.com/sefazor/eventphotos-backend/pkg/storage"
)

func main() {
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

	store, err := storage.NewBlobStore(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize storage", zap.Error(err))
	}

	// Dönüştürücü yoksa HEIC fotoğrafları failed'a düşer
	var converter *imageconv.Converter
	if decoder, err := imageconv.NewMagickDecoder(cfg.HeicConverterBin); err != nil {
		log.Warn("heic conversion disabled", zap.Error(err))
	} else {
		converter = imageconv.NewConverter(decoder)
	}

	processor := jobs.NewPhotoProcessor(
		repository.NewPhotoRepository(db),
		store,
		converter,
		log.Named("worker"),
	)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Queues: map[string]int{
				jobs.QueueMedia:   6,
				jobs.QueueDefault: 3,
			},
			Concurrency:  cfg.WorkerConcurrency,
			ErrorHandler: asynq.ErrorHandlerFunc(processor.HandleError),
			Logger:       log.Named("asynq").Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(jobs.TypePhotoProcess, processor.ProcessTask)

	if err := srv.Start(mux); err != nil {
		log.Fatal("failed to start worker", zap.Error(err))
	}
	log.Info("worker started", zap.Int("concurrency", cfg.WorkerConcurrency))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down worker")
	srv.Shutdown()
}
