package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicURL       string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type Config struct {
	Env         string
	Port        string
	DatabaseURL string
	JWTSecret   string
	// Etkinlik linkleri ve QR kodları için (örn: https://eventphotos.app)
	PublicBaseURL string
	CORSOrigins   string
	// Misafir yüklemeleri için IP başına dakikalık istek sınırı
	UploadRateLimit int

	StorageDriver    string // disk | r2
	StoragePath      string
	StoragePublicURL string
	R2               R2Config

	Redis             RedisConfig
	WorkerConcurrency int

	HeicConverterBin string
}

// LoadConfig reads the environment; a .env file is optional.
func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Env:         getEnv("APP_ENV", "production"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:5173"), "/"),
		CORSOrigins:   getEnv("CORS_ORIGINS", "http://localhost:5173"),

		UploadRateLimit: getEnvInt("UPLOAD_RATE_LIMIT", 20),

		StorageDriver:    getEnv("STORAGE_DRIVER", "disk"),
		StoragePath:      getEnv("STORAGE_PATH", "storage/public"),
		StoragePublicURL: getEnv("STORAGE_PUBLIC_URL", "http://localhost:8080/storage"),

		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 4),

		HeicConverterBin: getEnv("HEIC_CONVERTER_BIN", "magick"),
	}

	// R2 config
	cfg.R2.AccountID = os.Getenv("R2_ACCOUNT_ID")
	cfg.R2.AccessKeyID = os.Getenv("R2_ACCESS_KEY_ID")
	cfg.R2.SecretAccessKey = os.Getenv("R2_SECRET_ACCESS_KEY")
	cfg.R2.Bucket = os.Getenv("R2_BUCKET")
	cfg.R2.PublicURL = os.Getenv("R2_PUBLIC_URL")

	return cfg
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
