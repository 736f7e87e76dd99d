package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	internalConfig "github.com/sefazor/eventphotos-backend/internal/config"
	"go.uber.org/zap"
)

type CloudflareStorage struct {
	client    *s3.Client
	bucket    string
	accountID string
	publicURL string
	logger    *zap.Logger
}

func NewCloudflareStorage(cfg *internalConfig.Config, logger *zap.Logger) (*CloudflareStorage, error) {
	awsCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.R2.AccessKeyID,
			cfg.R2.SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2.AccountID))
	})

	return &CloudflareStorage{
		client:    client,
		bucket:    cfg.R2.Bucket,
		accountID: cfg.R2.AccountID,
		publicURL: strings.TrimRight(cfg.R2.PublicURL, "/"),
		logger:    logger.Named("r2"),
	}, nil
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &notFound) || errors.As(err, &noSuchKey)
}

func (s *CloudflareStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat R2 object: %w", err)
}

func (s *CloudflareStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("failed to download from R2: %w", err)
	}
	return out.Body, nil
}

func (s *CloudflareStorage) Get(ctx context.Context, key string) ([]byte, error) {
	body, err := s.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

// Put dosyayı R2'ye yükler
func (s *CloudflareStorage) Put(ctx context.Context, key string, src io.Reader) error {
	// Boyutu biliniyorsa doğrudan akıt
	if readerWithSize, ok := src.(io.ReadSeeker); ok {
		return s.putObject(ctx, key, readerWithSize, false)
	}

	// Aksi halde içerik belleğe okunur
	buf, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("failed to read file content: %w", err)
	}
	return s.putObject(ctx, key, bytes.NewReader(buf), false)
}

// Create is a conditional PutObject (If-None-Match: *). R2 answers 412 when
// the key exists, or 409 when a concurrent conditional write won the race.
func (s *CloudflareStorage) Create(ctx context.Context, key string, src io.ReadSeeker) error {
	return s.putObject(ctx, key, src, true)
}

func (s *CloudflareStorage) putObject(ctx context.Context, key string, src io.ReadSeeker, ifAbsent bool) error {
	currentPos, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("failed to get current position: %w", err)
	}
	size, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}
	if _, err = src.Seek(currentPos, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek back to start: %w", err)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          src,
		ContentLength: aws.Int64(size - currentPos),
	}
	if ifAbsent {
		input.IfNoneMatch = aws.String("*")
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		if ifAbsent && isConflict(err) {
			// Çağıran bir sonraki adı denerken gövde baştan okunmalı
			if _, seekErr := src.Seek(currentPos, io.SeekStart); seekErr != nil {
				return fmt.Errorf("failed to rewind after conflict: %w", seekErr)
			}
			return ErrExist
		}
		s.logger.Error("upload failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to upload to R2: %w", err)
	}
	s.logger.Debug("object uploaded", zap.String("key", key), zap.Int64("size", size-currentPos))
	return nil
}

func isConflict(err error) bool {
	var respErr *awshttp.ResponseError
	if !errors.As(err, &respErr) {
		return false
	}
	code := respErr.HTTPStatusCode()
	return code == http.StatusPreconditionFailed || code == http.StatusConflict
}

// Delete dosyayı R2'den siler
func (s *CloudflareStorage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// R2'de dizin kavramı yok, anahtar önekleri yeterli
func (s *CloudflareStorage) MakeDirectory(context.Context, string) error {
	return nil
}

func (s *CloudflareStorage) URL(key string) string {
	return s.publicURL + "/" + strings.TrimLeft(key, "/")
}
