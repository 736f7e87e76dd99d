package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrNotExist = errors.New("storage: object does not exist")
	ErrExist    = errors.New("storage: object already exists")
)

// BlobStore göreli yollarla adreslenen dosya deposu (disk ya da R2)
type BlobStore interface {
	Exists(ctx context.Context, path string) (bool, error)
	Get(ctx context.Context, path string) ([]byte, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Put(ctx context.Context, path string, reader io.Reader) error
	// Create yalnızca path boşsa yazar, doluysa ErrExist döner
	Create(ctx context.Context, path string, src io.ReadSeeker) error
	Delete(ctx context.Context, path string) error
	MakeDirectory(ctx context.Context, dir string) error
	URL(path string) string
}
