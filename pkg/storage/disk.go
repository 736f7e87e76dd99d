package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type DiskStorage struct {
	// BasePath is a directory writable by the current process
	BasePath  string
	publicURL string
	dirs      map[string]bool
	dirsMutex sync.Mutex
}

func NewDiskStorage(basePath, publicURL string) *DiskStorage {
	return &DiskStorage{
		BasePath:  basePath,
		publicURL: strings.TrimRight(publicURL, "/"),
		dirs:      make(map[string]bool, 10),
	}
}

// fullPath keeps every key under BasePath, "../" segments are cleaned away
func (s *DiskStorage) fullPath(path string) string {
	return filepath.Join(s.BasePath, filepath.FromSlash(filepath.Clean("/"+path)))
}

func (s *DiskStorage) createDir(dir string) error {
	s.dirsMutex.Lock()
	defer s.dirsMutex.Unlock()

	if ok := s.dirs[dir]; ok {
		if _, err := os.Stat(dir); err == nil {
			return nil
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	s.dirs[dir] = true
	return nil
}

func (s *DiskStorage) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(s.fullPath(path))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (s *DiskStorage) Get(ctx context.Context, path string) ([]byte, error) {
	file, err := s.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func (s *DiskStorage) Open(_ context.Context, path string) (io.ReadCloser, error) {
	file, err := os.Open(s.fullPath(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (s *DiskStorage) Put(_ context.Context, path string, reader io.Reader) error {
	return s.write(path, reader, os.O_CREATE|os.O_WRONLY|os.O_TRUNC)
}

// Create fails with ErrExist without reading src when path is already taken.
// O_EXCL makes the check and the claim a single step.
func (s *DiskStorage) Create(_ context.Context, path string, src io.ReadSeeker) error {
	err := s.write(path, src, os.O_CREATE|os.O_WRONLY|os.O_EXCL)
	if errors.Is(err, fs.ErrExist) {
		return ErrExist
	}
	return err
}

func (s *DiskStorage) write(path string, reader io.Reader, flag int) error {
	fileName := s.fullPath(path)
	if err := s.createDir(filepath.Dir(fileName)); err != nil {
		return err
	}
	file, err := os.OpenFile(fileName, flag, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		os.Remove(fileName)
		return err
	}
	return file.Close()
}

// Delete is idempotent: a missing file is not an error
func (s *DiskStorage) Delete(_ context.Context, path string) error {
	err := os.Remove(s.fullPath(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *DiskStorage) MakeDirectory(_ context.Context, dir string) error {
	return s.createDir(s.fullPath(dir))
}

func (s *DiskStorage) URL(path string) string {
	return s.publicURL + "/" + strings.TrimLeft(path, "/")
}
