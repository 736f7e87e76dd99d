package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	PhotoRoot = "event-photos"
	VideoRoot = "event-videos"

	maxProbes = 1000
)

var extensionByMimeType = map[string]string{
	"image/heic":      "heic",
	"image/heif":      "heif",
	"image/jpeg":      "jpg",
	"image/jpg":       "jpg",
	"image/png":       "png",
	"image/gif":       "gif",
	"image/webp":      "webp",
	"video/mp4":       "mp4",
	"video/quicktime": "mov",
	"video/x-msvideo": "avi",
	"video/avi":       "avi",
	"video/x-ms-wmv":  "wmv",
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// IdentityToken turns an uploader email into a filesystem-safe token
func IdentityToken(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "anon"
	}
	return nonAlphanumeric.ReplaceAllString(email, "_")
}

// ResolveExtension önce istemci dosya adına, yoksa MIME tipine bakar
func ResolveExtension(filename, mimeType string) string {
	if ext := strings.TrimPrefix(filepath.Ext(filename), "."); ext != "" {
		return strings.ToLower(ext)
	}
	if ext, ok := extensionByMimeType[strings.ToLower(mimeType)]; ok {
		return ext
	}
	return "dat"
}

// DirectoryFor partitions assets by media kind and event
func DirectoryFor(eventID uint, mimeType string) string {
	if strings.HasPrefix(mimeType, "video/") {
		return fmt.Sprintf("%s/%d", VideoRoot, eventID)
	}
	return fmt.Sprintf("%s/%d", PhotoRoot, eventID)
}

// Placer yüklenen dosyalar için dizin içinde çakışmasız isim üretir ve yazar
type Placer struct {
	store BlobStore
	now   func() time.Time
}

func NewPlacer(store BlobStore) *Placer {
	return &Placer{store: store, now: time.Now}
}

// WithClock testlerde sabit saat kullanmak için
func (p *Placer) WithClock(now func() time.Time) *Placer {
	return &Placer{store: p.store, now: now}
}

// candidateName is "{base}.{ext}" for probe 0, "{base}_{n}.{ext}" after that.
func candidateName(base, ext string, probe int) string {
	if probe == 0 {
		return base + "." + ext
	}
	return fmt.Sprintf("%s_%d.%s", base, probe, ext)
}

// Place writes src under "{identity}_{YYYYMMDD_HHMMSS}_{batchIndex}.{ext}" in dir
// and returns the key. Each candidate is claimed with BlobStore.Create, so two
// concurrent uploads resolving to the same name end up on "_1", "_2", ...
func (p *Placer) Place(ctx context.Context, dir, filename, mimeType, email string, batchIndex int, src io.Reader) (string, error) {
	if err := p.store.MakeDirectory(ctx, dir); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	body, ok := src.(io.ReadSeeker)
	if !ok {
		// Çakışmada tekrar okunabilmesi için
		data, err := io.ReadAll(src)
		if err != nil {
			return "", fmt.Errorf("failed to read upload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	base := fmt.Sprintf("%s_%s_%d", IdentityToken(email), p.now().Format("20060102_150405"), batchIndex)
	ext := ResolveExtension(filename, mimeType)

	for probe := 0; probe < maxProbes; probe++ {
		key := path.Join(dir, candidateName(base, ext, probe))
		err := p.store.Create(ctx, key, body)
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, ErrExist) {
			return "", fmt.Errorf("failed to store %s: %w", key, err)
		}
	}
	return "", fmt.Errorf("no free name for %s in %s", base, dir)
}
