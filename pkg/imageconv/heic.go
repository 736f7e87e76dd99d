package imageconv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os/exec"
	"path"
	"strings"

	"github.com/disintegration/imaging"
)

const DefaultJPEGQuality = 90

var ErrUnavailable = errors.New("imageconv: heic decoder unavailable")

// Decoder ham HEIC/HEIF baytlarını image.Image'a çevirir
type Decoder interface {
	Decode(ctx context.Context, data []byte) (image.Image, error)
}

// Converter normalizes HEIC/HEIF blobs to JPEG. A nil *Converter or one
// without a decoder is valid and always reports ErrUnavailable.
type Converter struct {
	decoder Decoder
	quality int
}

func NewConverter(decoder Decoder) *Converter {
	return &Converter{decoder: decoder, quality: DefaultJPEGQuality}
}

func (c *Converter) Available() bool {
	return c != nil && c.decoder != nil
}

func (c *Converter) ToJPEG(ctx context.Context, data []byte) ([]byte, error) {
	if !c.Available() {
		return nil, ErrUnavailable
	}
	img, err := c.decoder.Decode(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode heic: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(c.quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// MagickDecoder ImageMagick ikilisiyle HEIC'i PNG'ye çevirip okur
type MagickDecoder struct {
	bin string
}

// NewMagickDecoder returns ErrUnavailable when bin is not on PATH.
func NewMagickDecoder(bin string) (*MagickDecoder, error) {
	resolved, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &MagickDecoder{bin: resolved}, nil
}

func (d *MagickDecoder) Decode(ctx context.Context, data []byte) (image.Image, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.bin, "heic:-", "png:-")
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", path.Base(d.bin), err, strings.TrimSpace(stderr.String()))
	}
	return imaging.Decode(&stdout)
}

func IsHEIC(filePath string) bool {
	switch strings.ToLower(path.Ext(filePath)) {
	case ".heic", ".heif":
		return true
	}
	return false
}

func IsHEICMimeType(mimeType string) bool {
	mimeType = strings.ToLower(mimeType)
	return mimeType == "image/heic" || mimeType == "image/heif"
}

// JPEGPath swaps a trailing .heic/.heif for .jpg
func JPEGPath(filePath string) string {
	if !IsHEIC(filePath) {
		return filePath
	}
	return strings.TrimSuffix(filePath, path.Ext(filePath)) + ".jpg"
}
