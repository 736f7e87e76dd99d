package qrcode

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

const DefaultSize = 512

// QRService, etkinlik misafir sayfası için QR kod üretir
type QRService struct {
	baseURL string // örn: "https://eventphotos.app"
}

func NewQRService(baseURL string) *QRService {
	return &QRService{
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// EventURL, misafirlerin yükleme yaptığı public sayfa
func (s *QRService) EventURL(slug string) string {
	return fmt.Sprintf("%s/events/%s", s.baseURL, slug)
}

// GenerateEventQRCode returns a PNG pointing at the event's public page.
func (s *QRService) GenerateEventQRCode(slug string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(s.EventURL(slug), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code PNG: %w", err)
	}
	return png, nil
}
