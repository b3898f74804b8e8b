package services

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"
)

// qrImageSize is the PNG edge length in pixels. Access links fit comfortably
// at medium recovery with this size.
const qrImageSize = 256

// QRService renders access links as QR code PNG images.
type QRService struct {
	logger *logrus.Logger
}

func NewQRService(logger *logrus.Logger) *QRService {
	return &QRService{logger: logger}
}

// GenerateQR encodes link into a PNG image.
func (s *QRService) GenerateQR(link string) ([]byte, error) {
	s.logger.Debugf("Encoding QR code, %d bytes of payload", len(link))

	png, err := qrcode.Encode(link, qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}
