// Package qr renders generated WireGuard profiles as QR codes so mobile
// clients can import them by scanning. The profile generation core emits
// plain text only; image encoding lives here, on the caller's side of that
// boundary.
package qr

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

// ErrInvalidContent is returned when the content is empty or does not look
// like a WireGuard configuration.
var ErrInvalidContent = errors.New("invalid config content")

// Generator renders WireGuard configurations as QR codes.
// The defaults balance image size against readability for phone cameras.
type Generator struct {
	// Size determines the pixel dimensions of the generated image.
	Size int
	// RecoveryLevel determines the error correction level.
	RecoveryLevel qrcode.RecoveryLevel
}

// NewGenerator creates a Generator with default settings: 256 pixels and
// medium error correction, which WireGuard mobile apps scan reliably.
func NewGenerator() *Generator {
	return &Generator{
		Size:          256,
		RecoveryLevel: qrcode.Medium,
	}
}

// PNG renders the configuration as PNG image data.
// Returns the image bytes, or ErrInvalidContent when the content is not a
// WireGuard configuration.
func (g *Generator) PNG(content string) ([]byte, error) {
	if err := validateConfig(content); err != nil {
		return nil, err
	}

	size := g.Size
	if size <= 0 {
		size = 256
	}
	pngData, err := qrcode.Encode(content, g.RecoveryLevel, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code PNG: %w", err)
	}
	return pngData, nil
}

// DataURI renders the configuration as a base64 PNG data URI, ready to embed
// in a JSON response or an <img> tag without a separate image endpoint.
func (g *Generator) DataURI(content string) (string, error) {
	pngData, err := g.PNG(content)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(pngData)), nil
}

// validateConfig checks that the content carries the two sections every
// WireGuard client configuration has. Encoding arbitrary text would produce
// a QR code the importing app rejects.
func validateConfig(content string) error {
	if content == "" {
		return fmt.Errorf("%w: empty content", ErrInvalidContent)
	}
	if !strings.Contains(content, "[Interface]") || !strings.Contains(content, "[Peer]") {
		return fmt.Errorf("%w: missing [Interface] or [Peer] section", ErrInvalidContent)
	}
	return nil
}
