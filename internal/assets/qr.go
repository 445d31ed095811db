package assets

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const DefaultQRSize = 512

// RenderQR encodes a URL as a PNG QR code.
func RenderQR(url string, size int) ([]byte, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("qr: empty content")
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qr: encode %q: %w", url, err)
	}
	return png, nil
}
