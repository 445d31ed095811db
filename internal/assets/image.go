package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

const (
	DefaultAvatarWidth = 512
	AvatarQuality      = 80
	MaxUploadBytes     = 10 << 20
)

var (
	ErrEmptyImage   = errors.New("image is empty")
	ErrInvalidImage = errors.New("unsupported or corrupt image")
	ErrImageTooBig  = errors.New("image is too large")
)

// ProcessAvatar decodes a photo, crops it to a centered square, downscales it
// to width (never upscaling) and re-encodes it as JPEG.
func ProcessAvatar(r io.Reader, width int) ([]byte, error) {
	if width <= 0 {
		width = DefaultAvatarWidth
	}

	raw, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrEmptyImage
	}
	if len(raw) > MaxUploadBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrImageTooBig, MaxUploadBytes)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	side := squareSide(img.Bounds(), width)
	out := imaging.Fill(img, side, side, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(AvatarQuality)); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}

func squareSide(b image.Rectangle, width int) int {
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	if side > width {
		side = width
	}
	if side < 1 {
		side = 1
	}
	return side
}
