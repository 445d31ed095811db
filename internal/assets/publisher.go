package assets

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const (
	AvatarBucket = "avatars"
	QRBucket     = "qrcodes"
)

// Uploader stores a blob and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, bucket, path, contentType string, data []byte) (string, error)
}

// Publisher uploads card assets under per-user paths.
type Publisher struct {
	store        Uploader
	avatarBucket string
	qrBucket     string
	qrSize       int
}

func NewPublisher(store Uploader, avatarBucket, qrBucket string, qrSize int) *Publisher {
	if avatarBucket == "" {
		avatarBucket = AvatarBucket
	}
	if qrBucket == "" {
		qrBucket = QRBucket
	}
	return &Publisher{store: store, avatarBucket: avatarBucket, qrBucket: qrBucket, qrSize: qrSize}
}

func AvatarPath(userID uuid.UUID, slug string) string {
	return fmt.Sprintf("%s/%s-avatar.jpg", userID, slug)
}

func QRPath(userID uuid.UUID, slug string) string {
	return fmt.Sprintf("%s/%s-qr.png", userID, slug)
}

// PublishAvatar uploads an already processed JPEG avatar.
func (p *Publisher) PublishAvatar(ctx context.Context, userID uuid.UUID, slug string, jpeg []byte) (string, error) {
	if len(jpeg) == 0 {
		return "", ErrEmptyImage
	}
	url, err := p.store.Upload(ctx, p.avatarBucket, AvatarPath(userID, slug), "image/jpeg", jpeg)
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	return url, nil
}

// PublishQR renders the QR code for publicURL and uploads it next to the avatar.
func (p *Publisher) PublishQR(ctx context.Context, userID uuid.UUID, slug, publicURL string) (string, error) {
	png, err := RenderQR(publicURL, p.qrSize)
	if err != nil {
		return "", err
	}
	url, err := p.store.Upload(ctx, p.qrBucket, QRPath(userID, slug), "image/png", png)
	if err != nil {
		return "", fmt.Errorf("upload qr: %w", err)
	}
	return url, nil
}
