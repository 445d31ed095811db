package assets

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/google/uuid"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestProcessAvatarCropsAndDownscales(t *testing.T) {
	out, err := ProcessAvatar(bytes.NewReader(pngOf(t, 1200, 800)), 512)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not jpeg: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 512 || b.Dy() != 512 {
		t.Fatalf("size = %dx%d, want 512x512", b.Dx(), b.Dy())
	}
}

func TestProcessAvatarDoesNotUpscale(t *testing.T) {
	out, err := ProcessAvatar(bytes.NewReader(pngOf(t, 200, 300)), 512)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 200 {
		t.Fatalf("size = %dx%d, want 200x200", b.Dx(), b.Dy())
	}
}

func TestProcessAvatarRejectsGarbage(t *testing.T) {
	if _, err := ProcessAvatar(bytes.NewReader(nil), 512); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("got %v, want ErrEmptyImage", err)
	}
	if _, err := ProcessAvatar(bytes.NewReader([]byte("not an image")), 512); !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("got %v, want ErrInvalidImage", err)
	}
}

func TestRenderQR(t *testing.T) {
	out, err := RenderQR("https://loopcard.app/u/mvr-farms", 256)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 256 || b.Dy() != 256 {
		t.Fatalf("size = %dx%d", b.Dx(), b.Dy())
	}
	if _, err := RenderQR("  ", 256); err == nil {
		t.Fatal("expected error for empty content")
	}
}

type memUploader struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func (m *memUploader) Upload(_ context.Context, bucket, path, contentType string, data []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	key := bucket + "/" + path
	m.objects[key] = data
	m.types[key] = contentType
	return "https://cdn.test/" + key, nil
}

func TestPublisherUsesPerUserPaths(t *testing.T) {
	up := &memUploader{objects: map[string][]byte{}, types: map[string]string{}}
	p := NewPublisher(up, "", "", 128)
	uid := uuid.MustParse("7b0f3a52-2f4e-4d8e-8a53-1f1d2b3c4d5e")

	avatarURL, err := p.PublishAvatar(context.Background(), uid, "acme", []byte{0xff, 0xd8, 0xff})
	if err != nil {
		t.Fatalf("avatar: %v", err)
	}
	if want := "https://cdn.test/avatars/" + uid.String() + "/acme-avatar.jpg"; avatarURL != want {
		t.Fatalf("avatar url = %q, want %q", avatarURL, want)
	}

	qrURL, err := p.PublishQR(context.Background(), uid, "acme", "https://loopcard.app/u/acme")
	if err != nil {
		t.Fatalf("qr: %v", err)
	}
	key := "qrcodes/" + uid.String() + "/acme-qr.png"
	if qrURL != "https://cdn.test/"+key {
		t.Fatalf("qr url = %q", qrURL)
	}
	if up.types[key] != "image/png" {
		t.Fatalf("content type = %q", up.types[key])
	}
}

func TestPublisherPropagatesBackendError(t *testing.T) {
	boom := errors.New("bucket not found")
	p := NewPublisher(&memUploader{err: boom}, "", "", 0)
	if _, err := p.PublishQR(context.Background(), uuid.New(), "x", "https://x.test/x"); !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
	if _, err := p.PublishAvatar(context.Background(), uuid.New(), "x", nil); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("got %v", err)
	}
}
