package models

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"
)

// BlobStore stores public assets such as avatars and QR codes.
type BlobStore interface {
	Upload(ctx context.Context, bucket, objectPath, contentType string, data []byte) (string, error)
}

// SupabaseBlobStore uploads to Supabase Storage buckets.
type SupabaseBlobStore struct {
	client *supabase.Client
}

func NewSupabaseBlobStore(client *supabase.Client) *SupabaseBlobStore {
	return &SupabaseBlobStore{client: client}
}

func (s *SupabaseBlobStore) Upload(ctx context.Context, bucket, objectPath, contentType string, data []byte) (string, error) {
	if s.client == nil || s.client.Storage == nil {
		return "", fmt.Errorf("supabase storage is not initialized")
	}
	upsert := true
	_, err := s.client.Storage.UploadFile(bucket, objectPath, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s/%s: %w", bucket, objectPath, err)
	}
	return s.client.Storage.GetPublicUrl(bucket, objectPath).SignedURL, nil
}

// CloudinaryBlobStore maps buckets to Cloudinary folders.
type CloudinaryBlobStore struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryBlobStore(cld *cloudinary.Cloudinary) *CloudinaryBlobStore {
	return &CloudinaryBlobStore{cld: cld}
}

func (c *CloudinaryBlobStore) Upload(ctx context.Context, bucket, objectPath, contentType string, data []byte) (string, error) {
	if c.cld == nil {
		return "", fmt.Errorf("cloudinary client is not initialized")
	}
	dir, file := path.Split(objectPath)
	publicID := strings.TrimSuffix(file, path.Ext(file))

	res, err := c.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:  publicID,
		Folder:    strings.TrimRight(path.Join(bucket, dir), "/"),
		Overwrite: api.Bool(true),
		Tags:      []string{"loopcard"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s/%s: %w", bucket, objectPath, err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("failed to upload %s/%s: %s", bucket, objectPath, res.Error.Message)
	}
	return res.SecureURL, nil
}
