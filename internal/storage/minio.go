// Package storage stores generated quote PDFs in object storage and hands
// out presigned download URLs.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"travelquote_backend/platform/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignedURLTTL is the expiration time for presigned download URLs.
const PresignedURLTTL = 15 * time.Minute

const pdfContentType = "application/pdf"

// PresignedURL is a time-limited URL for one stored object.
type PresignedURL struct {
	URL       string
	FileKey   string
	ExpiresAt time.Time
}

// MinIOService stores quote documents in a MinIO bucket.
type MinIOService struct {
	client *minio.Client
	bucket string
}

// NewMinIOService creates the quote document store.
func NewMinIOService(cfg config.StorageConfig) (*MinIOService, error) {
	if cfg.GetMinIOEndpoint() == "" {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOService{client: client, bucket: cfg.GetQuotePDFBucket()}, nil
}

// EnsureBucketExists creates the quote PDF bucket if it doesn't exist.
func (s *MinIOService) EnsureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// StoreQuotePDF uploads a rendered quote document and returns its file key.
// Keys are tenant-prefixed so one bucket serves all tenants.
func (s *MinIOService) StoreQuotePDF(ctx context.Context, tenantID, quoteID string, pdf []byte) (string, error) {
	fileKey := fmt.Sprintf("%s/%s.pdf", tenantID, quoteID)

	_, err := s.client.PutObject(ctx, s.bucket, fileKey, bytes.NewReader(pdf), int64(len(pdf)), minio.PutObjectOptions{
		ContentType: pdfContentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload quote pdf %s: %w", fileKey, err)
	}
	return fileKey, nil
}

// GenerateDownloadURL creates a presigned URL for downloading a stored PDF.
func (s *MinIOService) GenerateDownloadURL(ctx context.Context, fileKey string) (*PresignedURL, error) {
	expiresAt := time.Now().Add(PresignedURLTTL)

	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucket, fileKey, PresignedURLTTL, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned download URL: %w", err)
	}

	return &PresignedURL{
		URL:       presignedURL.String(),
		FileKey:   fileKey,
		ExpiresAt: expiresAt,
	}, nil
}

// DeleteObject removes a stored PDF, used when a tenant purges old quotes.
func (s *MinIOService) DeleteObject(ctx context.Context, fileKey string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, fileKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", fileKey, err)
	}
	return nil
}
