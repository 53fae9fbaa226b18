// Package media archives payment evidence files to S3-compatible object
// storage. The store is optional: without an endpoint configured it becomes
// a no-op and evidence lives only as a transport file reference.
package media

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"cvbot_backend/platform/config"
	"cvbot_backend/platform/logger"
)

type EvidenceStore struct {
	client *minio.Client
	bucket string
	log    *logger.Logger
}

func NewEvidenceStore(cfg config.MinIOConfig, log *logger.Logger) (*EvidenceStore, error) {
	if !cfg.IsMinIOEnabled() {
		log.Info("evidence archive disabled, no object storage endpoint configured")
		return &EvidenceStore{log: log}, nil
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}

	return &EvidenceStore{
		client: client,
		bucket: cfg.GetMinioBucketEvidence(),
		log:    log,
	}, nil
}

func (s *EvidenceStore) Enabled() bool {
	return s.client != nil
}

// EnsureBucket creates the evidence bucket if it does not exist yet.
func (s *EvidenceStore) EnsureBucket(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check evidence bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create evidence bucket: %w", err)
	}
	return nil
}

// Archive stores one evidence file under the order it belongs to and returns
// the object key.
func (s *EvidenceStore) Archive(ctx context.Context, orderID string, data []byte, contentType string) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := fmt.Sprintf("%s/%d", orderID, time.Now().UnixNano())

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("archive evidence: %w", err)
	}
	s.log.WithOrder(orderID).Info("evidence archived", "object", key)
	return key, nil
}
