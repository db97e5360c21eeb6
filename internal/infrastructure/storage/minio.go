package storage

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/retrace-app/retrace/pkg/config"
)

// ChunkMirror archives finalized chunk files to an S3-compatible bucket.
// Mirroring is strictly best effort: the local chunk file plus the archive
// rows remain the durable representation.
type ChunkMirror struct {
	client *minio.Client
	bucket string
}

// NewChunkMirror creates the mirror client and ensures the bucket exists.
func NewChunkMirror(cfg *config.StorageConfig) (*ChunkMirror, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	m := &ChunkMirror{
		client: minioClient,
		bucket: cfg.BucketName,
	}

	if err := m.ensureBucket(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return m, nil
}

func (m *ChunkMirror) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// UploadChunk copies a finalized chunk file into the bucket under its
// base name. Chunks are immutable, so an object is never overwritten with
// different content.
func (m *ChunkMirror) UploadChunk(ctx context.Context, objectName, filePath string) error {
	_, err := m.client.FPutObject(ctx, m.bucket, objectName, filePath, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("failed to upload chunk %s: %w", objectName, err)
	}
	return nil
}
