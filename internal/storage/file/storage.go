package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/aliskhannn/media-service/internal/model"
)

const codeNoSuchKey = "NoSuchKey"

// Storage provides an S3-compatible blob store backed by MinIO.
// Each instance works on a single bucket; file storage and cache storage are
// two instances over different buckets.
type Storage struct {
	client     *minio.Client
	bucketName string
}

// NewStorage creates a new Storage instance connected to the specified MinIO server.
// If the bucket does not exist, it will be created automatically.
func NewStorage(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*Storage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Storage{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// Upload stores body under key.
func (s *Storage) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %v: %w", key, err, model.ErrUpstream)
	}

	return nil
}

// Download reads the object stored under key.
// It returns model.ErrNotFound when there is none.
func (s *Storage) Download(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrap("download", key, err)
	}
	defer obj.Close()

	body, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.wrap("download", key, err)
	}

	return body, nil
}

// Delete removes the object stored under key. Missing objects are not an error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		err = s.wrap("delete", key, err)
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}

		return err
	}

	return nil
}

// Copy duplicates the object under src to dst inside the bucket.
func (s *Storage) Copy(ctx context.Context, src, dst string) error {
	_, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: s.bucketName, Object: dst},
		minio.CopySrcOptions{Bucket: s.bucketName, Object: src},
	)
	if err != nil {
		return s.wrap("copy", src, err)
	}

	return nil
}

func (s *Storage) wrap(op, key string, err error) error {
	if minio.ToErrorResponse(err).Code == codeNoSuchKey {
		return fmt.Errorf("%s %s: %w", op, key, model.ErrNotFound)
	}

	return fmt.Errorf("failed to %s %s: %v: %w", op, key, err, model.ErrUpstream)
}
