package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sajmeister/aaplat/internal/config"
)

// Service is a thin wrapper over the object storage client. Errors
// propagate to the caller as-is; there is no retry or backoff layer.
type Service struct {
	client     *minio.Client
	bucketName string
}

// FilePlacement describes a single object placed into storage
type FilePlacement struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// ObjectInfo describes stored object metadata
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	LastModified time.Time `json:"last_modified"`
}

// NewService creates a new object store service instance
func NewService(cfg *config.Config) (*Service, error) {
	client, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKeyID, cfg.Storage.SecretAccessKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	service := &Service{
		client:     client,
		bucketName: cfg.Storage.BucketName,
	}

	if err := service.ensureBucket(); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return service, nil
}

// ensureBucket creates the bucket if it doesn't exist
func (s *Service) ensureBucket() error {
	ctx := context.Background()

	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// Put places content under the given key. The content type is resolved
// from the declared MIME type, then the hint, then octet-stream; the
// byte length of the content is authoritative over any caller-supplied
// size. Puts to an existing key overwrite silently.
func (s *Service) Put(ctx context.Context, key string, content []byte, declaredType, typeHint string) (FilePlacement, error) {
	contentType := declaredType
	if contentType == "" {
		contentType = typeHint
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	size := int64(len(content))

	_, err := s.client.PutObject(ctx, s.bucketName, key,
		bytes.NewReader(content), size,
		minio.PutObjectOptions{
			ContentType: contentType,
			UserMetadata: map[string]string{
				"uploaded-at": time.Now().UTC().Format(time.RFC3339),
			},
		})
	if err != nil {
		return FilePlacement{}, fmt.Errorf("failed to upload file: %w", err)
	}

	return FilePlacement{
		Key:         key,
		URL:         fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucketName, key),
		Size:        size,
		ContentType: contentType,
	}, nil
}

// PresignedGetURL creates a time-limited read URL for the given key
func (s *Service) PresignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucketName, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return presignedURL.String(), nil
}

// Delete removes an object from storage
func (s *Service) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{})
}

// Exists checks whether an object is present under the key
func (s *Service) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// Stat returns metadata about a stored object
func (s *Service) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("failed to get file metadata: %w", err)
	}

	return ObjectInfo{
		Key:          key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

// ListPrefix returns every object key under the given prefix
func (s *Service) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	objectsCh := s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for object := range objectsCh {
		if object.Err != nil {
			return nil, object.Err
		}
		keys = append(keys, object.Key)
	}

	return keys, nil
}
