package blob

import (
	"context"
	"fmt"
	"io"
	"path"

	minio "github.com/minio/minio-go/v7"

	s3c "github.com/yeisme/notesphere/pkg/internal/storage/s3"
)

// S3Store 基于 MinIO/S3 的存储.
type S3Store struct {
	client *s3c.Client
	prefix string
}

// NewS3Store 创建 S3 存储，prefix 会拼接在每个对象键之前.
func NewS3Store(client *s3c.Client, prefix string) *S3Store {
	return &S3Store{client: client, prefix: prefix}
}

func (s *S3Store) objectName(key string) string {
	if s.prefix == "" {
		return key
	}

	return path.Join(s.prefix, key)
}

func (s *S3Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.client.Bucket(), s.objectName(key), r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}

	return nil
}

func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.client.Bucket(), s.objectName(key), minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}

	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}

	return false, fmt.Errorf("stat object %s: %w", key, err)
}

func (s *S3Store) Open(ctx context.Context, key string) (io.ReadCloser, Info, error) {
	obj, err := s.client.GetObject(ctx, s.client.Bucket(), s.objectName(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, Info{}, fmt.Errorf("get object %s: %w", key, err)
	}

	st, err := obj.Stat()
	if err != nil {
		_ = obj.Close()

		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, Info{}, ErrNotFound
		}

		return nil, Info{}, fmt.Errorf("stat object %s: %w", key, err)
	}

	return obj, Info{Key: key, Size: st.Size, ContentType: st.ContentType, ModTime: st.LastModified}, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.client.Bucket(), s.objectName(key), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}

	return nil
}

func (s *S3Store) Ping(ctx context.Context) error {
	return s.client.HealthCheck(ctx)
}
