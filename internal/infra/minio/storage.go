package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// InputPrefix normalizes download keys that carry a path before the
	// real object prefix, e.g. "raw-files/".
	InputPrefix string
}

// Storage is byte-level get/put against an S3-compatible store. Backing
// store errors propagate verbatim; retry policy belongs to the caller.
type Storage struct {
	client      *miniogo.Client
	inputPrefix string
}

func NewStorage(cfg StorageConfig) (*Storage, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &Storage{client: client, inputPrefix: cfg.InputPrefix}, nil
}

func (s *Storage) EnsureBuckets(ctx context.Context, buckets ...string) error {
	for _, bucket := range buckets {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", bucket, err)
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, bucket, miniogo.MakeBucketOptions{}); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
	}
	return nil
}

func (s *Storage) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	key = normalizeKey(key, s.inputPrefix)
	obj, err := s.client.GetObject(ctx, bucket, key, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Storage) Upload(ctx context.Context, bucket, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), miniogo.PutObjectOptions{
		ContentType: "application/zip",
	})
	return err
}

// normalizeKey strips anything before the configured prefix so callers may
// pass either a bare key or a full path containing it.
func normalizeKey(key, prefix string) string {
	if prefix == "" {
		return key
	}
	if i := strings.Index(key, prefix); i >= 0 {
		return key[i:]
	}
	return key
}
