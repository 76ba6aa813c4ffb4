package port

import "context"

// BlobStore is byte-level object storage addressed by (bucket, key).
// Errors from the backing store propagate verbatim; retry policy belongs
// to the caller.
type BlobStore interface {
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	Upload(ctx context.Context, bucket, key string, data []byte) error
}
