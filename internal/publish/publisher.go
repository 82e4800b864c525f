package publish

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
)

// DigestMetadataKey is the user metadata key holding the manifest digest.
const DigestMetadataKey = "Digest"

// manifestContentType is the content type of uploaded manifests.
const manifestContentType = "application/json"

// ObjectStore is the subset of *minio.Client the publisher uses.
type ObjectStore interface {
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (minio.ObjectInfo, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Publisher uploads manifests to one destination.
type Publisher struct {
	store  ObjectStore
	dest   *Destination
	force  bool
	logger *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithForce uploads even when the stored object has the same digest.
func WithForce(force bool) Option {
	return func(p *Publisher) {
		p.force = force
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher writing to dest through store.
func NewPublisher(store ObjectStore, dest *Destination, opts ...Option) *Publisher {
	p := &Publisher{
		store: store,
		dest:  dest,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// Result describes one publish call.
type Result struct {
	Bucket string
	Key    string
	Size   int64

	// Skipped is set when the stored object already had the same digest.
	Skipped bool
}

// Publish uploads data as fileName tagged with digest.
// When the stored object already carries digest the upload is skipped
// unless the publisher was created WithForce.
func (p *Publisher) Publish(ctx context.Context, fileName string, data []byte, digest string) (*Result, error) {
	key := p.dest.ObjectName(fileName)
	result := &Result{Bucket: p.dest.Bucket, Key: key, Size: int64(len(data))}

	if !p.force {
		info, err := p.store.StatObject(ctx, p.dest.Bucket, key, minio.GetObjectOptions{})
		switch {
		case err == nil:
			if info.UserMetadata[DigestMetadataKey] == digest {
				p.logger.Info("object unchanged, skipping upload", "bucket", p.dest.Bucket, "key", key)
				result.Skipped = true
				return result, nil
			}
		case minio.ToErrorResponse(err).Code == "NoSuchKey":
			p.logger.Debug("object not found, uploading", "key", key)
		default:
			return nil, fmt.Errorf("failed to stat %s: %w", key, err)
		}
	}

	info, err := p.store.PutObject(ctx, p.dest.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  manifestContentType,
		UserMetadata: map[string]string{DigestMetadataKey: digest},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	result.Size = info.Size
	p.logger.Info("manifest published", "bucket", p.dest.Bucket, "key", key, "size", info.Size)
	return result, nil
}
