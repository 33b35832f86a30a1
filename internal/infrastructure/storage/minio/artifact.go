package minio

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SymptomSense/pkg/errors"
)

var ErrObjectNotFound = errors.New(errors.ErrCodeNotFound, "object not found")

const artifactContentType = "application/json"

// ObjectInfo describes a stored artifact.
type ObjectInfo struct {
	Bucket       string
	Key          string
	ETag         string
	Size         int64
	LastModified time.Time
}

// ArtifactStore reads and writes one model artifact object.  It satisfies
// disease.ArtifactSource.
type ArtifactStore struct {
	client *MinIOClient
	object string
	logger logging.Logger
}

func NewArtifactStore(client *MinIOClient, object string, logger logging.Logger) *ArtifactStore {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ArtifactStore{client: client, object: object, logger: logger.Named("artifact-store")}
}

// Describe names the object as minio:bucket/object.
func (s *ArtifactStore) Describe() string {
	return "minio:" + s.client.Bucket() + "/" + s.object
}

// Open streams the artifact.  The object is stat'ed first because
// GetObject defers errors to the first read.
func (s *ArtifactStore) Open(ctx context.Context) (io.ReadCloser, error) {
	if _, err := s.Stat(ctx); err != nil {
		return nil, err
	}
	api, err := s.client.API()
	if err != nil {
		return nil, err
	}
	rc, err := api.GetObject(ctx, s.client.Bucket(), s.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "download failed").WithDetail(s.Describe())
	}
	return rc, nil
}

// Stat returns the stored object's metadata.
func (s *ArtifactStore) Stat(ctx context.Context) (*ObjectInfo, error) {
	api, err := s.client.API()
	if err != nil {
		return nil, err
	}
	info, err := api.StatObject(ctx, s.client.Bucket(), s.object, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrObjectNotFound.WithDetail(s.Describe())
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "stat failed").WithDetail(s.Describe())
	}
	return &ObjectInfo{
		Bucket:       s.client.Bucket(),
		Key:          s.object,
		ETag:         info.ETag,
		Size:         info.Size,
		LastModified: info.LastModified,
	}, nil
}

// Upload replaces the artifact.  size may be -1 when unknown.
func (s *ArtifactStore) Upload(ctx context.Context, r io.Reader, size int64) (*ObjectInfo, error) {
	api, err := s.client.API()
	if err != nil {
		return nil, err
	}
	info, err := api.PutObject(ctx, s.client.Bucket(), s.object, r, size, minio.PutObjectOptions{ContentType: artifactContentType})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "upload failed").WithDetail(s.Describe())
	}
	s.logger.Info("model artifact uploaded",
		logging.String("object", s.Describe()),
		logging.String("etag", info.ETag),
		logging.Int64("size", info.Size))
	return &ObjectInfo{
		Bucket:       info.Bucket,
		Key:          info.Key,
		ETag:         info.ETag,
		Size:         info.Size,
		LastModified: info.LastModified,
	}, nil
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return true
	}
	return false
}
