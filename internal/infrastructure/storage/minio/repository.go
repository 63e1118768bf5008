package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/termsim/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/termsim/pkg/errors"
)

// Scheme is the URI scheme of object sources.
const Scheme = "s3"

// ObjectURI addresses one object as s3://bucket/key.
type ObjectURI struct {
	Bucket string
	Key    string
}

func (u ObjectURI) String() string {
	return Scheme + "://" + u.Bucket + "/" + u.Key
}

// IsObjectURI reports whether s uses the s3:// scheme.
func IsObjectURI(s string) bool {
	return strings.HasPrefix(s, Scheme+"://")
}

// ParseURI parses s3://bucket/key.  The key may contain slashes.
func ParseURI(s string) (ObjectURI, error) {
	rest, ok := strings.CutPrefix(s, Scheme+"://")
	if !ok {
		return ObjectURI{}, errors.New(errors.ErrCodeSourceURIInvalid, "object URI must start with s3://").
			WithDetail("uri=" + s)
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return ObjectURI{}, errors.New(errors.ErrCodeSourceURIInvalid, "object URI needs a bucket and a key").
			WithDetail("uri=" + s)
	}
	return ObjectURI{Bucket: bucket, Key: key}, nil
}

// ObjectStore reads record sources from, and writes reports to, an object store.
type ObjectStore interface {
	// Open returns a stream over the object; the caller closes it.
	Open(ctx context.Context, uri ObjectURI) (io.ReadCloser, error)
	// Upload writes data to uri, replacing any existing object.  The bucket
	// must exist.
	Upload(ctx context.Context, uri ObjectURI, data []byte, contentType string) (*UploadResult, error)
}

type UploadResult struct {
	Bucket    string
	ObjectKey string
	ETag      string
	Size      int64
	VersionID string
}

type minioRepository struct {
	api    MinIOAPI
	logger logging.Logger
}

// NewObjectStore returns an ObjectStore backed by client.
func NewObjectStore(client *MinIOClient, logger logging.Logger) ObjectStore {
	if logger == nil {
		logger = client.logger
	}
	return &minioRepository{
		api:    client.api,
		logger: logger,
	}
}

// Open stats the object first; GetObject itself is lazy and would only fail
// on the first Read.
func (r *minioRepository) Open(ctx context.Context, uri ObjectURI) (io.ReadCloser, error) {
	info, err := r.api.StatObject(ctx, uri.Bucket, uri.Key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			err = fmt.Errorf("%w: %v", fs.ErrNotExist, err)
		}
		return nil, errors.SourceRead(uri.String(), err)
	}

	obj, err := r.api.GetObject(ctx, uri.Bucket, uri.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.SourceRead(uri.String(), err)
	}

	r.logger.Debug("object opened",
		logging.String(logging.FieldSource, uri.String()),
		logging.Int64("size", info.Size),
		logging.String("etag", info.ETag))
	return obj, nil
}

func (r *minioRepository) Upload(ctx context.Context, uri ObjectURI, data []byte, contentType string) (*UploadResult, error) {
	exists, err := r.api.BucketExists(ctx, uri.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "bucket lookup failed").WithDetail("uri=" + uri.String())
	}
	if !exists {
		return nil, errors.New(errors.ErrCodeExternalService, "bucket does not exist").WithDetail("uri=" + uri.String())
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := r.api.PutObject(ctx, uri.Bucket, uri.Key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "upload failed").WithDetail("uri=" + uri.String())
	}

	r.logger.Info("object uploaded",
		logging.String("uri", uri.String()),
		logging.Int("bytes", len(data)))

	return &UploadResult{
		Bucket:    info.Bucket,
		ObjectKey: info.Key,
		ETag:      info.ETag,
		Size:      info.Size,
		VersionID: info.VersionID,
	}, nil
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	if resp.StatusCode == http.StatusNotFound {
		return true
	}
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return true
	}
	return false
}

// ContentTypeFor guesses the report content type from an output format name.
func ContentTypeFor(format string) string {
	switch strings.ToLower(format) {
	case "json":
		return "application/json"
	case "tsv":
		return "text/tab-separated-values"
	case "text", "table":
		return "text/plain; charset=utf-8"
	default:
		return fmt.Sprintf("application/x-%s", format)
	}
}

//Personal.AI order the ending
