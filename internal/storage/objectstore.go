package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrObjectNotFound is returned when a key does not exist
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is the slice of S3 the model loader needs
type ObjectStore interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	PutObject(ctx context.Context, bucket, key string, data []byte) error
}

// S3Params holds connection settings for S3 or MinIO
type S3Params struct {
	EndpointURL     string
	Region          string
	UseSSL          bool
	AccessKeyID     string
	SecretAccessKey string
}

// S3Store implements ObjectStore with minio-go
type S3Store struct {
	client *minio.Client
}

// DefaultS3Endpoint is used when no endpoint is configured
const DefaultS3Endpoint = "s3.amazonaws.com"

// NewS3Store creates a client for an S3-compatible endpoint, AWS when none is given
func NewS3Store(params S3Params) (*S3Store, error) {
	if params.EndpointURL == "" {
		params.EndpointURL = "https://" + DefaultS3Endpoint
	}

	u, err := url.Parse(params.EndpointURL)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint URL: %w", err)
	}
	endpoint := u.Host
	if endpoint == "" {
		endpoint = params.EndpointURL
	}
	useSSL := params.UseSSL || u.Scheme == "https"

	var creds *credentials.Credentials
	if params.AccessKeyID != "" {
		creds = credentials.NewStaticV4(params.AccessKeyID, params.SecretAccessKey, "")
	} else {
		creds = credentials.NewEnvAWS()
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: useSSL,
		Region: params.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating S3 client: %w", err)
	}
	return &S3Store{client: client}, nil
}

// GetObject reads a whole object into memory
func (s *S3Store) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classify(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classify(err)
	}
	return data, nil
}

// PutObject writes data under key
func (s *S3Store) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

func classify(err error) error {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) && (resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket") {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, resp.Message)
	}
	return err
}

// LocalStore keeps objects on disk, one directory per bucket
type LocalStore struct {
	root string
}

// NewLocalStore creates a store rooted at dir
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// GetObject reads bucket/key from disk
func (s *LocalStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(bucket, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, key)
		}
		return nil, err
	}
	return data, nil
}

// PutObject writes bucket/key to disk
func (s *LocalStore) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full := s.path(bucket, key)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

func (s *LocalStore) path(bucket, key string) string {
	return filepath.Join(s.root, bucket, filepath.FromSlash(strings.TrimPrefix(key, "/")))
}

// ParseS3URI splits s3://bucket/prefix into its parts
func ParseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("invalid S3 URI %q: %w", uri, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid S3 URI %q", uri)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}
