package attachments

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mamadbah2/rigcost/internal/repository"
)

// MinIOConfig holds the object storage connection settings.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinIOStore keeps attachments as objects in one bucket.
type MinIOStore struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

var _ repository.AttachmentStore = (*MinIOStore)(nil)

// NewMinIOStore connects to the object store and creates the bucket when missing.
func NewMinIOStore(ctx context.Context, cfg MinIOConfig, logger *zap.Logger) (*MinIOStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, repository.Unavailable("connect minio", eris.Wrap(err, "minio: new client"))
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, repository.Unavailable("connect minio", eris.Wrapf(err, "minio: check bucket %s", cfg.Bucket))
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, repository.IOFailure("connect minio", eris.Wrapf(err, "minio: create bucket %s", cfg.Bucket))
		}
		logger.Info("created attachment bucket", zap.String("bucket", cfg.Bucket))
	}

	return &MinIOStore{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

func (s *MinIOStore) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return repository.IOFailure("store attachment", eris.Wrapf(err, "minio: put %s", name))
	}
	return nil
}

func (s *MinIOStore) Get(ctx context.Context, name string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.readError(name, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, s.readError(name, err)
	}
	return data, nil
}

// Delete removes the object. Removing a missing key succeeds.
func (s *MinIOStore) Delete(ctx context.Context, name string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return repository.IOFailure("delete attachment", eris.Wrapf(err, "minio: remove %s", name))
	}
	return nil
}

func (s *MinIOStore) Exists(ctx context.Context, name string) (bool, error) {
	if strings.TrimSpace(name) == "" {
		return false, nil
	}
	_, err := s.client.StatObject(ctx, s.bucket, name, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNoSuchKey(err) {
		return false, nil
	}
	return false, repository.Unavailable("stat attachment", eris.Wrapf(err, "minio: stat %s", name))
}

func (s *MinIOStore) readError(name string, err error) error {
	if isNoSuchKey(err) {
		return fmt.Errorf("%w: %s", repository.ErrAttachmentNotFound, name)
	}
	return repository.Unavailable("read attachment", eris.Wrapf(err, "minio: get %s", name))
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
