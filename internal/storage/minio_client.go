package storage

import (
	"context"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"scene-service/internal/config"
)

// NewMinioClient initializes a MinIO client and ensures the asset bucket
// exists.
func NewMinioClient(ctx context.Context, cfg config.Config) (*minio.Client, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating minio client failed")
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, errors.Wrapf(err, "checking bucket %s failed", cfg.MinioBucket)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrapf(err, "creating bucket %s failed", cfg.MinioBucket)
		}
		logs.WithTag("bucket", cfg.MinioBucket).Info("bucket created")
	}
	return client, nil
}
