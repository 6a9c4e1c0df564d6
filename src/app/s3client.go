package app

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"recipeserv/src/logging"
)

type ClientMinio interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (info minio.UploadInfo, err error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// MinioS3Client keeps recipe images in one S3 bucket and hands out presigned URLs.
type MinioS3Client struct {
	bucketName string
	urlExpiry  time.Duration
	client     ClientMinio
}

const defaultContentType = "application/octet-stream"

// NewMinioS3Client creates a new MinioS3Client instance.
func NewMinioS3Client(endpoint, accessKeyID, secretAccessKey, bucketName string, useSSL bool, urlExpiry time.Duration) (*MinioS3Client, error) {
	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client for %s: %w", endpoint, err)
	}
	return newMinioS3Client(minioClient, bucketName, urlExpiry), nil
}

func newMinioS3Client(client ClientMinio, bucketName string, urlExpiry time.Duration) *MinioS3Client {
	return &MinioS3Client{
		bucketName: bucketName,
		urlExpiry:  urlExpiry,
		client:     client,
	}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s3 *MinioS3Client) EnsureBucket(ctx context.Context) error {
	exists, err := s3.client.BucketExists(ctx, s3.bucketName)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s3.bucketName, err)
	}
	if exists {
		return nil
	}
	if err := s3.client.MakeBucket(ctx, s3.bucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("make bucket %s: %w", s3.bucketName, err)
	}
	logging.Info().Str("bucket", s3.bucketName).Msg("created bucket")
	return nil
}

// UploadFile uploads a file to the configured bucket.
func (s3 *MinioS3Client) UploadFile(ctx context.Context, uploadPath string, object io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = defaultContentType
	}
	_, err := s3.client.PutObject(ctx,
		s3.bucketName,
		uploadPath,
		object,
		size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object %s: %w", uploadPath, err)
	}
	return nil
}

func (s3 *MinioS3Client) DeleteFile(ctx context.Context, fileName string) error {
	if err := s3.client.RemoveObject(ctx, s3.bucketName, fileName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", fileName, err)
	}
	logging.Debug().Str("bucket", s3.bucketName).Str("object", fileName).Msg("removed object")
	return nil
}

// FileURL returns a presigned GET url valid for the configured expiry.
func (s3 *MinioS3Client) FileURL(ctx context.Context, fileName string) (string, error) {
	presignedURL, err := s3.client.PresignedGetObject(ctx, s3.bucketName, fileName, s3.urlExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", fileName, err)
	}
	return presignedURL.String(), nil
}
