package app

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	mocking "recipeserv/src/app/mock"
)

func TestMinioS3Client(t *testing.T) {
	ctx := context.Background()

	t.Run("UploadFile", func(t *testing.T) {
		client := new(mocking.MockClient)
		s3 := newMinioS3Client(client, "mockBucket", time.Hour)
		content := []byte("Hello, World!")
		reader := bytes.NewReader(content)
		client.On("PutObject", ctx, "mockBucket", "uploads/recipe/a.jpg", reader, int64(len(content)),
			minio.PutObjectOptions{ContentType: "image/jpeg"}).
			Return(minio.UploadInfo{}, nil).Once()

		err := s3.UploadFile(ctx, "uploads/recipe/a.jpg", reader, int64(len(content)), "image/jpeg")
		assert.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("UploadFileDefaultContentType", func(t *testing.T) {
		client := new(mocking.MockClient)
		s3 := newMinioS3Client(client, "mockBucket", time.Hour)
		client.On("PutObject", ctx, "mockBucket", "x", mock.Anything, int64(0),
			minio.PutObjectOptions{ContentType: defaultContentType}).
			Return(minio.UploadInfo{}, errors.New("boom")).Once()

		err := s3.UploadFile(ctx, "x", bytes.NewReader(nil), 0, "")
		assert.ErrorContains(t, err, "boom")
		client.AssertExpectations(t)
	})

	t.Run("DeleteFile", func(t *testing.T) {
		client := new(mocking.MockClient)
		s3 := newMinioS3Client(client, "mockBucket", time.Hour)
		client.On("RemoveObject", ctx, "mockBucket", "uploads/recipe/a.jpg", minio.RemoveObjectOptions{}).
			Return(nil).Once()

		assert.NoError(t, s3.DeleteFile(ctx, "uploads/recipe/a.jpg"))
		client.AssertExpectations(t)
	})

	t.Run("FileURL", func(t *testing.T) {
		client := new(mocking.MockClient)
		s3 := newMinioS3Client(client, "mockBucket", time.Hour)
		signed, _ := url.Parse("https://s3.test/mockBucket/uploads/recipe/a.jpg?X-Amz-Signature=abc")
		client.On("PresignedGetObject", ctx, "mockBucket", "uploads/recipe/a.jpg", time.Hour, url.Values{}).
			Return(signed, nil).Once()

		got, err := s3.FileURL(ctx, "uploads/recipe/a.jpg")
		require.NoError(t, err)
		assert.Equal(t, signed.String(), got)
	})

	t.Run("EnsureBucketCreatesMissing", func(t *testing.T) {
		client := new(mocking.MockClient)
		s3 := newMinioS3Client(client, "mockBucket", time.Hour)
		client.On("BucketExists", ctx, "mockBucket").Return(false, nil).Once()
		client.On("MakeBucket", ctx, "mockBucket", minio.MakeBucketOptions{}).Return(nil).Once()

		assert.NoError(t, s3.EnsureBucket(ctx))
		client.AssertExpectations(t)
	})

	t.Run("EnsureBucketExisting", func(t *testing.T) {
		client := new(mocking.MockClient)
		s3 := newMinioS3Client(client, "mockBucket", time.Hour)
		client.On("BucketExists", ctx, "mockBucket").Return(true, nil).Once()

		assert.NoError(t, s3.EnsureBucket(ctx))
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})
}
