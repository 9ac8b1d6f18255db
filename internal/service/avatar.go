package service

import (
	"context"
	"fmt"
	"io"

	s3store "notedai/api/aws"
	"notedai/api/pkg/util"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// ObjectStore keeps user uploaded objects such as avatars.
type ObjectStore interface {
	Put(ctx context.Context, userID string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type AvatarStore struct {
	S3       *s3store.S3Client
	uploader *manager.Uploader
}

func NewAvatarStore(c *s3store.S3Client) *AvatarStore {
	return &AvatarStore{
		S3: c,
		uploader: manager.NewUploader(c.C, func(u *manager.Uploader) {
			u.Concurrency = 2
		}),
	}
}

// Put uploads an avatar under a fresh key and returns that key.
func (a *AvatarStore) Put(ctx context.Context, userID string, body io.Reader, size int64, contentType string) (string, error) {
	key := fmt.Sprintf("avatars/%s/%s", userID, util.RandStr(16))

	_, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        a.S3.Bucket,
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar, %w", err)
	}

	zap.L().Debug("Avatar uploaded", zap.String("key", key), zap.Int64("size", size))

	return key, nil
}

func (a *AvatarStore) Delete(ctx context.Context, key string) error {
	_, err := a.S3.C.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: a.S3.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete avatar, %w", err)
	}

	return nil
}
