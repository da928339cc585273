package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"go.uber.org/zap"
)

// S3Store uploads files to a bucket and returns the object location.
type S3Store struct {
	bucket   string
	uploader *s3manager.Uploader
	client   s3iface.S3API
	log      *zap.Logger
}

func NewS3Store(region, bucket string, log *zap.Logger) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	client := s3.New(sess)
	return &S3Store{
		bucket:   bucket,
		uploader: s3manager.NewUploaderWithClient(client),
		client:   client,
		log:      log,
	}, nil
}

func (s *S3Store) Save(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if contentType == "" {
		contentType = ContentType(key)
	}

	result, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.log.Error("failed to upload file to S3", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return result.Location, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
