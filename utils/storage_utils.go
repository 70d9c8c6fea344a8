package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// StorageOptions configures an S3 compatible object store.
type StorageOptions struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

// Storage uploads objects into named buckets and hands out their public URLs.
type Storage struct {
	client        s3iface.S3API
	publicBaseURL string
}

func NewStorage(opts StorageOptions) (*Storage, error) {
	if opts.AccessKey == "" || opts.SecretKey == "" {
		return nil, errors.New("storage: access key and secret key are required")
	}
	cfg := &aws.Config{
		Region:      aws.String(opts.Region),
		Credentials: credentials.NewStaticCredentials(opts.AccessKey, opts.SecretKey, ""),
	}
	if opts.Endpoint != "" {
		cfg.Endpoint = aws.String(opts.Endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("storage session: %w", err)
	}
	base := opts.PublicBaseURL
	if base == "" {
		base = strings.TrimSuffix(opts.Endpoint, "/")
	}
	return NewStorageWithClient(s3.New(sess), base), nil
}

func NewStorageWithClient(client s3iface.S3API, publicBaseURL string) *Storage {
	return &Storage{client: client, publicBaseURL: strings.TrimSuffix(publicBaseURL, "/")}
}

// Upload stores data at bucket/key and returns its public URL.
func (s *Storage) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("unable to upload file to S3: %w", err)
	}

	return s.PublicURL(bucket, key), nil
}

func (s *Storage) PublicURL(bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, bucket, strings.TrimPrefix(key, "/"))
}
