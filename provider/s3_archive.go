package provider

import (
	"bytes"
	"context"
	"fmt"

	services "github.com/Itish41/EmployeeCounsel/service"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Config locates an S3-compatible bucket.
type S3Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// S3Archive stores originals of permanent-library documents.
type S3Archive struct {
	client s3iface.S3API
	bucket string
}

var _ services.BlobArchive = (*S3Archive)(nil)

// NewS3Archive opens a path-style session, which S3-compatible stores expect.
func NewS3Archive(cfg S3Config) (*S3Archive, error) {
	if cfg.Region == "" || cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("missing required S3 configuration")
	}
	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(cfg.Region),
		Endpoint:         aws.String(cfg.Endpoint),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return NewS3ArchiveWithClient(s3.New(sess), cfg.Bucket), nil
}

func NewS3ArchiveWithClient(client s3iface.S3API, bucket string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket}
}

func (a *S3Archive) Put(ctx context.Context, key, contentType string, content []byte) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(content),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := a.client.PutObjectWithContext(ctx, input); err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	return nil
}

func (a *S3Archive) Remove(ctx context.Context, key string) error {
	_, err := a.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s from S3: %w", key, err)
	}
	return nil
}
