package aws

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the subset of the S3 client used for archiving
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver mirrors persisted documents into an S3 bucket
type S3Archiver struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewS3Archiver creates an archiver for a target of the form "bucket" or
// "bucket/key/prefix"
func NewS3Archiver(cfg aws.Config, target string) (*S3Archiver, error) {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return NewS3ArchiverWithAPI(client, target)
}

// NewS3ArchiverWithAPI creates an archiver around any PutObject implementation
func NewS3ArchiverWithAPI(api PutObjectAPI, target string) (*S3Archiver, error) {
	target = strings.TrimPrefix(strings.TrimSpace(target), "s3://")
	bucket, prefix, _ := strings.Cut(target, "/")
	if bucket == "" {
		return nil, fmt.Errorf("invalid archive bucket %q", target)
	}
	return &S3Archiver{
		client: api,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

// Key returns the object key used for a file name
func (a *S3Archiver) Key(name string) string {
	if a.prefix == "" {
		return name
	}
	return path.Join(a.prefix, name)
}

// Location returns the s3:// URI used for a file name
func (a *S3Archiver) Location(name string) string {
	return fmt.Sprintf("s3://%s/%s", a.bucket, a.Key(name))
}

// Archive uploads data under the given file name, replacing any existing object
func (a *S3Archiver) Archive(ctx context.Context, name string, data []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.Key(name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("error uploading %s: %w", a.Location(name), err)
	}
	return nil
}
