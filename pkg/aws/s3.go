package aws

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Uploader writes objects into one bucket and returns their URLs.
type S3Uploader struct {
	client *s3.Client
	bucket string
	region string
	// PublicBaseURL overrides the virtual-hosted S3 URL (CDN or LocalStack).
	PublicBaseURL string
}

// NewS3Uploader creates an uploader for bucket.
func NewS3Uploader(cfg sdkaws.Config, bucket string) *S3Uploader {
	return &S3Uploader{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		region: cfg.Region,
	}
}

// Upload stores body under key and returns the object URL.
func (u *S3Uploader) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      sdkaws.String(u.bucket),
		Key:         sdkaws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: sdkaws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload s3://%s/%s: %w", u.bucket, key, err)
	}
	return u.ObjectURL(key), nil
}

// ObjectURL returns the URL an uploaded key is reachable at.
func (u *S3Uploader) ObjectURL(key string) string {
	if u.PublicBaseURL != "" {
		return strings.TrimSuffix(u.PublicBaseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
}
