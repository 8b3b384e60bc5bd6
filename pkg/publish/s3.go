package publish

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store publishes assets to an S3 bucket fronted by a CDN.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	store := publish.NewS3Store(s3.NewFromConfig(cfg), "my-bucket", "assets/")
//	publish.Dir(ctx, store, "dist")
type S3Store struct {
	client       *s3.Client
	bucket       string
	prefix       string
	cacheControl string
}

// NewS3Store creates an S3-backed publication store. prefix is prepended to
// every key (e.g. "assets/").
func NewS3Store(client *s3.Client, bucket, prefix string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
		// Fingerprinted names never change content, so long cache
		// lifetimes are safe.
		cacheControl: "public, max-age=31536000, immutable",
	}
}

// WithCacheControl overrides the Cache-Control header set on uploads.
func (s *S3Store) WithCacheControl(value string) *S3Store {
	s.cacheControl = value
	return s
}

// Put implements Store.
func (s *S3Store) Put(ctx context.Context, key, contentType string, r io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(s.prefix + key),
		Body:         r,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(s.cacheControl),
	})
	return err
}
