package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client used by S3BlobStore.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3BlobStore stores images as objects under a key prefix of one bucket.
type S3BlobStore struct {
	client     S3API
	bucketName string
	prefix     string
	publicBase string
}

// NewS3BlobStore creates a store writing to bucket under prefix. publicBase is
// the URL prefix objects are served from; when empty the virtual-hosted S3
// endpoint of the bucket is used.
func NewS3BlobStore(client S3API, bucket, prefix, publicBase string) *S3BlobStore {
	if publicBase == "" {
		publicBase = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3BlobStore{
		client:     client,
		bucketName: bucket,
		prefix:     prefix,
		publicBase: strings.TrimRight(publicBase, "/"),
	}
}

func (s *S3BlobStore) Bucket() string {
	return s.bucketName + "/" + strings.TrimSuffix(s.prefix, "/")
}

func (s *S3BlobStore) key(name string) string {
	return s.prefix + name
}

// Put uploads data and returns the public URL of the object.
func (s *S3BlobStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(s.key(name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := s.publicBase + "/" + s.key(name)
	slog.Debug("uploaded object to S3", "bucket", s.bucketName, "key", s.key(name))
	return publicURL, nil
}

// Remove deletes the named objects in a single request.
func (s *S3BlobStore) Remove(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	objects := make([]types.ObjectIdentifier, 0, len(names))
	for _, name := range names {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(s.key(name))})
	}

	out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucketName),
		Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	if len(out.Errors) > 0 {
		first := out.Errors[0]
		return fmt.Errorf("failed to delete %d object(s) from S3, first %s: %s",
			len(out.Errors), aws.ToString(first.Key), aws.ToString(first.Message))
	}
	return nil
}

func (s *S3BlobStore) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.key(name)),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat S3 object: %w", err)
}

// NameFromURL accepts only URLs this store produced.
func (s *S3BlobStore) NameFromURL(url string) (string, error) {
	name, ok := strings.CutPrefix(url, s.publicBase+"/"+s.prefix)
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("url %q is not an object of %s", url, s.Bucket())
	}
	return name, nil
}
