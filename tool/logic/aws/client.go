package aws

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	ErrUploadFile = errors.New("error uploading file to s3")
)

var (
	_ S3Client = Client{}
	_ S3Client = NoOp{}
)

type (
	S3Client interface {
		GetBucketHashes(ctx context.Context, prefix string) (map[string]string, error)
		WriteFileToBucket(ctx context.Context, key, contentType string, file io.Reader) error
	}

	// S3API is the part of *s3.Client the publisher needs.
	S3API interface {
		ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
		GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
		PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	}

	Client struct {
		client S3API
		bucket string
	}

	NoOp struct {
	}
)

func New(client S3API, bucket string) *Client {
	return &Client{
		client: client,
		bucket: bucket,
	}
}

// GetBucketHashes returns the md5 of every object under prefix, keyed by object key.
func (c Client) GetBucketHashes(ctx context.Context, prefix string) (map[string]string, error) {
	hashes := make(map[string]string)
	input := &s3.ListObjectsV2Input{Bucket: aws.String(c.bucket)}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	paginator := s3.NewListObjectsV2Paginator(c.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			slog.Error("error listing objects", "error", err, "bucket", c.bucket)
			return nil, err
		}
		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			getObject, err := c.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(c.bucket), Key: object.Key})
			if err != nil {
				slog.Error("error getting object", "error", err, "bucket", c.bucket, "key", key)
				return nil, err
			}

			hash, err := CalcMD5(getObject.Body)
			getObject.Body.Close()
			if err != nil {
				slog.Error("error generating hash for object", "error", err, "bucket", c.bucket, "key", key)
				continue
			}
			hashes[key] = hash
		}
	}

	return hashes, nil
}

func CalcMD5(r io.Reader) (string, error) {
	hash := md5.New()
	if _, err := io.Copy(hash, r); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

func (c Client) WriteFileToBucket(ctx context.Context, key, contentType string, file io.Reader) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		slog.Error("error uploading file to s3", "filename", key, "error", err)
		return fmt.Errorf("error writing file %s to s3: %w - %w", key, err, ErrUploadFile)
	}

	return nil
}

func (n NoOp) GetBucketHashes(_ context.Context, _ string) (map[string]string, error) {
	return map[string]string{}, nil
}

func (n NoOp) WriteFileToBucket(_ context.Context, key, _ string, _ io.Reader) error {
	slog.Info("NoOp write for module", "key", key)
	return nil
}
