package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/sirupsen/logrus"
)

const textContentType = "text/plain; charset=utf-8"

// S3API is the subset of *s3.Client the bucket store uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Bucket stores diary entries as objects in one S3 bucket.
type Bucket struct {
	Log  *logrus.Entry
	Name string
	S3   S3API
}

func (b *Bucket) Put(ctx context.Context, key string, body string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(b.Name),
		Key:         aws.String(key),
		Body:        strings.NewReader(body),
		ContentType: aws.String(textContentType),
	}

	_, err := b.S3.PutObject(ctx, input)
	if err != nil {
		return fmt.Errorf("error putting object %s to bucket %s: %w", key, b.Name, err)
	}

	b.Log.WithField("key", key).Debug("stored entry")

	return nil
}

func (b *Bucket) Get(ctx context.Context, key string) (string, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(b.Name),
		Key:    aws.String(key),
	}

	resp, err := b.S3.GetObject(ctx, input)
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("%s: %w", key, ErrNotFound)
		}

		return "", fmt.Errorf("error getting object %s from bucket %s: %w", key, b.Name, err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading object %s body %w", key, err)
	}

	return string(body), nil
}

func (b *Bucket) Exists(ctx context.Context, key string) (bool, error) {
	input := &s3.HeadObjectInput{
		Bucket: aws.String(b.Name),
		Key:    aws.String(key),
	}

	_, err := b.S3.HeadObject(ctx, input)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}

		return false, fmt.Errorf("error checking object %s in bucket %s: %w", key, b.Name, err)
	}

	return true, nil
}

// isNotFound reports whether err means the object is missing. HeadObject
// has no body, so a 404 there only surfaces as a generic "NotFound" code.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return true
	}

	return false
}
