// Package evidence stores page screenshots taken when an application does not
// end cleanly, so an operator can see what the wizard saw.
package evidence

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// Sink saves a screenshot and returns where it went.
type Sink interface {
	Save(ctx context.Context, name string, png []byte) (string, error)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Name builds a file name for a job's screenshot.
func Name(board, jobID string, at time.Time) string {
	clean := func(s string) string {
		s = unsafeChars.ReplaceAllString(s, "_")
		if s == "" {
			return "unknown"
		}
		return s
	}
	return fmt.Sprintf("%s-%s-%s.png", clean(board), clean(jobID), at.UTC().Format("20060102T150405Z"))
}

// DirSink writes screenshots into a local directory.
type DirSink struct {
	Dir string
}

// Save writes png to Dir/name.
func (s DirSink) Save(_ context.Context, name string, png []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create evidence directory: %w", err)
	}
	path := filepath.Join(s.Dir, filepath.Base(name))
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}
	return path, nil
}

// S3Sink uploads screenshots to a bucket.
type S3Sink struct {
	client s3iface.S3API
	bucket string
	prefix string
}

// NewS3Sink creates an S3 sink using the default AWS credential chain.
func NewS3Sink(bucket, region, prefix string) (*S3Sink, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return NewS3SinkWithClient(s3.New(sess), bucket, prefix), nil
}

// NewS3SinkWithClient creates an S3 sink over an existing client.
func NewS3SinkWithClient(client s3iface.S3API, bucket, prefix string) *S3Sink {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Sink{client: client, bucket: bucket, prefix: prefix}
}

// Save uploads png under prefix/name and returns its s3:// location.
func (s *S3Sink) Save(ctx context.Context, name string, png []byte) (string, error) {
	key := s.prefix + name
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(png),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload screenshot to S3: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
